package models

// FarmModels returns one zero value per FarmIQ table in migration dependency order.
func FarmModels() []interface{} {
	return []interface{}{
		&User{},
		&Profile{},
		&NgoScheme{},
		&SoilLab{},
		&CropHistory{},
		&IotReading{},
		&IotStatus{},
		&ExpertInfo{},
		&FarmerForumItem{},
		&ForumPost{},
		&ForumReply{},
	}
}
