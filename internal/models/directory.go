package models

// SoilLab is a soil testing laboratory listing.
type SoilLab struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id" validate:"required,gt=0"`
	Name          string    `gorm:"column:name;not null;index:idx_soil_name" json:"name" validate:"required"`
	Location      *string   `gorm:"column:location;index:idx_soil_location" json:"location"`
	ContactNumber *string   `gorm:"column:contact_number" json:"contact_number"`
	Price         *float64  `gorm:"column:price" json:"price"`
	Rating        *float64  `gorm:"column:rating" json:"rating"`
	Tag           *string   `gorm:"column:tag" json:"tag"`
	CreatedAt     Timestamp `gorm:"column:created_at;autoCreateTime:false" json:"created_at"`
	UpdatedAt     Timestamp `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at"`
}

// TableName pins the legacy table name.
func (SoilLab) TableName() string { return "soil_lab" }

// ExpertInfo is an agronomy expert available for consultation.
type ExpertInfo struct {
	ID                int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id" validate:"required,gt=0"`
	Name              string    `gorm:"column:name;not null" json:"name" validate:"required"`
	ExperienceYears   int       `gorm:"column:experience_years;not null" json:"experience_years" validate:"gte=0"`
	Specializations   *string   `gorm:"column:specializations" json:"specializations"`
	Rating            *float64  `gorm:"column:rating" json:"rating"`
	ConsultationCount *int      `gorm:"column:consultation_count" json:"consultation_count"`
	PhoneNumber       *string   `gorm:"column:phone_number" json:"phone_number"`
	CreatedAt         Timestamp `gorm:"column:created_at;autoCreateTime:false" json:"created_at"`
	UpdatedAt         Timestamp `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at"`
}

// TableName pins the legacy table name.
func (ExpertInfo) TableName() string { return "experts_info" }
