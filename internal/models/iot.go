package models

// IotReading is a request for an IoT soil sensor visit.
type IotReading struct {
	ID                 int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id" validate:"required,gt=0"`
	UserID             int64     `gorm:"column:user_id;not null;index:idx_iot_reading_user_id" json:"user_id" validate:"required,gt=0"`
	Name               string    `gorm:"column:name;not null" json:"name" validate:"required"`
	PhoneNumber        string    `gorm:"column:phone_number;not null" json:"phone_number" validate:"required"`
	Location           *string   `gorm:"column:location" json:"location"`
	State              *string   `gorm:"column:state" json:"state"`
	District           *string   `gorm:"column:district" json:"district"`
	PreferredVisitDate *string   `gorm:"column:preferred_visit_date" json:"preferred_visit_date"`
	Status             *string   `gorm:"column:status" json:"status"`
	CreatedAt          Timestamp `gorm:"column:created_at;autoCreateTime:false" json:"created_at"`
	UpdatedAt          Timestamp `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at"`
}

// TableName pins the legacy table name.
func (IotReading) TableName() string { return "iot_reading" }

// IotStatus is the device activation state of a user, keyed by user id.
type IotStatus struct {
	UserID    int64     `gorm:"column:user_id;primaryKey;autoIncrement:false" json:"user_id" validate:"required,gt=0"`
	Status    string    `gorm:"column:status;not null" json:"status" validate:"required"`
	UpdatedAt Timestamp `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at"`
}

// TableName pins the legacy table name.
func (IotStatus) TableName() string { return "iot_status" }
