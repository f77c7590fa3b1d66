package models

// CropHistory records a harvest for a user.
type CropHistory struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id" validate:"required,gt=0"`
	UserID         int64     `gorm:"column:user_id;not null;index:idx_crop_history_user" json:"user_id" validate:"required,gt=0"`
	CropName       string    `gorm:"column:crop_name;not null" json:"crop_name" validate:"required"`
	CropPrice      *float64  `gorm:"column:crop_price" json:"crop_price"`
	SellingPrice   *float64  `gorm:"column:selling_price" json:"selling_price"`
	CropProducedKg *float64  `gorm:"column:crop_produced_kg" json:"crop_produced_kg"`
	CreatedAt      Timestamp `gorm:"column:created_at;autoCreateTime:false" json:"created_at"`
	UpdatedAt      Timestamp `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at"`
}

// TableName pins the legacy table name.
func (CropHistory) TableName() string { return "crop_history" }
