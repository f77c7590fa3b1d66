package models

// User is a FarmIQ account (farmer, vendor or admin).
type User struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id" validate:"required,gt=0"`
	Email        string    `gorm:"column:email;uniqueIndex;not null" json:"email" validate:"required"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-" validate:"required"`
	Role         *string   `gorm:"column:role" json:"role"`
	Phone        *string   `gorm:"column:phone" json:"phone"`
	CreatedAt    Timestamp `gorm:"column:created_at;autoCreateTime:false" json:"created_at"`
	UpdatedAt    Timestamp `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at"`
}

// TableName pins the legacy table name.
func (User) TableName() string { return "users" }

// Profile holds per-user details keyed by the owning user id.
type Profile struct {
	ID                int64     `gorm:"column:id;primaryKey;autoIncrement:false" json:"id" validate:"required,gt=0"`
	FullName          *string   `gorm:"column:full_name" json:"full_name"`
	Email             *string   `gorm:"column:email" json:"email"`
	PhoneNumber       *string   `gorm:"column:phone_number" json:"phone_number"`
	LanguagePref      *string   `gorm:"column:language_pref" json:"language_pref"`
	Location          *string   `gorm:"column:location" json:"location"`
	CropsGrown        *string   `gorm:"column:crops_grown" json:"crops_grown"`
	AvailableQuantity *string   `gorm:"column:available_quantity" json:"available_quantity"`
	ExpectedPrice     *string   `gorm:"column:expected_price" json:"expected_price"`
	CreatedAt         Timestamp `gorm:"column:created_at;autoCreateTime:false" json:"created_at"`
	UpdatedAt         Timestamp `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at"`
}

// TableName pins the legacy table name.
func (Profile) TableName() string { return "profiles" }
