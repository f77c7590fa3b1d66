package models

// NgoScheme describes a government or NGO support scheme together with the
// eligibility bounds used by the scheme filter. A nil bound means unrestricted.
type NgoScheme struct {
	ID               int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id" validate:"required,gt=0"`
	Name             string    `gorm:"column:name;not null;index:idx_ngo_name" json:"name" validate:"required"`
	Ministry         *string   `gorm:"column:ministry" json:"ministry"`
	Deadline         *string   `gorm:"column:deadline" json:"deadline"`
	Location         *string   `gorm:"column:location" json:"location"`
	ContactNumber    *string   `gorm:"column:contact_number" json:"contact_number"`
	NoOfDocsRequired *int      `gorm:"column:no_of_docs_required" json:"no_of_docs_required"`
	Status           *string   `gorm:"column:status;index:idx_ngo_status" json:"status"`
	BenefitText      *string   `gorm:"column:benefit_text" json:"benefit_text"`
	EligibilityText  *string   `gorm:"column:eligibility_text" json:"eligibility_text"`
	SchemeType       *string   `gorm:"column:scheme_type;index:idx_ngo_scheme_type" json:"scheme_type"`
	RequiredState    *string   `gorm:"column:required_state;index:idx_ngo_required_state" json:"required_state"`
	MinLand          *float64  `gorm:"column:min_land" json:"min_land"`
	MaxLand          *float64  `gorm:"column:max_land" json:"max_land"`
	RequiredCategory *string   `gorm:"column:required_category" json:"required_category"`
	AgeMin           *int      `gorm:"column:age_min" json:"age_min"`
	AgeMax           *int      `gorm:"column:age_max" json:"age_max"`
	OfficialLink     *string   `gorm:"column:official_link" json:"official_link"`
	CreatedAt        Timestamp `gorm:"column:created_at;autoCreateTime:false" json:"created_at"`
	UpdatedAt        Timestamp `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at"`
}

// TableName pins the legacy table name.
func (NgoScheme) TableName() string { return "ngo_schemes" }
