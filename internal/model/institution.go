package model

// Institution publishes programs and offers.
type Institution struct {
	Lifecycle
	Name        string  `gorm:"type:varchar(255);not null" json:"name"`
	Description *string `gorm:"type:text"                  json:"description,omitempty"`
}

func (Institution) TableName() string { return "institutions" }

// Program groups offers under an institution.
type Program struct {
	Lifecycle
	InstitutionID string  `gorm:"type:uuid;not null"         json:"institution_id"`
	Name          string  `gorm:"type:varchar(255);not null" json:"name"`
	Description   *string `gorm:"type:text"                  json:"description,omitempty"`
}

func (Program) TableName() string { return "programs" }
