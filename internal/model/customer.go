package model

type Customer struct {
	BaseModel
	Name           string `gorm:"type:varchar(255);not null;index" json:"name" validate:"required"`
	Phone          string `gorm:"type:varchar(20)" json:"phone"`
	SpecialPricing bool   `gorm:"not null" json:"special_pricing"`
}
