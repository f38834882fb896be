package models

// Category groups products for catalog filtering and reporting.
// Code is the stable machine identifier; Name is what the UI shows.
type Category struct {
	ID   uint   `gorm:"primaryKey"`
	Code string `gorm:"uniqueIndex;not null"`
	Name string `gorm:"not null"`
}

func (c *Category) TableName() string {
	return "categories"
}
