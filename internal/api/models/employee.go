package models

// Employee is a directory record. Identity is the DB-issued ID, assigned once
// at creation and never derived from display data.
type Employee struct {
	ID         uint `gorm:"primaryKey"`
	Name       string
	HourlyRate float64
	Active     bool
}
