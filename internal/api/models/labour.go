package models

import "time"

// LabourEntry records time logged against a scheduled assignment. Saved
// entries never retroactively alter the assignment they were logged against.
type LabourEntry struct {
	ID              uint `gorm:"primaryKey"`
	JobID           uint `gorm:"index"`
	AssignmentID    uint `gorm:"index"`
	EmployeeID      uint `gorm:"index"`
	Date            time.Time
	Start           time.Time
	End             time.Time
	Rate            float64
	WorkedHours     float64
	UnchargedHours  float64
	ChargeableHours float64
	ChargedOut      float64
	Description     string
	UnchargedRows   []UnchargedTimeRow `gorm:"foreignKey:LabourEntryID"`
}

type UnchargedTimeRow struct {
	ID            uint `gorm:"primaryKey"`
	LabourEntryID uint `gorm:"index"`
	ReasonID      uint
	Minutes       int
}

// UnchargedReason is a catalog entry for non-billable time deductions.
type UnchargedReason struct {
	ID    uint `gorm:"primaryKey"`
	Label string
}
