package models

import "time"

// Assignment is one employee's block of time on one job. End must be after
// Start; writes violating that are rejected before they reach the store.
//
// Completed is tri-state: nil means assigned but no labour entered yet,
// true/false is the labour completion state once scheduled.
type Assignment struct {
	ID         uint `gorm:"primaryKey"`
	JobID      uint `gorm:"index"`
	EmployeeID uint `gorm:"index"`
	Start      time.Time
	End        time.Time
	Completed  *bool
	UpdatedAt  time.Time
}

// Duration returns the scheduled length of the assignment.
func (a Assignment) Duration() time.Duration {
	return a.End.Sub(a.Start)
}
