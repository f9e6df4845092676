package response

import (
	"time"

	"fieldops/internal/api/models"
)

// Job response without assignments (for listing)
type Job struct {
	ID           uint             `json:"id"`
	Title        string           `json:"title"`
	Client       string           `json:"client"`
	Address      string           `json:"address"`
	Notes        string           `json:"notes"`
	ContactName  string           `json:"contactName"`
	ContactPhone string           `json:"contactPhone"`
	ContactEmail string           `json:"contactEmail"`
	Status       models.JobStatus `json:"status"`
	Color        string           `json:"color"`
}

// Assignment is one employee's slot on a job. Completed is null until
// labour has been recorded against the slot.
type Assignment struct {
	ID         uint      `json:"id"`
	JobID      uint      `json:"jobId"`
	EmployeeID uint      `json:"employeeId"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Completed  *bool     `json:"completed"`
}

// JobWithAssignments response for single job get (the detail editor load)
type JobWithAssignments struct {
	Job
	Assignments []Assignment `json:"assignments"`
}

// ScheduleItem is one assignment joined with its job, the unit day and week
// boards render. Hours is the block's duration rounded to the nearest quarter
// hour for display; charge figures always come from the labour entry instead.
type ScheduleItem struct {
	Job        Job        `json:"job"`
	Assignment Assignment `json:"assignment"`
	Hours      float64    `json:"hours"`
}

// ScheduleDay is one day bucket on the week board
type ScheduleDay struct {
	Date  time.Time      `json:"date"`
	Items []ScheduleItem `json:"items"`
}

// MonthCell is one calendar day: jobs shown at their primary assignment
type MonthCell struct {
	Day  int   `json:"day"`
	Jobs []Job `json:"jobs"`
}
