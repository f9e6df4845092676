package response

import "time"

type UnchargedRow struct {
	ReasonID uint `json:"reasonId"`
	Minutes  int  `json:"minutes"`
}

type LabourEntry struct {
	ID              uint           `json:"id"`
	JobID           uint           `json:"jobId"`
	AssignmentID    uint           `json:"assignmentId"`
	EmployeeID      uint           `json:"employeeId"`
	Date            time.Time      `json:"date"`
	Start           time.Time      `json:"start"`
	End             time.Time      `json:"end"`
	Rate            float64        `json:"rate"`
	WorkedHours     float64        `json:"workedHours"`
	UnchargedHours  float64        `json:"unchargedHours"`
	ChargeableHours float64        `json:"chargeableHours"`
	ChargedOut      float64        `json:"chargedOut"`
	Description     string         `json:"description"`
	Rows            []UnchargedRow `json:"rows"`
}

type UnchargedReason struct {
	ID    uint   `json:"id"`
	Label string `json:"label"`
}

// Timesheet is one employee's labour for a week with rolled-up totals
type Timesheet struct {
	EmployeeID      uint          `json:"employeeId"`
	WeekStart       time.Time     `json:"weekStart"`
	Entries         []LabourEntry `json:"entries"`
	WorkedHours     float64       `json:"workedHours"`
	UnchargedHours  float64       `json:"unchargedHours"`
	ChargeableHours float64       `json:"chargeableHours"`
	ChargedOut      float64       `json:"chargedOut"`
}
