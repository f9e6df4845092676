package request

import "time"

type CreateJob struct {
	Title        string    `json:"title"`
	Client       string    `json:"client"`
	Address      string    `json:"address"`
	Notes        string    `json:"notes"`
	ContactName  string    `json:"contactName"`
	ContactPhone string    `json:"contactPhone"`
	ContactEmail string    `json:"contactEmail" validate:"omitempty,email"`
	Status       string    `json:"status"`
	Color        string    `json:"color"`
	EmployeeID   uint      `json:"employeeId" validate:"required"`
	Start        time.Time `json:"start" validate:"required"`
	End          time.Time `json:"end" validate:"required"`
}

type UpdateJob struct {
	Title        *string `json:"title,omitempty"`
	Client       *string `json:"client,omitempty"`
	Address      *string `json:"address,omitempty"`
	Notes        *string `json:"notes,omitempty"`
	ContactName  *string `json:"contactName,omitempty"`
	ContactPhone *string `json:"contactPhone,omitempty"`
	ContactEmail *string `json:"contactEmail,omitempty" validate:"omitempty,email"`
	Status       *string `json:"status,omitempty"`
	Color        *string `json:"color,omitempty"`
}

// UpsertAssignment sets an employee's slot on a job. At most one assignment
// per (job, employee) exists through this path.
type UpsertAssignment struct {
	EmployeeID uint      `json:"employeeId" validate:"required"`
	Start      time.Time `json:"start" validate:"required"`
	End        time.Time `json:"end" validate:"required"`
}

// MoveAssignment repositions an assignment addressed by its ID in the path
type MoveAssignment struct {
	EmployeeID uint      `json:"employeeId" validate:"required"`
	Start      time.Time `json:"start" validate:"required"`
	End        time.Time `json:"end" validate:"required"`
}
