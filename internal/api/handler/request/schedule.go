package request

import "time"

// DropAssignment carries one drop gesture from a schedule grid. The pixel
// geometry comes from the client's rendered lane; the server owns snapping
// and range checks.
type DropAssignment struct {
	AssignmentID     uint      `json:"assignmentId" validate:"required"`
	TargetEmployeeID uint      `json:"targetEmployeeId" validate:"required"`
	View             string    `json:"view" validate:"required,oneof=day week month"`
	Date             time.Time `json:"date" validate:"required"`
	DayIndex         int       `json:"dayIndex" validate:"gte=0,lte=6"`
	CursorX          float64   `json:"cursorX"`
	GrabOffsetX      float64   `json:"grabOffsetX"`
	PixelsPerHour    float64   `json:"pixelsPerHour" validate:"required,gt=0"`
}
