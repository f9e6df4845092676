package websocket

import (
	errors2 "errors"
	"time"

	"fieldops/internal/feed"
)

// AssignmentMove repositions an existing assignment, keyed by its ID
type AssignmentMove struct {
	AssignmentID uint      `json:"assignmentId"`
	EmployeeID   uint      `json:"employeeId"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
}

// AssignmentUpsert sets an employee's slot on the room's job
type AssignmentUpsert struct {
	EmployeeID uint      `json:"employeeId"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

// AssignmentDelete unassigns an employee from the room's job
type AssignmentDelete struct {
	EmployeeID uint `json:"employeeId"`
}

// JobCreate opens a blank job with one assignment at the clicked slot
type JobCreate struct {
	EmployeeID uint      `json:"employeeId"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

// JobUpdate patches job detail fields; nil fields are left untouched
type JobUpdate struct {
	Title        *string `json:"title,omitempty"`
	Client       *string `json:"client,omitempty"`
	Address      *string `json:"address,omitempty"`
	Notes        *string `json:"notes,omitempty"`
	ContactName  *string `json:"contactName,omitempty"`
	ContactPhone *string `json:"contactPhone,omitempty"`
	ContactEmail *string `json:"contactEmail,omitempty"`
	Status       *string `json:"status,omitempty"`
	Color        *string `json:"color,omitempty"`
}

// LabourSaveRow is one uncharged-time deduction
type LabourSaveRow struct {
	ReasonID uint `json:"reasonId"`
	Minutes  int  `json:"minutes"`
}

// LabourSave records worked time against an assignment
type LabourSave struct {
	AssignmentID uint            `json:"assignmentId"`
	Start        time.Time       `json:"start"`
	End          time.Time       `json:"end"`
	Description  string          `json:"description"`
	Rows         []LabourSaveRow `json:"rows"`
}

// UserInfo represents user information in the room
type UserInfo struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Color    string `json:"color"`
}

// ErrorMessage represents an error message
type ErrorMessage struct {
	Error         error  `json:"error"`
	CustomMessage string `json:"customMessage"`
}

// NewErrorMessage creates a new error message
func NewErrorMessage(jobID uint, userID uint, username string, errorText string, errors ...error) Message {
	return Message{
		Type:      MessageTypeError,
		JobID:     jobID,
		UserID:    userID,
		Username:  username,
		Timestamp: time.Now(),
		Data: ErrorMessage{
			Error:         errors2.Join(errors...),
			CustomMessage: errorText,
		},
	}
}

// NewUserJoinMessage creates a new user join message
func NewUserJoinMessage(jobID uint, userID uint, username string, userInfo UserInfo) Message {
	return Message{
		Type:      MessageTypeUserJoin,
		JobID:     jobID,
		UserID:    userID,
		Username:  username,
		Timestamp: time.Now(),
		Data:      userInfo,
	}
}

// NewUserLeaveMessage creates a new user leave message
func NewUserLeaveMessage(jobID uint, userID uint, username string, userInfo UserInfo) Message {
	return Message{
		Type:      MessageTypeUserLeave,
		JobID:     jobID,
		UserID:    userID,
		Username:  username,
		Timestamp: time.Now(),
		Data:      userInfo,
	}
}

// NewJobsSnapshotMessage wraps a jobs feed event for the board room
func NewJobsSnapshotMessage(event feed.JobsEvent) Message {
	return Message{
		Type:      MessageTypeJobsSnapshot,
		JobID:     BoardRoomID,
		Username:  "system",
		Timestamp: event.ServerTime,
		Data:      event,
	}
}

// NewAssignmentsSnapshotMessage wraps an assignments feed event for the
// job's detail room
func NewAssignmentsSnapshotMessage(event feed.AssignmentsEvent) Message {
	return Message{
		Type:      MessageTypeAssignmentsSnapshot,
		JobID:     event.JobID,
		Username:  "system",
		Timestamp: event.ServerTime,
		Data:      event,
	}
}
