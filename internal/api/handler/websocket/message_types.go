package websocket

import (
	"time"
)

// Message is the base message structure
// Data field uses 'any' to allow different types through channels
type Message struct {
	Type      MessageType `json:"type"`
	JobID     uint        `json:"jobId,omitempty"`
	UserID    uint        `json:"userId"`
	Username  string      `json:"username"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}

// MessageType represents the type of WebSocket message
type MessageType string

// Room 0 is the whole schedule board; room N is job N's detail view.
const (
	// Assignment operations
	MessageTypeAssignmentMove   MessageType = "assignment_move"
	ResponseAssignmentMove      MessageType = "response_assignment_move"
	MessageTypeAssignmentUpsert MessageType = "assignment_upsert"
	ResponseAssignmentUpsert    MessageType = "response_assignment_upsert"
	MessageTypeAssignmentDelete MessageType = "assignment_delete"
	ResponseAssignmentDelete    MessageType = "response_assignment_delete"

	// Job operations
	MessageTypeJobCreate MessageType = "job_create"
	ResponseJobCreate    MessageType = "response_job_create"
	MessageTypeJobUpdate MessageType = "job_update"
	ResponseJobUpdate    MessageType = "response_job_update"
	MessageTypeJobDelete MessageType = "job_delete"
	ResponseJobDelete    MessageType = "response_job_delete"

	// Labour operations
	MessageTypeLabourSave MessageType = "labour_save"
	ResponseLabourSave    MessageType = "response_labour_save"

	// Server push: whole-collection snapshots off the change feed
	MessageTypeJobsSnapshot        MessageType = "jobs_snapshot"
	MessageTypeAssignmentsSnapshot MessageType = "assignments_snapshot"

	// User interactions
	MessageTypeCursorMove MessageType = "cursor_move"
	MessageTypeChat       MessageType = "chat"
	MessageTypeUserJoin   MessageType = "user_join"
	MessageTypeUserLeave  MessageType = "user_leave"

	// System messages
	MessageTypeError MessageType = "error"
	MessageTypePing  MessageType = "ping"
	MessageTypePong  MessageType = "pong"
)
