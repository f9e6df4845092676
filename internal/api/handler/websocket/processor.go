package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"fieldops/internal/api/models"
	"fieldops/internal/api/service"
)

// MessageProcessor handles WebSocket messages and performs database operations
type MessageProcessor struct {
	jobService    *service.JobService
	labourService *service.LabourService
	logger        zerolog.Logger
}

// NewMessageProcessor creates a new message processor
func NewMessageProcessor(jobService *service.JobService, labourService *service.LabourService, logger zerolog.Logger) *MessageProcessor {
	return &MessageProcessor{
		jobService:    jobService,
		labourService: labourService,
		logger:        logger,
	}
}

// ProcessMessage processes a message and performs necessary database operations
// Returns the updated message to broadcast, or error if processing failed.
// The services publish feed snapshots on commit, so every schedule board
// converges independently of the room broadcast here.
func (p *MessageProcessor) ProcessMessage(msg *Message) (*Message, error) {
	switch msg.Type {
	case MessageTypeAssignmentMove:
		return p.processAssignmentMove(msg)
	case MessageTypeAssignmentUpsert:
		return p.processAssignmentUpsert(msg)
	case MessageTypeAssignmentDelete:
		return p.processAssignmentDelete(msg)
	case MessageTypeJobCreate:
		return p.processJobCreate(msg)
	case MessageTypeJobUpdate:
		return p.processJobUpdate(msg)
	case MessageTypeJobDelete:
		return p.processJobDelete(msg)
	case MessageTypeLabourSave:
		return p.processLabourSave(msg)

	default:
		// Other message types don't require processing (chat, cursor, etc.)
		return msg, nil
	}
}

func (p *MessageProcessor) validateData(msg *Message, out any) error {
	dataBytes, err := json.Marshal(msg.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal message data: %w", err)
	}

	if err := json.Unmarshal(dataBytes, out); err != nil {
		return fmt.Errorf("invalid message data: %w", err)
	}

	return nil
}

func (p *MessageProcessor) processAssignmentMove(msg *Message) (*Message, error) {
	var data AssignmentMove
	if err := p.validateData(msg, &data); err != nil {
		return nil, err
	}

	if err := p.jobService.MoveAssignment(msg.JobID, data.AssignmentID, data.EmployeeID, data.Start, data.End); err != nil {
		return nil, err
	}

	response := *msg
	response.Type = ResponseAssignmentMove
	response.Data = data
	return &response, nil
}

func (p *MessageProcessor) processAssignmentUpsert(msg *Message) (*Message, error) {
	var data AssignmentUpsert
	if err := p.validateData(msg, &data); err != nil {
		return nil, err
	}

	assignmentID, err := p.jobService.UpsertAssignment(msg.JobID, data.EmployeeID, data.Start, data.End)
	if err != nil {
		return nil, err
	}

	response := *msg
	response.Type = ResponseAssignmentUpsert
	response.Data = map[string]any{
		"assignmentId": assignmentID,
		"employeeId":   data.EmployeeID,
		"start":        data.Start,
		"end":          data.End,
	}
	return &response, nil
}

func (p *MessageProcessor) processAssignmentDelete(msg *Message) (*Message, error) {
	var data AssignmentDelete
	if err := p.validateData(msg, &data); err != nil {
		return nil, err
	}

	if err := p.jobService.DeleteAssignment(msg.JobID, data.EmployeeID); err != nil {
		return nil, err
	}

	response := *msg
	response.Type = ResponseAssignmentDelete
	response.Data = data
	return &response, nil
}

func (p *MessageProcessor) processJobCreate(msg *Message) (*Message, error) {
	var data JobCreate
	if err := p.validateData(msg, &data); err != nil {
		return nil, err
	}

	jobID, assignmentID, err := p.jobService.CreateJob(
		models.Job{Status: models.JobStatusActive},
		models.Assignment{EmployeeID: data.EmployeeID, Start: data.Start, End: data.End},
	)
	if err != nil {
		return nil, err
	}

	response := *msg
	response.Type = ResponseJobCreate
	response.Data = map[string]any{
		"jobId":        jobID,
		"assignmentId": assignmentID,
		"employeeId":   data.EmployeeID,
		"start":        data.Start,
		"end":          data.End,
	}
	return &response, nil
}

func (p *MessageProcessor) processJobUpdate(msg *Message) (*Message, error) {
	var data JobUpdate
	if err := p.validateData(msg, &data); err != nil {
		return nil, err
	}

	patch := make(map[string]any)
	if data.Title != nil {
		patch["title"] = *data.Title
	}
	if data.Client != nil {
		patch["client"] = *data.Client
	}
	if data.Address != nil {
		patch["address"] = *data.Address
	}
	if data.Notes != nil {
		patch["notes"] = *data.Notes
	}
	if data.ContactName != nil {
		patch["contact_name"] = *data.ContactName
	}
	if data.ContactPhone != nil {
		patch["contact_phone"] = *data.ContactPhone
	}
	if data.ContactEmail != nil {
		patch["contact_email"] = *data.ContactEmail
	}
	if data.Status != nil {
		patch["status"] = *data.Status
	}
	if data.Color != nil {
		patch["color"] = *data.Color
	}
	if len(patch) == 0 {
		return nil, fmt.Errorf("empty job update")
	}

	if err := p.jobService.UpdateJobFields(msg.JobID, patch); err != nil {
		return nil, err
	}

	response := *msg
	response.Type = ResponseJobUpdate
	response.Data = data
	return &response, nil
}

func (p *MessageProcessor) processJobDelete(msg *Message) (*Message, error) {
	if err := p.jobService.DeleteJob(msg.JobID); err != nil {
		return nil, err
	}

	response := *msg
	response.Type = ResponseJobDelete
	return &response, nil
}

func (p *MessageProcessor) processLabourSave(msg *Message) (*Message, error) {
	var data LabourSave
	if err := p.validateData(msg, &data); err != nil {
		return nil, err
	}

	rows := make([]models.UnchargedTimeRow, 0, len(data.Rows))
	for _, r := range data.Rows {
		rows = append(rows, models.UnchargedTimeRow{ReasonID: r.ReasonID, Minutes: r.Minutes})
	}

	entry, err := p.labourService.SaveEntry(data.AssignmentID, data.Start, data.End, data.Description, rows)
	if err != nil {
		return nil, err
	}

	response := *msg
	response.Type = ResponseLabourSave
	response.Data = entry
	return &response, nil
}
