package mapper

import (
	"fieldops/internal/api/handler/request"
	"fieldops/internal/api/handler/response"
	"fieldops/internal/api/models"
	"fieldops/internal/schedule/projection"
	"fieldops/internal/schedule/timeutil"
)

// CreateJob maps a create request onto the job row. The first assignment is
// carried separately since it goes through the write API as its own entity.
func CreateJob(req request.CreateJob) models.Job {
	return models.Job{
		Title:        req.Title,
		Client:       req.Client,
		Address:      req.Address,
		Notes:        req.Notes,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
		Status:       models.JobStatus(req.Status),
		Color:        req.Color,
	}
}

// PatchJob maps the non-nil fields of an update request to a column patch
func PatchJob(req request.UpdateJob) map[string]any {
	patch := make(map[string]any)
	if req.Title != nil {
		patch["title"] = *req.Title
	}
	if req.Client != nil {
		patch["client"] = *req.Client
	}
	if req.Address != nil {
		patch["address"] = *req.Address
	}
	if req.Notes != nil {
		patch["notes"] = *req.Notes
	}
	if req.ContactName != nil {
		patch["contact_name"] = *req.ContactName
	}
	if req.ContactPhone != nil {
		patch["contact_phone"] = *req.ContactPhone
	}
	if req.ContactEmail != nil {
		patch["contact_email"] = *req.ContactEmail
	}
	if req.Status != nil {
		patch["status"] = *req.Status
	}
	if req.Color != nil {
		patch["color"] = *req.Color
	}
	return patch
}

func ToJobResponse(j models.Job) response.Job {
	return response.Job{
		ID:           j.ID,
		Title:        j.Title,
		Client:       j.Client,
		Address:      j.Address,
		Notes:        j.Notes,
		ContactName:  j.ContactName,
		ContactPhone: j.ContactPhone,
		ContactEmail: j.ContactEmail,
		Status:       j.Status,
		Color:        j.Color,
	}
}

func ToJobResponses(entities []models.Job) []response.Job {
	jobs := make([]response.Job, len(entities))
	for i, j := range entities {
		jobs[i] = ToJobResponse(j)
	}
	return jobs
}

func ToAssignmentResponse(a models.Assignment) response.Assignment {
	return response.Assignment{
		ID:         a.ID,
		JobID:      a.JobID,
		EmployeeID: a.EmployeeID,
		Start:      a.Start,
		End:        a.End,
		Completed:  a.Completed,
	}
}

func ToJobWithAssignments(j models.Job) response.JobWithAssignments {
	resp := response.JobWithAssignments{Job: ToJobResponse(j)}
	resp.Assignments = make([]response.Assignment, len(j.Assignments))
	for i, a := range j.Assignments {
		resp.Assignments[i] = ToAssignmentResponse(a)
	}
	return resp
}

// ToScheduleItems flattens a projection bucket for the wire
func ToScheduleItems(items []projection.Item) []response.ScheduleItem {
	out := make([]response.ScheduleItem, len(items))
	for i, item := range items {
		out[i] = response.ScheduleItem{
			Job:        ToJobResponse(item.Job),
			Assignment: ToAssignmentResponse(item.Assignment.Assignment),
			Hours:      timeutil.RoundQuarterHour(timeutil.DurationHours(item.Assignment.Start, item.Assignment.End)),
		}
	}
	return out
}

// ToMonthCells flattens a month projection, days in ascending order handled
// by the caller's iteration
func ToMonthCells(byDay map[int][]projection.MonthItem, daysInMonth int) []response.MonthCell {
	cells := make([]response.MonthCell, 0, daysInMonth)
	for day := 1; day <= daysInMonth; day++ {
		items := byDay[day]
		jobs := make([]response.Job, len(items))
		for i, item := range items {
			jobs[i] = ToJobResponse(item.Job)
		}
		cells = append(cells, response.MonthCell{Day: day, Jobs: jobs})
	}
	return cells
}
