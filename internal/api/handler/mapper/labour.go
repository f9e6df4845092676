package mapper

import (
	"time"

	"fieldops/internal/api/handler/request"
	"fieldops/internal/api/handler/response"
	"fieldops/internal/api/models"
	"fieldops/internal/schedule/labour"
)

func ToUnchargedRows(rows []request.UnchargedRow) []models.UnchargedTimeRow {
	out := make([]models.UnchargedTimeRow, len(rows))
	for i, r := range rows {
		out[i] = models.UnchargedTimeRow{ReasonID: r.ReasonID, Minutes: r.Minutes}
	}
	return out
}

func ToLabourResponse(e models.LabourEntry) response.LabourEntry {
	rows := make([]response.UnchargedRow, len(e.UnchargedRows))
	for i, r := range e.UnchargedRows {
		rows[i] = response.UnchargedRow{ReasonID: r.ReasonID, Minutes: r.Minutes}
	}
	return response.LabourEntry{
		ID:              e.ID,
		JobID:           e.JobID,
		AssignmentID:    e.AssignmentID,
		EmployeeID:      e.EmployeeID,
		Date:            e.Date,
		Start:           e.Start,
		End:             e.End,
		Rate:            e.Rate,
		WorkedHours:     e.WorkedHours,
		UnchargedHours:  e.UnchargedHours,
		ChargeableHours: e.ChargeableHours,
		ChargedOut:      e.ChargedOut,
		Description:     e.Description,
		Rows:            rows,
	}
}

func ToTimesheet(employeeID uint, weekStart time.Time, entries []models.LabourEntry, totals labour.Result) response.Timesheet {
	out := response.Timesheet{
		EmployeeID:      employeeID,
		WeekStart:       weekStart,
		Entries:         make([]response.LabourEntry, len(entries)),
		WorkedHours:     totals.WorkedHours,
		UnchargedHours:  totals.UnchargedHours,
		ChargeableHours: totals.ChargeableHours,
		ChargedOut:      totals.ChargedOut,
	}
	for i, e := range entries {
		out.Entries[i] = ToLabourResponse(e)
	}
	return out
}

func ToReasonResponses(reasons []models.UnchargedReason) []response.UnchargedReason {
	out := make([]response.UnchargedReason, len(reasons))
	for i, r := range reasons {
		out[i] = response.UnchargedReason{ID: r.ID, Label: r.Label}
	}
	return out
}
