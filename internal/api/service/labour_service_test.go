package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldops/internal/api/models"
	"fieldops/internal/schedule/labour"
)

func TestLabourService_SaveEntry(t *testing.T) {
	setupScheduleTestDB(t)

	jobService := NewJobService(testTenant(), nil)
	labourService := NewLabourService()
	employee := createTestEmployee(t, "Labour Mia", 90)
	defer cleanupTestEmployee(t, employee.ID)

	jobID, assignmentID, err := jobService.CreateJob(
		models.Job{Title: "Bathroom reno"},
		models.Assignment{EmployeeID: employee.ID, Start: slot(9), End: slot(17)},
	)
	require.NoError(t, err)
	defer cleanupJob(t, jobID)

	entry, err := labourService.SaveEntry(assignmentID, slot(9), slot(17), "tiling", []models.UnchargedTimeRow{
		{ReasonID: 1, Minutes: 45},
		{ReasonID: 2, Minutes: 15},
	})
	require.NoError(t, err, "Failed to save labour entry")
	require.NotNil(t, entry)

	assert.Equal(t, 8.0, entry.WorkedHours)
	assert.Equal(t, 1.0, entry.UnchargedHours)
	assert.Equal(t, 7.0, entry.ChargeableHours)
	assert.Equal(t, 630.0, entry.ChargedOut)
	assert.Equal(t, 90.0, entry.Rate)
	assert.Equal(t, jobID, entry.JobID)
	assert.Equal(t, employee.ID, entry.EmployeeID)

	// Saving labour completes the assignment without moving it.
	job, err := jobService.FindByID(jobID)
	require.NoError(t, err)
	require.Len(t, job.Assignments, 1)
	require.NotNil(t, job.Assignments[0].Completed)
	assert.True(t, *job.Assignments[0].Completed)
	assert.Equal(t, slot(9).Unix(), job.Assignments[0].Start.Unix())
	assert.Equal(t, slot(17).Unix(), job.Assignments[0].End.Unix())
}

func TestLabourService_SaveEntry_ReplacesPrevious(t *testing.T) {
	setupScheduleTestDB(t)

	jobService := NewJobService(testTenant(), nil)
	labourService := NewLabourService()
	employee := createTestEmployee(t, "Labour Theo", 85)
	defer cleanupTestEmployee(t, employee.ID)

	jobID, assignmentID, err := jobService.CreateJob(
		models.Job{Title: "Re-entry"},
		models.Assignment{EmployeeID: employee.ID, Start: slot(9), End: slot(12)},
	)
	require.NoError(t, err)
	defer cleanupJob(t, jobID)

	first, err := labourService.SaveEntry(assignmentID, slot(9), slot(12), "first pass", []models.UnchargedTimeRow{{ReasonID: 1, Minutes: 30}})
	require.NoError(t, err)
	second, err := labourService.SaveEntry(assignmentID, slot(9), slot(13), "corrected", nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "Re-saving must replace the entry, not add one")
	assert.Equal(t, 4.0, second.WorkedHours)
	assert.Equal(t, 0.0, second.UnchargedHours)

	stored, err := labourService.FindByAssignment(assignmentID)
	require.NoError(t, err)
	assert.Equal(t, "corrected", stored.Description)
	assert.Empty(t, stored.UnchargedRows, "Old uncharged rows must not survive a re-save")
}

func TestLabourService_SaveEntry_RejectsEmptyRange(t *testing.T) {
	setupScheduleTestDB(t)

	jobService := NewJobService(testTenant(), nil)
	labourService := NewLabourService()
	employee := createTestEmployee(t, "Labour Ana", 90)
	defer cleanupTestEmployee(t, employee.ID)

	jobID, assignmentID, err := jobService.CreateJob(
		models.Job{Title: "Zero hours"},
		models.Assignment{EmployeeID: employee.ID, Start: slot(9), End: slot(10)},
	)
	require.NoError(t, err)
	defer cleanupJob(t, jobID)

	_, err = labourService.SaveEntry(assignmentID, slot(10), slot(10), "", nil)
	assert.ErrorIs(t, err, labour.ErrInvalidRange)

	_, err = labourService.SaveEntry(99999999, slot(9), slot(10), "", nil)
	assert.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestLabourService_FindByJob(t *testing.T) {
	setupScheduleTestDB(t)

	jobService := NewJobService(testTenant(), nil)
	labourService := NewLabourService()
	mia := createTestEmployee(t, "Job Labour Mia", 90)
	defer cleanupTestEmployee(t, mia.ID)
	theo := createTestEmployee(t, "Job Labour Theo", 85)
	defer cleanupTestEmployee(t, theo.ID)

	jobID, firstID, err := jobService.CreateJob(
		models.Job{Title: "Two crews"},
		models.Assignment{EmployeeID: mia.ID, Start: slot(8), End: slot(12)},
	)
	require.NoError(t, err)
	defer cleanupJob(t, jobID)

	secondID, err := jobService.UpsertAssignment(jobID, theo.ID, slot(13), slot(17))
	require.NoError(t, err)

	_, err = labourService.SaveEntry(firstID, slot(8), slot(12), "morning", nil)
	require.NoError(t, err)
	_, err = labourService.SaveEntry(secondID, slot(13), slot(17), "afternoon", nil)
	require.NoError(t, err)

	entries, err := labourService.FindByJob(jobID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "morning", entries[0].Description)
	assert.Equal(t, "afternoon", entries[1].Description)
}

func TestLabourService_Timesheet(t *testing.T) {
	setupScheduleTestDB(t)

	jobService := NewJobService(testTenant(), nil)
	labourService := NewLabourService()
	employee := createTestEmployee(t, "Timesheet Mia", 100)
	defer cleanupTestEmployee(t, employee.ID)

	weekStart := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

	jobA, aID, err := jobService.CreateJob(
		models.Job{Title: "Monday job"},
		models.Assignment{EmployeeID: employee.ID, Start: weekStart.Add(9 * time.Hour), End: weekStart.Add(13 * time.Hour)},
	)
	require.NoError(t, err)
	defer cleanupJob(t, jobA)

	jobB, bID, err := jobService.CreateJob(
		models.Job{Title: "Next week job"},
		models.Assignment{EmployeeID: employee.ID, Start: weekStart.AddDate(0, 0, 8).Add(9 * time.Hour), End: weekStart.AddDate(0, 0, 8).Add(11 * time.Hour)},
	)
	require.NoError(t, err)
	defer cleanupJob(t, jobB)

	_, err = labourService.SaveEntry(aID, weekStart.Add(9*time.Hour), weekStart.Add(13*time.Hour), "", nil)
	require.NoError(t, err)
	_, err = labourService.SaveEntry(bID, weekStart.AddDate(0, 0, 8).Add(9*time.Hour), weekStart.AddDate(0, 0, 8).Add(11*time.Hour), "", nil)
	require.NoError(t, err)

	entries, totals, err := labourService.Timesheet(employee.ID, weekStart)
	require.NoError(t, err)
	require.Len(t, entries, 1, "Only the entry inside the week belongs on the sheet")
	assert.Equal(t, 4.0, totals.WorkedHours)
	assert.Equal(t, 4.0, totals.ChargeableHours)
	assert.Equal(t, 400.0, totals.ChargedOut)
}
