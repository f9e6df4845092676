package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldops"
	"fieldops/internal/api/models"
	"fieldops/internal/feed"
)

func setupScheduleTestDB(t *testing.T) {
	fieldops.InitConfig("../../../.env.test")

	err := fieldops.DB.AutoMigrate(
		&models.Employee{},
		&models.Job{},
		&models.Assignment{},
		&models.LabourEntry{},
		&models.UnchargedTimeRow{},
		&models.UnchargedReason{},
	)
	require.NoError(t, err, "Failed to migrate schedule tables")
}

func testTenant() models.TenantContext {
	return models.NewTenantContext("test")
}

func createTestEmployee(t *testing.T, name string, rate float64) models.Employee {
	employee := models.Employee{
		Name:       name,
		HourlyRate: rate,
		Active:     true,
	}
	err := fieldops.DB.Create(&employee).Error
	require.NoError(t, err)
	return employee
}

func cleanupTestEmployee(t *testing.T, id uint) {
	if id > 0 {
		fieldops.DB.Unscoped().Delete(&models.Employee{}, id)
	}
}

func cleanupJob(t *testing.T, id uint) {
	if id > 0 {
		fieldops.DB.Where(
			"labour_entry_id IN (SELECT id FROM labour_entry WHERE job_id = ?)", id,
		).Unscoped().Delete(&models.UnchargedTimeRow{})
		fieldops.DB.Where("job_id = ?", id).Unscoped().Delete(&models.LabourEntry{})
		fieldops.DB.Where("job_id = ?", id).Unscoped().Delete(&models.Assignment{})
		fieldops.DB.Unscoped().Delete(&models.Job{}, id)
	}
}

func slot(hour int) time.Time {
	return time.Date(2025, time.March, 10, hour, 0, 0, 0, time.UTC)
}

func TestJobService_CreateJob(t *testing.T) {
	setupScheduleTestDB(t)

	service := NewJobService(testTenant(), nil)
	employee := createTestEmployee(t, "Create Mia", 90)
	defer cleanupTestEmployee(t, employee.ID)

	jobID, assignmentID, err := service.CreateJob(
		models.Job{Title: "Fence repair", Client: "Hargreaves"},
		models.Assignment{EmployeeID: employee.ID, Start: slot(9), End: slot(11)},
	)
	require.NoError(t, err, "Failed to create job")
	require.NotZero(t, jobID)
	require.NotZero(t, assignmentID)
	defer cleanupJob(t, jobID)

	job, err := service.FindByID(jobID)
	require.NoError(t, err)
	assert.Equal(t, "Fence repair", job.Title)
	assert.Equal(t, models.JobStatusActive, job.Status)
	require.Len(t, job.Assignments, 1)
	assert.Equal(t, employee.ID, job.Assignments[0].EmployeeID)
	assert.Nil(t, job.Assignments[0].Completed)
}

func TestJobService_CreateJob_RejectsEmptyRange(t *testing.T) {
	setupScheduleTestDB(t)

	service := NewJobService(testTenant(), nil)

	_, _, err := service.CreateJob(
		models.Job{Title: "Bad range"},
		models.Assignment{EmployeeID: 1, Start: slot(11), End: slot(11)},
	)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestJobService_UpdateJobFields(t *testing.T) {
	setupScheduleTestDB(t)

	service := NewJobService(testTenant(), nil)
	employee := createTestEmployee(t, "Update Mia", 90)
	defer cleanupTestEmployee(t, employee.ID)

	jobID, _, err := service.CreateJob(
		models.Job{Title: "Old title"},
		models.Assignment{EmployeeID: employee.ID, Start: slot(9), End: slot(10)},
	)
	require.NoError(t, err)
	defer cleanupJob(t, jobID)

	err = service.UpdateJobFields(jobID, map[string]any{
		"title":  "New title",
		"status": "completed",
		"notes":  "gate code 4412",
	})
	require.NoError(t, err)

	job, err := service.FindByID(jobID)
	require.NoError(t, err)
	assert.Equal(t, "New title", job.Title)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, "gate code 4412", job.Notes)

	assert.ErrorIs(t, service.UpdateJobFields(jobID, map[string]any{"status": "archived"}), ErrInvalidStatus)
	assert.ErrorIs(t, service.UpdateJobFields(99999999, map[string]any{"title": "x"}), ErrJobNotFound)
}

func TestJobService_MoveAssignment(t *testing.T) {
	setupScheduleTestDB(t)

	service := NewJobService(testTenant(), nil)
	mia := createTestEmployee(t, "Move Mia", 90)
	defer cleanupTestEmployee(t, mia.ID)
	theo := createTestEmployee(t, "Move Theo", 85)
	defer cleanupTestEmployee(t, theo.ID)

	jobID, assignmentID, err := service.CreateJob(
		models.Job{Title: "Deck build"},
		models.Assignment{EmployeeID: mia.ID, Start: slot(9), End: slot(11)},
	)
	require.NoError(t, err)
	defer cleanupJob(t, jobID)

	err = service.MoveAssignment(jobID, assignmentID, theo.ID, slot(13), slot(15))
	require.NoError(t, err)

	job, err := service.FindByID(jobID)
	require.NoError(t, err)
	require.Len(t, job.Assignments, 1)
	assert.Equal(t, theo.ID, job.Assignments[0].EmployeeID)
	assert.Equal(t, slot(13).Unix(), job.Assignments[0].Start.Unix())
	assert.Equal(t, slot(15).Unix(), job.Assignments[0].End.Unix())

	assert.ErrorIs(t, service.MoveAssignment(jobID, assignmentID, theo.ID, slot(15), slot(13)), ErrInvalidRange)
	assert.ErrorIs(t, service.MoveAssignment(jobID+1, assignmentID, theo.ID, slot(13), slot(15)), ErrAssignmentNotFound)
}

func TestJobService_UpsertAssignment_AtMostOnePerEmployee(t *testing.T) {
	setupScheduleTestDB(t)

	service := NewJobService(testTenant(), nil)
	employee := createTestEmployee(t, "Upsert Mia", 90)
	defer cleanupTestEmployee(t, employee.ID)

	jobID, _, err := service.CreateJob(
		models.Job{Title: "Gutter clean"},
		models.Assignment{EmployeeID: employee.ID, Start: slot(9), End: slot(10)},
	)
	require.NoError(t, err)
	defer cleanupJob(t, jobID)

	firstID, err := service.UpsertAssignment(jobID, employee.ID, slot(13), slot(15))
	require.NoError(t, err)
	secondID, err := service.UpsertAssignment(jobID, employee.ID, slot(14), slot(16))
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID, "Upsert must reuse the employee's slot on the job")

	job, err := service.FindByID(jobID)
	require.NoError(t, err)
	require.Len(t, job.Assignments, 1)
	assert.Equal(t, slot(14).Unix(), job.Assignments[0].Start.Unix())

	_, err = service.UpsertAssignment(99999999, employee.ID, slot(9), slot(10))
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestJobService_DeleteAssignment(t *testing.T) {
	setupScheduleTestDB(t)

	service := NewJobService(testTenant(), nil)
	employee := createTestEmployee(t, "Unassign Mia", 90)
	defer cleanupTestEmployee(t, employee.ID)

	jobID, _, err := service.CreateJob(
		models.Job{Title: "Hedge trim"},
		models.Assignment{EmployeeID: employee.ID, Start: slot(9), End: slot(10)},
	)
	require.NoError(t, err)
	defer cleanupJob(t, jobID)

	require.NoError(t, service.DeleteAssignment(jobID, employee.ID))

	job, err := service.FindByID(jobID)
	require.NoError(t, err)
	assert.Empty(t, job.Assignments)

	assert.ErrorIs(t, service.DeleteAssignment(jobID, employee.ID), ErrAssignmentNotFound)
}

func TestJobService_DeleteJob_Cascades(t *testing.T) {
	setupScheduleTestDB(t)

	jobService := NewJobService(testTenant(), nil)
	labourService := NewLabourService()
	employee := createTestEmployee(t, "Cascade Mia", 90)
	defer cleanupTestEmployee(t, employee.ID)

	jobID, assignmentID, err := jobService.CreateJob(
		models.Job{Title: "Repaint"},
		models.Assignment{EmployeeID: employee.ID, Start: slot(9), End: slot(17)},
	)
	require.NoError(t, err)

	_, err = labourService.SaveEntry(assignmentID, slot(9), slot(17), "prep and paint", nil)
	require.NoError(t, err)

	require.NoError(t, jobService.DeleteJob(jobID))

	_, err = jobService.FindByID(jobID)
	assert.ErrorIs(t, err, ErrJobNotFound)

	var orphans int64
	fieldops.DB.Model(&models.Assignment{}).Where("job_id = ?", jobID).Count(&orphans)
	assert.Zero(t, orphans)
	fieldops.DB.Model(&models.LabourEntry{}).Where("job_id = ?", jobID).Count(&orphans)
	assert.Zero(t, orphans)

	assert.ErrorIs(t, jobService.DeleteJob(jobID), ErrJobNotFound)
}

func TestJobService_PublishesSnapshotsAfterCommit(t *testing.T) {
	setupScheduleTestDB(t)

	f := feed.NewMemoryFeed()
	service := NewJobService(testTenant(), f)
	employee := createTestEmployee(t, "Feed Mia", 90)
	defer cleanupTestEmployee(t, employee.ID)

	var jobEvents []feed.JobsEvent
	unsub, err := f.SubscribeJobs(func(e feed.JobsEvent) { jobEvents = append(jobEvents, e) }, nil)
	require.NoError(t, err)
	defer unsub()

	jobID, assignmentID, err := service.CreateJob(
		models.Job{Title: "Feed check"},
		models.Assignment{EmployeeID: employee.ID, Start: slot(9), End: slot(10)},
	)
	require.NoError(t, err)
	defer cleanupJob(t, jobID)

	require.NotEmpty(t, jobEvents)
	last := jobEvents[len(jobEvents)-1]
	assert.Equal(t, "test", last.Tenant)
	assert.False(t, last.ServerTime.IsZero())
	found := false
	for _, j := range last.Jobs {
		if j.ID == jobID {
			found = true
		}
	}
	assert.True(t, found, "Snapshot must carry the committed job")

	var assignmentEvents []feed.AssignmentsEvent
	unsubA, err := f.SubscribeAssignments(jobID, func(e feed.AssignmentsEvent) { assignmentEvents = append(assignmentEvents, e) }, nil)
	require.NoError(t, err)
	defer unsubA()

	require.NoError(t, service.MoveAssignment(jobID, assignmentID, employee.ID, slot(13), slot(15)))
	require.NotEmpty(t, assignmentEvents)
	lastA := assignmentEvents[len(assignmentEvents)-1]
	require.Len(t, lastA.Assignments, 1)
	assert.Equal(t, slot(13).Unix(), lastA.Assignments[0].Start.Unix())
}
