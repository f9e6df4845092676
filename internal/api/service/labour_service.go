package service

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"fieldops"
	"fieldops/internal/api/models"
	"fieldops/internal/api/repo"
	"fieldops/internal/schedule/labour"
)

var ErrLabourNotFound = errors.New("labour entry not found")

// LabourService records time against scheduled assignments. Derived hour
// and charge figures are always recomputed here from the raw inputs, never
// trusted from the client. Saving labour marks the assignment completed but
// leaves its scheduled times untouched.
type LabourService struct {
	labourRepo     *repo.LabourRepository
	assignmentRepo *repo.AssignmentRepository
	employeeRepo   *repo.EmployeeRepository
	logger         zerolog.Logger
}

func NewLabourService() *LabourService {
	return &LabourService{
		labourRepo:     repo.NewLabourRepository(),
		assignmentRepo: repo.NewAssignmentRepository(),
		employeeRepo:   repo.NewEmployeeRepository(),
		logger:         fieldops.Logger,
	}
}

// SaveEntry validates and stores a labour entry for an assignment,
// replacing any previous entry. The uncharged rows are rewritten wholesale.
func (slf *LabourService) SaveEntry(assignmentID uint, start, end time.Time, description string, rows []models.UnchargedTimeRow) (*models.LabourEntry, error) {
	assignment, err := slf.assignmentRepo.FindByID(assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	employee, err := slf.employeeRepo.FindByID(assignment.EmployeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}

	result, err := labour.Compute(start, end, employee.HourlyRate, rows)
	if err != nil {
		return nil, err
	}

	entry := models.LabourEntry{
		JobID:           assignment.JobID,
		AssignmentID:    assignmentID,
		EmployeeID:      assignment.EmployeeID,
		Date:            time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location()),
		Start:           start,
		End:             end,
		Rate:            employee.HourlyRate,
		WorkedHours:     result.WorkedHours,
		UnchargedHours:  result.UnchargedHours,
		ChargeableHours: result.ChargeableHours,
		ChargedOut:      result.ChargedOut,
		Description:     description,
	}

	err = slf.labourRepo.Db.Transaction(func(tx *gorm.DB) error {
		var previous models.LabourEntry
		err := tx.Where("assignment_id = ?", assignmentID).First(&previous).Error
		switch {
		case err == nil:
			if err := tx.Where("labour_entry_id = ?", previous.ID).Delete(&models.UnchargedTimeRow{}).Error; err != nil {
				return err
			}
			entry.ID = previous.ID
			if err := tx.Save(&entry).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		default:
			return err
		}

		for i := range rows {
			rows[i].ID = 0
			rows[i].LabourEntryID = entry.ID
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.Assignment{}).
			Where("id = ?", assignmentID).
			Update("completed", true).Error
	})
	if err != nil {
		slf.logger.Error().Err(err).Uint("assignmentId", assignmentID).Msg("Error saving labour entry")
		return nil, err
	}

	entry.UnchargedRows = rows
	return &entry, nil
}

// FindByAssignment retrieves the labour recorded against one assignment
func (slf *LabourService) FindByAssignment(assignmentID uint) (*models.LabourEntry, error) {
	entry, err := slf.labourRepo.FindByAssignment(assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLabourNotFound
		}
		slf.logger.Error().Err(err).Uint("assignmentId", assignmentID).Msg("Error getting labour entry")
		return nil, err
	}
	return &entry, nil
}

// FindByJob retrieves all labour recorded against a job's assignments
func (slf *LabourService) FindByJob(jobID uint) ([]models.LabourEntry, error) {
	entries, err := slf.labourRepo.FindByJob(jobID)
	if err != nil {
		slf.logger.Error().Err(err).Uint("jobId", jobID).Msg("Error getting job labour entries")
		return nil, err
	}
	return entries, nil
}

// Timesheet retrieves an employee's labour entries for the week starting at
// weekStart, with per-week totals.
func (slf *LabourService) Timesheet(employeeID uint, weekStart time.Time) ([]models.LabourEntry, labour.Result, error) {
	entries, err := slf.labourRepo.FindByEmployeeRange(employeeID, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		slf.logger.Error().Err(err).Uint("employeeId", employeeID).Msg("Error building timesheet")
		return nil, labour.Result{}, err
	}

	var totals labour.Result
	for _, e := range entries {
		totals.WorkedHours += e.WorkedHours
		totals.UnchargedHours += e.UnchargedHours
		totals.ChargeableHours += e.ChargeableHours
		totals.ChargedOut += e.ChargedOut
	}
	return entries, totals, nil
}

// ListReasons retrieves the uncharged-time reason catalogue
func (slf *LabourService) ListReasons() ([]models.UnchargedReason, error) {
	return slf.labourRepo.ListReasons()
}
