package repo

import (
	"time"

	"fieldops"
	"fieldops/internal/api/models"

	"gorm.io/gorm"
)

type LabourRepository struct {
	Db *gorm.DB
}

func NewLabourRepository() *LabourRepository {
	return &LabourRepository{Db: fieldops.DB}
}

// FindByAssignment retrieves the labour entry recorded against an assignment
func (slf *LabourRepository) FindByAssignment(assignmentID uint) (models.LabourEntry, error) {
	var entry models.LabourEntry
	err := slf.Db.
		Preload("UnchargedRows").
		Where("assignment_id = ?", assignmentID).
		First(&entry).Error
	return entry, err
}

// FindByJob retrieves the labour entries recorded against any of a job's
// assignments, ordered by start
func (slf *LabourRepository) FindByJob(jobID uint) ([]models.LabourEntry, error) {
	var entries []models.LabourEntry
	err := slf.Db.
		Preload("UnchargedRows").
		Where("assignment_id IN (?)", slf.Db.Model(&models.Assignment{}).Select("id").Where("job_id = ?", jobID)).
		Order("start ASC").
		Find(&entries).Error
	return entries, err
}

// FindByEmployeeRange retrieves an employee's labour entries in [from, to)
// ordered by start, for timesheet views
func (slf *LabourRepository) FindByEmployeeRange(employeeID uint, from, to time.Time) ([]models.LabourEntry, error) {
	var entries []models.LabourEntry
	err := slf.Db.
		Preload("UnchargedRows").
		Where("employee_id = ? AND start >= ? AND start < ?", employeeID, from, to).
		Order("start ASC").
		Find(&entries).Error
	return entries, err
}

// ListReasons retrieves the uncharged-time reason catalogue
func (slf *LabourRepository) ListReasons() ([]models.UnchargedReason, error) {
	var reasons []models.UnchargedReason
	err := slf.Db.Order("id ASC").Find(&reasons).Error
	return reasons, err
}
