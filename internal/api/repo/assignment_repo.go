package repo

import (
	"time"

	"fieldops"
	"fieldops/internal/api/models"

	"gorm.io/gorm"
)

type AssignmentRepository struct {
	Db *gorm.DB
}

func NewAssignmentRepository() *AssignmentRepository {
	return &AssignmentRepository{Db: fieldops.DB}
}

// FindByID retrieves an assignment by ID
func (slf *AssignmentRepository) FindByID(id uint) (models.Assignment, error) {
	var assignment models.Assignment
	err := slf.Db.First(&assignment, id).Error
	return assignment, err
}

// FindByJob retrieves a job's assignments ordered by start time
func (slf *AssignmentRepository) FindByJob(jobID uint) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := slf.Db.
		Where("job_id = ?", jobID).
		Order("start ASC").
		Find(&assignments).Error
	return assignments, err
}

// FindByJobAndEmployee retrieves the single assignment for an employee on a
// job. The detail editor keys writes by this pair.
func (slf *AssignmentRepository) FindByJobAndEmployee(jobID, employeeID uint) (models.Assignment, error) {
	var assignment models.Assignment
	err := slf.Db.
		Where("job_id = ? AND employee_id = ?", jobID, employeeID).
		First(&assignment).Error
	return assignment, err
}

// FindAll retrieves every assignment ordered by start time
func (slf *AssignmentRepository) FindAll() ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := slf.Db.Order("start ASC").Find(&assignments).Error
	return assignments, err
}

// FindOverlappingRange retrieves assignments intersecting [from, to)
func (slf *AssignmentRepository) FindOverlappingRange(from, to time.Time) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := slf.Db.
		Where(`start < ? AND "end" > ?`, to, from).
		Order("start ASC").
		Find(&assignments).Error
	return assignments, err
}

func (slf *AssignmentRepository) Create(assignment *models.Assignment) error {
	return slf.Db.Create(assignment).Error
}

func (slf *AssignmentRepository) Update(assignment *models.Assignment) error {
	return slf.Db.Save(assignment).Error
}

func (slf *AssignmentRepository) Delete(id uint) error {
	return slf.Db.Delete(&models.Assignment{}, id).Error
}
