package repo

import (
	"fieldops"
	"fieldops/internal/api/models"

	"gorm.io/gorm"
)

type JobRepository struct {
	Db *gorm.DB
}

func NewJobRepository() *JobRepository {
	return &JobRepository{Db: fieldops.DB}
}

// FindByID retrieves a job by ID
func (slf *JobRepository) FindByID(id uint) (models.Job, error) {
	var job models.Job
	err := slf.Db.First(&job, id).Error
	return job, err
}

// FindByIDWithAssignments retrieves a job with its assignments preloaded
func (slf *JobRepository) FindByIDWithAssignments(id uint) (models.Job, error) {
	var job models.Job
	err := slf.Db.Preload("Assignments").First(&job, id).Error
	return job, err
}

// FindAll retrieves every job in snapshot order (creation order)
func (slf *JobRepository) FindAll() ([]models.Job, error) {
	var jobs []models.Job
	err := slf.Db.Order("id ASC").Find(&jobs).Error
	return jobs, err
}

// FindByStatus retrieves jobs filtered by lifecycle status
func (slf *JobRepository) FindByStatus(status models.JobStatus) ([]models.Job, error) {
	var jobs []models.Job
	err := slf.Db.
		Where("status = ?", status).
		Order("id ASC").
		Find(&jobs).Error
	return jobs, err
}

// FindUnassigned retrieves jobs with no assignments at all
func (slf *JobRepository) FindUnassigned() ([]models.Job, error) {
	var jobs []models.Job
	err := slf.Db.
		Where("NOT EXISTS (SELECT 1 FROM assignment WHERE assignment.job_id = job.id)").
		Order("id ASC").
		Find(&jobs).Error
	return jobs, err
}

func (slf *JobRepository) Create(job *models.Job) error {
	return slf.Db.Create(job).Error
}

func (slf *JobRepository) Update(job *models.Job) error {
	return slf.Db.Save(job).Error
}
