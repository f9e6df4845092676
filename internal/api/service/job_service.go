package service

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"fieldops"
	"fieldops/internal/api/models"
	"fieldops/internal/api/repo"
	"fieldops/internal/feed"
)

var (
	ErrJobNotFound        = errors.New("job not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrInvalidRange       = errors.New("assignment end must be after start")
	ErrInvalidStatus      = errors.New("invalid job status")
)

// JobService is the authoritative write path for jobs and assignments. Every
// committed write is followed by a whole-collection snapshot on the change
// feed, so connected schedule boards converge without diff bookkeeping.
type JobService struct {
	tenant         models.TenantContext
	jobRepo        *repo.JobRepository
	assignmentRepo *repo.AssignmentRepository
	publisher      feed.Publisher
	logger         zerolog.Logger
}

func NewJobService(tenant models.TenantContext, publisher feed.Publisher) *JobService {
	return &JobService{
		tenant:         tenant,
		jobRepo:        repo.NewJobRepository(),
		assignmentRepo: repo.NewAssignmentRepository(),
		publisher:      publisher,
		logger:         fieldops.Logger,
	}
}

// FindAll retrieves every job in snapshot order
func (slf *JobService) FindAll() ([]models.Job, error) {
	jobs, err := slf.jobRepo.FindAll()
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error listing jobs")
		return nil, err
	}
	return jobs, nil
}

// FindByStatus retrieves jobs in one lifecycle status
func (slf *JobService) FindByStatus(status models.JobStatus) ([]models.Job, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	jobs, err := slf.jobRepo.FindByStatus(status)
	if err != nil {
		slf.logger.Error().Err(err).Str("status", string(status)).Msg("Error listing jobs by status")
		return nil, err
	}
	return jobs, nil
}

// FindUnassigned retrieves the backlog of jobs with no assignments
func (slf *JobService) FindUnassigned() ([]models.Job, error) {
	jobs, err := slf.jobRepo.FindUnassigned()
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error listing unassigned jobs")
		return nil, err
	}
	return jobs, nil
}

// FindByID retrieves a job with its assignments
func (slf *JobService) FindByID(id uint) (*models.Job, error) {
	job, err := slf.jobRepo.FindByIDWithAssignments(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		slf.logger.Error().Err(err).Uint("jobId", id).Msg("Error getting job")
		return nil, err
	}
	return &job, nil
}

// AssignmentByID retrieves one assignment
func (slf *JobService) AssignmentByID(id uint) (*models.Assignment, error) {
	assignment, err := slf.assignmentRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// AssignmentsForRange retrieves assignments intersecting [from, to), the
// read behind day and week board loads
func (slf *JobService) AssignmentsForRange(from, to time.Time) ([]models.Assignment, error) {
	assignments, err := slf.assignmentRepo.FindOverlappingRange(from, to)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error listing assignments for range")
		return nil, err
	}
	return assignments, nil
}

// AllAssignments retrieves every assignment, grouped by job. Month views
// need the full set since a job's primary assignment can sit outside the
// displayed month.
func (slf *JobService) AllAssignments() (map[uint][]models.Assignment, error) {
	assignments, err := slf.assignmentRepo.FindAll()
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error listing assignments")
		return nil, err
	}
	byJob := make(map[uint][]models.Assignment)
	for _, a := range assignments {
		byJob[a.JobID] = append(byJob[a.JobID], a)
	}
	return byJob, nil
}

// CreateJob creates a job together with its first assignment in one
// transaction. Returns the server identities for both rows.
func (slf *JobService) CreateJob(job models.Job, assignment models.Assignment) (uint, uint, error) {
	if !assignment.End.After(assignment.Start) {
		return 0, 0, ErrInvalidRange
	}
	if job.Status == "" {
		job.Status = models.JobStatusActive
	}
	if !job.Status.Valid() {
		return 0, 0, ErrInvalidStatus
	}

	err := slf.jobRepo.Db.Transaction(func(tx *gorm.DB) error {
		job.ID = 0
		if err := tx.Create(&job).Error; err != nil {
			return err
		}
		assignment.ID = 0
		assignment.JobID = job.ID
		assignment.UpdatedAt = time.Now()
		return tx.Create(&assignment).Error
	})
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error creating job")
		return 0, 0, err
	}

	slf.publishJobs()
	slf.publishAssignments(job.ID)
	return job.ID, assignment.ID, nil
}

// UpdateJobFields patches a job's detail fields. Assignments are never
// touched through this path.
func (slf *JobService) UpdateJobFields(jobID uint, fields map[string]any) error {
	if raw, ok := fields["status"]; ok {
		status, isStatus := raw.(models.JobStatus)
		if !isStatus {
			if s, isString := raw.(string); isString {
				status = models.JobStatus(s)
			}
		}
		if !status.Valid() {
			return ErrInvalidStatus
		}
		fields["status"] = status
	}

	result := slf.jobRepo.Db.Model(&models.Job{}).Where("id = ?", jobID).Updates(fields)
	if result.Error != nil {
		slf.logger.Error().Err(result.Error).Uint("jobId", jobID).Msg("Error updating job")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}

	slf.publishJobs()
	return nil
}

// DeleteJob removes a job with its assignments and labour history in one
// transaction, then announces the shrunken collection.
func (slf *JobService) DeleteJob(jobID uint) error {
	err := slf.jobRepo.Db.Transaction(func(tx *gorm.DB) error {
		var job models.Job
		if err := tx.First(&job, jobID).Error; err != nil {
			return err
		}
		if err := tx.Where(
			"labour_entry_id IN (SELECT id FROM labour_entry WHERE job_id = ?)", jobID,
		).Delete(&models.UnchargedTimeRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("job_id = ?", jobID).Delete(&models.LabourEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("job_id = ?", jobID).Delete(&models.Assignment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Job{}, jobID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrJobNotFound
		}
		slf.logger.Error().Err(err).Uint("jobId", jobID).Msg("Error deleting job")
		return err
	}

	slf.publishJobs()
	return nil
}

// MoveAssignment repositions an assignment, keyed by its ID. The assignment
// must belong to the given job.
func (slf *JobService) MoveAssignment(jobID, assignmentID, employeeID uint, start, end time.Time) error {
	if !end.After(start) {
		return ErrInvalidRange
	}

	assignment, err := slf.assignmentRepo.FindByID(assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}
	if assignment.JobID != jobID {
		return ErrAssignmentNotFound
	}

	assignment.EmployeeID = employeeID
	assignment.Start = start
	assignment.End = end
	assignment.UpdatedAt = time.Now()
	if err := slf.assignmentRepo.Update(&assignment); err != nil {
		slf.logger.Error().Err(err).Uint("assignmentId", assignmentID).Msg("Error moving assignment")
		return err
	}

	slf.publishAssignments(jobID)
	return nil
}

// UpsertAssignment sets an employee's slot on a job, keyed by
// (jobID, employeeID): through this path an employee holds at most one
// assignment per job. Returns the assignment ID.
func (slf *JobService) UpsertAssignment(jobID, employeeID uint, start, end time.Time) (uint, error) {
	if !end.After(start) {
		return 0, ErrInvalidRange
	}
	if _, err := slf.jobRepo.FindByID(jobID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrJobNotFound
		}
		return 0, err
	}

	assignment, err := slf.assignmentRepo.FindByJobAndEmployee(jobID, employeeID)
	switch {
	case err == nil:
		assignment.Start = start
		assignment.End = end
		assignment.UpdatedAt = time.Now()
		if err := slf.assignmentRepo.Update(&assignment); err != nil {
			slf.logger.Error().Err(err).Uint("jobId", jobID).Msg("Error updating assignment")
			return 0, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		assignment = models.Assignment{
			JobID:      jobID,
			EmployeeID: employeeID,
			Start:      start,
			End:        end,
			UpdatedAt:  time.Now(),
		}
		if err := slf.assignmentRepo.Create(&assignment); err != nil {
			slf.logger.Error().Err(err).Uint("jobId", jobID).Msg("Error creating assignment")
			return 0, err
		}
	default:
		return 0, err
	}

	slf.publishAssignments(jobID)
	return assignment.ID, nil
}

// DeleteAssignment unassigns an employee from a job, keyed by
// (jobID, employeeID)
func (slf *JobService) DeleteAssignment(jobID, employeeID uint) error {
	assignment, err := slf.assignmentRepo.FindByJobAndEmployee(jobID, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}
	if err := slf.assignmentRepo.Delete(assignment.ID); err != nil {
		slf.logger.Error().Err(err).Uint("jobId", jobID).Msg("Error deleting assignment")
		return err
	}

	slf.publishAssignments(jobID)
	return nil
}

// publishJobs pushes the whole job collection to the tenant's feed. Publish
// failures are logged, never propagated: the write already committed and
// clients recover on the next snapshot.
func (slf *JobService) publishJobs() {
	if slf.publisher == nil {
		return
	}
	jobs, err := slf.jobRepo.FindAll()
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error building jobs snapshot")
		return
	}
	err = slf.publisher.PublishJobs(feed.JobsEvent{
		Tenant:     slf.tenant.ID,
		Jobs:       jobs,
		ServerTime: time.Now(),
	})
	if err != nil {
		slf.logger.Error().Err(err).Str("tenant", slf.tenant.ID).Msg("Error publishing jobs snapshot")
	}
}

// publishAssignments pushes one job's full assignment set to its feed.
func (slf *JobService) publishAssignments(jobID uint) {
	if slf.publisher == nil {
		return
	}
	assignments, err := slf.assignmentRepo.FindByJob(jobID)
	if err != nil {
		slf.logger.Error().Err(err).Uint("jobId", jobID).Msg("Error building assignments snapshot")
		return
	}
	err = slf.publisher.PublishAssignments(feed.AssignmentsEvent{
		Tenant:      slf.tenant.ID,
		JobID:       jobID,
		Assignments: assignments,
		ServerTime:  time.Now(),
	})
	if err != nil {
		slf.logger.Error().Err(err).Uint("jobId", jobID).Msg("Error publishing assignments snapshot")
	}
}
