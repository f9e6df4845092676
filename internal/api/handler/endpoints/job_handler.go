package endpoints

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"fieldops"
	"fieldops/internal/api/handler/mapper"
	"fieldops/internal/api/handler/middleware"
	"fieldops/internal/api/handler/request"
	"fieldops/internal/api/handler/response"
	"fieldops/internal/api/models"
	"fieldops/internal/api/service"
	"fieldops/pkg"
)

type jobHandler struct {
	jobService *service.JobService
	config     fieldops.AppConfig
	logger     zerolog.Logger
}

func newJobHandler(jobService *service.JobService) *jobHandler {
	return &jobHandler{
		jobService: jobService,
		config:     fieldops.GetConfig(),
		logger:     fieldops.Logger,
	}
}

func JobHandler(router *graceful.Graceful, jobService *service.JobService) {
	h := newJobHandler(jobService)

	routes := router.Group("/api/v1/jobs")
	routes.Use(middleware.AuthMiddleware(h.config))
	{
		routes.GET("", h.getAll)
		routes.GET("/:id", h.getByID)
		routes.POST("", h.create)
		routes.PATCH("/:id", h.update)
		routes.DELETE("/:id", h.delete)

		// Assignment slots, keyed by (job, employee)
		routes.POST("/:id/assignments", h.upsertAssignment)
		routes.DELETE("/:id/assignments/:employeeId", h.deleteAssignment)
	}

	// Moves address the assignment directly by its ID
	moves := router.Group("/api/v1/assignments")
	moves.Use(middleware.AuthMiddleware(h.config))
	{
		moves.PUT("/:assignmentId/move", h.moveAssignment)
	}
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid ID"})
		return 0, false
	}
	return uint(id), true
}

// getAll returns every job in snapshot order; ?status= narrows to one
// lifecycle status and ?unassigned=true returns the backlog
func (slf *jobHandler) getAll(c *gin.Context) {
	var entities []models.Job
	var err error

	switch {
	case c.Query("unassigned") == "true":
		entities, err = slf.jobService.FindUnassigned()
	case c.Query("status") != "":
		entities, err = slf.jobService.FindByStatus(models.JobStatus(c.Query("status")))
		if errors.Is(err, service.ErrInvalidStatus) {
			c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid status"})
			return
		}
	default:
		entities, err = slf.jobService.FindAll()
	}
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to get all jobs")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to retrieve jobs"})
		return
	}

	c.JSON(http.StatusOK, mapper.ToJobResponses(entities))
}

// getByID returns a single job with its assignments
func (slf *jobHandler) getByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	job, err := slf.jobService.FindByID(id)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, response.APIError{Message: "Job not found"})
			return
		}
		slf.logger.Error().Err(err).Uint("id", id).Msg("Failed to get job")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to retrieve job"})
		return
	}

	c.JSON(http.StatusOK, mapper.ToJobWithAssignments(*job))
}

// create creates a new job with its first assignment
func (slf *jobHandler) create(c *gin.Context) {
	var req request.CreateJob
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		slf.logger.Error().Err(err).Msg("Failed to parse create job request")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	jobID, assignmentID, err := slf.jobService.CreateJob(
		mapper.CreateJob(req),
		models.Assignment{EmployeeID: req.EmployeeID, Start: req.Start, End: req.End},
	)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRange), errors.Is(err, service.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		default:
			slf.logger.Error().Err(err).Msg("Failed to create job")
			c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to create job"})
		}
		return
	}

	job, err := slf.jobService.FindByID(jobID)
	if err != nil {
		c.JSON(http.StatusCreated, gin.H{"jobId": jobID, "assignmentId": assignmentID})
		return
	}

	c.JSON(http.StatusCreated, mapper.ToJobWithAssignments(*job))
}

// update patches a job's detail fields
func (slf *jobHandler) update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req request.UpdateJob
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	patch := mapper.PatchJob(req)
	if len(patch) == 0 {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Empty update"})
		return
	}

	if err := slf.jobService.UpdateJobFields(id, patch); err != nil {
		switch {
		case errors.Is(err, service.ErrJobNotFound):
			c.JSON(http.StatusNotFound, response.APIError{Message: "Job not found"})
		case errors.Is(err, service.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		default:
			slf.logger.Error().Err(err).Uint("id", id).Msg("Failed to update job")
			c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to update job"})
		}
		return
	}

	job, err := slf.jobService.FindByID(id)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"jobId": id})
		return
	}
	c.JSON(http.StatusOK, mapper.ToJobWithAssignments(*job))
}

// delete removes a job with its assignments and labour history
func (slf *jobHandler) delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := slf.jobService.DeleteJob(id); err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, response.APIError{Message: "Job not found"})
			return
		}
		slf.logger.Error().Err(err).Uint("id", id).Msg("Failed to delete job")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to delete job"})
		return
	}

	c.Status(http.StatusNoContent)
}

// upsertAssignment sets an employee's slot on the job
func (slf *jobHandler) upsertAssignment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req request.UpsertAssignment
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	assignmentID, err := slf.jobService.UpsertAssignment(id, req.EmployeeID, req.Start, req.End)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrJobNotFound):
			c.JSON(http.StatusNotFound, response.APIError{Message: "Job not found"})
		case errors.Is(err, service.ErrInvalidRange):
			c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		default:
			slf.logger.Error().Err(err).Uint("id", id).Msg("Failed to upsert assignment")
			c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to save assignment"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"assignmentId": assignmentID})
}

// deleteAssignment unassigns an employee from the job
func (slf *jobHandler) deleteAssignment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	employeeID, ok := parseID(c, "employeeId")
	if !ok {
		return
	}

	if err := slf.jobService.DeleteAssignment(id, employeeID); err != nil {
		if errors.Is(err, service.ErrAssignmentNotFound) {
			c.JSON(http.StatusNotFound, response.APIError{Message: "Assignment not found"})
			return
		}
		slf.logger.Error().Err(err).Uint("id", id).Msg("Failed to delete assignment")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to delete assignment"})
		return
	}

	c.Status(http.StatusNoContent)
}

// moveAssignment repositions an assignment by its ID
func (slf *jobHandler) moveAssignment(c *gin.Context) {
	assignmentID, ok := parseID(c, "assignmentId")
	if !ok {
		return
	}

	var req request.MoveAssignment
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	assignment, err := slf.jobService.AssignmentByID(assignmentID)
	if err != nil {
		c.JSON(http.StatusNotFound, response.APIError{Message: "Assignment not found"})
		return
	}

	if err := slf.jobService.MoveAssignment(assignment.JobID, assignmentID, req.EmployeeID, req.Start, req.End); err != nil {
		switch {
		case errors.Is(err, service.ErrAssignmentNotFound):
			c.JSON(http.StatusNotFound, response.APIError{Message: "Assignment not found"})
		case errors.Is(err, service.ErrInvalidRange):
			c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		default:
			slf.logger.Error().Err(err).Uint("assignmentId", assignmentID).Msg("Failed to move assignment")
			c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to move assignment"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"assignmentId": assignmentID})
}
