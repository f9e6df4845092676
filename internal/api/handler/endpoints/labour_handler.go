package endpoints

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"fieldops"
	"fieldops/internal/api/handler/mapper"
	"fieldops/internal/api/handler/middleware"
	"fieldops/internal/api/handler/request"
	"fieldops/internal/api/handler/response"
	"fieldops/internal/api/service"
	"fieldops/internal/schedule/labour"
	"fieldops/internal/schedule/timeutil"
	"fieldops/pkg"
)

type labourHandler struct {
	labourService *service.LabourService
	config        fieldops.AppConfig
	logger        zerolog.Logger
}

func newLabourHandler(labourService *service.LabourService) *labourHandler {
	return &labourHandler{
		labourService: labourService,
		config:        fieldops.GetConfig(),
		logger:        fieldops.Logger,
	}
}

func LabourHandler(router *graceful.Graceful, labourService *service.LabourService) {
	h := newLabourHandler(labourService)

	assignments := router.Group("/api/v1/assignments")
	assignments.Use(middleware.AuthMiddleware(h.config))
	{
		assignments.POST("/:assignmentId/labour", h.save)
		assignments.GET("/:assignmentId/labour", h.getByAssignment)
	}

	jobs := router.Group("/api/v1/jobs")
	jobs.Use(middleware.AuthMiddleware(h.config))
	{
		jobs.GET("/:id/labour", h.getByJob)
	}

	employees := router.Group("/api/v1/employees")
	employees.Use(middleware.AuthMiddleware(h.config))
	{
		employees.GET("/:id/timesheet", h.timesheet)
	}

	reasons := router.Group("/api/v1/labour")
	reasons.Use(middleware.AuthMiddleware(h.config))
	{
		reasons.GET("/reasons", h.listReasons)
	}
}

func (slf *labourHandler) save(c *gin.Context) {
	assignmentID, ok := parseID(c, "assignmentId")
	if !ok {
		return
	}

	var req request.SaveLabour
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	entry, err := slf.labourService.SaveEntry(assignmentID, req.Start, req.End, req.Description, mapper.ToUnchargedRows(req.Rows))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAssignmentNotFound):
			c.JSON(http.StatusNotFound, response.APIError{Message: "Assignment not found"})
		case errors.Is(err, labour.ErrInvalidRange):
			c.JSON(http.StatusBadRequest, response.APIError{Message: "End must be after start"})
		default:
			slf.logger.Error().Err(err).Uint("assignmentId", assignmentID).Msg("Failed to save labour entry")
			c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to save labour entry"})
		}
		return
	}
	c.JSON(http.StatusOK, mapper.ToLabourResponse(*entry))
}

func (slf *labourHandler) getByAssignment(c *gin.Context) {
	assignmentID, ok := parseID(c, "assignmentId")
	if !ok {
		return
	}

	entry, err := slf.labourService.FindByAssignment(assignmentID)
	if err != nil {
		if errors.Is(err, service.ErrLabourNotFound) {
			c.JSON(http.StatusNotFound, response.APIError{Message: "No labour entry for assignment"})
			return
		}
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to retrieve labour entry"})
		return
	}
	c.JSON(http.StatusOK, mapper.ToLabourResponse(*entry))
}

func (slf *labourHandler) getByJob(c *gin.Context) {
	jobID, ok := parseID(c, "id")
	if !ok {
		return
	}

	entries, err := slf.labourService.FindByJob(jobID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to retrieve labour entries"})
		return
	}

	out := make([]response.LabourEntry, len(entries))
	for i, e := range entries {
		out[i] = mapper.ToLabourResponse(e)
	}
	c.JSON(http.StatusOK, out)
}

// timesheet returns one employee's labour entries for the week containing ?start=YYYY-MM-DD.
func (slf *labourHandler) timesheet(c *gin.Context) {
	employeeID, ok := parseID(c, "id")
	if !ok {
		return
	}

	anchor, err := time.Parse(dateLayout, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid or missing start date, expected YYYY-MM-DD"})
		return
	}
	weekStart := timeutil.StartOfWeek(anchor)

	entries, totals, err := slf.labourService.Timesheet(employeeID, weekStart)
	if err != nil {
		slf.logger.Error().Err(err).Uint("employeeId", employeeID).Msg("Failed to build timesheet")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to build timesheet"})
		return
	}
	c.JSON(http.StatusOK, mapper.ToTimesheet(employeeID, weekStart, entries, totals))
}

func (slf *labourHandler) listReasons(c *gin.Context) {
	reasons, err := slf.labourService.ListReasons()
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to retrieve reasons"})
		return
	}
	c.JSON(http.StatusOK, mapper.ToReasonResponses(reasons))
}
