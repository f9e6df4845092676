package endpoints

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

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
	"fieldops/internal/schedule/normalize"
	"fieldops/internal/schedule/placement"
	"fieldops/internal/schedule/projection"
	"fieldops/internal/schedule/timeutil"
	"fieldops/pkg"
)

const dateLayout = "2006-01-02"

type timeWindow struct {
	from, to time.Time
}

// scheduleHandler serves the board projections: day, week, month and the
// unassigned backlog. Each request builds the normalized graph from the
// current tables and derives the view from it.
type scheduleHandler struct {
	jobService      *service.JobService
	employeeService *service.EmployeeService
	config          fieldops.AppConfig
	logger          zerolog.Logger
}

func newScheduleHandler(jobService *service.JobService, employeeService *service.EmployeeService) *scheduleHandler {
	return &scheduleHandler{
		jobService:      jobService,
		employeeService: employeeService,
		config:          fieldops.GetConfig(),
		logger:          fieldops.Logger,
	}
}

func ScheduleHandler(router *graceful.Graceful, jobService *service.JobService, employeeService *service.EmployeeService) {
	h := newScheduleHandler(jobService, employeeService)

	routes := router.Group("/api/v1/schedule")
	routes.Use(middleware.AuthMiddleware(h.config))
	{
		routes.GET("/day", h.day)
		routes.GET("/week", h.week)
		routes.GET("/month", h.month)
		routes.GET("/unassigned", h.unassigned)
		routes.GET("/slot", h.defaultSlot)
		routes.POST("/drop", h.drop)
	}
}

// buildGraph loads jobs, assignments and the employee directory and
// normalizes them. Inactive employees are included so past assignments keep
// resolving. A non-nil window restricts the load to assignments intersecting
// [from, to); month and unassigned views need every assignment (a job's
// primary placement can sit outside the displayed window).
func (slf *scheduleHandler) buildGraph(c *gin.Context, window *timeWindow) (*normalize.Graph, bool) {
	jobs, err := slf.jobService.FindAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to load schedule"})
		return nil, false
	}

	var assignmentsByJob map[uint][]models.Assignment
	if window != nil {
		assignments, err := slf.jobService.AssignmentsForRange(window.from, window.to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to load schedule"})
			return nil, false
		}
		assignmentsByJob = make(map[uint][]models.Assignment)
		for _, a := range assignments {
			assignmentsByJob[a.JobID] = append(assignmentsByJob[a.JobID], a)
		}
	} else {
		assignmentsByJob, err = slf.jobService.AllAssignments()
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to load schedule"})
			return nil, false
		}
	}
	employees, err := slf.employeeService.FindAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to load schedule"})
		return nil, false
	}
	byID := make(map[uint]models.Employee, len(employees))
	for _, e := range employees {
		byID[e.ID] = e
	}

	return normalize.BuildGraph(jobs, assignmentsByJob, byID, slf.logger), true
}

// parseFilter reads the shared employeeIds and status query params
func (slf *scheduleHandler) parseFilter(c *gin.Context) (projection.Filter, bool) {
	var f projection.Filter

	if raw := c.Query("employeeIds"); raw != "" {
		f.EmployeeIDs = make(map[uint]bool)
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
			if err != nil {
				c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid employeeIds"})
				return f, false
			}
			f.EmployeeIDs[uint(id)] = true
		}
	}

	if raw := c.Query("status"); raw != "" {
		status := models.JobStatus(raw)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid status"})
			return f, false
		}
		f.Status = status
	}

	return f, true
}

// day returns the assignments scheduled on one date
func (slf *scheduleHandler) day(c *gin.Context) {
	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid or missing date"})
		return
	}
	filter, ok := slf.parseFilter(c)
	if !ok {
		return
	}
	g, ok := slf.buildGraph(c, &timeWindow{from: date, to: date.AddDate(0, 0, 1)})
	if !ok {
		return
	}

	items := projection.Day(g, date, filter)
	c.JSON(http.StatusOK, gin.H{
		"date":  date.Format(dateLayout),
		"items": mapper.ToScheduleItems(items),
	})
}

// week returns seven day buckets starting at the Monday of the given date
func (slf *scheduleHandler) week(c *gin.Context) {
	anchor, err := time.Parse(dateLayout, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid or missing start"})
		return
	}
	filter, ok := slf.parseFilter(c)
	if !ok {
		return
	}

	weekStart := timeutil.StartOfWeek(anchor)
	g, ok := slf.buildGraph(c, &timeWindow{from: weekStart, to: weekStart.AddDate(0, 0, 7)})
	if !ok {
		return
	}
	buckets := projection.Week(g, weekStart, filter)

	days := make([]response.ScheduleDay, 0, 7)
	for i := 0; i < 7; i++ {
		date := weekStart.AddDate(0, 0, i)
		days = append(days, response.ScheduleDay{
			Date:  date,
			Items: mapper.ToScheduleItems(buckets[date]),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"weekStart": weekStart.Format(dateLayout),
		"days":      days,
	})
}

// month returns calendar cells with each job shown at its primary assignment
func (slf *scheduleHandler) month(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid or missing year"})
		return
	}
	monthNum, err := strconv.Atoi(c.Query("month"))
	if err != nil || monthNum < 1 || monthNum > 12 {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid or missing month"})
		return
	}
	filter, ok := slf.parseFilter(c)
	if !ok {
		return
	}
	g, ok := slf.buildGraph(c, nil)
	if !ok {
		return
	}

	month := time.Month(monthNum)
	byDay := projection.Month(g, year, month, filter)
	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()

	c.JSON(http.StatusOK, gin.H{
		"year":  year,
		"month": monthNum,
		"days":  mapper.ToMonthCells(byDay, daysInMonth),
	})
}

// drop applies a drag-and-drop gesture: the raw cursor position is snapped
// onto the grid, the original duration is preserved, and a drop outside the
// rendered day range is a no-op rather than a clamp.
func (slf *scheduleHandler) drop(c *gin.Context) {
	var req request.DropAssignment
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	assignment, err := slf.jobService.AssignmentByID(req.AssignmentID)
	if err != nil {
		if errors.Is(err, service.ErrAssignmentNotFound) {
			c.JSON(http.StatusNotFound, response.APIError{Message: "Assignment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to load assignment"})
		return
	}

	grid := placement.Grid{
		PixelsPerHour: req.PixelsPerHour,
		DayStartHour:  slf.config.Schedule.DayStartHour,
		DayEndHour:    slf.config.Schedule.DayEndHour,
		SnapMinutes:   slf.config.Schedule.SnapMinutes,
	}
	drag := placement.Drag{
		CursorX:          req.CursorX,
		GrabOffsetX:      req.GrabOffsetX,
		TargetEmployeeID: req.TargetEmployeeID,
		Original:         *assignment,
	}

	var placed placement.Placement
	switch req.View {
	case "day":
		placed, err = grid.Place(timeutil.StartOfDay(req.Date), drag)
	case "week":
		placed, err = grid.PlaceWeek(timeutil.StartOfWeek(req.Date), req.DayIndex, drag)
	case "month":
		placed, err = grid.MoveToDay(timeutil.StartOfDay(req.Date), drag)
	}
	if errors.Is(err, placement.ErrOutOfRange) {
		c.JSON(http.StatusOK, gin.H{"applied": false})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to place assignment"})
		return
	}

	if err := slf.jobService.MoveAssignment(assignment.JobID, assignment.ID, placed.EmployeeID, placed.Start, placed.End); err != nil {
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to move assignment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"applied":    true,
		"employeeId": placed.EmployeeID,
		"start":      placed.Start,
		"end":        placed.End,
	})
}

// defaultSlot returns the click-to-add window for an empty cell
func (slf *scheduleHandler) defaultSlot(c *gin.Context) {
	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid or missing date"})
		return
	}
	employeeID, err := strconv.ParseUint(c.Query("employeeId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid or missing employeeId"})
		return
	}

	slot := placement.ClickSlot(date, uint(employeeID),
		slf.config.Schedule.DefaultSlotStart, slf.config.Schedule.DefaultSlotEnd)
	c.JSON(http.StatusOK, gin.H{
		"employeeId": slot.EmployeeID,
		"start":      slot.Start,
		"end":        slot.End,
	})
}

// unassigned returns the backlog of jobs with no assignments
func (slf *scheduleHandler) unassigned(c *gin.Context) {
	filter, ok := slf.parseFilter(c)
	if !ok {
		return
	}
	g, ok := slf.buildGraph(c, nil)
	if !ok {
		return
	}

	jobs := projection.Unassigned(g, filter)
	c.JSON(http.StatusOK, mapper.ToJobResponses(jobs))
}
