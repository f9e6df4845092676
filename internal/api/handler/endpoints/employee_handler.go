package endpoints

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"fieldops"
	"fieldops/internal/api/handler/mapper"
	"fieldops/internal/api/handler/middleware"
	"fieldops/internal/api/handler/request"
	"fieldops/internal/api/handler/response"
	"fieldops/internal/api/service"
	"fieldops/pkg"
)

type employeeHandler struct {
	employeeService *service.EmployeeService
	config          fieldops.AppConfig
	logger          zerolog.Logger
}

func newEmployeeHandler(employeeService *service.EmployeeService) *employeeHandler {
	return &employeeHandler{
		employeeService: employeeService,
		config:          fieldops.GetConfig(),
		logger:          fieldops.Logger,
	}
}

func EmployeeHandler(router *graceful.Graceful, employeeService *service.EmployeeService) {
	h := newEmployeeHandler(employeeService)

	routes := router.Group("/api/v1/employees")
	routes.Use(middleware.AuthMiddleware(h.config))
	{
		routes.GET("", h.getAll)
		routes.GET("/:id", h.getByID)
		routes.POST("", h.create)
		routes.PATCH("/:id", h.update)
		routes.POST("/:id/deactivate", h.deactivate)
	}
}

// getAll returns the roster; ?all=true includes deactivated employees
func (slf *employeeHandler) getAll(c *gin.Context) {
	var err error
	var entities []response.Employee

	if c.Query("all") == "true" {
		all, findErr := slf.employeeService.FindAll()
		err = findErr
		entities = mapper.ToEmployeeResponses(all)
	} else {
		active, findErr := slf.employeeService.ListEmployees()
		err = findErr
		entities = mapper.ToEmployeeResponses(active)
	}

	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to get employees")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to retrieve employees"})
		return
	}
	c.JSON(http.StatusOK, entities)
}

func (slf *employeeHandler) getByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	employee, err := slf.employeeService.FindByID(id)
	if err != nil {
		if errors.Is(err, service.ErrEmployeeNotFound) {
			c.JSON(http.StatusNotFound, response.APIError{Message: "Employee not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to retrieve employee"})
		return
	}
	c.JSON(http.StatusOK, mapper.ToEmployeeResponse(*employee))
}

func (slf *employeeHandler) create(c *gin.Context) {
	var req request.CreateEmployee
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	created, err := slf.employeeService.Create(mapper.CreateEmployee(req))
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to create employee")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to create employee"})
		return
	}
	c.JSON(http.StatusCreated, mapper.ToEmployeeResponse(*created))
}

func (slf *employeeHandler) update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req request.UpdateEmployee
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	patch := mapper.PatchEmployee(req)
	if len(patch) == 0 {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Empty update"})
		return
	}

	updated, err := slf.employeeService.Update(id, patch)
	if err != nil {
		if errors.Is(err, service.ErrEmployeeNotFound) {
			c.JSON(http.StatusNotFound, response.APIError{Message: "Employee not found"})
			return
		}
		slf.logger.Error().Err(err).Uint("id", id).Msg("Failed to update employee")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to update employee"})
		return
	}
	c.JSON(http.StatusOK, mapper.ToEmployeeResponse(*updated))
}

func (slf *employeeHandler) deactivate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := slf.employeeService.Deactivate(id); err != nil {
		if errors.Is(err, service.ErrEmployeeNotFound) {
			c.JSON(http.StatusNotFound, response.APIError{Message: "Employee not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to deactivate employee"})
		return
	}
	c.Status(http.StatusNoContent)
}
