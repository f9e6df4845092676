package mapper

import (
	"fieldops/internal/api/handler/request"
	"fieldops/internal/api/handler/response"
	"fieldops/internal/api/models"
)

func CreateEmployee(req request.CreateEmployee) models.Employee {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return models.Employee{
		Name:       req.Name,
		HourlyRate: req.HourlyRate,
		Active:     active,
	}
}

func PatchEmployee(req request.UpdateEmployee) map[string]any {
	patch := make(map[string]any)
	if req.Name != nil {
		patch["name"] = *req.Name
	}
	if req.HourlyRate != nil {
		patch["hourly_rate"] = *req.HourlyRate
	}
	if req.Active != nil {
		patch["active"] = *req.Active
	}
	return patch
}

func ToEmployeeResponse(e models.Employee) response.Employee {
	return response.Employee{
		ID:         e.ID,
		Name:       e.Name,
		HourlyRate: e.HourlyRate,
		Active:     e.Active,
	}
}

func ToEmployeeResponses(entities []models.Employee) []response.Employee {
	employees := make([]response.Employee, len(entities))
	for i, e := range entities {
		employees[i] = ToEmployeeResponse(e)
	}
	return employees
}
