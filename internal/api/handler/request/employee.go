package request

type CreateEmployee struct {
	Name       string  `json:"name" validate:"required"`
	HourlyRate float64 `json:"hourlyRate" validate:"gte=0"`
	Active     *bool   `json:"active,omitempty"`
}

type UpdateEmployee struct {
	Name       *string  `json:"name,omitempty"`
	HourlyRate *float64 `json:"hourlyRate,omitempty" validate:"omitempty,gte=0"`
	Active     *bool    `json:"active,omitempty"`
}
