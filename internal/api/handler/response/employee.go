package response

type Employee struct {
	ID         uint    `json:"id"`
	Name       string  `json:"name"`
	HourlyRate float64 `json:"hourlyRate"`
	Active     bool    `json:"active"`
}
