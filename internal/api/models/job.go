package models

type JobStatus string

const (
	JobStatusActive    JobStatus = "active"
	JobStatusCompleted JobStatus = "completed"
	JobStatusReturn    JobStatus = "return"
	JobStatusQuote     JobStatus = "quote"
)

func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusActive, JobStatusCompleted, JobStatusReturn, JobStatusQuote:
		return true
	}
	return false
}

// Job owns its Assignments: deleting a job cascades to them.
type Job struct {
	ID           uint `gorm:"primaryKey"`
	Title        string
	Client       string
	Address      string
	Notes        string
	ContactName  string
	ContactPhone string
	ContactEmail string
	Status       JobStatus
	Color        string
	Assignments  []Assignment `gorm:"foreignKey:JobID"`
}
