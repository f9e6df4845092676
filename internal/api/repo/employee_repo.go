package repo

import (
	"fieldops"
	"fieldops/internal/api/models"

	"gorm.io/gorm"
)

type EmployeeRepository struct {
	Db *gorm.DB
}

func NewEmployeeRepository() *EmployeeRepository {
	return &EmployeeRepository{Db: fieldops.DB}
}

// FindByID retrieves an employee by ID
func (slf *EmployeeRepository) FindByID(id uint) (models.Employee, error) {
	var employee models.Employee
	err := slf.Db.First(&employee, id).Error
	return employee, err
}

// FindAllActive retrieves the schedulable roster
func (slf *EmployeeRepository) FindAllActive() ([]models.Employee, error) {
	var employees []models.Employee
	err := slf.Db.
		Where("active = ?", true).
		Order("name ASC").
		Find(&employees).Error
	return employees, err
}

// FindAll retrieves every employee, active or not
func (slf *EmployeeRepository) FindAll() ([]models.Employee, error) {
	var employees []models.Employee
	err := slf.Db.Order("name ASC").Find(&employees).Error
	return employees, err
}

func (slf *EmployeeRepository) Create(employee *models.Employee) error {
	return slf.Db.Create(employee).Error
}

func (slf *EmployeeRepository) Update(employee *models.Employee) error {
	return slf.Db.Save(employee).Error
}
