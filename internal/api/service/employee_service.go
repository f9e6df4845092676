package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"fieldops"
	"fieldops/internal/api/models"
	"fieldops/internal/api/repo"
	"fieldops/pkg"
)

var ErrEmployeeNotFound = errors.New("employee not found")

const employeeCacheTTL = 5 * time.Minute

// EmployeeService is the read-mostly employee directory. The active roster
// is cached in redis; any write invalidates the cache.
//
// Employee identity is issued by the database. Callers never supply IDs.
type EmployeeService struct {
	tenant       models.TenantContext
	employeeRepo *repo.EmployeeRepository
	logger       zerolog.Logger
}

func NewEmployeeService(tenant models.TenantContext) *EmployeeService {
	return &EmployeeService{
		tenant:       tenant,
		employeeRepo: repo.NewEmployeeRepository(),
		logger:       fieldops.Logger,
	}
}

func (slf *EmployeeService) cacheKey() string {
	return fmt.Sprintf("tenant:%s:employees:active", slf.tenant.ID)
}

// ListEmployees retrieves the active roster, serving from cache when warm.
// This is the directory the schedule store loads on subscribe.
func (slf *EmployeeService) ListEmployees() ([]models.Employee, error) {
	var cached []models.Employee
	if err := pkg.RedisGet(slf.cacheKey(), &cached); err == nil {
		return cached, nil
	} else if !pkg.IsRedisNil(err) {
		slf.logger.Warn().Err(err).Msg("Employee cache read failed, falling back to db")
	}

	employees, err := slf.employeeRepo.FindAllActive()
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error listing employees")
		return nil, err
	}

	if err := pkg.RedisSet(slf.cacheKey(), employees, employeeCacheTTL); err != nil {
		slf.logger.Warn().Err(err).Msg("Employee cache write failed")
	}
	return employees, nil
}

// FindAll retrieves every employee, including deactivated ones
func (slf *EmployeeService) FindAll() ([]models.Employee, error) {
	employees, err := slf.employeeRepo.FindAll()
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error listing all employees")
		return nil, err
	}
	return employees, nil
}

// FindByID retrieves one employee
func (slf *EmployeeService) FindByID(id uint) (*models.Employee, error) {
	employee, err := slf.employeeRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		slf.logger.Error().Err(err).Uint("employeeId", id).Msg("Error getting employee")
		return nil, err
	}
	return &employee, nil
}

// Create adds an employee. The ID is issued by the database and returned on
// the stored row.
func (slf *EmployeeService) Create(employee models.Employee) (*models.Employee, error) {
	employee.ID = 0
	if err := slf.employeeRepo.Create(&employee); err != nil {
		slf.logger.Error().Err(err).Msg("Error creating employee")
		return nil, err
	}
	slf.invalidateCache()
	return &employee, nil
}

// Update patches an employee's fields
func (slf *EmployeeService) Update(id uint, patch map[string]any) (*models.Employee, error) {
	result := slf.employeeRepo.Db.Model(&models.Employee{}).Where("id = ?", id).Updates(patch)
	if result.Error != nil {
		slf.logger.Error().Err(result.Error).Uint("employeeId", id).Msg("Error updating employee")
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrEmployeeNotFound
	}
	slf.invalidateCache()
	return slf.FindByID(id)
}

// Deactivate removes an employee from the schedulable roster without
// touching their assignment history
func (slf *EmployeeService) Deactivate(id uint) error {
	_, err := slf.Update(id, map[string]any{"active": false})
	return err
}

func (slf *EmployeeService) invalidateCache() {
	if err := pkg.RedisDelete(slf.cacheKey()); err != nil {
		slf.logger.Warn().Err(err).Msg("Employee cache invalidation failed")
	}
}
