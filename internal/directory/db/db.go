package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	e "github.com/janti/company-mgmt/internal/directory/errors"
	"github.com/janti/company-mgmt/internal/directory/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NewRepository connects to PostgreSQL, retrying with exponential
// backoff while the database comes up, and runs the schema migration.
func NewRepository(cfg *Config) (*Repository, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var db *gorm.DB
	connect := func() error {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
		return err
	}
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(connect, policy); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return NewRepositoryWithDB(db)
}

// NewRepositoryWithDB wraps an already opened gorm handle. The handle
// must have error translation enabled so constraint failures map onto
// the sentinel errors below.
func NewRepositoryWithDB(db *gorm.DB) (*Repository, error) {
	if err := db.AutoMigrate(&models.Company{}, &models.Unit{}, &models.Employee{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Repository{db: db}, nil
}

// translate maps gorm errors onto the storage error taxonomy.
func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return e.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return e.ErrDuplicateValue
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return e.ErrReferenceNotFound
	}
	return err
}

// ── Company ──────────────────────────────────────────────────────────

func (r *Repository) CreateCompany(ctx context.Context, company *models.Company) error {
	if result := r.db.WithContext(ctx).Create(company); result.Error != nil {
		return translate(result.Error)
	}
	return nil
}

func (r *Repository) GetCompany(ctx context.Context, id uint) (*models.Company, error) {
	var company models.Company
	if result := r.db.WithContext(ctx).First(&company, id); result.Error != nil {
		return nil, translate(result.Error)
	}
	return &company, nil
}

func (r *Repository) ListCompanies(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	result := r.db.WithContext(ctx).Order("id").Find(&companies)
	return companies, result.Error
}

// UpdateCompany overwrites every editable field of the identified row.
func (r *Repository) UpdateCompany(ctx context.Context, company *models.Company) error {
	result := r.db.WithContext(ctx).Model(&models.Company{}).
		Where("id = ?", company.ID).
		Select("Name", "Address").
		Updates(company)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// DeleteCompany removes a company together with its units and their
// employees in one transaction.
func (r *Repository) DeleteCompany(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		unitIDs := tx.Model(&models.Unit{}).Select("id").Where("company_id = ?", id)
		if err := tx.Where("unit_id IN (?)", unitIDs).Delete(&models.Employee{}).Error; err != nil {
			return err
		}
		if err := tx.Where("company_id = ?", id).Delete(&models.Unit{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Company{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return e.ErrNotFound
		}
		return nil
	})
}

// CompanyNameTaken reports whether another company already uses the
// name. Pass the id of the record under edit to exclude it.
func (r *Repository) CompanyNameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Company{}).Where("name = ?", name)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	result := query.Limit(1).Count(&count)
	return count > 0, result.Error
}

func (r *Repository) CompanyExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Company{}).Where("id = ?", id).Count(&count)
	return count > 0, result.Error
}

// ── Unit ─────────────────────────────────────────────────────────────

func (r *Repository) CreateUnit(ctx context.Context, unit *models.Unit) error {
	if result := r.db.WithContext(ctx).Create(unit); result.Error != nil {
		return translate(result.Error)
	}
	return nil
}

func (r *Repository) GetUnit(ctx context.Context, id uint) (*models.Unit, error) {
	var unit models.Unit
	if result := r.db.WithContext(ctx).Preload("Company").First(&unit, id); result.Error != nil {
		return nil, translate(result.Error)
	}
	return &unit, nil
}

func (r *Repository) ListUnits(ctx context.Context) ([]models.Unit, error) {
	var units []models.Unit
	result := r.db.WithContext(ctx).Preload("Company").Order("id").Find(&units)
	return units, result.Error
}

func (r *Repository) UpdateUnit(ctx context.Context, unit *models.Unit) error {
	result := r.db.WithContext(ctx).Model(&models.Unit{}).
		Where("id = ?", unit.ID).
		Select("Name", "CompanyID").
		Updates(unit)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// DeleteUnit removes a unit together with its employees in one
// transaction.
func (r *Repository) DeleteUnit(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("unit_id = ?", id).Delete(&models.Employee{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Unit{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return e.ErrNotFound
		}
		return nil
	})
}

func (r *Repository) UnitExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Unit{}).Where("id = ?", id).Count(&count)
	return count > 0, result.Error
}

// ── Employee ─────────────────────────────────────────────────────────

func (r *Repository) CreateEmployee(ctx context.Context, employee *models.Employee) error {
	if result := r.db.WithContext(ctx).Create(employee); result.Error != nil {
		return translate(result.Error)
	}
	return nil
}

func (r *Repository) GetEmployee(ctx context.Context, id uint) (*models.Employee, error) {
	var employee models.Employee
	result := r.db.WithContext(ctx).Preload("Unit.Company").First(&employee, id)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return &employee, nil
}

func (r *Repository) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	result := r.db.WithContext(ctx).Preload("Unit.Company").Order("id").Find(&employees)
	return employees, result.Error
}

func (r *Repository) UpdateEmployee(ctx context.Context, employee *models.Employee) error {
	result := r.db.WithContext(ctx).Model(&models.Employee{}).
		Where("id = ?", employee.ID).
		Select("FirstName", "LastName", "Email", "UnitID").
		Updates(employee)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteEmployee(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Employee{}, id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// EmployeeEmailTaken reports whether another employee already uses the
// email address. Pass the id of the record under edit to exclude it.
func (r *Repository) EmployeeEmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Employee{}).Where("email = ?", email)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	result := query.Limit(1).Count(&count)
	return count > 0, result.Error
}

// ─────────────────────────────────────────────────────────────────────

func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
