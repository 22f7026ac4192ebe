// Package controller implements the service layer of the directory,
// running form validation, orchestrating repository writes and sending
// change events. A commit-time constraint violation that slipped past
// the form pre-check is translated back into a field error so the
// caller re-renders instead of failing.
package controller

import (
	"context"
	"errors"
	"fmt"

	e "github.com/janti/company-mgmt/internal/directory/errors"
	"github.com/janti/company-mgmt/internal/directory/events"
	"github.com/janti/company-mgmt/internal/directory/forms"
	"github.com/janti/company-mgmt/internal/directory/models"
	"go.uber.org/zap"
)

type EventProducer interface {
	Produce(eventType events.EventType, kind string, id uint, display string)
}

// Repository defines the storage interface for directory records.
type Repository interface {
	forms.Store

	CreateCompany(ctx context.Context, company *models.Company) error
	GetCompany(ctx context.Context, id uint) (*models.Company, error)
	UpdateCompany(ctx context.Context, company *models.Company) error
	DeleteCompany(ctx context.Context, id uint) error

	CreateUnit(ctx context.Context, unit *models.Unit) error
	GetUnit(ctx context.Context, id uint) (*models.Unit, error)
	UpdateUnit(ctx context.Context, unit *models.Unit) error
	DeleteUnit(ctx context.Context, id uint) error

	CreateEmployee(ctx context.Context, employee *models.Employee) error
	GetEmployee(ctx context.Context, id uint) (*models.Employee, error)
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	UpdateEmployee(ctx context.Context, employee *models.Employee) error
	DeleteEmployee(ctx context.Context, id uint) error

	Close() error
}

// DirectoryService provides list, lookup, save and delete operations
// for the three record types.
type DirectoryService struct {
	repo     Repository
	producer EventProducer
	logger   *zap.Logger
}

func NewDirectoryService(repo Repository, producer EventProducer, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("directory_service"),
	}
}

// ── Forms ────────────────────────────────────────────────────────────

func (s *DirectoryService) CompanyForm(company *models.Company) *forms.CompanyForm {
	return forms.NewCompanyForm(s.repo, company)
}

func (s *DirectoryService) UnitForm(unit *models.Unit) *forms.UnitForm {
	return forms.NewUnitForm(s.repo, unit)
}

func (s *DirectoryService) EmployeeForm(employee *models.Employee) *forms.EmployeeForm {
	return forms.NewEmployeeForm(s.repo, employee)
}

// ── Lists and lookups ────────────────────────────────────────────────

func (s *DirectoryService) ListCompanies(ctx context.Context) ([]models.Company, error) {
	companies, err := s.repo.ListCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

func (s *DirectoryService) ListUnits(ctx context.Context) ([]models.Unit, error) {
	units, err := s.repo.ListUnits(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	return units, nil
}

func (s *DirectoryService) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	employees, err := s.repo.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, nil
}

func (s *DirectoryService) GetCompany(ctx context.Context, id uint) (*models.Company, error) {
	company, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return company, nil
}

func (s *DirectoryService) GetUnit(ctx context.Context, id uint) (*models.Unit, error) {
	unit, err := s.repo.GetUnit(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	return unit, nil
}

func (s *DirectoryService) GetEmployee(ctx context.Context, id uint) (*models.Employee, error) {
	employee, err := s.repo.GetEmployee(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return employee, nil
}

// ── Saves ────────────────────────────────────────────────────────────

// SaveCompany validates and persists the form's company, inserting or
// updating depending on whether the record already has an identity.
func (s *DirectoryService) SaveCompany(ctx context.Context, form *forms.CompanyForm) (*models.Company, error) {
	if err := s.runValidation(ctx, form); err != nil {
		return nil, err
	}
	company := form.Company()
	if company.ID == 0 {
		if err := s.repo.CreateCompany(ctx, company); err != nil {
			return nil, s.commitError(err, forms.Duplicate("name", "Company", "Name"), forms.FieldError{})
		}
		s.producer.Produce(events.RecordCreated, "company", company.ID, company.String())
		return company, nil
	}
	if err := s.repo.UpdateCompany(ctx, company); err != nil {
		return nil, s.commitError(err, forms.Duplicate("name", "Company", "Name"), forms.FieldError{})
	}
	s.producer.Produce(events.RecordUpdated, "company", company.ID, company.String())
	return company, nil
}

// SaveUnit validates and persists the form's unit.
func (s *DirectoryService) SaveUnit(ctx context.Context, form *forms.UnitForm) (*models.Unit, error) {
	if err := s.runValidation(ctx, form); err != nil {
		return nil, err
	}
	unit := form.Unit()
	if unit.ID == 0 {
		if err := s.repo.CreateUnit(ctx, unit); err != nil {
			return nil, s.commitError(err, forms.FieldError{}, forms.UnknownChoice("company"))
		}
		s.producer.Produce(events.RecordCreated, "unit", unit.ID, s.unitDisplay(ctx, unit))
		return unit, nil
	}
	if err := s.repo.UpdateUnit(ctx, unit); err != nil {
		return nil, s.commitError(err, forms.FieldError{}, forms.UnknownChoice("company"))
	}
	s.producer.Produce(events.RecordUpdated, "unit", unit.ID, s.unitDisplay(ctx, unit))
	return unit, nil
}

// unitDisplay renders the unit's display string, loading the owning
// company when the record doesn't carry it yet.
func (s *DirectoryService) unitDisplay(ctx context.Context, unit *models.Unit) string {
	if unit.Company.ID != unit.CompanyID {
		company, err := s.repo.GetCompany(ctx, unit.CompanyID)
		if err != nil {
			s.logger.Warn("failed to load company for unit event", zap.Error(err))
			return unit.Name
		}
		unit.Company = *company
	}
	return unit.String()
}

// SaveEmployee validates and persists the form's employee.
func (s *DirectoryService) SaveEmployee(ctx context.Context, form *forms.EmployeeForm) (*models.Employee, error) {
	if err := s.runValidation(ctx, form); err != nil {
		return nil, err
	}
	employee := form.Employee()
	if employee.ID == 0 {
		if err := s.repo.CreateEmployee(ctx, employee); err != nil {
			return nil, s.commitError(err, forms.Duplicate("email", "Employee", "Email"), forms.UnknownChoice("unit"))
		}
		s.producer.Produce(events.RecordCreated, "employee", employee.ID, employee.String())
		return employee, nil
	}
	if err := s.repo.UpdateEmployee(ctx, employee); err != nil {
		return nil, s.commitError(err, forms.Duplicate("email", "Employee", "Email"), forms.UnknownChoice("unit"))
	}
	s.producer.Produce(events.RecordUpdated, "employee", employee.ID, employee.String())
	return employee, nil
}

// runValidation runs the form's rules, passing field errors through as
// an error value and wrapping infrastructure failures.
func (s *DirectoryService) runValidation(ctx context.Context, form forms.Form) error {
	fieldErrs, err := form.Validate(ctx)
	if err != nil {
		return fmt.Errorf("validation query failed: %w", err)
	}
	if len(fieldErrs) > 0 {
		return fieldErrs
	}
	return nil
}

// commitError translates a commit-time constraint violation into the
// field error the pre-check would have produced. The storage
// constraint is the final authority when concurrent submissions race
// past the pre-check.
func (s *DirectoryService) commitError(err error, onDuplicate, onBadRef forms.FieldError) error {
	switch {
	case errors.Is(err, e.ErrDuplicateValue) && onDuplicate.Field != "":
		s.logger.Warn("uniqueness race detected at commit", zap.Error(err))
		return forms.Errors{onDuplicate}
	case errors.Is(err, e.ErrReferenceNotFound) && onBadRef.Field != "":
		s.logger.Warn("reference vanished before commit", zap.Error(err))
		return forms.Errors{onBadRef}
	}
	return fmt.Errorf("failed to save record: %w", err)
}

// ── Deletes ──────────────────────────────────────────────────────────
//
// No route exposes the parent deletions; they exist for administrative
// tooling and preserve the cascade at the storage layer.

func (s *DirectoryService) DeleteCompany(ctx context.Context, id uint) error {
	company, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to get company for deletion: %w", err)
	}
	if err := s.repo.DeleteCompany(ctx, id); err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	s.producer.Produce(events.RecordDeleted, "company", company.ID, company.String())
	return nil
}

func (s *DirectoryService) DeleteUnit(ctx context.Context, id uint) error {
	unit, err := s.repo.GetUnit(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to get unit for deletion: %w", err)
	}
	if err := s.repo.DeleteUnit(ctx, id); err != nil {
		return fmt.Errorf("failed to delete unit: %w", err)
	}
	s.producer.Produce(events.RecordDeleted, "unit", unit.ID, s.unitDisplay(ctx, unit))
	return nil
}

func (s *DirectoryService) DeleteEmployee(ctx context.Context, id uint) error {
	employee, err := s.repo.GetEmployee(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to get employee for deletion: %w", err)
	}
	if err := s.repo.DeleteEmployee(ctx, id); err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	s.producer.Produce(events.RecordDeleted, "employee", employee.ID, employee.String())
	return nil
}
