package forms

import (
	"context"

	"github.com/janti/company-mgmt/internal/directory/models"
)

// EmployeeForm validates submissions for a single employee record.
// The email address must match the email grammar and be unique across
// all employees; the unit reference must resolve.
type EmployeeForm struct {
	store    Store
	employee *models.Employee
	values   map[string]string
	bound    bool
	errs     Errors
}

func NewEmployeeForm(store Store, employee *models.Employee) *EmployeeForm {
	return &EmployeeForm{store: store, employee: employee}
}

// Employee returns the candidate record; fully populated only after a
// successful Validate.
func (f *EmployeeForm) Employee() *models.Employee {
	return f.employee
}

func (f *EmployeeForm) Bind(values map[string]string) {
	f.values = values
	f.bound = true
}

func (f *EmployeeForm) SetErrors(errs Errors) {
	f.errs = errs
}

func (f *EmployeeForm) Validate(ctx context.Context) (Errors, error) {
	f.errs = nil
	firstName := f.values["first_name"]
	lastName := f.values["last_name"]
	email := f.values["email"]

	checkText(&f.errs, "first_name", firstName, models.MaxNameLength)
	checkText(&f.errs, "last_name", lastName, models.MaxNameLength)
	if checkEmail(&f.errs, "email", email, models.MaxEmailLength) {
		taken, err := f.store.EmployeeEmailTaken(ctx, email, f.employee.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			f.errs = append(f.errs, Duplicate("email", "Employee", "Email"))
		}
	}

	unitID, ok, err := checkRef(ctx, &f.errs, "unit", f.values["unit"], f.store.UnitExists)
	if err != nil {
		return nil, err
	}

	if len(f.errs) > 0 {
		return f.errs, nil
	}
	f.employee.FirstName = firstName
	f.employee.LastName = lastName
	f.employee.Email = email
	if ok {
		f.employee.UnitID = unitID
	}
	return nil, nil
}

func (f *EmployeeForm) Fields(ctx context.Context) ([]Field, error) {
	firstName := f.employee.FirstName
	lastName := f.employee.LastName
	email := f.employee.Email
	selected := f.employee.UnitID
	if f.bound {
		firstName = f.values["first_name"]
		lastName = f.values["last_name"]
		email = f.values["email"]
		selected, _ = parseRef(f.values["unit"])
	}

	units, err := f.store.ListUnits(ctx)
	if err != nil {
		return nil, err
	}
	options := make([]Option, 0, len(units))
	for _, u := range units {
		options = append(options, Option{ID: u.ID, Label: u.String(), Selected: u.ID == selected})
	}

	return []Field{
		{Name: "first_name", Label: "First name", Type: "text", Value: firstName, Errors: f.errs.ByField("first_name")},
		{Name: "last_name", Label: "Last name", Type: "text", Value: lastName, Errors: f.errs.ByField("last_name")},
		{Name: "email", Label: "Email", Type: "email", Value: email, Errors: f.errs.ByField("email")},
		{
			Name:    "unit",
			Label:   "Unit",
			Type:    "select",
			Value:   refValue(selected),
			Options: options,
			Errors:  f.errs.ByField("unit"),
		},
	}, nil
}
