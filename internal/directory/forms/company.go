package forms

import (
	"context"

	"github.com/janti/company-mgmt/internal/directory/models"
)

// CompanyForm validates submissions for a single company record. Pass
// a zero Company to create, a loaded one to edit.
type CompanyForm struct {
	store   Store
	company *models.Company
	values  map[string]string
	bound   bool
	errs    Errors
}

func NewCompanyForm(store Store, company *models.Company) *CompanyForm {
	return &CompanyForm{store: store, company: company}
}

// Company returns the candidate record; fully populated only after a
// successful Validate.
func (f *CompanyForm) Company() *models.Company {
	return f.company
}

func (f *CompanyForm) Bind(values map[string]string) {
	f.values = values
	f.bound = true
}

func (f *CompanyForm) SetErrors(errs Errors) {
	f.errs = errs
}

func (f *CompanyForm) Validate(ctx context.Context) (Errors, error) {
	f.errs = nil
	name := f.values["name"]
	if checkText(&f.errs, "name", name, models.MaxNameLength) {
		taken, err := f.store.CompanyNameTaken(ctx, name, f.company.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			f.errs = append(f.errs, Duplicate("name", "Company", "Name"))
		}
	}
	// Address is optional free text with no declared bound.
	if len(f.errs) > 0 {
		return f.errs, nil
	}
	f.company.Name = name
	f.company.Address = f.values["address"]
	return nil, nil
}

func (f *CompanyForm) Fields(_ context.Context) ([]Field, error) {
	name, address := f.company.Name, f.company.Address
	if f.bound {
		name, address = f.values["name"], f.values["address"]
	}
	return []Field{
		{Name: "name", Label: "Name", Type: "text", Value: name, Errors: f.errs.ByField("name")},
		{Name: "address", Label: "Address", Type: "text", Value: address, Errors: f.errs.ByField("address")},
	}, nil
}
