package forms

import (
	"context"
	"strconv"

	"github.com/janti/company-mgmt/internal/directory/models"
)

// UnitForm validates submissions for a single unit record. Unit names
// need not be unique, but the company reference must resolve.
type UnitForm struct {
	store  Store
	unit   *models.Unit
	values map[string]string
	bound  bool
	errs   Errors
}

func NewUnitForm(store Store, unit *models.Unit) *UnitForm {
	return &UnitForm{store: store, unit: unit}
}

// Unit returns the candidate record; fully populated only after a
// successful Validate.
func (f *UnitForm) Unit() *models.Unit {
	return f.unit
}

func (f *UnitForm) Bind(values map[string]string) {
	f.values = values
	f.bound = true
}

func (f *UnitForm) SetErrors(errs Errors) {
	f.errs = errs
}

func (f *UnitForm) Validate(ctx context.Context) (Errors, error) {
	f.errs = nil
	name := f.values["name"]
	checkText(&f.errs, "name", name, models.MaxNameLength)

	companyID, ok, err := checkRef(ctx, &f.errs, "company", f.values["company"], f.store.CompanyExists)
	if err != nil {
		return nil, err
	}

	if len(f.errs) > 0 {
		return f.errs, nil
	}
	f.unit.Name = name
	if ok {
		f.unit.CompanyID = companyID
	}
	return nil, nil
}

func (f *UnitForm) Fields(ctx context.Context) ([]Field, error) {
	name := f.unit.Name
	selected := f.unit.CompanyID
	if f.bound {
		name = f.values["name"]
		selected, _ = parseRef(f.values["company"])
	}

	companies, err := f.store.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}
	options := make([]Option, 0, len(companies))
	for _, c := range companies {
		options = append(options, Option{ID: c.ID, Label: c.String(), Selected: c.ID == selected})
	}

	return []Field{
		{Name: "name", Label: "Name", Type: "text", Value: name, Errors: f.errs.ByField("name")},
		{
			Name:    "company",
			Label:   "Company",
			Type:    "select",
			Value:   refValue(selected),
			Options: options,
			Errors:  f.errs.ByField("company"),
		},
	}, nil
}

// refValue renders a reference id for a form field, empty when unset.
func refValue(id uint) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(id), 10)
}
