package forms

import (
	"context"
	"strings"
	"testing"

	"github.com/janti/company-mgmt/internal/directory/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore implements Store over in-memory slices.
type fakeStore struct {
	companies []models.Company
	units     []models.Unit
	employees []models.Employee
}

func (s *fakeStore) CompanyNameTaken(_ context.Context, name string, excludeID uint) (bool, error) {
	for _, c := range s.companies {
		if c.Name == name && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) EmployeeEmailTaken(_ context.Context, email string, excludeID uint) (bool, error) {
	for _, e := range s.employees {
		if e.Email == email && e.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) CompanyExists(_ context.Context, id uint) (bool, error) {
	for _, c := range s.companies {
		if c.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) UnitExists(_ context.Context, id uint) (bool, error) {
	for _, u := range s.units {
		if u.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) ListCompanies(context.Context) ([]models.Company, error) {
	return s.companies, nil
}

func (s *fakeStore) ListUnits(context.Context) ([]models.Unit, error) {
	return s.units, nil
}

func acmeStore() *fakeStore {
	acme := models.Company{ID: 1, Name: "Acme"}
	hr := models.Unit{ID: 1, Name: "HR", CompanyID: 1, Company: acme}
	return &fakeStore{
		companies: []models.Company{acme},
		units:     []models.Unit{hr},
		employees: []models.Employee{{ID: 1, FirstName: "John", LastName: "Doe", Email: "john@example.com", UnitID: 1}},
	}
}

func TestCompanyFormRequiredName(t *testing.T) {
	form := NewCompanyForm(&fakeStore{}, &models.Company{})
	form.Bind(map[string]string{"address": "Main St 1"})

	errs, err := form.Validate(context.Background())
	require.NoError(t, err)
	assert.True(t, errs.Has("name", CodeRequired))
	assert.Empty(t, form.Company().Name, "record must stay untouched on failure")
}

func TestCompanyFormNameLengthBoundary(t *testing.T) {
	store := &fakeStore{}

	form := NewCompanyForm(store, &models.Company{})
	form.Bind(map[string]string{"name": strings.Repeat("a", models.MaxNameLength+1)})
	errs, err := form.Validate(context.Background())
	require.NoError(t, err)
	assert.True(t, errs.Has("name", CodeTooLong), "max+1 must be rejected")
	assert.Contains(t, errs.ByField("name")[0], "at most 255 characters (it has 256)")

	form = NewCompanyForm(store, &models.Company{})
	form.Bind(map[string]string{"name": strings.Repeat("a", models.MaxNameLength)})
	errs, err = form.Validate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, errs, "exactly max must be accepted")
}

// Length limits count code points, not bytes: 255 CJK characters are
// within bounds even though they take three bytes each.
func TestCompanyFormLengthCountsCodePoints(t *testing.T) {
	form := NewCompanyForm(&fakeStore{}, &models.Company{})
	form.Bind(map[string]string{"name": strings.Repeat("测", models.MaxNameLength)})

	errs, err := form.Validate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, strings.Repeat("测", models.MaxNameLength), form.Company().Name)
}

func TestCompanyFormDuplicateName(t *testing.T) {
	form := NewCompanyForm(acmeStore(), &models.Company{})
	form.Bind(map[string]string{"name": "Acme"})

	errs, err := form.Validate(context.Background())
	require.NoError(t, err)
	assert.True(t, errs.Has("name", CodeDuplicate))
	assert.Equal(t, []string{"Company with this Name already exists."}, errs.ByField("name"))
}

// Editing a record and resubmitting its own name unchanged passes the
// uniqueness pre-check.
func TestCompanyFormDuplicateNameExcludesSelf(t *testing.T) {
	store := acmeStore()
	form := NewCompanyForm(store, &models.Company{ID: 1, Name: "Acme"})
	form.Bind(map[string]string{"name": "Acme", "address": "HQ"})

	errs, err := form.Validate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, "HQ", form.Company().Address)
}

func TestCompanyFormAddressOptional(t *testing.T) {
	form := NewCompanyForm(&fakeStore{}, &models.Company{})
	form.Bind(map[string]string{"name": "Globex"})

	errs, err := form.Validate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, "Globex", form.Company().Name)
	assert.Empty(t, form.Company().Address)
}

func TestCompanyFormPreservesUnicode(t *testing.T) {
	for _, name := range []string{"测试公司", "Åklagarmyndigheten", "مكتب الاختبار", "∞"} {
		form := NewCompanyForm(&fakeStore{}, &models.Company{})
		form.Bind(map[string]string{"name": name})

		errs, err := form.Validate(context.Background())
		require.NoError(t, err)
		require.Empty(t, errs)
		assert.Equal(t, name, form.Company().Name, "submitted text must be stored byte-for-byte")
	}
}

func TestUnitFormCompanyReference(t *testing.T) {
	store := acmeStore()

	cases := []struct {
		name  string
		value string
		code  Code
	}{
		{"missing", "", CodeRequired},
		{"non-numeric", "abc", CodeUnknownReference},
		{"dangling", "999", CodeUnknownReference},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form := NewUnitForm(store, &models.Unit{})
			form.Bind(map[string]string{"name": "HR", "company": tc.value})

			errs, err := form.Validate(context.Background())
			require.NoError(t, err)
			assert.True(t, errs.Has("company", tc.code))
		})
	}

	form := NewUnitForm(store, &models.Unit{})
	form.Bind(map[string]string{"name": "Engineering", "company": "1"})
	errs, err := form.Validate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, uint(1), form.Unit().CompanyID)
}

// Unit names are not required to be unique: a second HR in another
// company is fine.
func TestUnitFormAllowsDuplicateNames(t *testing.T) {
	store := acmeStore()
	store.companies = append(store.companies, models.Company{ID: 2, Name: "Globex"})

	form := NewUnitForm(store, &models.Unit{})
	form.Bind(map[string]string{"name": "HR", "company": "2"})

	errs, err := form.Validate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestUnitFormFieldsListCompanyChoices(t *testing.T) {
	store := acmeStore()
	form := NewUnitForm(store, &models.Unit{ID: 1, Name: "HR", CompanyID: 1})

	fields, err := form.Fields(context.Background())
	require.NoError(t, err)
	require.Len(t, fields, 2)

	company := fields[1]
	assert.Equal(t, "select", company.Type)
	require.Len(t, company.Options, 1)
	assert.Equal(t, "Acme", company.Options[0].Label)
	assert.True(t, company.Options[0].Selected)
}

func TestEmployeeFormEmailFormat(t *testing.T) {
	store := acmeStore()

	form := NewEmployeeForm(store, &models.Employee{})
	form.Bind(map[string]string{
		"first_name": "Jane",
		"last_name":  "Doe",
		"email":      "not-an-email",
		"unit":       "1",
	})

	errs, err := form.Validate(context.Background())
	require.NoError(t, err)
	assert.True(t, errs.Has("email", CodeInvalidFormat))
	assert.Equal(t, []string{"Enter a valid email address."}, errs.ByField("email"))
}

func TestEmployeeFormDuplicateEmail(t *testing.T) {
	store := acmeStore()

	form := NewEmployeeForm(store, &models.Employee{})
	form.Bind(map[string]string{
		"first_name": "Jane",
		"last_name":  "Doe",
		"email":      "john@example.com",
		"unit":       "1",
	})
	errs, err := form.Validate(context.Background())
	require.NoError(t, err)
	assert.True(t, errs.Has("email", CodeDuplicate))

	// The employee owning the address may resubmit it unchanged.
	form = NewEmployeeForm(store, &models.Employee{ID: 1})
	form.Bind(map[string]string{
		"first_name": "John",
		"last_name":  "Doe",
		"email":      "john@example.com",
		"unit":       "1",
	})
	errs, err = form.Validate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, errs)
}

// Every violated field is reported at once so the re-rendered form can
// annotate all of them.
func TestEmployeeFormReportsAllErrorsInOrder(t *testing.T) {
	form := NewEmployeeForm(acmeStore(), &models.Employee{})
	form.Bind(map[string]string{})

	errs, err := form.Validate(context.Background())
	require.NoError(t, err)
	require.Len(t, errs, 4)

	var fields []string
	for _, fe := range errs {
		fields = append(fields, fe.Field)
	}
	assert.Equal(t, []string{"first_name", "last_name", "email", "unit"}, fields)
	for _, fe := range errs {
		assert.Equal(t, CodeRequired, fe.Code)
		assert.Equal(t, "This field is required.", fe.Message)
	}
}

func TestEmployeeFormValidSubmission(t *testing.T) {
	form := NewEmployeeForm(acmeStore(), &models.Employee{})
	form.Bind(map[string]string{
		"first_name": "Jane",
		"last_name":  "Doe",
		"email":      "jane@example.com",
		"unit":       "1",
	})

	errs, err := form.Validate(context.Background())
	require.NoError(t, err)
	require.Empty(t, errs)

	employee := form.Employee()
	assert.Equal(t, "Jane", employee.FirstName)
	assert.Equal(t, "Doe", employee.LastName)
	assert.Equal(t, "jane@example.com", employee.Email)
	assert.Equal(t, uint(1), employee.UnitID)
}

// Errors attached after a successful Validate, e.g. a constraint
// violation at commit time, still annotate the re-rendered fields.
func TestSetErrorsSurfacesInFields(t *testing.T) {
	form := NewCompanyForm(&fakeStore{}, &models.Company{})
	form.Bind(map[string]string{"name": "Acme"})

	errs, err := form.Validate(context.Background())
	require.NoError(t, err)
	require.Empty(t, errs)

	form.SetErrors(Errors{Duplicate("name", "Company", "Name")})

	fields, err := form.Fields(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Company with this Name already exists."}, fields[0].Errors)
	assert.Equal(t, "Acme", fields[0].Value)
}

// A bound form re-renders the raw submission, not the record's stored
// values.
func TestFieldsShowSubmittedValuesAfterFailure(t *testing.T) {
	store := acmeStore()
	form := NewCompanyForm(store, &models.Company{ID: 1, Name: "Acme", Address: "HQ"})
	form.Bind(map[string]string{"name": "", "address": "New Address"})

	errs, err := form.Validate(context.Background())
	require.NoError(t, err)
	require.True(t, errs.Has("name", CodeRequired))

	fields, err := form.Fields(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", fields[0].Value, "name shows the rejected submission")
	assert.Equal(t, []string{"This field is required."}, fields[0].Errors)
	assert.Equal(t, "New Address", fields[1].Value)
}
