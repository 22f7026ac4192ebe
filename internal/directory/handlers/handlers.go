package handlers

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/janti/company-mgmt/internal/directory/auth"
	e "github.com/janti/company-mgmt/internal/directory/errors"
	"github.com/janti/company-mgmt/internal/directory/forms"
	"github.com/janti/company-mgmt/internal/directory/models"
	"go.uber.org/zap"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// DirectoryController defines the business logic interface the HTTP
// handlers invoke.
type DirectoryController interface {
	ListCompanies(ctx context.Context) ([]models.Company, error)
	ListUnits(ctx context.Context) ([]models.Unit, error)
	ListEmployees(ctx context.Context) ([]models.Employee, error)

	GetCompany(ctx context.Context, id uint) (*models.Company, error)
	GetUnit(ctx context.Context, id uint) (*models.Unit, error)
	GetEmployee(ctx context.Context, id uint) (*models.Employee, error)

	CompanyForm(company *models.Company) *forms.CompanyForm
	UnitForm(unit *models.Unit) *forms.UnitForm
	EmployeeForm(employee *models.Employee) *forms.EmployeeForm

	SaveCompany(ctx context.Context, form *forms.CompanyForm) (*models.Company, error)
	SaveUnit(ctx context.Context, form *forms.UnitForm) (*models.Unit, error)
	SaveEmployee(ctx context.Context, form *forms.EmployeeForm) (*models.Employee, error)
}

// DirectoryHandler serves the list and edit pages.
type DirectoryHandler struct {
	ctrl   DirectoryController
	logger *zap.Logger
}

func NewDirectoryHandler(ctrl DirectoryController, logger *zap.Logger) *DirectoryHandler {
	return &DirectoryHandler{ctrl: ctrl, logger: logger.Named("directory_handler")}
}

// NewRouter wires middleware, templates and the routing surface.
func NewRouter(h *DirectoryHandler, jwtSecret string, logger *zap.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(RequestLogger(logger), gin.Recovery(), auth.Middleware(jwtSecret))
	engine.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.tmpl")))

	engine.GET("/", h.home)

	engine.GET("/companies/", h.listCompanies)
	companies := h.companyResource()
	engine.GET("/company/new/", h.edit(companies))
	engine.POST("/company/new/", h.edit(companies))
	engine.GET("/company/edit/:id/", h.edit(companies))
	engine.POST("/company/edit/:id/", h.edit(companies))

	engine.GET("/units/", h.listUnits)
	units := h.unitResource()
	engine.GET("/unit/new/", h.edit(units))
	engine.POST("/unit/new/", h.edit(units))
	engine.GET("/unit/edit/:id/", h.edit(units))
	engine.POST("/unit/edit/:id/", h.edit(units))

	engine.GET("/employees/", h.listEmployees)
	employees := h.employeeResource()
	engine.GET("/employee/new/", h.edit(employees))
	engine.POST("/employee/new/", h.edit(employees))
	engine.GET("/employee/edit/:id/", h.edit(employees))
	engine.POST("/employee/edit/:id/", h.edit(employees))

	return engine
}

func (h *DirectoryHandler) home(c *gin.Context) {
	c.HTML(http.StatusOK, "home.tmpl", gin.H{})
}

// ── List views ───────────────────────────────────────────────────────

func (h *DirectoryHandler) listCompanies(c *gin.Context) {
	companies, err := h.ctrl.ListCompanies(c.Request.Context())
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.HTML(http.StatusOK, "companies.tmpl", gin.H{"Companies": companies})
}

func (h *DirectoryHandler) listUnits(c *gin.Context) {
	units, err := h.ctrl.ListUnits(c.Request.Context())
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.HTML(http.StatusOK, "units.tmpl", gin.H{"Units": units})
}

func (h *DirectoryHandler) listEmployees(c *gin.Context) {
	employees, err := h.ctrl.ListEmployees(c.Request.Context())
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.HTML(http.StatusOK, "employees.tmpl", gin.H{"Employees": employees})
}

// ── Edit flow ────────────────────────────────────────────────────────

// resource adapts one record type to the shared edit flow: build a
// form for a new record, load one for an existing record, and save.
type resource struct {
	name     string
	listPath string
	newForm  func() forms.Form
	loadForm func(ctx context.Context, id uint) (forms.Form, error)
	save     func(ctx context.Context, form forms.Form) error
}

func (h *DirectoryHandler) companyResource() resource {
	return resource{
		name:     "Company",
		listPath: "/companies/",
		newForm: func() forms.Form {
			return h.ctrl.CompanyForm(&models.Company{})
		},
		loadForm: func(ctx context.Context, id uint) (forms.Form, error) {
			company, err := h.ctrl.GetCompany(ctx, id)
			if err != nil {
				return nil, err
			}
			return h.ctrl.CompanyForm(company), nil
		},
		save: func(ctx context.Context, form forms.Form) error {
			_, err := h.ctrl.SaveCompany(ctx, form.(*forms.CompanyForm))
			return err
		},
	}
}

func (h *DirectoryHandler) unitResource() resource {
	return resource{
		name:     "Unit",
		listPath: "/units/",
		newForm: func() forms.Form {
			return h.ctrl.UnitForm(&models.Unit{})
		},
		loadForm: func(ctx context.Context, id uint) (forms.Form, error) {
			unit, err := h.ctrl.GetUnit(ctx, id)
			if err != nil {
				return nil, err
			}
			return h.ctrl.UnitForm(unit), nil
		},
		save: func(ctx context.Context, form forms.Form) error {
			_, err := h.ctrl.SaveUnit(ctx, form.(*forms.UnitForm))
			return err
		},
	}
}

func (h *DirectoryHandler) employeeResource() resource {
	return resource{
		name:     "Employee",
		listPath: "/employees/",
		newForm: func() forms.Form {
			return h.ctrl.EmployeeForm(&models.Employee{})
		},
		loadForm: func(ctx context.Context, id uint) (forms.Form, error) {
			employee, err := h.ctrl.GetEmployee(ctx, id)
			if err != nil {
				return nil, err
			}
			return h.ctrl.EmployeeForm(employee), nil
		},
		save: func(ctx context.Context, form forms.Form) error {
			_, err := h.ctrl.SaveEmployee(ctx, form.(*forms.EmployeeForm))
			return err
		},
	}
}

// edit runs the shared lookup-or-new, bind, validate,
// persist-or-rerender flow for one record type.
func (h *DirectoryHandler) edit(res resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var form forms.Form
		editing := false
		if raw := c.Param("id"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				h.notFound(c, res.name)
				return
			}
			form, err = res.loadForm(ctx, uint(id))
			if err != nil {
				if errors.Is(err, e.ErrNotFound) {
					h.notFound(c, res.name)
					return
				}
				h.serverError(c, err)
				return
			}
			editing = true
		} else {
			form = res.newForm()
		}

		if c.Request.Method == http.MethodPost {
			form.Bind(submittedValues(c))
			err := res.save(ctx, form)
			if err == nil {
				c.Redirect(http.StatusFound, res.listPath)
				return
			}
			var fieldErrs forms.Errors
			if !errors.As(err, &fieldErrs) {
				h.serverError(c, err)
				return
			}
			// A constraint violation caught at commit time never went
			// through Validate, so the form doesn't carry it yet.
			form.SetErrors(fieldErrs)
			// Fall through and re-render with the field annotations.
		}

		fields, err := form.Fields(ctx)
		if err != nil {
			h.serverError(c, err)
			return
		}
		title := "New " + res.name
		if editing {
			title = "Edit " + res.name
		}
		c.HTML(http.StatusOK, "form.tmpl", gin.H{
			"Title":    title,
			"Fields":   fields,
			"ListPath": res.listPath,
		})
	}
}

// submittedValues flattens the posted form body to the field-name to
// string mapping the form layer binds.
func submittedValues(c *gin.Context) map[string]string {
	if err := c.Request.ParseForm(); err != nil {
		return map[string]string{}
	}
	values := make(map[string]string, len(c.Request.PostForm))
	for key, vals := range c.Request.PostForm {
		if len(vals) > 0 {
			values[key] = vals[0]
		}
	}
	return values
}

func (h *DirectoryHandler) notFound(c *gin.Context, entity string) {
	c.HTML(http.StatusNotFound, "notfound.tmpl", gin.H{"Entity": entity})
}

func (h *DirectoryHandler) serverError(c *gin.Context, err error) {
	requestID := c.GetString("request_id")
	h.logger.Error("request failed",
		zap.String("request_id", requestID),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.String(http.StatusInternalServerError, "Internal Server Error")
}
