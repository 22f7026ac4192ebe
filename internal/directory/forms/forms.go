// Package forms binds untrusted field-name to string submissions onto
// directory records. A form either yields a fully populated, unsaved
// record, or the ordered set of every violated field so a re-rendered
// page can annotate all of them at once. Submitted text is kept
// byte-for-byte; length limits count Unicode code points.
package forms

import (
	"context"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/janti/company-mgmt/internal/directory/models"
)

// Code identifies why a field failed validation.
type Code string

const (
	CodeRequired         Code = "required"
	CodeTooLong          Code = "too_long"
	CodeInvalidFormat    Code = "invalid_format"
	CodeDuplicate        Code = "duplicate"
	CodeUnknownReference Code = "unknown_reference"
)

// FieldError ties one validation failure to a single form field.
type FieldError struct {
	Field   string
	Code    Code
	Message string
}

// Errors is the ordered set of field errors from one submission. It
// implements error so a failed validation can travel up the call
// stack and be recovered with errors.As.
type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return "no field errors"
	}
	return fmt.Sprintf("%d invalid field(s), first %q: %s", len(e), e[0].Field, e[0].Message)
}

// ByField returns the messages attached to the named field.
func (e Errors) ByField(field string) []string {
	var messages []string
	for _, fe := range e {
		if fe.Field == field {
			messages = append(messages, fe.Message)
		}
	}
	return messages
}

// Has reports whether the named field failed with the given code.
func (e Errors) Has(field string, code Code) bool {
	for _, fe := range e {
		if fe.Field == field && fe.Code == code {
			return true
		}
	}
	return false
}

// Required reports an empty or missing mandatory field.
func Required(field string) FieldError {
	return FieldError{Field: field, Code: CodeRequired, Message: "This field is required."}
}

// TooLong reports a value exceeding the field's declared maximum
// length in code points.
func TooLong(field string, max, got int) FieldError {
	return FieldError{
		Field:   field,
		Code:    CodeTooLong,
		Message: fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", max, got),
	}
}

// InvalidEmail reports a value that does not match the email grammar.
func InvalidEmail(field string) FieldError {
	return FieldError{Field: field, Code: CodeInvalidFormat, Message: "Enter a valid email address."}
}

// Duplicate reports a uniqueness violation, e.g.
// Duplicate("name", "Company", "Name").
func Duplicate(field, noun, label string) FieldError {
	return FieldError{
		Field:   field,
		Code:    CodeDuplicate,
		Message: fmt.Sprintf("%s with this %s already exists.", noun, label),
	}
}

// UnknownChoice reports a reference that does not resolve to an
// existing record.
func UnknownChoice(field string) FieldError {
	return FieldError{
		Field:   field,
		Code:    CodeUnknownReference,
		Message: "Select a valid choice. That choice is not one of the available choices.",
	}
}

// Store is the subset of the repository the form layer needs for
// uniqueness pre-checks and reference resolution.
type Store interface {
	CompanyNameTaken(ctx context.Context, name string, excludeID uint) (bool, error)
	EmployeeEmailTaken(ctx context.Context, email string, excludeID uint) (bool, error)
	CompanyExists(ctx context.Context, id uint) (bool, error)
	UnitExists(ctx context.Context, id uint) (bool, error)
	ListCompanies(ctx context.Context) ([]models.Company, error)
	ListUnits(ctx context.Context) ([]models.Unit, error)
}

// Option is one choice of a reference field.
type Option struct {
	ID       uint
	Label    string
	Selected bool
}

// Field describes one input for rendering: the value to show (the raw
// submission after a failed validation, the record's value otherwise),
// the errors to annotate it with and, for reference fields, the
// available choices.
type Field struct {
	Name    string
	Label   string
	Type    string // "text", "email" or "select"
	Value   string
	Options []Option
	Errors  []string
}

// Form binds one submission onto a candidate record.
type Form interface {
	// Bind stores the submitted raw values without validating them.
	Bind(values map[string]string)
	// Validate checks every field rule. It returns the full ordered
	// error set for the submission, or an infrastructure error when a
	// store query fails. On (nil, nil) the candidate record is fully
	// populated and ready to persist.
	Validate(ctx context.Context) (Errors, error)
	// SetErrors replaces the error set Fields reports, for failures
	// discovered after a successful Validate, such as a constraint
	// violation at commit time.
	SetErrors(errs Errors)
	// Fields describes the form for rendering, including errors from
	// the last Validate or SetErrors call.
	Fields(ctx context.Context) ([]Field, error)
}

var validate = validator.New()

// checkText applies the required and length rules shared by every text
// field, returning true when the value passed both.
func checkText(errs *Errors, field, value string, max int) bool {
	if value == "" {
		*errs = append(*errs, Required(field))
		return false
	}
	if got := utf8.RuneCountInString(value); got > max {
		*errs = append(*errs, TooLong(field, max, got))
		return false
	}
	return true
}

// checkEmail applies the email grammar rule on top of checkText.
func checkEmail(errs *Errors, field, value string, max int) bool {
	if !checkText(errs, field, value, max) {
		return false
	}
	if err := validate.Var(value, "email"); err != nil {
		*errs = append(*errs, InvalidEmail(field))
		return false
	}
	return true
}

// parseRef parses a submitted reference value into an identifier.
func parseRef(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// checkRef validates a reference field against an existence query.
func checkRef(ctx context.Context, errs *Errors, field, raw string,
	exists func(context.Context, uint) (bool, error)) (uint, bool, error) {
	if raw == "" {
		*errs = append(*errs, Required(field))
		return 0, false, nil
	}
	id, ok := parseRef(raw)
	if !ok {
		*errs = append(*errs, UnknownChoice(field))
		return 0, false, nil
	}
	found, err := exists(ctx, id)
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve %s reference: %w", field, err)
	}
	if !found {
		*errs = append(*errs, UnknownChoice(field))
		return 0, false, nil
	}
	return id, true, nil
}
