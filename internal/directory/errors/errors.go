package errors

import (
	"fmt"
)

var (
	ErrNotFound          = fmt.Errorf("not found")
	ErrDuplicateValue    = fmt.Errorf("duplicate value")
	ErrReferenceNotFound = fmt.Errorf("referenced record not found")
	ErrInvalidInput      = fmt.Errorf("invalid input")
)
