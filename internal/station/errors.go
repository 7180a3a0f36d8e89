package station

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a referenced record does not exist
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a unique business key is already taken
	ErrDuplicate = errors.New("already exists")

	// ErrForbidden is returned when a user acts on a record owned by someone else
	ErrForbidden = errors.New("not authorized")
)

// DuplicateError names the entity and key that collided
type DuplicateError struct {
	Entity string
	Key    string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Entity, e.Key)
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// ValidationError carries per-field problems with a request
type ValidationError struct {
	Message string
	Fields  map[string]string
}

// NewValidationError creates an empty ValidationError with a summary message
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message, Fields: make(map[string]string)}
}

// Add records a problem with a field
func (e *ValidationError) Add(field, problem string) {
	e.Fields[field] = problem
}

// OrNil returns nil when no field problems were recorded
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(fields, ", "))
}

// Invalid returns a ValidationError for a single field
func Invalid(field, problem string) error {
	verr := NewValidationError(problem)
	verr.Add(field, problem)
	return verr
}
