package hydrx

import (
	"errors"
	"fmt"
)

var (
	// Failure classes
	ErrPlanBuild  = errors.New("hydration plan build failed")
	ErrConversion = errors.New("value conversion failed")
	ErrAssignment = errors.New("member assignment failed")

	// Plan errors
	ErrInvalidTarget   = errors.New("invalid target type")
	ErrUnsupportedType = errors.New("unsupported member type")
	ErrInvalidKey      = errors.New("invalid key override")
	ErrDuplicateKey    = errors.New("duplicate lookup key")

	// Call errors
	ErrNilLookup = errors.New("lookup function is nil")

	// Configuration errors
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// PlanBuildError reports why a hydration plan could not be built for a type.
// No engine is returned alongside it.
type PlanBuildError struct {
	TypeName string
	Member   string
	Err      error
}

func (e *PlanBuildError) Error() string {
	if e.Member == "" {
		return fmt.Sprintf("%s for %s: %v", ErrPlanBuild, e.TypeName, e.Err)
	}
	return fmt.Sprintf("%s for %s, member '%s': %v", ErrPlanBuild, e.TypeName, e.Member, e.Err)
}

func (e *PlanBuildError) Unwrap() error { return e.Err }

func (e *PlanBuildError) Is(target error) bool { return target == ErrPlanBuild }

// ConversionError reports a raw value that could not be parsed into the
// declared type of the member behind Key. Target names the hydrated struct
// type, TypeName the member's own type.
type ConversionError struct {
	Target   string
	TypeName string
	Key      string
	Raw      string
	Err      error
}

func (e *ConversionError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s: key '%s' value %q into %s: %v", ErrConversion, e.Key, e.Raw, e.TypeName, e.Err)
	}
	return fmt.Sprintf("%s for %s: key '%s' value %q into %s: %v", ErrConversion, e.Target, e.Key, e.Raw, e.TypeName, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

func (e *ConversionError) Is(target error) bool { return target == ErrConversion }

// AssignmentError reports a converted value that could not be written to its member.
type AssignmentError struct {
	TypeName string
	Key      string
	Err      error
}

func (e *AssignmentError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s on %s: %v", ErrAssignment, e.TypeName, e.Err)
	}
	return fmt.Sprintf("%s on %s, key '%s': %v", ErrAssignment, e.TypeName, e.Key, e.Err)
}

func (e *AssignmentError) Unwrap() error { return e.Err }

func (e *AssignmentError) Is(target error) bool { return target == ErrAssignment }

// BatchError locates a failure inside a batch hydration: the zero-based row
// index and, when known, the member key being applied.
type BatchError struct {
	Row int
	Key string
	Err error
}

func (e *BatchError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("row %d, key '%s': %v", e.Row, e.Key, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

func NewPlanBuildError(typeName, member string, err error) error {
	return &PlanBuildError{TypeName: typeName, Member: member, Err: err}
}

func NewConversionError(target, typeName, key, raw string, err error) error {
	return &ConversionError{Target: target, TypeName: typeName, Key: key, Raw: raw, Err: err}
}

func NewAssignmentError(typeName, key string, err error) error {
	return &AssignmentError{TypeName: typeName, Key: key, Err: err}
}

func NewBatchError(row int, err error) error {
	return &BatchError{Row: row, Key: KeyOf(err), Err: err}
}

// KeyOf returns the member key an error is attributed to, or "" if none.
func KeyOf(err error) string {
	var convErr *ConversionError
	if errors.As(err, &convErr) {
		return convErr.Key
	}
	var assignErr *AssignmentError
	if errors.As(err, &assignErr) {
		return assignErr.Key
	}
	return ""
}

// IsPlanError returns true if the error was raised while building a plan.
func IsPlanError(err error) bool {
	return errors.Is(err, ErrPlanBuild)
}

// IsConversionError returns true if a raw value failed to parse.
func IsConversionError(err error) bool {
	return errors.Is(err, ErrConversion)
}

// IsAssignmentError returns true if a value could not be written to its member.
func IsAssignmentError(err error) bool {
	return errors.Is(err, ErrAssignment)
}

// IsConfigurationError returns true if the error represents a configuration problem.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrInvalidKey) ||
		errors.Is(err, ErrDuplicateKey) ||
		errors.Is(err, ErrUnsupportedType) ||
		errors.Is(err, ErrInvalidTarget)
}
