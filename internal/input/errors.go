package input

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyManifest is returned when the input declares no vehicles.
	ErrEmptyManifest = errors.New("manifest must declare at least one vehicle")
	// ErrMissingCapacity is returned when a vehicle name is not followed by a capacity.
	ErrMissingCapacity = errors.New("vehicle capacity is missing")
	// ErrMissingWeight is returned when a location name is not followed by a weight.
	ErrMissingWeight = errors.New("location weight is missing")
	// ErrMissingName is returned when a value is not preceded by a name.
	ErrMissingName = errors.New("name is missing before value")
	// ErrInvalidNumericValue is returned when a capacity or weight is not a number in range.
	ErrInvalidNumericValue = errors.New("value must be a number between 0 and 2147483647")
)

// EntityError ties a manifest error to the entity and line it was found on.
type EntityError struct {
	Line  int
	Name  string
	Value string
	Err   error
}

func (e *EntityError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("line %d: value %q: %v", e.Line, e.Value, e.Err)
	}
	if e.Value != "" {
		return fmt.Sprintf("line %d: %s %q: %v", e.Line, e.Name, e.Value, e.Err)
	}
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Name, e.Err)
}

func (e *EntityError) Unwrap() error {
	return e.Err
}
