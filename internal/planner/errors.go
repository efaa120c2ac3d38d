package planner

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyFleet is returned when planning is requested without any vehicle.
	ErrEmptyFleet = errors.New("fleet must contain at least one vehicle")
	// ErrInvalidVehicle is returned when a vehicle has an empty name or a negative capacity.
	ErrInvalidVehicle = errors.New("vehicle must have a name and a non-negative capacity")
	// ErrInvalidLocation is returned when a location has an empty name or a negative weight.
	ErrInvalidLocation = errors.New("location must have a name and a non-negative weight")
	// ErrDuplicateName is returned when two vehicles or two locations share a name.
	ErrDuplicateName = errors.New("names must be unique")
	// ErrUnroutableLocation is returned when a location is heavier than every vehicle can carry.
	ErrUnroutableLocation = errors.New("location exceeds the capacity of every vehicle")
	// ErrPlanTooLarge is returned when the knapsack table for a trip would exceed MaxTableCells.
	ErrPlanTooLarge = errors.New("plan exceeds the planner table limit")
)

// UnroutableError lists the locations that no vehicle in the fleet can carry.
type UnroutableError struct {
	Locations    []Location
	LeadCapacity int
}

func (e *UnroutableError) Error() string {
	names := make([]string, len(e.Locations))
	for i, loc := range e.Locations {
		names[i] = fmt.Sprintf("%s (%d)", loc.Name, loc.Weight)
	}
	return fmt.Sprintf("%v: lead capacity %d, unroutable: %s",
		ErrUnroutableLocation, e.LeadCapacity, strings.Join(names, ", "))
}

func (e *UnroutableError) Unwrap() error {
	return ErrUnroutableLocation
}
