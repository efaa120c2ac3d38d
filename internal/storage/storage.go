package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/eugenenazirov/fleet-planner/internal/planner"
)

const maxVehicles = 64

var (
	// ErrInvalidFleet indicates the provided fleet violates validation rules.
	ErrInvalidFleet = errors.New("fleet must contain between 1 and 64 uniquely named vehicles with non-negative capacities")
)

var defaultFleet = []planner.Vehicle{
	{Name: "DroneA", Capacity: 200},
	{Name: "DroneB", Capacity: 250},
	{Name: "DroneC", Capacity: 100},
}

// Storage provides access to the fleet used by the planner.
type Storage interface {
	GetFleet() ([]planner.Vehicle, error)
	SetFleet(fleet []planner.Vehicle) error
}

// MemoryStorage keeps the fleet in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu    sync.RWMutex
	fleet []planner.Vehicle
}

// NewMemoryStorage initialises storage with a copy of the default fleet.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		fleet: planner.SortFleet(defaultFleet),
	}
}

// DefaultFleet returns a copy of the default fleet, capacity-descending.
func DefaultFleet() []planner.Vehicle {
	return planner.SortFleet(defaultFleet)
}

// GetFleet returns a copy of the stored fleet, capacity-descending.
func (s *MemoryStorage) GetFleet() ([]planner.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return planner.SortFleet(s.fleet), nil
}

// SetFleet validates, sorts and stores the provided fleet.
func (s *MemoryStorage) SetFleet(fleet []planner.Vehicle) error {
	if len(fleet) > maxVehicles {
		return ErrInvalidFleet
	}
	if err := planner.ValidateFleet(fleet); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFleet, err)
	}

	sorted := planner.SortFleet(fleet)
	s.mu.Lock()
	s.fleet = sorted
	s.mu.Unlock()

	return nil
}
