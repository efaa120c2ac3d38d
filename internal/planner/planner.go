package planner

import (
	"cmp"
	"fmt"
	"slices"
)

// MaxTableCells bounds the knapsack table built for a single trip, in cells of
// (locations+1) * (budget+1). At eight bytes a cell this is 128 MiB.
const MaxTableCells = 1 << 24

// Observer receives the statistics of every successful planning run.
type Observer func(Stats)

// Option configures a Planner.
type Option func(*dpPlanner)

// WithObserver registers a callback invoked after each successful run.
func WithObserver(obs Observer) Option {
	return func(p *dpPlanner) {
		p.observers = append(p.observers, obs)
	}
}

type dpPlanner struct {
	observers []Observer
}

// New creates a Planner that packs trips with the knapsack solver against the lead vehicle.
func New(opts ...Option) Planner {
	p := &dpPlanner{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *dpPlanner) Plan(fleet []Vehicle, locations []Location) (Plan, error) {
	sorted, err := normalizeFleet(fleet)
	if err != nil {
		return Plan{}, err
	}
	if err := validateLocations(locations); err != nil {
		return Plan{}, err
	}

	lead := sorted[0]
	if err := checkTableSize(locations, lead.Capacity); err != nil {
		return Plan{}, fmt.Errorf("plan trips for lead vehicle %s: %w", lead.Name, err)
	}
	trips, err := PlanTrips(locations, lead.Capacity)
	if err != nil {
		return Plan{}, fmt.Errorf("plan trips for lead vehicle %s: %w", lead.Name, err)
	}

	plan := Plan{
		Fleet:       sorted,
		Trips:       trips,
		Assignments: AssignTrips(trips, sorted),
	}

	stats := Stats{
		Locations: len(locations),
		Vehicles:  len(sorted),
		Trips:     len(trips),
	}
	for _, trip := range trips {
		stats.TotalWeight += trip.TotalWeight
		stats.Wasted += lead.Capacity - trip.TotalWeight
	}
	for _, obs := range p.observers {
		obs(stats)
	}

	return plan, nil
}

// SortFleet returns a copy of fleet ordered by descending capacity.
// Vehicles with equal capacity keep their relative order.
func SortFleet(fleet []Vehicle) []Vehicle {
	out := slices.Clone(fleet)
	slices.SortStableFunc(out, func(a, b Vehicle) int {
		return cmp.Compare(b.Capacity, a.Capacity)
	})
	return out
}

// ValidateFleet checks vehicle names and capacities without reordering the fleet.
func ValidateFleet(fleet []Vehicle) error {
	if len(fleet) == 0 {
		return ErrEmptyFleet
	}
	seen := make(map[string]struct{}, len(fleet))
	for _, v := range fleet {
		if v.Name == "" || v.Capacity < 0 {
			return fmt.Errorf("vehicle %q with capacity %d: %w", v.Name, v.Capacity, ErrInvalidVehicle)
		}
		if _, dup := seen[v.Name]; dup {
			return fmt.Errorf("vehicle %q: %w", v.Name, ErrDuplicateName)
		}
		seen[v.Name] = struct{}{}
	}
	return nil
}

func normalizeFleet(fleet []Vehicle) ([]Vehicle, error) {
	if err := ValidateFleet(fleet); err != nil {
		return nil, err
	}
	return SortFleet(fleet), nil
}

func validateLocations(locations []Location) error {
	seen := make(map[string]struct{}, len(locations))
	for _, loc := range locations {
		if loc.Name == "" || loc.Weight < 0 {
			return fmt.Errorf("location %q with weight %d: %w", loc.Name, loc.Weight, ErrInvalidLocation)
		}
		if _, dup := seen[loc.Name]; dup {
			return fmt.Errorf("location %q: %w", loc.Name, ErrDuplicateName)
		}
		seen[loc.Name] = struct{}{}
	}
	return nil
}

// checkTableSize rejects inputs whose first trip would need a table larger
// than MaxTableCells. Later trips work on a smaller pool.
func checkTableSize(locations []Location, capacity int) error {
	fitting := 0
	for _, loc := range locations {
		if loc.Weight <= capacity {
			fitting++
		}
	}
	if fitting == 0 || capacity <= 0 {
		return nil
	}
	budget := reachable(locations, capacity)
	rows := fitting + 1
	if budget > MaxTableCells/rows-1 {
		return fmt.Errorf("%d locations against a budget of %d: %w", fitting, budget, ErrPlanTooLarge)
	}
	return nil
}
