package planner

// Location is a delivery destination and the payload weight it requires.
type Location struct {
	Name   string `json:"name" yaml:"name"`
	Weight int    `json:"weight" yaml:"weight"`
}

// Vehicle is a fleet member with a fixed carrying capacity.
type Vehicle struct {
	Name     string `json:"name" yaml:"name"`
	Capacity int    `json:"capacity" yaml:"capacity"`
}

// Trip is one capacity-bounded grouping of locations produced by a single knapsack solve.
type Trip struct {
	Items       []Location
	TotalWeight int
}

// Assignment pairs a trip with the vehicle that carries it.
// Sequence follows the lead-vehicle counting rule described on AssignTrips.
type Assignment struct {
	Sequence int
	Vehicle  Vehicle
	Items    []Location
}

// Plan is the terminal output of a planning run.
type Plan struct {
	// Fleet in the capacity-descending order used for planning; Fleet[0] is the lead vehicle.
	Fleet       []Vehicle
	Trips       []Trip
	Assignments []Assignment
}

// ByVehicle returns the assignments carried by the named vehicle, in trip order.
func (p Plan) ByVehicle(name string) []Assignment {
	var out []Assignment
	for _, a := range p.Assignments {
		if a.Vehicle.Name == name {
			out = append(out, a)
		}
	}
	return out
}

// Stats summarises a finished planning run.
type Stats struct {
	Locations   int
	Vehicles    int
	Trips       int
	TotalWeight int
	// Wasted is the unused lead capacity summed over all trips.
	Wasted int
}

// Planner describes the behaviour required from a fleet trip planner.
type Planner interface {
	Plan(fleet []Vehicle, locations []Location) (Plan, error)
}

func totalWeight(items []Location) int {
	sum := 0
	for _, item := range items {
		sum += item.Weight
	}
	return sum
}
