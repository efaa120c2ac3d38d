package planner

// PlanTrips partitions locations into trips, each packed against the full lead capacity.
//
// Every iteration drops locations heavier than leadCapacity from consideration, solves
// the knapsack over what is left and removes the selection from the pool. When only
// locations that nothing can carry remain, PlanTrips stops and returns an
// *UnroutableError listing them.
func PlanTrips(locations []Location, leadCapacity int) ([]Trip, error) {
	pool := make([]Location, len(locations))
	copy(pool, locations)

	var trips []Trip
	for len(pool) > 0 {
		candidates := fitting(pool, leadCapacity)
		if len(candidates) == 0 {
			return nil, &UnroutableError{Locations: pool, LeadCapacity: leadCapacity}
		}

		selected := Solve(candidates, leadCapacity)
		if len(selected) == 0 {
			// Only weightless locations are left; the solver never needs to pick them.
			selected = candidates
		}

		trips = append(trips, Trip{
			Items:       selected,
			TotalWeight: totalWeight(selected),
		})
		pool = without(pool, selected)
	}

	return trips, nil
}

func fitting(pool []Location, capacity int) []Location {
	out := make([]Location, 0, len(pool))
	for _, loc := range pool {
		if loc.Weight <= capacity {
			out = append(out, loc)
		}
	}
	return out
}

func without(pool, selected []Location) []Location {
	taken := make(map[string]struct{}, len(selected))
	for _, loc := range selected {
		taken[loc.Name] = struct{}{}
	}

	out := make([]Location, 0, len(pool))
	for _, loc := range pool {
		if _, ok := taken[loc.Name]; !ok {
			out = append(out, loc)
		}
	}
	return out
}
