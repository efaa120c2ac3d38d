package planner

// AssignTrips decides which vehicle carries each trip.
//
// The fleet must already be capacity-descending. For each trip the fleet is scanned
// from index 1 and the first vehicle able to carry the trip's weight is chosen; when
// none qualifies the lead vehicle (fleet[0]) takes it. Capacity is checked per trip,
// so one vehicle may be picked for several trips.
//
// The sequence counter only advances when the lead vehicle is chosen. Trips handed to
// other vehicles reuse the most recent lead sequence, which is 0 before the lead has
// carried anything.
func AssignTrips(trips []Trip, fleet []Vehicle) []Assignment {
	if len(fleet) == 0 {
		return nil
	}

	assignments := make([]Assignment, 0, len(trips))
	sequence := 0
	for _, trip := range trips {
		vehicle, delegated := delegate(fleet, trip.TotalWeight)
		if !delegated {
			sequence++
			vehicle = fleet[0]
		}
		assignments = append(assignments, Assignment{
			Sequence: sequence,
			Vehicle:  vehicle,
			Items:    trip.Items,
		})
	}

	return assignments
}

func delegate(fleet []Vehicle, weight int) (Vehicle, bool) {
	for _, v := range fleet[1:] {
		if v.Capacity >= weight {
			return v, true
		}
	}
	return Vehicle{}, false
}
