package input

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/eugenenazirov/fleet-planner/internal/planner"
)

// Manifest is a parsed planning input: the fleet and the locations it must serve.
type Manifest struct {
	Vehicles  []planner.Vehicle
	Locations []planner.Location
}

var bracketStripper = strings.NewReplacer("[", "", "]", "", "\r", "")

// Parse reads a manifest of bracketed, comma-separated name/value pairs.
//
// The first non-empty line declares the fleet, every following line declares
// locations:
//
//	[DroneA], [200], [DroneB], [250]
//	[LocationA], [200]
//	[LocationB], [150], [LocationC], [50]
//
// Lines are classified by position only, names carry no meaning. The whole
// fleet must therefore fit on the first line: a second line of vehicles is read
// as locations.
//
// A trailing comma on a line is ignored. An empty name followed by a value is
// rejected with ErrMissingName.
//
// Values are truncated to integers. Vehicles come back sorted by descending
// capacity and locations by descending weight, both stable.
func Parse(r io.Reader) (Manifest, error) {
	var m Manifest

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	fleetSeen := false
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(bracketStripper.Replace(scanner.Text()))
		if line == "" {
			continue
		}

		pairs, err := splitPairs(line, lineNo, !fleetSeen)
		if err != nil {
			return Manifest{}, err
		}

		if !fleetSeen {
			fleetSeen = true
			for _, p := range pairs {
				m.Vehicles = append(m.Vehicles, planner.Vehicle{Name: p.name, Capacity: p.value})
			}
			continue
		}
		for _, p := range pairs {
			m.Locations = append(m.Locations, planner.Location{Name: p.name, Weight: p.value})
		}
	}
	if err := scanner.Err(); err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	if len(m.Vehicles) == 0 {
		return Manifest{}, ErrEmptyManifest
	}

	slices.SortStableFunc(m.Vehicles, func(a, b planner.Vehicle) int {
		return cmp.Compare(b.Capacity, a.Capacity)
	})
	slices.SortStableFunc(m.Locations, func(a, b planner.Location) int {
		return cmp.Compare(b.Weight, a.Weight)
	})

	return m, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(raw string) (Manifest, error) {
	return Parse(strings.NewReader(raw))
}

type pair struct {
	name  string
	value int
}

func splitPairs(line string, lineNo int, vehicles bool) ([]pair, error) {
	missing := ErrMissingWeight
	if vehicles {
		missing = ErrMissingCapacity
	}

	tokens := strings.Split(line, ",")
	for i := range tokens {
		tokens[i] = strings.TrimSpace(tokens[i])
	}

	pairs := make([]pair, 0, (len(tokens)+1)/2)
	for i := 0; i < len(tokens); i += 2 {
		name := tokens[i]
		if name == "" {
			if i+1 >= len(tokens) {
				break
			}
			return nil, &EntityError{Line: lineNo, Value: tokens[i+1], Err: ErrMissingName}
		}
		if i+1 >= len(tokens) || tokens[i+1] == "" {
			return nil, &EntityError{Line: lineNo, Name: name, Err: missing}
		}
		value, err := parseQuantity(tokens[i+1])
		if err != nil {
			return nil, &EntityError{Line: lineNo, Name: name, Value: tokens[i+1], Err: err}
		}
		pairs = append(pairs, pair{name: name, value: value})
	}
	return pairs, nil
}

func parseQuantity(raw string) (int, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, ErrInvalidNumericValue
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > math.MaxInt32 {
		return 0, ErrInvalidNumericValue
	}
	return int(f), nil
}
