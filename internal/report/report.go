// Package report renders a delivery plan as the plain-text trip sheet.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/eugenenazirov/fleet-planner/internal/planner"
)

// Text renders the plan grouped by vehicle in fleet order.
//
// Every vehicle gets a bracketed header, even when idle. Its trips are numbered from 1
// in the order they were assigned, each followed by the bracketed location names.
func Text(plan planner.Plan) string {
	lines := make([]string, 0, len(plan.Fleet)*2+len(plan.Assignments)*2)
	for _, vehicle := range plan.Fleet {
		lines = append(lines, bracket(vehicle.Name))
		for i, a := range plan.ByVehicle(vehicle.Name) {
			lines = append(lines, fmt.Sprintf("Trip %d", i+1), itemList(a.Items))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// Write renders the plan into w.
func Write(w io.Writer, plan planner.Plan) error {
	if _, err := io.WriteString(w, Text(plan)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func itemList(items []planner.Location) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = bracket(item.Name)
	}
	return strings.Join(parts, ", ")
}

func bracket(name string) string {
	return "[" + strings.TrimSpace(name) + "]"
}
