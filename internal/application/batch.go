package application

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/fleet-planner/internal/input"
	"github.com/eugenenazirov/fleet-planner/internal/metrics"
	"github.com/eugenenazirov/fleet-planner/internal/planner"
	"github.com/eugenenazirov/fleet-planner/internal/report"
)

// BatchOptions describes one offline planning run.
type BatchOptions struct {
	InputPath  string
	OutputPath string
	// Stdout receives a copy of the report when set.
	Stdout io.Writer
}

// RunBatch reads a manifest, plans it and writes the trip report.
// No output file is written when parsing or planning fails.
func RunBatch(opts BatchOptions, p planner.Planner, logger *zap.Logger) (planner.Plan, error) {
	raw, err := os.Open(opts.InputPath)
	if err != nil {
		return planner.Plan{}, fmt.Errorf("open manifest: %w", err)
	}
	defer raw.Close()

	manifest, err := input.Parse(raw)
	if err != nil {
		metrics.ObserveRun(metrics.OutcomeInvalid, 0)
		return planner.Plan{}, fmt.Errorf("parse manifest %s: %w", opts.InputPath, err)
	}
	logger.Info("manifest loaded",
		zap.String("input", opts.InputPath),
		zap.Int("vehicles", len(manifest.Vehicles)),
		zap.Int("locations", len(manifest.Locations)),
	)

	start := time.Now()
	plan, err := p.Plan(manifest.Vehicles, manifest.Locations)
	elapsed := time.Since(start)
	metrics.ObserveRun(metrics.Outcome(err), elapsed)
	if err != nil {
		return planner.Plan{}, err
	}

	text := report.Text(plan)
	if opts.Stdout != nil {
		if _, err := io.WriteString(opts.Stdout, text+"\n"); err != nil {
			return planner.Plan{}, fmt.Errorf("print report: %w", err)
		}
	}

	if opts.OutputPath != "" {
		if dir := filepath.Dir(opts.OutputPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return planner.Plan{}, fmt.Errorf("create output directory: %w", err)
			}
		}
		if err := os.WriteFile(opts.OutputPath, []byte(text), 0o644); err != nil {
			return planner.Plan{}, fmt.Errorf("write report: %w", err)
		}
	}

	logger.Info("plan written",
		zap.String("output", opts.OutputPath),
		zap.Int("trips", len(plan.Trips)),
		zap.Duration("elapsed", elapsed),
	)
	return plan, nil
}
