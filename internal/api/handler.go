package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eugenenazirov/fleet-planner/internal/input"
	"github.com/eugenenazirov/fleet-planner/internal/metrics"
	"github.com/eugenenazirov/fleet-planner/internal/planner"
	"github.com/eugenenazirov/fleet-planner/internal/report"
	"github.com/eugenenazirov/fleet-planner/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const maxBodyBytes = 1 << 20

// Handler wires planner and storage dependencies into HTTP handlers.
type Handler struct {
	planner planner.Planner
	storage storage.Storage
	logger  *zap.Logger

	clock func() time.Time
	newID func() string

	mu             sync.RWMutex
	fleetUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithLogger sets the logger used for planning failures.
func WithLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithIDGenerator overrides how plan IDs are generated.
func WithIDGenerator(newID func() string) HandlerOption {
	return func(h *Handler) {
		h.newID = newID
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(p planner.Planner, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		planner: p,
		storage: store,
		logger:  zap.NewNop(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
		newID: func() string {
			return uuid.New().String()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.fleetUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetFleet(w http.ResponseWriter, r *http.Request) {
	_ = r
	fleet, err := h.storage.GetFleet()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := fleetResponse{
		Vehicles:  fleet,
		UpdatedAt: h.currentFleetUpdatedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutFleet(w http.ResponseWriter, r *http.Request) {
	var req fleetRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if len(req.Vehicles) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid fleet", "vehicles must contain at least one vehicle")
		return
	}

	if err := h.storage.SetFleet(req.Vehicles); err != nil {
		if errors.Is(err, storage.ErrInvalidFleet) {
			writeError(w, http.StatusBadRequest, "Invalid fleet", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markFleetUpdated()

	fleet, err := h.storage.GetFleet()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := fleetResponse{
		Vehicles:  fleet,
		UpdatedAt: h.currentFleetUpdatedAt(),
		Message:   "Fleet updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	fleet := req.Vehicles
	if len(fleet) == 0 {
		stored, err := h.storage.GetFleet()
		if err != nil {
			writeInternalError(w, err)
			return
		}
		fleet = stored
	}

	plan, elapsed, err := h.runPlan(r.Context(), fleet, req.Locations)
	if err != nil {
		writePlanError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newPlanResponse(h.newID(), plan, elapsed))
}

func (h *Handler) handlePlanReport(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to read manifest")
		return
	}

	manifest, err := input.ParseString(string(raw))
	if err != nil {
		metrics.ObserveRun(metrics.OutcomeInvalid, 0)
		writeError(w, http.StatusBadRequest, "Invalid manifest", err.Error())
		return
	}

	plan, _, err := h.runPlan(r.Context(), manifest.Vehicles, manifest.Locations)
	if err != nil {
		writePlanError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = report.Write(w, plan)
}

func (h *Handler) runPlan(ctx context.Context, fleet []planner.Vehicle, locations []planner.Location) (planner.Plan, time.Duration, error) {
	start := time.Now()
	plan, err := h.planner.Plan(fleet, locations)
	elapsed := time.Since(start)

	outcome := metrics.Outcome(err)
	metrics.ObserveRun(outcome, elapsed)
	if err != nil {
		h.logger.Warn("planning failed",
			zap.String("outcome", outcome),
			zap.String("request_id", requestIDFromContext(ctx)),
			zap.Error(err),
		)
		return planner.Plan{}, elapsed, err
	}

	h.logger.Debug("plan computed",
		zap.Int("locations", len(locations)),
		zap.Int("trips", len(plan.Trips)),
		zap.Duration("elapsed", elapsed),
		zap.String("request_id", requestIDFromContext(ctx)),
	)
	return plan, elapsed, nil
}

func writePlanError(w http.ResponseWriter, err error) {
	var unroutable *planner.UnroutableError
	switch {
	case errors.As(err, &unroutable):
		heaviest := 0
		for _, loc := range unroutable.Locations {
			heaviest = max(heaviest, loc.Weight)
		}
		suggestion := fmt.Sprintf("Add a vehicle with capacity of at least %d or split the heavy deliveries", heaviest)
		writeError(w, http.StatusUnprocessableEntity, "Unroutable locations", err.Error(), suggestion)
	case metrics.Outcome(err) == metrics.OutcomeInvalid:
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
	default:
		writeInternalError(w, err)
	}
}

func (h *Handler) currentFleetUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.fleetUpdatedAt
}

func (h *Handler) markFleetUpdated() {
	h.mu.Lock()
	h.fleetUpdatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type fleetRequest struct {
	Vehicles []planner.Vehicle `json:"vehicles"`
}

type planRequest struct {
	Locations []planner.Location `json:"locations"`
	Vehicles  []planner.Vehicle  `json:"vehicles,omitempty"`
}

type tripResponse struct {
	Trip        int      `json:"trip"`
	Sequence    int      `json:"sequence"`
	Vehicle     string   `json:"vehicle"`
	Items       []string `json:"items"`
	TotalWeight int      `json:"totalWeight"`
}

type vehicleSummary struct {
	Name        string `json:"name"`
	Capacity    int    `json:"capacity"`
	Trips       int    `json:"trips"`
	TotalWeight int    `json:"totalWeight"`
}

type planResponse struct {
	PlanID            string           `json:"planId"`
	LeadVehicle       string           `json:"leadVehicle"`
	Trips             []tripResponse   `json:"trips"`
	Vehicles          []vehicleSummary `json:"vehicles"`
	TotalWeight       int              `json:"totalWeight"`
	CalculationTimeMs int64            `json:"calculationTimeMs"`
}

func newPlanResponse(id string, plan planner.Plan, elapsed time.Duration) planResponse {
	resp := planResponse{
		PlanID:            id,
		Trips:             make([]tripResponse, 0, len(plan.Assignments)),
		Vehicles:          make([]vehicleSummary, 0, len(plan.Fleet)),
		CalculationTimeMs: elapsed.Milliseconds(),
	}
	if len(plan.Fleet) > 0 {
		resp.LeadVehicle = plan.Fleet[0].Name
	}

	perVehicle := make(map[string]*vehicleSummary, len(plan.Fleet))
	for _, v := range plan.Fleet {
		resp.Vehicles = append(resp.Vehicles, vehicleSummary{Name: v.Name, Capacity: v.Capacity})
	}
	for i := range resp.Vehicles {
		perVehicle[resp.Vehicles[i].Name] = &resp.Vehicles[i]
	}

	for i, a := range plan.Assignments {
		weight := plan.Trips[i].TotalWeight
		items := make([]string, len(a.Items))
		for j, item := range a.Items {
			items[j] = item.Name
		}
		resp.Trips = append(resp.Trips, tripResponse{
			Trip:        i + 1,
			Sequence:    a.Sequence,
			Vehicle:     a.Vehicle.Name,
			Items:       items,
			TotalWeight: weight,
		})
		resp.TotalWeight += weight
		if s, ok := perVehicle[a.Vehicle.Name]; ok {
			s.Trips++
			s.TotalWeight += weight
		}
	}

	return resp
}

type fleetResponse struct {
	Vehicles  []planner.Vehicle `json:"vehicles"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Message   string            `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
