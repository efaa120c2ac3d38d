package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/fleet-planner/internal/planner"
	"github.com/eugenenazirov/fleet-planner/internal/storage"
)

type controllableClock struct {
	mu  sync.RWMutex
	now time.Time
}

func newControllableClock(initial time.Time) *controllableClock {
	return &controllableClock{now: initial}
}

func (c *controllableClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

func (c *controllableClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func setupTestRouter(t *testing.T) (http.Handler, *controllableClock) {
	t.Helper()

	store := storage.NewMemoryStorage()
	clock := newControllableClock(time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC))
	logger := zaptest.NewLogger(t)

	handler := NewHandler(planner.New(), store,
		WithClock(clock.Now),
		WithLogger(logger),
		WithIDGenerator(func() string { return "plan-1" }),
	)
	router := NewRouter(handler, logger, WithLogging(false), WithRateLimit(0, 0))

	return router, clock
}

func doJSON(t *testing.T, router http.Handler, method, target string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequestIDHelpers(t *testing.T) {
	ctx := contextWithRequestID(context.Background(), "abc")
	if got := requestIDFromContext(ctx); got != "abc" {
		t.Fatalf("expected abc, got %s", got)
	}
	resp := httptest.NewRecorder()
	writeInternalError(resp, assertError("boom"))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 status, got %d", resp.Code)
	}
}

type assertError string

func (a assertError) Error() string { return string(a) }

func TestHealthEndpoint(t *testing.T) {
	router, clock := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Status != "ok" {
		t.Fatalf("expected status ok, got %s", body.Status)
	}
	if !body.Timestamp.Equal(clock.Now()) {
		t.Fatalf("expected timestamp %s, got %s", clock.Now(), body.Timestamp)
	}
}

func TestGetFleetReturnsDefaults(t *testing.T) {
	router, clock := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/fleet", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Vehicles  []planner.Vehicle `json:"vehicles"`
		UpdatedAt time.Time         `json:"updatedAt"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	want := storage.DefaultFleet()
	if len(body.Vehicles) != len(want) {
		t.Fatalf("expected %d vehicles, got %d", len(want), len(body.Vehicles))
	}
	for i, v := range want {
		if body.Vehicles[i] != v {
			t.Fatalf("expected vehicle %+v at position %d, got %+v", v, i, body.Vehicles[i])
		}
	}
	if !body.UpdatedAt.Equal(clock.Now()) {
		t.Fatalf("expected updatedAt %s, got %s", clock.Now(), body.UpdatedAt)
	}
}

func TestPutFleetUpdatesStorage(t *testing.T) {
	router, clock := setupTestRouter(t)

	clock.Advance(time.Hour)

	rec := doJSON(t, router, http.MethodPut, "/api/fleet", map[string]any{
		"vehicles": []map[string]any{
			{"name": "Van", "capacity": 40},
			{"name": "Truck", "capacity": 90},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Vehicles  []planner.Vehicle `json:"vehicles"`
		UpdatedAt time.Time         `json:"updatedAt"`
		Message   string            `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Message == "" {
		t.Fatalf("expected success message, got empty string")
	}
	if len(body.Vehicles) != 2 || body.Vehicles[0].Name != "Truck" {
		t.Fatalf("expected fleet sorted by capacity, got %v", body.Vehicles)
	}
	if !body.UpdatedAt.Equal(clock.Now()) {
		t.Fatalf("expected updatedAt %s, got %s", clock.Now(), body.UpdatedAt)
	}
}

func TestPutFleetValidatesInput(t *testing.T) {
	router, _ := setupTestRouter(t)

	cases := []map[string]any{
		{"vehicles": []map[string]any{}},
		{"vehicles": []map[string]any{{"name": "Van", "capacity": -1}}},
		{"vehicles": []map[string]any{{"name": "Van", "capacity": 1}, {"name": "Van", "capacity": 2}}},
	}
	for i, payload := range cases {
		if rec := doJSON(t, router, http.MethodPut, "/api/fleet", payload); rec.Code != http.StatusBadRequest {
			t.Fatalf("case %d: expected status 400, got %d", i, rec.Code)
		}
	}
}

type planBody struct {
	PlanID      string `json:"planId"`
	LeadVehicle string `json:"leadVehicle"`
	Trips       []struct {
		Trip        int      `json:"trip"`
		Sequence    int      `json:"sequence"`
		Vehicle     string   `json:"vehicle"`
		Items       []string `json:"items"`
		TotalWeight int      `json:"totalWeight"`
	} `json:"trips"`
	Vehicles []struct {
		Name        string `json:"name"`
		Trips       int    `json:"trips"`
		TotalWeight int    `json:"totalWeight"`
	} `json:"vehicles"`
	TotalWeight int `json:"totalWeight"`
}

func TestPlanEndpointWithExplicitFleet(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/plan", map[string]any{
		"vehicles": []map[string]any{
			{"name": "V1", "capacity": 10},
			{"name": "Lead", "capacity": 25},
			{"name": "V2", "capacity": 20},
		},
		"locations": []map[string]any{
			{"name": "A", "weight": 10},
			{"name": "B", "weight": 20},
			{"name": "C", "weight": 15},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body planBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.PlanID != "plan-1" {
		t.Fatalf("expected plan id plan-1, got %s", body.PlanID)
	}
	if body.LeadVehicle != "Lead" {
		t.Fatalf("expected lead vehicle Lead, got %s", body.LeadVehicle)
	}
	if len(body.Trips) != 2 {
		t.Fatalf("expected 2 trips, got %d", len(body.Trips))
	}
	first, second := body.Trips[0], body.Trips[1]
	if first.Vehicle != "Lead" || first.TotalWeight != 25 || strings.Join(first.Items, ",") != "C,A" {
		t.Fatalf("unexpected first trip: %+v", first)
	}
	if second.Vehicle != "V2" || second.Sequence != 1 || second.TotalWeight != 20 {
		t.Fatalf("unexpected second trip: %+v", second)
	}
	if body.TotalWeight != 45 {
		t.Fatalf("expected total weight 45, got %d", body.TotalWeight)
	}
	if len(body.Vehicles) != 3 || body.Vehicles[2].Name != "V1" || body.Vehicles[2].Trips != 0 {
		t.Fatalf("unexpected vehicle summary: %+v", body.Vehicles)
	}
}

func TestPlanEndpointUsesStoredFleet(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/plan", map[string]any{
		"locations": []map[string]any{
			{"name": "L1", "weight": 150},
			{"name": "L2", "weight": 100},
			{"name": "L3", "weight": 120},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body planBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.LeadVehicle != "DroneB" {
		t.Fatalf("expected DroneB to lead, got %s", body.LeadVehicle)
	}
	if len(body.Trips) != 2 {
		t.Fatalf("expected 2 trips, got %d", len(body.Trips))
	}
	if body.Trips[0].Vehicle != "DroneB" || body.Trips[0].TotalWeight != 250 {
		t.Fatalf("unexpected first trip: %+v", body.Trips[0])
	}
	if body.Trips[1].Vehicle != "DroneA" || body.Trips[1].Items[0] != "L3" {
		t.Fatalf("unexpected second trip: %+v", body.Trips[1])
	}
}

func TestPlanEndpointUnroutable(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/plan", map[string]any{
		"vehicles":  []map[string]any{{"name": "Lead", "capacity": 25}},
		"locations": []map[string]any{{"name": "Heavy", "weight": 30}},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}

	var body struct {
		Details    string `json:"details"`
		Suggestion string `json:"suggestion"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !strings.Contains(body.Details, "Heavy") {
		t.Fatalf("expected details to name the location, got %q", body.Details)
	}
	if !strings.Contains(body.Suggestion, "30") {
		t.Fatalf("expected suggestion to mention capacity 30, got %q", body.Suggestion)
	}
}

func TestPlanEndpointRejectsBadInput(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/plan", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for malformed JSON, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/plan", map[string]any{
		"locations": []map[string]any{{"name": "A", "weight": -1}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for negative weight, got %d", rec.Code)
	}
}

func TestPlanEndpointRejectsOversizedTable(t *testing.T) {
	router, _ := setupTestRouter(t)

	locations := make([]map[string]any, 50)
	for i := range locations {
		locations[i] = map[string]any{"name": fmt.Sprintf("L%02d", i), "weight": 1_000_000}
	}

	rec := doJSON(t, router, http.MethodPost, "/api/plan", map[string]any{
		"vehicles":  []map[string]any{{"name": "Lead", "capacity": 2147483647}},
		"locations": locations,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	var body struct {
		Details string `json:"details"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !strings.Contains(body.Details, planner.ErrPlanTooLarge.Error()) {
		t.Fatalf("expected details to mention the table limit, got %q", body.Details)
	}

	rec = doJSON(t, router, http.MethodPut, "/api/fleet", map[string]any{
		"vehicles": []map[string]any{{"name": "Lead", "capacity": 2147483647}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected fleet update to succeed, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPost, "/api/plan", map[string]any{"locations": locations})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 against the stored fleet, got %d", rec.Code)
	}
}

func TestPlanReportEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	manifest := "[Lead], [25], [V2], [20], [V1], [10]\n[A], [10]\n[B], [20]\n[C], [15]\n"
	req := httptest.NewRequest(http.MethodPost, "/api/plan/report", strings.NewReader(manifest))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("expected text/plain, got %s", ct)
	}
	want := "[Lead]\nTrip 1\n[A], [C]\n\n[V2]\nTrip 1\n[B]\n\n[V1]\n"
	if got := rec.Body.String(); got != want {
		t.Fatalf("unexpected report:\n%s\nwant:\n%s", got, want)
	}
}

func TestPlanReportEndpointRejectsBadManifest(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/plan/report", strings.NewReader("[DroneA], [abc]\n"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "DroneA") {
		t.Fatalf("expected error to name DroneA, got %s", rec.Body.String())
	}
}

func TestCorsPreflight(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/plan", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("expected Access-Control-Allow-Origin header to be set")
	}
}

func TestRequestIDPropagation(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "test-request-id")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "test-request-id" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}
}

func TestRequestIDGenerated(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Fatalf("expected a generated UUID request id, got %q", got)
	}
}
