package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/richinex/tripsense/booking"
	"github.com/richinex/tripsense/llm"
	"github.com/richinex/tripsense/model"
	"github.com/richinex/tripsense/planner"
	"github.com/richinex/tripsense/session"
	"github.com/richinex/tripsense/storage"
	"github.com/richinex/tripsense/tools"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// saveProvider asks for save_trip on chat turns and answers plans with text.
type saveProvider struct{}

func (saveProvider) Name() string  { return "fake" }
func (saveProvider) Model() string { return "fake-1" }
func (saveProvider) Generate(_ context.Context, contents string, _ llm.GenerationConfig) (llm.Response, error) {
	if strings.HasPrefix(contents, "User:") {
		return llm.Response{Parts: []llm.Part{llm.ToolCallPart{Call: llm.ToolCall{
			Name: "save_trip", Args: map[string]any{"trip_name": "API Trip"},
		}}}}, nil
	}
	return llm.Response{Parts: []llm.Part{llm.TextPart{Text: "Day 1: museums"}}}, nil
}

type testEnv struct {
	server *Server
	store  storage.TripStore
}

func newTestEnv(t *testing.T, provider llm.Provider) *testEnv {
	t.Helper()

	store := storage.NewInMemoryTripStore()
	reg, err := tools.NewDefaultRegistry(tools.NewMapsClient(""), store, quiet)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	opts := []planner.Option{
		planner.WithDispatcher(tools.NewDispatcher(reg, quiet)),
		planner.WithLogger(quiet),
	}
	if provider != nil {
		opts = append(opts, planner.WithProvider(provider))
	}
	p := planner.New(opts...)
	return &testEnv{
		server: New(p, session.NewManager(quiet), store, reg, nil, quiet),
		store:  store,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func (e *testEnv) createSession(t *testing.T, user string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/sessions", `{"user_id":"`+user+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	return decode[sessionResponse](t, rec).ID
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["demo_mode"] != true || body["tools"] != float64(6) {
		t.Errorf("unexpected health body %v", body)
	}
}

func TestDemoPlanAndChat(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.createSession(t, "alice")

	rec := env.do(t, http.MethodPost, "/api/sessions/"+id+"/plan", `{"destination":"Rome","duration":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	plan := decode[replyResponse](t, rec)
	if !strings.Contains(plan.Reply, "# 2-Day Trip to Rome") {
		t.Errorf("unexpected plan %q", plan.Reply)
	}
	if plan.Itinerary == nil || !plan.Itinerary.Demo {
		t.Errorf("expected demo itinerary, got %+v", plan.Itinerary)
	}

	rec = env.do(t, http.MethodPost, "/api/sessions/"+id+"/chat", `{"message":"what's the weather like?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if reply := decode[replyResponse](t, rec).Reply; reply == "" {
		t.Error("expected non-empty chat reply")
	}

	rec = env.do(t, http.MethodGet, "/api/sessions/"+id+"/messages", "")
	if msgs := decode[[]model.Message](t, rec); len(msgs) != 2 {
		t.Errorf("expected 2 messages, got %d", len(msgs))
	}

	rec = env.do(t, http.MethodGet, "/api/sessions/"+id+"/metrics?limit=1", "")
	m := decode[metricsResponse](t, rec)
	if m.Totals.Requests != 2 || len(m.Entries) != 1 || m.Entries[0].Type != "chat_response_demo" {
		t.Errorf("unexpected metrics %+v", m)
	}

	rec = env.do(t, http.MethodPost, "/api/sessions/"+id+"/reset", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/sessions/"+id+"/metrics", "")
	if decode[metricsResponse](t, rec).Totals.Requests != 0 {
		t.Error("expected metrics cleared by reset")
	}
}

func TestSaveThroughChat(t *testing.T) {
	env := newTestEnv(t, saveProvider{})
	id := env.createSession(t, "bob")

	env.do(t, http.MethodPost, "/api/sessions/"+id+"/plan", `{"destination":"Kyoto","duration":5}`)
	rec := env.do(t, http.MethodPost, "/api/sessions/"+id+"/chat", `{"message":"save it"}`)
	reply := decode[replyResponse](t, rec).Reply
	if reply != "✅ Trip 'API Trip' has been saved successfully!" {
		t.Fatalf("unexpected reply %q", reply)
	}

	rec = env.do(t, http.MethodGet, "/api/trips", "", userHeader, "bob")
	trips := decode[[]storage.TripSummary](t, rec)
	if len(trips) != 1 || trips[0].Destination != "Kyoto" {
		t.Fatalf("unexpected trips %+v", trips)
	}

	tripID := trips[0].TripID
	rec = env.do(t, http.MethodGet, "/api/trips/"+tripID+"?user=bob", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	full := decode[storage.TripRecord](t, rec)
	if full.Data.Itinerary == nil || full.Data.Itinerary.Response != "Day 1: museums" {
		t.Errorf("expected itinerary in saved trip, got %+v", full.Data)
	}

	if rec := env.do(t, http.MethodGet, "/api/trips/"+tripID, "", userHeader, "mallory"); rec.Code != http.StatusNotFound {
		t.Errorf("expected other user to get 404, got %d", rec.Code)
	}

	if rec := env.do(t, http.MethodDelete, "/api/trips/"+tripID, "", userHeader, "bob"); rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, "/api/trips/"+tripID, "", userHeader, "bob"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestBadRequests(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.createSession(t, "")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown session", http.MethodPost, "/api/sessions/nope/chat", `{"message":"hi"}`, http.StatusNotFound},
		{"empty message", http.MethodPost, "/api/sessions/" + id + "/chat", `{"message":"  "}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/api/sessions/" + id + "/plan", `{`, http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/api/sessions/" + id + "/metrics?limit=x", "", http.StatusBadRequest},
		{"missing trip", http.MethodGet, "/api/trips/deadbeef", "", http.StatusNotFound},
		{"delete unknown session", http.MethodDelete, "/api/sessions/nope", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected JSON content type, got %q", ct)
			}
		})
	}
}

func TestListTools(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/tools", "")
	decls := decode[[]llm.ToolDefinition](t, rec)
	if len(decls) != 6 || decls[5].Name != "save_trip" {
		t.Errorf("unexpected tool list %+v", decls)
	}
}

func (e *testEnv) saveTrip(t *testing.T, user string, form model.TripForm) string {
	t.Helper()
	id, err := e.store.Save(context.Background(), user, storage.TripData{TripName: "Booked", Form: form})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	return id
}

func TestTripBookingsDemo(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.saveTrip(t, "dana", model.TripForm{
		Origin: "Chennai", Destination: "Paris",
		StartDate: "2025-11-14", EndDate: "2025-11-21",
		Duration: 7, Budget: "Luxury", GroupSize: 2,
	})
	base := "/api/trips/" + id

	rec := env.do(t, http.MethodGet, base+"/flights", "", userHeader, "dana")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	flights := decode[booking.FlightResults](t, rec)
	if !flights.Demo || len(flights.BestFlights) != 3 || flights.Notice == "" {
		t.Fatalf("expected demo flights with a notice, got %+v", flights)
	}
	if f := flights.BestFlights[0]; f.DepartureAirport != "MAA" || f.ArrivalAirport != "CDG" {
		t.Errorf("expected MAA to CDG, got %s to %s", f.DepartureAirport, f.ArrivalAirport)
	}
	if flights.Query.Adults != 2 || flights.Query.ReturnDate != "2025-11-21" {
		t.Errorf("unexpected query %+v", flights.Query)
	}

	rec = env.do(t, http.MethodGet, base+"/hotels", "", userHeader, "dana")
	hotels := decode[booking.HotelResults](t, rec)
	if !hotels.Demo || len(hotels.Hotels) != 3 || hotels.Hotels[0].Name != "Demo Grand Hotel" {
		t.Errorf("unexpected hotels %+v", hotels)
	}

	rec = env.do(t, http.MethodGet, base+"/events", "", userHeader, "dana")
	events := decode[booking.EventResults](t, rec)
	if !events.Demo || len(events.Events) != 2 || events.Query.StartDate != "2025-11-14" {
		t.Errorf("unexpected events %+v", events)
	}

	rec = env.do(t, http.MethodGet, base+"/estimate", "", userHeader, "dana")
	est := decode[booking.Estimate](t, rec)
	// 800*2 + (250+150+80)*7*2
	if est.Total != 8320 {
		t.Errorf("expected total 8320, got %v", est.Total)
	}
}

func TestTripBookingsErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	undated := env.saveTrip(t, "erin", model.TripForm{Origin: "Chennai", Destination: "Paris"})
	nowhere := env.saveTrip(t, "erin", model.TripForm{
		Origin: "Atlantis", Destination: "Paris", StartDate: "2025-11-14",
	})

	tests := []struct {
		name string
		path string
		want int
	}{
		{"flights without dates", "/api/trips/" + undated + "/flights", http.StatusBadRequest},
		{"hotels without dates", "/api/trips/" + undated + "/hotels", http.StatusBadRequest},
		{"events without dates", "/api/trips/" + undated + "/events", http.StatusOK},
		{"unknown airport", "/api/trips/" + nowhere + "/flights", http.StatusUnprocessableEntity},
		{"unknown trip", "/api/trips/deadbeef/flights", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.path, "", userHeader, "erin")
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body)
			}
		})
	}

	if rec := env.do(t, http.MethodGet, "/api/trips/"+undated+"/events", "", userHeader, "frank"); rec.Code != http.StatusNotFound {
		t.Errorf("expected other user to get 404, got %d", rec.Code)
	}
}

func TestListenAndServeShutsDown(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- env.server.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
