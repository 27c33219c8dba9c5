package tools

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/richinex/tripsense/llm"
	"github.com/richinex/tripsense/model"
	"github.com/richinex/tripsense/session"
	"github.com/richinex/tripsense/storage"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewDefaultRegistry(NewMapsClient(""), storage.NewInMemoryTripStore(), quiet)
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}
	return reg
}

func TestDefaultRegistry(t *testing.T) {
	reg := newTestRegistry(t)

	want := []string{
		"search_text", "get_nearby_attractions", "get_nearby_restaurants",
		"get_hotels", "get_weather", "save_trip",
	}
	got := reg.Names()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, got)
	}

	decls := reg.Declarations()
	if len(decls) != len(want) {
		t.Fatalf("expected %d declarations, got %d", len(want), len(decls))
	}
	for _, d := range decls {
		if d.Parameters == nil || d.Parameters.Type != llm.TypeObject {
			t.Errorf("%s: expected object parameters", d.Name)
		}
		for _, req := range d.Parameters.Required {
			if _, ok := d.Parameters.Properties[req]; !ok {
				t.Errorf("%s: required param %s not declared", d.Name, req)
			}
		}
	}

	if !strings.Contains(reg.Describe(), "trip_name (string) [required]") {
		t.Errorf("expected describe to list save_trip parameters:\n%s", reg.Describe())
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	maps := NewMapsClient("")
	_, err := NewRegistry(NewSearchTextTool(maps), NewSearchTextTool(maps))
	if err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestParseKind(t *testing.T) {
	for k, name := range kindNames {
		got, err := ParseKind(name)
		if err != nil || got != k {
			t.Errorf("ParseKind(%s) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseKind("rm_rf"); !errors.Is(err, ErrUnknownTool) {
		t.Errorf("expected ErrUnknownTool, got %v", err)
	}
}

func TestArgsAccessors(t *testing.T) {
	args := Args{
		"f":     float64(1.5),
		"i":     3,
		"n":     json.Number("7"),
		"s":     "text",
		"num":   "2.5",
		"b":     true,
		"bs":    "false",
		"list":  []any{"a", 1, "b", ""},
		"empty": "",
	}

	if got := args.Float("f", 0); got != 1.5 {
		t.Errorf("Float: expected 1.5, got %v", got)
	}
	if got := args.Int("i", 0); got != 3 {
		t.Errorf("Int: expected 3, got %v", got)
	}
	if got := args.Int("n", 0); got != 7 {
		t.Errorf("Int json.Number: expected 7, got %v", got)
	}
	if got := args.Float("num", 0); got != 2.5 {
		t.Errorf("Float string: expected 2.5, got %v", got)
	}
	if got := args.Int("missing", 9); got != 9 {
		t.Errorf("Int default: expected 9, got %v", got)
	}
	if got := args.String("empty", "def"); got != "def" {
		t.Errorf("String default: expected def, got %q", got)
	}
	if !args.Bool("b", false) || args.Bool("bs", true) {
		t.Error("Bool accessors wrong")
	}
	if got := args.Strings("list"); len(got) != 2 {
		t.Errorf("Strings: expected 2 items, got %v", got)
	}
	if _, ok := args.OptionalFloat("s"); ok {
		t.Error("expected non-numeric string to be absent")
	}
}

type panicTool struct{}

func (panicTool) Kind() Kind { return KindWeather }
func (panicTool) Declaration() llm.ToolDefinition {
	d := weatherDeclaration()
	return d
}
func (panicTool) Execute(context.Context, *session.Session, Args) (any, error) {
	panic("kaboom")
}

type nilTool struct{}

func (nilTool) Kind() Kind                      { return KindSearchText }
func (nilTool) Declaration() llm.ToolDefinition { return searchTextDeclaration() }
func (nilTool) Execute(context.Context, *session.Session, Args) (any, error) {
	return nil, nil
}

func TestDispatchUnknownTool(t *testing.T) {
	d := NewDispatcher(newTestRegistry(t), nil)

	res := d.Dispatch(context.Background(), nil, "nonexistent_tool", nil)
	if res.OK() {
		t.Fatal("expected failure")
	}
	if res.Err != "Unknown tool: nonexistent_tool" {
		t.Errorf("unexpected error text: %q", res.Err)
	}

	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"function_call":{"name":"nonexistent_tool"},"error":"Unknown tool: nonexistent_tool"}`
	if string(b) != want {
		t.Errorf("expected %s, got %s", want, b)
	}
}

func TestDispatchRecoversPanics(t *testing.T) {
	reg, err := NewRegistry(panicTool{}, nilTool{})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	d := NewDispatcher(reg, nil)

	res := d.Dispatch(context.Background(), nil, "get_weather", Args{})
	if res.OK() || !strings.Contains(res.Err, "kaboom") {
		t.Errorf("expected panic captured as error, got %+v", res)
	}

	res = d.Dispatch(context.Background(), nil, "search_text", Args{})
	if res.Err != "Function search_text returned no data" {
		t.Errorf("expected no-data error, got %q", res.Err)
	}
}

func TestDispatchMissingKeyBecomesResult(t *testing.T) {
	d := NewDispatcher(newTestRegistry(t), nil)

	res := d.Dispatch(context.Background(), nil, "search_text", Args{"query": "Paris"})
	if res.OK() {
		t.Fatal("expected failure without maps key")
	}
	if !errors.Is(res.Cause, ErrMapsKeyMissing) {
		t.Errorf("expected ErrMapsKeyMissing cause, got %v", res.Cause)
	}
}

func TestDispatchAllPreservesOrder(t *testing.T) {
	d := NewDispatcher(newTestRegistry(t), nil)
	sess := session.New("u", nil)

	results := d.DispatchAll(context.Background(), sess, []llm.ToolCall{
		{Name: "bogus"},
		{Name: "save_trip", Args: map[string]any{"trip_name": "x"}},
		{Name: "search_text", Args: map[string]any{"query": "x"}},
	})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, name := range []string{"bogus", "save_trip", "search_text"} {
		if results[i].Name != name {
			t.Errorf("result %d: expected %s, got %s", i, name, results[i].Name)
		}
	}
}

func TestSaveTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewInMemoryTripStore()
	tool := NewSaveTripTool(store, quiet)
	tool.now = func() time.Time { return time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC) }

	sess := session.New("alice", nil)

	t.Run("no trip", func(t *testing.T) {
		out, err := tool.Execute(ctx, sess, Args{"trip_name": "Paris"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		outcome := out.(SaveOutcome)
		if outcome.Saved() {
			t.Fatal("expected error outcome")
		}
		if outcome.Message != "No trip data available to save. Please generate a trip first." {
			t.Errorf("unexpected message: %q", outcome.Message)
		}
	})

	sess.SetForm(model.TripForm{Destination: "Paris", Duration: 3})
	sess.SetItinerary(model.Itinerary{Response: "Day 1: Louvre"})

	t.Run("saved", func(t *testing.T) {
		out, err := tool.Execute(ctx, sess, Args{"trip_name": "Paris Adventure", "trip_summary": "Art"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		outcome := out.(SaveOutcome)
		if !outcome.Saved() || outcome.TripID == "" {
			t.Fatalf("expected saved outcome, got %+v", outcome)
		}
		if outcome.Message != "Trip 'Paris Adventure' has been saved successfully!" {
			t.Errorf("unexpected message: %q", outcome.Message)
		}

		rec, err := store.Load(ctx, "alice", outcome.TripID)
		if err != nil || rec == nil {
			t.Fatalf("expected stored trip, got %v, %v", rec, err)
		}
		if rec.Data.Form.Destination != "Paris" || rec.Data.Itinerary.Response != "Day 1: Louvre" {
			t.Errorf("stored data mismatch: %+v", rec.Data)
		}
	})

	t.Run("default name", func(t *testing.T) {
		out, _ := tool.Execute(ctx, sess, Args{})
		if got := out.(SaveOutcome).TripName; got != "My Trip" {
			t.Errorf("expected My Trip, got %q", got)
		}
	})
}

// failingStore rejects every write.
type failingStore struct {
	storage.TripStore
}

func (failingStore) Save(context.Context, string, storage.TripData) (string, error) {
	return "", errors.New("disk I/O error at /data/trips.db")
}

func TestSaveTripStoreFailure(t *testing.T) {
	var logs strings.Builder
	tool := NewSaveTripTool(failingStore{}, slog.New(slog.NewTextHandler(&logs, nil)))

	sess := session.New("alice", nil)
	sess.SetForm(model.TripForm{Destination: "Oslo"})

	outcome, err := tool.Save(context.Background(), sess, "Fjords", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Saved() || outcome.Message != SaveFailedMessage {
		t.Errorf("expected generic failure, got %+v", outcome)
	}
	if strings.Contains(outcome.Message, "disk") {
		t.Errorf("storage error leaked into message: %q", outcome.Message)
	}
	if !strings.Contains(logs.String(), "disk I/O error") || !strings.Contains(logs.String(), "trip_name=Fjords") {
		t.Errorf("expected cause logged, got %q", logs.String())
	}
}

func TestSaveTripWithoutStore(t *testing.T) {
	tool := NewSaveTripTool(nil, quiet)
	sess := session.New("alice", nil)
	sess.SetForm(model.TripForm{Destination: "Oslo"})

	outcome, err := tool.Save(context.Background(), sess, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Message != SaveFailedMessage || outcome.TripName != "My Trip" {
		t.Errorf("unexpected outcome %+v", outcome)
	}
}
