package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/richinex/tripsense/model"
)

type storeFactory func(t *testing.T, now func() time.Time) TripStore

func memoryFactory(t *testing.T, now func() time.Time) TripStore {
	s := NewInMemoryTripStore()
	s.now = now
	return s
}

func sqliteFactory(t *testing.T, now func() time.Time) TripStore {
	s, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	s.now = now
	return s
}

var factories = map[string]storeFactory{
	"memory": memoryFactory,
	"sqlite": sqliteFactory,
}

// tickingClock returns a clock that advances one minute per call.
func tickingClock() func() time.Time {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func sampleTrip(name string) TripData {
	return TripData{
		TripName:    name,
		TripSummary: "Museums and food",
		Form: model.TripForm{
			Destination: "Paris",
			Duration:    3,
			Budget:      "Medium Budget",
		},
		Itinerary: &model.Itinerary{Response: "Day 1: Louvre"},
		SavedAt:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestTripStoreSaveAndLoad(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			store := factory(t, tickingClock())
			ctx := context.Background()

			id, err := store.Save(ctx, "alice", sampleTrip("Paris Adventure"))
			if err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			if len(id) != 8 {
				t.Errorf("expected 8 character id, got %q", id)
			}

			rec, err := store.Load(ctx, "alice", id)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if rec == nil {
				t.Fatal("expected record, got nil")
			}
			if rec.Data.TripName != "Paris Adventure" {
				t.Errorf("expected 'Paris Adventure', got %q", rec.Data.TripName)
			}
			if rec.Data.Form.Destination != "Paris" {
				t.Errorf("expected destination Paris, got %q", rec.Data.Form.Destination)
			}
			if rec.Data.Itinerary == nil || rec.Data.Itinerary.Response != "Day 1: Louvre" {
				t.Errorf("itinerary not preserved: %+v", rec.Data.Itinerary)
			}
		})
	}
}

func TestTripStoreLoadMissing(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			store := factory(t, tickingClock())

			rec, err := store.Load(context.Background(), "alice", "deadbeef")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if rec != nil {
				t.Errorf("expected nil record, got %+v", rec)
			}
		})
	}
}

func TestTripStoreListNewestFirst(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			store := factory(t, tickingClock())
			ctx := context.Background()

			for _, n := range []string{"first", "second", "third"} {
				if _, err := store.Save(ctx, "alice", sampleTrip(n)); err != nil {
					t.Fatalf("Save failed: %v", err)
				}
			}
			if _, err := store.Save(ctx, "bob", sampleTrip("other user")); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			list, err := store.List(ctx, "alice")
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(list) != 3 {
				t.Fatalf("expected 3 trips, got %d", len(list))
			}
			if list[0].TripName != "third" || list[2].TripName != "first" {
				t.Errorf("expected newest first, got %q..%q", list[0].TripName, list[2].TripName)
			}
			if list[0].Destination != "Paris" {
				t.Errorf("expected form fields in summary, got %+v", list[0])
			}
		})
	}
}

func TestTripStoreListEmpty(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			store := factory(t, tickingClock())

			list, err := store.List(context.Background(), "nobody")
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if list == nil || len(list) != 0 {
				t.Errorf("expected empty non-nil list, got %v", list)
			}
		})
	}
}

func TestTripStoreDelete(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			store := factory(t, tickingClock())
			ctx := context.Background()

			id, err := store.Save(ctx, "alice", sampleTrip("to delete"))
			if err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			deleted, err := store.Delete(ctx, "alice", id)
			if err != nil || !deleted {
				t.Fatalf("expected delete to succeed, got %v %v", deleted, err)
			}

			deleted, err = store.Delete(ctx, "alice", id)
			if err != nil || deleted {
				t.Errorf("expected second delete to report false, got %v %v", deleted, err)
			}

			if rec, _ := store.Load(ctx, "alice", id); rec != nil {
				t.Error("expected trip to be gone")
			}
		})
	}
}

func TestTripStoreRejectsLargeTrip(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			store := factory(t, tickingClock())

			data := sampleTrip("huge")
			data.Itinerary.Response = strings.Repeat("x", MaxRecordBytes+1)

			_, err := store.Save(context.Background(), "alice", data)
			if !errors.Is(err, ErrTripTooLarge) {
				t.Errorf("expected ErrTripTooLarge, got %v", err)
			}
		})
	}
}

func TestTripStoreUsersAreIsolated(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			store := factory(t, tickingClock())
			ctx := context.Background()

			id, err := store.Save(ctx, "alice", sampleTrip("private"))
			if err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			if rec, _ := store.Load(ctx, "bob", id); rec != nil {
				t.Error("bob should not see alice's trip")
			}
		})
	}
}

func TestSanitizeUserID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "default"},
		{"alice", "alice"},
		{"../etc/passwd", "__etc_passwd"},
		{`a\b`, "a_b"},
		{strings.Repeat("u", 80), strings.Repeat("u", 50)},
	}

	for _, tt := range tests {
		if got := SanitizeUserID(tt.in); got != tt.want {
			t.Errorf("SanitizeUserID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
