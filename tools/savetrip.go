// Trip persistence tool.
//
// Information Hiding:
// - Session trip state read under the session lock
// - Store failures logged and reported as a generic error outcome, never as a Go error

package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/richinex/tripsense/llm"
	"github.com/richinex/tripsense/session"
	"github.com/richinex/tripsense/storage"
)

const defaultTripName = "My Trip"

// SaveFailedMessage is shown when a trip could not be persisted. The cause is
// logged, not shown.
const SaveFailedMessage = "Failed to save trip. Please try again."

// Save outcome statuses.
const (
	StatusSaved = "saved"
	StatusError = "error"
)

// SaveOutcome is the output of save_trip.
type SaveOutcome struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	TripID   string `json:"trip_id,omitempty"`
	TripName string `json:"trip_name,omitempty"`
}

// Saved reports whether the trip was persisted.
func (o SaveOutcome) Saved() bool {
	return o.Status == StatusSaved
}

// SaveTripTool persists the session's current trip.
type SaveTripTool struct {
	store  storage.TripStore
	logger *slog.Logger
	now    func() time.Time
}

// NewSaveTripTool creates the save_trip tool. A nil logger uses slog.Default.
func NewSaveTripTool(store storage.TripStore, logger *slog.Logger) *SaveTripTool {
	if logger == nil {
		logger = slog.Default()
	}
	return &SaveTripTool{store: store, logger: logger, now: time.Now}
}

func (t *SaveTripTool) Kind() Kind                      { return KindSaveTrip }
func (t *SaveTripTool) Declaration() llm.ToolDefinition { return saveTripDeclaration() }

// Execute saves the trip. It only returns a Go error when sess is nil.
func (t *SaveTripTool) Execute(ctx context.Context, sess *session.Session, args Args) (any, error) {
	return t.Save(ctx, sess, args.String("trip_name", defaultTripName), args.String("trip_summary", ""))
}

// Save persists the session's trip under name. An empty name becomes "My Trip".
func (t *SaveTripTool) Save(ctx context.Context, sess *session.Session, name, summary string) (SaveOutcome, error) {
	if sess == nil {
		return SaveOutcome{}, fmt.Errorf("save_trip requires a session")
	}
	if name == "" {
		name = defaultTripName
	}

	form, itinerary, ok := sess.Trip()
	if !ok {
		return SaveOutcome{
			Status:   StatusError,
			Message:  "No trip data available to save. Please generate a trip first.",
			TripName: name,
		}, nil
	}

	data := storage.TripData{
		TripName:    name,
		TripSummary: summary,
		Form:        form,
		Itinerary:   itinerary,
		SavedAt:     t.now().UTC(),
	}

	if t.store == nil {
		t.logger.Error("save_trip has no trip store configured", "trip_name", name)
		return SaveOutcome{Status: StatusError, Message: SaveFailedMessage, TripName: name}, nil
	}
	id, err := t.store.Save(ctx, sess.UserID, data)
	if err != nil {
		t.logger.Error("failed to save trip", "user", sess.UserID, "trip_name", name, "error", err)
		return SaveOutcome{Status: StatusError, Message: SaveFailedMessage, TripName: name}, nil
	}

	return SaveOutcome{
		Status:   StatusSaved,
		Message:  fmt.Sprintf("Trip '%s' has been saved successfully!", name),
		TripID:   id,
		TripName: name,
	}, nil
}
