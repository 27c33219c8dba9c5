// Package storage provides trip persistence.
//
// Information Hiding:
// - Storage backend implementation details hidden behind TripStore
// - Allows swapping between memory and SQLite without API changes
// - Identifier generation and user id sanitisation shared by all backends

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/richinex/tripsense/model"
)

const (
	// MaxRecordBytes bounds the encoded size of one saved trip.
	MaxRecordBytes = 1 << 20
	// MaxListed bounds the number of summaries returned by List.
	MaxListed = 100

	maxUserIDLen  = 50
	defaultUserID = "default"
)

var (
	// ErrTripTooLarge is returned when a trip exceeds MaxRecordBytes.
	ErrTripTooLarge = errors.New("trip data exceeds maximum size")
	// ErrIDExhausted is returned when no free trip id could be generated.
	ErrIDExhausted = errors.New("could not allocate trip id")
)

// TripData is the payload written by save_trip.
type TripData struct {
	TripName    string           `json:"trip_name"`
	TripSummary string           `json:"trip_summary"`
	Form        model.TripForm   `json:"form_data"`
	Itinerary   *model.Itinerary `json:"itinerary,omitempty"`
	SavedAt     time.Time        `json:"saved_at"`
}

// TripRecord is a stored trip.
type TripRecord struct {
	TripID    string    `json:"trip_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Data      TripData  `json:"trip_data"`
}

// TripSummary is the listing view of a stored trip.
type TripSummary struct {
	TripID      string    `json:"trip_id"`
	CreatedAt   time.Time `json:"created_at"`
	TripName    string    `json:"trip_name"`
	TripSummary string    `json:"trip_summary"`
	model.TripForm
}

// TripStore persists trips per user.
type TripStore interface {
	// Save stores a trip and returns its id.
	Save(ctx context.Context, userID string, data TripData) (string, error)

	// Load returns a trip, or nil without error when it does not exist.
	Load(ctx context.Context, userID, tripID string) (*TripRecord, error)

	// List returns summaries newest first, at most MaxListed.
	List(ctx context.Context, userID string) ([]TripSummary, error)

	// Delete removes a trip and reports whether it existed.
	Delete(ctx context.Context, userID, tripID string) (bool, error)
}

// SanitizeUserID makes a user id safe to use as a storage key.
func SanitizeUserID(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return defaultUserID
	}
	userID = strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(userID)
	if len(userID) > maxUserIDLen {
		userID = userID[:maxUserIDLen]
	}
	return userID
}

// newTripID returns a short random identifier.
func newTripID() string {
	return uuid.NewString()[:8]
}

// encodeTrip marshals data and enforces the size limit.
func encodeTrip(data TripData) ([]byte, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode trip: %w", err)
	}
	if len(b) > MaxRecordBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTripTooLarge, len(b))
	}
	return b, nil
}

func summarize(rec TripRecord) TripSummary {
	return TripSummary{
		TripID:      rec.TripID,
		CreatedAt:   rec.CreatedAt,
		TripName:    rec.Data.TripName,
		TripSummary: rec.Data.TripSummary,
		TripForm:    rec.Data.Form,
	}
}

// newestFirst sorts summaries by creation time descending and truncates.
func newestFirst(summaries []TripSummary) []TripSummary {
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	if len(summaries) > MaxListed {
		summaries = summaries[:MaxListed]
	}
	return summaries
}
