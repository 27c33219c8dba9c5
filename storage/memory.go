// Package storage provides in-memory trip storage.
//
// Information Hiding:
// - Map storage structure hidden from users
// - Thread-safe access via RWMutex hidden behind interface
// - Suitable for testing and demo sessions

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
)

// InMemoryTripStore implements TripStore using an in-memory map.
// Data is lost when process terminates.
type InMemoryTripStore struct {
	mu    sync.RWMutex
	trips map[string]map[string]TripRecord // user -> trip id -> record
	now   func() time.Time
}

// NewInMemoryTripStore creates a new in-memory store.
func NewInMemoryTripStore() *InMemoryTripStore {
	return &InMemoryTripStore{
		trips: make(map[string]map[string]TripRecord),
		now:   time.Now,
	}
}

// Save stores a trip and returns its id.
func (s *InMemoryTripStore) Save(ctx context.Context, userID string, data TripData) (string, error) {
	b, err := encodeTrip(data)
	if err != nil {
		return "", err
	}
	// Round-trip through JSON so stored records share nothing with the caller.
	var stored TripData
	if err := json.Unmarshal(b, &stored); err != nil {
		return "", fmt.Errorf("failed to copy trip: %w", err)
	}

	userID = SanitizeUserID(userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.trips[userID]
	if !ok {
		user = make(map[string]TripRecord)
		s.trips[userID] = user
	}

	for attempt := 0; attempt < 3; attempt++ {
		id := newTripID()
		if _, taken := user[id]; taken {
			continue
		}
		user[id] = TripRecord{
			TripID:    id,
			UserID:    userID,
			CreatedAt: s.now(),
			Data:      stored,
		}
		return id, nil
	}
	return "", ErrIDExhausted
}

// Load returns a trip, or nil when it does not exist.
func (s *InMemoryTripStore) Load(ctx context.Context, userID, tripID string) (*TripRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.trips[SanitizeUserID(userID)][tripID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// List returns summaries newest first.
func (s *InMemoryTripStore) List(ctx context.Context, userID string) ([]TripSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := lo.MapToSlice(s.trips[SanitizeUserID(userID)], func(_ string, rec TripRecord) TripSummary {
		return summarize(rec)
	})
	return newestFirst(summaries), nil
}

// Delete removes a trip.
func (s *InMemoryTripStore) Delete(ctx context.Context, userID, tripID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.trips[SanitizeUserID(userID)]
	if _, ok := user[tripID]; !ok {
		return false, nil
	}
	delete(user, tripID)
	return true, nil
}

// Verify InMemoryTripStore implements TripStore
var _ TripStore = (*InMemoryTripStore)(nil)
