// Package session holds per-conversation state.
//
// Information Hiding:
// - Locking around the current trip, itinerary and history
// - Turn serialisation for callers sharing one session
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/richinex/tripsense/metrics"
	"github.com/richinex/tripsense/model"
)

// DefaultUserID is used when no user is supplied.
const DefaultUserID = "default"

// Session is the state of one planning conversation: the submitted trip form,
// the generated itinerary, the chat history, and the metrics recorder.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	Metrics   *metrics.Recorder

	turn sync.Mutex

	mu        sync.RWMutex
	form      *model.TripForm
	itinerary *model.Itinerary
	history   []model.Message
}

// New creates a session. A nil recorder gets a default one.
func New(userID string, recorder *metrics.Recorder) *Session {
	if userID == "" {
		userID = DefaultUserID
	}
	if recorder == nil {
		recorder = metrics.NewRecorder()
	}
	return &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now(),
		Metrics:   recorder,
	}
}

// BeginTurn blocks until no other turn is running on this session and
// returns the function that ends the turn.
func (s *Session) BeginTurn() func() {
	s.turn.Lock()
	return s.turn.Unlock
}

// Trip returns the current form and itinerary together.
// ok is false when no form has been submitted.
func (s *Session) Trip() (form model.TripForm, itinerary *model.Itinerary, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.form == nil {
		return model.TripForm{}, nil, false
	}
	if s.itinerary != nil {
		it := *s.itinerary
		itinerary = &it
	}
	return *s.form, itinerary, true
}

// HasTrip reports whether a trip form has been submitted.
func (s *Session) HasTrip() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.form != nil
}

// SetForm records a new trip submission and clears any previous itinerary.
func (s *Session) SetForm(form model.TripForm) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = &form
	s.itinerary = nil
}

// SetItinerary records the generated plan for the current trip.
func (s *Session) SetItinerary(it model.Itinerary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.itinerary = &it
}

// History returns a copy of the conversation.
func (s *Session) History() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Append adds messages to the conversation.
func (s *Session) Append(msgs ...model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, msgs...)
}

// Reset starts a new trip: form, itinerary, history and metrics are cleared.
func (s *Session) Reset() {
	s.mu.Lock()
	s.form = nil
	s.itinerary = nil
	s.history = nil
	s.mu.Unlock()

	s.Metrics.Reset()
}
