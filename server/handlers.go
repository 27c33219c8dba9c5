package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/richinex/tripsense/booking"
	"github.com/richinex/tripsense/metrics"
	"github.com/richinex/tripsense/model"
	"github.com/richinex/tripsense/session"
	"github.com/richinex/tripsense/storage"
)

const userHeader = "X-User-ID"

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// userID resolves the caller from the X-User-ID header or ?user= query.
func userID(r *http.Request) string {
	if u := strings.TrimSpace(r.Header.Get(userHeader)); u != "" {
		return u
	}
	return r.URL.Query().Get("user")
}

// lookupSession writes a 404 and returns nil when the session is unknown.
func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) *session.Session {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return nil
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil
	}
	return sess
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"demo_mode": s.planner.DemoMode(),
		"tools":     s.registry.Len(),
	})
}

// --- Session handlers ---

type sessionResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	DemoMode  bool      `json:"demo_mode"`
}

type createSessionRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	}
	if req.UserID == "" {
		req.UserID = userID(r)
	}

	sess := s.sessions.Create(req.UserID)
	writeJSON(w, http.StatusCreated, sessionResponse{
		ID:        sess.ID,
		UserID:    sess.UserID,
		CreatedAt: sess.CreatedAt,
		DemoMode:  s.planner.DemoMode(),
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.IDs())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type replyResponse struct {
	Reply     string           `json:"reply"`
	Itinerary *model.Itinerary `json:"itinerary,omitempty"`
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}

	var form model.TripForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	reply := s.planner.PlanTrip(r.Context(), sess, form)
	_, itinerary, _ := sess.Trip()
	writeJSON(w, http.StatusOK, replyResponse{Reply: reply, Itinerary: itinerary})
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	writeJSON(w, http.StatusOK, replyResponse{Reply: s.planner.Chat(r.Context(), sess, req.Message)})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}
	sess.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}
	writeJSON(w, http.StatusOK, sess.History())
}

type metricsResponse struct {
	Totals  metrics.Totals  `json:"totals"`
	Entries []metrics.Entry `json:"entries"`
}

func (s *Server) handleGetMetrics(w http.ResponseWriter, r *http.Request) {
	sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}

	entries := sess.Metrics.Entries()
	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		entries = sess.Metrics.Recent(n)
	}
	writeJSON(w, http.StatusOK, metricsResponse{Totals: sess.Metrics.Totals(), Entries: entries})
}

// --- Trip handlers ---

func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := s.store.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if trips == nil {
		trips = []storage.TripSummary{}
	}
	writeJSON(w, http.StatusOK, trips)
}

func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	rec := s.lookupTrip(w, r)
	if rec == nil {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteTrip(w http.ResponseWriter, r *http.Request) {
	ok, err := s.store.Delete(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "trip not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Tools ---

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Declarations())
}

// --- Bookings ---

// lookupTrip writes a 404 and returns nil when the caller has no such trip.
func (s *Server) lookupTrip(w http.ResponseWriter, r *http.Request) *storage.TripRecord {
	rec, err := s.store.Load(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "trip not found")
		return nil
	}
	return rec
}

// writeBookingError maps finder errors to client and server statuses.
func (s *Server) writeBookingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, booking.ErrIncompleteTrip):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrUnknownAirport):
		writeError(w, http.StatusUnprocessableEntity, err.Error()+". Try a major city name or a 3-letter airport code.")
	default:
		s.logger.Error("booking search failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "booking search failed")
	}
}

func (s *Server) handleTripFlights(w http.ResponseWriter, r *http.Request) {
	rec := s.lookupTrip(w, r)
	if rec == nil {
		return
	}
	res, err := s.finder.Flights(r.Context(), rec.Data.Form)
	if err != nil {
		s.writeBookingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTripHotels(w http.ResponseWriter, r *http.Request) {
	rec := s.lookupTrip(w, r)
	if rec == nil {
		return
	}
	res, err := s.finder.Hotels(r.Context(), rec.Data.Form)
	if err != nil {
		s.writeBookingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTripEvents(w http.ResponseWriter, r *http.Request) {
	rec := s.lookupTrip(w, r)
	if rec == nil {
		return
	}
	res, err := s.finder.Events(r.Context(), rec.Data.Form)
	if err != nil {
		s.writeBookingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTripEstimate(w http.ResponseWriter, r *http.Request) {
	rec := s.lookupTrip(w, r)
	if rec == nil {
		return
	}
	writeJSON(w, http.StatusOK, booking.EstimateCost(rec.Data.Form))
}
