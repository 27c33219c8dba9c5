package booking

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeSerpAPI records queries and serves one canned body.
type fakeSerpAPI struct {
	mu      sync.Mutex
	hits    int
	queries []url.Values
	paths   []string

	status int
	body   string
}

func (f *fakeSerpAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.hits++
	f.queries = append(f.queries, r.URL.Query())
	f.paths = append(f.paths, r.URL.Path)

	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, f.body)
}

func (f *fakeSerpAPI) last() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

func (f *fakeSerpAPI) requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits
}

func newFakeClient(t *testing.T, fake *fakeSerpAPI, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := srv.Client()
	t.Cleanup(client.CloseIdleConnections)

	opts = append([]Option{WithHTTPClient(client), WithBaseURL(srv.URL)}, opts...)
	return NewClient("serp-key", opts...)
}

const flightsBody = `{
  "best_flights": [{
    "flights": [
      {"departure_airport": {"name": "Chennai International", "id": "MAA", "time": "2025-11-14 01:40"},
       "arrival_airport": {"name": "Dubai International", "id": "DXB", "time": "2025-11-14 04:25"},
       "airline": "Emirates", "flight_number": "EK 547", "travel_class": "Economy", "airplane": "Boeing 777",
       "legroom": "31 in"},
      {"departure_airport": {"id": "DXB", "time": "2025-11-14 07:45"},
       "arrival_airport": {"id": "CDG", "time": "2025-11-14 12:50"},
       "airline": "Emirates", "flight_number": "EK 73"}
    ],
    "total_duration": 785, "price": 612, "extensions": ["Wi-Fi for a fee"], "departure_token": "tok1"
  }],
  "other_flights": [
    {"flights": [{"departure_airport": {"id": "MAA", "time": "2025-11-14 22:10"},
                  "arrival_airport": {"id": "CDG", "time": "2025-11-15 06:30"}, "airline": "Air France"}],
     "total_duration": 0},
    {"flights": []}
  ],
  "price_insights": {"lowest_price": 580}
}`

func TestSearchFlightsRequestShape(t *testing.T) {
	fake := &fakeSerpAPI{body: flightsBody}
	c := newFakeClient(t, fake)

	res, err := c.SearchFlights(context.Background(), FlightQuery{
		Origin: "Chennai", Destination: "Paris", DepartureDate: "2025-11-14", ReturnDate: "2025-11-21", Adults: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q := fake.last()
	want := map[string]string{
		"engine": "google_flights", "departure_id": "MAA", "arrival_id": "CDG",
		"outbound_date": "2025-11-14", "return_date": "2025-11-21", "type": "1",
		"adults": "2", "currency": "USD", "hl": "en", "gl": "us", "api_key": "serp-key",
	}
	for k, v := range want {
		if got := q.Get(k); got != v {
			t.Errorf("expected %s=%q, got %q", k, v, got)
		}
	}
	if q.Has("children") {
		t.Error("expected children omitted when zero")
	}
	if fake.paths[0] != "/search.json" {
		t.Errorf("expected /search.json, got %s", fake.paths[0])
	}

	if len(res.BestFlights) != 1 {
		t.Fatalf("expected 1 best flight, got %d", len(res.BestFlights))
	}
	f := res.BestFlights[0]
	if f.Price != "$612" || f.Airline != "Emirates" || f.FlightNumber != "EK 547" {
		t.Errorf("unexpected flight %+v", f)
	}
	if f.DepartureTime != "01:40" || f.ArrivalTime != "04:25" || f.Duration != "13h 5m" || f.Stops != 1 {
		t.Errorf("unexpected timing %s-%s %s stops=%d", f.DepartureTime, f.ArrivalTime, f.Duration, f.Stops)
	}
	if f.Type != TypeBestFlight || f.BookingToken != "tok1" {
		t.Errorf("unexpected type/token %s %s", f.Type, f.BookingToken)
	}

	// the option without segments is dropped
	if len(res.OtherFlights) != 1 {
		t.Fatalf("expected 1 other flight, got %d", len(res.OtherFlights))
	}
	o := res.OtherFlights[0]
	if o.Price != "$N/A" || o.Duration != "N/A" || o.FlightNumber != "N/A" || o.Type != TypeOtherFlight {
		t.Errorf("unexpected other flight %+v", o)
	}
	if res.PriceInsights["lowest_price"] != float64(580) {
		t.Errorf("expected price insights, got %v", res.PriceInsights)
	}
}

func TestSearchFlightsOneWay(t *testing.T) {
	fake := &fakeSerpAPI{body: `{}`}
	c := newFakeClient(t, fake)

	res, err := c.SearchFlights(context.Background(), FlightQuery{
		Origin: "JFK", Destination: "London", DepartureDate: "2025-12-01", Children: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q := fake.last()
	if q.Get("type") != "2" || q.Has("return_date") || q.Has("adults") || q.Get("children") != "1" {
		t.Errorf("unexpected one-way query %v", q)
	}
	if res.BestFlights == nil || res.OtherFlights == nil {
		t.Error("expected empty, non-nil flight lists")
	}
}

func TestSearchFlightsUnknownAirport(t *testing.T) {
	fake := &fakeSerpAPI{body: `{}`}
	c := newFakeClient(t, fake)

	_, err := c.SearchFlights(context.Background(), FlightQuery{Origin: "Atlantis", Destination: "Paris"})
	if !errors.Is(err, ErrUnknownAirport) {
		t.Errorf("expected ErrUnknownAirport, got %v", err)
	}
	if fake.requests() != 0 {
		t.Errorf("expected no request, got %d", fake.requests())
	}
}

func TestSearchFlightsCapsResults(t *testing.T) {
	option := `{"flights":[{"airline":"X","departure_airport":{"id":"MAA"},"arrival_airport":{"id":"CDG"}}],"price":100}`
	options := strings.TrimSuffix(strings.Repeat(option+",", 12), ",")
	fake := &fakeSerpAPI{body: `{"best_flights":[` + options + `]}`}
	c := newFakeClient(t, fake)

	res, err := c.SearchFlights(context.Background(), FlightQuery{Origin: "MAA", Destination: "CDG", DepartureDate: "2025-11-14"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.BestFlights) != maxFlights {
		t.Errorf("expected %d flights, got %d", maxFlights, len(res.BestFlights))
	}
}

func TestSearchHotels(t *testing.T) {
	fake := &fakeSerpAPI{body: `{"properties":[
	  {"name":"Hotel Lutetia","hotel_class":"5-star hotel","extracted_hotel_class":5,
	   "rate_per_night":{"lowest":"$540"},"total_rate":{"lowest":1620},
	   "overall_rating":4.6,"reviews":2100,"amenities":["Spa","Pool"],
	   "gps_coordinates":{"latitude":48.85,"longitude":2.32},"check_in_time":"3:00 PM"},
	  {"name":"Plain Stay","rate_per_night":{},"total_rate":{"lowest":null}}
	]}`}
	c := newFakeClient(t, fake)

	res, err := c.SearchHotels(context.Background(), HotelQuery{
		Location: "Paris", CheckIn: "2025-11-14", CheckOut: "2025-11-17", Adults: 2, Children: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q := fake.last()
	if q.Get("engine") != "google_hotels" || q.Get("q") != "Paris" || q.Get("check_in_date") != "2025-11-14" ||
		q.Get("check_out_date") != "2025-11-17" || q.Get("adults") != "2" || q.Get("children") != "1" ||
		q.Get("currency") != "USD" {
		t.Errorf("unexpected hotel query %v", q)
	}

	if len(res.Hotels) != 2 {
		t.Fatalf("expected 2 hotels, got %d", len(res.Hotels))
	}
	h := res.Hotels[0]
	if h.RatePerNight != "$540" || h.TotalRate != "$1620" || h.Rating != 4.6 || h.ExtractedHotelClass != 5 {
		t.Errorf("unexpected hotel %+v", h)
	}
	if h.GPS == nil || h.GPS.Latitude != 48.85 {
		t.Errorf("expected coordinates, got %+v", h.GPS)
	}
	plain := res.Hotels[1]
	if plain.RatePerNight != "N/A" || plain.TotalRate != "N/A" || plain.Amenities == nil {
		t.Errorf("unexpected fallback hotel %+v", plain)
	}
}

func TestSearchEvents(t *testing.T) {
	fake := &fakeSerpAPI{body: `{"events_results":[
	  {"title":"Jazz Night","date":{"start_date":"Nov 15","when":"Sat, Nov 15, 8 PM"},
	   "venue":{"name":"New Morning"},"address":["7 Rue des Petites Écuries","Paris"],
	   "link":"https://example.com/jazz","ticket_info":[{"source":"Ticketmaster","link":"https://t.example","link_type":"tickets"}]},
	  {"title":"Mystery Event"}
	]}`}
	c := newFakeClient(t, fake)

	res, err := c.SearchEvents(context.Background(), EventQuery{Location: "Paris", StartDate: "2025-11-14"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q := fake.last()
	if q.Get("engine") != "google_events" || q.Get("q") != "Events in Paris" || q.Get("start_date") != "2025-11-14" || q.Has("end_date") {
		t.Errorf("unexpected event query %v", q)
	}
	if len(res.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(res.Events))
	}
	e := res.Events[0]
	if e.Date != "Nov 15" || e.Time != "Sat, Nov 15, 8 PM" || e.Venue != "New Morning" || len(e.Address) != 2 {
		t.Errorf("unexpected event %+v", e)
	}
	if len(e.Tickets) != 1 || e.Tickets[0].Source != "Ticketmaster" {
		t.Errorf("unexpected tickets %+v", e.Tickets)
	}
	if m := res.Events[1]; m.Date != "N/A" || m.Venue != "N/A" {
		t.Errorf("expected N/A placeholders, got %+v", m)
	}
}

func TestSearchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"nope"}`, ErrInvalidKey},
		{"invalid key in body", http.StatusOK, `{"error":"Invalid API key. Your API key should be here: https://serpapi.com/manage-api-key"}`, ErrInvalidKey},
		{"error field", http.StatusOK, `{"error":"Google hasn't returned any results for this query."}`, ErrSearchFailed},
		{"server error", http.StatusBadGateway, `upstream down`, ErrSearchFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newFakeClient(t, &fakeSerpAPI{status: tt.status, body: tt.body})
			_, err := c.SearchEvents(context.Background(), EventQuery{Location: "Paris"})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSearchErrorTruncatesBody(t *testing.T) {
	c := newFakeClient(t, &fakeSerpAPI{status: http.StatusInternalServerError, body: strings.Repeat("x", 2000)})
	_, err := c.SearchEvents(context.Background(), EventQuery{Location: "Paris"})
	if err == nil {
		t.Fatal("expected error")
	}
	if msg := err.Error(); len(msg) > maxErrorBody+100 || !strings.HasSuffix(msg, "...") {
		t.Errorf("expected truncated error, got %d bytes", len(msg))
	}
}

func TestSearchWithoutKey(t *testing.T) {
	fake := &fakeSerpAPI{body: `{}`}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL))
	if c.Configured() {
		t.Error("expected unconfigured client")
	}
	if _, err := c.SearchEvents(context.Background(), EventQuery{Location: "Paris"}); !errors.Is(err, ErrKeyMissing) {
		t.Errorf("expected ErrKeyMissing, got %v", err)
	}
	if fake.requests() != 0 {
		t.Errorf("expected no request, got %d", fake.requests())
	}
}

func TestSearchCache(t *testing.T) {
	fake := &fakeSerpAPI{body: `{"events_results":[{"title":"Jazz Night"}]}`}
	c := newFakeClient(t, fake, WithCache(time.Minute, 0))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		res, err := c.SearchEvents(ctx, EventQuery{Location: "Paris"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(res.Events) != 1 {
			t.Fatalf("expected cached event, got %+v", res.Events)
		}
	}
	if fake.requests() != 1 {
		t.Errorf("expected 1 upstream request, got %d", fake.requests())
	}

	if _, err := c.SearchEvents(ctx, EventQuery{Location: "Rome"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.requests() != 2 {
		t.Errorf("expected a different query to miss the cache, got %d requests", fake.requests())
	}

	for key := range c.cache.Items() {
		if strings.Contains(key, "serp-key") {
			t.Errorf("expected api key excluded from cache key %q", key)
		}
	}
}

func TestSearchErrorsAreNotCached(t *testing.T) {
	fake := &fakeSerpAPI{status: http.StatusBadGateway, body: `down`}
	c := newFakeClient(t, fake, WithCache(time.Minute, 0))

	for i := 0; i < 2; i++ {
		if _, err := c.SearchEvents(context.Background(), EventQuery{Location: "Paris"}); err == nil {
			t.Fatal("expected error")
		}
	}
	if fake.requests() != 2 {
		t.Errorf("expected errors to bypass the cache, got %d requests", fake.requests())
	}
}

func TestSearchHonoursContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	client := srv.Client()
	defer client.CloseIdleConnections()

	c := NewClient("serp-key", WithHTTPClient(client), WithBaseURL(srv.URL))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := c.SearchEvents(ctx, EventQuery{Location: "Paris"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
