package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/richinex/tripsense/model"
)

const (
	// DefaultGroupSize is used when a trip does not record its group size.
	DefaultGroupSize = 2

	demoNotice    = "SerpAPI not configured. Showing demo data. Add SERPAPI_API_KEY to .env for real data."
	failedNotice  = "Live search is unavailable right now. Showing demo data."
	invalidNotice = "SerpAPI rejected the configured key. Showing demo data."
)

// ErrIncompleteTrip is returned when a saved trip lacks a field a search needs.
var ErrIncompleteTrip = errors.New("trip is missing required details")

// Finder runs bookings searches for saved trips. It falls back to demo results
// when no key is configured or the live search fails.
type Finder struct {
	client   *Client
	currency string
	logger   *slog.Logger
}

// NewFinder creates a Finder. A nil client always serves demo results.
func NewFinder(client *Client, currency string, logger *slog.Logger) *Finder {
	if logger == nil {
		logger = slog.Default()
	}
	if currency == "" {
		currency = "USD"
	}
	return &Finder{client: client, currency: currency, logger: logger}
}

// Live reports whether searches go to SerpAPI.
func (f *Finder) Live() bool {
	return f.client.Configured()
}

// Flights searches flights from the trip's origin to its destination.
func (f *Finder) Flights(ctx context.Context, form model.TripForm) (FlightResults, error) {
	if err := require(map[string]string{
		"origin":      form.Origin,
		"destination": form.Destination,
		"start date":  form.StartDate,
	}); err != nil {
		return FlightResults{}, err
	}

	origin, _, err := AirportCode(form.Origin)
	if err != nil {
		return FlightResults{}, fmt.Errorf("origin: %w", err)
	}
	dest, _, err := AirportCode(form.Destination)
	if err != nil {
		return FlightResults{}, fmt.Errorf("destination: %w", err)
	}

	q := FlightQuery{
		Origin:        form.Origin,
		Destination:   form.Destination,
		DepartureDate: form.StartDate,
		ReturnDate:    form.EndDate,
		Adults:        groupSize(form),
	}
	if !f.Live() {
		return withNotice(demoFlights(q, origin, dest), demoNotice), nil
	}

	res, err := f.client.SearchFlights(ctx, q)
	if err != nil {
		if ctx.Err() != nil {
			return FlightResults{}, ctx.Err()
		}
		f.logger.Warn("flight search failed, serving demo results", "origin", origin, "destination", dest, "error", err)
		return withNotice(demoFlights(q, origin, dest), noticeFor(err)), nil
	}
	return res, nil
}

// Hotels searches hotels at the destination for the trip's dates.
func (f *Finder) Hotels(ctx context.Context, form model.TripForm) (HotelResults, error) {
	if err := require(map[string]string{
		"destination": form.Destination,
		"start date":  form.StartDate,
		"end date":    form.EndDate,
	}); err != nil {
		return HotelResults{}, err
	}

	q := HotelQuery{
		Location: form.Destination,
		CheckIn:  form.StartDate,
		CheckOut: form.EndDate,
		Adults:   groupSize(form),
		Currency: f.currency,
	}
	if !f.Live() {
		res := demoHotels(q)
		res.Notice = demoNotice
		return res, nil
	}

	res, err := f.client.SearchHotels(ctx, q)
	if err != nil {
		if ctx.Err() != nil {
			return HotelResults{}, ctx.Err()
		}
		f.logger.Warn("hotel search failed, serving demo results", "location", q.Location, "error", err)
		res = demoHotels(q)
		res.Notice = noticeFor(err)
		return res, nil
	}
	return res, nil
}

// Events searches events at the destination, bounded by the trip's dates
// when it has them.
func (f *Finder) Events(ctx context.Context, form model.TripForm) (EventResults, error) {
	if err := require(map[string]string{"destination": form.Destination}); err != nil {
		return EventResults{}, err
	}

	q := EventQuery{Location: form.Destination, StartDate: form.StartDate, EndDate: form.EndDate}
	if !f.Live() {
		res := demoEvents(q)
		res.Notice = demoNotice
		return res, nil
	}

	res, err := f.client.SearchEvents(ctx, q)
	if err != nil {
		if ctx.Err() != nil {
			return EventResults{}, ctx.Err()
		}
		f.logger.Warn("event search failed, serving demo results", "location", q.Location, "error", err)
		res = demoEvents(q)
		res.Notice = noticeFor(err)
		return res, nil
	}
	return res, nil
}

func withNotice(res FlightResults, notice string) FlightResults {
	res.Notice = notice
	return res
}

func noticeFor(err error) string {
	if errors.Is(err, ErrInvalidKey) {
		return invalidNotice
	}
	return failedNotice
}

func groupSize(form model.TripForm) int {
	if form.GroupSize > 0 {
		return form.GroupSize
	}
	return DefaultGroupSize
}

// require reports the missing fields in a stable order.
func require(fields map[string]string) error {
	var missing []string
	for _, name := range []string{"origin", "destination", "start date", "end date"} {
		v, ok := fields[name]
		if ok && strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrIncompleteTrip, strings.Join(missing, ", "))
	}
	return nil
}
