// Booking searches for saved trips.
//
// Information Hiding:
// - Which searches run for a selection hidden
// - Result formatting hidden

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/richinex/tripsense/booking"
)

// BookSelection picks the searches run by BookTrip. An empty selection runs
// all of them.
type BookSelection struct {
	Flights bool
	Hotels  bool
	Events  bool
}

func (s BookSelection) all() bool {
	return !s.Flights && !s.Hotels && !s.Events
}

// BookTrip searches bookings for a saved trip and prints them with a cost
// estimate. A search that cannot run for this trip is reported and skipped.
func BookTrip(ctx context.Context, app *App, tripID string, sel BookSelection, out io.Writer) error {
	rec, err := app.Store.Load(ctx, app.Settings.UserID, tripID)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("trip %s not found", tripID)
	}
	form := rec.Data.Form

	fmt.Fprintf(out, "Bookings for %s (%s)\n%s\n\n", rec.Data.TripName, rec.TripID, describeForm(form))

	if sel.all() || sel.Flights {
		res, err := app.Booking.Flights(ctx, form)
		if err != nil {
			if ferr := skippable(out, "Flights", err); ferr != nil {
				return ferr
			}
		} else {
			printFlights(out, res)
		}
	}
	if sel.all() || sel.Hotels {
		res, err := app.Booking.Hotels(ctx, form)
		if err != nil {
			if ferr := skippable(out, "Hotels", err); ferr != nil {
				return ferr
			}
		} else {
			printHotels(out, res)
		}
	}
	if sel.all() || sel.Events {
		res, err := app.Booking.Events(ctx, form)
		if err != nil {
			if ferr := skippable(out, "Events", err); ferr != nil {
				return ferr
			}
		} else {
			printEvents(out, res)
		}
	}
	if sel.all() {
		printEstimate(out, booking.EstimateCost(form))
	}
	return nil
}

// skippable prints errors caused by the trip's own details and returns the rest.
func skippable(out io.Writer, section string, err error) error {
	switch {
	case errors.Is(err, booking.ErrIncompleteTrip):
		fmt.Fprintf(out, "%s: skipped, %v\n\n", section, err)
		return nil
	case errors.Is(err, booking.ErrUnknownAirport):
		fmt.Fprintf(out, "%s: skipped, %v. Try a major city name or a 3-letter airport code.\n\n", section, err)
		return nil
	default:
		return fmt.Errorf("%s search: %w", strings.ToLower(section), err)
	}
}

func printNotice(out io.Writer, notice string) {
	if notice != "" {
		fmt.Fprintf(out, "  (%s)\n", notice)
	}
}

func printFlights(out io.Writer, res booking.FlightResults) {
	fmt.Fprintf(out, "Flights %s -> %s on %s\n", flightEnd(res.Query.Origin), flightEnd(res.Query.Destination), res.Query.DepartureDate)
	printNotice(out, res.Notice)
	flights := append(append([]booking.Flight{}, res.BestFlights...), res.OtherFlights...)
	if len(flights) == 0 {
		fmt.Fprintf(out, "  No flights found.\n\n")
		return
	}
	for _, f := range flights {
		stops := "nonstop"
		if f.Stops == 1 {
			stops = "1 stop"
		} else if f.Stops > 1 {
			stops = fmt.Sprintf("%d stops", f.Stops)
		}
		fmt.Fprintf(out, "  %-7s %-18s %s %s-%s %s  %s  %s->%s\n",
			f.Price, f.Airline, f.FlightNumber, f.DepartureTime, f.ArrivalTime, f.Duration, stops,
			f.DepartureAirport, f.ArrivalAirport)
	}
	fmt.Fprintln(out)
}

func flightEnd(location string) string {
	code, name, err := booking.AirportCode(location)
	if err != nil {
		return location
	}
	return booking.DisplayLocation(code, name)
}

func printHotels(out io.Writer, res booking.HotelResults) {
	fmt.Fprintf(out, "Hotels in %s, %s to %s\n", res.Query.Location, res.Query.CheckIn, res.Query.CheckOut)
	printNotice(out, res.Notice)
	if len(res.Hotels) == 0 {
		fmt.Fprintf(out, "  No hotels found.\n\n")
		return
	}
	for _, h := range res.Hotels {
		fmt.Fprintf(out, "  %-28s %s/night (%s total)  %.1f★ (%d reviews)\n",
			h.Name, h.RatePerNight, h.TotalRate, h.Rating, h.Reviews)
	}
	fmt.Fprintln(out)
}

func printEvents(out io.Writer, res booking.EventResults) {
	fmt.Fprintf(out, "Events in %s\n", res.Query.Location)
	printNotice(out, res.Notice)
	if len(res.Events) == 0 {
		fmt.Fprintf(out, "  No events found.\n\n")
		return
	}
	for _, e := range res.Events {
		fmt.Fprintf(out, "  %s  %-26s %s, %s\n", e.Date, e.Title, e.Time, e.Venue)
	}
	fmt.Fprintln(out)
}

func printEstimate(out io.Writer, e booking.Estimate) {
	fmt.Fprintf(out, "Estimated cost (%d days, %d travellers)\n", e.Duration, e.GroupSize)
	fmt.Fprintf(out, "  Flights:    $%.0f\n", e.Flights)
	fmt.Fprintf(out, "  Hotels:     $%.0f\n", e.Hotels)
	fmt.Fprintf(out, "  Activities: $%.0f\n", e.Activities)
	fmt.Fprintf(out, "  Transport:  $%.0f\n", e.Transport)
	fmt.Fprintf(out, "  Total:      $%.0f\n", e.Total)
}
