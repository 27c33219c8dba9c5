package booking

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

const (
	maxFlights = 10
	maxHotels  = 15
	maxEvents  = 20

	notAvailable = "N/A"
)

// Result types.
const (
	TypeBestFlight  = "best_flight"
	TypeOtherFlight = "other_flight"
	TypeDemo        = "demo"
)

// FlightQuery is a Google Flights search.
type FlightQuery struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	ReturnDate    string `json:"return_date,omitempty"`
	Adults        int    `json:"adults"`
	Children      int    `json:"children,omitempty"`
}

// Flight is one itinerary option, described by its first segment.
type Flight struct {
	Price                string   `json:"price"`
	Airline              string   `json:"airline"`
	AirlineLogo          string   `json:"airline_logo,omitempty"`
	DepartureTime        string   `json:"departure_time"`
	ArrivalTime          string   `json:"arrival_time"`
	DepartureAirport     string   `json:"departure_airport,omitempty"`
	ArrivalAirport       string   `json:"arrival_airport,omitempty"`
	DepartureAirportName string   `json:"departure_airport_name,omitempty"`
	ArrivalAirportName   string   `json:"arrival_airport_name,omitempty"`
	Duration             string   `json:"duration"`
	Stops                int      `json:"stops"`
	FlightNumber         string   `json:"flight_number"`
	TravelClass          string   `json:"travel_class,omitempty"`
	Airplane             string   `json:"airplane,omitempty"`
	Legroom              string   `json:"legroom,omitempty"`
	Extensions           []string `json:"extensions,omitempty"`
	Type                 string   `json:"type"`
	BookingToken         string   `json:"booking_token,omitempty"`
}

// FlightResults is the outcome of a flight search.
type FlightResults struct {
	Query         FlightQuery    `json:"search_params"`
	BestFlights   []Flight       `json:"best_flights"`
	OtherFlights  []Flight       `json:"other_flights"`
	PriceInsights map[string]any `json:"price_insights,omitempty"`
	Demo          bool           `json:"demo_mode"`
	Notice        string         `json:"notice,omitempty"`
}

// HotelQuery is a Google Hotels search.
type HotelQuery struct {
	Location string `json:"location"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Adults   int    `json:"adults"`
	Children int    `json:"children,omitempty"`
	Currency string `json:"currency"`
}

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Hotel is one property.
type Hotel struct {
	Name                string       `json:"name"`
	HotelClass          string       `json:"hotel_class,omitempty"`
	ExtractedHotelClass int          `json:"extracted_hotel_class,omitempty"`
	RatePerNight        string       `json:"rate_per_night"`
	TotalRate           string       `json:"total_rate"`
	Rating              float64      `json:"rating"`
	Reviews             int          `json:"reviews"`
	Amenities           []string     `json:"amenities"`
	Description         string       `json:"description,omitempty"`
	Link                string       `json:"link,omitempty"`
	GPS                 *Coordinates `json:"gps_coordinates,omitempty"`
	CheckInTime         string       `json:"check_in_time,omitempty"`
	CheckOutTime        string       `json:"check_out_time,omitempty"`
	Type                string       `json:"type,omitempty"`
}

// HotelResults is the outcome of a hotel search.
type HotelResults struct {
	Query  HotelQuery `json:"search_params"`
	Hotels []Hotel    `json:"hotels"`
	Demo   bool       `json:"demo_mode"`
	Notice string     `json:"notice,omitempty"`
}

// EventQuery is a Google Events search.
type EventQuery struct {
	Location  string `json:"location"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// Ticket is a place to buy tickets for an event.
type Ticket struct {
	Source   string `json:"source"`
	Link     string `json:"link"`
	LinkType string `json:"link_type,omitempty"`
}

// Event is one local event.
type Event struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	Venue       string   `json:"venue"`
	Address     []string `json:"address,omitempty"`
	Link        string   `json:"link,omitempty"`
	Thumbnail   string   `json:"thumbnail,omitempty"`
	Tickets     []Ticket `json:"ticket_info,omitempty"`
	Type        string   `json:"type,omitempty"`
}

// EventResults is the outcome of an event search.
type EventResults struct {
	Query  EventQuery `json:"search_params"`
	Events []Event    `json:"events"`
	Demo   bool       `json:"demo_mode"`
	Notice string     `json:"notice,omitempty"`
}

// SearchFlights queries Google Flights. Origin and destination may be city
// names; they are resolved with AirportCode first.
func (c *Client) SearchFlights(ctx context.Context, q FlightQuery) (FlightResults, error) {
	originCode, _, err := AirportCode(q.Origin)
	if err != nil {
		return FlightResults{}, fmt.Errorf("origin: %w", err)
	}
	destCode, _, err := AirportCode(q.Destination)
	if err != nil {
		return FlightResults{}, fmt.Errorf("destination: %w", err)
	}

	params := url.Values{}
	params.Set("engine", "google_flights")
	params.Set("departure_id", originCode)
	params.Set("arrival_id", destCode)
	params.Set("outbound_date", q.DepartureDate)
	params.Set("currency", "USD")
	if q.Adults > 0 {
		params.Set("adults", strconv.Itoa(q.Adults))
	}
	if q.Children > 0 {
		params.Set("children", strconv.Itoa(q.Children))
	}
	if q.ReturnDate != "" {
		params.Set("return_date", q.ReturnDate)
		params.Set("type", "1")
	} else {
		params.Set("type", "2")
	}

	var raw struct {
		BestFlights   []rawFlightOption `json:"best_flights"`
		OtherFlights  []rawFlightOption `json:"other_flights"`
		PriceInsights map[string]any    `json:"price_insights"`
	}
	if err := c.search(ctx, params, &raw); err != nil {
		return FlightResults{}, err
	}

	return FlightResults{
		Query:         q,
		BestFlights:   normalizeFlights(raw.BestFlights, TypeBestFlight, originCode, destCode),
		OtherFlights:  normalizeFlights(raw.OtherFlights, TypeOtherFlight, originCode, destCode),
		PriceInsights: raw.PriceInsights,
	}, nil
}

// SearchHotels queries Google Hotels.
func (c *Client) SearchHotels(ctx context.Context, q HotelQuery) (HotelResults, error) {
	if q.Currency == "" {
		q.Currency = "USD"
	}
	params := url.Values{}
	params.Set("engine", "google_hotels")
	params.Set("q", q.Location)
	params.Set("check_in_date", q.CheckIn)
	params.Set("check_out_date", q.CheckOut)
	params.Set("adults", strconv.Itoa(q.Adults))
	params.Set("currency", q.Currency)
	if q.Children > 0 {
		params.Set("children", strconv.Itoa(q.Children))
	}

	var raw struct {
		Properties []rawHotel `json:"properties"`
	}
	if err := c.search(ctx, params, &raw); err != nil {
		return HotelResults{}, err
	}

	props := raw.Properties
	if len(props) > maxHotels {
		props = props[:maxHotels]
	}
	return HotelResults{Query: q, Hotels: lo.Map(props, func(h rawHotel, _ int) Hotel { return h.normalize() })}, nil
}

// SearchEvents queries Google Events.
func (c *Client) SearchEvents(ctx context.Context, q EventQuery) (EventResults, error) {
	params := url.Values{}
	params.Set("engine", "google_events")
	params.Set("q", "Events in "+q.Location)
	if q.StartDate != "" {
		params.Set("start_date", q.StartDate)
	}
	if q.EndDate != "" {
		params.Set("end_date", q.EndDate)
	}

	var raw struct {
		Events []rawEvent `json:"events_results"`
	}
	if err := c.search(ctx, params, &raw); err != nil {
		return EventResults{}, err
	}

	events := raw.Events
	if len(events) > maxEvents {
		events = events[:maxEvents]
	}
	return EventResults{Query: q, Events: lo.Map(events, func(e rawEvent, _ int) Event { return e.normalize() })}, nil
}

type rawAirport struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Time string `json:"time"`
}

type rawSegment struct {
	DepartureAirport rawAirport `json:"departure_airport"`
	ArrivalAirport   rawAirport `json:"arrival_airport"`
	Airline          string     `json:"airline"`
	AirlineLogo      string     `json:"airline_logo"`
	FlightNumber     string     `json:"flight_number"`
	TravelClass      string     `json:"travel_class"`
	Airplane         string     `json:"airplane"`
	Legroom          string     `json:"legroom"`
}

type rawFlightOption struct {
	Flights        []rawSegment `json:"flights"`
	TotalDuration  int          `json:"total_duration"`
	Price          *float64     `json:"price"`
	Extensions     []string     `json:"extensions"`
	DepartureToken string       `json:"departure_token"`
}

func normalizeFlights(options []rawFlightOption, kind, origin, dest string) []Flight {
	options = lo.Filter(options, func(o rawFlightOption, _ int) bool { return len(o.Flights) > 0 })
	if len(options) > maxFlights {
		options = options[:maxFlights]
	}
	return lo.Map(options, func(o rawFlightOption, _ int) Flight {
		first := o.Flights[0]
		return Flight{
			Price:                formatPrice(o.Price),
			Airline:              orNA(first.Airline),
			AirlineLogo:          first.AirlineLogo,
			DepartureTime:        clockTime(first.DepartureAirport.Time),
			ArrivalTime:          clockTime(first.ArrivalAirport.Time),
			DepartureAirport:     lo.Ternary(first.DepartureAirport.ID != "", first.DepartureAirport.ID, origin),
			ArrivalAirport:       lo.Ternary(first.ArrivalAirport.ID != "", first.ArrivalAirport.ID, dest),
			DepartureAirportName: orNA(first.DepartureAirport.Name),
			ArrivalAirportName:   orNA(first.ArrivalAirport.Name),
			Duration:             formatDuration(o.TotalDuration),
			Stops:                len(o.Flights) - 1,
			FlightNumber:         orNA(first.FlightNumber),
			TravelClass:          lo.Ternary(first.TravelClass != "", first.TravelClass, "Economy"),
			Airplane:             orNA(first.Airplane),
			Legroom:              orNA(first.Legroom),
			Extensions:           o.Extensions,
			Type:                 kind,
			BookingToken:         o.DepartureToken,
		}
	})
}

type rawRate struct {
	Lowest any `json:"lowest"`
}

type rawHotel struct {
	Name                string       `json:"name"`
	HotelClass          string       `json:"hotel_class"`
	ExtractedHotelClass int          `json:"extracted_hotel_class"`
	RatePerNight        rawRate      `json:"rate_per_night"`
	TotalRate           rawRate      `json:"total_rate"`
	OverallRating       float64      `json:"overall_rating"`
	Reviews             int          `json:"reviews"`
	Amenities           []string     `json:"amenities"`
	Description         string       `json:"description"`
	Link                string       `json:"link"`
	GPS                 *Coordinates `json:"gps_coordinates"`
	CheckInTime         string       `json:"check_in_time"`
	CheckOutTime        string       `json:"check_out_time"`
}

func (h rawHotel) normalize() Hotel {
	amenities := h.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return Hotel{
		Name:                orNA(h.Name),
		HotelClass:          h.HotelClass,
		ExtractedHotelClass: h.ExtractedHotelClass,
		RatePerNight:        formatRate(h.RatePerNight.Lowest),
		TotalRate:           formatRate(h.TotalRate.Lowest),
		Rating:              h.OverallRating,
		Reviews:             h.Reviews,
		Amenities:           amenities,
		Description:         h.Description,
		Link:                h.Link,
		GPS:                 h.GPS,
		CheckInTime:         h.CheckInTime,
		CheckOutTime:        h.CheckOutTime,
	}
}

type rawEvent struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        struct {
		StartDate string `json:"start_date"`
		When      string `json:"when"`
	} `json:"date"`
	Venue struct {
		Name string `json:"name"`
	} `json:"venue"`
	Address    []string `json:"address"`
	Link       string   `json:"link"`
	Thumbnail  string   `json:"thumbnail"`
	TicketInfo []Ticket `json:"ticket_info"`
}

func (e rawEvent) normalize() Event {
	return Event{
		Title:       orNA(e.Title),
		Description: e.Description,
		Date:        orNA(e.Date.StartDate),
		Time:        orNA(e.Date.When),
		Venue:       orNA(e.Venue.Name),
		Address:     e.Address,
		Link:        e.Link,
		Thumbnail:   e.Thumbnail,
		Tickets:     e.TicketInfo,
	}
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

// clockTime keeps the time part of "2025-11-15 10:05".
func clockTime(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return notAvailable
	}
	return fields[len(fields)-1]
}

func formatDuration(minutes int) string {
	if minutes <= 0 {
		return notAvailable
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func formatPrice(p *float64) string {
	if p == nil {
		return "$" + notAvailable
	}
	return "$" + strconv.FormatFloat(*p, 'f', -1, 64)
}

// formatRate accepts SerpAPI's "$120" strings as well as bare numbers.
func formatRate(v any) string {
	switch r := v.(type) {
	case string:
		if r == "" {
			return notAvailable
		}
		return r
	case float64:
		return "$" + strconv.FormatFloat(r, 'f', -1, 64)
	default:
		return notAvailable
	}
}
