package booking

import (
	"strings"

	"github.com/richinex/tripsense/model"
)

// DefaultDuration is used when a trip does not record its length in days.
const DefaultDuration = 5

type rates struct {
	flight, hotel, activity, transport float64
}

var (
	lowRates    = rates{flight: 200, hotel: 50, activity: 30, transport: 20}
	mediumRates = rates{flight: 400, hotel: 100, activity: 60, transport: 40}
	highRates   = rates{flight: 800, hotel: 250, activity: 150, transport: 80}
)

// budgetRates accepts both the form's tier labels and the short names.
var budgetRates = map[string]rates{
	"budget":        lowRates,
	"low budget":    lowRates,
	"medium budget": mediumRates,
	"luxury":        highRates,
	"high budget":   highRates,
}

// tierRates strips a trailing "(...)" description before the lookup.
func tierRates(budget string) rates {
	label := strings.ToLower(budget)
	if i := strings.Index(label, "("); i >= 0 {
		label = label[:i]
	}
	if r, ok := budgetRates[strings.TrimSpace(label)]; ok {
		return r
	}
	return mediumRates
}

// Estimate is a rough trip cost in USD.
type Estimate struct {
	Budget     string  `json:"budget"`
	Duration   int     `json:"duration"`
	GroupSize  int     `json:"group_size"`
	Flights    float64 `json:"flights"`
	Hotels     float64 `json:"hotels"`
	Activities float64 `json:"activities"`
	Transport  float64 `json:"transport"`
	Total      float64 `json:"total"`
}

// EstimateCost prices a trip from its budget tier. Flights are per person;
// everything else is per person per day. Unknown tiers price as medium.
func EstimateCost(form model.TripForm) Estimate {
	r := tierRates(form.Budget)
	days := form.Duration
	if days <= 0 {
		days = DefaultDuration
	}
	group := groupSize(form)

	e := Estimate{
		Budget:     form.Budget,
		Duration:   days,
		GroupSize:  group,
		Flights:    r.flight * float64(group),
		Hotels:     r.hotel * float64(days*group),
		Activities: r.activity * float64(days*group),
		Transport:  r.transport * float64(days*group),
	}
	e.Total = e.Flights + e.Hotels + e.Activities + e.Transport
	return e
}
