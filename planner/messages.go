package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/richinex/tripsense/model"
	"github.com/richinex/tripsense/tools"
)

// Fixed replies for degraded paths. These never reach the model.
const (
	planFallback = "I'm ready to help you plan your trip! Please provide more details about your destination and preferences."
	chatFallback = "I'm here to help with your trip planning. What would you like to know?"

	planFailure = "I apologize, but I encountered an error while generating your trip plan. Please try again or contact support if the issue persists."
	chatFailure = "I apologize, but I encountered an error while processing your request. Please try again."

	followUpFallback = "I've gathered information about your request and am ready to help!"
	followUpFailure  = "I found some information but encountered an issue. Here's what I found:\n\n"

	savedPrefix  = "✅ "
	failedPrefix = "❌ "
)

// friendlyToolError replaces provider error text with a sentence safe to show
// the model and, through it, the user.
func friendlyToolError(r tools.Result) string {
	switch {
	case errors.Is(r.Cause, tools.ErrPlacesDisabled):
		return "Location search is currently unavailable. I can still help you plan your trip with general recommendations!"
	case errors.Is(r.Cause, tools.ErrMapsKeyMissing):
		return "Location services are not configured. I'll provide general travel recommendations instead."
	default:
		return fmt.Sprintf("I encountered an issue with %s, but I can still help you plan your trip!",
			strings.ReplaceAll(r.Name, "_", " "))
	}
}

// summarize describes a batch of tool results in one or two plain sentences.
func summarize(results []tools.Result) string {
	var parts []string
	for _, r := range results {
		if !r.OK() {
			switch {
			case errors.Is(r.Cause, tools.ErrPlacesDisabled):
				parts = append(parts, "Location search is temporarily unavailable, but I can still provide general recommendations.")
			case errors.Is(r.Cause, tools.ErrMapsKeyMissing):
				parts = append(parts, "I'm working with general travel knowledge since location services aren't configured.")
			default:
				parts = append(parts, "I encountered a technical issue but can still help with your travel planning.")
			}
			continue
		}

		kind, _ := tools.ParseKind(r.Name)
		switch kind {
		case tools.KindSearchText:
			if n := countOf(r.Output); n > 0 {
				parts = append(parts, fmt.Sprintf("Found %d location(s) for your search.", n))
			} else {
				parts = append(parts, "I searched for locations but didn't find specific results.")
			}
		case tools.KindNearbyAttractions, tools.KindNearbyRestaurants, tools.KindHotels:
			if n := countOf(r.Output); n > 0 {
				noun := strings.ReplaceAll(strings.TrimPrefix(strings.TrimPrefix(r.Name, "get_nearby_"), "get_"), "_", " ")
				parts = append(parts, fmt.Sprintf("Found %d %s in the area.", n, noun))
			} else {
				parts = append(parts, "I searched for nearby options but didn't find specific results.")
			}
		case tools.KindWeather:
			if forecast, ok := r.Output.(map[string]any); ok && len(forecast) > 0 {
				parts = append(parts, "I've checked the weather forecast for your trip dates.")
			} else {
				parts = append(parts, "I tried to get weather information but couldn't retrieve it.")
			}
		}
	}

	if len(parts) == 0 {
		return "I've processed your request with the available information."
	}
	return strings.Join(parts, " ")
}

func countOf(v any) int {
	switch items := v.(type) {
	case []model.Place:
		return len(items)
	case []any:
		return len(items)
	default:
		return 0
	}
}
