package tools

import (
	"sort"

	"github.com/richinex/tripsense/llm"
	"github.com/samber/lo"
)

// AccommodationFilters are the values accepted by get_hotels.
var AccommodationFilters = []string{
	"Any", "Hotels", "Hostels", "Vacation Rentals", "Resorts", "Boutique Properties",
}

// DefaultAttractionTypes are searched when included_types is not given.
var DefaultAttractionTypes = []string{
	"tourist_attraction", "museum", "park", "art_gallery", "shopping_mall",
}

func coordinateProperties() map[string]*llm.Schema {
	return map[string]*llm.Schema{
		"lat":         {Type: llm.TypeNumber, Description: "Latitude in decimal degrees."},
		"lng":         {Type: llm.TypeNumber, Description: "Longitude in decimal degrees."},
		"radius_m":    {Type: llm.TypeInteger, Description: "Search radius in meters (typ. 2000–15000)."},
		"max_results": {Type: llm.TypeInteger, Description: "Max results (<=20)."},
		"min_rating":  {Type: llm.TypeNumber, Description: "Optional minimum rating filter (0.0–5.0)."},
	}
}

func searchTextDeclaration() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        KindSearchText.String(),
		Description: "Resolve a free-text place (e.g., 'Paris', 'Bangalore MG Road') to one or more matching Places with coordinates.",
		Parameters: &llm.Schema{
			Type: llm.TypeObject,
			Properties: map[string]*llm.Schema{
				"query":       {Type: llm.TypeString, Description: "Free text query for a place, landmark, city, or area."},
				"max_results": {Type: llm.TypeInteger, Description: "Maximum results to return (1-5)."},
			},
			Required: []string{"query"},
		},
	}
}

func nearbyAttractionsDeclaration() llm.ToolDefinition {
	props := coordinateProperties()
	props["included_types"] = &llm.Schema{
		Type:        llm.TypeArray,
		Items:       &llm.Schema{Type: llm.TypeString},
		Description: "Override place types. Default: ['tourist_attraction','museum','park','art_gallery','shopping_mall']",
	}
	return llm.ToolDefinition{
		Name:        KindNearbyAttractions.String(),
		Description: "Find nearby attractions/sights around a location.",
		Parameters: &llm.Schema{
			Type:       llm.TypeObject,
			Properties: props,
			Required:   []string{"lat", "lng", "radius_m"},
		},
	}
}

func nearbyRestaurantsDeclaration() llm.ToolDefinition {
	props := coordinateProperties()
	props["vegetarian_only"] = &llm.Schema{
		Type:        llm.TypeBoolean,
		Description: "If true, bias toward vegetarian-friendly results.",
	}
	return llm.ToolDefinition{
		Name:        KindNearbyRestaurants.String(),
		Description: "Find nearby restaurants around a location.",
		Parameters: &llm.Schema{
			Type:       llm.TypeObject,
			Properties: props,
			Required:   []string{"lat", "lng", "radius_m"},
		},
	}
}

func hotelsDeclaration() llm.ToolDefinition {
	props := coordinateProperties()
	props["accommodation_filter"] = &llm.Schema{
		Type:        llm.TypeString,
		Description: "Type of accommodation to search for.",
		Enum:        AccommodationFilters,
	}
	return llm.ToolDefinition{
		Name:        KindHotels.String(),
		Description: "Find nearby lodging (hotels/hostels/resorts/boutique).",
		Parameters: &llm.Schema{
			Type:       llm.TypeObject,
			Properties: props,
			Required:   []string{"lat", "lng", "radius_m"},
		},
	}
}

func weatherDeclaration() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        KindWeather.String(),
		Description: "Get daily weather forecast (1-15 days) for a location using Google Weather API.",
		Parameters: &llm.Schema{
			Type: llm.TypeObject,
			Properties: map[string]*llm.Schema{
				"lat":  {Type: llm.TypeNumber, Description: "Latitude in decimal degrees."},
				"lng":  {Type: llm.TypeNumber, Description: "Longitude in decimal degrees."},
				"days": {Type: llm.TypeInteger, Description: "Days of forecast, 1-15."},
				"unit_system": {
					Type:        llm.TypeString,
					Description: "Units for temperature/wind. METRIC uses Celsius and m/s, IMPERIAL uses Fahrenheit and mph.",
					Enum:        []string{UnitsMetric, UnitsImperial},
				},
			},
			Required: []string{"lat", "lng"},
		},
	}
}

func saveTripDeclaration() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        KindSaveTrip.String(),
		Description: "Save the current trip itinerary for the user.",
		Parameters: &llm.Schema{
			Type: llm.TypeObject,
			Properties: map[string]*llm.Schema{
				"trip_name":    {Type: llm.TypeString, Description: "A name for the trip (e.g., 'Paris Adventure 2024')"},
				"trip_summary": {Type: llm.TypeString, Description: "A brief summary of the trip itinerary"},
			},
			Required: []string{"trip_name"},
		},
	}
}

func sortedKeys(m map[string]*llm.Schema) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
