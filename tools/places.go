// Place search tools backed by the Places API (New).
//
// Information Hiding:
// - Argument defaults and clamping hidden
// - Accommodation filter to place type mapping hidden

package tools

import (
	"context"

	"github.com/richinex/tripsense/llm"
	"github.com/richinex/tripsense/model"
	"github.com/richinex/tripsense/session"
	"github.com/samber/lo"
)

const (
	defaultTextResults   = 3
	maxTextResults       = 5
	defaultNearbyResults = 20
	maxNearbyResults     = 20
	defaultRadiusM       = 1000
)

var hotelTypes = map[string][]string{
	"Any":                 {"lodging"},
	"Hotels":              {"lodging", "hotel"},
	"Hostels":             {"lodging", "hostel"},
	"Vacation Rentals":    {"lodging", "vacation_rental"},
	"Resorts":             {"lodging", "resort"},
	"Boutique Properties": {"lodging", "boutique_hotel"},
}

// SearchTextTool resolves free text to places.
type SearchTextTool struct {
	maps *MapsClient
}

// NewSearchTextTool creates the search_text tool.
func NewSearchTextTool(maps *MapsClient) *SearchTextTool {
	return &SearchTextTool{maps: maps}
}

func (t *SearchTextTool) Kind() Kind                      { return KindSearchText }
func (t *SearchTextTool) Declaration() llm.ToolDefinition { return searchTextDeclaration() }

// Execute runs the text search. Zero matches is an empty list, not an error.
func (t *SearchTextTool) Execute(ctx context.Context, _ *session.Session, args Args) (any, error) {
	limit := lo.Clamp(args.Int("max_results", defaultTextResults), 1, maxTextResults)
	places, err := t.maps.SearchText(ctx, args.String("query", ""), limit)
	if err != nil {
		return nil, err
	}
	return nonNil(places), nil
}

// nearbyRequest reads the coordinate arguments shared by the nearby tools.
func nearbyRequest(args Args, types []string) NearbyRequest {
	req := NearbyRequest{
		Lat:           args.Float("lat", 0),
		Lng:           args.Float("lng", 0),
		RadiusM:       args.Int("radius_m", defaultRadiusM),
		IncludedTypes: types,
		MaxResults:    lo.Clamp(args.Int("max_results", defaultNearbyResults), 1, maxNearbyResults),
	}
	if req.RadiusM <= 0 {
		req.RadiusM = defaultRadiusM
	}
	if rating, ok := args.OptionalFloat("min_rating"); ok {
		req.MinRating = &rating
	}
	return req
}

// NearbyAttractionsTool finds sights around a point.
type NearbyAttractionsTool struct {
	maps *MapsClient
}

// NewNearbyAttractionsTool creates the get_nearby_attractions tool.
func NewNearbyAttractionsTool(maps *MapsClient) *NearbyAttractionsTool {
	return &NearbyAttractionsTool{maps: maps}
}

func (t *NearbyAttractionsTool) Kind() Kind { return KindNearbyAttractions }
func (t *NearbyAttractionsTool) Declaration() llm.ToolDefinition {
	return nearbyAttractionsDeclaration()
}

func (t *NearbyAttractionsTool) Execute(ctx context.Context, _ *session.Session, args Args) (any, error) {
	types := args.Strings("included_types")
	if len(types) == 0 {
		types = DefaultAttractionTypes
	}
	places, err := t.maps.SearchNearby(ctx, nearbyRequest(args, types))
	if err != nil {
		return nil, err
	}
	return nonNil(places), nil
}

// NearbyRestaurantsTool finds restaurants around a point.
type NearbyRestaurantsTool struct {
	maps *MapsClient
}

// NewNearbyRestaurantsTool creates the get_nearby_restaurants tool.
func NewNearbyRestaurantsTool(maps *MapsClient) *NearbyRestaurantsTool {
	return &NearbyRestaurantsTool{maps: maps}
}

func (t *NearbyRestaurantsTool) Kind() Kind { return KindNearbyRestaurants }
func (t *NearbyRestaurantsTool) Declaration() llm.ToolDefinition {
	return nearbyRestaurantsDeclaration()
}

func (t *NearbyRestaurantsTool) Execute(ctx context.Context, _ *session.Session, args Args) (any, error) {
	req := nearbyRequest(args, []string{"restaurant"})
	if args.Bool("vegetarian_only", false) {
		req.TextBias = "vegetarian"
	}
	places, err := t.maps.SearchNearby(ctx, req)
	if err != nil {
		return nil, err
	}
	return nonNil(places), nil
}

// HotelsTool finds lodging around a point.
type HotelsTool struct {
	maps *MapsClient
}

// NewHotelsTool creates the get_hotels tool.
func NewHotelsTool(maps *MapsClient) *HotelsTool {
	return &HotelsTool{maps: maps}
}

func (t *HotelsTool) Kind() Kind                      { return KindHotels }
func (t *HotelsTool) Declaration() llm.ToolDefinition { return hotelsDeclaration() }

func (t *HotelsTool) Execute(ctx context.Context, _ *session.Session, args Args) (any, error) {
	types, ok := hotelTypes[args.String("accommodation_filter", "Any")]
	if !ok {
		types = hotelTypes["Any"]
	}
	places, err := t.maps.SearchNearby(ctx, nearbyRequest(args, types))
	if err != nil {
		return nil, err
	}
	return nonNil(places), nil
}

func nonNil(places []model.Place) []model.Place {
	if places == nil {
		return []model.Place{}
	}
	return places
}
