// Google Maps Platform client (Places API (New) and Weather API).
//
// Information Hiding:
// - HTTP client, headers and field masks hidden
// - Provider error payloads mapped to sentinel errors
// - Response caching hidden

package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/richinex/tripsense/model"
	"github.com/samber/lo"
)

const (
	defaultPlacesBaseURL  = "https://places.googleapis.com/v1"
	defaultWeatherBaseURL = "https://weather.googleapis.com/v1"

	// DefaultMapsTimeout bounds each Maps Platform request.
	DefaultMapsTimeout = 20 * time.Second

	baseFieldMask = "places.id,places.displayName,places.location,places.formattedAddress," +
		"places.rating,places.userRatingCount,places.priceLevel,places.googleMapsUri," +
		"places.primaryType,places.primaryTypeDisplayName,places.currentOpeningHours.weekdayDescriptions"
	searchTextFieldMask = "places.id,places.displayName,places.location,places.googleMapsUri"

	maxErrorBody = 512
)

// Unit systems accepted by the weather tool.
const (
	UnitsMetric   = "METRIC"
	UnitsImperial = "IMPERIAL"
)

var (
	// ErrMapsKeyMissing is returned when no Maps API key is configured.
	ErrMapsKeyMissing = errors.New("GOOGLE_MAPS_API_KEY not set. Configure it to use location-based tools.")
	// ErrPlacesDisabled is returned when the Places API is not enabled for the key.
	ErrPlacesDisabled = errors.New("Google Places API is not enabled. Please enable it in your Google Cloud Console to use location-based features.")
	// ErrPermissionDenied is returned for other 403 responses.
	ErrPermissionDenied = errors.New("Google API access denied. Please check your API key permissions.")
)

// MapsClient calls the Google Places and Weather APIs.
type MapsClient struct {
	apiKey         string
	client         *http.Client
	placesBaseURL  string
	weatherBaseURL string
	cache          *cache.Cache
	cacheTTL       time.Duration
	logger         *slog.Logger
}

// MapsOption configures a MapsClient.
type MapsOption func(*MapsClient)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) MapsOption {
	return func(m *MapsClient) { m.client = c }
}

// WithBaseURLs overrides the API endpoints (used by tests).
func WithBaseURLs(places, weather string) MapsOption {
	return func(m *MapsClient) {
		m.placesBaseURL = strings.TrimRight(places, "/")
		m.weatherBaseURL = strings.TrimRight(weather, "/")
	}
}

// WithCache caches successful responses for ttl. A zero cleanup interval
// disables the background janitor; expired entries are still ignored.
func WithCache(ttl, cleanup time.Duration) MapsOption {
	return func(m *MapsClient) {
		if ttl <= 0 {
			return
		}
		m.cache = cache.New(ttl, cleanup)
		m.cacheTTL = ttl
	}
}

// WithMapsLogger sets the logger.
func WithMapsLogger(l *slog.Logger) MapsOption {
	return func(m *MapsClient) { m.logger = l }
}

// NewMapsClient creates a client. An empty apiKey is allowed; every call then
// fails with ErrMapsKeyMissing.
func NewMapsClient(apiKey string, opts ...MapsOption) *MapsClient {
	m := &MapsClient{
		apiKey:         apiKey,
		client:         &http.Client{Timeout: DefaultMapsTimeout},
		placesBaseURL:  defaultPlacesBaseURL,
		weatherBaseURL: defaultWeatherBaseURL,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Configured reports whether an API key is set.
func (m *MapsClient) Configured() bool {
	return m != nil && m.apiKey != ""
}

// NearbyRequest is a Places searchNearby query.
type NearbyRequest struct {
	Lat           float64
	Lng           float64
	RadiusM       int
	IncludedTypes []string
	MaxResults    int
	MinRating     *float64
	TextBias      string
}

// SearchText resolves a free-text query to places.
func (m *MapsClient) SearchText(ctx context.Context, query string, maxResults int) ([]model.Place, error) {
	body := map[string]any{
		"textQuery":      query,
		"maxResultCount": maxResults,
	}
	raw, err := m.postPlaces(ctx, "/places:searchText", body, searchTextFieldMask)
	if err != nil {
		return nil, err
	}
	return normalizePlaces(raw), nil
}

// SearchNearby returns popular places of the given types around a point.
func (m *MapsClient) SearchNearby(ctx context.Context, req NearbyRequest) ([]model.Place, error) {
	body := map[string]any{
		"includedTypes":  req.IncludedTypes,
		"maxResultCount": req.MaxResults,
		"locationRestriction": map[string]any{
			"circle": map[string]any{
				"center": map[string]any{"latitude": req.Lat, "longitude": req.Lng},
				"radius": req.RadiusM,
			},
		},
		"rankPreference": "POPULARITY",
	}
	if req.TextBias != "" {
		body["textQuery"] = req.TextBias
	}

	raw, err := m.postPlaces(ctx, "/places:searchNearby", body, baseFieldMask)
	if err != nil {
		return nil, err
	}

	if req.MinRating != nil {
		threshold := *req.MinRating
		raw = lo.Filter(raw, func(p rawPlace, _ int) bool { return p.Rating >= threshold })
	}
	return normalizePlaces(raw), nil
}

// Forecast returns the daily forecast document for a point.
func (m *MapsClient) Forecast(ctx context.Context, lat, lng float64, days int, units string) (map[string]any, error) {
	if !m.Configured() {
		return nil, ErrMapsKeyMissing
	}

	tempUnit, windUnit := "CELSIUS", "METERS_PER_SECOND"
	if units == UnitsImperial {
		tempUnit, windUnit = "FAHRENHEIT", "MILES_PER_HOUR"
	}

	params := url.Values{}
	params.Set("location.latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("location.longitude", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("units.temperatureUnit", tempUnit)
	params.Set("units.windSpeedUnit", windUnit)
	params.Set("languageCode", "en")
	params.Set("forecast.days", strconv.Itoa(days))

	endpoint := m.weatherBaseURL + "/forecast:lookup"
	cacheKey := endpoint + "?" + params.Encode()
	if cached, ok := m.cached(cacheKey); ok {
		return cached.(map[string]any), nil
	}

	params.Set("key", m.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	m.logger.Debug("weather request", "lat", lat, "lng", lng, "days", days, "units", units)

	body, err := m.do(req)
	if err != nil {
		return nil, err
	}

	forecast := map[string]any{}
	if err := json.Unmarshal(body, &forecast); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}
	m.store(cacheKey, forecast)
	return forecast, nil
}

func (m *MapsClient) postPlaces(ctx context.Context, path string, body map[string]any, fieldMask string) ([]rawPlace, error) {
	if !m.Configured() {
		return nil, ErrMapsKeyMissing
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := m.placesBaseURL + path
	cacheKey := endpoint + "|" + fieldMask + "|" + string(payload)
	if cached, ok := m.cached(cacheKey); ok {
		return cached.([]rawPlace), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", m.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	m.logger.Debug("places request", "endpoint", path, "body", string(payload))

	respBody, err := m.do(req)
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Places []rawPlace `json:"places"`
	}
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode places response: %w", err)
	}
	m.store(cacheKey, decoded.Places)
	return decoded.Places, nil
}

// do executes req and returns the body of a 2xx response.
func (m *MapsClient) do(req *http.Request) ([]byte, error) {
	resp, err := m.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("request to %s timed out: %w", req.URL.Path, err)
		}
		return nil, fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, classifyAPIError(req.URL.Path, resp.StatusCode, body)
}

// classifyAPIError maps a Google error payload to a sentinel where possible.
func classifyAPIError(path string, status int, body []byte) error {
	var payload struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && (status == http.StatusForbidden || payload.Error.Code == http.StatusForbidden) {
		msg := payload.Error.Message
		if strings.Contains(msg, "Places API") && strings.Contains(msg, "disabled") {
			return ErrPlacesDisabled
		}
		if payload.Error.Status == "PERMISSION_DENIED" || strings.Contains(string(body), "PERMISSION_DENIED") {
			return ErrPermissionDenied
		}
	}

	text := string(body)
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return fmt.Errorf("google api error (%s, status %d): %s", path, status, text)
}

func (m *MapsClient) cached(key string) (any, bool) {
	if m.cache == nil {
		return nil, false
	}
	return m.cache.Get(key)
}

func (m *MapsClient) store(key string, v any) {
	if m.cache != nil {
		m.cache.Set(key, v, m.cacheTTL)
	}
}

// rawPlace is the subset of the Places API (New) Place resource we read.
type rawPlace struct {
	ID          string `json:"id"`
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	Location struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	FormattedAddress       string  `json:"formattedAddress"`
	Rating                 float64 `json:"rating"`
	UserRatingCount        int     `json:"userRatingCount"`
	PriceLevel             string  `json:"priceLevel"`
	GoogleMapsURI          string  `json:"googleMapsUri"`
	PrimaryType            string  `json:"primaryType"`
	PrimaryTypeDisplayName struct {
		Text string `json:"text"`
	} `json:"primaryTypeDisplayName"`
	CurrentOpeningHours struct {
		WeekdayDescriptions []string `json:"weekdayDescriptions"`
	} `json:"currentOpeningHours"`
}

func normalizePlaces(raw []rawPlace) []model.Place {
	return lo.Map(raw, func(p rawPlace, _ int) model.Place {
		return normalizePlace(p)
	})
}

func normalizePlace(p rawPlace) model.Place {
	hours := p.CurrentOpeningHours.WeekdayDescriptions
	if hours == nil {
		hours = []string{}
	}
	return model.Place{
		ID:                     p.ID,
		Name:                   p.DisplayName.Text,
		Latitude:               p.Location.Latitude,
		Longitude:              p.Location.Longitude,
		Address:                p.FormattedAddress,
		Rating:                 p.Rating,
		UserRatingsTotal:       p.UserRatingCount,
		PriceLevel:             p.PriceLevel,
		MapsURL:                p.GoogleMapsURI,
		PrimaryType:            p.PrimaryType,
		PrimaryTypeDisplayName: p.PrimaryTypeDisplayName.Text,
		WeekdayDescriptions:    hours,
	}
}
