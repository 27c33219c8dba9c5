// Weather forecast tool backed by the Google Weather API.
//
// Information Hiding:
// - Forecast day clamping and unit system defaults hidden
// - Forecast request and response shape delegated to MapsClient

package tools

import (
	"context"
	"strings"

	"github.com/richinex/tripsense/llm"
	"github.com/richinex/tripsense/session"
	"github.com/samber/lo"
)

const (
	defaultForecastDays = 3
	maxForecastDays     = 15
)

// WeatherTool returns a daily forecast from the Google Weather API.
type WeatherTool struct {
	maps *MapsClient
}

// NewWeatherTool creates the get_weather tool.
func NewWeatherTool(maps *MapsClient) *WeatherTool {
	return &WeatherTool{maps: maps}
}

func (t *WeatherTool) Kind() Kind                      { return KindWeather }
func (t *WeatherTool) Declaration() llm.ToolDefinition { return weatherDeclaration() }

func (t *WeatherTool) Execute(ctx context.Context, _ *session.Session, args Args) (any, error) {
	days := lo.Clamp(args.Int("days", defaultForecastDays), 1, maxForecastDays)
	units := strings.ToUpper(args.String("unit_system", UnitsMetric))
	if units != UnitsImperial {
		units = UnitsMetric
	}
	return t.maps.Forecast(ctx, args.Float("lat", 0), args.Float("lng", 0), days, units)
}
