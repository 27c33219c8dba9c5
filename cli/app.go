// Application wiring for CLI commands.
//
// Information Hiding:
// - Provider selection and demo-mode fallback hidden
// - Trip store driver choice hidden
// - Maps client, tool registry and dispatcher construction hidden
// - SerpAPI booking client and demo fallback construction hidden

package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/richinex/tripsense/booking"
	"github.com/richinex/tripsense/config"
	"github.com/richinex/tripsense/llm"
	"github.com/richinex/tripsense/metrics"
	"github.com/richinex/tripsense/planner"
	"github.com/richinex/tripsense/prompt"
	"github.com/richinex/tripsense/session"
	"github.com/richinex/tripsense/storage"
	"github.com/richinex/tripsense/tools"
)

// Options holds CLI execution options.
type Options struct {
	ConfigPath string
	Provider   string
	Model      string
	Verbose    bool
}

// App bundles everything a command needs.
type App struct {
	Settings config.Settings
	Logger   *slog.Logger
	Provider llm.Provider
	Store    storage.TripStore
	Registry *tools.Registry
	Planner  *planner.Planner
	Sessions *session.Manager
	Booking  *booking.Finder

	closers []io.Closer
}

// NewLogger returns a text logger on w. Verbose enables debug records.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Load reads settings and applies command-line overrides.
func Load(opts Options) (config.Settings, error) {
	s, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Settings{}, err
	}
	if opts.Provider != "" {
		pt, err := llm.ParseProviderType(opts.Provider)
		if err != nil {
			return config.Settings{}, fmt.Errorf("%w: %v", config.ErrInvalidSetting, err)
		}
		if pt != s.ProviderType() {
			s.LLM.Provider = pt.String()
			s.LLM.APIKey = os.Getenv(pt.EnvVar())
			s.LLM.Model = config.ModelFor(pt)
		}
	}
	if opts.Model != "" {
		s.LLM.Model = opts.Model
	}
	return s, s.Validate()
}

// Build wires the planner and its collaborators from settings.
func Build(s config.Settings, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Settings: s, Logger: logger}

	provider, err := s.ProviderType().Model(s.LLM.Model).APIKey(s.LLM.APIKey)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		logger.Warn("no API key configured, running in demo mode", "provider", s.LLM.Provider)
	case err != nil:
		return nil, fmt.Errorf("creating provider: %w", err)
	default:
		app.Provider = provider
	}

	store, err := openStore(s.Storage)
	if err != nil {
		return nil, err
	}
	app.Store = store
	if c, ok := store.(io.Closer); ok {
		app.closers = append(app.closers, c)
	}

	mapsOpts := []tools.MapsOption{tools.WithMapsLogger(logger)}
	if s.Maps.CacheTTL > 0 {
		mapsOpts = append(mapsOpts, tools.WithCache(s.Maps.CacheTTL, 2*s.Maps.CacheTTL))
	}
	if s.Maps.Timeout > 0 {
		mapsOpts = append(mapsOpts, tools.WithHTTPClient(&http.Client{Timeout: s.Maps.Timeout}))
	}
	maps := tools.NewMapsClient(s.Maps.APIKey, mapsOpts...)
	if !maps.Configured() {
		logger.Warn("GOOGLE_MAPS_API_KEY not set, place and weather tools will report errors")
	}

	registry, err := tools.NewDefaultRegistry(maps, store, logger)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("building tool registry: %w", err)
	}
	app.Registry = registry

	systemPrompt, err := prompt.LoadSystemPrompt(s.SystemPrompt)
	if err != nil {
		app.Close()
		return nil, err
	}

	opts := []planner.Option{
		planner.WithDispatcher(tools.NewDispatcher(registry, logger)),
		planner.WithSystemPrompt(systemPrompt),
		planner.WithConfig(plannerConfig(s.Generation)),
		planner.WithLogger(logger),
	}
	if app.Provider != nil {
		opts = append(opts, planner.WithProvider(app.Provider))
	}
	app.Planner = planner.New(opts...)
	app.Sessions = session.NewManager(logger, metrics.WithPricing(metrics.Pricing{
		InputPerMillion:  s.Pricing.InputPerMillion,
		OutputPerMillion: s.Pricing.OutputPerMillion,
	}))
	app.Booking = newFinder(s.Booking, logger)

	return app, nil
}

// Close releases the trip store.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Describe returns a one-line banner of the active backend.
func (a *App) Describe() string {
	if a.Provider == nil {
		return fmt.Sprintf("Provider: %s (demo mode) | Tools: %d", a.Settings.LLM.Provider, a.Registry.Len())
	}
	return fmt.Sprintf("Provider: %s | Model: %s | Tools: %d", a.Provider.Name(), a.Provider.Model(), a.Registry.Len())
}

func newFinder(cfg config.BookingConfig, logger *slog.Logger) *booking.Finder {
	opts := []booking.Option{booking.WithLogger(logger)}
	if cfg.CacheTTL > 0 {
		opts = append(opts, booking.WithCache(cfg.CacheTTL, 2*cfg.CacheTTL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, booking.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	client := booking.NewClient(cfg.APIKey, opts...)
	if !client.Configured() {
		logger.Info("SERPAPI_API_KEY not set, booking searches serve demo results")
	}
	return booking.NewFinder(client, cfg.Currency, logger)
}

func openStore(cfg config.StorageConfig) (storage.TripStore, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return storage.NewInMemoryTripStore(), nil
	case config.DriverSqlite, "":
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating storage directory: %w", err)
			}
		}
		store, err := storage.OpenSqlite(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening trip store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", config.ErrInvalidSetting, cfg.Driver)
	}
}

func plannerConfig(g config.GenerationConfig) planner.Config {
	return planner.Config{
		Temperature:     float32(g.Temperature),
		MaxOutputTokens: int32(g.MaxOutputTokens),
		TopP:            float32(g.TopP),
		ThinkingBudget:  int32(g.ThinkingBudget),
		MaxHistory:      g.MaxHistory,
		ModelTimeout:    g.ModelTimeout,
	}
}
