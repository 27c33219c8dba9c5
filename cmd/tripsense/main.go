// Package main provides the tripsense CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/richinex/tripsense/cli"
	"github.com/richinex/tripsense/model"
)

var (
	// Global flags
	configPath string
	provider   string
	modelName  string
	verbose    bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "tripsense",
		Short: "Tool-grounded AI trip planner",
		Long: `TripSense plans trips with an LLM that can call Google Maps tools
for attractions, restaurants, hotels and weather.

Without an API key for the selected provider it runs in demo mode
with canned itineraries and replies.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default tripsense.yaml)")
	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "LLM provider (gemini, openai, anthropic, deepseek)")
	rootCmd.PersistentFlags().StringVar(&modelName, "model", "", "Model name override")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs")

	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(tripsCmd())
	rootCmd.AddCommand(toolsCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp loads settings, builds the app and closes it after fn.
func withApp(fn func(app *cli.App) error) error {
	settings, err := cli.Load(cli.Options{
		ConfigPath: configPath,
		Provider:   provider,
		Model:      modelName,
		Verbose:    verbose,
	})
	if err != nil {
		return err
	}
	app, err := cli.Build(settings, cli.NewLogger(os.Stderr, verbose))
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}

func planCmd() *cobra.Command {
	var form model.TripForm
	var chat bool

	cmd := &cobra.Command{
		Use:   "plan [destination]",
		Short: "Generate an itinerary for a trip",
		Long: `Generate a day-by-day itinerary. The model may call the Maps tools
to ground attractions, restaurants, hotels and the forecast.

Examples:
  tripsense plan Lisbon --days 4 --budget "Mid-range"
  tripsense plan Kyoto --days 5 --type Cultural --chat`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				form.Destination = args[0]
			}
			return withApp(func(app *cli.App) error {
				sess, err := cli.Plan(cmd.Context(), app, form, cmd.OutOrStdout())
				if err != nil || !chat {
					return err
				}
				return cli.Chat(cmd.Context(), app, sess, cmd.OutOrStdout())
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&form.Destination, "destination", "d", "", "Destination city or region")
	f.StringVar(&form.Origin, "from", "", "Origin city")
	f.StringVar(&form.StartDate, "start", "", "Start date (YYYY-MM-DD)")
	f.StringVar(&form.EndDate, "end", "", "End date (YYYY-MM-DD)")
	f.IntVar(&form.Duration, "days", 3, "Trip length in days")
	f.StringVar(&form.Season, "season", "", "Preferred season")
	f.StringVar(&form.TravelMonths, "months", "", "Preferred travel months")
	f.StringVar(&form.TravelType, "type", "", "Travel style (Cultural, Adventure, Relaxation, ...)")
	f.StringVar(&form.Budget, "budget", "", "Budget level")
	f.IntVar(&form.GroupSize, "group", 1, "Number of travellers")
	f.StringVar(&form.Accommodation, "accommodation", "", "Accommodation preference")
	f.StringVar(&form.SpecialRequests, "requests", "", "Special requests")
	f.BoolVar(&chat, "chat", false, "Continue into an interactive chat about the trip")

	return cmd
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive trip-planning chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *cli.App) error {
				return cli.Chat(cmd.Context(), app, nil, cmd.OutOrStdout())
			})
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planner over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return withApp(func(app *cli.App) error {
				return cli.Serve(ctx, app, addr)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

func tripsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trips",
		Short: "Manage saved trips",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved trips",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *cli.App) error {
				return cli.ListTrips(cmd.Context(), app, cmd.OutOrStdout())
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show [trip-id]",
		Short: "Show a saved trip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *cli.App) error {
				return cli.ShowTrip(cmd.Context(), app, args[0], cmd.OutOrStdout())
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete [trip-id]",
		Short: "Delete a saved trip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *cli.App) error {
				return cli.DeleteTrip(cmd.Context(), app, args[0], cmd.OutOrStdout())
			})
		},
	})
	cmd.AddCommand(bookCmd())

	return cmd
}

func bookCmd() *cobra.Command {
	var sel cli.BookSelection

	cmd := &cobra.Command{
		Use:   "book [trip-id]",
		Short: "Search flights, hotels and events for a saved trip",
		Long: `Search flights, hotels and events for a saved trip's origin, destination
and dates, followed by a rough cost estimate. Without SERPAPI_API_KEY the
results are demo data.`,
		Example: `  tripsense trips book 3f2a9c1b
  tripsense trips book 3f2a9c1b --flights`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *cli.App) error {
				return cli.BookTrip(cmd.Context(), app, args[0], sel, cmd.OutOrStdout())
			})
		},
	}

	cmd.Flags().BoolVar(&sel.Flights, "flights", false, "Search flights (all kinds when no kind is selected)")
	cmd.Flags().BoolVar(&sel.Hotels, "hotels", false, "Search hotels")
	cmd.Flags().BoolVar(&sel.Events, "events", false, "Search events")

	return cmd
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools offered to the model",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *cli.App) error {
				cli.ListTools(app, cmd.OutOrStdout())
				return nil
			})
		},
	}
}
