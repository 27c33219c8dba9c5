// Command execution for CLI commands.
//
// Information Hiding:
// - Session creation per command hidden
// - Slash-command dispatch in the chat loop hidden
// - Output formatting hidden

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/richinex/tripsense/model"
	"github.com/richinex/tripsense/server"
	"github.com/richinex/tripsense/session"
	"github.com/richinex/tripsense/tools"
)

// Plan generates an itinerary for form and prints it. The returned session
// holds the trip so a chat can continue on it.
func Plan(ctx context.Context, app *App, form model.TripForm, out io.Writer) (*session.Session, error) {
	if strings.TrimSpace(form.Destination) == "" {
		return nil, errors.New("destination is required")
	}
	sess := app.Sessions.Create(app.Settings.UserID)

	fmt.Fprintf(out, "Planning a trip to %s...\n\n", form.Destination)
	reply := app.Planner.PlanTrip(ctx, sess, form)
	fmt.Fprintf(out, "%s\n\n", reply)
	return sess, nil
}

// lineReader is the part of readline the chat loop uses.
type lineReader interface {
	Readline() (string, error)
}

// Chat runs an interactive conversation. A nil sess starts a fresh one.
func Chat(ctx context.Context, app *App, sess *session.Session, out io.Writer) error {
	if sess == nil {
		sess = app.Sessions.Create(app.Settings.UserID)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[36myou>\033[0m ",
		HistoryFile:     historyFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(out, "TripSense - Interactive Trip Chat")
	fmt.Fprintln(out, app.Describe())
	fmt.Fprintf(out, "Type /help for commands, /quit to exit\n\n")

	return chatLoop(ctx, app, sess, rl, out, interruptible)
}

// turnContext derives the context for one chat turn.
type turnContext func(parent context.Context) (context.Context, context.CancelFunc)

// interruptible lets Ctrl+C cancel the in-flight turn, not the loop.
func interruptible(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt)
}

func chatLoop(ctx context.Context, app *App, sess *session.Session, in lineReader, out io.Writer, turn turnContext) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		input, err := in.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				fmt.Fprintln(out, "\nGoodbye!")
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := handleCommand(ctx, app, sess, input, out); quit {
				return nil
			}
			continue
		}

		turnCtx, cancel := turn(ctx)
		reply := app.Planner.Chat(turnCtx, sess, input)
		interrupted := turnCtx.Err() != nil && ctx.Err() == nil
		cancel()

		if interrupted {
			fmt.Fprintln(out, "(interrupted)")
		}
		fmt.Fprintf(out, "\n\033[32mtripsense>\033[0m %s\n\n", reply)
	}
}

// handleCommand runs a slash command and reports whether the loop should end.
func handleCommand(ctx context.Context, app *App, sess *session.Session, input string, out io.Writer) bool {
	fields := strings.Fields(input)
	switch strings.ToLower(fields[0]) {
	case "/quit", "/exit", "/q":
		fmt.Fprintln(out, "Goodbye!")
		return true
	case "/reset":
		sess.Reset()
		fmt.Fprintf(out, "Conversation reset.\n\n")
	case "/metrics":
		PrintMetrics(out, sess)
	case "/save":
		name := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))
		outcome, err := tools.NewSaveTripTool(app.Store, app.Logger).Save(ctx, sess, name, "")
		if err != nil {
			fmt.Fprintf(out, "error: %v\n\n", err)
			return false
		}
		if outcome.Saved() {
			fmt.Fprintf(out, "✅ %s (id %s)\n\n", outcome.Message, outcome.TripID)
		} else {
			fmt.Fprintf(out, "❌ %s\n\n", outcome.Message)
		}
	case "/trip":
		form, itinerary, ok := sess.Trip()
		if !ok {
			fmt.Fprintf(out, "No trip planned yet.\n\n")
			return false
		}
		fmt.Fprintf(out, "%s\n", describeForm(form))
		if itinerary != nil {
			fmt.Fprintf(out, "\n%s\n", itinerary.Response)
		}
		fmt.Fprintln(out)
	case "/help":
		fmt.Fprintln(out, "Commands:")
		fmt.Fprintln(out, "  /help         - Show this help")
		fmt.Fprintln(out, "  /trip         - Show the current trip")
		fmt.Fprintln(out, "  /save [name]  - Save the current trip")
		fmt.Fprintln(out, "  /metrics      - Show token usage for this session")
		fmt.Fprintln(out, "  /reset        - Clear conversation, trip and metrics")
		fmt.Fprintln(out, "  /quit         - Exit")
		fmt.Fprintln(out)
	default:
		fmt.Fprintf(out, "Unknown command: %s (try /help)\n\n", input)
	}
	return false
}

// Serve runs the HTTP API until ctx is cancelled.
func Serve(ctx context.Context, app *App, addr string) error {
	if addr == "" {
		addr = app.Settings.Server.Addr
	}
	srv := server.New(app.Planner, app.Sessions, app.Store, app.Registry, app.Booking, app.Logger)
	fmt.Printf("Serving TripSense API on %s\n%s\n", addr, app.Describe())
	return srv.ListenAndServe(ctx, addr)
}

// ListTrips prints the saved trips of the configured user.
func ListTrips(ctx context.Context, app *App, out io.Writer) error {
	trips, err := app.Store.List(ctx, app.Settings.UserID)
	if err != nil {
		return err
	}
	if len(trips) == 0 {
		fmt.Fprintln(out, "No saved trips.")
		return nil
	}
	for _, t := range trips {
		fmt.Fprintf(out, "%s  %s  %-24s %s\n", t.TripID, t.CreatedAt.Format("2006-01-02 15:04"), t.TripName, t.TripSummary)
	}
	return nil
}

// ShowTrip prints one saved trip.
func ShowTrip(ctx context.Context, app *App, tripID string, out io.Writer) error {
	rec, err := app.Store.Load(ctx, app.Settings.UserID, tripID)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("trip %s not found", tripID)
	}
	fmt.Fprintf(out, "%s (%s)\n", rec.Data.TripName, rec.TripID)
	fmt.Fprintf(out, "Saved: %s\n", rec.Data.SavedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "%s\n", describeForm(rec.Data.Form))
	if rec.Data.Itinerary != nil {
		fmt.Fprintf(out, "\n%s\n", rec.Data.Itinerary.Response)
	}
	return nil
}

// DeleteTrip removes one saved trip.
func DeleteTrip(ctx context.Context, app *App, tripID string, out io.Writer) error {
	ok, err := app.Store.Delete(ctx, app.Settings.UserID, tripID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("trip %s not found", tripID)
	}
	fmt.Fprintf(out, "Deleted trip %s\n", tripID)
	return nil
}

// ListTools prints the tool declarations offered to the model.
func ListTools(app *App, out io.Writer) {
	fmt.Fprintf(out, "Available tools (%d):\n\n", app.Registry.Len())
	fmt.Fprintln(out, app.Registry.Describe())
}

// PrintMetrics prints the session's usage totals and recent calls.
func PrintMetrics(out io.Writer, sess *session.Session) {
	totals := sess.Metrics.Totals()
	fmt.Fprintf(out, "Requests: %d (failures: %d)\n", totals.Requests, totals.Failures)
	fmt.Fprintf(out, "Tokens:   %d in / %d out\n", totals.InputTokens, totals.OutputTokens)
	fmt.Fprintf(out, "Cost:     $%.6f (avg $%.6f per request)\n", totals.CostEstimate, totals.AverageCostPerReq)
	for _, e := range sess.Metrics.Recent(5) {
		status := "ok"
		if !e.Success {
			status = "failed"
		}
		fmt.Fprintf(out, "  %s  %-34s %6d in %6d out  %s\n", e.Timestamp.Format("15:04:05"), e.Type, e.InputTokens, e.OutputTokens, status)
	}
	fmt.Fprintln(out)
}

func describeForm(f model.TripForm) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Destination: %s", f.Destination)
	if f.Origin != "" {
		fmt.Fprintf(&b, " (from %s)", f.Origin)
	}
	if f.Duration > 0 {
		fmt.Fprintf(&b, "\nDuration: %d days", f.Duration)
	}
	if f.StartDate != "" {
		fmt.Fprintf(&b, "\nDates: %s to %s", f.StartDate, f.EndDate)
	}
	if f.TravelType != "" || f.Budget != "" {
		fmt.Fprintf(&b, "\nStyle: %s, budget %s", f.TravelType, f.Budget)
	}
	return b.String()
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "tripsense_history")
	}
	return filepath.Join(home, ".tripsense", "history")
}
