// Tool Dispatcher.
//
// Information Hiding:
// - Name resolution and panic recovery hidden
// - Every call produces exactly one Result, success or error
// - Call ordering preserved for batches

package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/richinex/tripsense/llm"
	"github.com/richinex/tripsense/session"
)

// Dispatcher routes model tool calls to registered tools.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over registry. A nil logger uses slog.Default.
func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{registry: registry, logger: logger}
}

// Registry returns the registry the dispatcher resolves names against.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch executes one tool call. It never returns a Go error: failures are
// reported in the Result.
func (d *Dispatcher) Dispatch(ctx context.Context, sess *session.Session, name string, args Args) (result Result) {
	if args == nil {
		args = Args{}
	}

	tool, err := d.registry.Lookup(name)
	if err != nil {
		d.logger.Warn("unknown tool requested", "tool", name)
		return failureResult(name, args, err)
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool panicked", "tool", name, "panic", r)
			result = failureResult(name, args, fmt.Errorf("tool %s panicked: %v", name, r))
		}
	}()

	output, err := tool.Execute(ctx, sess, args)
	elapsed := time.Since(start)
	if err != nil {
		d.logger.Warn("tool failed", "tool", name, "duration", elapsed, "error", err)
		return failureResult(name, args, err)
	}
	if output == nil {
		d.logger.Warn("tool returned no data", "tool", name, "duration", elapsed)
		return failureResult(name, args, errors.New("Function "+name+" returned no data"))
	}

	d.logger.Info("tool executed", "tool", name, "duration", elapsed)
	return successResult(name, args, output)
}

// DispatchAll executes calls sequentially, preserving order.
func (d *Dispatcher) DispatchAll(ctx context.Context, sess *session.Session, calls []llm.ToolCall) []Result {
	results := make([]Result, 0, len(calls))
	for _, call := range calls {
		results = append(results, d.Dispatch(ctx, sess, call.Name, Args(call.Args)))
	}
	return results
}
