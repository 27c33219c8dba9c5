// Package tools provides the tool system for the trip planner.
//
// Information Hiding:
// - Tool execution details hidden behind interface
// - Tool parameters and schemas hidden in implementations
// - Registry and dispatch details hidden from consumers
// - Error handling internalized per tool
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/richinex/tripsense/llm"
	"github.com/richinex/tripsense/session"
)

// Kind enumerates the tools the planner can invoke.
type Kind int

const (
	KindSearchText Kind = iota + 1
	KindNearbyAttractions
	KindNearbyRestaurants
	KindHotels
	KindWeather
	KindSaveTrip
)

var kindNames = map[Kind]string{
	KindSearchText:        "search_text",
	KindNearbyAttractions: "get_nearby_attractions",
	KindNearbyRestaurants: "get_nearby_restaurants",
	KindHotels:            "get_hotels",
	KindWeather:           "get_weather",
	KindSaveTrip:          "save_trip",
}

// String returns the tool name the model uses.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ErrUnknownTool is returned for names outside the closed set of tools.
// The message is shown verbatim in tool results.
var ErrUnknownTool = errors.New("Unknown tool")

// ParseKind maps a tool name to its Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownTool, name)
}

// Tool is the interface that all tools must implement.
//
// Information Hiding: Tool implementations hide their external API calls,
// argument defaults, and response normalization behind this interface.
type Tool interface {
	// Kind identifies the tool.
	Kind() Kind

	// Declaration describes the tool to the model.
	Declaration() llm.ToolDefinition

	// Execute runs the tool. The session carries the current trip for
	// tools that need it; other tools ignore it.
	Execute(ctx context.Context, sess *session.Session, args Args) (any, error)
}

// Args are the model-supplied arguments of a tool call.
// Accessors tolerate the numeric types produced by different decoders.
type Args map[string]any

// Float returns a numeric argument or def.
func (a Args) Float(key string, def float64) float64 {
	if v, ok := a.OptionalFloat(key); ok {
		return v
	}
	return def
}

// OptionalFloat returns a numeric argument and whether it was present.
func (a Args) OptionalFloat(key string) (float64, bool) {
	switch v := a[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Int returns an integer argument or def. Fractions are truncated.
func (a Args) Int(key string, def int) int {
	if v, ok := a.OptionalFloat(key); ok {
		return int(v)
	}
	return def
}

// String returns a string argument or def when absent or empty.
func (a Args) String(key, def string) string {
	if v, ok := a[key].(string); ok && v != "" {
		return v
	}
	return def
}

// Bool returns a boolean argument or def.
func (a Args) Bool(key string, def bool) bool {
	switch v := a[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

// Strings returns a list-of-strings argument, skipping non-string items.
func (a Args) Strings(key string) []string {
	switch v := a[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Result is the outcome of one dispatched tool call. Exactly one of Output
// and Err is meaningful: Err is empty on success.
type Result struct {
	Name   string
	Args   Args
	Output any
	Err    string
	Cause  error
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Err == ""
}

type functionCall struct {
	Name string `json:"name"`
}

// MarshalJSON renders {"function_call":{"name":…},"output":…} or
// {"function_call":{"name":…},"error":"…"}.
func (r Result) MarshalJSON() ([]byte, error) {
	if !r.OK() {
		return json.Marshal(struct {
			FunctionCall functionCall `json:"function_call"`
			Error        string       `json:"error"`
		}{functionCall{r.Name}, r.Err})
	}
	return json.Marshal(struct {
		FunctionCall functionCall `json:"function_call"`
		Output       any          `json:"output"`
	}{functionCall{r.Name}, r.Output})
}

func successResult(name string, args Args, output any) Result {
	return Result{Name: name, Args: args, Output: output}
}

func failureResult(name string, args Args, err error) Result {
	return Result{Name: name, Args: args, Err: err.Error(), Cause: err}
}
