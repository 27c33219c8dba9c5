// Package tools provides tool management and registration.
//
// Information Hiding:
// - Tool storage and lookup implementation hidden
// - Registration order preserved for declaration output
// - Registry is fixed once constructed

package tools

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/richinex/tripsense/llm"
	"github.com/richinex/tripsense/storage"
)

// Registry holds the tools available to the planner. It is immutable after
// construction and therefore safe for concurrent use.
type Registry struct {
	order []Kind
	tools map[Kind]Tool
}

// NewRegistry creates a registry from tools in the given order.
// Returns error on duplicate kinds or a declaration whose name does not match its kind.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[Kind]Tool, len(tools))}
	for _, t := range tools {
		kind := t.Kind()
		if _, exists := r.tools[kind]; exists {
			return nil, fmt.Errorf("tool '%s' already registered", kind)
		}
		if name := t.Declaration().Name; name != kind.String() {
			return nil, fmt.Errorf("tool '%s' declares mismatched name '%s'", kind, name)
		}
		r.tools[kind] = t
		r.order = append(r.order, kind)
	}
	return r, nil
}

// NewDefaultRegistry registers the six planner tools. logger receives
// save_trip storage failures.
func NewDefaultRegistry(maps *MapsClient, store storage.TripStore, logger *slog.Logger) (*Registry, error) {
	return NewRegistry(
		NewSearchTextTool(maps),
		NewNearbyAttractionsTool(maps),
		NewNearbyRestaurantsTool(maps),
		NewHotelsTool(maps),
		NewWeatherTool(maps),
		NewSaveTripTool(store, logger),
	)
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, error) {
	kind, err := ParseKind(name)
	if err != nil {
		return nil, err
	}
	tool, ok := r.tools[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return tool, nil
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.order)
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	for i, k := range r.order {
		names[i] = k.String()
	}
	return names
}

// Declarations returns the tool declarations in registration order.
func (r *Registry) Declarations() []llm.ToolDefinition {
	decls := make([]llm.ToolDefinition, len(r.order))
	for i, k := range r.order {
		decls[i] = r.tools[k].Declaration()
	}
	return decls
}

// Describe returns a formatted listing of all tools.
func (r *Registry) Describe() string {
	var descriptions []string
	for _, decl := range r.Declarations() {
		var params []string
		if decl.Parameters != nil {
			required := make(map[string]bool, len(decl.Parameters.Required))
			for _, name := range decl.Parameters.Required {
				required[name] = true
			}
			for _, name := range sortedKeys(decl.Parameters.Properties) {
				p := decl.Parameters.Properties[name]
				status := "optional"
				if required[name] {
					status = "required"
				}
				line := fmt.Sprintf("  - %s (%s) [%s]", name, p.Type, status)
				if p.Description != "" {
					line += ": " + p.Description
				}
				params = append(params, line)
			}
		}

		descriptions = append(descriptions, fmt.Sprintf(
			"Tool: %s\nDescription: %s\nParameters:\n%s",
			decl.Name, decl.Description, strings.Join(params, "\n")))
	}

	return strings.Join(descriptions, "\n\n")
}
