// Package prompt builds the text sent to the model.
//
// Information Hiding:
// - Transcript rendering and history window hidden
// - Trip form template and system prompt document embedded
// - Follow-up prompt layout hidden from the planner
package prompt

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"text/template"

	"github.com/richinex/tripsense/model"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// DefaultMaxHistory is the number of prior messages replayed in a chat turn.
const DefaultMaxHistory = 3

// Closing instructions for the follow-up call.
const (
	ClosingPlan = "Please provide a comprehensive trip plan based on the above information."
	ClosingChat = "Please provide a helpful response based on the above information."
)

//go:embed templates/trip.tmpl templates/system.yaml
var templates embed.FS

var tripTemplate = template.Must(template.ParseFS(templates, "templates/trip.tmpl"))

// ErrEmptySystemPrompt is returned when a system prompt document has no content.
var ErrEmptySystemPrompt = errors.New("system prompt has no content")

// BuildContext renders the last maxHistory non-system messages followed by
// the new user message, one "Role: content" line each.
func BuildContext(history []model.Message, message string, maxHistory int) string {
	visible := lo.Filter(history, func(m model.Message, _ int) bool {
		return m.Role != model.RoleSystem
	})
	if maxHistory < 0 {
		maxHistory = 0
	}
	if len(visible) > maxHistory {
		visible = visible[len(visible)-maxHistory:]
	}

	lines := make([]string, 0, len(visible)+1)
	for _, m := range visible {
		lines = append(lines, renderMessage(m))
	}
	lines = append(lines, model.RoleUser.Label()+": "+message)
	return strings.Join(lines, "\n")
}

func renderMessage(m model.Message) string {
	if m.Tool != nil {
		return fmt.Sprintf("Tool %s returned: %s", m.Tool.Name, encode(m.Tool.Result))
	}
	return m.Role.Label() + ": " + m.Content
}

// RenderTripPrompt renders the first-turn message for a trip form.
func RenderTripPrompt(form model.TripForm) (string, error) {
	var buf bytes.Buffer
	if err := tripTemplate.Execute(&buf, form); err != nil {
		return "", fmt.Errorf("rendering trip prompt: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

type systemDocument struct {
	Name    string `yaml:"name"`
	Content string `yaml:"content"`
}

// LoadSystemPrompt reads the system instruction from a YAML document with a
// "content" key. An empty path loads the embedded default.
func LoadSystemPrompt(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = templates.ReadFile("templates/system.yaml")
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading system prompt %s: %w", path, err)
	}

	var doc systemDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parsing system prompt %s: %w", path, err)
	}
	content := strings.TrimSpace(doc.Content)
	if content == "" {
		return "", ErrEmptySystemPrompt
	}
	return content, nil
}

// DefaultSystemPrompt returns the embedded system instruction.
func DefaultSystemPrompt() string {
	content, err := LoadSystemPrompt("")
	if err != nil {
		panic(err)
	}
	return content
}

// ResultLine renders one tool outcome for the follow-up prompt.
// An empty list is stated as zero results rather than "[]".
func ResultLine(name string, payload any) string {
	if isEmptyList(payload) {
		return fmt.Sprintf("Function %s returned: no results found (0 items)", name)
	}
	return fmt.Sprintf("Function %s returned: %s", name, encode(payload))
}

// FollowUp builds the prompt for the second model call.
func FollowUp(base string, lines []string, modelText, closing string) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\nFunction Results:\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n")
	b.WriteString(closing)
	if modelText != "" {
		b.WriteString("\n\nOriginal response: ")
		b.WriteString(modelText)
	}
	return b.String()
}

func isEmptyList(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	return (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Len() == 0
}

func encode(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
