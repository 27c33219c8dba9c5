package prompt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/richinex/tripsense/model"
)

func TestBuildContextWindow(t *testing.T) {
	var history []model.Message
	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			history = append(history, model.UserMessage(fmt.Sprintf("u%d", i)))
		} else {
			history = append(history, model.AssistantMessage(fmt.Sprintf("a%d", i)))
		}
	}
	history = append(history, model.SystemMessage("hidden"))

	got := BuildContext(history, "next", 3)
	want := "Assistant: a7\nUser: u8\nAssistant: a9\nUser: next"
	if got != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestBuildContextShortHistory(t *testing.T) {
	got := BuildContext(nil, "hello", 3)
	if got != "User: hello" {
		t.Errorf("expected single user line, got %q", got)
	}

	got = BuildContext([]model.Message{model.UserMessage("hi")}, "again", 0)
	if got != "User: again" {
		t.Errorf("expected history dropped with max 0, got %q", got)
	}
}

func TestBuildContextToolRecord(t *testing.T) {
	history := []model.Message{{
		Role: model.RoleAssistant,
		Tool: &model.ToolRecord{Name: "search_text", Result: []string{"Paris"}},
	}}

	got := BuildContext(history, "ok", 3)
	if !strings.HasPrefix(got, `Tool search_text returned: ["Paris"]`) {
		t.Errorf("unexpected tool rendering: %q", got)
	}
}

func TestRenderTripPrompt(t *testing.T) {
	form := model.TripForm{
		Destination:     "Lisbon",
		Duration:        4,
		GroupSize:       2,
		TravelType:      "Culture & History",
		Budget:          "Low Budget",
		Accommodation:   "Hostels",
		StartDate:       "2025-06-01",
		EndDate:         "2025-06-05",
		SpecialRequests: "vegetarian food",
	}

	got, err := RenderTripPrompt(form)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"I want to plan a 4-day trip to Lisbon for 2 people.",
		"Dates: 2025-06-01 to 2025-06-05",
		"My travel style is: Culture & History",
		"Budget: Low Budget",
		"Accommodation preference: Hostels",
		"Special requests: vegetarian food",
		"Please create a detailed itinerary",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected prompt to contain %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "&amp;") {
		t.Error("expected no HTML escaping")
	}
}

func TestRenderTripPromptSeasonAndDefaults(t *testing.T) {
	got, err := RenderTripPrompt(model.TripForm{Destination: "Oslo", Season: "Winter", TravelMonths: "Dec-Feb"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "Season: Winter (Dec-Feb)") {
		t.Errorf("expected season line:\n%s", got)
	}
	if !strings.Contains(got, "for 1 people") || !strings.Contains(got, "a few-day trip") {
		t.Errorf("expected defaults:\n%s", got)
	}
	if strings.Contains(got, "Special requests") {
		t.Errorf("expected no special requests line:\n%s", got)
	}
}

func TestLoadSystemPrompt(t *testing.T) {
	def, err := LoadSystemPrompt("")
	if err != nil {
		t.Fatalf("embedded prompt: %v", err)
	}
	if !strings.Contains(def, "save_trip") {
		t.Errorf("expected embedded prompt to mention save_trip")
	}

	dir := t.TempDir()
	custom := filepath.Join(dir, "system.yaml")
	if err := os.WriteFile(custom, []byte("content: |\n  Be brief.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadSystemPrompt(custom)
	if err != nil || got != "Be brief." {
		t.Errorf("expected 'Be brief.', got %q, %v", got, err)
	}

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("name: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSystemPrompt(empty); !errors.Is(err, ErrEmptySystemPrompt) {
		t.Errorf("expected ErrEmptySystemPrompt, got %v", err)
	}

	if _, err := LoadSystemPrompt(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestResultLine(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    string
	}{
		{"empty list", []int{}, "Function search_text returned: no results found (0 items)"},
		{"list", []string{"a"}, `Function search_text returned: ["a"]`},
		{"object", map[string]string{"error": "nope"}, `Function search_text returned: {"error":"nope"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResultLine("search_text", tt.payload); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFollowUp(t *testing.T) {
	got := FollowUp("base", []string{"l1", "l2"}, "", ClosingPlan)
	want := "base\n\nFunction Results:\nl1\nl2\n\n" + ClosingPlan
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	got = FollowUp("base", []string{"l1"}, "thinking", ClosingChat)
	if !strings.HasSuffix(got, ClosingChat+"\n\nOriginal response: thinking") {
		t.Errorf("expected original response suffix, got %q", got)
	}
}
