// Package model provides domain types shared across packages.
package model

import "time"

// Role identifies who authored a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Label returns the capitalised role name used when rendering transcripts.
func (r Role) Label() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// ToolRecord is the structured content of a message that carries a tool result.
type ToolRecord struct {
	Name   string         `json:"name"`
	Args   map[string]any `json:"args,omitempty"`
	Result any            `json:"result"`
}

// Message is one turn of conversation. Content holds plain text; Tool is set
// instead when the turn records a tool invocation.
type Message struct {
	Role    Role        `json:"role"`
	Content string      `json:"content"`
	Tool    *ToolRecord `json:"tool,omitempty"`
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// SystemMessage creates a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// TripForm is a structured trip request submitted on the first turn.
type TripForm struct {
	Origin          string `json:"origin,omitempty"`
	Destination     string `json:"destination"`
	StartDate       string `json:"start_date,omitempty"`
	EndDate         string `json:"end_date,omitempty"`
	Duration        int    `json:"duration,omitempty"`
	Season          string `json:"season,omitempty"`
	TravelMonths    string `json:"travel_months,omitempty"`
	TravelType      string `json:"travel_type,omitempty"`
	Budget          string `json:"budget,omitempty"`
	GroupSize       int    `json:"group_size,omitempty"`
	Accommodation   string `json:"accommodation,omitempty"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

// Itinerary is the generated plan kept on the session for saving.
type Itinerary struct {
	Prompt      string    `json:"user_prompt,omitempty"`
	Response    string    `json:"ai_response"`
	GeneratedAt time.Time `json:"generated_at"`
	Demo        bool      `json:"demo_mode,omitempty"`
}

// Place is the normalized shape of a location returned by place searches.
type Place struct {
	ID                     string   `json:"id"`
	Name                   string   `json:"name"`
	Latitude               float64  `json:"latitude"`
	Longitude              float64  `json:"longitude"`
	Address                string   `json:"address"`
	Rating                 float64  `json:"rating"`
	UserRatingsTotal       int      `json:"user_ratings_total"`
	PriceLevel             string   `json:"price_level"`
	MapsURL                string   `json:"maps_url"`
	PrimaryType            string   `json:"primary_type"`
	PrimaryTypeDisplayName string   `json:"primary_type_display_name"`
	WeekdayDescriptions    []string `json:"weekday_descriptions"`
}
