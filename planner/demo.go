package planner

import (
	"fmt"
	"strings"

	"github.com/richinex/tripsense/model"
)

// demoItinerary is the templated plan returned when no model is configured.
func demoItinerary(form model.TripForm) string {
	destination := form.Destination
	if destination == "" {
		destination = "your destination"
	}
	duration := "N/A"
	if form.Duration > 0 {
		duration = fmt.Sprint(form.Duration)
	}
	travelType := form.TravelType
	if travelType == "" {
		travelType = "Mixed Experience"
	}
	budget := form.Budget
	if budget == "" {
		budget = "Medium Budget"
	}
	focus, _, _ := strings.Cut(travelType, "&")

	return fmt.Sprintf(`*Note: This is a demo response. Configure your Gemini API key for personalized AI-powered recommendations.*
# %[1]s-Day Trip to %[2]s

## Day 1: Arrival & Exploration
- **Morning**: Arrive and check into accommodation
- **Afternoon**: Explore the city center and main attractions
- **Evening**: Try local cuisine at a recommended restaurant

## Day 2: %[3]s Focus
- **Morning**: Visit top-rated attractions based on your %[4]s preference
- **Afternoon**: Continue exploring with %[5]s options
- **Evening**: Relax and enjoy local entertainment

*For a fully personalized itinerary with real-time recommendations, weather updates, and booking links, please configure your Gemini API key.*

**Budget Estimate**: Varies based on your %[5]s preference
**Best Time to Visit**: Check local weather and seasonal recommendations
**Transportation**: Local transport options available

Would you like me to help you refine any part of this itinerary?`,
		duration, destination, strings.TrimSpace(focus), strings.ToLower(travelType), strings.ToLower(budget))
}

// topic is one keyword-triggered canned reply.
type topic struct {
	keywords []string
	reply    string
}

var conversationalTopics = []topic{
	{
		keywords: []string{"plan", "trip", "travel", "visit", "go to"},
		reply:    "I'd be happy to help you plan your trip! Could you tell me more about where you'd like to go and what kind of experience you're looking for?",
	},
	{
		keywords: []string{"recommend", "suggest", "best", "good"},
		reply:    "I can definitely provide recommendations! What specifically are you looking for - restaurants, attractions, hotels, or something else?",
	},
	{
		keywords: []string{"where", "what", "how", "when"},
		reply:    "Great question! I'm here to help with travel planning and recommendations. What would you like to know more about?",
	},
	{
		keywords: []string{"save", "store", "keep"},
		reply:    "I can help you save your trip! Just let me know what you'd like to name your trip and I'll save it for you.",
	},
	{
		keywords: []string{"hotel", "restaurant", "food", "eat", "stay", "accommodation"},
		reply:    "I can help you find great options for that! Could you let me know which city or area you're interested in?",
	},
	{
		keywords: []string{"weather", "climate", "temperature"},
		reply:    "Weather is definitely important for trip planning! Which destination are you curious about?",
	},
}

const defaultConversational = "I'm here to help you plan amazing trips! Feel free to ask me about destinations, recommendations, or anything travel-related. What would you like to explore?"

var (
	saveWords = []string{"save", "store", "keep"}
	tripWords = []string{"trip", "itinerary", "plan"}
)

// demoChat answers a chat message without a model. First matching topic wins.
func demoChat(message string, hasTrip bool) string {
	lower := strings.ToLower(message)

	if containsAny(lower, saveWords) && containsAny(lower, tripWords) {
		if hasTrip {
			return "I can save your trip! However, you'll need to configure your Gemini API key for the AI to automatically handle save requests. For now, you can use the 'Save Itinerary' button or visit the Saved Trips page."
		}
		return "I'd be happy to save a trip for you, but you'll need to create a trip first! Please generate a trip plan and then I can help you save it."
	}

	return conversationalReply(lower)
}

func conversationalReply(lower string) string {
	for _, t := range conversationalTopics {
		if containsAny(lower, t.keywords) {
			return t.reply
		}
	}
	return defaultConversational
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
