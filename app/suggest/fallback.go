package suggest

// Canned suggestions served whenever the LLM provider is unavailable,
// misconfigured, or returns something unusable. Suggestion delivery never
// blocks on the provider.
var fallbackSuggestions = []Suggestion{
	{
		Text:      "Great insights! Thanks for sharing your perspective on this.",
		Approach:  "appreciative",
		Reasoning: "A safe, positive acknowledgement that fits most posts.",
	},
	{
		Text:      "This really resonates with my own experience. What led you to this approach?",
		Approach:  "curious",
		Reasoning: "Asking a question invites the author to continue the conversation.",
	},
	{
		Text:      "Well said. The point about consistency especially stands out to me.",
		Approach:  "specific",
		Reasoning: "Referencing a concrete element signals the comment is not generic.",
	},
}

func Fallback() []Suggestion {
	out := make([]Suggestion, len(fallbackSuggestions))
	copy(out, fallbackSuggestions)
	return out
}
