package genai

import (
	"fmt"
	"strings"

	"github.com/terplogapp/terplog-server/internal/domain"
)

const (
	effectsSystemPrompt = "You are a knowledgeable budtender. Summarize likely effects " +
		"of cannabis products in two or three friendly sentences. Never give medical advice."

	suggestSystemPrompt = "You are a knowledgeable budtender. Suggest cannabis strains " +
		"matching the user's preferences. Reply with a short list, one strain per line, " +
		"each with a one-sentence reason. Never give medical advice."
)

// EffectsPrompt builds the prompt pair for a review's effects summary.
func EffectsPrompt(review *domain.Review) (system, user string) {
	var b strings.Builder

	fmt.Fprintf(&b, "Summarize the likely effects of this product.\n")
	fmt.Fprintf(&b, "Strain: %s\n", review.Strain)
	if review.Type != "" {
		fmt.Fprintf(&b, "Type: %s\n", review.Type)
	}
	if review.ProductType != "" {
		fmt.Fprintf(&b, "Product: %s\n", review.ProductType)
	}
	if review.Potency != "" {
		fmt.Fprintf(&b, "Potency: %s\n", review.Potency)
	}
	if len(review.Terpenes) > 0 {
		fmt.Fprintf(&b, "Terpenes: %s\n", strings.Join(review.Terpenes, ", "))
	}
	if review.Effects != "" {
		fmt.Fprintf(&b, "Reported effects: %s\n", review.Effects)
	}

	return effectsSystemPrompt, b.String()
}

// SuggestPrompt builds the prompt pair for strain suggestions from
// free-form user preferences.
func SuggestPrompt(preferences string) (system, user string) {
	return suggestSystemPrompt, fmt.Sprintf(
		"Suggest up to five strains for someone with these preferences: %s", preferences)
}
