package personal

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Placeholder is returned by SynthesizeContext when nothing qualifies.
// Callers never receive an empty digest.
const Placeholder = "Still getting to know you."

// digestInsightLimit caps how many recent insights the digest considers.
const digestInsightLimit = 5

// Thresholds gate what surfaces in the digest. Facts below threshold
// stay in the store but out of the model's context, keeping
// low-confidence guesses from steering responses.
type Thresholds struct {
	Trait   float64 // minimum trait confidence
	Context float64 // minimum relationship-context importance
	Insight float64 // minimum insight confidence
}

// DefaultThresholds returns the stock gating policy.
func DefaultThresholds() Thresholds {
	return Thresholds{Trait: 0.7, Context: 0.6, Insight: 0.6}
}

// SynthesizeContext builds the natural-language digest injected into
// the system prompt: high-confidence traits grouped by category, the
// communication block from relationship context, and recent
// high-confidence insights. name is how the digest refers to the user.
func (s *Store) SynthesizeContext(name string, th Thresholds) (string, error) {
	if name == "" {
		name = "the user"
	}

	profile, err := s.GetProfile()
	if err != nil {
		return "", fmt.Errorf("synthesize context: %w", err)
	}

	var parts []string

	// Traits: one line per category, high-confidence entries only.
	var traitLines []string
	for _, category := range sortedKeys(profile.Traits) {
		var entries []string
		for _, t := range profile.Traits[category] {
			if t.Confidence > th.Trait {
				entries = append(entries, fmt.Sprintf("%s: %s", t.Name, t.Value))
			}
		}
		if len(entries) > 0 {
			traitLines = append(traitLines, fmt.Sprintf("- %s: %s", titleWords(category), strings.Join(entries, ", ")))
		}
	}
	if len(traitLines) > 0 {
		parts = append(parts, fmt.Sprintf("**%s's Personality:**", name))
		parts = append(parts, traitLines...)
	}

	// Communication habits from relationship context.
	var commLines []string
	for _, c := range profile.Context["communication"] {
		if c.Importance > th.Context {
			commLines = append(commLines, fmt.Sprintf("- %s: %s", titleWords(c.Key), c.Value))
		}
	}
	if len(commLines) > 0 {
		parts = append(parts, fmt.Sprintf("\n**How %s Communicates:**", name))
		parts = append(parts, commLines...)
	}

	// Recent high-confidence insights.
	recent, err := s.RecentInsights(digestInsightLimit)
	if err != nil {
		return "", fmt.Errorf("synthesize context: %w", err)
	}
	var insightLines []string
	for _, in := range recent {
		if in.Confidence > th.Insight {
			insightLines = append(insightLines, "- "+in.Text)
		}
	}
	if len(insightLines) > 0 {
		parts = append(parts, "\n**Recent Conversation Insights:**")
		parts = append(parts, insightLines...)
	}

	if len(parts) == 0 {
		return Placeholder, nil
	}
	return strings.Join(parts, "\n"), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// titleWords renders a snake_case key as spaced title case
// ("working_style" becomes "Working Style").
func titleWords(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == ' '
	})
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
