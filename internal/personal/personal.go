// Package personal is the long-term memory store: structured,
// confidence-weighted facts about the user accumulated across sessions,
// and the synthesis of those facts into a short digest for the model's
// system context.
package personal

import "time"

// Trait is a labeled personality observation. Unique on
// (category, name); re-recording updates value, confidence, and
// LastUpdated but preserves FirstObserved.
type Trait struct {
	Category      string    `json:"category"`
	Name          string    `json:"name"`
	Value         string    `json:"value"`
	Confidence    float64   `json:"confidence"`
	FirstObserved time.Time `json:"first_observed"`
	LastUpdated   time.Time `json:"last_updated"`
	Notes         string    `json:"notes,omitempty"`
}

// Preference is a behavioral preference with optional reasoning.
// Unique on (category, name) with the same upsert contract as Trait.
type Preference struct {
	Category      string    `json:"category"`
	Name          string    `json:"name"`
	Value         string    `json:"value"`
	Reasoning     string    `json:"reasoning,omitempty"`
	Confidence    float64   `json:"confidence"`
	FirstNoted    time.Time `json:"first_noted"`
	LastConfirmed time.Time `json:"last_confirmed"`
}

// ContextEntry records how the assistant and user relate (communication
// habits, standing goals). Unique on (type, key); plain overwrite, no
// history preserved.
type ContextEntry struct {
	Type        string    `json:"type"`
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Importance  float64   `json:"importance"`
	LastUpdated time.Time `json:"last_updated"`
}

// Insight is a free-text observation from one conversation. Append-only;
// every record call creates a new row.
type Insight struct {
	SessionDate string    `json:"session_date"`
	Type        string    `json:"type"`
	Text        string    `json:"text"`
	Context     string    `json:"context,omitempty"`
	Confidence  float64   `json:"confidence"`
	Timestamp   time.Time `json:"timestamp"`
}

// SessionSummary is a per-session roll-up written when a conversation
// ends.
type SessionSummary struct {
	SessionID           string    `json:"session_id"`
	Timestamp           time.Time `json:"timestamp"`
	Topic               string    `json:"topic,omitempty"`
	KeyInsights         string    `json:"key_insights,omitempty"`
	Mood                string    `json:"mood,omitempty"`
	Quality             string    `json:"quality,omitempty"`
	LearnedSomethingNew bool      `json:"learned_something_new"`
}

// Profile is the aggregated view of everything learned, grouped for
// callers that filter by confidence or importance themselves.
type Profile struct {
	Traits      map[string][]Trait        `json:"personality_traits"`
	Preferences map[string][]Preference   `json:"personal_preferences"`
	Context     map[string][]ContextEntry `json:"relationship_context"`
}
