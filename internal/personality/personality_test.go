package personality

import (
	"strings"
	"testing"

	"github.com/nbdavies/ant/internal/config"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"helpful_friend", "helpful_friend"},
		{"professional_assistant", "professional_assistant"},
		{"casual_buddy", "casual_buddy"},
		{"", DefaultStyle},
		{"pirate", DefaultStyle},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWelcomePerStyle(t *testing.T) {
	for _, style := range Styles {
		f := New(config.PersonalityConfig{Style: style})
		w := f.Welcome()
		if w == "" {
			t.Errorf("style %s: empty welcome", style)
		}
		if !strings.Contains(w, "Ant") {
			t.Errorf("style %s: welcome missing assistant name: %q", style, w)
		}
	}
}

func TestErrorPhrasing(t *testing.T) {
	tests := []struct {
		style string
		want  string
	}{
		{"helpful_friend", "Sorry about that!"},
		{"professional_assistant", "I apologize"},
		{"casual_buddy", "Oops!"},
	}
	for _, tt := range tests {
		f := New(config.PersonalityConfig{Style: tt.style})
		got := f.Error("boom")
		if !strings.HasPrefix(got, tt.want) {
			t.Errorf("style %s: Error = %q, want prefix %q", tt.style, got, tt.want)
		}
		if !strings.Contains(got, "boom") {
			t.Errorf("style %s: Error dropped the message: %q", tt.style, got)
		}
	}
}

func TestThinkingPerStyle(t *testing.T) {
	seen := make(map[string]bool)
	for _, style := range Styles {
		f := New(config.PersonalityConfig{Style: style})
		msg := f.Thinking()
		if msg == "" {
			t.Errorf("style %s: empty thinking message", style)
		}
		if seen[msg] {
			t.Errorf("style %s: duplicate thinking message %q", style, msg)
		}
		seen[msg] = true
	}
}

func TestHints(t *testing.T) {
	f := New(config.PersonalityConfig{Verbosity: "brief", Formality: "formal"})
	hints := f.Hints()
	if !strings.Contains(hints, "short") || !strings.Contains(hints, "formal tone") {
		t.Errorf("hints = %q", hints)
	}

	f = New(config.PersonalityConfig{Verbosity: "normal", Formality: "neutral"})
	if got := f.Hints(); got != "" {
		t.Errorf("neutral settings produced hints: %q", got)
	}
}
