// Package personality shapes the assistant's voice. Each style has
// its own welcome banner, error phrasing, and thinking indicator;
// verbosity and formality feed the system prompt as hints.
package personality

import (
	"fmt"

	"github.com/nbdavies/ant/internal/config"
)

// DefaultStyle is used when an unknown style is configured.
const DefaultStyle = "helpful_friend"

// Styles lists the supported persona styles.
var Styles = []string{"helpful_friend", "professional_assistant", "casual_buddy"}

// Formatter renders user-facing strings in the configured persona.
type Formatter struct {
	style     string
	verbosity string
	formality string
}

// New creates a formatter from personality settings. Unknown styles
// fall back to DefaultStyle.
func New(cfg config.PersonalityConfig) *Formatter {
	return &Formatter{
		style:     Normalize(cfg.Style),
		verbosity: cfg.Verbosity,
		formality: cfg.Formality,
	}
}

// Normalize maps an arbitrary style string to a supported one.
func Normalize(style string) string {
	for _, s := range Styles {
		if style == s {
			return s
		}
	}
	return DefaultStyle
}

// Style returns the active persona style.
func (f *Formatter) Style() string { return f.style }

var welcomes = map[string]string{
	"helpful_friend": `Hey there! I'm Ant, your personal assistant.

I'm here to help with coding, answer questions, manage files, or just have a chat. The more we talk, the better I get at understanding what you need!

What would you like to work on today?`,

	"professional_assistant": `Good day! I am Ant, your personal assistant.

I am designed to assist with development tasks, code analysis, file management, and general inquiries. My capabilities improve through our interactions.

How may I assist you today?`,

	"casual_buddy": `Hey! Ant here, ready to help out!

Whether you need help with code, want to chat about a project, or need me to handle some files - I'm your buddy. I learn as we go, so I'll get better at helping YOU specifically.

What's up?`,
}

// Welcome returns the greeting shown when a chat session starts.
func (f *Formatter) Welcome() string {
	return welcomes[f.style]
}

// Error wraps an error message in the persona's apology phrasing.
func (f *Formatter) Error(msg string) string {
	switch f.style {
	case "professional_assistant":
		return fmt.Sprintf("I apologize, but I encountered an issue: %s", msg)
	case "casual_buddy":
		return fmt.Sprintf("Oops! Hit a snag: %s", msg)
	default:
		return fmt.Sprintf("Sorry about that! I ran into an issue: %s", msg)
	}
}

// Thinking returns the indicator shown while waiting on the model.
func (f *Formatter) Thinking() string {
	switch f.style {
	case "professional_assistant":
		return "Processing your request..."
	case "casual_buddy":
		return "Thinking... give me a sec!"
	default:
		return "Let me think about that..."
	}
}

// Hints describes verbosity and formality for the system prompt.
// Empty settings produce no hint.
func (f *Formatter) Hints() string {
	var hints string
	switch f.verbosity {
	case "brief":
		hints = "Keep responses short and to the point."
	case "detailed":
		hints = "Give thorough, detailed responses."
	}
	switch f.formality {
	case "formal":
		if hints != "" {
			hints += " "
		}
		hints += "Use a formal tone."
	case "casual":
		if hints != "" {
			hints += " "
		}
		hints += "Keep the tone casual and friendly."
	}
	return hints
}
