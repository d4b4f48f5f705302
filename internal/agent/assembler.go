// Package agent holds the per-turn context assembly and the chat
// loop that coordinates the model, the tools, and persistence.
package agent

import (
	"log/slog"

	"github.com/nbdavies/ant/internal/llm"
	"github.com/nbdavies/ant/internal/memory"
	"github.com/nbdavies/ant/internal/personal"
	"github.com/nbdavies/ant/internal/personality"
	"github.com/nbdavies/ant/internal/profile"
	"github.com/nbdavies/ant/internal/prompts"
	"github.com/nbdavies/ant/internal/tools"
)

// DefaultWindow is the history window used when none is configured.
const DefaultWindow = 8

// Assembler produces the message sequence sent to the model for a
// turn: system message first, then a bounded history window, then the
// new user message.
type Assembler struct {
	registry   *tools.Registry
	store      *personal.Store
	user       *profile.Profile
	persona    *personality.Formatter
	thresholds personal.Thresholds
	window     int
	logger     *slog.Logger
}

// NewAssembler wires the assembler. window bounds the history slice
// included per turn; <= 0 uses DefaultWindow.
func NewAssembler(registry *tools.Registry, store *personal.Store, user *profile.Profile, persona *personality.Formatter, thresholds personal.Thresholds, window int, logger *slog.Logger) *Assembler {
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		registry:   registry,
		store:      store,
		user:       user,
		persona:    persona,
		thresholds: thresholds,
		window:     window,
		logger:     logger,
	}
}

// Window returns the history window size.
func (a *Assembler) Window() int { return a.window }

// BuildSystemMessage composes identity framing, behavior rules, the
// tool list, and the personal-memory digest. Recomputed every turn
// because the digest can change between turns.
func (a *Assembler) BuildSystemMessage() string {
	name := a.user.DisplayName()
	out := prompts.SystemPrompt(a.persona.Style(), name, a.persona.Hints())

	if a.registry != nil && a.registry.Len() > 0 {
		out += "\n\n## Available Tools\n" + a.registry.Describe()
	}

	if a.store != nil {
		digest, err := a.store.SynthesizeContext(name, a.thresholds)
		if err != nil {
			a.logger.Warn("digest synthesis failed", "error", err)
		} else {
			out += "\n\n## What You Know About " + name + "\n" + digest
		}
	}

	return out
}

// BuildTurn returns [system] + up to the last window history entries
// + the new user message, in chronological order.
func (a *Assembler) BuildTurn(userMessage string, history []memory.StoredMessage) []llm.Message {
	if len(history) > a.window {
		history = history[len(history)-a.window:]
	}

	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: "system", Content: a.BuildSystemMessage()})
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: "user", Content: userMessage})
	return msgs
}
