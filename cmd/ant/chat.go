package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/nbdavies/ant/internal/llm"
	"github.com/nbdavies/ant/internal/personal"
	"github.com/nbdavies/ant/internal/profile"
)

var (
	youStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	antStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	dimStyle = lipgloss.NewStyle().Faint(true)
	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// markdownRenderer wraps glamour with graceful degradation: if the
// renderer cannot be built or fails, replies print as plain text.
type markdownRenderer struct {
	r *glamour.TermRenderer
}

func newMarkdownRenderer() *markdownRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return &markdownRenderer{}
	}
	return &markdownRenderer{r: r}
}

func (m *markdownRenderer) render(md string) string {
	if m.r == nil {
		return md
	}
	out, err := m.r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSuffix(out, "\n")
}

// runAsk answers a single question and exits.
func runAsk(ctx context.Context, stdout, stderr io.Writer, configPath, question string) error {
	logger := newLogger(stderr, slog.LevelWarn)

	a, err := newAssistant(configPath, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.startSession(); err != nil {
		return err
	}

	reply, err := a.loop.Run(ctx, question)
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	fmt.Fprintln(stdout, reply)
	return nil
}

// runChat starts the interactive session. The loop reads lines on a
// goroutine so a canceled context (Ctrl-C) still exits promptly, and
// the session's last-active timestamp is flushed on the way out.
func runChat(ctx context.Context, stdout, stderr io.Writer, configPath string) error {
	logger := newLogger(stderr, slog.LevelWarn)

	a, err := newAssistant(configPath, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.startSession(); err != nil {
		return err
	}

	md := newMarkdownRenderer()

	fmt.Fprintln(stdout, antStyle.Render("Ant"))
	fmt.Fprintln(stdout, md.render(greeting(a.user, time.Now())+"\n\n"+a.persona.Welcome()))

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	defer a.endSession(stdout)

	for {
		fmt.Fprint(stdout, "\n"+youStyle.Render("You")+" > ")

		var input string
		var open bool
		select {
		case <-ctx.Done():
			fmt.Fprintln(stdout)
			return nil
		case input, open = <-lines:
			if !open {
				return nil
			}
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := a.handleCommand(ctx, stdout, md, input); quit {
				return nil
			}
			continue
		}

		fmt.Fprintln(stdout, dimStyle.Render(a.persona.Thinking()))

		reply, err := a.loop.Run(ctx, input)
		if err != nil {
			// Unexpected failure: apologize and keep the session alive.
			a.logger.Error("turn failed", "error", err)
			fmt.Fprintln(stdout, errStyle.Render(a.persona.Error(err.Error())))
			continue
		}

		fmt.Fprintln(stdout, "\n"+antStyle.Render("Ant"))
		fmt.Fprintln(stdout, md.render(reply))
	}
}

// greeting opens the chat with a time-of-day salutation.
func greeting(user *profile.Profile, now time.Time) string {
	return fmt.Sprintf("Good %s, %s!", profile.TimeOfDay(now), user.DisplayName())
}

// handleCommand dispatches a slash command. Returns true to quit.
func (a *assistant) handleCommand(ctx context.Context, stdout io.Writer, md *markdownRenderer, input string) bool {
	switch strings.ToLower(input) {
	case "/quit", "/exit", "/bye":
		return true

	case "/help":
		fmt.Fprintln(stdout, md.render(chatHelp))

	case "/clear":
		if err := a.convlog.Clear(); err != nil {
			fmt.Fprintln(stdout, errStyle.Render("Could not clear the conversation: "+err.Error()))
		} else {
			fmt.Fprintln(stdout, dimStyle.Render("Conversation cleared."))
		}

	case "/status":
		a.printSessionStatus(ctx, stdout, md)

	default:
		fmt.Fprintln(stdout, dimStyle.Render("Unknown command. Try /help."))
	}
	return false
}

const chatHelp = `**Ant Commands:**

- Just type naturally - I'm here to help!
- ` + "`/help`" + ` - Show this help message
- ` + "`/clear`" + ` - Clear conversation history
- ` + "`/status`" + ` - Show session status
- ` + "`/quit`" + ` or ` + "`/exit`" + ` - End conversation

**Tips:**

- I remember our conversation throughout this session
- Ask me about code, files, or anything else
- I can help with development tasks and general questions`

// printSessionStatus renders the in-chat /status view.
func (a *assistant) printSessionStatus(ctx context.Context, stdout io.Writer, md *markdownRenderer) {
	stats, err := a.convlog.Stats()
	if err != nil {
		fmt.Fprintln(stdout, errStyle.Render("Could not read session stats: "+err.Error()))
		return
	}

	connected := "connected"
	if err := a.client.Ping(ctx); err != nil {
		connected = "disconnected"
	}

	status := fmt.Sprintf(`**Session:**

- Messages: %d
- Started: %s
- Model: %s (%s)
- Tools: %d registered`,
		stats.MessageCount,
		stats.StartTime.Local().Format("2006-01-02 15:04:05"),
		a.cfg.Ollama.Model,
		connected,
		a.registry.Len(),
	)
	fmt.Fprintln(stdout, md.render(status))
}

// endSession flushes last-active and records a session summary so the
// personal memory keeps a trace of every conversation.
func (a *assistant) endSession(stdout io.Writer) {
	fmt.Fprintln(stdout, dimStyle.Render("Goodbye! Thanks for chatting with Ant!"))

	if err := a.convlog.SaveSession(); err != nil {
		a.logger.Warn("session flush failed", "error", err)
	}

	stats, err := a.convlog.Stats()
	if err != nil || stats.MessageCount == 0 {
		return
	}
	sum := personal.SessionSummary{
		SessionID: a.convlog.SessionID(),
		Topic:     a.summarizeTopic(),
		Quality:   fmt.Sprintf("%d messages", stats.MessageCount),
	}
	if err := a.store.LogSessionSummary(sum); err != nil {
		a.logger.Warn("session summary failed", "error", err)
	}
}

// summarizeTopic asks the completion model for a short label of what
// the session was about. Any failure degrades to a generic label; a
// session summary is never worth blocking shutdown on.
func (a *assistant) summarizeTopic() string {
	const fallback = "chat session"

	history, err := a.convlog.RecentMessages(6)
	if err != nil || len(history) == 0 {
		return fallback
	}
	var b strings.Builder
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}

	// The chat context may already be canceled (Ctrl-C); use a fresh
	// short deadline instead.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	resp, err := a.client.Chat(ctx, a.cfg.CompletionModelOrDefault(), []llm.Message{
		{Role: "system", Content: "Summarize the conversation topic in five words or fewer. Reply with the topic only."},
		{Role: "user", Content: b.String()},
	}, nil)
	if err != nil {
		a.logger.Debug("topic summary failed", "error", err)
		return fallback
	}
	if topic := strings.TrimSpace(resp.Message.Content); topic != "" {
		return topic
	}
	return fallback
}
