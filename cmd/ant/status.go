package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/nbdavies/ant/internal/llm"
)

// runStatus reports endpoint reachability, model info, recent
// sessions, and authenticated services.
func runStatus(ctx context.Context, stdout, stderr io.Writer, configPath string) error {
	logger := newLogger(stderr, slog.LevelWarn)

	a, err := newAssistant(configPath, logger)
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Fprintf(stdout, "Endpoint:  %s\n", a.cfg.Ollama.BaseURL)
	if err := a.client.Ping(ctx); err != nil {
		fmt.Fprintln(stdout, "Status:    disconnected")
	} else {
		fmt.Fprintln(stdout, "Status:    connected")
	}

	// Model info degrades to "Unknown" on any failure; status never
	// errors because the server is down.
	info, err := a.client.ShowModel(ctx, a.cfg.Ollama.Model)
	if err != nil {
		info = &llm.ModelInfo{
			Name:          a.cfg.Ollama.Model,
			Family:        "Unknown",
			ParameterSize: "Unknown",
			Quantization:  "Unknown",
		}
	}
	fmt.Fprintf(stdout, "Model:     %s\n", info.Name)
	fmt.Fprintf(stdout, "  family:        %s\n", info.Family)
	fmt.Fprintf(stdout, "  parameters:    %s\n", info.ParameterSize)
	fmt.Fprintf(stdout, "  quantization:  %s\n", info.Quantization)

	fmt.Fprintf(stdout, "Tools:     %d registered\n", a.registry.Len())

	if services := a.auth.Services(); len(services) > 0 {
		fmt.Fprintf(stdout, "Auth:      %v\n", services)
	}

	sessions, err := a.convlog.RecentSessions(5)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(sessions) > 0 {
		fmt.Fprintln(stdout, "\nRecent sessions:")
		for _, s := range sessions {
			fmt.Fprintf(stdout, "  %s  %3d messages  last active %s\n",
				s.SessionID, s.MessageCount, s.LastActive.Local().Format("2006-01-02 15:04"))
		}
	}

	return nil
}
