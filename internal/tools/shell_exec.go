package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/nbdavies/ant/internal/config"
)

// maxExecTimeout caps any caller-supplied timeout.
const maxExecTimeout = 5 * time.Minute

// ShellExec runs shell commands under a deny-list, an optional
// allow-prefix list, and a timeout.
type ShellExec struct {
	enabled         bool
	workingDir      string
	deniedPatterns  []string
	allowedPrefixes []string
	defaultTimeout  time.Duration
	maxOutputBytes  int
}

// NewShellExec builds the executor from config. Execution stays
// disabled unless the config enables it.
func NewShellExec(cfg config.ShellExecConfig) *ShellExec {
	timeout := time.Duration(cfg.DefaultTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ShellExec{
		enabled:         cfg.Enabled,
		workingDir:      cfg.WorkingDir,
		deniedPatterns:  cfg.DeniedPatterns,
		allowedPrefixes: cfg.AllowedPrefixes,
		defaultTimeout:  timeout,
		maxOutputBytes:  100 * 1024,
	}
}

// Enabled reports whether shell execution is available.
func (s *ShellExec) Enabled() bool {
	return s.enabled
}

// ExecResult contains the result of a command execution.
type ExecResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
	TimedOut bool   `json:"timed_out,omitempty"`
}

// Exec runs a shell command. Deny-list and allow-prefix checks happen
// before any process is spawned; a rejected command never executes.
func (s *ShellExec) Exec(ctx context.Context, command string, timeoutSec int) (*ExecResult, error) {
	if !s.enabled {
		return nil, &AccessDeniedError{Reason: "shell execution is disabled"}
	}

	cmdLower := strings.ToLower(command)
	for _, denied := range s.deniedPatterns {
		if strings.Contains(cmdLower, strings.ToLower(denied)) {
			return nil, &AccessDeniedError{
				Reason: fmt.Sprintf("command matches denied pattern %q", denied),
			}
		}
	}

	if len(s.allowedPrefixes) > 0 {
		allowed := false
		for _, prefix := range s.allowedPrefixes {
			if strings.HasPrefix(command, prefix) {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, &AccessDeniedError{Reason: "command not in allowed prefixes"}
		}
	}

	timeout := s.defaultTimeout
	if timeoutSec > 0 {
		timeout = time.Duration(timeoutSec) * time.Second
	}
	if timeout > maxExecTimeout {
		timeout = maxExecTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	if s.workingDir != "" {
		cmd.Dir = s.workingDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &ExecResult{
		Stdout: truncateOutput(stdout.String(), s.maxOutputBytes),
		Stderr: truncateOutput(stderr.String(), s.maxOutputBytes),
	}

	if ctx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		result.ExitCode = -1
		return result, nil
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			return nil, fmt.Errorf("run command: %w", err)
		}
	}

	return result, nil
}

// RegisterAll adds the shell tool to the registry.
func (s *ShellExec) RegisterAll(r *Registry) {
	r.Register(&Tool{
		Name:        "run_command",
		Description: "Run a shell command and return its output, exit code, and whether it timed out",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command": map[string]any{
					"type":        "string",
					"description": "The shell command to run",
				},
				"timeout_sec": map[string]any{
					"type":        "integer",
					"description": "Timeout in seconds (default 30, max 300)",
				},
			},
			"required": []string{"command"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			command := StringArg(args, "command")
			if command == "" {
				return "", fmt.Errorf("command is required")
			}

			result, err := s.Exec(ctx, command, IntArg(args, "timeout_sec", 0))
			if err != nil {
				return "", err
			}

			out, err := json.Marshal(result)
			if err != nil {
				return "", fmt.Errorf("encode result: %w", err)
			}
			return string(out), nil
		},
	})
}

func truncateOutput(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	return s[:maxBytes] + "\n\n[... output truncated ...]"
}
