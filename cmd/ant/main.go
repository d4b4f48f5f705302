// Ant is a personal chat assistant backed by a local Ollama server.
//
// It keeps conversation history and a personal memory in SQLite under
// ~/.ant, learns about the user across sessions, and extends the model
// with tools for time, web search, page fetching, file operations,
// shell commands, and GitHub queries.
//
// Usage:
//
//	ant chat                 Start an interactive chat session
//	ant ask <question>       Ask a single question
//	ant status               Show session, model, and connection status
//	ant export               Export personal memory as JSON
//	ant auth <service> <tok> Store an access token for a service
//	ant version              Print version and build information
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nbdavies/ant/internal/buildinfo"
	"github.com/nbdavies/ant/internal/config"

	_ "github.com/mattn/go-sqlite3" // SQLite driver for database/sql
)

// main constructs the OS-level environment and delegates to run so the
// full lifecycle can be driven from tests.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point. Arguments are parsed by hand: the flag
// package relies on package-level globals, which makes it impossible
// to call run concurrently from tests, and the argument surface here
// is small enough that manual parsing stays clearer than a CLI
// framework.
func run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	var configPath string
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	switch command {
	case "chat":
		return runChat(ctx, stdout, stderr, configPath)
	case "ask":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: ant ask <question>")
		}
		return runAsk(ctx, stdout, stderr, configPath, strings.Join(cmdArgs, " "))
	case "status":
		return runStatus(ctx, stdout, stderr, configPath)
	case "export":
		return runExport(stdout, configPath)
	case "auth":
		return runAuth(stdout, configPath, cmdArgs)
	case "version":
		return runVersion(stdout)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Ant - Personal Assistant")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: ant [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  chat                  Start an interactive chat session")
	fmt.Fprintln(w, "  ask <question>        Ask a single question")
	fmt.Fprintln(w, "  status                Show session, model, and connection status")
	fmt.Fprintln(w, "  export                Export personal memory as JSON")
	fmt.Fprintln(w, "  auth <service> <tok>  Store an access token (e.g. ant auth github <token>)")
	fmt.Fprintln(w, "  auth revoke <service> Remove a stored token")
	fmt.Fprintln(w, "  version               Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>   Path to config file (default: ~/.ant/config.yaml)")
	return nil
}

// runVersion prints build metadata.
func runVersion(w io.Writer) error {
	fmt.Fprintln(w, buildinfo.String())
	info := buildinfo.Info()
	for _, k := range []string{"version", "git_commit", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// runExport dumps the personal memory store to stdout as JSON.
func runExport(stdout io.Writer, configPath string) error {
	a, err := newAssistant(configPath, newLogger(io.Discard, slog.LevelInfo))
	if err != nil {
		return err
	}
	defer a.close()

	export, err := a.store.ExportAll()
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(export)
}

// runAuth stores or revokes a service token in the config document.
func runAuth(stdout io.Writer, configPath string, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(io.Discard, slog.LevelInfo)
	mgr := newAuthManager(cfg, logger)

	switch {
	case len(args) == 0:
		services := mgr.Services()
		if len(services) == 0 {
			fmt.Fprintln(stdout, "No services authenticated.")
			return nil
		}
		for _, s := range services {
			fmt.Fprintf(stdout, "%s: authenticated\n", s)
		}
		return nil

	case args[0] == "revoke":
		if len(args) < 2 {
			return fmt.Errorf("usage: ant auth revoke <service>")
		}
		if err := mgr.Revoke(args[1]); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Removed %s token.\n", args[1])
		return nil

	case len(args) >= 2:
		service, token := args[0], args[1]
		if err := mgr.StoreToken(service, config.ServiceToken{
			AccessToken: token,
			TokenType:   "bearer",
		}); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Stored %s token.\n", service)
		return nil

	default:
		return fmt.Errorf("usage: ant auth <service> <token>")
	}
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
}

// loadConfig locates and reads the config file (./config.yaml, then
// ~/.ant/config.yaml), falling back to defaults when none exists yet.
// An explicit path that cannot be read is an error.
func loadConfig(explicit string) (*config.Config, error) {
	path, err := config.FindConfig(explicit)
	if err != nil {
		if explicit != "" {
			return nil, err
		}
		return config.LoadOrDefault(config.DefaultPath())
	}
	return config.Load(path)
}
