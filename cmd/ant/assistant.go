package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nbdavies/ant/internal/agent"
	"github.com/nbdavies/ant/internal/auth"
	"github.com/nbdavies/ant/internal/config"
	"github.com/nbdavies/ant/internal/fetch"
	"github.com/nbdavies/ant/internal/forge"
	"github.com/nbdavies/ant/internal/httpkit"
	"github.com/nbdavies/ant/internal/llm"
	"github.com/nbdavies/ant/internal/memory"
	"github.com/nbdavies/ant/internal/personal"
	"github.com/nbdavies/ant/internal/personality"
	"github.com/nbdavies/ant/internal/profile"
	"github.com/nbdavies/ant/internal/search"
	"github.com/nbdavies/ant/internal/tools"
)

// assistant bundles everything a command needs: config, stores, the
// tool registry, and the chat loop. Constructed once per invocation
// and passed explicitly; there are no package-level singletons.
type assistant struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   *llm.OllamaClient
	convlog  *memory.Log
	store    *personal.Store
	registry *tools.Registry
	user     *profile.Profile
	persona  *personality.Formatter
	auth     *auth.Manager
	loop     *agent.Loop
}

func newAuthManager(cfg *config.Config, logger *slog.Logger) *auth.Manager {
	return auth.NewManager(cfg, logger)
}

// newAssistant loads config and wires the full dependency graph.
func newAssistant(configPath string, logger *slog.Logger) (*assistant, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.ResolvedDataDir(), 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	client := llm.NewOllamaClient(
		cfg.Ollama.BaseURL,
		time.Duration(cfg.Ollama.RequestTimeoutSec)*time.Second,
		logger,
	)

	convlog, err := memory.Open(cfg.ConversationDBPath(), logger)
	if err != nil {
		return nil, fmt.Errorf("open conversation log: %w", err)
	}
	convlog.SetAutoSave(cfg.Memory.AutoSave)

	store, err := personal.Open(cfg.PersonalMemoryDBPath(), logger)
	if err != nil {
		convlog.Close()
		return nil, fmt.Errorf("open personal memory: %w", err)
	}

	user := profile.Resolve(cfg.User)
	// Detected identity flows back into the config document so the
	// next Save (auth, setup) persists it.
	user.Fill(&cfg.User)
	persona := personality.New(cfg.Personality)
	authMgr := newAuthManager(cfg, logger)
	registry := buildRegistry(cfg, store, user, authMgr, logger)

	thresholds := personal.Thresholds{
		Trait:   cfg.Memory.TraitConfidenceCutoff,
		Context: cfg.Memory.ContextImportanceCutoff,
		Insight: cfg.Memory.InsightConfidenceCutoff,
	}
	asm := agent.NewAssembler(registry, store, user, persona, thresholds, cfg.Memory.MaxContextMessages, logger)
	loop := agent.NewLoop(logger, client, cfg.Ollama.Model, convlog, asm, registry)

	return &assistant{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		convlog:  convlog,
		store:    store,
		registry: registry,
		user:     user,
		persona:  persona,
		auth:     authMgr,
		loop:     loop,
	}, nil
}

func (a *assistant) close() {
	a.convlog.Close()
	a.store.Close()
}

// startSession opens a fresh conversation session keyed by start time.
func (a *assistant) startSession() error {
	id := time.Now().UTC().Format("2006-01-02T15:04:05")
	if err := a.convlog.LoadSession(id); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	return nil
}

// buildRegistry registers every tool group enabled by the config.
// Date/time and personal-learning tools are always on; the rest
// follow feature toggles.
func buildRegistry(cfg *config.Config, store *personal.Store, user *profile.Profile, authMgr *auth.Manager, logger *slog.Logger) *tools.Registry {
	r := tools.NewRegistry(logger)

	tools.NewDateTimeTools(user.Timezone).RegisterAll(r)
	store.RegisterTools(r)

	if cfg.Features.FileOperations {
		// SafeMode off lifts the allowed-roots restriction entirely.
		roots := []string{"/"}
		if cfg.System.SafeMode {
			roots = cfg.System.AllowedPaths
			if len(roots) == 0 && user.HomeDir != "" {
				roots = []string{user.HomeDir}
			}
		}
		ft := tools.NewFileTools(roots)
		if ft.Enabled() {
			ft.RegisterAll(r)
		} else {
			logger.Warn("file operations enabled but no usable allowed paths")
		}
	}

	if cfg.ShellExec.Enabled {
		tools.NewShellExec(cfg.ShellExec).RegisterAll(r)
	}

	if cfg.Features.WebSearch {
		mgr := search.NewManager("duckduckgo")
		mgr.Register(search.NewDuckDuckGo(""))
		search.RegisterTool(r, mgr)
	}

	if cfg.Features.WebFetch {
		fetch.RegisterTool(r, fetch.New())
	}

	if cfg.Features.GitIntegration {
		if token, err := authMgr.AccessToken("github"); err == nil {
			httpClient := httpkit.NewClient(httpkit.WithTimeout(30 * time.Second))
			gh, err := forge.NewGitHub(httpClient, token, "", logger)
			if err != nil {
				logger.Warn("github tools unavailable", "error", err)
			} else {
				gh.RegisterTools(r)
			}
		} else {
			logger.Debug("github integration enabled but not authenticated")
		}
	}

	return r
}
