// multichat TUI - A multi-provider terminal interface for LLM chat.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/jeranaias/multichat-tui/internal/catalog"
	"github.com/jeranaias/multichat-tui/internal/cli"
	"github.com/jeranaias/multichat-tui/internal/config"
	"github.com/jeranaias/multichat-tui/internal/provider"
	"github.com/jeranaias/multichat-tui/internal/session"
	"github.com/jeranaias/multichat-tui/internal/store"
	"github.com/jeranaias/multichat-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file (default ~/.multichat/config.toml)")
		plain       = flag.Bool("plain", false, "use the line-mode REPL instead of the full-screen TUI")
		modelID     = flag.String("model", "", "model id for the active conversation")
		theme       = flag.String("theme", "", "UI theme: dark, light, or auto")
		exportDir   = flag.String("export-dir", "", "directory for exported conversations and data files")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("multichat %s (%s, %s)\n", Version, GitCommit, BuildDate)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Flags override the config file.
	if *plain {
		cfg.UI.Plain = true
	}
	if *theme != "" {
		cfg.UI.Theme = *theme
	}
	if *exportDir != "" {
		cfg.UI.ExportDir = *exportDir
	}

	if err := run(cfg, *configPath, *modelID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config from the given path, or from the default
// location when path is empty. A missing file yields the defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// =============================================================================
// APPLICATION ASSEMBLY
// =============================================================================

// run wires storage, providers, and the catalog together and starts
// whichever frontend fits the terminal.
func run(cfg *config.Config, configPath, modelID string) error {
	kv, err := openKV(cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer kv.Close()

	ss := store.NewStateStore(kv)

	endpoints := cfg.ProviderEndpoints()
	client := provider.NewClient(endpoints).
		WithGeneration(cfg.Generation.MaxTokens, cfg.Generation.Temperature)
	if secs := cfg.Generation.TimeoutSecs; secs > 0 && time.Duration(secs)*time.Second != provider.DefaultTimeout {
		client = client.WithHTTPClient(&http.Client{Timeout: time.Duration(secs) * time.Second})
	}

	mgr := session.NewManager(ss, client)

	// Config keys override persisted keys per provider; persisted keys
	// survive for providers the config leaves blank.
	mgr.SetKeys(mergeKeys(mgr.Keys(), cfg.ProviderKeys()))

	switch {
	case modelID != "":
		mgr.SetModel(modelID)
	case cfg.DefaultModel != "":
		if cur := mgr.Current(); cur != nil && cur.Model == "" {
			mgr.SetModel(cfg.DefaultModel)
		}
	}
	if mgr.Theme() == "" || cfg.UI.Theme != "" {
		mgr.SetTheme(cfg.UI.Theme)
	}

	fetcher := catalog.NewFetcher(endpoints)
	cache := catalog.NewCache(ss.KV())

	// RELIABILITY: Live config reload keeps edited API keys usable
	// without a restart. Watch failures are non-fatal.
	if w := watchConfig(configPath, mgr); w != nil {
		defer w.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.UI.Plain || !term.IsTerminal(int(os.Stdout.Fd())) {
		return runREPL(ctx, cfg, mgr, fetcher, cache)
	}
	return runTUI(mgr, fetcher, cache, cfg.UI.ExportDir)
}

// openKV opens the configured storage backend.
func openKV(cfg *config.Config) (store.KV, error) {
	dataDir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}
	switch cfg.Storage.Backend {
	case "sqlite":
		return store.NewSQLiteKV(filepath.Join(dataDir, "state.db"))
	default:
		return store.NewFileKV(dataDir)
	}
}

// mergeKeys overlays non-empty config keys onto the persisted key set.
func mergeKeys(persisted, fromConfig provider.Keys) provider.Keys {
	merged := provider.Keys{}
	for p, k := range persisted {
		merged[p] = k
	}
	for p, k := range fromConfig {
		merged[p] = k
	}
	return merged
}

// watchConfig starts the config file watcher, feeding key changes into
// the running session. Returns nil when watching is unavailable.
func watchConfig(configPath string, mgr *session.Manager) *config.Watcher {
	path := configPath
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return nil
		}
		path = p
	}

	w, err := config.NewWatcher(path, func(c *config.Config) {
		mgr.SetKeys(mergeKeys(mgr.Keys(), c.ProviderKeys()))
	})
	if err != nil {
		return nil
	}
	if err := w.Watch(); err != nil {
		w.Close()
		return nil
	}
	return w
}

// =============================================================================
// FRONTENDS
// =============================================================================

// runREPL resolves the model catalog up front (the REPL has no message
// loop to deliver it later) and drives the line-mode chat.
func runREPL(ctx context.Context, cfg *config.Config, mgr *session.Manager, fetcher *catalog.Fetcher, cache *catalog.Cache) error {
	fetchCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	mgr.SetCatalog(catalog.Resolve(func() catalog.Catalog {
		return fetcher.Fetch(fetchCtx, mgr.Keys())
	}, cache))

	return cli.NewREPL(mgr, cfg.UI.ExportDir).Run(ctx)
}

// runTUI starts the full-screen Bubble Tea interface.
func runTUI(mgr *session.Manager, fetcher *catalog.Fetcher, cache *catalog.Cache, exportDir string) error {
	p := tea.NewProgram(
		chat.New(mgr, fetcher, cache, exportDir),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
