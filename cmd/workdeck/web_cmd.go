package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/asheshgoplani/workdeck/internal/config"
	"github.com/asheshgoplani/workdeck/internal/engine"
	"github.com/asheshgoplani/workdeck/internal/logging"
	"github.com/asheshgoplani/workdeck/internal/nodes"
	"github.com/asheshgoplani/workdeck/internal/persist"
	"github.com/asheshgoplani/workdeck/internal/tmux"
	"github.com/asheshgoplani/workdeck/internal/web"
	"github.com/asheshgoplani/workdeck/internal/workspace"
)

// handleWeb loads the workspace and serves it until interrupted.
func handleWeb(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("web", flag.ExitOnError)
	listenAddr := fs.String("listen", cfg.Web.Listen, "Listen address for web server")
	readOnly := fs.Bool("read-only", cfg.Web.ReadOnly, "Run in read-only mode (mutations disabled)")
	token := fs.String("token", cfg.Web.Token, "Bearer token for API/WS access")
	verbose := fs.Bool("verbose", cfg.Logging.Debug, "Also log to stderr")

	fs.Usage = func() {
		fmt.Println("Usage: workdeck web [options]")
		fmt.Println()
		fmt.Println("Serve the workspace API and web UI.")
		fmt.Println()
		fmt.Println("Options:")
		fs.PrintDefaults()
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  workdeck web")
		fmt.Println("  workdeck web --listen 127.0.0.1:9000")
		fmt.Println("  workdeck -c ./dev.toml web --read-only")
	}

	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Error: unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		os.Exit(1)
	}

	logCloser, err := logging.Setup(logging.Options{
		File:       cfg.Resolve(cfg.Logging.File),
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.CompressLogs(),
		Echo:       *verbose,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	if err := runWeb(cfg, web.Config{
		ListenAddr: *listenAddr,
		ReadOnly:   *readOnly,
		Token:      *token,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWeb(cfg *config.Config, webCfg web.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	registry := nodes.NewRegistry(cfg.Dir)
	loaded, err := loadState(ctx, backend, registry)
	if err != nil {
		return err
	}
	if loaded.Migrated {
		log.Printf("[PERSIST] Upgraded saved state from version %d", loaded.FromVersion)
	}
	if loaded.Newer {
		log.Printf("[PERSIST] Saved state is version %d; the original is kept as a backup and changes are saved as version %d",
			loaded.FromVersion, persist.CurrentVersion)
	}

	// Releases and saves outlive the signal so shutdown does not cut them
	// short.
	eng := engine.New(workspace.NewStore(loaded.State),
		engine.WithReleaser(tmux.NewReleaser(cfg.Tmux.SessionPrefix, cfg.ReleaseTimeout())),
		engine.WithSaver(func(ctx context.Context, st *workspace.State) error {
			return persist.Save(ctx, backend, st)
		}),
	)
	defer eng.Wait()

	webCfg.Engine = eng
	webCfg.Nodes = registry
	server := web.NewServer(webCfg)

	mode := "read-write"
	if webCfg.ReadOnly {
		mode = "read-only"
	}
	st := eng.Snapshot()
	fmt.Printf("Starting workdeck on http://%s\n", webCfg.ListenAddr)
	fmt.Printf("Data: %s\n", cfg.Dir)
	fmt.Printf("Mode: %s\n", mode)
	fmt.Printf("Workspace: %d tabs, %d panes\n", st.TabCount(), st.PaneCount())
	if webCfg.Token != "" {
		fmt.Println("Auth: bearer token enabled")
		fmt.Println("Auth hint: open the UI with ?token=<your-token> or pass Authorization: Bearer <token> on API requests")
	}
	fmt.Println("Press Ctrl+C to stop.")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(); err != nil {
			return fmt.Errorf("web server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WEB] Shutdown error: %v", err)
		}
		return nil
	})

	if cfg.WatchLogs() {
		if err := startLogWatcher(gctx, g, cfg, eng); err != nil {
			log.Printf("[TMUX] Pane activity tracking disabled: %v", err)
		}
	}

	if cfg.MaintenanceEnabled() {
		done := persist.StartMaintenanceWorker(gctx, backend, cfg.MaintenanceInterval(), cfg.Maintenance.KeepBackups)
		g.Go(func() error {
			<-done
			return nil
		})
	}

	return g.Wait()
}

// startLogWatcher turns pane log writes into activity reports and forgets
// panes once the engine releases them.
func startLogWatcher(ctx context.Context, g *errgroup.Group, cfg *config.Config, eng *engine.Engine) error {
	dir := cfg.Resolve(cfg.Tmux.LogDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create pane log directory: %w", err)
	}
	watcher, err := tmux.NewLogWatcher(dir, func(paneID string) {
		eng.Do(func(st *workspace.Store) workspace.Outcome {
			return st.ReportActivity(paneID)
		})
	})
	if err != nil {
		return err
	}

	events, cancel := eng.Subscribe(64)
	g.Go(func() error {
		watcher.Start()
		return nil
	})
	g.Go(func() error {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return watcher.Close()
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				for _, id := range ev.Released {
					watcher.Forget(id)
				}
			}
		}
	})
	return nil
}
