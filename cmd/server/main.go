// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"gorm.io/gorm/logger"

	"github.com/trailmind/trailmind/internal/ai"
	"github.com/trailmind/trailmind/internal/aicache"
	"github.com/trailmind/trailmind/internal/backup"
	"github.com/trailmind/trailmind/internal/config"
	"github.com/trailmind/trailmind/internal/journal"
	"github.com/trailmind/trailmind/internal/ratelimit"
	"github.com/trailmind/trailmind/internal/server"
	"github.com/trailmind/trailmind/internal/tools"
	"github.com/trailmind/trailmind/pkg/scheduler"
)

// Version is set at build time via ldflags (e.g. -X main.Version={{.Version}}).
var Version string

func main() {
	// CRITICAL: MCP servers must ONLY output JSON-RPC to stdout
	// Redirect all logging to stderr
	log.SetOutput(os.Stderr)

	httpMode := flag.Bool("http", false, "Run in HTTP server mode (default: stdio for MCP)")
	configPath := flag.String("config", "", "Path to config file")
	storePath := flag.String("store", "", "Path to the journal store file")
	port := flag.Int("port", 0, "Server port (HTTP mode only)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "TrailMind Journal Server\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Server Mode:\n")
		fmt.Fprintf(os.Stderr, "  %s          Start MCP server (stdio)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --http   Start HTTP API server for the web UI\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  OPENAI_API_KEY   Upstream API key for AI analysis\n")
		fmt.Fprintf(os.Stderr, "  OPENAI_MODEL     Upstream model (default: gpt-4o-mini)\n")
		fmt.Fprintf(os.Stderr, "  PORT             Server port (HTTP mode only)\n")
	}

	flag.Parse()

	log.Println("Starting TrailMind server...")

	cfg := loadConfig(*configPath)
	applyOverrides(cfg, *storePath, *port)

	manager, repo := openJournal(cfg)

	if *httpMode {
		log.Println("Running in HTTP server mode")
		runHTTPMode(cfg, manager, repo)
	} else {
		log.Println("Running in stdio mode (MCP)")
		runStdioMode(manager)
	}
}

func loadConfig(path string) *config.Config {
	if path != "" {
		cfg, err := config.LoadFromPath(path)
		if err != nil {
			log.Printf("Warning: Failed to load config from %s: %v", path, err)
			log.Println("Using defaults")
			return config.DefaultConfig()
		}
		log.Printf("Loaded configuration from %s", path)
		return cfg
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Failed to load default config: %v", err)
		log.Println("Using built-in defaults")
		return config.DefaultConfig()
	}
	return cfg
}

// applyOverrides applies CLI flag and environment overrides to configuration
func applyOverrides(cfg *config.Config, storePath string, port int) {
	if storePath != "" {
		cfg.Store.Path = storePath
		log.Printf("Store path from CLI: %s", storePath)
	}
	if port > 0 {
		cfg.Server.Port = port
		log.Printf("Port from CLI: %d", port)
	}
	if portStr := os.Getenv("PORT"); portStr != "" && port == 0 {
		if p, err := strconv.Atoi(portStr); err == nil {
			cfg.Server.Port = p
			log.Printf("Port from ENV: %d", p)
		}
	}
}

// openJournal opens the journal store, wiring the git backup hook when
// enabled. The returned repo is nil when backup is off or failed to open.
func openJournal(cfg *config.Config) (*journal.Manager, *backup.Repository) {
	var opts []journal.Option
	var repo *backup.Repository

	if cfg.Backup.Enabled {
		r, err := backup.OpenOrInit(filepath.Dir(cfg.Store.Path))
		if err != nil {
			log.Printf("Warning: backup disabled: %v", err)
		} else {
			repo = r
			opts = append(opts, journal.WithAfterSave(func(path string) {
				msg := fmt.Sprintf("journal saved at %s", time.Now().UTC().Format(time.RFC3339))
				if err := repo.CommitFile(path, msg); err != nil {
					log.Printf("Warning: backup commit failed: %v", err)
				}
			}))
			log.Printf("Git backup enabled at %s", filepath.Dir(cfg.Store.Path))
		}
	}

	manager, err := journal.NewManager(cfg.Store.Path, opts...)
	if err != nil {
		log.Fatalf("Failed to open journal store: %v", err)
	}
	log.Printf("Journal store: %s", cfg.Store.Path)
	return manager, repo
}

// runStdioMode serves the journal tools over stdio for MCP clients
func runStdioMode(manager *journal.Manager) {
	tc := tools.NewToolContext(manager)

	s := mcpserver.NewMCPServer("trailmind", version())
	s.AddTool(tools.NewRememberTool(), tools.RememberHandler(tc))
	s.AddTool(tools.NewRecallTool(), tools.RecallHandler(tc))
	s.AddTool(tools.NewInsightsTool(), tools.InsightsHandler(tc))

	log.Println("MCP server ready (stdio mode) - 3 tools registered")

	if err := mcpserver.ServeStdio(s); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}

// runHTTPMode serves the journal REST API for the web UI
func runHTTPMode(cfg *config.Config, manager *journal.Manager, repo *backup.Repository) {
	if repo != nil && cfg.Backup.IntervalMinutes > 0 {
		// Picks up edits made to the store file outside the server.
		snap := scheduler.New("backup-snapshot",
			time.Duration(cfg.Backup.IntervalMinutes)*time.Minute,
			func() error {
				msg := fmt.Sprintf("periodic snapshot at %s", time.Now().UTC().Format(time.RFC3339))
				return repo.CommitFile(manager.Path(), msg)
			})
		snap.Start()
		defer snap.Stop()
		log.Printf("Backup snapshot every %d minutes", cfg.Backup.IntervalMinutes)
	}

	opts := []server.Option{
		server.WithLimiter(ratelimit.New(
			ratelimit.WithCooldown(time.Duration(cfg.Limits.CooldownMS)*time.Millisecond),
			ratelimit.WithDailyMax(cfg.Limits.MaxDailyCalls),
		)),
	}

	if cfg.AI.APIKey != "" {
		client := ai.NewClient(cfg.AI.APIKey,
			ai.WithModel(cfg.AI.Model),
			ai.WithBaseURL(cfg.AI.BaseURL),
			ai.WithTimeout(time.Duration(cfg.AI.TimeoutSeconds)*time.Second),
		)
		opts = append(opts, server.WithGenerator(client))
		log.Printf("AI analysis enabled (model: %s)", cfg.AI.Model)
	} else {
		log.Println("Warning: OPENAI_API_KEY not set, AI analysis disabled")
	}

	if cfg.Cache.Enabled {
		db, err := aicache.Connect(&aicache.Config{
			Type:        cfg.Cache.Type,
			SQLitePath:  cfg.Cache.SQLitePath,
			PostgresDSN: cfg.Cache.PostgresDSN,
			LogLevel:    logger.Silent,
		})
		if err != nil {
			log.Printf("Warning: analysis cache disabled: %v", err)
		} else {
			defer aicache.Close(db)
			opts = append(opts, server.WithCache(aicache.New(db)))
			log.Printf("Analysis cache enabled (%s)", cfg.Cache.Type)
		}
	}

	srv := server.New(manager, opts...)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	if err := srv.Run(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func version() string {
	if Version == "" {
		return "dev"
	}
	return Version
}
