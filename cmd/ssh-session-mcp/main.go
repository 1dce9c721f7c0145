// ssh-session-mcp is an MCP server exposing remote command execution over SSH.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/acolita/ssh-session-mcp/internal/adapters/realfs"
	"github.com/acolita/ssh-session-mcp/internal/config"
	"github.com/acolita/ssh-session-mcp/internal/logging"
	"github.com/acolita/ssh-session-mcp/internal/mcp"
	"github.com/acolita/ssh-session-mcp/internal/recording"
	"github.com/acolita/ssh-session-mcp/internal/security"
	"github.com/acolita/ssh-session-mcp/internal/setup"
)

// Version information - set at build time.
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var (
		configPath  string
		showVersion bool
		debug       bool
		addHost     bool
	)

	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&addHost, "add-host", false, "Interactively add a host alias to the config and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("ssh-session-mcp version %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		os.Exit(0)
	}

	if addHost {
		if err := setup.RunAddHost(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error adding host: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if debug {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Sanitize)

	slog.Info("starting ssh-session-mcp",
		slog.String("version", Version),
	)

	var opts []mcp.ServerOption
	if cfg.Security.UseKeyring {
		opts = append(opts, mcp.WithKeyring(security.NewKeyringStore()))
	}

	audit := recording.NewAuditLog(cfg.Recording.Path, cfg.Recording.Enabled, realfs.New())
	defer audit.Close()
	opts = append(opts, mcp.WithAuditLog(audit))

	server := mcp.NewServer(cfg, opts...)

	// Config hot-reload when a config file was provided.
	var configWatcher *config.Watcher
	if configPath != "" {
		var watcherErr error
		configWatcher, watcherErr = config.NewWatcher(configPath, func(newCfg *config.Config) {
			if debug {
				newCfg.Logging.Level = "debug"
			}
			server.UpdateConfig(newCfg)
		})
		if watcherErr != nil {
			slog.Warn("config hot-reload disabled",
				slog.String("error", watcherErr.Error()),
			)
		} else {
			slog.Info("config hot-reload enabled",
				slog.String("path", configPath),
			)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("received shutdown signal")
		if configWatcher != nil {
			configWatcher.Close()
		}
		audit.Close()
		os.Exit(0)
	}()

	if err := server.Run(); err != nil {
		slog.Error("server error", slog.String("error", err.Error()))
		if configWatcher != nil {
			configWatcher.Close()
		}
		os.Exit(1)
	}
}
