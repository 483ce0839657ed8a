package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/nvander/strum/internal/api"
	"github.com/nvander/strum/internal/config"
	"github.com/nvander/strum/internal/favorites"
	"github.com/nvander/strum/internal/library"
	"github.com/nvander/strum/internal/log"
	"github.com/nvander/strum/internal/media"
	"github.com/nvander/strum/internal/player"
	"github.com/nvander/strum/internal/queue"
	"github.com/nvander/strum/internal/search"
	"github.com/nvander/strum/internal/session"
	"github.com/nvander/strum/internal/store"
	"github.com/nvander/strum/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Parse()

	if showVersion {
		fmt.Printf("strum %s\n", Version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Local .env overrides, useful in development. Missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting strum", "version", Version)

	if !cfg.IsConfigured() {
		return fmt.Errorf("no server configured; set server.url in %s or STRUM_SERVER_URL",
			"~/.config/strum/config.yaml")
	}

	// Durable cache, scoped per server.
	sessionStore, err := store.NewSessionStore(config.GetCachePath(), cfg.Server.URL)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer sessionStore.Close()

	// API client; rotated tokens are written back to the config file.
	client := api.NewClient(cfg.Server.URL, cfg.Server.AccessToken, cfg.Server.RefreshToken, logger)
	client.OnTokensChanged(func(access, refresh string) {
		if err := config.SaveTokens(access, refresh); err != nil {
			logger.Error("failed to persist rotated tokens", "error", err)
		}
	})

	formatter := media.Formatter{BaseURL: cfg.Server.URL, CloudName: cfg.Media.CloudName}

	// Services.
	favoritesSvc := favorites.NewService(client, sessionStore, logger)
	librarySvc := library.NewService(client, client, sessionStore, logger)
	librarySvc.OnFavoritesFetched(favoritesSvc.Replace)

	sessionMgr := session.NewManager(sessionStore, logger)
	queueDeriver := queue.NewDeriver(librarySvc, favoritesSvc)
	searchSvc := search.NewService(librarySvc, logger)

	// Audio output.
	device, err := player.NewBeepDevice(cfg.Audio.SampleRate, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize audio: %w", err)
	}

	opts := []player.Option{
		player.WithOnSongChange(sessionMgr.TouchRecentlyPlayed),
	}
	if cfg.Audio.Notify {
		notifier := player.NewDesktopNotifier(logger)
		opts = append(opts, player.WithNotifier(notifier.SongStarted))
	}

	controller := player.NewController(device, queueDeriver, librarySvc.SongByID, formatter.Audio, logger, opts...)
	controller.SetVolume(cfg.Audio.Volume)
	defer controller.Close()

	// An expired session rolls back any optimistic favorite and drops the
	// stored tokens so the next start comes up anonymous.
	favoritesSvc.OnSessionExpired(func() {
		client.ClearTokens()
		if err := config.ClearSession(); err != nil {
			logger.Error("failed to clear stored tokens", "error", err)
		}
	})

	// Cached snapshot renders immediately; the TUI refreshes it on startup.
	librarySvc.LoadSnapshot()

	model := tui.NewModel(librarySvc, favoritesSvc, queueDeriver, controller, sessionMgr, searchSvc)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}
