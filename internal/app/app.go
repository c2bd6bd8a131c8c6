package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/simdeck/internal/autohide"
	"github.com/five82/simdeck/internal/config"
	"github.com/five82/simdeck/internal/engine"
	"github.com/five82/simdeck/internal/prefs"
	"github.com/five82/simdeck/internal/profile"
	"github.com/five82/simdeck/internal/screen"
	"github.com/five82/simdeck/internal/state"
	"github.com/five82/simdeck/internal/ui"
)

const dialTimeout = 5 * time.Second

// Options configure the simdeck application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/simdeck/prefs.toml
	Simulation string // overrides the configured simulation when set
}

// Run boots the viewer until the context is cancelled, the user quits or the
// engine connection drops.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.Simulation != "" {
		cfg.Simulation = opts.Simulation
	}

	profiles, err := profile.Load(cfg.ProfilesPath)
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}
	prof, err := profiles.Lookup(cfg.Simulation)
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs go to a file.
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	logFile, err := tea.LogToFile(cfg.LogPath(), "")
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = logFile.Close() }()
	logger := log.Default()
	logger.Printf("simdeck starting: simulation=%s engine=%s", cfg.Simulation, cfg.EngineURL)

	userPrefsPath := opts.PrefsPath
	if userPrefsPath == "" {
		userPrefsPath = prefs.DefaultPath()
	}
	userPrefs, err := prefs.Load(userPrefsPath)
	if err != nil {
		logger.Printf("warning: %v", err)
	}

	dialCtx, cancelDial := context.WithTimeout(ctx, dialTimeout)
	client, err := engine.Dial(dialCtx, cfg.EngineURL, logger)
	cancelDial()
	if err != nil {
		return fmt.Errorf("connect to engine: %w", err)
	}
	defer func() { _ = client.Close() }()

	var ch engine.Channel = client
	if cfg.Journal {
		journal := engine.NewJournal(client, cfg.JournalDir(), logger)
		defer func() { _ = journal.Close() }()
		ch = journal
	}

	relay := ui.NewRelay()
	dpr := cfg.DevicePixelRatio
	scr, err := screen.New(screen.Options{
		Channel: ch,
		Profile: prof,
		Store:   &state.Store{},
		AutoHide: autohide.Config{
			AutoHideDelay:   cfg.AutoHideDelay,
			CursorHideDelay: cfg.CursorHideDelay,
		},
		ZoomSensitivity:  cfg.ZoomSensitivity,
		DevicePixelRatio: func() float64 { return dpr },
		Logger:           logger,
		Hooks:            relay.Hooks(),
	})
	if err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer scr.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Without a connection nothing the screen does can reach the engine.
	go func() {
		select {
		case <-runCtx.Done():
		case <-client.Done():
			logger.Printf("engine connection lost: %v", client.Err())
			cancel()
		}
	}()

	StartResync(runCtx, scr, cfg.ResyncInterval, logger)

	err = ui.Run(runCtx, ui.Options{
		Context:    runCtx,
		Screen:     scr,
		Relay:      relay,
		LogPath:    cfg.LogPath(),
		CellWidth:  cfg.CellWidth,
		CellHeight: cfg.CellHeight,
		WheelStep:  cfg.WheelStep,
		Prefs:      userPrefs,
		PrefsPath:  userPrefsPath,
	})
	if err != nil {
		return err
	}

	select {
	case <-client.Done():
		if cerr := client.Err(); cerr != nil && ctx.Err() == nil {
			return fmt.Errorf("engine connection lost: %w", cerr)
		}
	default:
	}
	logger.Printf("simdeck stopped")
	return nil
}
