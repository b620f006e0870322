package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/stagehand/internal/app"
	"github.com/marcus/stagehand/internal/config"
	"github.com/marcus/stagehand/internal/diff"
	"github.com/marcus/stagehand/internal/event"
	"github.com/marcus/stagehand/internal/localgit"
	"github.com/marcus/stagehand/internal/progress"
	"github.com/marcus/stagehand/internal/staging"
	"github.com/marcus/stagehand/internal/state"
	"github.com/marcus/stagehand/internal/styles"
	"github.com/marcus/stagehand/internal/watcher"
)

// Version is set at build time via ldflags
var Version = ""

var (
	configPath   = flag.String("config", "", "path to config file")
	repoFlag     = flag.String("repo", ".", "repository directory")
	debugFlag    = flag.Bool("debug", false, "enable debug logging")
	logFile      = flag.String("log", "", "write logs to this file instead of stderr")
	writeConfig  = flag.Bool("write-config", false, "write the effective config to the config file and exit")
	versionFlag  = flag.Bool("version", false, "print version and exit")
	shortVersion = flag.Bool("v", false, "print version and exit (short)")
)

func main() {
	flag.Parse()

	if *versionFlag || *shortVersion {
		fmt.Printf("stagehand version %s\n", effectiveVersion(Version))
		os.Exit(0)
	}

	// Setup logging. The TUI owns the terminal, so logs go to a file when
	// one is given.
	logLevel := slog.LevelInfo
	if *debugFlag {
		logLevel = slog.LevelDebug
	}
	logOut := os.Stderr
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *writeConfig {
		path := *configPath
		if path == "" {
			path = config.ConfigPath()
		}
		if err := config.SaveTo(cfg, path); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(path)
		os.Exit(0)
	}

	styles.ApplyTheme(cfg.UI.Theme)

	// Load persistent state (ignore errors - state is optional)
	_ = state.Init()

	if err := run(cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	dispatcher := event.NewWithLogger(logger)
	defer dispatcher.Close()

	repoPath, err := filepath.Abs(*repoFlag)
	if err != nil {
		return fmt.Errorf("resolve repository path: %w", err)
	}

	backend := localgit.New(logger)
	repoName, err := backend.RepoName(repoPath)
	if err != nil {
		// The session reports an inactive repository as an empty view.
		logger.Warn("not a git working tree", "path", repoPath, "err", err)
		repoName = filepath.Base(repoPath)
	}

	var memory progress.Memory
	if cfg.Progress.Store != "" {
		store, err := progress.OpenStore(cfg.Progress.Store)
		if err != nil {
			logger.Warn("progress store unavailable", "path", cfg.Progress.Store, "err", err)
		} else {
			defer store.Close()
			memory = store
		}
	}
	tracker := progress.NewTracker(memory, logger)

	if cfg.Watcher.Enabled {
		if root, err := backend.Root(repoPath); err == nil {
			w, err := watcher.Start(watcher.Options{
				Root:     root,
				Debounce: cfg.Watcher.Debounce,
				Bus:      dispatcher,
				Logger:   logger,
			})
			if err != nil {
				logger.Warn("file watcher unavailable", "err", err)
			} else {
				defer w.Close()
			}
		}
	}

	view := cfg.Staging.DiffView
	if view == "" {
		view = state.GetDiffView()
	}

	session := staging.New(staging.Options{
		Server:           backend,
		Bus:              dispatcher,
		Progress:         tracker,
		RepoPath:         repoPath,
		InitialDiffLines: cfg.Staging.InitialDiffLines,
		FileDisplayLimit: cfg.Staging.FileDisplayLimit,
		ThrottleWindow:   cfg.Staging.ThrottleWindow,
		DiffView:         diff.ParseView(view),
		Logger:           logger,
	})

	model := app.New(app.Options{
		Session:  session,
		Bus:      dispatcher,
		Tracker:  tracker,
		Config:   cfg,
		RepoName: repoName,
		Logger:   logger,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// effectiveVersion returns the version string, with fallback to build info.
func effectiveVersion(v string) string {
	if v != "" {
		return v
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	var revision string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if revision == "" {
		return "devel"
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	ver := "devel+" + revision
	if dirty {
		ver += "+dirty"
	}
	return ver
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: stagehand [options]\n\n")
		fmt.Fprintf(os.Stderr, "Review, stage and commit the changes of a git working tree.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
}
