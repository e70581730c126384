// ewaste TUI - A terminal interface for the e-waste management assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ewaste-tui/internal/assistant"
	"github.com/jeranaias/ewaste-tui/internal/cli"
	"github.com/jeranaias/ewaste-tui/internal/config"
	"github.com/jeranaias/ewaste-tui/internal/dispatch"
	"github.com/jeranaias/ewaste-tui/internal/history"
	"github.com/jeranaias/ewaste-tui/internal/imageflow"
	"github.com/jeranaias/ewaste-tui/internal/server"
	"github.com/jeranaias/ewaste-tui/internal/session"
	"github.com/jeranaias/ewaste-tui/internal/ui/chat"
	"github.com/jeranaias/ewaste-tui/internal/voice"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		replMode    = flag.Bool("repl", false, "run the line-oriented REPL instead of the full-screen TUI")
		configPath  = flag.String("config", "", "path to the configuration file")
		serverURL   = flag.String("server", "", "assistant service URL (overrides config)")
		serveAddr   = flag.String("serve", "", "run the built-in stub assistant service on this address and exit")
		noSidebar   = flag.Bool("no-sidebar", false, "start the TUI with the history pane collapsed")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("ewaste-tui %s (%s, %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if *serveAddr != "" {
		if err := runServer(*serveAddr); err != nil {
			fmt.Fprintf(os.Stderr, "ewaste-tui: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ewaste-tui: %v\n", err)
		os.Exit(1)
	}
	if *serverURL != "" {
		cfg.Server.URL = *serverURL
	}
	config.SetGlobal(cfg)

	app, err := buildApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ewaste-tui: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	if *replMode || !cli.IsTTY() {
		err = runREPL(cfg, app)
	} else {
		err = runTUI(cfg, app, *noSidebar)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ewaste-tui: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration from the given path, or the
// default location when empty.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// =============================================================================
// APP WIRING
// =============================================================================

// app bundles the long-lived pieces shared by the TUI and the REPL.
type app struct {
	stateDir string
	store    *history.Store
	archive  *history.Archive
	sessions *session.Manager
	client   *assistant.Client
	flow     *imageflow.Flow

	recognizer voice.Recognizer
	synth      voice.Synthesizer
}

// buildApp constructs the storage, service client, and voice engines.
// The pipeline and voice controller are front-end specific: each front
// end is its own renderer.
func buildApp(cfg *config.Config) (*app, error) {
	stateDir, err := cfg.ResolveStateDir()
	if err != nil {
		return nil, fmt.Errorf("resolving state directory: %w", err)
	}
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	store := history.NewStore(filepath.Join(stateDir, "chatHistory.json"))
	a := &app{stateDir: stateDir, store: store}

	if cfg.History.ArchiveEnabled {
		archive, err := history.OpenArchive(filepath.Join(stateDir, "archive.db"))
		if err != nil {
			// The archive is best-effort: history still works without it.
			log.Printf("main: archive unavailable: %v", err)
		} else {
			store.Archive = archive
			a.archive = archive
		}
	}
	store.Load()

	a.sessions = session.NewManager(store)
	a.client = assistant.NewClientWithConfig(&assistant.ClientConfig{
		BaseURL:       cfg.Server.URL,
		Timeout:       cfg.Timeout(),
		UploadTimeout: cfg.UploadTimeout(),
	})
	a.flow = imageflow.New(a.client, a.sessions)

	if r := voice.NewExecRecognizer(cfg.Voice.RecognizerCommand); r != nil {
		a.recognizer = r
	}
	if s := voice.NewExecSynthesizer(cfg.Voice.SynthesizerCommand); s != nil {
		a.synth = s
	}
	return a, nil
}

// Close releases resources held by the app.
func (a *app) Close() {
	if a.archive != nil {
		a.archive.Close()
	}
}

// =============================================================================
// FRONT ENDS
// =============================================================================

// runTUI starts the full-screen Bubble Tea interface.
func runTUI(cfg *config.Config, a *app, hideSidebar bool) error {
	// The TUI owns the terminal, so the standard logger writes to a file.
	logPath := filepath.Join(a.stateDir, "ewaste.log")
	if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600); err == nil {
		log.SetOutput(f)
		defer f.Close()
	}

	relay := chat.NewRelay()
	ctl := voice.NewController(a.recognizer, a.synth, nil)
	ctl.SetLanguage(cfg.Voice.Language)

	pipeline := dispatch.NewPipeline(a.sessions, a.client, relay, ctl)
	pipeline.SetVoiceEnabled(cfg.Voice.Enabled)
	ctl.SetSubmitter(pipeline)

	model := chat.New(chat.Options{
		Sessions:    a.sessions,
		Pipeline:    pipeline,
		Flow:        a.flow,
		Voice:       ctl,
		Client:      a.client,
		Language:    cfg.Voice.Language,
		HideSidebar: hideSidebar,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	relay.Attach(p.Send)
	a.sessions.SetChangeCallback(func() {
		relay.Post(chat.TranscriptChangedMsg{})
	})
	ctl.OnStateChange = func(s voice.State) {
		relay.Post(chat.VoiceStateMsg{State: s})
	}
	ctl.OnCaptureError = func(err error) {
		relay.Post(chat.CaptureErrorMsg{Err: err})
	}

	watcher := watchConfig(ctl, pipeline)
	if watcher != nil {
		defer watcher.Close()
	}

	a.sessions.StartNew()
	_, err := p.Run()
	return err
}

// runREPL starts the line-oriented interface.
func runREPL(cfg *config.Config, a *app) error {
	ctl := voice.NewController(a.recognizer, a.synth, nil)
	ctl.SetLanguage(cfg.Voice.Language)

	repl := cli.New(cli.Options{
		Sessions: a.sessions,
		Flow:     a.flow,
		Voice:    ctl,
		Client:   a.client,
		Language: cfg.Voice.Language,
	})

	pipeline := dispatch.NewPipeline(a.sessions, a.client, repl, ctl)
	pipeline.SetVoiceEnabled(cfg.Voice.Enabled)
	ctl.SetSubmitter(pipeline)
	repl.SetPipeline(pipeline)

	return repl.Run()
}

// runServer starts the built-in stub assistant service and blocks
// until interrupted. Useful for developing the client without the
// real service.
func runServer(addr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(addr)
	log.Printf("main: stub assistant service listening on %s", srv.Addr())
	return srv.ListenAndServe(ctx)
}

// watchConfig applies voice setting changes from edits to the config
// file while the TUI is running. Returns nil when watching is
// unavailable.
func watchConfig(ctl *voice.Controller, pipeline *dispatch.Pipeline) *config.Watcher {
	path, err := config.Path()
	if err != nil {
		return nil
	}
	watcher, err := config.Watch(path, func(cfg *config.Config) {
		config.SetGlobal(cfg)
		ctl.SetLanguage(cfg.Voice.Language)
		pipeline.SetVoiceEnabled(cfg.Voice.Enabled)
	})
	if err != nil {
		log.Printf("main: config watch unavailable: %v", err)
		return nil
	}
	return watcher
}
