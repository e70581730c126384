// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the line-oriented REPL front end.
//
// This file defines the REPL loop and its slash commands. The REPL is a
// synchronous renderer: pipeline render calls print directly instead of
// posting messages to a program.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/ewaste-tui/internal/assistant"
	"github.com/jeranaias/ewaste-tui/internal/dispatch"
	"github.com/jeranaias/ewaste-tui/internal/export"
	"github.com/jeranaias/ewaste-tui/internal/history"
	"github.com/jeranaias/ewaste-tui/internal/imageflow"
	"github.com/jeranaias/ewaste-tui/internal/model"
	"github.com/jeranaias/ewaste-tui/internal/session"
	"github.com/jeranaias/ewaste-tui/internal/ui/styles"
	"github.com/jeranaias/ewaste-tui/internal/voice"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	// Prompt style
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Green).
			Bold(true)

	// Welcome banner style
	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Green).
			Bold(true)

	// Info style
	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	// Command style
	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan)

	// Warning style
	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	// Error style
	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	// Assistant label style
	assistantStyle = lipgloss.NewStyle().
			Foreground(styles.GreenDeep).
			Bold(true)
)

// =============================================================================
// REPL
// =============================================================================

// REPL is the interactive line-oriented session. It implements the
// dispatch renderer directly: render calls print as they happen.
type REPL struct {
	sessions *session.Manager
	pipeline *dispatch.Pipeline
	flow     *imageflow.Flow
	voice    *voice.Controller
	client   *assistant.Client

	editor *LineEditor

	// listed maps /history row numbers to sessions for /load.
	listed []*model.Session

	language string

	// cancel aborts the in-flight exchange on Ctrl+C. Written by the
	// main loop and read by the signal goroutine.
	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

// Options configures a REPL.
type Options struct {
	Sessions *session.Manager
	Pipeline *dispatch.Pipeline
	Flow     *imageflow.Flow
	Voice    *voice.Controller
	Client   *assistant.Client
	Language string
}

// New creates a REPL. The REPL is its own renderer, so build it first,
// then the pipeline, then call SetPipeline.
func New(opts Options) *REPL {
	lang := opts.Language
	if lang == "" {
		lang = "en"
	}
	return &REPL{
		sessions: opts.Sessions,
		pipeline: opts.Pipeline,
		flow:     opts.Flow,
		voice:    opts.Voice,
		client:   opts.Client,
		language: lang,
	}
}

// SetPipeline wires the pipeline after construction. The REPL is its
// own renderer, so it must exist before the pipeline does.
func (r *REPL) SetPipeline(p *dispatch.Pipeline) {
	r.pipeline = p
}

// =============================================================================
// RENDERER
// =============================================================================

// RenderUserMessage implements dispatch.Renderer. The user just typed
// the message, so there is nothing to echo.
func (r *REPL) RenderUserMessage(*model.Message) {}

// RenderBotMessage implements dispatch.Renderer.
func (r *REPL) RenderBotMessage(msg *model.Message) {
	fmt.Println()
	fmt.Println(assistantStyle.Render("Assistant:"))
	if msg.Content.IsText() {
		displayReply(msg.Content.Text)
	} else {
		for _, img := range msg.Content.Images {
			caption := img.Caption
			if caption == "" {
				caption = "image"
			}
			fmt.Printf("  %s %s\n",
				commandStyle.Render("[image]"),
				infoStyle.Render(caption))
		}
	}
	fmt.Println()
}

// ShowTyping implements dispatch.Renderer.
func (r *REPL) ShowTyping() {
	if IsStdoutTTY() {
		fmt.Fprintln(os.Stderr, infoStyle.Render("..."))
	}
}

// HideTyping implements dispatch.Renderer.
func (r *REPL) HideTyping() {}

// ClearInput implements dispatch.Renderer. Line input clears itself.
func (r *REPL) ClearInput() {}

// =============================================================================
// RUN LOOP
// =============================================================================

// Run starts the REPL and blocks until the user exits.
func (r *REPL) Run() error {
	r.editor = NewLineEditor()
	defer r.editor.Close()

	r.printWelcome()
	r.sessions.StartNew()

	// First Ctrl+C cancels the in-flight exchange rather than the REPL.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			if r.cancelInFlight() {
				fmt.Fprintln(os.Stderr, "\n"+warningStyle.Render("[Cancelled]"))
			}
		}
	}()

	for {
		input, err := r.editor.ReadInput(promptStyle.Render("ewaste> "))
		if err != nil {
			// Ctrl+C at the prompt or EOF (Ctrl+D) exits gracefully.
			if err != liner.ErrPromptAborted {
				fmt.Println()
			}
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			keepGoing, err := r.handleSlashCommand(input)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			}
			if !keepGoing {
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return nil
		}

		r.send(input)
	}
}

// send runs one chat exchange. Rendering happens through the renderer
// methods as the pipeline progresses.
func (r *REPL) send(input string) {
	ctx, cancel := context.WithCancel(context.Background())
	r.setCancel(cancel)
	defer func() {
		r.setCancel(nil)
		cancel()
	}()

	r.pipeline.Submit(ctx, input)
}

// setCancel publishes the cancel func for the in-flight exchange, or
// clears it with nil.
func (r *REPL) setCancel(cancel context.CancelFunc) {
	r.cancelMu.Lock()
	r.cancel = cancel
	r.cancelMu.Unlock()
}

// cancelInFlight aborts the current exchange if one is running and
// reports whether anything was cancelled.
func (r *REPL) cancelInFlight() bool {
	r.cancelMu.Lock()
	defer r.cancelMu.Unlock()
	if r.cancel == nil {
		return false
	}
	r.cancel()
	r.cancel = nil
	return true
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns (keepGoing, error) where keepGoing=false means exit.
func (r *REPL) handleSlashCommand(cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/", "/?":
		r.printHelp()
		return true, nil

	case "/new", "/n":
		r.sessions.StartNew()
		fmt.Println(commandStyle.Render("[New chat started]"))
		return true, nil

	case "/history":
		r.printHistory()
		return true, nil

	case "/load":
		return true, r.loadSession(args)

	case "/search":
		return true, r.searchArchive(args)

	case "/export":
		return true, r.exportSession(args)

	case "/language", "/lang":
		return true, r.handleLanguage(args)

	case "/voice", "/v":
		enabled := !r.pipeline.VoiceEnabled()
		r.pipeline.SetVoiceEnabled(enabled)
		if enabled {
			fmt.Println(commandStyle.Render("[Voice replies on]"))
		} else {
			fmt.Println(commandStyle.Render("[Voice replies off]"))
			if r.voice != nil {
				r.voice.Silence()
			}
		}
		return true, nil

	case "/record", "/r":
		if r.voice == nil || !r.voice.CanRecognize() {
			return true, voice.ErrNoRecognizer
		}
		if err := r.voice.StartCapture(context.Background()); err != nil {
			return true, err
		}
		fmt.Println(commandStyle.Render("[Listening...]"))
		return true, nil

	case "/image", "/i":
		return true, r.handleImage(args)

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// loadSession switches to a numbered session from the last /history
// listing.
func (r *REPL) loadSession(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: /load N (run /history first)")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(r.listed) {
		return fmt.Errorf("no session %q in the last /history listing", args[0])
	}
	sess := r.listed[n-1]
	r.sessions.LoadSession(sess)

	fmt.Printf("%s %s\n",
		commandStyle.Render("[Loaded]"),
		sess.Title)
	for _, msg := range r.sessions.Transcript() {
		if msg.Sender == model.SenderUser {
			fmt.Printf("%s %s\n", promptStyle.Render("you:"), msg.Preview(120))
		} else {
			fmt.Printf("%s %s\n", assistantStyle.Render("bot:"), msg.Preview(120))
		}
	}
	return nil
}

// searchArchive finds sessions that aged out of the recency buckets.
// Matches are reopened with /load using the numbers printed here.
func (r *REPL) searchArchive(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: /search QUERY")
	}
	store := r.sessions.Store()
	if store == nil || store.Archive == nil {
		return fmt.Errorf("archive is not enabled")
	}

	metas, err := store.Archive.Search(strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("archive search failed: %w", err)
	}
	r.listed = r.listed[:0]
	if len(metas) == 0 {
		fmt.Println(infoStyle.Render("No archived sessions match"))
		return nil
	}

	fmt.Println()
	fmt.Println(assistantStyle.Render("Archived sessions"))
	for _, meta := range metas {
		sess, err := store.Archive.Get(meta.ID)
		if err != nil || sess == nil {
			continue
		}
		r.listed = append(r.listed, sess)
		fmt.Printf("  %s %s %s\n",
			commandStyle.Render(fmt.Sprintf("%2d.", len(r.listed))),
			sess.Title,
			infoStyle.Render(meta.CreatedAt.Format("2006-01-02")))
	}
	fmt.Println(infoStyle.Render("Reopen with /load N"))
	fmt.Println()
	return nil
}

// exportSession writes the active session to a file in the working
// directory.
func (r *REPL) exportSession(args []string) error {
	sess := r.sessions.Active()
	if sess == nil {
		return fmt.Errorf("nothing to export yet; send a message first")
	}

	format := "md"
	if len(args) > 0 {
		format = strings.ToLower(args[0])
	}
	exporter, err := export.ForFormat(format, nil)
	if err != nil {
		return err
	}

	path, err := export.ExportToFile(sess, exporter, nil)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", commandStyle.Render("[Exported]"), path)
	return nil
}

// handleLanguage lists languages or switches the active one.
func (r *REPL) handleLanguage(args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if len(args) == 0 {
		if r.client == nil {
			return fmt.Errorf("no assistant service configured")
		}
		list, err := r.client.Languages(ctx)
		if err != nil {
			return fmt.Errorf("could not load languages: %w", err)
		}
		codes := make([]string, 0, len(list.Languages))
		for code := range list.Languages {
			codes = append(codes, code)
		}
		sort.Strings(codes)

		fmt.Println()
		fmt.Println(infoStyle.Render("Available languages:"))
		for _, code := range codes {
			marker := " "
			if code == r.language {
				marker = "*"
			}
			fmt.Printf("  %s %s  %s\n",
				commandStyle.Render(marker),
				code,
				infoStyle.Render(list.Languages[code]))
		}
		fmt.Println(infoStyle.Render("Switch with /language CODE"))
		fmt.Println()
		return nil
	}

	r.language = args[0]
	if r.voice != nil {
		r.voice.SetLanguage(r.language)
	}
	fmt.Printf("%s %s\n", commandStyle.Render("[Language]"), r.language)

	// The service switches languages through the chat itself, so the
	// selection travels as a regular message.
	if r.pipeline != nil {
		r.send("set language " + r.language)
	}
	return nil
}

// handleImage stages an image, shows a preview line, and asks for
// confirmation before uploading.
func (r *REPL) handleImage(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: /image PATH")
	}
	path := strings.Join(args, " ")

	staged, err := r.flow.Select(path)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s (%s, %d bytes)\n",
		commandStyle.Render("[Staged]"),
		staged.Filename,
		staged.MIME,
		len(staged.Bytes))

	answer, err := r.editor.ReadInput(warningStyle.Render("Analyze this image? [y/N] "))
	if err != nil || !strings.EqualFold(strings.TrimSpace(answer), "y") {
		r.flow.Discard()
		fmt.Println(infoStyle.Render("[Discarded]"))
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.setCancel(cancel)
	defer func() {
		r.setCancel(nil)
		cancel()
	}()

	return r.flow.Confirm(ctx)
}

// =============================================================================
// DISPLAY
// =============================================================================

// printWelcome prints the banner and the standing greeting.
func (r *REPL) printWelcome() {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("E-Waste Management Assistant"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n",
		infoStyle.Render("Language:"),
		commandStyle.Render(r.language))
	fmt.Println()
	fmt.Println(infoStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

// printHelp prints available commands.
func (r *REPL) printHelp() {
	fmt.Println()
	fmt.Println(assistantStyle.Render("Available Commands"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/new, /n", "Start a new chat session"},
		{"/history", "List stored sessions"},
		{"/load N", "Switch to session N from /history"},
		{"/search QUERY", "Find archived sessions"},
		{"/export [FORMAT]", "Save this chat as md, html, or json"},
		{"/language [CODE]", "List or switch languages"},
		{"/voice", "Toggle spoken replies"},
		{"/record, /r", "Capture one spoken message"},
		{"/image PATH", "Analyze an e-waste photo"},
		{"/quit, /q", "Exit"},
	}
	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-18s", c.cmd)),
			infoStyle.Render(c.desc))
	}

	fmt.Println()
	fmt.Println(infoStyle.Render("Tip: Ctrl+C cancels the current exchange, Ctrl+D exits"))
	fmt.Println()
}

// printHistory lists stored sessions grouped by day and numbers them
// for /load.
func (r *REPL) printHistory() {
	store := r.sessions.Store()
	if store == nil {
		fmt.Println(infoStyle.Render("No history store configured"))
		return
	}

	r.listed = r.listed[:0]
	fmt.Println()
	for _, group := range []struct {
		title  string
		bucket history.Bucket
	}{
		{"Today", history.BucketToday},
		{"Yesterday", history.BucketYesterday},
		{"Previous 7 Days", history.BucketWeek},
	} {
		sessions := store.Sessions(group.bucket)
		if len(sessions) == 0 {
			continue
		}
		fmt.Println(assistantStyle.Render(group.title))
		for _, sess := range sessions {
			r.listed = append(r.listed, sess)
			fmt.Printf("  %s %s %s\n",
				commandStyle.Render(fmt.Sprintf("%2d.", len(r.listed))),
				sess.Title,
				infoStyle.Render(fmt.Sprintf("(%d messages)", sess.MessageCount())))
		}
	}
	if len(r.listed) == 0 {
		fmt.Println(infoStyle.Render("No stored sessions"))
	} else {
		fmt.Println(infoStyle.Render("Switch with /load N"))
	}
	fmt.Println()
}
