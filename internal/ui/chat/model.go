// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the model state, the relay that carries background
// events into the program, and the history sidebar bookkeeping.
package chat

import (
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ewaste-tui/internal/assistant"
	"github.com/jeranaias/ewaste-tui/internal/dispatch"
	"github.com/jeranaias/ewaste-tui/internal/history"
	"github.com/jeranaias/ewaste-tui/internal/imageflow"
	"github.com/jeranaias/ewaste-tui/internal/model"
	"github.com/jeranaias/ewaste-tui/internal/session"
	"github.com/jeranaias/ewaste-tui/internal/ui/components"
	"github.com/jeranaias/ewaste-tui/internal/ui/styles"
	"github.com/jeranaias/ewaste-tui/internal/voice"
)

// =============================================================================
// RELAY
// =============================================================================

// Relay posts messages from background goroutines into the Bubble Tea
// program. It satisfies the dispatch renderer, so the pipeline's render
// calls become program messages. Safe to use before Attach; posts are
// dropped until a program is connected.
type Relay struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

// NewRelay creates an unattached relay.
func NewRelay() *Relay {
	return &Relay{}
}

// Attach connects the relay to a running program's Send function.
func (r *Relay) Attach(send func(tea.Msg)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.send = send
}

// Post sends a message into the program, if one is attached.
func (r *Relay) Post(msg tea.Msg) {
	r.mu.Lock()
	send := r.send
	r.mu.Unlock()
	if send != nil {
		send(msg)
	}
}

// RenderUserMessage implements dispatch.Renderer.
func (r *Relay) RenderUserMessage(*model.Message) { r.Post(TranscriptChangedMsg{}) }

// RenderBotMessage implements dispatch.Renderer.
func (r *Relay) RenderBotMessage(*model.Message) { r.Post(TranscriptChangedMsg{}) }

// ShowTyping implements dispatch.Renderer.
func (r *Relay) ShowTyping() { r.Post(TypingMsg{Show: true}) }

// HideTyping implements dispatch.Renderer.
func (r *Relay) HideTyping() { r.Post(TypingMsg{Show: false}) }

// ClearInput implements dispatch.Renderer.
func (r *Relay) ClearInput() { r.Post(ClearInputMsg{}) }

// =============================================================================
// MODEL STATE
// =============================================================================

// focusArea is which pane receives key input.
type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

// overlayKind is the active modal overlay, if any.
type overlayKind int

const (
	overlayNone overlayKind = iota
	overlayLanguages
	overlayImagePath
	overlayImagePreview
)

// sidebarEntry is one row of the history sidebar: either a bucket
// heading or a loadable session.
type sidebarEntry struct {
	heading string
	session *model.Session
}

// sidebarWidth is the fixed width of the history pane.
const sidebarWidth = 30

// Model is the Bubble Tea model for the chat interface.
type Model struct {
	theme *styles.Theme
	keys  KeyMap

	sessions *session.Manager
	pipeline *dispatch.Pipeline
	flow     *imageflow.Flow
	voice    *voice.Controller
	client   *assistant.Client

	viewport  viewport.Model
	input     textinput.Model
	pathInput textinput.Model
	spin      spinner.Model
	toasts    *components.ToastManager

	width  int
	height int
	ready  bool

	typing    bool
	recording bool
	uploading bool

	focus   focusArea
	overlay overlayKind

	sidebarVisible bool
	sidebarCursor  int
	entries        []sidebarEntry

	languages   *assistant.LanguageList
	langCodes   []string
	langCursor  int
	currentLang string

	quitting bool
}

// Options configures a new chat model.
type Options struct {
	Sessions *session.Manager
	Pipeline *dispatch.Pipeline
	Flow     *imageflow.Flow
	Voice    *voice.Controller
	Client   *assistant.Client

	// Language is the initially selected language code.
	Language string
	// HideSidebar starts with the history pane collapsed.
	HideSidebar bool
}

// New creates the chat model.
func New(opts Options) *Model {
	input := textinput.New()
	input.Placeholder = "Type your message here..."
	input.Prompt = "> "
	input.CharLimit = 2000
	input.Focus()

	pathInput := textinput.New()
	pathInput.Placeholder = "Path to an image file..."
	pathInput.Prompt = "> "

	spin := spinner.New()
	spin.Spinner = spinner.Spinner{
		Frames: styles.DotsSpinner.Frames,
		FPS:    styles.DotsSpinner.Duration(),
	}

	lang := opts.Language
	if lang == "" {
		lang = "en"
	}

	m := &Model{
		theme:          styles.NewTheme(),
		keys:           DefaultKeyMap(),
		sessions:       opts.Sessions,
		pipeline:       opts.Pipeline,
		flow:           opts.Flow,
		voice:          opts.Voice,
		client:         opts.Client,
		input:          input,
		pathInput:      pathInput,
		spin:           spin,
		toasts:         components.NewToastManager(),
		sidebarVisible: !opts.HideSidebar,
		currentLang:    lang,
	}
	m.rebuildSidebar()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		components.ToastTickCmd(),
		fetchLanguagesCmd(m.client),
	)
}

// CurrentLanguage returns the selected language code.
func (m *Model) CurrentLanguage() string {
	return m.currentLang
}

// rebuildSidebar regenerates the sidebar rows from the history store.
func (m *Model) rebuildSidebar() {
	if m.sessions == nil || m.sessions.Store() == nil {
		m.entries = nil
		return
	}
	store := m.sessions.Store()

	var entries []sidebarEntry
	add := func(title string, sessions []*model.Session) {
		if len(sessions) == 0 {
			return
		}
		entries = append(entries, sidebarEntry{heading: title})
		for _, s := range sessions {
			entries = append(entries, sidebarEntry{session: s})
		}
	}
	add("Today", store.Sessions(history.BucketToday))
	add("Yesterday", store.Sessions(history.BucketYesterday))
	add("Previous 7 Days", store.Sessions(history.BucketWeek))

	m.entries = entries
	if m.sidebarCursor >= len(entries) {
		m.sidebarCursor = len(entries) - 1
	}
	if m.sidebarCursor < 0 {
		m.sidebarCursor = 0
	}
}

// moveSidebarCursor advances the cursor past headings in the given
// direction.
func (m *Model) moveSidebarCursor(delta int) {
	if len(m.entries) == 0 {
		return
	}
	i := m.sidebarCursor
	for {
		i += delta
		if i < 0 || i >= len(m.entries) {
			return
		}
		if m.entries[i].session != nil {
			m.sidebarCursor = i
			return
		}
	}
}

// selectedSession returns the session under the sidebar cursor, or nil.
func (m *Model) selectedSession() *model.Session {
	if m.sidebarCursor < 0 || m.sidebarCursor >= len(m.entries) {
		return nil
	}
	return m.entries[m.sidebarCursor].session
}
