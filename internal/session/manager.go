// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks the chat currently being composed.
package session

import (
	"log"
	"sync"

	"github.com/jeranaias/ewaste-tui/internal/history"
	"github.com/jeranaias/ewaste-tui/internal/model"
)

// Greeting is the standing assistant welcome. It is rendered whenever a new
// chat starts but is never persisted as part of any session.
const Greeting = "Welcome! I'm your E-Waste Management Assistant. How can I help you today?"

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager owns the active session and the visible transcript.
//
// All mutation goes through its methods; the zero global state of the
// original widget lives here instead, with process lifetime equal to the
// client's lifetime.
type Manager struct {
	mu sync.Mutex

	store *history.Store

	// active is the session follow-up messages append to; nil until the
	// first user message of a fresh chat arrives.
	active *model.Session

	// transcript is what the UI renders. It can contain messages that
	// belong to no session, such as the greeting.
	transcript []*model.Message

	// onChange is notified after every transcript mutation.
	onChange func()
}

// NewManager creates a session manager backed by the given history store.
func NewManager(store *history.Store) *Manager {
	return &Manager{
		store:      store,
		transcript: make([]*model.Message, 0),
	}
}

// SetChangeCallback sets the function called after transcript mutations.
func (m *Manager) SetChangeCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// StartNew clears the transcript and the active-session reference, then
// emits the standing greeting. The greeting is display-only.
func (m *Manager) StartNew() {
	m.mu.Lock()
	m.active = nil
	m.transcript = []*model.Message{model.NewBotMessage(Greeting)}
	fn := m.onChange
	m.mu.Unlock()

	notify(fn)
}

// AppendUserMessage records a user message, creating and persisting a new
// session when none is active. Returns the appended message and whether a
// session was created by this call.
func (m *Manager) AppendUserMessage(text string) (*model.Message, bool) {
	m.mu.Lock()
	created := false
	if m.active == nil {
		m.active = model.NewSession(text)
		created = true
	}

	msg := m.active.AddUserMessage(text)
	m.transcript = append(m.transcript, msg)
	m.flushLocked()
	fn := m.onChange
	m.mu.Unlock()

	notify(fn)
	return msg, created
}

// AppendUserImage records a user-sent image, creating and persisting a new
// session when none is active. Image-first sessions take their title from
// the caption.
func (m *Manager) AppendUserImage(img model.ImageAttachment) (*model.Message, bool) {
	m.mu.Lock()
	created := false
	if m.active == nil {
		title := img.Caption
		if title == "" {
			title = "Image analysis"
		}
		m.active = model.NewSession(title)
		created = true
	}

	msg := model.NewUserMessage("")
	msg.Content = model.ImageContent([]model.ImageAttachment{img})
	m.active.AddMessage(msg)
	m.transcript = append(m.transcript, msg)
	m.flushLocked()
	fn := m.onChange
	m.mu.Unlock()

	notify(fn)
	return msg, created
}

// AppendBotMessage renders an assistant message and, when a session is
// active, persists it. Greeting-style messages arriving before any session
// exists are rendered only.
func (m *Manager) AppendBotMessage(content model.Content) *model.Message {
	m.mu.Lock()
	var msg *model.Message
	if m.active != nil {
		msg = m.active.AddBotMessage(content)
		m.flushLocked()
	} else {
		msg = model.NewBotMessage("")
		msg.Content = content
	}
	m.transcript = append(m.transcript, msg)
	fn := m.onChange
	m.mu.Unlock()

	notify(fn)
	return msg
}

// LoadSession replaces the visible transcript with a stored session's
// messages. This is a render-only replay: nothing is re-persisted and no
// speech is triggered. The loaded session becomes the active one so
// follow-up messages continue it.
func (m *Manager) LoadSession(sess *model.Session) {
	if sess == nil {
		return
	}

	m.mu.Lock()
	m.active = sess
	m.transcript = make([]*model.Message, len(sess.Messages))
	copy(m.transcript, sess.Messages)
	fn := m.onChange
	m.mu.Unlock()

	notify(fn)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Transcript returns a copy of the visible message list.
func (m *Manager) Transcript() []*model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Message, len(m.transcript))
	copy(out, m.transcript)
	return out
}

// Active returns the active session, or nil when composing a fresh chat.
func (m *Manager) Active() *model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// ActiveID returns the active session ID, or "" when none is active.
// The dispatch pipeline sends this alongside every chat request.
func (m *Manager) ActiveID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return ""
	}
	return m.active.ID
}

// Store exposes the backing history store for listing and replay.
func (m *Manager) Store() *history.Store {
	return m.store
}

// =============================================================================
// HELPERS
// =============================================================================

// flushLocked persists the active session. Persistence failures are logged
// but never fatal to the chat: the transcript stays interactive.
func (m *Manager) flushLocked() {
	if m.store == nil || m.active == nil {
		return
	}
	if err := m.store.Record(m.active); err != nil {
		log.Printf("session: failed to persist session %s: %v", m.active.ID, err)
	}
}

// notify invokes a change callback outside the manager lock.
func notify(fn func()) {
	if fn != nil {
		fn()
	}
}
