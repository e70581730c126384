// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
package model

import (
	"time"

	"github.com/google/uuid"
)

// TitleMaxRunes is the maximum title length derived from the first user
// message. Longer messages are cut at this length with an ellipsis appended.
const TitleMaxRunes = 30

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session holds one continuous chat transcript with identity metadata.
// Sessions are append-only: after creation only AddMessage mutates them.
type Session struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"timestamp"`
	Messages  []*Message `json:"messages"`
}

// NewSession creates a session titled after the opening user message.
func NewSession(firstUserMessage string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Title:     DeriveTitle(firstUserMessage),
		CreatedAt: time.Now(),
		Messages:  make([]*Message, 0),
	}
}

// DeriveTitle builds a session title from the first user message: the first
// TitleMaxRunes runes, with "..." appended when anything was cut off.
func DeriveTitle(firstUserMessage string) string {
	runes := []rune(firstUserMessage)
	if len(runes) <= TitleMaxRunes {
		return firstUserMessage
	}
	return string(runes[:TitleMaxRunes]) + "..."
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a message to the session.
func (s *Session) AddMessage(msg *Message) {
	s.Messages = append(s.Messages, msg)
}

// AddUserMessage creates and appends a user message.
func (s *Session) AddUserMessage(text string) *Message {
	msg := NewUserMessage(text)
	s.AddMessage(msg)
	return msg
}

// AddBotMessage creates and appends an assistant message.
func (s *Session) AddBotMessage(content Content) *Message {
	msg := &Message{
		ID:        uuid.NewString(),
		Content:   content,
		Sender:    SenderBot,
		Timestamp: time.Now(),
	}
	s.AddMessage(msg)
	return msg
}

// MessageCount returns the number of messages.
func (s *Session) MessageCount() int {
	return len(s.Messages)
}

// IsEmpty returns true if there are no messages.
func (s *Session) IsEmpty() bool {
	return len(s.Messages) == 0
}

// Preview returns a short single-line preview of the opening user message.
func (s *Session) Preview(maxRunes int) string {
	for _, msg := range s.Messages {
		if msg.Sender == SenderUser {
			return msg.Preview(maxRunes)
		}
	}
	return "Empty session"
}

// Clone creates a deep copy of the session. Render-only consumers clone
// before display so replaying a stored transcript cannot mutate it.
func (s *Session) Clone() *Session {
	clone := &Session{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		Messages:  make([]*Message, len(s.Messages)),
	}
	for i, msg := range s.Messages {
		msgCopy := *msg
		clone.Messages[i] = &msgCopy
	}
	return clone
}
