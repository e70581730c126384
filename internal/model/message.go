// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderBot:
		return "Assistant"
	default:
		return string(s)
	}
}

// =============================================================================
// CONTENT VARIANT
// =============================================================================

// ContentKind discriminates the message content variant.
type ContentKind int

const (
	// KindText is a plain text body.
	KindText ContentKind = iota
	// KindImages is a multi-image assistant reply.
	KindImages
)

// ImageAttachment is one image of a multi-image assistant reply.
// Data is a data URI so the payload is self-contained when persisted.
type ImageAttachment struct {
	Data    string `json:"data"`
	Caption string `json:"caption"`
}

// Content is the tagged message body: either plain text or a set of images.
// Exactly one of Text/Images is meaningful, selected by Kind.
type Content struct {
	Kind   ContentKind
	Text   string
	Images []ImageAttachment
}

// TextContent builds a plain text content value.
func TextContent(text string) Content {
	return Content{Kind: KindText, Text: text}
}

// ImageContent builds a multi-image content value.
func ImageContent(images []ImageAttachment) Content {
	return Content{Kind: KindImages, Images: images}
}

// IsText reports whether the content is plain text.
func (c Content) IsText() bool {
	return c.Kind == KindText
}

// imageEnvelope is the wire/storage form of a multi-image reply.
// It matches the assistant service's image_response payload.
type imageEnvelope struct {
	Type   string            `json:"type"`
	Images []ImageAttachment `json:"images"`
}

// imageResponseType is the discriminator the service uses for image replies.
const imageResponseType = "image_response"

// MarshalJSON encodes text content as a bare JSON string and image content
// as an image_response object, matching the persisted history format.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.Kind == KindImages {
		return json.Marshal(imageEnvelope{Type: imageResponseType, Images: c.Images})
	}
	return json.Marshal(c.Text)
}

// UnmarshalJSON accepts either encoding. Anything that is not a recognized
// image_response object is treated as text so malformed stored data degrades
// to a readable message instead of failing the whole history load.
func (c *Content) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*c = TextContent(text)
		return nil
	}

	var env imageEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return errors.New("message content is neither text nor image_response")
	}
	if env.Type != imageResponseType {
		return errors.New("unknown message content type: " + env.Type)
	}
	*c = ImageContent(env.Images)
	return nil
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a session.
// The JSON field names mirror the persisted history document.
type Message struct {
	ID        string    `json:"id,omitempty"`
	Content   Content   `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserMessage creates a user message with plain text content.
func NewUserMessage(text string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Content:   TextContent(text),
		Sender:    SenderUser,
		Timestamp: time.Now(),
	}
}

// NewBotMessage creates an assistant message with plain text content.
func NewBotMessage(text string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Content:   TextContent(text),
		Sender:    SenderBot,
		Timestamp: time.Now(),
	}
}

// NewBotImageMessage creates an assistant message carrying a multi-image reply.
func NewBotImageMessage(images []ImageAttachment) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Content:   ImageContent(images),
		Sender:    SenderBot,
		Timestamp: time.Now(),
	}
}

// IsSpeakable reports whether the message should be handed to speech
// synthesis: only plain text assistant replies are ever spoken.
func (m *Message) IsSpeakable() bool {
	return m.Sender == SenderBot && m.Content.IsText()
}

// Preview returns a single-line preview of the message body for listings.
func (m *Message) Preview(maxRunes int) string {
	if m.Content.Kind == KindImages {
		return "[image reply]"
	}
	text := strings.ReplaceAll(m.Content.Text, "\n", " ")
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes])
}

// =============================================================================
// SANITIZATION
// =============================================================================

// SanitizeText escapes angle brackets in a plain text body before display.
// Both user input and service replies pass through here, so neither side can
// inject markup into the rendered transcript. Newlines are preserved and
// render as line breaks.
func SanitizeText(text string) string {
	text = strings.ReplaceAll(text, "<", "&lt;")
	return strings.ReplaceAll(text, ">", "&gt;")
}
