// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/ewaste-tui/internal/assistant"
	"github.com/jeranaias/ewaste-tui/internal/model"
	"github.com/jeranaias/ewaste-tui/internal/session"
)

// =============================================================================
// FALLBACK MESSAGES
// =============================================================================

const (
	// FallbackNotUnderstood is rendered when a 2xx reply carries neither
	// a response nor an error.
	FallbackNotUnderstood = "Sorry, I did not understand that. Please try again."

	// FallbackRequestFailed is rendered on any transport or protocol
	// failure. No detail from the failure leaks into the transcript.
	FallbackRequestFailed = "Sorry, there was an error processing your request. Please try again."

	// ServiceErrorPrefix prefixes service-reported error payloads.
	ServiceErrorPrefix = "Error: "
)

// defaultRepeatInterval throttles rapid Enter-key repeats in front of the
// pending-flag gate. One submission per interval, burst of one.
const defaultRepeatInterval = 250 * time.Millisecond

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Renderer is the display surface the pipeline draws on.
type Renderer interface {
	// RenderUserMessage shows an already-persisted user message.
	RenderUserMessage(msg *model.Message)
	// RenderBotMessage shows an assistant message.
	RenderBotMessage(msg *model.Message)
	// ShowTyping displays the transient typing indicator.
	ShowTyping()
	// HideTyping removes the typing indicator.
	HideTyping()
	// ClearInput empties the input field after an optimistic render.
	ClearInput()
}

// Speaker voices plain text assistant replies.
type Speaker interface {
	Speak(text string)
}

// Chatter is the remote chat dependency, satisfied by *assistant.Client.
type Chatter interface {
	Chat(ctx context.Context, message, chatID string) (*assistant.Reply, error)
}

// =============================================================================
// PIPELINE
// =============================================================================

// Pipeline gates and executes chat submissions.
type Pipeline struct {
	mu      sync.Mutex
	pending bool

	sessions *session.Manager
	client   Chatter
	renderer Renderer

	// speaker may be nil when no speech synthesis is available.
	speaker      Speaker
	voiceEnabled bool

	// Throttle drops rapid Enter repeats before they reach the pending
	// flag. Replaceable in tests.
	Throttle *rate.Limiter
}

// NewPipeline creates a dispatch pipeline.
func NewPipeline(sessions *session.Manager, client Chatter, renderer Renderer, speaker Speaker) *Pipeline {
	return &Pipeline{
		sessions: sessions,
		client:   client,
		renderer: renderer,
		speaker:  speaker,
		Throttle: rate.NewLimiter(rate.Every(defaultRepeatInterval), 1),
	}
}

// SetVoiceEnabled toggles speech synthesis of plain text replies.
func (p *Pipeline) SetVoiceEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.voiceEnabled = enabled
}

// VoiceEnabled reports whether replies are spoken.
func (p *Pipeline) VoiceEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.voiceEnabled
}

// Pending reports whether a submission is in flight.
func (p *Pipeline) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submit runs a full exchange: the synchronous front half (Begin) and the
// blocking completion. Returns false if the submission was dropped.
//
// Event-loop front ends split the halves instead, calling Begin on the
// loop and Complete from a command goroutine.
func (p *Pipeline) Submit(ctx context.Context, text string) bool {
	if !p.Begin(text) {
		return false
	}
	p.Complete(ctx, text)
	return true
}

// Begin validates and gates a submission, then renders the user message
// optimistically and shows the typing indicator. Returns false (a silent
// no-op: nothing rendered, no network) when the trimmed text is empty,
// an earlier submission is still in flight, or the repeat throttle trips.
//
// On true, the pending flag is set and the caller must invoke Complete
// exactly once.
func (p *Pipeline) Begin(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	if p.Throttle != nil && !p.Throttle.Allow() {
		return false
	}

	p.mu.Lock()
	if p.pending {
		p.mu.Unlock()
		return false
	}
	p.pending = true
	p.mu.Unlock()

	msg, _ := p.sessions.AppendUserMessage(text)
	p.renderer.RenderUserMessage(msg)
	p.renderer.ClearInput()
	p.renderer.ShowTyping()
	return true
}

// Complete performs the network exchange for a submission accepted by
// Begin and renders the outcome. The typing indicator is removed and the
// pending flag cleared on every path, success or failure.
func (p *Pipeline) Complete(ctx context.Context, text string) {
	defer p.clearPending()

	text = strings.TrimSpace(text)
	reply, err := p.client.Chat(ctx, text, p.sessions.ActiveID())

	p.renderer.HideTyping()

	if err != nil {
		p.renderBot(model.TextContent(FallbackRequestFailed))
		return
	}

	switch reply.Kind {
	case assistant.ReplyServiceError:
		p.renderBot(model.TextContent(ServiceErrorPrefix + reply.ServiceErr))
	case assistant.ReplyText:
		p.renderBot(model.TextContent(reply.Text))
	case assistant.ReplyImages:
		p.renderBot(model.ImageContent(toAttachments(reply.Images)))
	default:
		p.renderBot(model.TextContent(FallbackNotUnderstood))
	}
}

// renderBot persists (when a session is active), renders, and optionally
// speaks an assistant message. Image payloads are never spoken.
func (p *Pipeline) renderBot(content model.Content) {
	msg := p.sessions.AppendBotMessage(content)
	p.renderer.RenderBotMessage(msg)

	if p.speaker != nil && p.VoiceEnabled() && msg.IsSpeakable() {
		p.speaker.Speak(msg.Content.Text)
	}
}

func (p *Pipeline) clearPending() {
	p.mu.Lock()
	p.pending = false
	p.mu.Unlock()
}

// toAttachments converts wire images into transcript attachments.
func toAttachments(images []assistant.Image) []model.ImageAttachment {
	out := make([]model.ImageAttachment, len(images))
	for i, img := range images {
		out[i] = model.ImageAttachment{Data: img.Data, Caption: img.Caption}
	}
	return out
}
