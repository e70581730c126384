// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/ewaste-tui/internal/assistant"
	"github.com/jeranaias/ewaste-tui/internal/history"
	"github.com/jeranaias/ewaste-tui/internal/model"
	"github.com/jeranaias/ewaste-tui/internal/session"
)

// fakeRenderer records render calls in order.
type fakeRenderer struct {
	mu       sync.Mutex
	user     []*model.Message
	bot      []*model.Message
	typing   int
	untyping int
	cleared  int
}

func (r *fakeRenderer) RenderUserMessage(msg *model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user = append(r.user, msg)
}

func (r *fakeRenderer) RenderBotMessage(msg *model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bot = append(r.bot, msg)
}

func (r *fakeRenderer) ShowTyping() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.typing++
}

func (r *fakeRenderer) HideTyping() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.untyping++
}

func (r *fakeRenderer) ClearInput() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared++
}

func (r *fakeRenderer) lastBot(t *testing.T) *model.Message {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.bot) == 0 {
		t.Fatal("no bot message rendered")
	}
	return r.bot[len(r.bot)-1]
}

// fakeChatter returns a scripted reply and records what it was sent.
type fakeChatter struct {
	mu      sync.Mutex
	reply   *assistant.Reply
	err     error
	release chan struct{} // when set, Chat blocks until closed

	messages []string
	chatIDs  []string
}

func (c *fakeChatter) Chat(ctx context.Context, message, chatID string) (*assistant.Reply, error) {
	c.mu.Lock()
	c.messages = append(c.messages, message)
	c.chatIDs = append(c.chatIDs, chatID)
	release := c.release
	c.mu.Unlock()
	if release != nil {
		<-release
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.reply, nil
}

type fakeSpeaker struct {
	mu     sync.Mutex
	spoken []string
}

func (s *fakeSpeaker) Speak(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
}

func newTestPipeline(t *testing.T, chatter *fakeChatter) (*Pipeline, *fakeRenderer, *fakeSpeaker, *session.Manager) {
	t.Helper()
	store := history.NewStore(filepath.Join(t.TempDir(), "history.json"))
	mgr := session.NewManager(store)
	mgr.StartNew()
	renderer := &fakeRenderer{}
	speaker := &fakeSpeaker{}
	p := NewPipeline(mgr, chatter, renderer, speaker)
	p.Throttle = rate.NewLimiter(rate.Inf, 1)
	return p, renderer, speaker, mgr
}

func TestSubmitTextReply(t *testing.T) {
	chatter := &fakeChatter{reply: &assistant.Reply{Kind: assistant.ReplyText, Text: "Recycle it at a certified facility."}}
	p, renderer, _, mgr := newTestPipeline(t, chatter)

	if !p.Submit(context.Background(), "  How do I recycle a phone?  ") {
		t.Fatal("submit dropped")
	}

	if len(renderer.user) != 1 {
		t.Fatalf("user renders = %d, want 1", len(renderer.user))
	}
	if got := renderer.user[0].Content.Text; got != "How do I recycle a phone?" {
		t.Errorf("user text = %q, want trimmed input", got)
	}
	if renderer.cleared != 1 || renderer.typing != 1 || renderer.untyping != 1 {
		t.Errorf("cleared=%d typing=%d untyping=%d, want 1/1/1",
			renderer.cleared, renderer.typing, renderer.untyping)
	}
	if got := renderer.lastBot(t).Content.Text; got != "Recycle it at a certified facility." {
		t.Errorf("bot text = %q", got)
	}
	if p.Pending() {
		t.Error("pending flag not cleared after completion")
	}
	// User and bot messages both landed in the active session.
	if n := mgr.Active().MessageCount(); n != 2 {
		t.Errorf("session messages = %d, want 2", n)
	}
}

func TestSubmitEmptyInputDropped(t *testing.T) {
	chatter := &fakeChatter{reply: &assistant.Reply{Kind: assistant.ReplyText, Text: "hi"}}
	p, renderer, _, _ := newTestPipeline(t, chatter)

	if p.Submit(context.Background(), "   \t  ") {
		t.Fatal("whitespace-only input accepted")
	}
	if len(renderer.user) != 0 || len(chatter.messages) != 0 {
		t.Error("dropped submission produced side effects")
	}
}

func TestSubmitWhilePendingDropped(t *testing.T) {
	release := make(chan struct{})
	chatter := &fakeChatter{
		reply:   &assistant.Reply{Kind: assistant.ReplyText, Text: "first"},
		release: release,
	}
	p, _, _, _ := newTestPipeline(t, chatter)

	if !p.Begin("first question") {
		t.Fatal("first submission dropped")
	}
	done := make(chan struct{})
	go func() {
		p.Complete(context.Background(), "first question")
		close(done)
	}()

	// Second submission while the first is in flight is dropped, not queued.
	if p.Begin("second question") {
		t.Error("submission accepted while pending")
	}

	close(release)
	<-done

	if len(chatter.messages) != 1 {
		t.Fatalf("chat calls = %d, want 1", len(chatter.messages))
	}
	// Once the flag clears, submissions flow again.
	if !p.Submit(context.Background(), "third question") {
		t.Error("submission dropped after pending cleared")
	}
}

func TestSubmitServiceError(t *testing.T) {
	chatter := &fakeChatter{reply: &assistant.Reply{Kind: assistant.ReplyServiceError, ServiceErr: "model overloaded"}}
	p, renderer, _, _ := newTestPipeline(t, chatter)

	p.Submit(context.Background(), "hello")

	if got := renderer.lastBot(t).Content.Text; got != "Error: model overloaded" {
		t.Errorf("bot text = %q, want prefixed service error", got)
	}
}

func TestSubmitEmptyReplyFallback(t *testing.T) {
	chatter := &fakeChatter{reply: &assistant.Reply{Kind: assistant.ReplyEmpty}}
	p, renderer, _, _ := newTestPipeline(t, chatter)

	p.Submit(context.Background(), "hello")

	if got := renderer.lastBot(t).Content.Text; got != FallbackNotUnderstood {
		t.Errorf("bot text = %q, want %q", got, FallbackNotUnderstood)
	}
}

func TestSubmitTransportFailureFallback(t *testing.T) {
	chatter := &fakeChatter{err: errors.New("connection refused")}
	p, renderer, _, _ := newTestPipeline(t, chatter)

	p.Submit(context.Background(), "hello")

	if got := renderer.lastBot(t).Content.Text; got != FallbackRequestFailed {
		t.Errorf("bot text = %q, want %q", got, FallbackRequestFailed)
	}
	if renderer.untyping != 1 {
		t.Error("typing indicator not hidden on failure")
	}
	if p.Pending() {
		t.Error("pending flag stuck after failure")
	}
}

func TestSubmitImageReply(t *testing.T) {
	chatter := &fakeChatter{reply: &assistant.Reply{
		Kind:   assistant.ReplyImages,
		Images: []assistant.Image{{Data: "data:image/png;base64,AAAA", Caption: "CRT monitor"}},
	}}
	p, renderer, speaker, _ := newTestPipeline(t, chatter)
	p.SetVoiceEnabled(true)

	p.Submit(context.Background(), "show me examples")

	bot := renderer.lastBot(t)
	if bot.Content.Kind != model.KindImages {
		t.Fatalf("content kind = %v, want images", bot.Content.Kind)
	}
	if bot.Content.Images[0].Caption != "CRT monitor" {
		t.Errorf("caption = %q", bot.Content.Images[0].Caption)
	}
	// Image payloads are never spoken, even with voice enabled.
	if len(speaker.spoken) != 0 {
		t.Errorf("image reply spoken: %v", speaker.spoken)
	}
}

func TestVoiceSpeaksTextReplies(t *testing.T) {
	chatter := &fakeChatter{reply: &assistant.Reply{Kind: assistant.ReplyText, Text: "Take it to a drop-off point."}}
	p, _, speaker, _ := newTestPipeline(t, chatter)

	p.Submit(context.Background(), "where do I take batteries?")
	if len(speaker.spoken) != 0 {
		t.Error("reply spoken with voice disabled")
	}

	p.SetVoiceEnabled(true)
	p.Submit(context.Background(), "and bulbs?")
	if len(speaker.spoken) != 1 || speaker.spoken[0] != "Take it to a drop-off point." {
		t.Errorf("spoken = %v", speaker.spoken)
	}
}

func TestChatIDFollowsActiveSession(t *testing.T) {
	chatter := &fakeChatter{reply: &assistant.Reply{Kind: assistant.ReplyText, Text: "ok"}}
	p, _, _, mgr := newTestPipeline(t, chatter)

	// First message: no session existed when Chat was invoked is not the
	// contract; Begin creates the session, so the ID travels with the call.
	p.Submit(context.Background(), "first")
	if chatter.chatIDs[0] != mgr.ActiveID() {
		t.Errorf("chat id = %q, want %q", chatter.chatIDs[0], mgr.ActiveID())
	}

	p.Submit(context.Background(), "second")
	if chatter.chatIDs[1] != chatter.chatIDs[0] {
		t.Error("chat id changed between messages of one session")
	}
}

func TestThrottleDropsRapidRepeats(t *testing.T) {
	chatter := &fakeChatter{reply: &assistant.Reply{Kind: assistant.ReplyText, Text: "ok"}}
	p, _, _, _ := newTestPipeline(t, chatter)
	// One token, never refilled: only the first submission passes.
	p.Throttle = rate.NewLimiter(rate.Every(time.Hour), 1)

	if !p.Submit(context.Background(), "first") {
		t.Fatal("first submission dropped")
	}
	if p.Submit(context.Background(), "second") {
		t.Error("rapid repeat accepted")
	}
}
