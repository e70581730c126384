// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/ewaste-tui/internal/history"
	"github.com/jeranaias/ewaste-tui/internal/model"
)

func newTestManager(t *testing.T) (*Manager, *history.Store) {
	t.Helper()
	store := history.NewStore(filepath.Join(t.TempDir(), "chatHistory.json"))
	return NewManager(store), store
}

// =============================================================================
// LIFECYCLE TESTS
// =============================================================================

func TestStartNew_EmitsUnpersistedGreeting(t *testing.T) {
	mgr, store := newTestManager(t)

	mgr.StartNew()

	transcript := mgr.Transcript()
	if len(transcript) != 1 {
		t.Fatalf("transcript length = %d, want 1", len(transcript))
	}
	if transcript[0].Content.Text != Greeting {
		t.Errorf("greeting = %q", transcript[0].Content.Text)
	}
	if mgr.Active() != nil {
		t.Error("greeting must not create a session")
	}
	if store.Count() != 0 {
		t.Errorf("store count = %d, want 0", store.Count())
	}
}

func TestAppendUserMessage_CreatesSessionOnFirstMessage(t *testing.T) {
	mgr, store := newTestManager(t)

	msg, created := mgr.AppendUserMessage("Hello")
	if !created {
		t.Fatal("first message should create a session")
	}
	if msg.Sender != model.SenderUser {
		t.Errorf("sender = %q", msg.Sender)
	}

	active := mgr.Active()
	if active == nil {
		t.Fatal("expected active session")
	}
	if active.Title != "Hello" {
		t.Errorf("title = %q, want %q", active.Title, "Hello")
	}
	if store.Count() != 1 {
		t.Errorf("store count = %d, want 1", store.Count())
	}
	if got := store.Sessions(history.BucketToday); len(got) != 1 {
		t.Errorf("today bucket = %d sessions, want 1", len(got))
	}

	// Second message continues the same session
	_, created = mgr.AppendUserMessage("and another thing")
	if created {
		t.Error("second message must not create a session")
	}
	if store.Count() != 1 {
		t.Errorf("store count after second message = %d, want 1", store.Count())
	}
}

func TestAppendUserMessage_LongTitleTruncated(t *testing.T) {
	mgr, _ := newTestManager(t)

	long := strings.Repeat("x", 40)
	mgr.AppendUserMessage(long)

	want := strings.Repeat("x", 30) + "..."
	if got := mgr.Active().Title; got != want {
		t.Errorf("title = %q, want %q", got, want)
	}
}

func TestAppendBotMessage_BeforeSessionIsRenderOnly(t *testing.T) {
	mgr, store := newTestManager(t)

	mgr.AppendBotMessage(model.TextContent("unsolicited tip"))

	if len(mgr.Transcript()) != 1 {
		t.Fatal("bot message should render")
	}
	if store.Count() != 0 {
		t.Error("bot message without a session must not persist")
	}
}

func TestAppendBotMessage_PersistsIntoActiveSession(t *testing.T) {
	mgr, store := newTestManager(t)

	mgr.AppendUserMessage("Hello")
	mgr.AppendBotMessage(model.TextContent("Hi there"))

	sessions := store.Sessions(history.BucketToday)
	if len(sessions) != 1 {
		t.Fatalf("store sessions = %d, want 1", len(sessions))
	}
	if sessions[0].MessageCount() != 2 {
		t.Errorf("persisted messages = %d, want 2", sessions[0].MessageCount())
	}
}

// =============================================================================
// REPLAY TESTS
// =============================================================================

func TestLoadSession_ReplaysWithoutRePersisting(t *testing.T) {
	mgr, store := newTestManager(t)

	mgr.AppendUserMessage("Hello")
	mgr.AppendBotMessage(model.TextContent("Hi"))
	stored := mgr.Active()

	mgr.StartNew()
	if len(mgr.Transcript()) != 1 {
		t.Fatal("StartNew should reset the transcript to the greeting")
	}

	saves := store.Count()
	mgr.LoadSession(stored)

	transcript := mgr.Transcript()
	if len(transcript) != 2 {
		t.Fatalf("replayed transcript length = %d, want 2", len(transcript))
	}
	if transcript[0].Content.Text != "Hello" || transcript[1].Content.Text != "Hi" {
		t.Error("replay must preserve message order")
	}
	if store.Count() != saves {
		t.Error("replay must not touch persistence")
	}

	// The loaded session is active again: follow-ups continue it
	mgr.AppendUserMessage("follow-up")
	if mgr.Active().ID != stored.ID {
		t.Error("follow-up should append to the loaded session")
	}
	if stored.MessageCount() != 3 {
		t.Errorf("loaded session messages = %d, want 3", stored.MessageCount())
	}
}

func TestActiveID(t *testing.T) {
	mgr, _ := newTestManager(t)

	if mgr.ActiveID() != "" {
		t.Error("no active session should yield empty ID")
	}
	mgr.AppendUserMessage("Hello")
	if mgr.ActiveID() == "" {
		t.Error("active session should yield its ID")
	}
}

func TestChangeCallbackFires(t *testing.T) {
	mgr, _ := newTestManager(t)

	var calls int
	mgr.SetChangeCallback(func() { calls++ })

	mgr.StartNew()
	mgr.AppendUserMessage("Hello")
	mgr.AppendBotMessage(model.TextContent("Hi"))

	if calls != 3 {
		t.Errorf("change callback fired %d times, want 3", calls)
	}
}
