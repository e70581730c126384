// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jeranaias/ewaste-tui/internal/model"
)

// newTestStore returns a store writing into a temp dir with a fixed clock.
func newTestStore(t *testing.T, now time.Time) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "chatHistory.json"))
	s.Now = func() time.Time { return now }
	return s
}

// sessionCreatedAt builds a recorded-looking session with a forced creation time.
func sessionCreatedAt(title string, createdAt time.Time) *model.Session {
	sess := model.NewSession(title)
	sess.CreatedAt = createdAt
	sess.AddUserMessage(title)
	return sess
}

// =============================================================================
// BUCKET PLACEMENT TESTS
// =============================================================================

func TestBucketFor(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		createdAt time.Time
		want      Bucket
	}{
		{"same day morning", time.Date(2025, 6, 15, 1, 0, 0, 0, time.UTC), BucketToday},
		{"previous day", time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC), BucketYesterday},
		{"two days ago", now.AddDate(0, 0, -2), BucketWeek},
		{"six days ago", now.AddDate(0, 0, -6), BucketWeek},
		{"eight days ago", now.AddDate(0, 0, -8), BucketNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BucketFor(tt.createdAt, now); got != tt.want {
				t.Errorf("BucketFor(%v) = %q, want %q", tt.createdAt, got, tt.want)
			}
		})
	}
}

func TestRecord_PlacementNeverOverlaps(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)
	store := newTestStore(t, now)

	today := sessionCreatedAt("today chat", now)
	older := sessionCreatedAt("older chat", now.AddDate(0, 0, -2))

	if err := store.Record(today); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(older); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if got := len(store.Sessions(BucketToday)); got != 1 {
		t.Errorf("today bucket size = %d, want 1", got)
	}
	if got := len(store.Sessions(BucketWeek)); got != 1 {
		t.Errorf("week bucket size = %d, want 1", got)
	}
	if got := len(store.Sessions(BucketYesterday)); got != 0 {
		t.Errorf("yesterday bucket size = %d, want 0", got)
	}
}

func TestRecord_ReinsertMovesToFront(t *testing.T) {
	now := time.Now()
	store := newTestStore(t, now)

	first := sessionCreatedAt("first", now)
	second := sessionCreatedAt("second", now)
	store.Record(first)
	store.Record(second)
	store.Record(first) // re-record moves it back to the front

	bucket := store.Sessions(BucketToday)
	if len(bucket) != 2 {
		t.Fatalf("bucket size = %d, want 2", len(bucket))
	}
	if bucket[0].ID != first.ID {
		t.Errorf("front of bucket = %q, want %q", bucket[0].Title, first.Title)
	}
}

// =============================================================================
// CAP AND EVICTION TESTS
// =============================================================================

func TestRecord_EnforcesBucketCap(t *testing.T) {
	now := time.Now()
	store := newTestStore(t, now)

	for i := 0; i < 15; i++ {
		if err := store.Record(sessionCreatedAt(fmt.Sprintf("chat %02d", i), now)); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	bucket := store.Sessions(BucketToday)
	if len(bucket) != MaxPerBucket {
		t.Fatalf("bucket size = %d, want %d", len(bucket), MaxPerBucket)
	}
	// Most recent first; the oldest five were evicted
	if bucket[0].Title != "chat 14" {
		t.Errorf("front = %q, want %q", bucket[0].Title, "chat 14")
	}
	if bucket[MaxPerBucket-1].Title != "chat 05" {
		t.Errorf("back = %q, want %q", bucket[MaxPerBucket-1].Title, "chat 05")
	}
	if store.Count() > 3*MaxPerBucket {
		t.Errorf("total sessions = %d, exceeds bound", store.Count())
	}
}

func TestEviction_GoesToArchive(t *testing.T) {
	now := time.Now()
	store := newTestStore(t, now)

	archive, err := OpenArchive(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("OpenArchive failed: %v", err)
	}
	defer archive.Close()
	store.Archive = archive

	for i := 0; i < MaxPerBucket+1; i++ {
		store.Record(sessionCreatedAt(fmt.Sprintf("chat %02d", i), now))
	}

	n, err := archive.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("archive count = %d, want 1", n)
	}

	metas, err := archive.Search("chat 00")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(metas) != 1 || metas[0].Title != "chat 00" {
		t.Errorf("Search results = %+v, want the evicted session", metas)
	}
}

// =============================================================================
// PERSISTENCE TESTS
// =============================================================================

func TestLoad_RoundTrip(t *testing.T) {
	now := time.Now()
	store := newTestStore(t, now)

	sess := model.NewSession("How do I dispose of a CRT monitor")
	sess.CreatedAt = now
	sess.AddUserMessage("How do I dispose of a CRT monitor")
	sess.AddBotMessage(model.TextContent("Take it to a certified recycler."))
	sess.AddBotMessage(model.ImageContent([]model.ImageAttachment{
		{Data: "data:image/jpeg;base64,AAAA", Caption: "CRT"},
	}))

	if err := store.Record(sess); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	reloaded := NewStore(store.Path)
	reloaded.Now = store.Now
	reloaded.Load()

	bucket := reloaded.Sessions(BucketToday)
	if len(bucket) != 1 {
		t.Fatalf("reloaded bucket size = %d, want 1", len(bucket))
	}
	got := bucket[0]
	if got.Title != sess.Title {
		t.Errorf("Title = %q, want %q", got.Title, sess.Title)
	}
	if got.MessageCount() != 3 {
		t.Fatalf("MessageCount = %d, want 3", got.MessageCount())
	}
	for i, msg := range got.Messages {
		if msg.Sender != sess.Messages[i].Sender {
			t.Errorf("message %d sender = %q, want %q", i, msg.Sender, sess.Messages[i].Sender)
		}
		if !msg.Timestamp.Equal(sess.Messages[i].Timestamp) {
			t.Errorf("message %d timestamp drifted", i)
		}
	}
	if got.Messages[2].Content.Kind != model.KindImages {
		t.Error("image message should survive the round trip")
	}
}

func TestLoad_MissingFileYieldsEmptyStore(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope", "chatHistory.json"))
	store.Load()
	if store.Count() != 0 {
		t.Errorf("Count = %d, want 0", store.Count())
	}
}

func TestLoad_CorruptFileYieldsEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatHistory.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewStore(path)
	store.Load()
	if store.Count() != 0 {
		t.Errorf("Count = %d, want 0", store.Count())
	}
}

func TestLoad_RebucketsAsTimeAdvances(t *testing.T) {
	day1 := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	store := newTestStore(t, day1)
	store.Record(sessionCreatedAt("monday chat", day1))

	// Reload two days later: the "today" session now belongs to "week".
	later := NewStore(store.Path)
	later.Now = func() time.Time { return day1.AddDate(0, 0, 2) }
	later.Load()

	if got := len(later.Sessions(BucketToday)); got != 0 {
		t.Errorf("today bucket size = %d, want 0", got)
	}
	if got := len(later.Sessions(BucketWeek)); got != 1 {
		t.Errorf("week bucket size = %d, want 1", got)
	}

	// Reload nine days later: the session ages out of the live store.
	oldest := NewStore(store.Path)
	oldest.Now = func() time.Time { return day1.AddDate(0, 0, 9) }
	oldest.Load()
	if oldest.Count() != 0 {
		t.Errorf("Count = %d, want 0 after aging out", oldest.Count())
	}
}

// =============================================================================
// ARCHIVE TESTS
// =============================================================================

func TestArchive_GetRestoresFullSession(t *testing.T) {
	archive, err := OpenArchive(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("OpenArchive failed: %v", err)
	}
	defer archive.Close()

	sess := model.NewSession("old battery question")
	sess.AddUserMessage("old battery question")
	sess.AddBotMessage(model.TextContent("Tape the terminals first."))

	if err := archive.Add(sess); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := archive.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.MessageCount() != 2 {
		t.Errorf("restored MessageCount = %d, want 2", got.MessageCount())
	}
	if got.Messages[1].Content.Text != "Tape the terminals first." {
		t.Errorf("restored reply = %q", got.Messages[1].Content.Text)
	}

	if _, err := archive.Get("missing-id"); err != ErrSessionNotArchived {
		t.Errorf("Get(missing) error = %v, want ErrSessionNotArchived", err)
	}
}

func TestArchive_SearchMatchesMessageContent(t *testing.T) {
	archive, err := OpenArchive(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("OpenArchive failed: %v", err)
	}
	defer archive.Close()

	a := model.NewSession("first")
	a.AddUserMessage("where can I drop off a microwave")
	b := model.NewSession("second")
	b.AddUserMessage("what about toner cartridges")

	archive.Add(a)
	archive.Add(b)

	metas, err := archive.Search("MICROWAVE")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(metas) != 1 || metas[0].ID != a.ID {
		t.Errorf("Search = %+v, want only the microwave session", metas)
	}
}
