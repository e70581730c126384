// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history provides durable chat session persistence for ewaste-tui.
package history

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/jeranaias/ewaste-tui/internal/model"
	"github.com/jeranaias/ewaste-tui/internal/util"
)

// =============================================================================
// BUCKETS
// =============================================================================

// Bucket names one of the three recency partitions.
type Bucket string

const (
	BucketToday     Bucket = "today"
	BucketYesterday Bucket = "yesterday"
	BucketWeek      Bucket = "week"

	// BucketNone marks a session too old to retain in the live store.
	BucketNone Bucket = ""
)

// MaxPerBucket caps each bucket; the oldest entry is evicted on overflow.
const MaxPerBucket = 10

// Document is the on-disk form of the history store.
type Document struct {
	Today     []*model.Session `json:"today"`
	Yesterday []*model.Session `json:"yesterday"`
	Week      []*model.Session `json:"week"`
}

// BucketFor places a session creation time relative to now: the same
// calendar day maps to today, the previous calendar day to yesterday,
// anything else within the last seven days to week. Older sessions are
// not retained.
func BucketFor(createdAt, now time.Time) Bucket {
	if sameDay(createdAt, now) {
		return BucketToday
	}
	if sameDay(createdAt, now.AddDate(0, 0, -1)) {
		return BucketYesterday
	}
	if createdAt.After(now.AddDate(0, 0, -7)) {
		return BucketWeek
	}
	return BucketNone
}

// sameDay reports whether two times fall on the same calendar day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// =============================================================================
// HISTORY STORE
// =============================================================================

// Store handles chat session persistence.
//
// Every mutation rewrites the whole document synchronously; there is no
// batching or async write-back. Access is read-modify-write without
// cross-process locking, which is accepted for a single-user client.
type Store struct {
	// Path is the JSON document location, e.g. ~/.ewaste/chatHistory.json.
	Path string

	// Archive receives sessions evicted from the capped buckets.
	// Nil disables archiving; evictions are then silent drops.
	Archive *Archive

	// Now supplies the current time. Overridable for bucket tests.
	Now func() time.Time

	doc Document
}

// NewStore creates a store backed by the given JSON document path.
func NewStore(path string) *Store {
	return &Store{
		Path: path,
		Now:  time.Now,
		doc:  emptyDocument(),
	}
}

func emptyDocument() Document {
	return Document{
		Today:     []*model.Session{},
		Yesterday: []*model.Session{},
		Week:      []*model.Session{},
	}
}

// =============================================================================
// LOAD
// =============================================================================

// Load reads the history document from disk. Absent or malformed data yields
// an empty store; Load never fails to the caller. After decoding, every
// session is re-bucketed against the current date so entries age across
// bucket boundaries as real time advances.
func (s *Store) Load() {
	s.doc = emptyDocument()

	data, err := os.ReadFile(s.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("history: unreadable document, starting empty: %v", err)
		}
		return
	}

	var stored Document
	if err := json.Unmarshal(data, &stored); err != nil {
		log.Printf("history: corrupt document, starting empty: %v", err)
		return
	}

	now := s.Now()
	all := make([]*model.Session, 0, len(stored.Today)+len(stored.Yesterday)+len(stored.Week))
	all = append(all, stored.Today...)
	all = append(all, stored.Yesterday...)
	all = append(all, stored.Week...)

	// Stored order is most-recent-first. place prepends, so walk the list
	// oldest-first to preserve that order when sessions are redistributed.
	for i := len(all) - 1; i >= 0; i-- {
		if all[i] == nil {
			continue
		}
		s.place(all[i], now)
	}
}

// =============================================================================
// SAVE
// =============================================================================

// Save rewrites the history document atomically. A reader never observes a
// partially written document.
func (s *Store) Save() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(s.Path, data, 0644)
}

// =============================================================================
// RECORD
// =============================================================================

// Record inserts or re-inserts a session into the bucket matching its
// creation date, enforces the per-bucket cap, and flushes to disk.
// Sessions already present (matched by ID) move to the front of their
// bucket rather than duplicating.
func (s *Store) Record(sess *model.Session) error {
	if sess == nil {
		return nil
	}
	s.remove(sess.ID)
	s.place(sess, s.Now())
	return s.Save()
}

// place inserts a session at the front of its bucket and trims overflow.
func (s *Store) place(sess *model.Session, now time.Time) {
	switch BucketFor(sess.CreatedAt, now) {
	case BucketToday:
		s.doc.Today = s.trim(append([]*model.Session{sess}, s.doc.Today...))
	case BucketYesterday:
		s.doc.Yesterday = s.trim(append([]*model.Session{sess}, s.doc.Yesterday...))
	case BucketWeek:
		s.doc.Week = s.trim(append([]*model.Session{sess}, s.doc.Week...))
	default:
		s.archiveSession(sess)
	}
}

// trim enforces the bucket cap, archiving the overflow.
func (s *Store) trim(bucket []*model.Session) []*model.Session {
	if len(bucket) <= MaxPerBucket {
		return bucket
	}
	for _, evicted := range bucket[MaxPerBucket:] {
		s.archiveSession(evicted)
	}
	return bucket[:MaxPerBucket]
}

// remove deletes a session by ID from whichever bucket holds it.
func (s *Store) remove(id string) {
	s.doc.Today = removeByID(s.doc.Today, id)
	s.doc.Yesterday = removeByID(s.doc.Yesterday, id)
	s.doc.Week = removeByID(s.doc.Week, id)
}

func removeByID(bucket []*model.Session, id string) []*model.Session {
	for i, sess := range bucket {
		if sess.ID == id {
			return append(bucket[:i:i], bucket[i+1:]...)
		}
	}
	return bucket
}

// archiveSession moves an evicted session to the archive. Eviction is
// silent: archive failures are logged, never surfaced.
func (s *Store) archiveSession(sess *model.Session) {
	if s.Archive == nil {
		return
	}
	if err := s.Archive.Add(sess); err != nil {
		log.Printf("history: failed to archive session %s: %v", sess.ID, err)
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Sessions returns the sessions of one bucket, most recent first.
func (s *Store) Sessions(b Bucket) []*model.Session {
	switch b {
	case BucketToday:
		return s.doc.Today
	case BucketYesterday:
		return s.doc.Yesterday
	case BucketWeek:
		return s.doc.Week
	}
	return nil
}

// Find returns the live session with the given ID, or nil.
func (s *Store) Find(id string) *model.Session {
	for _, b := range []Bucket{BucketToday, BucketYesterday, BucketWeek} {
		for _, sess := range s.Sessions(b) {
			if sess.ID == id {
				return sess
			}
		}
	}
	return nil
}

// Count returns the total number of live sessions across all buckets.
func (s *Store) Count() int {
	return len(s.doc.Today) + len(s.doc.Yesterday) + len(s.doc.Week)
}
