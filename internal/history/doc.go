// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history provides durable chat session persistence for ewaste-tui.
//
// Sessions live in three recency buckets (today, yesterday, this week), each
// capped at ten entries with the oldest evicted silently. The whole store is
// one JSON document on disk, loaded once at startup and rewritten atomically
// after every mutation.
//
// Buckets are recomputed against the current date every time the document is
// loaded, so a session recorded "today" shows up under "yesterday" after
// midnight without any background migration.
//
// Sessions that fall out of the capped buckets are appended to an SQLite
// archive which supports content search; the live store never exceeds its
// thirty-session bound regardless of archive size.
package history
