// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks the chat currently being composed.
//
// Manager owns the active session reference and the visible transcript, and
// is the only mutation path for either: UI layers render what the manager
// holds and never touch session storage directly. This keeps the session
// lifecycle testable without a terminal attached.
//
// The transcript and the active session differ on purpose: the standing
// greeting emitted by StartNew is rendered but belongs to no session, and
// replaying a stored session rewrites the transcript without re-triggering
// persistence or speech.
package session
