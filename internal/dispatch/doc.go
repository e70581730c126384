// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dispatch turns user submissions into rendered, persisted
// exchanges with the assistant service.
//
// The pipeline enforces the single-in-flight rule: at most one text or
// voice submission is outstanding at any time, and re-entrant submissions
// are dropped, not queued. Typed input, recognized speech, and the
// language selector all converge here, so every entry point observes the
// same gating, rendering, and persistence behavior.
package dispatch
