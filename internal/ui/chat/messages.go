// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the message types that cross goroutine boundaries
// into the Bubble Tea update loop.
package chat

import (
	"github.com/jeranaias/ewaste-tui/internal/assistant"
	"github.com/jeranaias/ewaste-tui/internal/imageflow"
	"github.com/jeranaias/ewaste-tui/internal/voice"
)

// TranscriptChangedMsg signals that the session manager's transcript was
// mutated and the viewport must re-render.
type TranscriptChangedMsg struct{}

// TypingMsg toggles the typing indicator.
type TypingMsg struct {
	Show bool
}

// ClearInputMsg empties the input field after an optimistic render.
type ClearInputMsg struct{}

// SubmitDoneMsg signals that a dispatched exchange finished, success or
// failure. The outcome itself arrives through TranscriptChangedMsg.
type SubmitDoneMsg struct{}

// LanguagesMsg carries the result of fetching the supported languages.
type LanguagesMsg struct {
	List *assistant.LanguageList
	Err  error
}

// VoiceStateMsg reports a recording state transition.
type VoiceStateMsg struct {
	State voice.State
}

// CaptureErrorMsg reports a failed speech capture.
type CaptureErrorMsg struct {
	Err error
}

// ImageStagedMsg reports the outcome of selecting an image file.
type ImageStagedMsg struct {
	Staged *imageflow.Staged
	Err    error
}

// AnalysisDoneMsg signals that an image upload finished. The resulting
// transcript messages arrive through TranscriptChangedMsg.
type AnalysisDoneMsg struct {
	Err error
}
