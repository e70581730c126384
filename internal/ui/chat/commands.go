// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines commands for work that must not block the update
// loop: chat exchanges, language fetches, image uploads, and speech
// capture.
package chat

import (
	"context"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/jeranaias/ewaste-tui/internal/assistant"
	"github.com/jeranaias/ewaste-tui/internal/dispatch"
	"github.com/jeranaias/ewaste-tui/internal/imageflow"
	"github.com/jeranaias/ewaste-tui/internal/voice"
)

// completeCmd runs the blocking half of a chat exchange accepted by
// Pipeline.Begin.
func completeCmd(pipeline *dispatch.Pipeline, text string) tea.Cmd {
	return func() tea.Msg {
		pipeline.Complete(context.Background(), text)
		return SubmitDoneMsg{}
	}
}

// fetchLanguagesCmd loads the supported languages from the service.
func fetchLanguagesCmd(client *assistant.Client) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return LanguagesMsg{}
		}
		list, err := client.Languages(context.Background())
		return LanguagesMsg{List: list, Err: err}
	}
}

// stageImageCmd reads and sniffs an image file for preview.
func stageImageCmd(flow *imageflow.Flow, path string) tea.Cmd {
	return func() tea.Msg {
		staged, err := flow.Select(path)
		return ImageStagedMsg{Staged: staged, Err: err}
	}
}

// confirmImageCmd uploads the staged image for analysis.
func confirmImageCmd(flow *imageflow.Flow) tea.Cmd {
	return func() tea.Msg {
		err := flow.Confirm(context.Background())
		return AnalysisDoneMsg{Err: err}
	}
}

// toggleRecordingCmd flips the microphone state. Transitions and
// transcripts arrive through the relay, not this command's result.
func toggleRecordingCmd(ctl *voice.Controller) tea.Cmd {
	return func() tea.Msg {
		if ctl == nil {
			return CaptureErrorMsg{Err: voice.ErrNoRecognizer}
		}
		if err := ctl.Toggle(context.Background()); err != nil {
			return CaptureErrorMsg{Err: err}
		}
		return nil
	}
}

// sortedLanguageCodes returns the language codes in stable display order.
func sortedLanguageCodes(list *assistant.LanguageList) []string {
	if list == nil {
		return nil
	}
	codes := make([]string, 0, len(list.Languages))
	for code := range list.Languages {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// languageName resolves a display name for a language code, preferring
// the service-provided name and falling back to the Unicode CLDR
// self-name for codes the service leaves unnamed.
func languageName(code, provided string) string {
	if provided != "" {
		return provided
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.Self.Name(tag); name != "" {
		return name
	}
	return code
}
