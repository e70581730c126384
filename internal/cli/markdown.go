// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the line-oriented REPL front end.
//
// This file defines markdown rendering for assistant replies.
package cli

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// markdownRenderer renders assistant replies for terminal display.
// Nil when initialization failed; callers fall back to plain text.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(DefaultTerminalWidth),
	)
	if err != nil {
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails or renderer is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displayReply prints a reply with markdown rendering when stdout is a
// terminal, plain text otherwise so piped output stays clean.
func displayReply(text string) {
	if IsStdoutTTY() {
		fmt.Print(renderMarkdown(text))
	} else {
		fmt.Println(text)
	}
}
