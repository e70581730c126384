// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the assistant TUI.

This package defines the color palette and animation frames used
throughout the application. All colors use Lip Gloss AdaptiveColor for
automatic light/dark terminal detection.

# Color System (colors.go)

  - Green - Primary accent, the assistant's recycling identity
  - Cyan - Info, commands, and user highlights
  - Amber - Warnings and the live-microphone indicator
  - Rose - Errors and critical alerts

Message bubbles use semantic color tokens:

	UserBubbleBg      - Background for user messages
	UserBubbleFg      - Text color for user messages
	AssistantBubbleBg - Background for assistant messages
	AssistantBubbleFg - Text color for assistant messages

# Theme (theme.go)

Theme bundles the configured lipgloss styles for every surface of the
chat: header, bubbles, input area, history sidebar, language picker,
image preview overlay, status bar, and toasts. Construct one with
NewTheme, which probes the terminal through termenv.

# Animations (animations.go)

Spinner frame sets for the typing indicator, upload spinner, and the
microphone pulse. ASCII-only for terminal compatibility.
*/
package styles
