// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides reusable UI components for the assistant TUI.

# Message Bubbles (message.go)

RenderMessage turns a transcript message into a styled chat bubble:
user messages right-aligned in blue, assistant messages left-aligned in
green. Image payloads render as framed placeholders with captions.

# Toasts (toast.go)

Non-blocking corner notifications for microphone failures, rejected
image selections, and upload problems. A ToastManager holds the active
stack; ToastTickCmd drives expiry from the Bubble Tea update loop.
*/
package components
