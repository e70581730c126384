// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the main Bubble Tea model for the assistant TUI.

The view is a classic chat layout: a collapsible history sidebar on the
left with sessions grouped into Today, Yesterday, and Previous 7 Days; a
scrolling transcript viewport; an input line; and a status bar showing
the voice toggle, selected language, and key hints. Overlays handle the
language picker and the image preview/confirm step.

# Wiring

The model renders whatever the session manager holds. Mutation flows
one way: key events feed the dispatch pipeline, voice controller, or
image flow; those update the session manager; its change callback posts
a TranscriptChangedMsg back into the program, and View re-reads the
transcript. AttachProgram must be called once after tea.NewProgram so
background events (voice state, capture errors, transcript changes)
can reach the update loop.

# Layout of this package

  - model.go: Model state and construction
  - update.go: event handling
  - view.go: rendering
  - commands.go: tea.Cmd constructors for network and voice work
  - messages.go: message types crossing goroutine boundaries
  - keys.go: key bindings
*/
package chat
