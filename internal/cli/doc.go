// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package cli implements the line-oriented REPL front end for the
assistant.

The REPL is an alternative to the full-screen TUI for users who prefer
plain terminal sessions, pipes, or narrow environments. It shares the
same pipeline, session manager, and image flow as the TUI; only the
presentation differs. Input is read through liner with persistent
history, assistant replies are rendered as markdown through glamour when
stdout is a terminal, and slash commands cover the session, language,
voice, and image operations.

Slash commands:

	/help        show available commands
	/new         start a new chat session
	/history     list stored sessions grouped by day
	/load N      switch to session N from /history
	/search Q    find archived sessions by title or content
	/export F    save the chat as md, html, or json
	/language    list languages, or switch with /language CODE
	/voice       toggle spoken replies
	/record      capture one spoken message
	/image PATH  stage an image and confirm analysis
	/quit        exit

Anything else is sent to the assistant as a chat message.
*/
package cli
