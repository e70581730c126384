// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package voice provides speech input and output for the chat client.
//
// A Controller owns a small recording state machine: idle until the user
// activates the microphone, recording for exactly one utterance, then back
// to idle. Recognized transcripts are submitted through the same dispatch
// path as typed input. Speech output interrupts any utterance already in
// progress before speaking, so replies never queue up behind each other.
//
// The concrete engines shell out to system commands (say, espeak, or
// whatever the configuration names), keeping the package free of audio
// stack dependencies.
package voice
