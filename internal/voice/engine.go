// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package voice

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"sync"
)

// =============================================================================
// SYNTHESIZER
// =============================================================================

// ExecSynthesizer speaks by shelling out to a system text-to-speech
// command. The text is appended as the final argument.
type ExecSynthesizer struct {
	mu      sync.Mutex
	command string
	args    []string
	current *exec.Cmd
}

// NewExecSynthesizer creates a synthesizer around the given command.
// With an empty command it probes for say, then espeak, on PATH.
// Returns nil when no engine is available.
func NewExecSynthesizer(command string, args ...string) *ExecSynthesizer {
	if command == "" {
		for _, candidate := range []string{"say", "espeak"} {
			if _, err := exec.LookPath(candidate); err == nil {
				command = candidate
				break
			}
		}
	}
	if command == "" {
		return nil
	}
	return &ExecSynthesizer{command: command, args: args}
}

// Speak starts the utterance and returns without waiting for playback.
func (s *ExecSynthesizer) Speak(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	cmd := exec.Command(s.command, append(append([]string{}, s.args...), text)...)
	if err := cmd.Start(); err != nil {
		return
	}

	s.mu.Lock()
	s.current = cmd
	s.mu.Unlock()

	go func() {
		cmd.Wait()
		s.mu.Lock()
		if s.current == cmd {
			s.current = nil
		}
		s.mu.Unlock()
	}()
}

// Cancel kills any utterance still playing.
func (s *ExecSynthesizer) Cancel() {
	s.mu.Lock()
	cmd := s.current
	s.current = nil
	s.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		cmd.Process.Kill()
	}
}

// =============================================================================
// RECOGNIZER
// =============================================================================

// ExecRecognizer captures speech by running a speech-to-text command
// that prints the transcript to stdout. The language code is passed via
// a --language flag when non-empty.
type ExecRecognizer struct {
	command string
	args    []string
}

// NewExecRecognizer creates a recognizer around the given command.
// Returns nil with an empty command; there is no portable default.
func NewExecRecognizer(command string, args ...string) *ExecRecognizer {
	if command == "" {
		return nil
	}
	return &ExecRecognizer{command: command, args: args}
}

// Recognize runs the capture command and returns the trimmed transcript.
func (r *ExecRecognizer) Recognize(ctx context.Context, language string) (string, error) {
	args := append([]string{}, r.args...)
	if language != "" {
		args = append(args, "--language", language)
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, r.command, args...)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}

	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}
