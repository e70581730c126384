// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the line-oriented REPL front end.
//
// This file defines the liner-backed input editor with persistent
// history.
package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/ewaste-tui/internal/config"
)

// LineEditor provides input history and line editing for the REPL.
// Supports arrow keys for history navigation.
type LineEditor struct {
	line        *liner.State
	historyFile string
}

// NewLineEditor creates a line editor and loads any existing history.
func NewLineEditor() *LineEditor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.Dir()
	if err != nil {
		dir = os.TempDir()
	}
	historyFile := filepath.Join(dir, "repl_history")

	e := &LineEditor{
		line:        line,
		historyFile: historyFile,
	}
	e.LoadHistory()
	return e
}

// LoadHistory loads command history from file.
func (e *LineEditor) LoadHistory() {
	if f, err := os.Open(e.historyFile); err == nil {
		e.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt. Non-blank
// lines are appended to history.
func (e *LineEditor) ReadInput(prompt string) (string, error) {
	input, err := e.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		e.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history with owner-only permissions.
func (e *LineEditor) SaveHistory() {
	if err := config.EnsureDir(); err != nil {
		return
	}
	f, err := os.OpenFile(e.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	e.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (e *LineEditor) Close() {
	e.SaveHistory()
	e.line.Close()
}
