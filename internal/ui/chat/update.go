// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines event handling: keyboard routing by overlay and
// focus, plus the messages posted by background commands and the relay.
package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ewaste-tui/internal/export"
	"github.com/jeranaias/ewaste-tui/internal/imageflow"
	"github.com/jeranaias/ewaste-tui/internal/ui/components"
	"github.com/jeranaias/ewaste-tui/internal/voice"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TranscriptChangedMsg:
		m.rebuildSidebar()
		m.refreshViewport()
		return m, nil

	case TypingMsg:
		m.typing = msg.Show
		if m.typing {
			return m, m.spin.Tick
		}
		return m, nil

	case ClearInputMsg:
		m.input.Reset()
		return m, nil

	case SubmitDoneMsg:
		return m, nil

	case LanguagesMsg:
		if msg.Err != nil {
			m.toasts.AddWarning("Could not load languages")
			return m, nil
		}
		m.languages = msg.List
		m.langCodes = sortedLanguageCodes(msg.List)
		if msg.List != nil && msg.List.Current != "" && m.currentLang == "" {
			m.currentLang = msg.List.Current
		}
		return m, nil

	case VoiceStateMsg:
		m.recording = msg.State == voice.StateRecording
		return m, nil

	case CaptureErrorMsg:
		m.reportCaptureError(msg.Err)
		return m, nil

	case ImageStagedMsg:
		if msg.Err != nil {
			if errors.Is(msg.Err, imageflow.ErrNotAnImage) {
				m.toasts.AddWarning("That file is not an image")
			} else {
				m.toasts.AddError("Could not read image: " + msg.Err.Error())
			}
			return m, nil
		}
		m.overlay = overlayImagePreview
		return m, nil

	case AnalysisDoneMsg:
		m.uploading = false
		m.overlay = overlayNone
		m.input.Focus()
		if msg.Err != nil && !errors.Is(msg.Err, imageflow.ErrNothingStaged) {
			m.toasts.AddError("Image analysis failed")
		}
		return m, nil

	case components.ToastTickMsg:
		m.toasts.TickToasts()
		return m, components.ToastTickCmd()

	case spinner.TickMsg:
		if m.typing || m.uploading {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

// reportCaptureError surfaces a speech capture failure as a toast.
func (m *Model) reportCaptureError(err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, voice.ErrNoRecognizer):
		m.toasts.AddWarning("No speech recognizer is configured")
	case errors.Is(err, voice.ErrNoSpeech):
		m.toasts.AddWarning("No speech detected")
	default:
		m.toasts.AddError("Microphone error: " + err.Error())
	}
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Quit works everywhere.
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.overlay {
	case overlayLanguages:
		return m.handleLanguagesKey(msg)
	case overlayImagePath:
		return m.handleImagePathKey(msg)
	case overlayImagePreview:
		return m.handleImagePreviewKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.NewChat):
		m.sessions.StartNew()
		m.focus = focusInput
		m.input.Focus()
		return m, nil

	case key.Matches(msg, m.keys.ToggleSidebar):
		m.sidebarVisible = !m.sidebarVisible
		if !m.sidebarVisible {
			m.focus = focusInput
			m.input.Focus()
		}
		m.resize(m.width, m.height)
		return m, nil

	case key.Matches(msg, m.keys.FocusSidebar):
		if !m.sidebarVisible {
			return m, nil
		}
		if m.focus == focusSidebar {
			m.focus = focusInput
			m.input.Focus()
		} else {
			m.focus = focusSidebar
			m.input.Blur()
			if m.selectedSession() == nil {
				m.moveSidebarCursor(1)
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleVoice):
		enabled := !m.pipeline.VoiceEnabled()
		m.pipeline.SetVoiceEnabled(enabled)
		if !enabled && m.voice != nil {
			m.voice.Silence()
		}
		return m, nil

	case key.Matches(msg, m.keys.Record):
		return m, toggleRecordingCmd(m.voice)

	case key.Matches(msg, m.keys.Languages):
		m.overlay = overlayLanguages
		m.langCursor = 0
		for i, code := range m.langCodes {
			if code == m.currentLang {
				m.langCursor = i
				break
			}
		}
		if m.languages == nil {
			return m, fetchLanguagesCmd(m.client)
		}
		return m, nil

	case key.Matches(msg, m.keys.Export):
		sess := m.sessions.Active()
		if sess == nil {
			m.toasts.AddWarning("Nothing to export yet")
			return m, nil
		}
		path, err := export.ExportToFile(sess, export.NewMarkdownExporter(nil), nil)
		if err != nil {
			m.toasts.AddError("Export failed: " + err.Error())
		} else {
			m.toasts.AddStatus("Exported to " + path)
		}
		return m, nil

	case key.Matches(msg, m.keys.AttachImage):
		m.overlay = overlayImagePath
		m.pathInput.Reset()
		m.pathInput.Focus()
		m.input.Blur()
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveSidebarCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveSidebarCursor(1)
	case key.Matches(msg, m.keys.Submit):
		if sess := m.selectedSession(); sess != nil {
			m.sessions.LoadSession(sess)
			m.input.Reset()
			m.focus = focusInput
			m.input.Focus()
		}
	case key.Matches(msg, m.keys.Cancel):
		m.focus = focusInput
		m.input.Focus()
	}
	return m, nil
}

func (m *Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		text := strings.TrimSpace(m.input.Value())
		if !m.pipeline.Begin(text) {
			return m, nil
		}
		m.input.Reset()
		return m, tea.Batch(completeCmd(m.pipeline, text), m.spin.Tick)

	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// OVERLAY KEY HANDLING
// =============================================================================

func (m *Model) handleLanguagesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.langCursor > 0 {
			m.langCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.langCursor < len(m.langCodes)-1 {
			m.langCursor++
		}
	case key.Matches(msg, m.keys.Submit):
		if m.langCursor >= 0 && m.langCursor < len(m.langCodes) {
			m.currentLang = m.langCodes[m.langCursor]
			if m.voice != nil {
				m.voice.SetLanguage(m.currentLang)
			}
			// The service switches languages through the chat itself,
			// so the selection travels as a regular message.
			text := "set language " + m.currentLang
			if m.pipeline != nil && m.pipeline.Begin(text) {
				m.overlay = overlayNone
				return m, tea.Batch(completeCmd(m.pipeline, text), m.spin.Tick)
			}
		}
		m.overlay = overlayNone
	case key.Matches(msg, m.keys.Cancel):
		m.overlay = overlayNone
	}
	return m, nil
}

func (m *Model) handleImagePathKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.overlay = overlayNone
		m.pathInput.Blur()
		m.input.Focus()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		path := strings.TrimSpace(m.pathInput.Value())
		if path == "" {
			return m, nil
		}
		return m, stageImageCmd(m.flow, path)
	}

	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m *Model) handleImagePreviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		if m.uploading {
			return m, nil
		}
		m.uploading = true
		return m, tea.Batch(confirmImageCmd(m.flow), m.spin.Tick)
	case key.Matches(msg, m.keys.Cancel):
		if m.uploading {
			return m, nil
		}
		m.flow.Discard()
		m.overlay = overlayNone
		m.pathInput.Blur()
		m.input.Focus()
	}
	return m, nil
}
