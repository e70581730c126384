// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines layout and rendering: the sidebar, transcript
// viewport, status bar, and modal overlays.
package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ewaste-tui/internal/ui/components"
	"github.com/jeranaias/ewaste-tui/internal/util"
)

// Fixed vertical chrome: header (2), typing line (1), input box (3),
// status bar (1).
const chromeHeight = 7

// =============================================================================
// LAYOUT
// =============================================================================

// resize recomputes pane dimensions after a terminal size change.
func (m *Model) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	m.width = width
	m.height = height
	m.theme.Resize(width, height)

	vpWidth := width
	if m.sidebarVisible {
		vpWidth -= sidebarWidth
	}
	vpHeight := height - chromeHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	if vpWidth < 20 {
		vpWidth = 20
	}

	if !m.ready {
		m.viewport = viewport.New(vpWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = vpWidth
		m.viewport.Height = vpHeight
	}
	m.input.Width = vpWidth - 6
	m.pathInput.Width = vpWidth / 2

	m.refreshViewport()
}

// refreshViewport re-renders the active transcript into the viewport
// and scrolls to the newest message.
func (m *Model) refreshViewport() {
	if !m.ready || m.sessions == nil {
		return
	}
	transcript := m.sessions.Transcript()
	parts := make([]string, 0, len(transcript))
	for _, msg := range transcript {
		parts = append(parts, components.RenderMessage(m.theme, msg, m.viewport.Width))
	}
	m.viewport.SetContent(strings.Join(parts, "\n\n"))
	m.viewport.GotoBottom()
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.viewHeader(),
		m.viewport.View(),
		m.viewTypingLine(),
		m.viewInput(),
		m.viewStatusBar(),
	)

	var screen string
	if m.sidebarVisible {
		screen = lipgloss.JoinHorizontal(lipgloss.Top, m.viewSidebar(), main)
	} else {
		screen = main
	}

	if overlay := m.viewOverlay(); overlay != "" {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, overlay)
	}
	if m.toasts.HasToasts() {
		return screen + "\n" + components.RenderToastStack(m.toasts.GetToasts(), m.width, 0)
	}
	return screen
}

func (m *Model) viewHeader() string {
	title := m.theme.HeaderTitle.Render("E-Waste Management Assistant")
	subtitle := m.theme.HeaderSubtitle.Render("Recycling and disposal guidance")
	return m.theme.Header.Render(title + "  " + subtitle)
}

func (m *Model) viewTypingLine() string {
	switch {
	case m.typing:
		return " " + m.theme.Spinner.Render(m.spin.View()) + " " +
			m.theme.ThinkingText.Render("Assistant is typing...")
	case m.uploading:
		return " " + m.theme.Spinner.Render(m.spin.View()) + " " +
			m.theme.ThinkingText.Render("Analyzing image...")
	case m.recording:
		return " " + m.theme.Recording.Render("● Recording... press ctrl+r to stop")
	default:
		return ""
	}
}

func (m *Model) viewInput() string {
	return m.theme.InputContainer.Render(m.input.View())
}

func (m *Model) viewStatusBar() string {
	var left string
	if m.pipeline != nil && m.pipeline.VoiceEnabled() {
		left = m.theme.VoiceOn.Render("voice on")
	} else {
		left = m.theme.VoiceOff.Render("voice off")
	}
	left += " " + m.theme.LanguageBadge.Render(m.currentLang)

	var hints []string
	for _, b := range m.keys.ShortHelp() {
		hints = append(hints,
			m.theme.ShortcutKey.Render(b.Help().Key)+" "+
				m.theme.ShortcutDesc.Render(b.Help().Desc))
	}
	return m.theme.StatusBar.Render(left + "  " + strings.Join(hints, "  "))
}

func (m *Model) viewSidebar() string {
	var rows []string
	rows = append(rows, m.theme.SidebarHeading.Render("Chat History"))

	if len(m.entries) == 0 {
		rows = append(rows, m.theme.SessionMeta.Render("No previous chats"))
	}
	for i, e := range m.entries {
		if e.heading != "" {
			rows = append(rows, "", m.theme.SidebarHeading.Render(e.heading))
			continue
		}
		title := util.TruncateWidth(e.session.Title, sidebarWidth-4)
		style := m.theme.SessionItem
		if m.focus == focusSidebar && i == m.sidebarCursor {
			style = m.theme.SessionItemSelected
		}
		rows = append(rows, style.Render(title))
	}

	body := strings.Join(rows, "\n")
	return m.theme.Sidebar.
		Width(sidebarWidth - 2).
		Height(m.height - 2).
		Render(body)
}

// =============================================================================
// OVERLAYS
// =============================================================================

func (m *Model) viewOverlay() string {
	switch m.overlay {
	case overlayLanguages:
		return m.viewLanguagePicker()
	case overlayImagePath:
		return m.viewImagePathPrompt()
	case overlayImagePreview:
		return m.viewImagePreview()
	}
	return ""
}

func (m *Model) viewLanguagePicker() string {
	var rows []string
	rows = append(rows, m.theme.PreviewTitle.Render("Select Language"), "")

	if len(m.langCodes) == 0 {
		rows = append(rows, m.theme.SessionMeta.Render("Loading languages..."))
	}
	for i, code := range m.langCodes {
		var provided string
		if m.languages != nil {
			provided = m.languages.Languages[code]
		}
		label := fmt.Sprintf("%s  %s", code, languageName(code, provided))
		style := m.theme.PickerItem
		if i == m.langCursor {
			style = m.theme.PickerItemSelected
		}
		if code == m.currentLang {
			label += " " + m.theme.SessionMeta.Render("(current)")
		}
		rows = append(rows, style.Render(label))
	}
	rows = append(rows, "", m.theme.PreviewHint.Render("enter select • esc cancel"))

	return m.theme.PickerBox.Render(strings.Join(rows, "\n"))
}

func (m *Model) viewImagePathPrompt() string {
	rows := []string{
		m.theme.PreviewTitle.Render("Attach Image"),
		"",
		m.pathInput.View(),
		"",
		m.theme.PreviewHint.Render("enter stage • esc cancel"),
	}
	return m.theme.PickerBox.Render(strings.Join(rows, "\n"))
}

func (m *Model) viewImagePreview() string {
	staged := m.flow.Staged()
	if staged == nil {
		return ""
	}
	rows := []string{
		m.theme.PreviewTitle.Render("Image Preview"),
		"",
		m.theme.ImageCaption.Render(staged.Filename),
		m.theme.SessionMeta.Render(fmt.Sprintf("%s, %d bytes", staged.MIME, len(staged.Bytes))),
		"",
	}
	if m.uploading {
		rows = append(rows, m.theme.Spinner.Render(m.spin.View())+" "+
			m.theme.ThinkingText.Render("Analyzing..."))
	} else {
		rows = append(rows,
			m.theme.PreviewButton.Render("enter analyze")+"  "+
				m.theme.PreviewHint.Render("esc discard"))
	}
	return m.theme.PreviewBox.Render(strings.Join(rows, "\n"))
}
