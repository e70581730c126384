// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ewaste-tui/internal/model"
	"github.com/jeranaias/ewaste-tui/internal/ui/styles"
	"github.com/jeranaias/ewaste-tui/internal/util"
)

// bubbleMaxShare is the fraction of the viewport width a bubble may use.
const bubbleMaxShare = 0.8

// RenderMessage renders a transcript message as a chat bubble. User
// messages align right in blue, assistant messages left in green. Image
// payloads render as framed placeholders with their captions, since the
// terminal cannot draw the pixels inline.
func RenderMessage(theme *styles.Theme, msg *model.Message, width int) string {
	if msg == nil {
		return ""
	}

	bubbleWidth := int(float64(width) * bubbleMaxShare)
	if bubbleWidth < 20 {
		bubbleWidth = 20
	}

	var body string
	if msg.Content.Kind == model.KindImages {
		body = renderImages(theme, msg.Content.Images, bubbleWidth)
	} else {
		body = model.SanitizeText(msg.Content.Text)
	}

	label := theme.SessionMeta.Render(
		msg.Sender.DisplayName() + " " + msg.Timestamp.Format("15:04"),
	)

	var bubble string
	if msg.Sender == model.SenderUser {
		bubble = theme.UserBubble.MaxWidth(bubbleWidth).Render(body)
		block := lipgloss.JoinVertical(lipgloss.Right, label, bubble)
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, block)
	}

	bubble = theme.AssistantBubble.MaxWidth(bubbleWidth).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, label, bubble)
}

// renderImages renders image attachments as framed placeholders.
func renderImages(theme *styles.Theme, images []model.ImageAttachment, width int) string {
	parts := make([]string, 0, len(images))
	for _, img := range images {
		caption := img.Caption
		if caption == "" {
			caption = "image"
		}
		caption = util.TruncateWidth(caption, width-8)

		size := ""
		if n := len(img.Data); n > 0 {
			size = fmt.Sprintf(" (%s)", humanBytes(n))
		}

		frame := theme.ImageFrame.Render("[image]" + size)
		parts = append(parts, lipgloss.JoinVertical(
			lipgloss.Left,
			frame,
			theme.ImageCaption.Render(caption),
		))
	}
	return strings.Join(parts, "\n")
}

// humanBytes formats a byte count for display.
func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}
