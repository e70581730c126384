// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/ewaste-tui/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports sessions to a self-contained HTML page with
// chat-bubble styling.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

const htmlStyle = `
body { font-family: -apple-system, "Segoe UI", sans-serif; background: #f4f4f5;
       margin: 0; padding: 2rem; color: #1f2937; }
.page { max-width: 760px; margin: 0 auto; }
h1 { font-size: 1.4rem; }
.meta { color: #6b7280; font-size: 0.85rem; margin-bottom: 1.5rem; }
.msg { margin: 0.75rem 0; display: flex; }
.msg.user { justify-content: flex-end; }
.bubble { max-width: 80%; padding: 0.6rem 0.9rem; border-radius: 0.9rem;
          white-space: pre-wrap; word-wrap: break-word; }
.user .bubble { background: #dbeafe; color: #1e40af; }
.bot .bubble { background: #ecfdf5; color: #065f46; }
.label { font-size: 0.72rem; color: #9ca3af; margin: 0 0.4rem 0.15rem; }
.bubble img { max-width: 100%; border-radius: 0.5rem; display: block; }
.caption { font-size: 0.8rem; font-style: italic; margin-top: 0.25rem; }
`

// Export converts a session to an HTML page.
func (e *HTMLExporter) Export(sess *model.Session) ([]byte, error) {
	if err := validateSession(sess); err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("<meta charset=\"utf-8\">\n")
	sb.WriteString(fmt.Sprintf("<title>%s</title>\n", html.EscapeString(sess.Title)))
	sb.WriteString("<style>" + htmlStyle + "</style>\n")
	sb.WriteString("</head>\n<body>\n<div class=\"page\">\n")

	sb.WriteString(fmt.Sprintf("<h1>%s</h1>\n", html.EscapeString(sess.Title)))
	if e.options.IncludeMetadata {
		sb.WriteString(fmt.Sprintf("<div class=\"meta\">Started %s &middot; %d messages &middot; exported %s</div>\n",
			html.EscapeString(formatTimestamp(sess.CreatedAt)),
			len(sess.Messages),
			html.EscapeString(formatTimestamp(time.Now()))))
	}

	for _, msg := range sess.Messages {
		cls := "bot"
		if msg.Sender == model.SenderUser {
			cls = "user"
		}
		sb.WriteString(fmt.Sprintf("<div class=\"msg %s\"><div>\n", cls))
		label := msg.Sender.DisplayName()
		if e.options.IncludeTimestamps {
			label += " " + formatShortTimestamp(msg.Timestamp)
		}
		sb.WriteString(fmt.Sprintf("<div class=\"label\">%s</div>\n", html.EscapeString(label)))
		sb.WriteString("<div class=\"bubble\">")
		sb.WriteString(e.formatContent(msg.Content))
		sb.WriteString("</div>\n</div></div>\n")
	}

	sb.WriteString("</div>\n</body>\n</html>\n")
	return []byte(sb.String()), nil
}

// FileExtension implements Exporter.
func (e *HTMLExporter) FileExtension() string { return ".html" }

// formatContent renders a message body as HTML. Image data URIs embed
// directly in img tags.
func (e *HTMLExporter) formatContent(content model.Content) string {
	if content.IsText() {
		return html.EscapeString(content.Text)
	}

	var sb strings.Builder
	for _, img := range content.Images {
		caption := html.EscapeString(img.Caption)
		sb.WriteString(fmt.Sprintf("<img src=\"%s\" alt=\"%s\">", img.Data, caption))
		if caption != "" {
			sb.WriteString(fmt.Sprintf("<div class=\"caption\">%s</div>", caption))
		}
	}
	return sb.String()
}
