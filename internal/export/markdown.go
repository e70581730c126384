// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/ewaste-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports sessions to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a session to Markdown.
func (e *MarkdownExporter) Export(sess *model.Session) ([]byte, error) {
	if err := validateSession(sess); err != nil {
		return nil, err
	}

	var sb strings.Builder

	// YAML frontmatter with metadata
	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(sess.Title)))
		sb.WriteString(fmt.Sprintf("date: %s\n", sess.CreatedAt.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("messages: %d\n", len(sess.Messages)))
		sb.WriteString(fmt.Sprintf("exported: %s\n", time.Now().Format(time.RFC3339)))
		sb.WriteString("generator: ewaste-tui\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", sess.Title))

	if e.options.IncludeMetadata {
		sb.WriteString(fmt.Sprintf("Started %s, %d messages.\n\n---\n\n",
			formatTimestamp(sess.CreatedAt), len(sess.Messages)))
	}

	for i, msg := range sess.Messages {
		label := msg.Sender.DisplayName()
		if e.options.IncludeTimestamps {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n",
				label, formatShortTimestamp(msg.Timestamp)))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", label))
		}

		sb.WriteString(e.formatContent(msg.Content))
		sb.WriteString("\n\n")

		if i < len(sess.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return []byte(sb.String()), nil
}

// FileExtension implements Exporter.
func (e *MarkdownExporter) FileExtension() string { return ".md" }

// formatContent renders a message body. Images become embedded data-URI
// links so the file stays self-contained.
func (e *MarkdownExporter) formatContent(content model.Content) string {
	if content.IsText() {
		return content.Text
	}

	var sb strings.Builder
	for i, img := range content.Images {
		caption := img.Caption
		if caption == "" {
			caption = fmt.Sprintf("image %d", i+1)
		}
		sb.WriteString(fmt.Sprintf("![%s](%s)\n", caption, img.Data))
		sb.WriteString(fmt.Sprintf("*%s*\n", caption))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// escapeYAML quotes a YAML scalar when it contains special characters.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#{}[]&*!|>'\"%@`") || strings.TrimSpace(s) != s {
		return fmt.Sprintf("%q", s)
	}
	return s
}
