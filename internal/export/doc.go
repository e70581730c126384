// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package export writes chat sessions to shareable files.

Three formats are supported: Markdown with a YAML frontmatter header,
a self-contained HTML page with chat-bubble styling, and the raw JSON
session record. Image messages embed their data URIs, so exported files
remain self-contained.

Usage:

	path, err := export.ExportToFile(sess, export.NewMarkdownExporter(nil), nil)
*/
package export
