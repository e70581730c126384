// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"

	"github.com/jeranaias/ewaste-tui/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports the raw session record. The output uses the same
// encoding as the persisted history document.
type JSONExporter struct{}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Export converts a session to indented JSON.
func (e *JSONExporter) Export(sess *model.Session) ([]byte, error) {
	if err := validateSession(sess); err != nil {
		return nil, err
	}
	return json.MarshalIndent(sess, "", "  ")
}

// FileExtension implements Exporter.
func (e *JSONExporter) FileExtension() string { return ".json" }
