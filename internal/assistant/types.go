// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assistant provides the HTTP client for the e-waste assistant service.
package assistant

import "encoding/json"

// =============================================================================
// REQUEST TYPES
// =============================================================================

// chatRequest is the POST /api/chat body. ChatID is null for the first
// message of a fresh chat; the service then mints an ID of its own.
type chatRequest struct {
	Message string  `json:"message"`
	ChatID  *string `json:"chat_id"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// Image is one image of a multi-image chat reply. Data is a data URI.
type Image struct {
	Data    string `json:"data"`
	Caption string `json:"caption"`
}

// chatResponse is the raw POST /api/chat body. The service answers in one
// of three shapes: {error}, {response: "text"}, or a top-level
// {type: "image_response", images: [...]}. Some deployments also nest the
// image payload inside response, so Response stays raw until parsed.
type chatResponse struct {
	Error    string          `json:"error,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
	Type     string          `json:"type,omitempty"`
	Images   []Image         `json:"images,omitempty"`
	ChatID   string          `json:"chat_id,omitempty"`
	Success  bool            `json:"success,omitempty"`
}

// imagePayload is the nested image_response form.
type imagePayload struct {
	Type   string  `json:"type"`
	Images []Image `json:"images"`
}

// =============================================================================
// REPLY VARIANT
// =============================================================================

// ReplyKind discriminates parsed chat replies.
type ReplyKind int

const (
	// ReplyEmpty is a 2xx body carrying neither response nor error.
	ReplyEmpty ReplyKind = iota
	// ReplyText is a plain text assistant answer.
	ReplyText
	// ReplyImages is a multi-image assistant answer.
	ReplyImages
	// ReplyServiceError is a service-reported failure payload.
	ReplyServiceError
)

// Reply is the parsed result of a chat exchange.
type Reply struct {
	Kind       ReplyKind
	Text       string
	Images     []Image
	ServiceErr string

	// ChatID echoes the server-side chat identifier when present.
	ChatID string
}

// =============================================================================
// LANGUAGES
// =============================================================================

// LanguageList is the GET /api/languages result.
type LanguageList struct {
	// Languages maps language codes to display names.
	Languages map[string]string `json:"languages"`
	// Current is the service's currently selected language code.
	Current string `json:"current_language"`
}

// =============================================================================
// IMAGE ANALYSIS
// =============================================================================

// Analysis is the POST /api/analyze-image result.
type Analysis struct {
	Success    bool   `json:"success"`
	Class      string `json:"class,omitempty"`
	Guidelines string `json:"guidelines,omitempty"`
	Error      string `json:"error,omitempty"`
}
