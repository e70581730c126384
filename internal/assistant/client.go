// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assistant provides the HTTP client for the e-waste assistant service.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the assistant client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeUnreachable
	ErrTypeTimeout
	ErrTypeHTTPStatus
	ErrTypeInvalidResponse
)

// Sentinel errors for easy checking.
var (
	ErrUnreachable = &ClientError{Type: ErrTypeUnreachable, Message: "assistant service is unreachable"}
	ErrTimeout     = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the assistant client.
type ClientConfig struct {
	// BaseURL is the assistant service base URL (default: http://127.0.0.1:5000)
	// Note: Uses explicit IPv4 address instead of localhost to avoid IPv6
	// resolution issues on Windows
	BaseURL string

	// Timeout for requests (default: 30s)
	Timeout time.Duration

	// UploadTimeout for image uploads, which run a classifier server-side
	// and take longer than chat turns (default: 90s)
	UploadTimeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:       "http://127.0.0.1:5000",
		Timeout:       30 * time.Second,
		UploadTimeout: 90 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the e-waste assistant service.
//
// The Client is safe for concurrent use.
type Client struct {
	config       *ClientConfig
	httpClient   *http.Client
	uploadClient *http.Client
}

// NewClient creates a new assistant client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new assistant client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:5000"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UploadTimeout == 0 {
		config.UploadTimeout = 90 * time.Second
	}

	return &Client{
		config:       config,
		httpClient:   &http.Client{Timeout: config.Timeout},
		uploadClient: &http.Client{Timeout: config.UploadTimeout},
	}
}

// =============================================================================
// LANGUAGES
// =============================================================================

// Languages retrieves the supported language list and current selection.
func (c *Client) Languages(ctx context.Context) (*LanguageList, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/languages", nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnreachable, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ErrUnreachable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ClientError{
			Type:    ErrTypeHTTPStatus,
			Message: "failed to list languages: " + resp.Status,
		}
	}

	var result LanguageList
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return &result, nil
}

// =============================================================================
// CHAT
// =============================================================================

// Chat sends one user message and parses the reply into a tagged variant.
// chatID links the exchange to a server-side chat; pass "" for a fresh one.
//
// A non-2xx status is a hard transport failure: the body is not parsed for
// detail and the caller renders its generic failure message.
func (c *Client) Chat(ctx context.Context, message, chatID string) (*Reply, error) {
	reqBody := chatRequest{Message: message}
	if chatID != "" {
		reqBody.ChatID = &chatID
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnreachable, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ErrUnreachable
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ClientError{
			Type:    ErrTypeHTTPStatus,
			Message: "chat request failed: " + resp.Status,
		}
	}

	var raw chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return parseReply(&raw), nil
}

// parseReply folds the service's three response shapes into one variant.
func parseReply(raw *chatResponse) *Reply {
	reply := &Reply{ChatID: raw.ChatID}

	if raw.Error != "" {
		reply.Kind = ReplyServiceError
		reply.ServiceErr = raw.Error
		return reply
	}

	// Top-level image payload
	if raw.Type == imageResponseType {
		reply.Kind = ReplyImages
		reply.Images = raw.Images
		return reply
	}

	if len(raw.Response) > 0 {
		// Plain string response
		var text string
		if err := json.Unmarshal(raw.Response, &text); err == nil {
			if text == "" {
				return reply
			}
			reply.Kind = ReplyText
			reply.Text = text
			return reply
		}

		// Image payload nested inside response
		var nested imagePayload
		if err := json.Unmarshal(raw.Response, &nested); err == nil && nested.Type == imageResponseType {
			reply.Kind = ReplyImages
			reply.Images = nested.Images
			return reply
		}
	}

	// Neither response nor error: caller renders its fallback message
	return reply
}

// imageResponseType is the service's discriminator for image replies.
const imageResponseType = "image_response"

// =============================================================================
// IMAGE ANALYSIS
// =============================================================================

// AnalyzeImage uploads an image as multipart form data to the
// classification endpoint. Transport failures return an error; a decoded
// body with Success=false is returned as-is for the caller to render its
// apologetic message.
func (c *Client) AnalyzeImage(ctx context.Context, filename string, image io.Reader) (*Analysis, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to build upload", Cause: err}
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to read image", Cause: err}
	}
	if err := writer.Close(); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to finalize upload", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/analyze-image", &buf)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnreachable, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ErrUnreachable
	}
	defer resp.Body.Close()

	// The service reports classification failures in the body with
	// success=false, on both 2xx and error statuses. Decode either way;
	// only an undecodable body is a transport-level failure.
	var result Analysis
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode analysis", Cause: err}
	}
	return &result, nil
}
