// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})
	return client, srv
}

// =============================================================================
// LANGUAGES TESTS
// =============================================================================

func TestLanguages(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/languages", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"languages":        map[string]string{"en": "English", "hi": "Hindi"},
			"current_language": "en",
		})
	})
	defer srv.Close()

	langs, err := client.Languages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "en", langs.Current)
	assert.Equal(t, "Hindi", langs.Languages["hi"])
}

// =============================================================================
// CHAT TESTS
// =============================================================================

func TestChat_TextReply(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Can I recycle this?", body["message"])
		assert.Nil(t, body["chat_id"], "fresh chats send a null chat_id")

		json.NewEncoder(w).Encode(map[string]any{
			"response": "Recycle it",
			"chat_id":  "abc123",
			"success":  true,
		})
	})
	defer srv.Close()

	reply, err := client.Chat(context.Background(), "Can I recycle this?", "")
	require.NoError(t, err)
	assert.Equal(t, ReplyText, reply.Kind)
	assert.Equal(t, "Recycle it", reply.Text)
	assert.Equal(t, "abc123", reply.ChatID)
}

func TestChat_SendsActiveChatID(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "abc123", body["chat_id"])
		json.NewEncoder(w).Encode(map[string]any{"response": "ok"})
	})
	defer srv.Close()

	_, err := client.Chat(context.Background(), "more", "abc123")
	require.NoError(t, err)
}

func TestChat_ImageReply(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"type": "image_response",
			"images": []map[string]string{
				{"data": "data:image/jpeg;base64,AAAA", "caption": "Old phone"},
			},
			"success": true,
		})
	})
	defer srv.Close()

	reply, err := client.Chat(context.Background(), "show me examples", "")
	require.NoError(t, err)
	require.Equal(t, ReplyImages, reply.Kind)
	require.Len(t, reply.Images, 1)
	assert.Equal(t, "Old phone", reply.Images[0].Caption)
}

func TestChat_NestedImageReply(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"response": map[string]any{
				"type":   "image_response",
				"images": []map[string]string{{"data": "data:image/jpeg;base64,BB", "caption": "Wires"}},
			},
		})
	})
	defer srv.Close()

	reply, err := client.Chat(context.Background(), "examples", "")
	require.NoError(t, err)
	assert.Equal(t, ReplyImages, reply.Kind)
}

func TestChat_ServiceError(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"error": "language not supported"})
	})
	defer srv.Close()

	reply, err := client.Chat(context.Background(), "set language xx", "")
	require.NoError(t, err, "service-reported errors are replies, not transport failures")
	assert.Equal(t, ReplyServiceError, reply.Kind)
	assert.Equal(t, "language not supported", reply.ServiceErr)
}

func TestChat_EmptyBodyIsReplyEmpty(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	})
	defer srv.Close()

	reply, err := client.Chat(context.Background(), "?", "")
	require.NoError(t, err)
	assert.Equal(t, ReplyEmpty, reply.Kind)
}

func TestChat_HTTPErrorIsHardFailure(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		// Detail in the body must be ignored for non-2xx statuses
		http.Error(w, `{"error":"detail that must not surface"}`, http.StatusInternalServerError)
	})
	defer srv.Close()

	reply, err := client.Chat(context.Background(), "hello", "")
	require.Error(t, err)
	assert.Nil(t, reply)

	var cerr *ClientError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, ErrTypeHTTPStatus, cerr.Type)
	assert.NotContains(t, cerr.Message, "detail")
}

func TestChat_ConnectionRefused(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{BaseURL: "http://127.0.0.1:1"})
	_, err := client.Chat(context.Background(), "hello", "")
	assert.ErrorIs(t, err, ErrUnreachable)
}

// =============================================================================
// IMAGE ANALYSIS TESTS
// =============================================================================

func TestAnalyzeImage_Success(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/analyze-image", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "battery.jpg", header.Filename)

		json.NewEncoder(w).Encode(Analysis{
			Success:    true,
			Class:      "Battery",
			Guidelines: "Tape the terminals and take it to a battery drop-off point.",
		})
	})
	defer srv.Close()

	result, err := client.AnalyzeImage(context.Background(), "battery.jpg", strings.NewReader("jpegbytes"))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Battery", result.Class)
	assert.Contains(t, result.Guidelines, "drop-off")
}

func TestAnalyzeImage_ServiceFailureDecoded(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(Analysis{Success: false, Error: "Invalid file type"})
	})
	defer srv.Close()

	result, err := client.AnalyzeImage(context.Background(), "x.jpg", strings.NewReader("zz"))
	require.NoError(t, err, "classification failures are results, not errors")
	assert.False(t, result.Success)
}
