// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"testing"
)

// =============================================================================
// TITLE DERIVATION TESTS
// =============================================================================

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"short message kept whole", "Hello", "Hello"},
		{"exactly 30 runes kept whole", strings.Repeat("a", 30), strings.Repeat("a", 30)},
		{"long message cut at 30 with ellipsis", strings.Repeat("a", 40), strings.Repeat("a", 30) + "..."},
		{"unicode counted as runes", strings.Repeat("é", 35), strings.Repeat("é", 30) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveTitle(tt.input); got != tt.want {
				t.Errorf("DeriveTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewSession(t *testing.T) {
	sess := NewSession("How do I recycle a laptop battery safely at home")

	if sess.ID == "" {
		t.Error("expected generated session ID")
	}
	if sess.Title != "How do I recycle a laptop batt..." {
		t.Errorf("Title = %q", sess.Title)
	}
	if sess.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if !sess.IsEmpty() {
		t.Error("new session should have no messages")
	}
}

// =============================================================================
// CONTENT VARIANT TESTS
// =============================================================================

func TestContent_TextRoundTrip(t *testing.T) {
	msg := NewUserMessage("recycle it")

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"text":"recycle it"`) {
		t.Errorf("text content should serialize as a bare string, got %s", data)
	}

	var decoded Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Content.Kind != KindText || decoded.Content.Text != "recycle it" {
		t.Errorf("decoded content = %+v", decoded.Content)
	}
	if decoded.Sender != SenderUser {
		t.Errorf("decoded sender = %q", decoded.Sender)
	}
}

func TestContent_ImageRoundTrip(t *testing.T) {
	images := []ImageAttachment{
		{Data: "data:image/jpeg;base64,AAAA", Caption: "Crushed battery"},
		{Data: "data:image/jpeg;base64,BBBB", Caption: "Circuit board"},
	}
	msg := NewBotImageMessage(images)

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"type":"image_response"`) {
		t.Errorf("image content should carry the image_response discriminator, got %s", data)
	}

	var decoded Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Content.Kind != KindImages {
		t.Fatalf("decoded kind = %v, want KindImages", decoded.Content.Kind)
	}
	if len(decoded.Content.Images) != 2 {
		t.Fatalf("decoded %d images, want 2", len(decoded.Content.Images))
	}
	if decoded.Content.Images[0].Caption != "Crushed battery" {
		t.Errorf("caption = %q", decoded.Content.Images[0].Caption)
	}
}

func TestContent_UnknownTypeRejected(t *testing.T) {
	var c Content
	err := json.Unmarshal([]byte(`{"type":"video_response","images":[]}`), &c)
	if err == nil {
		t.Error("expected error for unknown content type")
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestMessage_IsSpeakable(t *testing.T) {
	if !NewBotMessage("Recycle it").IsSpeakable() {
		t.Error("plain text bot message should be speakable")
	}
	if NewUserMessage("hello").IsSpeakable() {
		t.Error("user messages are never spoken")
	}
	if NewBotImageMessage(nil).IsSpeakable() {
		t.Error("image replies are never spoken")
	}
}

func TestSanitizeText(t *testing.T) {
	got := SanitizeText("<script>alert(1)</script>\nnext line")
	want := "&lt;script&gt;alert(1)&lt;/script&gt;\nnext line"
	if got != want {
		t.Errorf("SanitizeText = %q, want %q", got, want)
	}
}

func TestSession_AppendAndPreview(t *testing.T) {
	sess := NewSession("Hello")
	sess.AddUserMessage("Hello")
	sess.AddBotMessage(TextContent("Hi! How can I help with e-waste today?"))

	if sess.MessageCount() != 2 {
		t.Fatalf("MessageCount = %d, want 2", sess.MessageCount())
	}
	if sess.Preview(20) != "Hello" {
		t.Errorf("Preview = %q", sess.Preview(20))
	}

	clone := sess.Clone()
	clone.Messages[0].Content = TextContent("mutated")
	if sess.Messages[0].Content.Text != "Hello" {
		t.Error("Clone should not share message storage")
	}
}
