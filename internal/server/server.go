// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the default listen address, matching the client's
	// default service URL.
	DefaultAddr = "127.0.0.1:5000"

	// MaxChatBodySize caps chat request bodies.
	MaxChatBodySize = 1 * 1024 * 1024

	// MaxUploadSize caps image uploads.
	MaxUploadSize = 20 * 1024 * 1024

	// MaxMessageRunes is the longest accepted chat message.
	MaxMessageRunes = 2000
)

// supportedLanguages mirrors the deployed service's language table.
var supportedLanguages = map[string]string{
	"en": "English",
	"es": "Spanish",
	"de": "German",
	"fr": "French",
	"zh": "Chinese",
	"ja": "Japanese",
}

// allowedExtensions are the accepted image upload types.
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// ============================================================================
// STATS
// ============================================================================

// Stats tracks request counts for the /health endpoint.
type Stats struct {
	ChatRequests    int64     `json:"chat_requests"`
	ImageRequests   int64     `json:"image_requests"`
	RejectedUploads int64     `json:"rejected_uploads"`
	StartTime       time.Time `json:"start_time"`
}

// NewStats creates a Stats instance.
func NewStats() *Stats {
	return &Stats{StartTime: time.Now()}
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() Stats {
	return Stats{
		ChatRequests:    atomic.LoadInt64(&s.ChatRequests),
		ImageRequests:   atomic.LoadInt64(&s.ImageRequests),
		RejectedUploads: atomic.LoadInt64(&s.RejectedUploads),
		StartTime:       s.StartTime,
	}
}

// Uptime returns how long the server has been running.
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the stub assistant service.
type Server struct {
	addr   string
	mux    *http.ServeMux
	server *http.Server

	stats   *Stats
	limiter *RateLimiter

	// language is the server-side selection reported by /api/languages.
	language atomic.Value

	// tinyPNG is the canned image payload for image_response replies.
	tinyPNG string
}

// New creates a stub server. An empty addr uses DefaultAddr.
func New(addr string) *Server {
	if addr == "" {
		addr = DefaultAddr
	}

	s := &Server{
		addr:    addr,
		mux:     http.NewServeMux(),
		stats:   NewStats(),
		limiter: DefaultRateLimiter(),
		tinyPNG: "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==",
	}
	s.language.Store("en")
	s.setupRoutes()
	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Handler returns the middleware-wrapped handler, exported for tests.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = RateLimitMiddleware(s.limiter)(h)
	h = CORSMiddleware(DefaultCORSConfig())(h)
	h = LoggingMiddleware(log.Default())(h)
	return h
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /api/languages", s.handleLanguages)
	s.mux.HandleFunc("POST /api/chat", s.handleChat)
	s.mux.HandleFunc("POST /api/analyze-image", s.handleAnalyzeImage)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// ListenAndServe runs the server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	log.Printf("server: stub assistant listening on %s", s.addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// ============================================================================
// WIRE TYPES
// ============================================================================

// chatRequest is the /api/chat request body.
type chatRequest struct {
	Message string `json:"message"`
	ChatID  string `json:"chat_id,omitempty"`
}

// imageItem is one entry in an image_response reply.
type imageItem struct {
	Data    string `json:"data"`
	Caption string `json:"caption"`
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"languages":        supportedLanguages,
		"current_language": s.language.Load().(string),
		"success":          true,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt64(&s.stats.ChatRequests, 1)

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		writeError(w, http.StatusBadRequest, "Request must be JSON")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxChatBodySize)
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeError(w, http.StatusBadRequest, "Message cannot be empty")
		return
	}
	if len([]rune(message)) > MaxMessageRunes {
		writeError(w, http.StatusBadRequest, "Message too long")
		return
	}

	chatID := req.ChatID
	if chatID == "" {
		chatID = uuid.NewString()
	}

	// "set language <code>" switches the reported language in place;
	// the selector travels through the chat like any other message.
	if reply, handled := s.trySetLanguage(message); handled {
		writeJSON(w, http.StatusOK, map[string]any{
			"response": reply,
			"chat_id":  chatID,
			"success":  true,
		})
		return
	}

	// Image-gallery requests get the multi-image envelope.
	if wantsImages(message) {
		writeJSON(w, http.StatusOK, map[string]any{
			"type": "image_response",
			"images": []imageItem{
				{Data: s.tinyPNG, Caption: "Battery e-waste example"},
				{Data: s.tinyPNG, Caption: "Mobile e-waste example"},
			},
			"chat_id": chatID,
			"success": true,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"response": answerFor(message),
		"chat_id":  chatID,
		"success":  true,
	})
}

func (s *Server) handleAnalyzeImage(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt64(&s.stats.ImageRequests, 1)

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		atomic.AddInt64(&s.stats.RejectedUploads, 1)
		writeError(w, http.StatusBadRequest, "No image file provided")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		atomic.AddInt64(&s.stats.RejectedUploads, 1)
		writeError(w, http.StatusBadRequest, "No image file provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		atomic.AddInt64(&s.stats.RejectedUploads, 1)
		writeError(w, http.StatusBadRequest, "No selected file")
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		atomic.AddInt64(&s.stats.RejectedUploads, 1)
		writeError(w, http.StatusBadRequest,
			"Invalid file type. Allowed types: png, jpg, jpeg, gif, webp")
		return
	}

	class := classifyFilename(header.Filename)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"class":      class,
		"confidence": 0.92,
		"guidelines": guidelinesFor(class),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snapshot := s.stats.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int(s.stats.Uptime().Seconds()),
		"stats":          snapshot,
	})
}

// ============================================================================
// RESPONSE HELPERS
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("server: encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error":   message,
		"success": false,
	})
}

// wantsImages reports whether a message asks to see example pictures.
func wantsImages(message string) bool {
	lower := strings.ToLower(message)
	if !strings.Contains(lower, "show") && !strings.Contains(lower, "picture") &&
		!strings.Contains(lower, "image") && !strings.Contains(lower, "example") {
		return false
	}
	return strings.Contains(lower, "waste") || strings.Contains(lower, "image") ||
		strings.Contains(lower, "picture")
}

// classifyFilename picks the stub classification from the filename, so
// fixtures like "battery.jpg" behave predictably.
func classifyFilename(filename string) string {
	lower := strings.ToLower(filename)
	for _, class := range classes {
		if strings.Contains(lower, strings.ToLower(class)) {
			return class
		}
	}
	if strings.Contains(lower, "phone") {
		return "Mobile"
	}
	return "Battery"
}

// trySetLanguage handles "set language <code>" messages. Reports
// whether the message was a language command.
func (s *Server) trySetLanguage(message string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(message))
	if !strings.HasPrefix(lower, "set language ") {
		return "", false
	}
	code := strings.TrimSpace(strings.TrimPrefix(lower, "set language "))

	name, ok := supportedLanguages[code]
	if !ok {
		codes := make([]string, 0, len(supportedLanguages))
		for c := range supportedLanguages {
			codes = append(codes, c)
		}
		sort.Strings(codes)
		pairs := make([]string, len(codes))
		for i, c := range codes {
			pairs[i] = c + ": " + supportedLanguages[c]
		}
		return "Language not supported. Supported languages: " + strings.Join(pairs, ", "), true
	}

	s.language.Store(code)
	return "Language set to " + name, true
}

// answerFor produces a canned reply for a chat message.
func answerFor(message string) string {
	lower := strings.ToLower(message)
	for keyword, class := range keywordClasses {
		if strings.Contains(lower, keyword) {
			return fmt.Sprintf("Here is how to dispose of %s e-waste responsibly:\n%s",
				strings.ToLower(class), guidelinesFor(class))
		}
	}

	switch {
	case strings.Contains(lower, "hello") || strings.Contains(lower, "hi"):
		return "Hello! Ask me how to dispose of batteries, phones, printers, and other electronic waste."
	case strings.Contains(lower, "recycle") || strings.Contains(lower, "dispose") ||
		strings.Contains(lower, "e-waste") || strings.Contains(lower, "ewaste"):
		return "Electronic waste should never go in regular trash. Take it to a certified e-waste recycling center, and ask me about a specific device for detailed guidelines."
	case strings.Contains(lower, "thank"):
		return "You're welcome! Proper e-waste disposal keeps hazardous materials out of landfills."
	default:
		return "I can help with electronic waste disposal and recycling. Ask about a specific device, such as batteries, mobile phones, or printers."
	}
}
