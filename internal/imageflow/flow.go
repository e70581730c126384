// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package imageflow

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jeranaias/ewaste-tui/internal/assistant"
	"github.com/jeranaias/ewaste-tui/internal/model"
)

// =============================================================================
// STATES AND ERRORS
// =============================================================================

// State is the position of the flow in its select/preview/submit cycle.
type State int

const (
	// StateIdle means no image is staged.
	StateIdle State = iota
	// StatePreviewing means a selected image awaits confirmation.
	StatePreviewing
	// StateSubmitting means the staged image upload is in flight.
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StatePreviewing:
		return "previewing"
	case StateSubmitting:
		return "submitting"
	default:
		return "idle"
	}
}

var (
	// ErrNotAnImage is returned when the selected file's content is not
	// a recognized image format.
	ErrNotAnImage = errors.New("imageflow: selected file is not an image")

	// ErrNothingStaged is returned when Confirm or Discard is called
	// with no image in preview.
	ErrNothingStaged = errors.New("imageflow: no image staged")

	// ErrSubmitInFlight is returned when the flow is mutated while an
	// upload is running.
	ErrSubmitInFlight = errors.New("imageflow: submission in progress")
)

// maxImageBytes caps staged uploads. Matches the service's request
// size ceiling.
const maxImageBytes = 16 << 20

// failureMessage is the apologetic reply rendered when analysis fails
// for any reason.
const failureMessage = "I'm sorry, I couldn't analyze that image. Please try again with a clearer image of e-waste."

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Analyzer classifies e-waste images. Satisfied by *assistant.Client.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, filename string, image io.Reader) (*assistant.Analysis, error)
}

// Recorder receives the transcript messages an upload produces.
// Satisfied by *session.Manager.
type Recorder interface {
	AppendUserImage(img model.ImageAttachment) (*model.Message, bool)
	AppendBotMessage(content model.Content) *model.Message
}

// =============================================================================
// STAGED IMAGE
// =============================================================================

// Staged is an image selected and waiting for confirmation.
type Staged struct {
	// Filename is the base name of the selected file.
	Filename string
	// MIME is the sniffed content type, always image/*.
	MIME string
	// Bytes is the raw file content.
	Bytes []byte
}

// DataURI renders the staged image as a data URI for inline display and
// storage.
func (s *Staged) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", s.MIME, base64.StdEncoding.EncodeToString(s.Bytes))
}

// =============================================================================
// FLOW
// =============================================================================

// Flow is the image analysis state machine.
type Flow struct {
	mu     sync.Mutex
	state  State
	staged *Staged

	analyzer Analyzer
	recorder Recorder
}

// New creates an image analysis flow.
func New(analyzer Analyzer, recorder Recorder) *Flow {
	return &Flow{analyzer: analyzer, recorder: recorder}
}

// State returns the current flow state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Staged returns the image in preview, or nil when idle.
func (f *Flow) Staged() *Staged {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.staged
}

// Select reads and sniffs the file at path, staging it for preview.
// Selecting while a preview is already staged replaces it; selecting a
// non-image leaves the previous state untouched.
func (f *Flow) Select(path string) (*Staged, error) {
	f.mu.Lock()
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	f.mu.Unlock()

	data, err := readLimited(path)
	if err != nil {
		return nil, err
	}

	// Sniff content, never trust the extension.
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return nil, ErrNotAnImage
	}

	staged := &Staged{
		Filename: filepath.Base(path),
		MIME:     mime,
		Bytes:    data,
	}

	f.mu.Lock()
	f.staged = staged
	f.state = StatePreviewing
	f.mu.Unlock()

	return staged, nil
}

// Discard drops the staged image and returns to idle.
func (f *Flow) Discard() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case StateSubmitting:
		return ErrSubmitInFlight
	case StateIdle:
		return ErrNothingStaged
	}
	f.staged = nil
	f.state = StateIdle
	return nil
}

// Confirm uploads the staged image and records the outcome. On a
// successful analysis the user's image enters the transcript followed
// by the assistant's reading; any failure records a single apologetic
// message and the image itself never reaches the transcript. The
// staged bytes are held until recording completes, then released.
// Blocks for the duration of the upload.
func (f *Flow) Confirm(ctx context.Context) error {
	f.mu.Lock()
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	if f.staged == nil {
		f.mu.Unlock()
		return ErrNothingStaged
	}
	staged := f.staged
	f.state = StateSubmitting
	f.mu.Unlock()

	analysis, err := f.analyzer.AnalyzeImage(ctx, staged.Filename, bytes.NewReader(staged.Bytes))
	if err != nil || !analysis.Success {
		// A rejected upload leaves no trace of the image itself.
		f.recorder.AppendBotMessage(model.TextContent(failureMessage))
	} else {
		// The user's image enters the transcript before the reading,
		// mirroring the order a reader of the saved session expects.
		f.recorder.AppendUserImage(model.ImageAttachment{
			Data:    staged.DataURI(),
			Caption: staged.Filename,
		})
		f.recorder.AppendBotMessage(model.TextContent(formatAnalysis(analysis)))
	}

	f.mu.Lock()
	f.staged = nil
	f.state = StateIdle
	f.mu.Unlock()
	return nil
}

// formatAnalysis renders a successful classification as the assistant's
// reply text.
func formatAnalysis(a *assistant.Analysis) string {
	return fmt.Sprintf(
		"Analysis Result:\nThis appears to be %s e-waste.\n\nDisposal Guidelines:\n%s",
		a.Class, a.Guidelines,
	)
}

// readLimited reads a file, rejecting anything over the upload cap.
func readLimited(path string) ([]byte, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	data, err := io.ReadAll(io.LimitReader(fh, maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("imageflow: %s exceeds the %dMB upload limit", filepath.Base(path), maxImageBytes>>20)
	}
	return data, nil
}
