// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package voice

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// =============================================================================
// STATES AND ERRORS
// =============================================================================

// State is the recording state of the controller.
type State int

const (
	// StateIdle means no capture is in progress.
	StateIdle State = iota
	// StateRecording means the microphone is live for one utterance.
	StateRecording
)

func (s State) String() string {
	if s == StateRecording {
		return "recording"
	}
	return "idle"
}

var (
	// ErrNoRecognizer is returned when no speech recognition engine is
	// configured.
	ErrNoRecognizer = errors.New("voice: no recognizer configured")

	// ErrNoSpeech is returned when a capture completes without any
	// recognizable speech.
	ErrNoSpeech = errors.New("voice: no speech detected")

	// ErrAlreadyRecording is returned when a capture starts while one is
	// in progress.
	ErrAlreadyRecording = errors.New("voice: capture already in progress")
)

// =============================================================================
// INTERFACES
// =============================================================================

// Recognizer captures a single utterance and returns its transcript.
type Recognizer interface {
	Recognize(ctx context.Context, language string) (string, error)
}

// Synthesizer speaks text aloud. Speak replaces any utterance still
// playing.
type Synthesizer interface {
	Speak(text string)
	Cancel()
}

// Submitter receives recognized transcripts. Satisfied by
// *dispatch.Pipeline.
type Submitter interface {
	Submit(ctx context.Context, text string) bool
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller coordinates speech capture and playback.
type Controller struct {
	mu         sync.Mutex
	state      State
	language   string
	cancelCap  context.CancelFunc
	recognizer Recognizer
	synth      Synthesizer
	submitter  Submitter

	// OnStateChange, when set, is invoked after every state transition.
	OnStateChange func(State)
	// OnCaptureError, when set, receives capture failures other than a
	// deliberate cancel.
	OnCaptureError func(error)
}

// NewController creates a voice controller. Either engine may be nil;
// the corresponding direction is then unavailable.
func NewController(recognizer Recognizer, synth Synthesizer, submitter Submitter) *Controller {
	return &Controller{
		recognizer: recognizer,
		synth:      synth,
		submitter:  submitter,
		language:   "en",
	}
}

// SetSubmitter wires the transcript destination after construction.
// The pipeline speaks through the controller, so one side of the pair
// must be connected late.
func (c *Controller) SetSubmitter(s Submitter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitter = s
}

// State returns the current recording state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetLanguage selects the language used for both capture and playback.
func (c *Controller) SetLanguage(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if code != "" {
		c.language = code
	}
}

// Language returns the selected language code.
func (c *Controller) Language() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.language
}

// CanRecognize reports whether speech capture is available.
func (c *Controller) CanRecognize() bool {
	return c.recognizer != nil
}

// =============================================================================
// CAPTURE
// =============================================================================

// Toggle starts a capture when idle and cancels it when recording.
func (c *Controller) Toggle(ctx context.Context) error {
	if c.State() == StateRecording {
		c.StopCapture()
		return nil
	}
	return c.StartCapture(ctx)
}

// StartCapture begins listening for one utterance. The transcript, if
// any, is submitted through the dispatch path in a background goroutine
// and the controller returns to idle either way.
func (c *Controller) StartCapture(ctx context.Context) error {
	if c.recognizer == nil {
		return ErrNoRecognizer
	}

	c.mu.Lock()
	if c.state == StateRecording {
		c.mu.Unlock()
		return ErrAlreadyRecording
	}
	capCtx, cancel := context.WithCancel(ctx)
	c.state = StateRecording
	c.cancelCap = cancel
	language := c.language
	c.mu.Unlock()

	c.notifyState(StateRecording)

	go c.capture(capCtx, cancel, language)
	return nil
}

// StopCapture cancels an in-progress capture. No-op when idle.
func (c *Controller) StopCapture() {
	c.mu.Lock()
	cancel := c.cancelCap
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Controller) capture(ctx context.Context, cancel context.CancelFunc, language string) {
	defer cancel()

	text, err := c.recognizer.Recognize(ctx, language)

	c.mu.Lock()
	c.state = StateIdle
	c.cancelCap = nil
	c.mu.Unlock()
	c.notifyState(StateIdle)

	if err != nil {
		if !errors.Is(err, context.Canceled) && c.OnCaptureError != nil {
			c.OnCaptureError(err)
		}
		return
	}

	text = strings.TrimSpace(text)
	if text == "" {
		if c.OnCaptureError != nil {
			c.OnCaptureError(ErrNoSpeech)
		}
		return
	}

	if c.submitter != nil {
		c.submitter.Submit(ctx, text)
	}
}

func (c *Controller) notifyState(s State) {
	if c.OnStateChange != nil {
		c.OnStateChange(s)
	}
}

// =============================================================================
// PLAYBACK
// =============================================================================

// Speak voices text, interrupting any utterance still playing. Satisfies
// the dispatch speaker dependency.
func (c *Controller) Speak(text string) {
	if c.synth == nil {
		return
	}
	c.synth.Cancel()
	c.synth.Speak(text)
}

// Silence stops any utterance in progress.
func (c *Controller) Silence() {
	if c.synth != nil {
		c.synth.Cancel()
	}
}
