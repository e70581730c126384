// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package voice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// stubRecognizer blocks until released, then returns its scripted result.
type stubRecognizer struct {
	mu        sync.Mutex
	text      string
	err       error
	release   chan struct{}
	languages []string
}

func (r *stubRecognizer) Recognize(ctx context.Context, language string) (string, error) {
	r.mu.Lock()
	r.languages = append(r.languages, language)
	release := r.release
	r.mu.Unlock()
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return r.text, r.err
}

// stubSynth records Speak and Cancel calls in arrival order.
type stubSynth struct {
	mu    sync.Mutex
	calls []string
}

func (s *stubSynth) Speak(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "speak:"+text)
}

func (s *stubSynth) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "cancel")
}

type stubSubmitter struct {
	mu    sync.Mutex
	texts []string
}

func (s *stubSubmitter) Submit(ctx context.Context, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	return true
}

func (s *stubSubmitter) submitted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.texts...)
}

// waitIdle polls until the controller leaves recording state.
func waitIdle(t *testing.T, c *Controller) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == StateIdle {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("controller did not return to idle")
}

func TestCaptureSubmitsTranscript(t *testing.T) {
	rec := &stubRecognizer{text: "  how do I recycle a printer  "}
	sub := &stubSubmitter{}
	c := NewController(rec, nil, sub)

	if err := c.StartCapture(context.Background()); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	waitIdle(t, c)

	got := sub.submitted()
	if len(got) != 1 || got[0] != "how do I recycle a printer" {
		t.Errorf("submitted = %v, want single trimmed transcript", got)
	}
}

func TestCaptureIsOneShot(t *testing.T) {
	release := make(chan struct{})
	rec := &stubRecognizer{text: "hello", release: release}
	c := NewController(rec, nil, &stubSubmitter{})

	if err := c.StartCapture(context.Background()); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	if c.State() != StateRecording {
		t.Fatal("not recording after start")
	}
	if err := c.StartCapture(context.Background()); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("second start = %v, want ErrAlreadyRecording", err)
	}

	close(release)
	waitIdle(t, c)
}

func TestToggleCancelsRecording(t *testing.T) {
	rec := &stubRecognizer{text: "never delivered", release: make(chan struct{})}
	sub := &stubSubmitter{}
	c := NewController(rec, nil, sub)
	var capErr error
	c.OnCaptureError = func(err error) { capErr = err }

	if err := c.Toggle(context.Background()); err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	if err := c.Toggle(context.Background()); err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	waitIdle(t, c)

	if got := sub.submitted(); len(got) != 0 {
		t.Errorf("cancelled capture submitted %v", got)
	}
	// A deliberate cancel is not reported as a failure.
	if capErr != nil {
		t.Errorf("cancel reported as error: %v", capErr)
	}
}

func TestEmptyTranscriptNotSubmitted(t *testing.T) {
	rec := &stubRecognizer{text: "   "}
	sub := &stubSubmitter{}
	c := NewController(rec, nil, sub)
	errs := make(chan error, 1)
	c.OnCaptureError = func(err error) { errs <- err }

	if err := c.StartCapture(context.Background()); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	waitIdle(t, c)

	if got := sub.submitted(); len(got) != 0 {
		t.Errorf("blank transcript submitted: %v", got)
	}
	select {
	case err := <-errs:
		if !errors.Is(err, ErrNoSpeech) {
			t.Errorf("capture error = %v, want ErrNoSpeech", err)
		}
	case <-time.After(time.Second):
		t.Error("no capture error reported")
	}
}

func TestCaptureUsesSelectedLanguage(t *testing.T) {
	rec := &stubRecognizer{text: "hola"}
	c := NewController(rec, nil, &stubSubmitter{})
	c.SetLanguage("es")

	if err := c.StartCapture(context.Background()); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	waitIdle(t, c)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.languages) != 1 || rec.languages[0] != "es" {
		t.Errorf("languages = %v, want [es]", rec.languages)
	}
}

func TestStartWithoutRecognizer(t *testing.T) {
	c := NewController(nil, &stubSynth{}, &stubSubmitter{})
	if err := c.StartCapture(context.Background()); !errors.Is(err, ErrNoRecognizer) {
		t.Errorf("err = %v, want ErrNoRecognizer", err)
	}
	if c.CanRecognize() {
		t.Error("CanRecognize true without engine")
	}
}

func TestSpeakCancelsBeforeSpeaking(t *testing.T) {
	synth := &stubSynth{}
	c := NewController(nil, synth, nil)

	c.Speak("first reply")
	c.Speak("second reply")

	want := []string{"cancel", "speak:first reply", "cancel", "speak:second reply"}
	synth.mu.Lock()
	defer synth.mu.Unlock()
	if len(synth.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", synth.calls, want)
	}
	for i := range want {
		if synth.calls[i] != want[i] {
			t.Errorf("call[%d] = %q, want %q", i, synth.calls[i], want[i])
		}
	}
}

func TestStateChangeNotifications(t *testing.T) {
	rec := &stubRecognizer{text: "hi"}
	c := NewController(rec, nil, &stubSubmitter{})

	var mu sync.Mutex
	var states []State
	c.OnStateChange = func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	}

	if err := c.StartCapture(context.Background()); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	waitIdle(t, c)

	mu.Lock()
	defer mu.Unlock()
	if len(states) != 2 || states[0] != StateRecording || states[1] != StateIdle {
		t.Errorf("states = %v, want [recording idle]", states)
	}
}
