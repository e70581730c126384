// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
	"time"
)

func TestNewThemeConfiguresStyles(t *testing.T) {
	theme := NewTheme()
	if theme == nil {
		t.Fatal("NewTheme returned nil")
	}

	// A few load-bearing styles must carry their semantic colors.
	if theme.UserBubble.GetForeground() != UserBubbleFg {
		t.Error("user bubble foreground not set")
	}
	if theme.AssistantBubble.GetForeground() != AssistantBubbleFg {
		t.Error("assistant bubble foreground not set")
	}
	if !theme.Recording.GetBold() {
		t.Error("recording indicator should be bold")
	}
}

func TestThemeResize(t *testing.T) {
	theme := NewTheme()
	theme.Resize(120, 40)
	if theme.Width != 120 || theme.Height != 40 {
		t.Errorf("dimensions = %dx%d, want 120x40", theme.Width, theme.Height)
	}
}

func TestSpinnerDuration(t *testing.T) {
	if d := DotsSpinner.Duration(); d != time.Second/6 {
		t.Errorf("dots duration = %v", d)
	}
	for _, cfg := range []SpinnerConfig{DotsSpinner, LineSpinner, RecordingPulse} {
		if len(cfg.Frames) == 0 || cfg.FPS <= 0 {
			t.Errorf("malformed spinner config: %+v", cfg)
		}
	}
}

func TestStatusIndicatorsAreASCII(t *testing.T) {
	for _, s := range []string{
		StatusIndicators.Success,
		StatusIndicators.Error,
		StatusIndicators.Warning,
		StatusIndicators.Info,
	} {
		for _, r := range s {
			if r > 127 {
				t.Errorf("indicator %q is not ASCII", s)
			}
		}
	}
}

func TestRenderHelpersIncludeIndicator(t *testing.T) {
	if out := RenderError("upload failed"); !strings.Contains(out, "[X]") {
		t.Errorf("RenderError output %q lacks indicator", out)
	}
	if out := RenderWarning("mic busy"); !strings.Contains(out, "[!]") {
		t.Errorf("RenderWarning output %q lacks indicator", out)
	}
}
