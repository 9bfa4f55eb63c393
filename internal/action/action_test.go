package action

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		action  Action
		wantErr string
	}{
		{"click ok", Action{Type: KindClick, Image: "a.png"}, ""},
		{"click missing image", Action{Type: KindClick}, "image is required"},
		{"click_any ok", Action{Type: KindClickAny, Images: []string{"a.png"}}, ""},
		{"click_any empty", Action{Type: KindClickAny}, "images is required"},
		{"paste ok", Action{Type: KindPaste, TextID: "id1"}, ""},
		{"paste missing id", Action{Type: KindPaste}, "text_id is required"},
		{"wait ok", Action{Type: KindWait, Image: "a.png"}, ""},
		{"wait missing image", Action{Type: KindWait}, "image is required"},
		{"wait_gone missing image", Action{Type: KindWaitGone}, "image is required"},
		{"sleep ok", Action{Type: KindSleep, Seconds: 1.5}, ""},
		{"sleep zero", Action{Type: KindSleep}, "seconds must be > 0"},
		{"sleep negative", Action{Type: KindSleep, Seconds: -1}, "seconds must be > 0"},
		{"scroll no count ok", Action{Type: KindScroll}, ""},
		{"save_to_file ok", Action{Type: KindSaveToFile, TextID: "id1"}, ""},
		{"save_to_file missing id", Action{Type: KindSaveToFile}, "text_id is required"},
		{"loop_click ok", Action{Type: KindLoopClick, Image: "a.png", Count: 3}, ""},
		{"loop_click no count", Action{Type: KindLoopClick, Image: "a.png"}, "count must be > 0"},
		{"loop_click no image", Action{Type: KindLoopClick, Count: 3}, "image is required"},
		{"unknown type", Action{Type: "teleport"}, "unknown action type"},
		{"empty type", Action{}, "unknown action type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.action.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAll(t *testing.T) {
	err := ValidateAll(nil)
	if err == nil {
		t.Fatal("ValidateAll(nil) = nil, want error")
	}

	err = ValidateAll([]Action{
		{Type: KindClick, Image: "a.png"},
		{Type: KindPaste},
	})
	if err == nil || !strings.Contains(err.Error(), "step 2") {
		t.Errorf("ValidateAll() = %v, want error naming step 2", err)
	}
}

func TestApplyDefaults_FillsZeroValues(t *testing.T) {
	var c RunConfig
	c.ApplyDefaults()

	if c.Confidence != DefaultConfidence {
		t.Errorf("Confidence = %v, want %v", c.Confidence, DefaultConfidence)
	}
	if c.MinConfidence != DefaultMinConfidence {
		t.Errorf("MinConfidence = %v, want %v", c.MinConfidence, DefaultMinConfidence)
	}
	if c.Interval != DefaultInterval {
		t.Errorf("Interval = %v, want %v", c.Interval, DefaultInterval)
	}
	if c.WaitTimeout != DefaultWaitTimeout {
		t.Errorf("WaitTimeout = %v, want %v", c.WaitTimeout, DefaultWaitTimeout)
	}
	if c.CursorSpeed != DefaultCursorSpeed {
		t.Errorf("CursorSpeed = %v, want %v", c.CursorSpeed, DefaultCursorSpeed)
	}
	if c.StartDelay != 0 {
		t.Errorf("StartDelay = %v, want 0", c.StartDelay)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	c := RunConfig{Confidence: 0.95, MinConfidence: 0.85, Interval: 0.5, WaitTimeout: 10, CursorSpeed: 1}
	c.ApplyDefaults()

	if c.Confidence != 0.95 || c.MinConfidence != 0.85 || c.Interval != 0.5 {
		t.Errorf("explicit values overwritten: %+v", c)
	}
}

func TestApplyDefaults_ClampsFloorToCeiling(t *testing.T) {
	c := RunConfig{Confidence: 0.6, MinConfidence: 0.9}
	c.ApplyDefaults()

	if c.MinConfidence != c.Confidence {
		t.Errorf("MinConfidence = %v, want clamped to %v", c.MinConfidence, c.Confidence)
	}
}
