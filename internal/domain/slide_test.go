package domain

import (
	"errors"
	"testing"
	"time"
)

func TestSlideValidate(t *testing.T) {
	tests := []struct {
		name    string
		slide   Slide
		wantErr bool
	}{
		{"valid", Slide{ID: "s1", PageNum: 1, Type: SlideTypeCover}, false},
		{"empty title and visual", Slide{ID: "s1", PageNum: 3}, false},
		{"missing id", Slide{PageNum: 1}, true},
		{"zero page", Slide{ID: "s1"}, true},
		{"negative page", Slide{ID: "s1", PageNum: -2}, true},
		{"unknown type", Slide{ID: "s1", PageNum: 1, Type: "appendix"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.slide.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Fatalf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateAspectRatio(t *testing.T) {
	tests := map[string]bool{
		"16:9":  true,
		"4:3":   true,
		"21:9":  true,
		"1:1":   true,
		"0:9":   false,
		"16:0":  false,
		"169":   false,
		"16:9x": false,
		"100:1": false,
		"":      false,
		"a:b":   false,
	}
	for aspect, ok := range tests {
		err := ValidateAspectRatio(aspect)
		if ok && err != nil {
			t.Fatalf("ValidateAspectRatio(%q) unexpected error: %v", aspect, err)
		}
		if !ok && !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("ValidateAspectRatio(%q) = %v, want ErrInvalidArgument", aspect, err)
		}
	}
}

func TestSnapshotSuccessRate(t *testing.T) {
	if got := (Snapshot{}).SuccessRate(); got != 0 {
		t.Fatalf("empty snapshot rate = %v, want 0", got)
	}
	s := Snapshot{TotalSlides: 4, Successful: 3, Failed: 1, StartedAt: time.Now()}
	if got := s.SuccessRate(); got != 75 {
		t.Fatalf("rate = %v, want 75", got)
	}
}

func TestBatchStatusTerminal(t *testing.T) {
	if BatchStatusRunning.Terminal() {
		t.Fatal("running must not be terminal")
	}
	for _, s := range []BatchStatus{BatchStatusCompleted, BatchStatusCompletedWithErrors, BatchStatusFailed} {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
}
