// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/scout-engine/pkg/types"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"nonsense", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewBuildsBothModes(t *testing.T) {
	for _, mode := range []string{"dev", "prod", ""} {
		t.Run("mode_"+mode, func(t *testing.T) {
			log, err := New(types.LogConfig{Level: "debug", Mode: mode})
			if err != nil {
				t.Fatalf("New(mode=%q) returned error: %v", mode, err)
			}
			if log == nil {
				t.Fatal("New returned nil logger")
			}
		})
	}
}
