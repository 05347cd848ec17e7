package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew_Level(t *testing.T) {
	tests := []struct {
		level    string
		expected logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"ERROR", logrus.ErrorLevel},
		{"", logrus.InfoLevel},
		{"verbose", logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := New(tt.level).GetLevel(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestNewWithOutput_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput("info", &buf)

	l.WithField("session_id", "a1b2c3d4").Info("Download session started")
	l.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "session_id=a1b2c3d4") {
		t.Errorf("expected field in output, got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("expected debug entry to be filtered, got %q", out)
	}
}
