package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", DEBUG},
		{"DEBUG", DEBUG},
		{"Info", INFO},
		{"warn", WARN},
		{"WARNING", WARN},
		{"error", ERROR},
		{"", INFO},
		{"verbose", INFO},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidLevel(t *testing.T) {
	for _, name := range []string{"debug", "INFO", "warn", "Warning", " error "} {
		if !ValidLevel(name) {
			t.Errorf("ValidLevel(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"", "verbose", "TRACE"} {
		if ValidLevel(name) {
			t.Errorf("ValidLevel(%q) = true, want false", name)
		}
	}
}

func TestLogger_Filtering(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWithWriters("WARN", &out, &errOut)

	l.Debug("debug %d", 1)
	l.Info("info %d", 2)
	l.Warn("warn %d", 3)
	l.Error("error %d", 4)

	if out.Len() != 0 {
		t.Errorf("stdout = %q, want empty", out.String())
	}
	if !strings.Contains(errOut.String(), "[WARN] ") || !strings.Contains(errOut.String(), "warn 3") {
		t.Errorf("stderr missing warn line: %q", errOut.String())
	}
	if !strings.Contains(errOut.String(), "error 4") {
		t.Errorf("stderr missing error line: %q", errOut.String())
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("dropped")
	if l.level <= ERROR {
		t.Errorf("Discard level = %v, want above ERROR", l.level)
	}
}
