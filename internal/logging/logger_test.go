package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"debug": DEBUG, "INFO": INFO, "": INFO, "Warn": WARN, "error": ERROR} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, WARN)
	l.Infof("hidden %d", 1)
	l.Warnf("shown %d", 2)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("INFO written at WARN level: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown 2") {
		t.Errorf("missing WARN line: %q", out)
	}
}

func TestWithSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, ERROR)
	child := l.With("session").With("abc")
	child.Infof("quiet")
	l.SetLevel(DEBUG)
	child.Debugf("loud")
	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("child ignored parent level: %q", out)
	}
	if !strings.Contains(out, "[DEBUG] session abc: loud") {
		t.Errorf("child line = %q", out)
	}
}
