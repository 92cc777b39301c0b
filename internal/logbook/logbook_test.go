package logbook

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestAppendAndTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "session.log")
	lb, err := Open(path)
	if err != nil {
		t.Fatalf("open logbook: %v", err)
	}
	defer lb.Close()

	lb.Info("first")
	lb.Warn("second")
	lb.Error("third")

	tail := lb.Tail(2)
	if len(tail) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(tail))
	}
	if !strings.Contains(tail[0], "WARN") || !strings.Contains(tail[1], "ERROR") {
		t.Fatalf("unexpected tail contents: %v", tail)
	}
}

func TestNilLogbookIsSafe(t *testing.T) {
	var lb *Logbook
	lb.Info("ignored")
	if lines := lb.Tail(5); lines != nil {
		t.Fatalf("nil logbook must return no lines, got %v", lines)
	}
	if err := lb.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}
