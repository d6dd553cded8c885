package queue_test

import (
	"testing"

	"fieldcap/internal/queue"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		input string
		want  queue.Status
		ok    bool
	}{
		{"pending", queue.StatusPending, true},
		{"  Failed ", queue.StatusFailed, true},
		{"DISPATCHING", queue.StatusDispatching, true},
		{"succeeded", queue.StatusSucceeded, true},
		{"", "", false},
		{"unknown", "", false},
	}
	for _, tc := range cases {
		got, ok := queue.ParseStatus(tc.input)
		if ok != tc.ok {
			t.Fatalf("ParseStatus(%q) ok = %v, want %v", tc.input, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("ParseStatus(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestEntryIsTerminal(t *testing.T) {
	entry := &queue.Entry{Status: queue.StatusPending}
	if entry.IsTerminal() {
		t.Fatal("pending must not be terminal")
	}
	entry.Status = queue.StatusSucceeded
	if !entry.IsTerminal() {
		t.Fatal("succeeded must be terminal")
	}
	entry.SetFailed("remote unavailable")
	if !entry.IsTerminal() {
		t.Fatal("failed must be terminal")
	}
	if entry.ErrorMessage == "" || entry.NextAttemptAt != nil {
		t.Fatalf("unexpected failed entry state: %#v", entry)
	}
}

func TestSetProgressClamps(t *testing.T) {
	entry := &queue.Entry{}
	entry.SetProgress(-5)
	if entry.Progress != 0 {
		t.Fatalf("expected clamp to 0, got %d", entry.Progress)
	}
	entry.SetProgress(150)
	if entry.Progress != 100 {
		t.Fatalf("expected clamp to 100, got %d", entry.Progress)
	}
}

func TestEntryFileName(t *testing.T) {
	entry := &queue.Entry{ID: "abc-123"}
	if got := entry.FileName(); got != "abc-123.jpg" {
		t.Fatalf("unexpected file name %q", got)
	}
}
