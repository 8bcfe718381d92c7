package commands

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"
)

func TestSpinnerLifecycle_StopWithSuccess(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(&buf, "Asking")
	s.start()
	// Let it spin briefly
	time.Sleep(50 * time.Millisecond)
	s.stopWithSuccess("done")

	if !strings.Contains(buf.String(), "done") {
		t.Errorf("expected success message in output, got %q", buf.String())
	}
}

func TestSpinnerLifecycle_StopWithError(t *testing.T) {
	s := newSpinner(io.Discard, "Asking")
	s.start()
	time.Sleep(30 * time.Millisecond)
	// Should stop cleanly on error (no panic)
	s.stopWithError()
}

func TestSpinner_StopTwice(t *testing.T) {
	s := newSpinner(io.Discard, "Asking")
	s.start()
	s.stopWithError()
	// A second stop must not close the channel again
	s.stopWithError()
}

func TestSpinner_SetMessage(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(&buf, "first")
	s.setMessage("second")
	s.render()

	if !strings.Contains(buf.String(), "second") {
		t.Errorf("expected updated message in frame, got %q", buf.String())
	}
}
