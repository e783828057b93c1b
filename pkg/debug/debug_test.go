package debug

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLogDisabledWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetEnabled(false)

	Log("hidden %d", 1)
	LogTiming("hidden", time.Millisecond)
	LogEnterExit("hidden")()

	if buf.Len() != 0 {
		t.Errorf("expected no output while disabled, got %q", buf.String())
	}
}

func TestLogEnabledWritesPrefixedLines(t *testing.T) {
	var buf bytes.Buffer
	SetEnabled(true)
	SetOutput(&buf)
	defer SetEnabled(false)

	Log("measured %s", "row-1")
	LogTiming("flatten", 2*time.Millisecond)
	LogEnterExit("flush")()

	out := buf.String()
	for _, want := range []string{"[vt] ", "measured row-1", "flatten took 2ms", "-> flush", "<- flush"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got %q", want, out)
		}
	}
}
