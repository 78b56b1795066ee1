package logging

import (
	"bytes"
	"strings"
	"testing"
)

// TestNewWritesToGivenWriter verifies log output lands on the writer passed
// in, not some package-level default.
func TestNewWritesToGivenWriter(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf)

	log.Info().Str("job_id", "abc123").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, "hello") {
		t.Errorf("output missing message: %q", out)
	}
	if !strings.Contains(out, "abc123") {
		t.Errorf("output missing field value: %q", out)
	}
}

// TestNewIsIndependentPerCall verifies two loggers built from New don't
// share state (no global logger is installed underneath).
func TestNewIsIndependentPerCall(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	log1 := New(&buf1)
	log2 := New(&buf2)

	log1.Info().Msg("to buf1")
	log2.Info().Msg("to buf2")

	if strings.Contains(buf1.String(), "buf2") || !strings.Contains(buf1.String(), "buf1") {
		t.Errorf("buf1 got cross-contaminated output: %q", buf1.String())
	}
	if strings.Contains(buf2.String(), "buf1") || !strings.Contains(buf2.String(), "buf2") {
		t.Errorf("buf2 got cross-contaminated output: %q", buf2.String())
	}
}
