package download

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

// TestChunkValidateNoFile verifies a fresh chunk with nothing on disk yet
// reports validateNoFile and leaves Position at Start.
func TestChunkValidateNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "object.bin.chunk0")
	c := newFileChunk(path, NewChunkRange(0, 99), true, nil)

	if code := c.validate(); code != validateNoFile {
		t.Errorf("validate() = %d, want validateNoFile", code)
	}
	if c.chunkRange.Position != 0 {
		t.Errorf("Position = %d, want 0", c.chunkRange.Position)
	}
}

// TestChunkValidateResumable verifies a partially-downloaded chunk resumes
// from the on-disk length.
func TestChunkValidateResumable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "object.bin.chunk0")
	if err := os.WriteFile(path, make([]byte, 40), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	c := newFileChunk(path, NewChunkRange(0, 99), true, nil)
	if code := c.validate(); code != validateOK {
		t.Fatalf("validate() = %d, want validateOK", code)
	}
	if c.chunkRange.Position != 40 {
		t.Errorf("Position = %d, want 40", c.chunkRange.Position)
	}
}

// TestChunkValidateLengthOverrun verifies on-disk data longer than the
// range's span is rejected rather than silently truncated.
func TestChunkValidateLengthOverrun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "object.bin.chunk0")
	if err := os.WriteFile(path, make([]byte, 200), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	c := newFileChunk(path, NewChunkRange(0, 99), true, nil)
	if code := c.validate(); code != validateLengthOverrun {
		t.Errorf("validate() = %d, want validateLengthOverrun", code)
	}
}

// TestChunkValidateCompleteFileReportsEOF verifies a chunk whose on-disk
// file already spans the whole range resumes at EOF rather than restarting.
func TestChunkValidateCompleteFileReportsEOF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "object.bin.chunk0")
	if err := os.WriteFile(path, make([]byte, 100), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	c := newFileChunk(path, NewChunkRange(0, 99), true, nil)
	if code := c.validate(); code != validateOK {
		t.Fatalf("validate() = %d, want validateOK", code)
	}
	if !c.chunkRange.EOF() {
		t.Error("chunkRange should report EOF after resuming a fully-written file")
	}
}

// TestChunkReceivedBytesAdvancesCounter verifies writes update both the
// chunk's own position and the shared job-level counter.
func TestChunkReceivedBytesAdvancesCounter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "object.bin.chunk0")
	var counter atomic.Uint64
	c := newFileChunk(path, NewChunkRange(0, 99), true, &counter)

	if err := c.setup(); err != nil {
		t.Fatalf("setup() error: %v", err)
	}
	defer c.close()

	if err := c.receivedBytes([]byte("hello")); err != nil {
		t.Fatalf("receivedBytes() error: %v", err)
	}

	if c.chunkRange.Position != 5 {
		t.Errorf("Position = %d, want 5", c.chunkRange.Position)
	}
	if counter.Load() != 5 {
		t.Errorf("counter = %d, want 5", counter.Load())
	}
}

// TestMemoryChunkReceivedBytes verifies an in-memory chunk accumulates into
// its buffer instead of touching disk.
func TestMemoryChunkReceivedBytes(t *testing.T) {
	var counter atomic.Uint64
	c := newMemoryChunk(NewChunkRange(0, 9), &counter)

	if err := c.receivedBytes([]byte("0123456789")); err != nil {
		t.Fatalf("receivedBytes() error: %v", err)
	}

	if string(c.memoryBytes()) != "0123456789" {
		t.Errorf("memoryBytes() = %q, want %q", c.memoryBytes(), "0123456789")
	}
	if !c.chunkRange.EOF() {
		t.Error("memory chunk should report EOF once fully written")
	}
}

// TestChunkDeleteChunkFileIdempotent verifies deleting an already-absent
// chunk file is not an error.
func TestChunkDeleteChunkFileIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "object.bin.chunk0")
	c := newFileChunk(path, NewChunkRange(0, 99), true, nil)

	if err := c.deleteChunkFile(); err != nil {
		t.Fatalf("deleteChunkFile() on missing file returned error: %v", err)
	}
}
