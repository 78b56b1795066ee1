package download

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

// TestOperationDelegatesToDownloader verifies Operation's read-only surface
// mirrors the underlying Downloader across a full run, since Operation adds
// no state of its own.
func TestOperationDelegatesToDownloader(t *testing.T) {
	data := bytes.Repeat([]byte("o"), 2000)
	srv := httptest.NewServer(nonRangingHandler(data))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "out.bin")
	cfg, err := NewConfigBuilder().SetURL(srv.URL).SetPath(dest).Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	d := runToCompletionWithClient(t, cfg, srv.Client())
	op := newOperation(d)

	if op.Status() != StatusComplete {
		t.Errorf("Status() = %v, want Complete", op.Status())
	}
	if !op.IsDone() {
		t.Error("IsDone() should be true after completion")
	}
	if op.IsError() {
		t.Errorf("IsError() should be false, got error %v", op.Error())
	}
	if op.TotalSize() != uint64(len(data)) {
		t.Errorf("TotalSize() = %d, want %d", op.TotalSize(), len(data))
	}
	if op.DownloadedSize() != uint64(len(data)) {
		t.Errorf("DownloadedSize() = %d, want %d", op.DownloadedSize(), len(data))
	}
	if op.Progress() != 1 {
		t.Errorf("Progress() = %v, want 1", op.Progress())
	}
}

// TestOperationReflectsFailure verifies a failed job surfaces its error
// through Operation.Error/IsError.
func TestOperationReflectsFailure(t *testing.T) {
	srv := httptest.NewServer(nonRangingHandler([]byte("x")))
	srv.Close() // closed immediately: every request fails at the transport

	cfg, err := NewConfigBuilder().SetURL(srv.URL).SetPath(filepath.Join(t.TempDir(), "out.bin")).Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	d := runToCompletionWithClient(t, cfg, srv.Client())
	op := newOperation(d)

	if op.Status() != StatusFailed {
		t.Fatalf("Status() = %v, want Failed", op.Status())
	}
	if !op.IsError() {
		t.Error("IsError() should be true")
	}
	if op.Error() == nil {
		t.Error("Error() should be non-nil")
	}
}
