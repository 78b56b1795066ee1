package download

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cespare/xxhash/v2"
)

// TestVerifyFileNoneAlwaysSucceeds verifies VerifyNone never reads the file
// at all (a missing path would otherwise fail).
func TestVerifyFileNoneAlwaysSucceeds(t *testing.T) {
	if err := verifyFile(NoVerify, filepath.Join(t.TempDir(), "missing")); err != nil {
		t.Fatalf("verifyFile(NoVerify) error: %v", err)
	}
}

// TestVerifyFileXXHashMatch verifies a correct digest passes.
func TestVerifyFileXXHashMatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "object.bin")
	data := []byte("the quick brown fox jumps over the lazy dog")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	want := xxhash.Sum64(data)
	if err := verifyFile(XXHashVerify(want), path); err != nil {
		t.Fatalf("verifyFile() error: %v", err)
	}
}

// TestVerifyFileXXHashMismatch verifies a wrong expected digest is rejected
// with ErrFileVerify.
func TestVerifyFileXXHashMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "object.bin")
	if err := os.WriteFile(path, []byte("some bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	err := verifyFile(XXHashVerify(12345), path)
	if err == nil {
		t.Fatal("verifyFile() should fail on digest mismatch")
	}
	derr, ok := err.(*Error)
	if !ok || derr.Kind != ErrFileVerify {
		t.Errorf("err = %v, want *Error{Kind: ErrFileVerify}", err)
	}
}

// TestVerifyFileMissingFile verifies a missing file surfaces ErrFileOpen.
func TestVerifyFileMissingFile(t *testing.T) {
	err := verifyFile(XXHashVerify(0), filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("verifyFile() should fail on a missing file")
	}
	derr, ok := err.(*Error)
	if !ok || derr.Kind != ErrFileOpen {
		t.Errorf("err = %v, want *Error{Kind: ErrFileOpen}", err)
	}
}
