package download

import (
	"os"
	"path/filepath"
)

// Stream is an append-only (or plain write) file sink. It is the file-backed
// half of a Chunk's write path; memory-backed chunks never construct one.
type Stream struct {
	file *os.File
}

// newStream opens path for writing, creating parent directories as needed.
// When append is true, writes land at the current end of file (used to
// resume a partial chunk); otherwise the file is truncated. Chunk.setup
// always opens in append mode, for a single-chunk `.temp` file as well.
func newStream(path string, append bool) (*Stream, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, newErr(ErrOpenOrCreateFile, err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, newErr(ErrOpenOrCreateFile, err)
	}
	return &Stream{file: f}, nil
}

func (s *Stream) writeAll(buf []byte) error {
	if _, err := s.file.Write(buf); err != nil {
		return newErr(ErrFileWrite, err)
	}
	return nil
}

// flush hands buffered data to the OS. Durability across crashes is
// best-effort: flush here maps to Sync, since Go has no separate userspace
// buffer to flush for a plain *os.File.
func (s *Stream) flush() error {
	if err := s.file.Sync(); err != nil {
		return newErr(ErrFileFlush, err)
	}
	return nil
}

func (s *Stream) close() error {
	return s.file.Close()
}
