package download

// sender/receiver are the producer/consumer halves of a job's observation
// channels. Go has no single-value "watch" channel in the standard library,
// so each one is emulated with a buffered size-1 channel plus a
// drain-before-send helper: the idiomatic substitute for "always readable,
// only the latest value matters".
type sender struct {
	totalSize chan uint64
	errCh     chan *Error
	memory    chan []byte
}

type receiver struct {
	totalSize chan uint64
	errCh     chan *Error
	memory    chan []byte
}

func newTracker(downloadInMemory bool) (*sender, *receiver) {
	totalSize := make(chan uint64, 1)
	errCh := make(chan *Error, 1)

	s := &sender{totalSize: totalSize, errCh: errCh}
	r := &receiver{totalSize: totalSize, errCh: errCh}

	if downloadInMemory {
		mem := make(chan []byte, 1)
		s.memory = mem
		r.memory = mem
	}
	return s, r
}

// trySend replaces any buffered value with v, matching watch semantics
// (only the latest value is ever observed).
func trySend[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}

func (s *sender) setTotalSize(v uint64) {
	trySend(s.totalSize, v)
}

func (s *sender) setError(e *Error) {
	trySend(s.errCh, e)
}

func (s *sender) setMemory(b []byte) {
	if s.memory != nil {
		trySend(s.memory, b)
	}
}

// TotalSize returns the last published total length, 0 before HEAD
// completes.
func (r *receiver) TotalSize() uint64 {
	select {
	case v := <-r.totalSize:
		r.totalSize <- v
		return v
	default:
		return 0
	}
}

// Err returns the last published terminal error, nil if none yet.
func (r *receiver) Err() *Error {
	select {
	case v := <-r.errCh:
		r.errCh <- v
		return v
	default:
		return nil
	}
}

// Bytes returns the final in-memory payload once published (memory mode
// only); nil otherwise.
func (r *receiver) Bytes() []byte {
	if r.memory == nil {
		return nil
	}
	select {
	case v := <-r.memory:
		r.memory <- v
		return v
	default:
		return nil
	}
}
