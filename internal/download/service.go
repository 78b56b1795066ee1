package download

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// tickInterval is the scheduler's poll period.
const tickInterval = 300 * time.Millisecond

const defaultParallelCount = 32

// Service is the bounded-parallelism scheduler: a FIFO queue feeding a
// bounded active set, with tail-based pre-emption when the bound is lowered
// below the number of jobs currently running.
type Service struct {
	client httpDoer
	log    zerolog.Logger

	mu            sync.Mutex
	parallelCount int
	queue         []*Downloader
	active        []*Downloader

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService builds a Service with the default parallel count (32,
// matching the original). Call Start to begin scheduling.
func NewService(client httpDoer, log zerolog.Logger) *Service {
	return &Service{
		client:        client,
		log:           log,
		parallelCount: defaultParallelCount,
	}
}

// Start launches the scheduling loop on its own goroutine. Calling Start
// twice without an intervening Stop is a programming error and has no
// effect the second time.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		s.loop(loopCtx)
	}()
}

// Stop cancels the scheduling loop and stops every job in the active set.
// Queued jobs that were never admitted are left Pending.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	active := append([]*Downloader(nil), s.active...)
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	for _, d := range active {
		d.Stop()
	}
}

// SetParallelCount changes the active-set bound; takes effect on the loop's
// next tick.
func (s *Service) SetParallelCount(n int) {
	s.mu.Lock()
	s.parallelCount = n
	s.mu.Unlock()
}

// Add builds a Downloader for cfg, marks it Pending, enqueues it, and
// returns the caller-facing Operation immediately. The job may sit queued
// for an arbitrary number of ticks before the scheduler admits it.
func (s *Service) Add(cfg *Config) *Operation {
	limiter := NewRateLimiter(cfg.ReceiveBytesPerSecond)
	d := newDownloader(cfg, s.client, limiter, s.log)
	d.Pending()

	s.mu.Lock()
	s.queue = append(s.queue, d)
	s.mu.Unlock()

	s.log.Debug().Str("job_id", d.id).Msg("job queued")
	return newOperation(d)
}

func (s *Service) loop(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick performs one scheduling pass: admit queued jobs up to the parallel
// bound, reap finished jobs from the active set, then pre-empt from the
// tail of the active set if it still exceeds the (possibly just-lowered)
// bound.
func (s *Service) tick(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.active) < s.parallelCount && len(s.queue) > 0 {
		d := s.queue[0]
		s.queue = s.queue[1:]

		if d.getStatus() != StatusPending {
			// Not Pending any more (stopped by the caller while queued);
			// drop it rather than re-admitting.
			continue
		}

		s.active = append(s.active, d)
		s.log.Debug().Str("job_id", d.id).Int("active", len(s.active)).Msg("job admitted")
		d.StartDownload(ctx)
	}

	for i := len(s.active) - 1; i >= 0; i-- {
		if s.active[i].IsDone() {
			s.log.Debug().Str("job_id", s.active[i].id).Msg("job finished")
			s.active = append(s.active[:i], s.active[i+1:]...)
		}
	}

	if len(s.active) > s.parallelCount {
		removeCount := len(s.active) - s.parallelCount
		for removeCount > 0 {
			last := len(s.active) - 1
			d := s.active[last]

			d.Stop()
			d.Pending()
			s.queue = append(s.queue, d)
			s.active = s.active[:last]

			s.log.Debug().Str("job_id", d.id).Msg("job pre-empted")
			removeCount--
		}
	}
}
