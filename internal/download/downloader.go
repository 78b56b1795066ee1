package download

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Downloader is the job-level state machine. It owns a chunkHub, publishes
// status/progress/error/bytes on its sender, and exposes exactly the four
// operations a Service needs (Pending, StartDownload, IsDone, Stop) with no
// back-reference to the scheduler.
type Downloader struct {
	id     string
	cfg    *Config
	client httpDoer
	limiter *RateLimiter
	log     zerolog.Logger

	hub *chunkHub

	mu     sync.RWMutex
	status Status

	ctx    context.Context
	cancel context.CancelFunc

	sender   *sender
	receiver *receiver

	done chan struct{}
}

// newDownloader builds a Downloader in status None. The caller must call
// Pending before a Service will consider it eligible to run.
func newDownloader(cfg *Config, client httpDoer, limiter *RateLimiter, log zerolog.Logger) *Downloader {
	s, r := newTracker(cfg.DownloadInMemory)
	return &Downloader{
		id:       uuid.NewString(),
		cfg:      cfg,
		client:   client,
		limiter:  limiter,
		log:      log,
		hub:      newChunkHub(cfg),
		status:   StatusNone,
		sender:   s,
		receiver: r,
	}
}

func (d *Downloader) getStatus() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

func (d *Downloader) setStatus(s Status) {
	d.mu.Lock()
	d.status = s
	d.mu.Unlock()
}

// Pending marks the downloader eligible to run; idempotent.
func (d *Downloader) Pending() {
	d.setStatus(StatusPending)
}

// IsDone reports whether the job's run goroutine has actually exited, not
// merely whether its status looks terminal (status can flip to Stop before
// the goroutine has unwound). This is the Go analogue of the original's
// `JoinHandle::is_finished`, and matters because the scheduler reuses the
// same Downloader/chunkHub across a pre-emption cycle: admitting it again
// before the previous run has fully exited would race on shared chunk
// state.
func (d *Downloader) IsDone() bool {
	d.mu.RLock()
	done := d.done
	d.mu.RUnlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return true
	default:
		return false
	}
}

// Stop signals cancellation, moves the job to Stop, and blocks until its
// run goroutine has exited (if one is in flight). Blocking here is what
// makes the scheduler's stop-then-requeue pre-emption sequence safe: the
// caller never re-admits this Downloader before its previous run has fully
// released the chunkHub it shares with the new run.
func (d *Downloader) Stop() {
	d.mu.Lock()
	if d.status.IsTerminal() {
		d.mu.Unlock()
		return
	}
	d.status = StatusStop
	cancel := d.cancel
	done := d.done
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (d *Downloader) downloadedSize() uint64 {
	return d.hub.getDownloadedSize()
}

func (d *Downloader) totalSize() uint64 {
	return d.receiver.TotalSize()
}

func (d *Downloader) lastError() *Error {
	return d.receiver.Err()
}

// StartDownload runs the state machine to completion (or to Failed/Stop) on
// its own goroutine and returns immediately; the Service polls IsDone.
func (d *Downloader) StartDownload(ctx context.Context) {
	jobCtx, cancel := context.WithCancel(ctx)

	d.mu.Lock()
	d.ctx = jobCtx
	d.cancel = cancel
	d.mu.Unlock()

	d.done = make(chan struct{})
	go func() {
		defer close(d.done)
		d.run(jobCtx)
	}()
}

func (d *Downloader) fail(kind ErrorKind, cause error) {
	e := newErr(kind, cause)
	d.sender.setError(e)
	d.setStatus(StatusFailed)
	d.log.Debug().Str("job_id", d.id).Str("kind", kind.String()).Msg("download failed")
}

func (d *Downloader) run(ctx context.Context) {
	if !d.cfg.DownloadInMemory {
		if err := checkFreeSpace(d.cfg.Path, d.cfg.ChunkSize); err != nil {
			d.failErr(err)
			return
		}
	}

	d.setStatus(StatusHead)
	sendTimeout := time.Duration(d.cfg.chunkBodyTimeout()) * time.Second
	remote, err := probeHead(ctx, d.client, d.cfg.URL, d.cfg.RetryTimesOnFailure, sendTimeout)
	if ctx.Err() != nil {
		return // stop() raced us here; status is already Stop
	}
	if err != nil {
		if derr, ok := err.(*Error); ok {
			d.sender.setError(derr)
		}
		d.setStatus(StatusFailed)
		return
	}
	d.sender.setTotalSize(remote.TotalLength)

	if !d.cfg.DownloadInMemory {
		if err := checkFreeSpace(d.cfg.Path, remote.TotalLength); err != nil {
			d.failErr(err)
			return
		}
	}

	d.setStatus(StatusDownload)
	if err := d.hub.validate(remote); err != nil {
		d.failErr(err)
		return
	}
	if err := d.hub.startDownload(ctx, d.cfg, d.client, d.limiter); err != nil {
		d.failErr(err)
		return
	}
	if ctx.Err() != nil {
		return
	}

	d.setStatus(StatusDownloadPost)
	if err := d.hub.onDownloadPost(); err != nil {
		d.failErr(err)
		return
	}

	tempPath := d.cfg.Path + ".temp"

	d.setStatus(StatusFileVerify)
	if !d.cfg.DownloadInMemory && d.cfg.FileVerify.Kind != VerifyNone {
		if err := verifyFile(d.cfg.FileVerify, tempPath); err != nil {
			d.failErr(err)
			return
		}
	}

	if d.cfg.DownloadInMemory {
		d.sender.setMemory(d.hub.memoryBytes())
	} else {
		if err := os.Rename(tempPath, d.cfg.Path); err != nil {
			d.failErr(newRenameErr(err.Error(), err))
			return
		}
	}

	d.setStatus(StatusComplete)
	d.log.Debug().Str("job_id", d.id).Msg("download complete")
}

func (d *Downloader) failErr(err error) {
	if derr, ok := err.(*Error); ok {
		d.sender.setError(derr)
	} else {
		d.sender.setError(newErr(ErrDownloadTask, err))
	}
	d.setStatus(StatusFailed)
}

// progressFraction is exposed for Operation.Progress; declared here so the
// computation lives next to the counters it reads.
func (d *Downloader) progressFraction() float64 {
	total := d.totalSize()
	if total == 0 {
		return 0
	}
	return clamp01(float64(d.downloadedSize()) / float64(total))
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
