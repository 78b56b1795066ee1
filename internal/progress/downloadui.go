package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/fluxdl/fluxdl/internal/download"
)

// tickInterval matches download.Service's own scheduling cadence, so a bar
// update never lags more than one scheduler tick behind the real counter.
const tickInterval = 300 * time.Millisecond

// DownloadUI manages one progress bar per concurrently running job, for
// callers driving a download.Service rather than a single Operation.
type DownloadUI struct {
	progress   *mpb.Progress
	bars       sync.Map // job_id -> *jobBar
	isTerminal bool
	totalJobs  int
	completed  int32
}

// jobBar is a single job's progress bar plus the bookkeeping needed to feed
// mpb's EWMA speed/ETA decorators from a fraction-of-total value (what
// Watch reads from each Operation) rather than a byte delta.
type jobBar struct {
	bar        *mpb.Bar
	ui         *DownloadUI
	index      int
	localPath  string
	size       int64
	startTime  time.Time
	lastUpdate time.Time
	lastBytes  int64
}

// NewDownloadUI creates a UI for totalJobs concurrently tracked downloads.
// On a non-terminal output, bars are suppressed in favor of plain log lines.
func NewDownloadUI(totalJobs int) *DownloadUI {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))

	var p *mpb.Progress
	if isTerminal {
		enableWindowsANSI(os.Stderr)
		p = mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithRefreshRate(tickInterval),
			mpb.WithWidth(100),
		)
	} else {
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	return &DownloadUI{
		progress:   p,
		isTerminal: isTerminal,
		totalJobs:  totalJobs,
	}
}

// AddJobBar registers a bar for jobID; Watch drives it from then on, so
// callers need no further handle to it.
func (u *DownloadUI) AddJobBar(index int, jobID, localPath string, size int64) {
	destPath := truncatePath(localPath, 2)

	jb := &jobBar{
		ui:         u,
		index:      index,
		localPath:  localPath,
		size:       size,
		startTime:  time.Now(),
		lastUpdate: time.Now(),
	}

	if u.isTerminal {
		jb.bar = u.progress.New(size,
			mpb.BarStyle().
				Lbound("[").
				Filler("█").
				Tip("█").
				Padding("░").
				Rbound("]"),
			mpb.PrependDecorators(
				decor.Any(func(s decor.Statistics) string {
					return fmt.Sprintf("[%d/%d] %s (%.1f MiB)", jb.index, u.totalJobs, destPath, float64(size)/(1024*1024))
				}, decor.WCSyncSpace),
			),
			mpb.AppendDecorators(
				decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
				decor.Name("  "),
				decor.EwmaSpeed(decor.SizeB1024(0), "% .1f", 60, decor.WCSyncSpace),
				decor.Name("  "),
				decor.Name("ETA ", decor.WCSyncWidth),
				decor.EwmaETA(decor.ET_STYLE_GO, 60),
			),
			mpb.BarRemoveOnComplete(),
		)
	} else {
		fmt.Printf("downloading [%d/%d]: %s (%.1f MiB)\n", index, u.totalJobs, destPath, float64(size)/(1024*1024))
	}

	u.bars.Store(jobID, jb)
}

// updateFraction feeds an Operation.Progress() value to the bar's EWMA
// tracker, throttled to the service's own tick interval.
func (jb *jobBar) updateFraction(fraction float64) {
	if jb.bar == nil {
		return
	}

	now := time.Now()
	elapsed := now.Sub(jb.lastUpdate)
	if elapsed < tickInterval {
		return
	}

	currentBytes := int64(fraction * float64(jb.size))
	jb.bar.EwmaIncrBy(int(currentBytes-jb.lastBytes), elapsed)
	jb.lastBytes = currentBytes
	jb.lastUpdate = now
}

// complete marks the bar finished and prints a one-line summary.
func (jb *jobBar) complete(err error) {
	elapsed := time.Since(jb.startTime)
	speed := float64(jb.size) / elapsed.Seconds() / (1024 * 1024)

	if err == nil {
		if jb.bar != nil {
			jb.bar.SetCurrent(jb.size)
			jb.bar.SetTotal(jb.size, true)
		}
		msg := fmt.Sprintf("done  %s (%.1f MiB, %s, %.1f MiB/s)\n",
			truncatePath(jb.localPath, 2), float64(jb.size)/(1024*1024), elapsed.Round(time.Second), speed)
		jb.writeAbove(msg)
	} else {
		if jb.bar != nil {
			jb.bar.Abort(false)
		}
		msg := fmt.Sprintf("failed %s: %v\n", truncatePath(jb.localPath, 2), err)
		jb.writeAbove(msg)
	}

	atomic.AddInt32(&jb.ui.completed, 1)
}

func (jb *jobBar) writeAbove(msg string) {
	if jb.ui.isTerminal && jb.ui.progress != nil {
		jb.ui.progress.Write([]byte(msg))
	} else {
		fmt.Print(msg)
	}
}

// Watch polls every job bar registered so far against its Operation until
// all are done, using op.Progress() for the fraction and op.TotalSize()/
// IsDone()/Error() for the rest. Callers normally pair one AddJobBar call
// per Service.Add with one entry in ops.
func (u *DownloadUI) Watch(ctx context.Context, ops map[string]*download.Operation, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	remaining := len(ops)
	for remaining > 0 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for id, op := range ops {
				v, ok := u.bars.Load(id)
				if !ok {
					continue
				}
				jb := v.(*jobBar)
				jb.updateFraction(op.Progress())
				if op.IsDone() {
					jb.complete(op.Error())
					delete(ops, id)
					remaining--
				}
			}
		}
	}
}

// Wait blocks until mpb has drained all bars (call after Watch returns).
func (u *DownloadUI) Wait() {
	if u.progress != nil {
		u.progress.Wait()
	}
}

// Writer returns an io.Writer that prints above the active bars.
func (u *DownloadUI) Writer() io.Writer {
	if u.progress != nil && u.isTerminal {
		return u.progress
	}
	return os.Stderr
}

// Completed returns the number of jobs whose bar has finished.
func (u *DownloadUI) Completed() int {
	return int(atomic.LoadInt32(&u.completed))
}

// IsTerminal reports whether bars are actually being drawn.
func (u *DownloadUI) IsTerminal() bool {
	return u.isTerminal
}

func truncatePath(path string, maxComponents int) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= maxComponents {
		return filepath.Base(path)
	}
	relevant := parts[len(parts)-maxComponents:]
	return "…/" + strings.Join(relevant, "/")
}
