// Package progress draws terminal progress bars over a download.Operation
// or download.Service. It is optional: internal/download never imports it.
package progress

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/fluxdl/fluxdl/internal/download"
)

// CLIProgress draws a single bar for one job's downloaded/total bytes.
type CLIProgress struct {
	bar *progressbar.ProgressBar
}

// NewCLIProgress builds an idle progress bar; the bar itself is created
// lazily once the job's total size is known (Watch polls until HEAD
// resolves it).
func NewCLIProgress() *CLIProgress {
	return &CLIProgress{}
}

// Watch polls op at the given interval, drawing and updating the bar, until
// op reaches a terminal state. Returns the job's published error, nil on
// success. ctx cancellation stops watching without stopping the job itself.
func (p *CLIProgress) Watch(ctx context.Context, op *download.Operation, description string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if done, err := p.poll(op, description); done {
				return err
			}
		}
	}
}

func (p *CLIProgress) poll(op *download.Operation, description string) (done bool, err error) {
	if p.bar == nil {
		if total := op.TotalSize(); total > 0 {
			p.bar = newBar(int64(total), description)
		}
	}
	if p.bar != nil {
		_ = p.bar.Set64(int64(op.DownloadedSize()))
	}
	if !op.IsDone() {
		return false, nil
	}
	if p.bar != nil {
		_ = p.bar.Finish()
	}
	if op.IsError() {
		if e := op.Error(); e != nil {
			return true, e
		}
	}
	return true, nil
}

func newBar(total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(100),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
}
