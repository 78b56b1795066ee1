package download

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// chunkHub plans the chunk partition, reconciles it with on-disk resume
// state, spawns one goroutine per chunk, and performs the post-download
// merge, generalized from concurrent S3 Range GETs against one shared
// WriteAt file to plain HTTP Range GETs against one `.chunkN` file per
// chunk.
type chunkHub struct {
	cfg     *Config
	chunks  []*Chunk
	counter atomic.Uint64
}

func newChunkHub(cfg *Config) *chunkHub {
	return &chunkHub{cfg: cfg}
}

func (h *chunkHub) getDownloadedSize() uint64 {
	return h.counter.Load()
}

// chunkCount decides how many parallel ranges to use.
func chunkCount(cfg *Config, remote RemoteFile) int {
	if cfg.DownloadInMemory {
		return 1
	}
	if cfg.RangeDownload && remote.SupportRangeDownload && cfg.ChunkDownload && remote.TotalLength > cfg.ChunkSize {
		n := (remote.TotalLength + cfg.ChunkSize - 1) / cfg.ChunkSize
		if n < 1 {
			n = 1
		}
		return int(n)
	}
	return 1
}

func chunkPath(basePath string, index, count int) string {
	if count == 1 {
		return basePath + ".temp"
	}
	return basePath + ".chunk" + itoa(index)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// validate builds the job's chunk set, deciding per-chunk whether existing
// on-disk data can be resumed or must be discarded. Persists the effective
// remote version for the next run before returning.
func (h *chunkHub) validate(remote RemoteFile) error {
	// validate() always reconstructs the chunk set from scratch (e.g. after
	// a Service pre-emption re-queues this job to Pending and it is later
	// restarted), so the shared counter is reseeded rather than added to.
	h.counter.Store(0)

	count := chunkCount(h.cfg, remote)
	vLocal := int64(0)
	if !h.cfg.DownloadInMemory {
		vLocal = getLocalVersion(h.cfg.Path)
	}
	vRemote := h.cfg.RemoteVersion
	if vRemote == 0 {
		vRemote = remote.LastModifiedTime
	}

	ranges := PartitionChunks(remote.TotalLength, h.cfg.ChunkSize, count > 1)
	rangeDownload := h.cfg.RangeDownload && remote.SupportRangeDownload

	chunks := make([]*Chunk, 0, len(ranges))
	for i, r := range ranges {
		if h.cfg.DownloadInMemory {
			chunks = append(chunks, newMemoryChunk(r, &h.counter))
			continue
		}

		path := chunkPath(h.cfg.Path, i, len(ranges))
		c := newFileChunk(path, r, rangeDownload, &h.counter)

		switch {
		case vLocal == 0 || vLocal != vRemote:
			// Stale or never-seen version: fresh start.
			if err := c.deleteChunkFile(); err != nil {
				return err
			}
		default:
			switch c.validate() {
			case validateLengthOverrun:
				if err := c.deleteChunkFile(); err != nil {
					return err
				}
				c.chunkRange.Position = c.chunkRange.Start
			case validateOK:
				// position already carried over by validate(); nothing else to do.
			case validateNoEnd, validateNoFile:
				// nothing on disk; starts from Start, which is already the case.
			}
		}

		h.counter.Add(c.downloadedSize())
		chunks = append(chunks, c)
	}

	h.chunks = chunks

	if !h.cfg.DownloadInMemory {
		if err := saveLocalVersion(h.cfg.Path, vRemote); err != nil {
			return err
		}
	}
	return nil
}

// startDownload runs every incomplete chunk concurrently and waits for all
// of them. The first error cancels the remaining chunks via ctx and is
// returned; cancellation observed through ctx itself returns nil (stop() is
// not an error).
func (h *chunkHub) startDownload(ctx context.Context, cfg *Config, client httpDoer, limiter *RateLimiter) error {
	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, len(h.chunks))

	for _, c := range h.chunks {
		if c.chunkRange.EOF() {
			continue // already complete from a prior run
		}
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := runChunkTask(jobCtx, cfg, client, limiter, c); err != nil {
				select {
				case errCh <- err:
				default:
				}
				cancel() // first error cancels every sibling task
			}
		}()
	}

	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return nil // either full success, or caller-level cancellation (not an error)
	}
}

// onDownloadPost merges per-chunk files into the single temp file and
// removes the resume sidecar. A single-chunk job is already stored at
// `<path>.temp`, so there is nothing to merge.
func (h *chunkHub) onDownloadPost() error {
	if h.cfg.DownloadInMemory {
		return nil
	}

	count := len(h.chunks)
	if count > 1 {
		if err := mergeChunks(h.cfg.Path, count); err != nil {
			return err
		}
	}

	// Sidecar removal failure is not fatal; a leftover sidecar only makes a
	// later run validate whatever chunk files it finds instead of deleting
	// them.
	_ = deleteMetadata(h.cfg.Path)
	return nil
}

func mergeChunks(basePath string, count int) error {
	tempPath := basePath + ".temp"
	out, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return newErr(ErrOpenOrCreateFile, err)
	}
	defer out.Close()

	buf := make([]byte, 64*1024)
	for i := 0; i < count; i++ {
		chunkFilePath := chunkPath(basePath, i, count)
		in, err := os.Open(chunkFilePath)
		if err != nil {
			return newErr(ErrFileOpen, err)
		}
		if _, err := io.CopyBuffer(out, in, buf); err != nil {
			in.Close()
			return newErr(ErrFileWrite, err)
		}
		in.Close()

		if err := os.Remove(chunkFilePath); err != nil && !os.IsNotExist(err) {
			return newErr(ErrDeleteFile, err)
		}
	}

	if err := out.Sync(); err != nil {
		return newErr(ErrFileFlush, err)
	}
	return nil
}

// memoryBytes returns the bytes of the first chunk only. That covers an
// in-memory job, which chunkCount always plans as a single chunk.
func (h *chunkHub) memoryBytes() []byte {
	if len(h.chunks) == 0 {
		return nil
	}
	return h.chunks[0].memoryBytes()
}
