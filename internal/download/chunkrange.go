package download

// ChunkRange is a pure value describing a half-open-by-one byte range
// [start, end] of a remote object plus the moving write position within it.
// Invariant: start <= position <= end+1.
type ChunkRange struct {
	Start    uint64
	End      uint64
	Position uint64
}

// NewChunkRange builds a range with position pinned to start.
func NewChunkRange(start, end uint64) ChunkRange {
	return ChunkRange{Start: start, End: end, Position: start}
}

// ChunkLength is end-start+1 when end > start, else 0 (the degenerate
// empty-range case used for a zero-byte remote object).
func (r ChunkRange) ChunkLength() uint64 {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// Length is how many bytes have been written into this range so far.
func (r ChunkRange) Length() uint64 {
	return r.Position - r.Start
}

// EOF reports whether the range has been fully written.
func (r ChunkRange) EOF() bool {
	return r.Position == r.End+1
}

// PartitionChunks derives a partition of totalSize into ranges. If useChunks
// is false or totalSize <= chunkSize, it produces exactly one range covering
// the whole object (possibly degenerate, chunk_length == 0, when totalSize
// is 0). Otherwise it produces ceil(totalSize/chunkSize) ranges, all but the
// last sized exactly chunkSize.
func PartitionChunks(totalSize, chunkSize uint64, useChunks bool) []ChunkRange {
	if !useChunks || totalSize <= chunkSize {
		end := uint64(0)
		if totalSize > 0 {
			end = totalSize - 1
		}
		return []ChunkRange{NewChunkRange(0, end)}
	}

	n := (totalSize + chunkSize - 1) / chunkSize
	ranges := make([]ChunkRange, 0, n)
	for i := uint64(0); i < n; i++ {
		start := i * chunkSize
		var end uint64
		if i == n-1 {
			end = totalSize - 1
		} else {
			end = start + chunkSize - 1
		}
		ranges = append(ranges, NewChunkRange(start, end))
	}
	return ranges
}
