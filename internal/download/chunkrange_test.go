package download

import "testing"

// TestPartitionChunksSingleRange verifies that a non-chunked download
// produces exactly one range covering the whole object.
func TestPartitionChunksSingleRange(t *testing.T) {
	ranges := PartitionChunks(1000, 300, false)
	if len(ranges) != 1 {
		t.Fatalf("len(ranges) = %d, want 1", len(ranges))
	}
	if ranges[0].Start != 0 || ranges[0].End != 999 {
		t.Errorf("range = [%d,%d], want [0,999]", ranges[0].Start, ranges[0].End)
	}
}

// TestPartitionChunksZeroByteObject verifies the degenerate range for an
// empty remote object.
func TestPartitionChunksZeroByteObject(t *testing.T) {
	ranges := PartitionChunks(0, 300, true)
	if len(ranges) != 1 {
		t.Fatalf("len(ranges) = %d, want 1", len(ranges))
	}
	if ranges[0].Start != 0 || ranges[0].End != 0 {
		t.Errorf("range = [%d,%d], want [0,0]", ranges[0].Start, ranges[0].End)
	}
	if ranges[0].ChunkLength() != 0 {
		t.Errorf("ChunkLength() = %d, want 0", ranges[0].ChunkLength())
	}
}

// TestPartitionChunksExactMultiple verifies an evenly-divisible split.
func TestPartitionChunksExactMultiple(t *testing.T) {
	ranges := PartitionChunks(900, 300, true)
	if len(ranges) != 3 {
		t.Fatalf("len(ranges) = %d, want 3", len(ranges))
	}
	want := [][2]uint64{{0, 299}, {300, 599}, {600, 899}}
	for i, r := range ranges {
		if r.Start != want[i][0] || r.End != want[i][1] {
			t.Errorf("ranges[%d] = [%d,%d], want [%d,%d]", i, r.Start, r.End, want[i][0], want[i][1])
		}
		if r.ChunkLength() != 300 {
			t.Errorf("ranges[%d].ChunkLength() = %d, want 300", i, r.ChunkLength())
		}
	}
}

// TestPartitionChunksNonDivisible verifies the last chunk absorbs the
// remainder instead of becoming its own short range plus a dangling tail.
func TestPartitionChunksNonDivisible(t *testing.T) {
	ranges := PartitionChunks(1000, 300, true)
	if len(ranges) != 4 {
		t.Fatalf("len(ranges) = %d, want 4", len(ranges))
	}
	last := ranges[3]
	if last.Start != 900 || last.End != 999 {
		t.Errorf("last range = [%d,%d], want [900,999]", last.Start, last.End)
	}
	if last.ChunkLength() != 100 {
		t.Errorf("last.ChunkLength() = %d, want 100", last.ChunkLength())
	}
}

// TestPartitionChunksSingleByteObject verifies a 1-byte object still
// produces a usable [0,0] range when chunking is requested but the object
// doesn't exceed chunkSize. ChunkLength() reports 0 for this range: the
// End<=Start degenerate case is indistinguishable from the zero-byte-object
// case by design, and Length() (bytes actually written) is what chunk
// completion is tracked by instead.
func TestPartitionChunksSingleByteObject(t *testing.T) {
	ranges := PartitionChunks(1, 300, true)
	if len(ranges) != 1 {
		t.Fatalf("len(ranges) = %d, want 1", len(ranges))
	}
	if ranges[0].Start != 0 || ranges[0].End != 0 {
		t.Errorf("range = [%d,%d], want [0,0]", ranges[0].Start, ranges[0].End)
	}
	if ranges[0].ChunkLength() != 0 {
		t.Errorf("ChunkLength() = %d, want 0 (End<=Start is the degenerate case)", ranges[0].ChunkLength())
	}
}

// TestChunkRangeEOF verifies EOF only reports true once position has
// advanced one past End.
func TestChunkRangeEOF(t *testing.T) {
	r := NewChunkRange(10, 19)
	if r.EOF() {
		t.Fatal("freshly built range reports EOF")
	}
	r.Position = 19
	if r.EOF() {
		t.Fatal("range with one byte left reports EOF")
	}
	r.Position = 20
	if !r.EOF() {
		t.Fatal("range with position one past End does not report EOF")
	}
}

// TestChunkRangeLength verifies Length tracks bytes written so far, not the
// full span.
func TestChunkRangeLength(t *testing.T) {
	r := NewChunkRange(100, 199)
	if r.Length() != 0 {
		t.Errorf("Length() = %d, want 0", r.Length())
	}
	r.Position = 150
	if r.Length() != 50 {
		t.Errorf("Length() = %d, want 50", r.Length())
	}
}
