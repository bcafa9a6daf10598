// internal/partition/partition.go

// Package partition splits a file's byte range into fixed-size blocks so
// that independent readers can each consume one block.
//
// A block never truncates a record. A reader finishes the record it is in
// when it crosses its upper boundary, and the reader of the next block
// re-synchronises on the first title line that starts after its own
// start offset.
//
// A block owns the records whose title starts inside it. A block smaller
// than a record can therefore own none while later blocks still do, so an
// empty block does not mark the end of the file. Plan(fileSize, size)
// lists the blocks that cover a file; iterate those.
package partition

import "fmt"

// Block selects one partition of a stream. Size == 0 disables partitioning.
type Block struct {
	Size  int64
	Index int64
}

// Active reports whether partitioning is enabled.
func (b Block) Active() bool { return b.Size > 0 }

// StartOffset is the byte offset a reader seeks to.
func (b Block) StartOffset() int64 { return b.Size * b.Index }

// EndOffset is the nominal upper boundary of the block.
func (b Block) EndOffset() int64 { return b.Size * (b.Index + 1) }

// PastBoundary reports whether a reader positioned at pos has left the block.
func (b Block) PastBoundary(pos int64) bool { return pos > b.EndOffset() }

func (b Block) String() string {
	if !b.Active() {
		return "whole"
	}
	return fmt.Sprintf("block %d [%d,%d]", b.Index, b.StartOffset(), b.EndOffset())
}

// Validate rejects negative sizes and indices.
func (b Block) Validate() error {
	if b.Size < 0 {
		return fmt.Errorf("block size must be ≥ 0 (got %d)", b.Size)
	}
	if b.Index < 0 {
		return fmt.Errorf("block index must be ≥ 0 (got %d)", b.Index)
	}
	return nil
}

// Count returns how many blocks of size are needed to cover fileSize bytes.
func Count(fileSize, size int64) int64 {
	if size <= 0 || fileSize <= 0 {
		return 1
	}
	return (fileSize + size - 1) / size
}

// Plan lists every block covering a file of fileSize bytes.
// With size == 0 the plan is a single inactive block.
func Plan(fileSize, size int64) []Block {
	if size <= 0 {
		return []Block{{}}
	}
	n := Count(fileSize, size)
	out := make([]Block, n)
	for i := range out {
		out[i] = Block{Size: size, Index: int64(i)}
	}
	return out
}
