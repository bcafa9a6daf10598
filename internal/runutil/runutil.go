// internal/runutil/runutil.go
package runutil

import (
	"runtime"

	"seqfile/internal/partition"
)

// EffectiveJobs returns the number of concurrent block readers. Values
// <= 0 select one reader per CPU.
func EffectiveJobs(jobs int) int {
	if jobs <= 0 {
		return runtime.NumCPU()
	}
	return jobs
}

// ValidateBlocks decides which partition to read, returns (block, allBlocks, warnings).
// Rules:
//   - --fasta-block <= 0 → whole input (ignore --fasta-idx and --all-blocks)
//   - --all-blocks on stdin → disabled (the input size is unknown)
//   - --all-blocks ignores --fasta-idx
//
// When allBlocks is true the returned block carries only the size; the
// driver plans the indices.
func ValidateBlocks(stdin bool, size, index int64, allBlocks bool) (partition.Block, bool, []string) {
	var warns []string
	if size <= 0 {
		if index != 0 {
			warns = append(warns, "warning: --fasta-idx requires --fasta-block; reading whole input")
		}
		if allBlocks {
			warns = append(warns, "warning: --all-blocks requires --fasta-block; reading whole input")
		}
		return partition.Block{}, false, warns
	}
	if allBlocks && stdin {
		warns = append(warns, "warning: --all-blocks cannot partition standard input; reading block 0 only")
		return partition.Block{Size: size}, false, warns
	}
	if allBlocks {
		if index != 0 {
			warns = append(warns, "warning: --all-blocks reads every block; ignoring --fasta-idx")
		}
		return partition.Block{Size: size}, true, warns
	}
	return partition.Block{Size: size, Index: index}, false, nil
}
