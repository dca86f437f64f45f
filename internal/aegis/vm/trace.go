package vm

import "github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/core"

// Register layout (spec.md §3 "Trace table"): decoder registers first
// (opcode, its 5-bit decomposition, the 4-wide program-hash accumulator),
// then stack registers (1 aux slot plus MaxStackDepth user registers).
const (
	ColOpcode = iota
	ColOpBit0
	ColOpBit1
	ColOpBit2
	ColOpBit3
	ColOpBit4
	ColAcc0
	ColAcc1
	ColAcc2
	ColAcc3
	ColAux
	// ColIsFold, ColFoldH, ColFoldV0 and ColFoldV1 tag the rows where the
	// block-tree walker combines a Group/Switch/Loop's memoized digest into
	// the running accumulator via hash_acc, rather than a per-step hash_op
	// round: ColIsFold is 1 on exactly those rows, and ColFoldH/V0/V1 record
	// the three operands air.Constraints needs to recompute the combine
	// (spec.md §4.E "hash_acc", §4.I "Decoder constraints").
	ColIsFold
	ColFoldH
	ColFoldV0
	ColFoldV1
	// ColHash0..3 mirror State.HashState, the in-stack Rescue sponge HASHR
	// folds into (spec.md §4.H "RESCR/HASHR"), so air.Constraints can check
	// HASHR's transition (core.RescuePermute applied to hash+top4) without
	// the stack window alone telling it what the pre-permutation state was.
	ColHash0
	ColHash1
	ColHash2
	ColHash3
	// ColIsBoundaryFold is 1 on the single row (if any) where BuildTrace folds
	// a root body's trailing boundary NOOP: that hash_op round always runs at
	// the fixed pseudo-step program.BoundaryFoldStep (matching blockSeq's own
	// static digest convention), not the row's real position in the trace, so
	// air.Constraints needs this tag to know which step index to recompute
	// the round with (spec.md §4.G, §4.I).
	ColIsBoundaryFold
	ColStackBase // ColStackBase .. ColStackBase+MaxStackDepth-1
	NumColumns   = ColStackBase + MaxStackDepth
)

// TraceTable is the tabular execution record the STARK prover commits to
// (spec.md §3 "Trace table", §4.H). Its length is always the smallest
// power of two >= the number of steps actually executed; padding rows
// repeat NOOPs.
type TraceTable struct {
	Columns [NumColumns][]core.Fp
	// Hints records, per step, the execution-hint data the trace builder
	// used but the verifier re-derives or is told (spec.md §3 "Execution
	// hint").
	Hints map[int]HintRecord
	// Outputs is the claimed final output window (spec.md §4.H).
	Outputs []core.Fp
	// Length is the padded, power-of-two trace length.
	Length int
	// Steps is the number of steps actually executed before padding.
	Steps int
}

// HintRecord is one step's recorded execution hint (mirrors
// program.Hint, decoupled so the vm package doesn't need to import
// program's Hint representation into the trace wire format).
type HintRecord struct {
	Kind  int
	Value core.Fp
	Bits  []core.Fp
}

func newTraceTable(capacityHint int) *TraceTable {
	t := &TraceTable{Hints: make(map[int]HintRecord)}
	for i := range t.Columns {
		t.Columns[i] = make([]core.Fp, 0, capacityHint)
	}
	return t
}

// appendRow appends one step's register values, reading the stack window
// and in-stack hash sponge from state and the decoder fields from the
// supplied opcode/accumulator state.
func (t *TraceTable) appendRow(opcode uint8, accState [4]core.Fp, hashState [4]core.Fp, stack [MaxStackDepth]core.Fp) {
	t.Columns[ColOpcode] = append(t.Columns[ColOpcode], core.FpFromUint64(uint64(opcode)))
	for b := 0; b < 5; b++ {
		bit := (opcode >> uint(b)) & 1
		t.Columns[ColOpBit0+b] = append(t.Columns[ColOpBit0+b], core.FpFromUint64(uint64(bit)))
	}
	for i := 0; i < 4; i++ {
		t.Columns[ColAcc0+i] = append(t.Columns[ColAcc0+i], accState[i])
	}
	t.Columns[ColAux] = append(t.Columns[ColAux], core.Zero())
	t.Columns[ColIsFold] = append(t.Columns[ColIsFold], core.Zero())
	t.Columns[ColFoldH] = append(t.Columns[ColFoldH], core.Zero())
	t.Columns[ColFoldV0] = append(t.Columns[ColFoldV0], core.Zero())
	t.Columns[ColFoldV1] = append(t.Columns[ColFoldV1], core.Zero())
	t.Columns[ColIsBoundaryFold] = append(t.Columns[ColIsBoundaryFold], core.Zero())
	for i := 0; i < 4; i++ {
		t.Columns[ColHash0+i] = append(t.Columns[ColHash0+i], hashState[i])
	}
	for i := 0; i < MaxStackDepth; i++ {
		t.Columns[ColStackBase+i] = append(t.Columns[ColStackBase+i], stack[i])
	}
}

// setFoldOperands marks the most recently appended row as a hash_acc fold
// boundary and records the three operands the accumulator-evolution
// transition constraint folds together on this row: h (the accumulator as it
// stood entering the block), and v0/v1 (the block's own memoized digest(s)),
// matching whichever of Group.fold/Switch.fold/Loop.fold produced the
// running accumulator's actual next value (spec.md §4.E, §4.I).
func (t *TraceTable) setFoldOperands(h, v0, v1 core.Fp) {
	n := len(t.Columns[ColOpcode]) - 1
	t.Columns[ColIsFold][n] = core.One()
	t.Columns[ColFoldH][n] = h
	t.Columns[ColFoldV0][n] = v0
	t.Columns[ColFoldV1][n] = v1
}

// setBoundaryFold marks the most recently appended row as the root body's
// trailing boundary-NOOP fold, so air.Constraints knows to recompute its
// hash_op round at program.BoundaryFoldStep rather than the row's own trace
// position (spec.md §4.G).
func (t *TraceTable) setBoundaryFold() {
	n := len(t.Columns[ColOpcode]) - 1
	t.Columns[ColIsBoundaryFold][n] = core.One()
}

// padToPowerOfTwo repeats NOOP rows (opcode 0, unchanged accumulator and
// stack) until the trace length is a power of two, per spec.md §3.
func (t *TraceTable) padToPowerOfTwo() {
	t.Steps = len(t.Columns[ColOpcode])
	t.PadToLength(nextPowerOfTwo(t.Steps))
}

// PadToLength repeats NOOP rows until the trace reaches exactly length,
// which must be a power of two no smaller than the table's current row
// count. The prover calls this a second time, after the initial
// power-of-two padding, when the chosen extension factor would otherwise
// leave the LDE domain size short of the power-of-four quartic FRI folding
// needs (spec.md §4.D).
func (t *TraceTable) PadToLength(length int) {
	n := len(t.Columns[ColOpcode])
	lastAcc := [4]core.Fp{}
	lastHash := [4]core.Fp{}
	var lastStack [MaxStackDepth]core.Fp
	if n > 0 {
		for i := 0; i < 4; i++ {
			lastAcc[i] = t.Columns[ColAcc0+i][n-1]
			lastHash[i] = t.Columns[ColHash0+i][n-1]
		}
		for i := 0; i < MaxStackDepth; i++ {
			lastStack[i] = t.Columns[ColStackBase+i][n-1]
		}
	}
	for len(t.Columns[ColOpcode]) < length {
		t.appendRow(0, lastAcc, lastHash, lastStack)
	}
	t.Length = length
}

// minTraceLength matches the data model's "power-of-two length >= 16"
// invariant (spec.md §3).
const minTraceLength = 16

func nextPowerOfTwo(n int) int {
	p := minTraceLength
	for p < n {
		p <<= 1
	}
	return p
}
