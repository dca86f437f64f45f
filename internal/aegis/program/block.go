package program

import (
	"fmt"

	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/core"
)

// Block is one node of the program block tree (spec.md §3, §9 "Block
// tree": a tree, not a cyclic graph — children are owned, not shared).
type Block interface {
	// Hash returns the block's memoized Rescue digest (spec.md §4.G: "Block
	// hashes are memoized at build time").
	Hash() core.Fp
	// fold threads the block's own opcode stream into state, continuing a
	// running Rescue accumulator across a sequence of sibling blocks
	// (grounded on original_source's hash_seq folding blocks into one
	// carried state).
	fold(state *[4]core.Fp)
	isSpan() bool
}

// Span is a maximal straight-line run of instructions, always a multiple of
// cycleLength steps: cycleLength-1 real ops per cycle plus one
// cycle-terminating NOOP, matching both data-model invariants in spec.md §3
// ("terminated so the last opcode is NOOP") and §4.G ("every Span's length
// is cycle_length-1 modulo cycle_length"). This resolves the §9 alignment
// ambiguity by making a Span self-terminating: it always owns the NOOP that
// closes its final cycle, rather than borrowing a block-boundary op from its
// parent.
type Span struct {
	ops  []Op
	hash core.Fp
}

// NewSpan builds a Span from a caller-supplied instruction sequence,
// grouping it into cycles of cycleLength-1 real ops each and auto-inserting
// the cycle-terminating NOOP after every such group (and after any final
// partial group), then memoizing the block's Rescue hash.
func NewSpan(ops ...Op) *Span {
	var padded []Op
	run := 0
	for _, op := range ops {
		padded = append(padded, op)
		run++
		if run == cycleLength-1 {
			padded = append(padded, Plain(NOOP))
			run = 0
		}
	}
	if run > 0 {
		for run < cycleLength-1 {
			padded = append(padded, Plain(NOOP))
			run++
		}
		padded = append(padded, Plain(NOOP))
	}
	if len(padded) == 0 {
		padded = append(padded, Plain(NOOP))
		for i := 1; i < cycleLength; i++ {
			padded = append(padded, Plain(NOOP))
		}
	}

	s := &Span{ops: padded}
	var state [4]core.Fp
	s.fold(&state)
	s.hash = state[0]
	return s
}

func (s *Span) Hash() core.Fp { return s.hash }
func (s *Span) isSpan() bool  { return true }

func (s *Span) fold(state *[4]core.Fp) {
	for step, op := range s.ops {
		core.HashOp(state, uint8(op.Code), op.Value, step)
	}
}

// Ops exposes the (padded) instruction sequence for the trace builder.
func (s *Span) Ops() []Op { return s.ops }

// blockSeq hashes a body of sibling blocks into a single digest, appending a
// final boundary NOOP when the body doesn't already end on a Span (ported
// from original_source's hash_seq: non-Span bodies need an explicit step-15
// NOOP to close their last cycle before folding into the parent).
func blockSeq(body []Block) core.Fp {
	var state [4]core.Fp
	for _, b := range body {
		b.fold(&state)
	}
	if len(body) == 0 || !body[len(body)-1].isSpan() {
		core.HashOp(&state, uint8(NOOP), core.Zero(), cycleLength-1)
	}
	return state[0]
}

// Group is plain sequencing of a body under an explicit BEGIN/TEND frame
// (spec.md §3).
type Group struct {
	body []Block
	hash core.Fp
}

// NewGroup builds a Group over body, memoizing its hash.
func NewGroup(body ...Block) *Group {
	g := &Group{body: body}
	g.hash = blockSeq(body)
	return g
}

func (g *Group) Hash() core.Fp { return g.hash }
func (g *Group) isSpan() bool  { return false }
func (g *Group) Body() []Block { return g.body }

func (g *Group) fold(state *[4]core.Fp) {
	inner := blockSeq(g.body)
	acc := core.HashAcc(state[0], inner, core.Zero())
	*state = acc
}

// Switch is a binary branch on the top-of-stack condition; both branch
// hashes are pre-computed so the untaken branch never needs to be walked
// (spec.md §3, §9: sibling hashes cached to avoid recomputation).
type Switch struct {
	trueBranch, falseBranch []Block
	trueHash, falseHash     core.Fp
	hash                    core.Fp
}

// NewSwitch builds a Switch over its two branches.
func NewSwitch(trueBranch, falseBranch []Block) *Switch {
	sw := &Switch{trueBranch: trueBranch, falseBranch: falseBranch}
	sw.trueHash = blockSeq(trueBranch)
	sw.falseHash = blockSeq(falseBranch)
	state := core.HashAcc(core.Zero(), sw.trueHash, sw.falseHash)
	sw.hash = state[0]
	return sw
}

func (sw *Switch) Hash() core.Fp           { return sw.hash }
func (sw *Switch) isSpan() bool            { return false }
func (sw *Switch) TrueBranch() []Block     { return sw.trueBranch }
func (sw *Switch) FalseBranch() []Block    { return sw.falseBranch }
func (sw *Switch) TrueHash() core.Fp       { return sw.trueHash }
func (sw *Switch) FalseHash() core.Fp      { return sw.falseHash }

func (sw *Switch) fold(state *[4]core.Fp) {
	acc := core.HashAcc(state[0], sw.trueHash, sw.falseHash)
	*state = acc
}

// Loop is entered when the top-of-stack is 1 and exited when it is 0; the
// body re-executes ("WRAP-accumulates") once per pass (spec.md §3).
type Loop struct {
	body           []Block
	bodyHash       core.Fp
	skipHash       core.Fp
	hash           core.Fp
}

// NewLoop builds a Loop over body; skipping the loop entirely hashes as an
// empty body (a lone boundary NOOP), matching the "exited when 0" case
// having its own well-defined digest.
func NewLoop(body ...Block) *Loop {
	l := &Loop{body: body}
	l.bodyHash = blockSeq(body)
	l.skipHash = blockSeq(nil)
	state := core.HashAcc(core.Zero(), l.bodyHash, l.skipHash)
	l.hash = state[0]
	return l
}

func (l *Loop) Hash() core.Fp     { return l.hash }
func (l *Loop) isSpan() bool      { return false }
func (l *Loop) Body() []Block     { return l.body }
func (l *Loop) BodyHash() core.Fp { return l.bodyHash }
func (l *Loop) SkipHash() core.Fp { return l.skipHash }

func (l *Loop) fold(state *[4]core.Fp) {
	acc := core.HashAcc(state[0], l.bodyHash, l.skipHash)
	*state = acc
}

// Program is the root of a block tree: a single top-level Group whose
// digest is the program's identity (spec.md §6: "Program digest of a root
// Group is the first element of its Rescue-accumulated state").
type Program struct {
	Root *Group
}

// NewProgram wraps a root body in a Program.
func NewProgram(body ...Block) *Program {
	return &Program{Root: NewGroup(body...)}
}

// Digest returns the 16-byte program digest.
func (p *Program) Digest() [16]byte { return p.Root.Hash().Bytes() }

// NeedsBoundaryFold reports whether body needs the trailing boundary NOOP
// fold blockSeq applies to a body that doesn't already end on a Span —
// exported so a caller folding a body's accumulator incrementally (rather
// than through blockSeq itself) can replicate that same boundary exactly.
func NeedsBoundaryFold(body []Block) bool {
	return len(body) == 0 || !body[len(body)-1].isSpan()
}

// BoundaryFoldStep is the fixed pseudo-step blockSeq folds its trailing
// boundary NOOP at (spec.md §4.G): always cycleLength-1, independent of any
// running trace position, since the boundary is a structural artifact of
// the digest, not a real executed step.
const BoundaryFoldStep = cycleLength - 1

// ValidateSpanAlignment checks the §4.G invariant explicitly, useful for
// tests and for callers constructing Spans by hand rather than via NewSpan.
func ValidateSpanAlignment(s *Span) error {
	if len(s.ops)%cycleLength != 0 {
		return fmt.Errorf("program: span length %d is not a multiple of %d", len(s.ops), cycleLength)
	}
	for i := cycleLength - 1; i < len(s.ops); i += cycleLength {
		if s.ops[i].Code != NOOP {
			return fmt.Errorf("program: span step %d must be NOOP, got %s", i, s.ops[i].Code)
		}
	}
	return nil
}
