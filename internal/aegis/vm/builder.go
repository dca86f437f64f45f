package vm

import (
	"fmt"

	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/core"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/program"
)

// BuildTrace walks prog's block tree against inputs and produces the
// padded execution trace (spec.md §4.H: "build_trace(program, inputs,
// extension_factor) -> TraceTable"). BuildTrace takes no extension factor
// and records none on the result: it only produces the base (unextended)
// trace, and stark.Prove applies the extension factor itself when it
// extends the columns via NTT.
func BuildTrace(prog *program.Program, inputs ProgramInputs) (*TraceTable, *State, error) {
	state, err := NewState(inputs)
	if err != nil {
		return nil, nil, err
	}
	trace := newTraceTable(64)

	if err := walkBody(state, trace, prog.Root.Body()); err != nil {
		return nil, nil, err
	}
	// Root is folded the same way program.NewGroup's own blockSeq call
	// folds it: a body whose last block isn't a Span needs this trailing
	// boundary NOOP absorbed into the accumulator before it can match
	// prog.Root.Hash() (program/block.go's blockSeq).
	if program.NeedsBoundaryFold(prog.Root.Body()) {
		trace.appendRow(uint8(program.NOOP), state.AccState, state.HashState, state.Snapshot())
		trace.setBoundaryFold()
		core.HashOp(&state.AccState, uint8(program.NOOP), core.Zero(), program.BoundaryFoldStep)
		state.Step++
	}
	// One trailing row holds the true post-execution state (final stack,
	// final accumulator), matching every padding row that follows it and
	// giving air.Constraints.Terminal a last row to check against (spec.md
	// §4.I "Boundary constraints"). Every other row holds the state *before*
	// its tagged opcode runs, so (row, row+1) brackets that opcode's effect.
	trace.appendRow(uint8(program.NOOP), state.AccState, state.HashState, state.Snapshot())

	trace.padToPowerOfTwo()
	trace.Outputs = state.Outputs()
	return trace, state, nil
}

// walkBody executes a sequence of sibling blocks in order. It emits no flow
// markers itself: walkBlock emits them around Group, Switch and Loop
// bodies, and a Span gets none (spec.md §4.H: "BEGIN, TEND, FEND, LOOP, WRAP, BREAK, VOID
// are emitted by the walker at block boundaries, not by user code").
func walkBody(s *State, trace *TraceTable, body []program.Block) error {
	for _, b := range body {
		if err := walkBlock(s, trace, b); err != nil {
			return err
		}
	}
	return nil
}

func walkBlock(s *State, trace *TraceTable, b program.Block) error {
	switch blk := b.(type) {
	case *program.Span:
		return walkSpan(s, trace, blk)
	case *program.Group:
		// Group.fold (program/block.go) combines the accumulator as it stood
		// just before this Group with the Group's own memoized, context-free
		// body hash in a single HashAcc round — not by continuing the
		// sequential per-op absorption the body's own walk performs for its
		// real stack effects. outerAcc0 is captured before that walk so the
		// combine uses the right operand; the walk's own HashOp calls still
		// run (for the real trace rows), then get overwritten by the combine.
		outerAcc0 := s.AccState[0]
		emitFlowMarker(s, trace, program.BEGIN)
		s.ContextDepth++
		if err := walkBody(s, trace, blk.Body()); err != nil {
			return err
		}
		s.ContextDepth--
		emitFlowMarker(s, trace, program.NOOP) // TEND boundary
		trace.setFoldOperands(outerAcc0, blk.Hash(), core.Zero())
		s.AccState = core.HashAcc(outerAcc0, blk.Hash(), core.Zero())
		return nil
	case *program.Switch:
		cond, err := s.Pop()
		if err != nil {
			return err
		}
		if !cond.IsZero() && !cond.Equal(core.One()) {
			return fmt.Errorf("vm: %w: switch condition must be binary", ErrInvalidInput)
		}
		// Switch.fold combines both branch hashes regardless of which one
		// ran (the digest is structural, independent of the runtime
		// condition) — same outerAcc0-capture-then-overwrite pattern as
		// Group, combining against TrueHash/FalseHash rather than the
		// branch actually walked.
		outerAcc0 := s.AccState[0]
		emitFlowMarker(s, trace, program.NOOP) // flow boundary
		if cond.Equal(core.One()) {
			err = walkBody(s, trace, blk.TrueBranch())
		} else {
			err = walkBody(s, trace, blk.FalseBranch())
		}
		if err != nil {
			return err
		}
		emitFlowMarker(s, trace, program.NOOP) // FEND: branch exit, fold row
		trace.setFoldOperands(outerAcc0, blk.TrueHash(), blk.FalseHash())
		s.AccState = core.HashAcc(outerAcc0, blk.TrueHash(), blk.FalseHash())
		return nil
	case *program.Loop:
		// Loop.fold combines BodyHash/SkipHash exactly once per Loop node,
		// independent of how many passes actually run — outerAcc0 is
		// captured once, before the first condition check, and the combine
		// happens once, at whichever exit (VOID on the first false, or after
		// the last WRAP) ends this Loop.
		outerAcc0 := s.AccState[0]
		s.LoopDepth++
		defer func() { s.LoopDepth-- }()
		for {
			cond := s.Peek(0)
			if !cond.IsZero() && !cond.Equal(core.One()) {
				return fmt.Errorf("vm: %w: loop condition must be binary", ErrInvalidInput)
			}
			if _, err := s.Pop(); err != nil {
				return err
			}
			if cond.IsZero() {
				emitFlowMarker(s, trace, program.NOOP) // VOID: loop skipped
				trace.setFoldOperands(outerAcc0, blk.BodyHash(), blk.SkipHash())
				s.AccState = core.HashAcc(outerAcc0, blk.BodyHash(), blk.SkipHash())
				return nil
			}
			emitFlowMarker(s, trace, program.NOOP) // LOOP: entering body
			if err := walkBody(s, trace, blk.Body()); err != nil {
				return err
			}
			emitFlowMarker(s, trace, program.NOOP) // WRAP: loop back to condition
		}
	default:
		return fmt.Errorf("vm: unrecognized block type %T", b)
	}
}

// walkSpan records each op's row *before* executing it (decoder fields from
// the about-to-run op, stack/accumulator as they stand going in), so a
// transition constraint comparing row i to row i+1 sees row i's opcode
// bracket exactly the effect that produced row i+1 (spec.md §4.I
// "Transition constraints"). The very next row (the next op in this span,
// or BuildTrace's trailing terminal row) always ends up holding the
// resulting post-state, since nothing else mutates s between appendRow and
// the next appendRow call.
func walkSpan(s *State, trace *TraceTable, span *program.Span) error {
	for _, op := range span.Ops() {
		trace.appendRow(uint8(op.Code), s.AccState, s.HashState, s.Snapshot())
		opValue, err := execute(s, op)
		if err != nil {
			return err
		}
		core.HashOp(&s.AccState, uint8(op.Code), opValue, s.Step)
		if op.Hint.Kind != program.HintNone {
			trace.Hints[s.Step] = HintRecord{Kind: int(op.Hint.Kind), Value: op.Hint.Value, Bits: op.Hint.Bits}
		}
		s.Step++
	}
	return nil
}

// emitFlowMarker records one boundary pseudo-step for a control-flow
// transition, tagged with opcode (BEGIN, or NOOP for the other flow
// transitions), using the same pre-state recording convention walkSpan
// uses. It does not execute any stack semantics: the block tree structure
// (not a dedicated 3-bit flow-op trace column) is what the constraint
// evaluator uses to validate nesting, a deliberate narrowing of spec.md
// §4.H's flow-op decoder documented in DESIGN.md.
func emitFlowMarker(s *State, trace *TraceTable, opcode program.Opcode) {
	trace.appendRow(uint8(opcode), s.AccState, s.HashState, s.Snapshot())
	core.HashOp(&s.AccState, uint8(opcode), core.Zero(), s.Step)
	s.Step++
}
