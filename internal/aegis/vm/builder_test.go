package vm

import (
	"testing"

	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/core"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/program"
)

func TestBuildTraceSimpleArithmetic(t *testing.T) {
	span := program.NewSpan(
		program.WithImmediate(program.PUSH, core.FpFromUint64(3)),
		program.WithImmediate(program.PUSH, core.FpFromUint64(4)),
		program.Plain(program.ADD),
	)
	prog := program.NewProgram(span)

	trace, state, err := BuildTrace(prog, ProgramInputs{})
	if err != nil {
		t.Fatalf("BuildTrace: %v", err)
	}
	if trace.Length == 0 || trace.Length&(trace.Length-1) != 0 {
		t.Fatalf("trace length %d is not a power of two", trace.Length)
	}
	// +1: BuildTrace appends one trailing row holding the true post-execution
	// state, beyond the one row per op walkSpan records.
	if want := len(span.Ops()) + 1; trace.Steps != want {
		t.Fatalf("Steps = %d, want %d", trace.Steps, want)
	}
	if state.Depth() != MinStackDepth+1 {
		t.Fatalf("final depth = %d, want %d", state.Depth(), MinStackDepth+1)
	}
	if got := state.Peek(0); !got.Equal(core.FpFromUint64(7)) {
		t.Errorf("top of stack = %s, want 7", got.String())
	}
}

func TestBuildTracePadsRepeatedRows(t *testing.T) {
	// PUSH,PUSH gives ADD the two full slots of headroom above MinStackDepth
	// its two sequential Pops require; DROP's single pop then only needs one.
	span := program.NewSpan(
		program.WithImmediate(program.PUSH, core.FpFromUint64(1)),
		program.WithImmediate(program.PUSH, core.FpFromUint64(2)),
		program.Plain(program.ADD),
		program.Plain(program.DROP),
	)
	prog := program.NewProgram(span)

	trace, _, err := BuildTrace(prog, ProgramInputs{})
	if err != nil {
		t.Fatalf("BuildTrace: %v", err)
	}
	for col := 0; col < NumColumns; col++ {
		if len(trace.Columns[col]) != trace.Length {
			t.Fatalf("column %d has %d rows, want %d", col, len(trace.Columns[col]), trace.Length)
		}
	}
	lastOpcode := trace.Columns[ColOpcode][trace.Length-1]
	if !lastOpcode.Equal(core.FpFromUint64(uint64(program.NOOP))) {
		t.Errorf("padding row opcode = %s, want NOOP(%d)", lastOpcode.String(), program.NOOP)
	}
}

// switchFixture builds a program whose prefix Span pushes (bottom to top)
// 5, 3, cond, giving Switch's single condition Pop (depth 11 -> 10) and the
// chosen branch's two-sequential-pop ADD/MUL (depth 10 -> 9 -> 8) both
// headroom above MinStackDepth, landing back at MinStackDepth+1 with the
// branch's result on top.
func switchFixture(cond uint64) *program.Program {
	prefix := program.NewSpan(
		program.WithImmediate(program.PUSH, core.FpFromUint64(5)),
		program.WithImmediate(program.PUSH, core.FpFromUint64(3)),
		program.WithImmediate(program.PUSH, core.FpFromUint64(cond)),
	)
	trueBranch := []program.Block{program.NewSpan(program.Plain(program.ADD))}
	falseBranch := []program.Block{program.NewSpan(program.Plain(program.MUL))}
	sw := program.NewSwitch(trueBranch, falseBranch)
	return program.NewProgram(prefix, sw)
}

func TestBuildTraceSwitchPicksTrueBranch(t *testing.T) {
	prog := switchFixture(1)
	_, state, err := BuildTrace(prog, ProgramInputs{})
	if err != nil {
		t.Fatalf("BuildTrace: %v", err)
	}
	if got := state.Peek(0); !got.Equal(core.FpFromUint64(8)) {
		t.Errorf("switch(true) result = %s, want 8 (3+5)", got.String())
	}
}

func TestBuildTraceSwitchPicksFalseBranch(t *testing.T) {
	prog := switchFixture(0)
	_, state, err := BuildTrace(prog, ProgramInputs{})
	if err != nil {
		t.Fatalf("BuildTrace: %v", err)
	}
	if got := state.Peek(0); !got.Equal(core.FpFromUint64(15)) {
		t.Errorf("switch(false) result = %s, want 15 (3*5)", got.String())
	}
}

func TestBuildTraceRejectsNonBinarySwitchCondition(t *testing.T) {
	prog := switchFixture(2)
	if _, _, err := BuildTrace(prog, ProgramInputs{}); err == nil {
		t.Error("expected an error for a non-binary switch condition")
	}
}

// A Switch's fold combines both branch hashes regardless of which one ran;
// the trace builder has to reproduce that exact combine (not a plain
// sequential walk) or the terminal digest check can never pass for any
// program containing a Switch.
func TestBuildTraceAccumulatorMatchesDigestThroughSwitch(t *testing.T) {
	for _, cond := range []uint64{0, 1} {
		prog := switchFixture(cond)
		_, state, err := BuildTrace(prog, ProgramInputs{})
		if err != nil {
			t.Fatalf("cond=%d: BuildTrace: %v", cond, err)
		}
		want := prog.Root.Hash()
		if got := state.AccState[0]; !got.Equal(want) {
			t.Errorf("cond=%d: final accumulator = %s, want program digest %s", cond, got.String(), want.String())
		}
	}
}

// groupFixture wraps a single arithmetic Span inside an explicit Group, so
// the root body's last (and only) block is not itself a Span, exercising
// BuildTrace's trailing boundary fold alongside Group's own HashAcc combine.
func groupFixture() *program.Program {
	inner := program.NewSpan(
		program.WithImmediate(program.PUSH, core.FpFromUint64(2)),
		program.WithImmediate(program.PUSH, core.FpFromUint64(5)),
		program.Plain(program.ADD),
	)
	return program.NewProgram(program.NewGroup(inner))
}

func TestBuildTraceAccumulatorMatchesDigestThroughGroup(t *testing.T) {
	prog := groupFixture()
	_, state, err := BuildTrace(prog, ProgramInputs{})
	if err != nil {
		t.Fatalf("BuildTrace: %v", err)
	}
	want := prog.Root.Hash()
	if got := state.AccState[0]; !got.Equal(want) {
		t.Errorf("final accumulator = %s, want program digest %s", got.String(), want.String())
	}
}
