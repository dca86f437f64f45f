package program

import "testing"

func TestNewSpanPadsToCycleLength(t *testing.T) {
	s := NewSpan(Plain(ADD), Plain(MUL))
	if len(s.Ops())%cycleLength != 0 {
		t.Fatalf("span length %d is not a multiple of %d", len(s.Ops()), cycleLength)
	}
	if err := ValidateSpanAlignment(s); err != nil {
		t.Errorf("ValidateSpanAlignment: %v", err)
	}
}

func TestNewSpanEmptyIsOneNoopCycle(t *testing.T) {
	s := NewSpan()
	if len(s.Ops()) != cycleLength {
		t.Fatalf("empty span has %d ops, want %d", len(s.Ops()), cycleLength)
	}
	for _, op := range s.Ops() {
		if op.Code != NOOP {
			t.Fatalf("empty span should be all NOOP, found %s", op.Code)
		}
	}
}

func TestNewSpanExactlyOneCycleOfRealOps(t *testing.T) {
	ops := make([]Op, cycleLength-1)
	for i := range ops {
		ops[i] = Plain(ADD)
	}
	s := NewSpan(ops...)
	if len(s.Ops()) != cycleLength {
		t.Fatalf("got %d ops, want exactly one cycle (%d)", len(s.Ops()), cycleLength)
	}
	if s.Ops()[cycleLength-1].Code != NOOP {
		t.Error("last op of a full cycle must be NOOP")
	}
}

func TestValidateSpanAlignmentRejectsMisplacedNoop(t *testing.T) {
	s := NewSpan(Plain(ADD))
	// Corrupt the cycle-terminating NOOP directly to exercise the validator.
	s.ops[cycleLength-1] = Plain(ADD)
	if err := ValidateSpanAlignment(s); err == nil {
		t.Error("expected an alignment error after corrupting the terminating NOOP")
	}
}

func TestBlockHashesAreDeterministic(t *testing.T) {
	a := NewSpan(Plain(ADD), Plain(MUL))
	b := NewSpan(Plain(ADD), Plain(MUL))
	if !a.Hash().Equal(b.Hash()) {
		t.Error("identical spans should hash identically")
	}
	c := NewSpan(Plain(MUL), Plain(ADD))
	if a.Hash().Equal(c.Hash()) {
		t.Error("spans with a different op order should hash differently")
	}
}

func TestSwitchCachesBothBranchHashes(t *testing.T) {
	trueBranch := []Block{NewSpan(Plain(ADD))}
	falseBranch := []Block{NewSpan(Plain(MUL))}
	sw := NewSwitch(trueBranch, falseBranch)

	wantTrue := blockSeq(trueBranch)
	wantFalse := blockSeq(falseBranch)
	if !sw.TrueHash().Equal(wantTrue) {
		t.Error("Switch.TrueHash does not match blockSeq(trueBranch)")
	}
	if !sw.FalseHash().Equal(wantFalse) {
		t.Error("Switch.FalseHash does not match blockSeq(falseBranch)")
	}
	if sw.TrueHash().Equal(sw.FalseHash()) {
		t.Error("distinct branches produced the same hash")
	}
}

func TestLoopSkipHashIsEmptyBodyHash(t *testing.T) {
	l := NewLoop(NewSpan(Plain(ADD)))
	if !l.SkipHash().Equal(blockSeq(nil)) {
		t.Error("Loop.SkipHash should equal the empty-body digest")
	}
}

func TestProgramDigestIsRootGroupHash(t *testing.T) {
	body := NewSpan(Plain(ADD), Plain(MUL))
	prog := NewProgram(body)
	if prog.Digest() != prog.Root.Hash().Bytes() {
		t.Error("Program.Digest should be the root Group's hash bytes")
	}
}
