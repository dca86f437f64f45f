package vm

import (
	"testing"

	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/core"
)

func TestNewStatePlantsPublicInputsAtTop(t *testing.T) {
	inputs := ProgramInputs{Public: []core.Fp{core.FpFromUint64(1), core.FpFromUint64(2)}}
	s, err := NewState(inputs)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	if s.Depth() != MinStackDepth {
		t.Fatalf("initial depth = %d, want %d", s.Depth(), MinStackDepth)
	}
	if !s.Peek(0).Equal(core.FpFromUint64(1)) || !s.Peek(1).Equal(core.FpFromUint64(2)) {
		t.Error("public inputs were not planted at the top of the initial stack")
	}
}

func TestProgramInputsValidate(t *testing.T) {
	tooLong := make([]core.Fp, 9)
	if err := (ProgramInputs{Public: tooLong}).Validate(); err == nil {
		t.Error("expected an error for a public tape longer than 8")
	}
	if err := (ProgramInputs{SecretA: []core.Fp{core.One()}, SecretB: []core.Fp{core.One(), core.One()}}).Validate(); err == nil {
		t.Error("expected an error when |secret_b| > |secret_a|")
	}
	if err := (ProgramInputs{}).Validate(); err != nil {
		t.Errorf("empty inputs should validate, got %v", err)
	}
}

func TestPushPopRoundTrip(t *testing.T) {
	s, _ := NewState(ProgramInputs{})
	if err := s.Push(core.FpFromUint64(99)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if s.Depth() != MinStackDepth+1 {
		t.Fatalf("depth = %d, want %d", s.Depth(), MinStackDepth+1)
	}
	got, err := s.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if !got.Equal(core.FpFromUint64(99)) {
		t.Errorf("Pop returned %s, want 99", got.String())
	}
	if s.Depth() != MinStackDepth {
		t.Fatalf("depth after pop = %d, want %d", s.Depth(), MinStackDepth)
	}
}

func TestPopUnderflowAtMinDepth(t *testing.T) {
	s, _ := NewState(ProgramInputs{})
	if _, err := s.Pop(); err == nil {
		t.Error("expected a stack underflow error at MinStackDepth")
	}
}

func TestPushOverflowAtMaxDepth(t *testing.T) {
	s, _ := NewState(ProgramInputs{})
	for i := MinStackDepth; i < MaxStackDepth; i++ {
		if err := s.Push(core.One()); err != nil {
			t.Fatalf("unexpected push error below MaxStackDepth: %v", err)
		}
	}
	if err := s.Push(core.One()); err == nil {
		t.Error("expected a stack overflow error at MaxStackDepth")
	}
}

func TestNextSecretPairZerosExhaustedB(t *testing.T) {
	s, _ := NewState(ProgramInputs{SecretA: []core.Fp{core.FpFromUint64(1), core.FpFromUint64(2)}})
	a, b, err := s.NextSecretPair()
	if err != nil {
		t.Fatalf("NextSecretPair: %v", err)
	}
	if !a.Equal(core.FpFromUint64(1)) || !b.IsZero() {
		t.Errorf("got a=%s b=%s, want a=1 b=0", a.String(), b.String())
	}
}

func TestOutputsWindowAtMinDepth(t *testing.T) {
	s, _ := NewState(ProgramInputs{})
	for i := 0; i < MinStackDepth; i++ {
		s.Set(i, core.FpFromUint64(uint64(i)))
	}
	out := s.Outputs()
	for i := 0; i < MinStackDepth; i++ {
		if !out[i].Equal(core.FpFromUint64(uint64(i))) {
			t.Errorf("Outputs()[%d] = %s, want %d", i, out[i].String(), i)
		}
	}
}
