package program

import "github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/core"

// Op is one instruction inside a Span: an opcode plus the optional
// execution hint the VM trace builder needs at that step (spec.md §3:
// "ops: sequence of (opcode, optional hint)").
type Op struct {
	Code  Opcode
	Value core.Fp // operand for PUSH/READ-style ops that carry an immediate
	Hint  Hint
}

// HintKind distinguishes the per-step side data the trace builder records
// for the verifier to consume later (spec.md §4.H "Execution hint").
type HintKind uint8

const (
	HintNone HintKind = iota
	HintPush
	HintBitDecomposition
	HintEqualityInverse
)

// Hint carries one execution-hint value. Only the field matching Kind is
// meaningful.
type Hint struct {
	Kind  HintKind
	Value core.Fp   // PUSH immediate, or equality-inverse witness
	Bits  []core.Fp // bit-decomposition witness for CMP/BINACC
}

// WithImmediate returns a PUSH-style op carrying value as both the pushed
// operand and its own hint. The trace builder pushes op.Value and records
// the hint alongside that step; it does not read the pushed value back from
// the hint.
func WithImmediate(code Opcode, value core.Fp) Op {
	return Op{Code: code, Value: value, Hint: Hint{Kind: HintPush, Value: value}}
}

// Plain returns an op with no associated hint.
func Plain(code Opcode) Op {
	return Op{Code: code}
}
