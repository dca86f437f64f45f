// Package vm walks an Aegis program's block tree and produces the tabular
// execution trace the STARK prover commits to (spec.md §3, §4.H).
package vm

import (
	"fmt"

	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/core"
)

const (
	// MinStackDepth and MaxStackDepth bound the operand stack (spec.md
	// §4.H).
	MinStackDepth = 8
	MaxStackDepth = 32
)

// ProgramInputs is the VM's external input contract (spec.md §6): one
// public tape and two secret tapes, with |public| <= 8 and |secret_a| >=
// |secret_b|.
type ProgramInputs struct {
	Public  []core.Fp
	SecretA []core.Fp
	SecretB []core.Fp
}

// Validate enforces the tape-size invariants spec.md §6 and §7
// (InvalidInput) call for.
func (in ProgramInputs) Validate() error {
	if len(in.Public) > 8 {
		return fmt.Errorf("vm: %w: public tape length %d exceeds 8", ErrInvalidInput, len(in.Public))
	}
	if len(in.SecretA) < len(in.SecretB) {
		return fmt.Errorf("vm: %w: |secret_a|=%d < |secret_b|=%d", ErrInvalidInput, len(in.SecretA), len(in.SecretB))
	}
	return nil
}

// State is the VM's mutable execution state while the trace builder walks
// the block tree (spec.md §4.H bullet list).
type State struct {
	// Operand stack: fixed MaxStackDepth slots, zero below depth. depth is
	// the number of logically meaningful slots, always in
	// [MinStackDepth, MaxStackDepth].
	stack [MaxStackDepth]core.Fp
	depth int

	// Three input cursors.
	inputs       ProgramInputs
	publicCursor int
	aCursor      int
	bCursor      int

	// Program-hash accumulator sponge (fed by HashOp at every step).
	AccState [4]core.Fp

	// In-stack Rescue sponge used by HASHR/RESCR.
	HashState [4]core.Fp

	// Step counter and nesting depth counters.
	Step         int
	LoopDepth    int
	ContextDepth int
}

// NewState builds the initial VM state: stack initialized to MinStackDepth
// zero slots with the public tape written into the low slots, matching the
// boundary constraint "initial stack equals public inputs padded with
// zeros" (spec.md §4.I).
func NewState(inputs ProgramInputs) (*State, error) {
	if err := inputs.Validate(); err != nil {
		return nil, err
	}
	s := &State{inputs: inputs, depth: MinStackDepth}
	for i, v := range inputs.Public {
		s.stack[i] = v
	}
	return s, nil
}

// Push appends a value to the top of the stack, failing if MaxStackDepth
// would be exceeded.
func (s *State) Push(v core.Fp) error {
	if s.depth >= MaxStackDepth {
		return fmt.Errorf("vm: %w: stack overflow", ErrInvalidInput)
	}
	for i := s.depth; i > 0; i-- {
		s.stack[i] = s.stack[i-1]
	}
	s.stack[0] = v
	s.depth++
	return nil
}

// Pop removes and returns the top of the stack, failing below
// MinStackDepth.
func (s *State) Pop() (core.Fp, error) {
	if s.depth <= MinStackDepth {
		return core.Zero(), fmt.Errorf("vm: %w: stack underflow", ErrInvalidInput)
	}
	v := s.stack[0]
	for i := 0; i < s.depth-1; i++ {
		s.stack[i] = s.stack[i+1]
	}
	s.stack[s.depth-1] = core.Zero()
	s.depth--
	return v, nil
}

// Peek returns the value i slots from the top without popping.
func (s *State) Peek(i int) core.Fp {
	if i < 0 || i >= MaxStackDepth {
		return core.Zero()
	}
	return s.stack[i]
}

// Set overwrites the value i slots from the top.
func (s *State) Set(i int, v core.Fp) { s.stack[i] = v }

// Depth returns the current logical stack depth.
func (s *State) Depth() int { return s.depth }

// Snapshot copies the full MaxStackDepth-wide register window, used to
// append one trace row.
func (s *State) Snapshot() [MaxStackDepth]core.Fp { return s.stack }

// NextPublic advances the public input cursor.
func (s *State) NextPublic() (core.Fp, error) {
	if s.publicCursor >= len(s.inputs.Public) {
		return core.Zero(), fmt.Errorf("vm: %w: public tape exhausted", ErrInvalidInput)
	}
	v := s.inputs.Public[s.publicCursor]
	s.publicCursor++
	return v, nil
}

// NextSecretPair advances both secret cursors, returning (a, b); b is zero
// once B's tape is exhausted (|secret_a| >= |secret_b| is the only
// invariant, A need not be exhausted in lockstep with B).
func (s *State) NextSecretPair() (core.Fp, core.Fp, error) {
	if s.aCursor >= len(s.inputs.SecretA) {
		return core.Zero(), core.Zero(), fmt.Errorf("vm: %w: secret tape A exhausted", ErrInvalidInput)
	}
	a := s.inputs.SecretA[s.aCursor]
	s.aCursor++
	b := core.Zero()
	if s.bCursor < len(s.inputs.SecretB) {
		b = s.inputs.SecretB[s.bCursor]
		s.bCursor++
	}
	return a, b, nil
}

// Outputs returns the final stack's output window: the top MinStackDepth
// registers of the stack snapshot, read by fixed array position rather than
// relative to depth (spec.md §4.H: "copies the final stack state into the
// outputs window"). air.Constraints' Terminal output constraints check a
// committed trace row's top MinStackDepth columns against exactly this
// slice; a fixed-width polynomial constraint has no way to track a
// moving, depth-relative window, so a program that halts deeper than
// MinStackDepth (accumulated scratch values still sitting above its real
// result) needs to assert its own result in-program rather than relying on
// Outputs to surface it.
func (s *State) Outputs() []core.Fp {
	out := make([]core.Fp, MinStackDepth)
	copy(out, s.stack[:MinStackDepth])
	return out
}
