package stark

import (
	"fmt"

	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/core"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/fri"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/program"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/vm"
)

// Claim is the public statement a StarkProof attests to: running the
// program named by ProgramDigest on Public (plus undisclosed secret tapes)
// halts with the given Outputs (spec.md §4.H, §4.K "Claim").
type Claim struct {
	ProgramDigest core.Fp
	Public        []core.Fp
	Outputs       []core.Fp
}

// Validate enforces the shape invariants spec.md §7 (InvalidInput) call for
// before any proving or verification work begins.
func (c Claim) Validate() error {
	if len(c.Public) > vm.MinStackDepth {
		return fmt.Errorf("stark: %w: public input length %d exceeds %d", ErrInvalidInput, len(c.Public), vm.MinStackDepth)
	}
	if len(c.Outputs) != vm.MinStackDepth {
		return fmt.Errorf("stark: %w: outputs length %d must equal %d", ErrInvalidInput, len(c.Outputs), vm.MinStackDepth)
	}
	return nil
}

// TraceOpening is one query's opened trace rows: the row at the query
// position itself and the row extensionFactor steps ahead of it, the pair
// air.Constraints.EvaluateAt needs to recompute a transition constraint's
// value (spec.md §4.I, §4.K).
type TraceOpening struct {
	Row         [vm.NumColumns]core.Fp
	NextRow     [vm.NumColumns]core.Fp
	RowPath     [][32]byte
	NextRowPath [][32]byte
}

// Proof is the full wire format of an Aegis STARK proof (spec.md §6
// "StarkProof"): the claim's shape parameters, the trace and FRI
// commitments, and one TraceOpening per FRI query position (FRI's own
// Proof already carries the composition quotient's layer openings).
type Proof struct {
	TraceLength     int
	ExtensionFactor int
	TraceRoot       [32]byte
	Openings        []TraceOpening
	Fri             *fri.Proof
}

// ErrInvalidInput is the sentinel behind spec.md §7's InvalidInput error
// kind, reused here (rather than importing vm's) since Claim validation is a
// stark-level, not a vm-level, concern.
var ErrInvalidInput = fmt.Errorf("invalid input")

// ErrConstraintViolation is returned when a concrete execution fails to
// satisfy the claim it's proving (spec.md §7 "ConstraintViolation").
var ErrConstraintViolation = fmt.Errorf("constraint violation")

// ErrInvalidProof is the sentinel behind every stark-level verification
// failure that isn't more specifically a FRI failure (spec.md §7
// "InvalidProof").
var ErrInvalidProof = fmt.Errorf("invalid proof")

// programDigest is a small convenience so callers can build a Claim
// straight from a *program.Program without reaching into its internals.
func programDigest(prog *program.Program) core.Fp { return prog.Root.Hash() }
