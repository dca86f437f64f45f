package aegis

import (
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/core"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/program"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/stark"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/utils"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/vm"
)

// FieldElement is the prime field Aegis programs and proofs are defined over
// (spec.md §2).
type FieldElement = core.Fp

// Program is a compiled Aegis program: a block tree of Span/Group/Switch/Loop
// nodes whose root digest is the program's identity (spec.md §3, §4.G).
type Program = program.Program

// ProgramInputs is the VM's three-tape input contract: one public tape and
// two secret tapes (spec.md §6).
type ProgramInputs = vm.ProgramInputs

// Claim is the public statement a Proof attests to (spec.md §4.K).
type Claim = stark.Claim

// Proof is an Aegis STARK proof in its wire format (spec.md §6 "StarkProof").
type Proof = stark.Proof

// ProofOptions configures the prover and verifier: LDE blowup, FRI query
// count, proof-of-work grinding factor, and hash function choice (spec.md
// §6 "Proof options").
type ProofOptions = utils.ProofOptions

// DefaultProofOptions returns the conservative, always-valid option set
// (spec.md §6): extension factor 32, 32 queries, grinding factor 16,
// blake3.
func DefaultProofOptions() *ProofOptions { return utils.DefaultProofOptions() }

// NewProgram wraps a root body of blocks into a Program, the same shape an
// external assembler targeting Aegis would produce (spec.md §3). Every Span
// within body is checked for cycle alignment before the program is
// returned, classifying the (otherwise unrecoverable) structural mistake as
// an assembly-stage error rather than letting it surface later as a
// confusing trace-build or proof failure.
func NewProgram(body ...program.Block) (*Program, error) {
	if err := checkAlignment(body); err != nil {
		return nil, err
	}
	return program.NewProgram(body...), nil
}

func checkAlignment(body []program.Block) error {
	for _, b := range body {
		switch blk := b.(type) {
		case *program.Span:
			if err := program.ValidateSpanAlignment(blk); err != nil {
				return assemblyError(0, "span is not cycle-aligned", err)
			}
		case *program.Group:
			if err := checkAlignment(blk.Body()); err != nil {
				return err
			}
		case *program.Switch:
			if err := checkAlignment(blk.TrueBranch()); err != nil {
				return err
			}
			if err := checkAlignment(blk.FalseBranch()); err != nil {
				return err
			}
		case *program.Loop:
			if err := checkAlignment(blk.Body()); err != nil {
				return err
			}
		}
	}
	return nil
}
