package stark

import (
	"fmt"

	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/air"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/core"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/fri"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/utils"
)

// Verify checks proof against claim: it replays the prover's transcript to
// re-derive every challenge, checks the FRI proof establishes the
// composition quotient is low-degree, and checks every opened trace row
// both authenticates against the committed trace root and is consistent
// with the quotient value FRI opened at the same position (spec.md §4.L).
// Verify never touches the program or the secret tapes that produced the
// trace; claim and proof are the only inputs a verifier ever needs.
func Verify(claim Claim, proof *Proof, opts *utils.ProofOptions) error {
	if opts == nil {
		opts = utils.DefaultProofOptions()
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	if err := claim.Validate(); err != nil {
		return err
	}
	if proof == nil || proof.Fri == nil {
		return fmt.Errorf("stark: %w: proof is incomplete", ErrInvalidProof)
	}
	if proof.ExtensionFactor != opts.ExtensionFactor {
		return fmt.Errorf("stark: %w: proof extension factor %d does not match options %d", ErrInvalidProof, proof.ExtensionFactor, opts.ExtensionFactor)
	}

	domainSize := proof.TraceLength * proof.ExtensionFactor

	hasher, err := core.NewHasher(opts.HashFnID)
	if err != nil {
		return fmt.Errorf("stark: %w", err)
	}

	channel := utils.NewChannel(hasher)
	commitClaim(channel, claim, proof.TraceLength)
	channel.Commit(proof.TraceRoot[:])

	constraints := air.Build(air.Claim{PublicInputs: claim.Public, Outputs: claim.Outputs, ProgramDigest: claim.ProgramDigest})
	coefficients := channel.DrawFpVector(constraints.NumConstraints())

	domainGen, err := core.GetRootOfUnity(uint64(domainSize))
	if err != nil {
		return fmt.Errorf("stark: %w: %v", ErrInvalidProof, err)
	}
	if err := fri.Verify(hasher, proof.Fri, domainGen, domainSize, friOptionsFrom(opts.NumQueries, opts.GrindingFactor), channel); err != nil {
		return fmt.Errorf("stark: %w", err)
	}

	if len(proof.Openings) != len(proof.Fri.Queries) {
		return fmt.Errorf("stark: %w: %d trace openings for %d fri queries", ErrInvalidProof, len(proof.Openings), len(proof.Fri.Queries))
	}

	lastStepIndex := constraints.LastStepIndex(domainSize, proof.ExtensionFactor)
	cosetWidth := domainSize / 4

	for i, q := range proof.Fri.Queries {
		if len(q.Layers) == 0 {
			return fmt.Errorf("stark: %w: query %d has no fri layers", ErrInvalidProof, i)
		}
		opening := proof.Openings[i]
		pos := q.Position
		nextPos := (pos + proof.ExtensionFactor) % domainSize

		rowLeaf := hashRow(hasher, opening.Row[:])
		if !core.Verify(hasher, proof.TraceRoot, pos, rowLeaf, opening.RowPath) {
			return fmt.Errorf("stark: %w: query %d trace row path invalid", ErrInvalidProof, i)
		}
		nextLeaf := hashRow(hasher, opening.NextRow[:])
		if !core.Verify(hasher, proof.TraceRoot, nextPos, nextLeaf, opening.NextRowPath) {
			return fmt.Errorf("stark: %w: query %d next trace row path invalid", ErrInvalidProof, i)
		}

		traceStep := pos / proof.ExtensionFactor
		compositionValue := constraints.EvaluateAt(opening.Row[:], opening.NextRow[:], traceStep, pos == 0, pos == lastStepIndex, coefficients)

		slot := pos / cosetWidth
		quotientValue := q.Layers[0].Values[slot]

		xPos := domainGen.Exp(uint64(pos))
		vanishing := xPos.Exp(uint64(proof.TraceLength)).Sub(core.One())
		expected := quotientValue.Mul(vanishing)

		if !expected.Equal(compositionValue) {
			return fmt.Errorf("stark: %w: query %d composition does not match opened trace rows", ErrInvalidProof, i)
		}
	}

	return nil
}
