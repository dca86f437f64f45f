package aegis

import (
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/stark"
)

// Prove runs prog against inputs and produces a STARK proof of the claim
// "running prog on these inputs halts with these outputs" (spec.md §4.K).
// The returned Claim carries the program digest, the public inputs, and the
// outputs the run actually produced; a caller that already knows the
// expected outputs should compare them against claim.Outputs before
// distributing the proof, since Prove does not itself check the run against
// any caller expectation beyond the VM's own assertions.
func Prove(prog *Program, inputs ProgramInputs, opts *ProofOptions) (*Proof, *Claim, error) {
	proof, claim, err := stark.Prove(prog, inputs, opts)
	if err != nil {
		return nil, nil, classify(err)
	}
	return proof, claim, nil
}
