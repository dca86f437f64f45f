package aegis

import (
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/stark"
)

// Verify checks proof against claim, returning nil only if the proof
// genuinely establishes the claim under opts (spec.md §4.L). Verify never
// needs the program or the secret tapes that produced the trace; claim and
// proof are the only inputs it touches.
func Verify(claim Claim, proof *Proof, opts *ProofOptions) error {
	if err := stark.Verify(claim, proof, opts); err != nil {
		return classify(err)
	}
	return nil
}
