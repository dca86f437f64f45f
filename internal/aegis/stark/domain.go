// Package stark orchestrates the prover and verifier: build the execution
// trace, low-degree extend and Merkle-commit it, arithmetize it via the air
// package's constraint set, run FRI over the resulting quotient, and open
// both the trace and the FRI codeword at the sampled query positions
// (spec.md §4.K, §4.L). The pipeline stages in the conventional STARK order
// (deriveDomains -> commit trace -> sample challenges -> compute quotients
// -> commit quotients -> run FRI -> package proof), adapted to spec.md's
// padded-trace model and the quartic FRI engine the fri package implements.
package stark

import "github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/fri"

// log2 returns the base-2 logarithm of n, which must be an exact power of
// two; callers establish that invariant before calling.
func log2(n int) int {
	d := 0
	for n > 1 {
		n >>= 1
		d++
	}
	return d
}

// ldeDomainSize picks the smallest LDE domain size >= traceLength*extensionFactor
// that quartic FRI folding can fold all the way down: a power of two whose
// log2 is even (spec.md §4.D). traceLength and extensionFactor are both
// already powers of two, so their product is too; only the parity of the
// combined exponent can be wrong, in which case traceLength is doubled once
// (never extensionFactor, which spec.md §6 constrains to a fixed menu of
// values the caller chose deliberately).
func ldeDomainSize(traceLength, extensionFactor int) (domainSize, adjustedTraceLength int) {
	exponent := log2(traceLength) + log2(extensionFactor)
	if exponent%2 != 0 {
		traceLength *= 2
		exponent++
	}
	return traceLength * extensionFactor, traceLength
}

// friOptionsFrom maps a proof-wide option set onto the FRI layer's own options,
// which only needs the three parameters it actually consumes.
func friOptionsFrom(numQueries, grindingFactor int) fri.Options {
	return fri.Options{MaxRemainderLength: 16, NumQueries: numQueries, GrindingFactor: grindingFactor}
}
