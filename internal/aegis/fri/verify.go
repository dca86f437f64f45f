package fri

import (
	"fmt"

	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/core"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/utils"
)

// Verify replays the commit phase's transcript to re-derive every challenge
// and query position, then checks each opened coset against its layer's
// Merkle root and against the fold arithmetic connecting it to the next
// layer (or, for the last committed layer, to the cleartext remainder)
// (spec.md §4.D, §7 "InvalidFri").
func Verify(hasher core.Hasher, proof *Proof, domainGen core.Fp, domainSize int, opts Options, channel *utils.Channel) error {
	if !isPowerOfFour(domainSize) {
		return fmt.Errorf("fri: %w: domain size %d must be a power of four", ErrInvalidFri, domainSize)
	}

	gens := make([]core.Fp, len(proof.Roots))
	challenges := make([]core.Fp, len(proof.Roots))
	gen := domainGen
	size := domainSize
	for i, root := range proof.Roots {
		if size <= opts.MaxRemainderLength {
			return fmt.Errorf("fri: %w: layer %d committed past max remainder length", ErrInvalidFri, i)
		}
		gens[i] = gen
		channel.Commit(root[:])
		challenges[i] = channel.DrawFp()
		gen = gen.Mul(gen).Mul(gen).Mul(gen)
		size /= 4
	}
	if len(proof.Remainder) > size {
		return fmt.Errorf("fri: %w: remainder length %d exceeds final domain size %d", ErrInvalidFri, len(proof.Remainder), size)
	}
	for _, c := range proof.Remainder {
		channel.Commit(c.Bytes())
	}

	state := channel.State()
	var digest [32]byte
	hasher.Hash(&digest, state[:], utils.Uint64Bytes(proof.PowNonce))
	if leadingZeroBits(digest) < opts.GrindingFactor {
		return fmt.Errorf("fri: %w: proof-of-work nonce does not meet grinding factor %d", ErrInvalidFri, opts.GrindingFactor)
	}
	channel.Commit(utils.Uint64Bytes(proof.PowNonce))

	numQueries := opts.NumQueries
	if numQueries > domainSize {
		numQueries = domainSize
	}
	positions := channel.DrawPositions(numQueries, domainSize)
	if len(positions) != len(proof.Queries) {
		return fmt.Errorf("fri: %w: expected %d queries, got %d", ErrInvalidFri, len(positions), len(proof.Queries))
	}

	finalGen := domainGen.Exp(pow4(len(proof.Roots)))

	for qi, q := range proof.Queries {
		if q.Position != positions[qi] {
			return fmt.Errorf("fri: %w: query %d position mismatch: expected %d, got %d", ErrInvalidFri, qi, positions[qi], q.Position)
		}
		if len(q.Layers) != len(proof.Roots) {
			return fmt.Errorf("fri: %w: query %d has %d layer openings, want %d", ErrInvalidFri, qi, len(q.Layers), len(proof.Roots))
		}

		idx := q.Position
		layerSize := domainSize
		for i, opening := range q.Layers {
			m := layerSize / 4
			coset := idx % m
			leaf := hashQuartic(hasher, core.Quartic(opening.Values))
			if !core.Verify(hasher, proof.Roots[i], coset, leaf, opening.Path) {
				return fmt.Errorf("fri: %w: query %d layer %d Merkle path invalid", ErrInvalidFri, qi, i)
			}

			folded := foldQuartic(gens[i], m, coset, opening.Values, challenges[i])

			idx = coset
			layerSize = m
			if i+1 < len(q.Layers) {
				nextM := layerSize / 4
				slot := idx / nextM
				if !folded.Equal(q.Layers[i+1].Values[slot]) {
					return fmt.Errorf("fri: %w: query %d fold mismatch between layer %d and %d", ErrInvalidFri, qi, i, i+1)
				}
			} else {
				point := finalGen.Exp(uint64(idx))
				if !folded.Equal(proof.Remainder.Eval(point)) {
					return fmt.Errorf("fri: %w: query %d fold mismatch against remainder", ErrInvalidFri, qi)
				}
			}
		}
	}

	return nil
}

func pow4(n int) uint64 {
	r := uint64(1)
	for i := 0; i < n; i++ {
		r *= 4
	}
	return r
}

// foldQuartic recomputes the fold Prove's foldLayer performs for one coset:
// interpolate the four (x, value) pairs into a cubic and evaluate it at
// challenge.
func foldQuartic(gen core.Fp, m, coset int, values [4]core.Fp, challenge core.Fp) core.Fp {
	quarterRoot := gen.Exp(uint64(m))
	base := gen.Exp(uint64(coset))
	xs := [4]core.Fp{
		base,
		base.Mul(quarterRoot),
		base.Mul(quarterRoot).Mul(quarterRoot),
		base.Mul(quarterRoot).Mul(quarterRoot).Mul(quarterRoot),
	}
	polys := core.InterpolateBatch([][4]core.Fp{xs}, [][4]core.Fp{values})
	return polys[0].Eval(challenge)
}
