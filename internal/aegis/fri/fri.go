// Package fri implements the Fast Reed-Solomon IOP of Proximity with a
// folding factor of four (spec.md §4.D): each round groups the evaluation
// vector into degree-3 polynomials over one coset of four points, folds them
// down to one value per coset via a Fiat-Shamir challenge, and repeats until
// the remaining codeword is short enough to send in the clear. Layer
// structure (a Merkle-committed codeword per round, committed roots
// threaded through a transcript, a query phase with per-position openings)
// follows the standard round-based FRI protocol, adapted from pairwise
// (factor-2) folding to the quartic engine core/quartic.go implements.
package fri

import (
	"fmt"

	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/core"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/utils"
)

// Options configures one FRI run (spec.md §6 "Proof options").
type Options struct {
	MaxRemainderLength int
	NumQueries         int
	GrindingFactor     int
}

// LayerOpening is one query's opened coset at one layer: the four values
// folded that round, plus the Merkle path proving they're the committed
// leaf at the coset's index.
type LayerOpening struct {
	Values [4]core.Fp
	Path   [][32]byte
}

// QueryProof is one query position's openings across every folded layer.
type QueryProof struct {
	Position int
	Layers   []LayerOpening
}

// Proof is the full FRI transcript: one Merkle root per folding round, the
// cleartext remainder codeword's coefficients, the grinding nonce, and the
// opened query positions (spec.md §4.D, §6).
type Proof struct {
	Roots     [][32]byte
	Remainder core.Polynomial
	PowNonce  uint64
	Queries   []QueryProof
}

// ErrInvalidFri is the sentinel behind every FRI-specific verification
// failure (spec.md §7 "InvalidFri").
var ErrInvalidFri = fmt.Errorf("invalid FRI proof")

// DefaultOptions mirrors utils.DefaultProofOptions' numeric choices, scoped
// to the parameters the FRI layer itself consumes.
func DefaultOptions() Options {
	return Options{MaxRemainderLength: 16, NumQueries: 32, GrindingFactor: 16}
}

// Prove runs the full commit phase followed by the query phase over
// evaluations, a vector of length a power of four on the multiplicative
// subgroup generated by domainGen.
func Prove(hasher core.Hasher, evaluations []core.Fp, domainGen core.Fp, opts Options, channel *utils.Channel) (*Proof, error) {
	n := len(evaluations)
	if !isPowerOfFour(n) {
		return nil, fmt.Errorf("fri: domain size %d must be a power of four (quartic folding requires even log2)", n)
	}

	var roots [][32]byte
	var trees []*core.MerkleTree
	var codewords [][]core.Fp

	cur := append([]core.Fp{}, evaluations...)
	gen := domainGen
	for len(cur) > opts.MaxRemainderLength {
		codewords = append(codewords, cur)

		m := len(cur) / 4
		quartics := core.Transpose(cur, 1)
		leaves := make([][32]byte, m)
		for i, q := range quartics {
			leaves[i] = hashQuartic(hasher, q)
		}
		tree, err := core.NewMerkleTree(hasher, leaves)
		if err != nil {
			return nil, fmt.Errorf("fri: commit layer: %w", err)
		}
		trees = append(trees, tree)
		root := tree.Root()
		roots = append(roots, root)
		channel.Commit(root[:])

		challenge := channel.DrawFp()
		next, nextGen, err := foldLayer(cur, gen, quartics, challenge)
		if err != nil {
			return nil, err
		}
		cur = next
		gen = nextGen
	}

	remainder, err := core.InterpolateFFT(cur)
	if err != nil {
		return nil, fmt.Errorf("fri: interpolate remainder: %w", err)
	}
	for _, c := range remainder {
		channel.Commit(c.Bytes())
	}

	nonce := grind(hasher, channel, opts.GrindingFactor)
	channel.Commit(utils.Uint64Bytes(nonce))

	numQueries := opts.NumQueries
	if numQueries > n {
		numQueries = n
	}
	positions := channel.DrawPositions(numQueries, n)

	queries := make([]QueryProof, len(positions))
	for qi, pos := range positions {
		q := QueryProof{Position: pos}
		idx := pos
		for layer := range codewords {
			domainSize := len(codewords[layer])
			coset := idx % (domainSize / 4)
			quartic := core.Transpose(codewords[layer], 1)[coset]
			path, err := trees[layer].Prove(coset)
			if err != nil {
				return nil, fmt.Errorf("fri: prove layer %d: %w", layer, err)
			}
			q.Layers = append(q.Layers, LayerOpening{Values: quartic, Path: path})
			idx = coset
		}
		queries[qi] = q
	}

	return &Proof{Roots: roots, Remainder: remainder, PowNonce: nonce, Queries: queries}, nil
}

// foldLayer interpolates each of codeword's cosets (grouped the same way
// core.Transpose groups them: index j with j+m, j+2m, j+3m where m =
// len(codeword)/4) into a cubic and evaluates it at challenge, producing
// the next, quarter-sized codeword (spec.md §4.D).
func foldLayer(codeword []core.Fp, gen core.Fp, quartics []core.Quartic, challenge core.Fp) ([]core.Fp, core.Fp, error) {
	m := len(codeword) / 4
	quarterRoot := gen.Exp(uint64(m))

	xs := make([][4]core.Fp, m)
	base := core.One()
	for j := 0; j < m; j++ {
		xs[j] = [4]core.Fp{
			base,
			base.Mul(quarterRoot),
			base.Mul(quarterRoot).Mul(quarterRoot),
			base.Mul(quarterRoot).Mul(quarterRoot).Mul(quarterRoot),
		}
		base = base.Mul(gen)
	}

	ys := make([][4]core.Fp, m)
	for j, q := range quartics {
		ys[j] = [4]core.Fp(q)
	}

	polys := core.InterpolateBatch(xs, ys)
	next := make([]core.Fp, m)
	for j, p := range polys {
		next[j] = p.Eval(challenge)
	}
	return next, gen.Mul(gen).Mul(gen).Mul(gen), nil
}

func hashQuartic(hasher core.Hasher, q core.Quartic) [32]byte {
	var buf []byte
	for _, v := range q {
		b := v.Bytes()
		buf = append(buf, b[:]...)
	}
	var out [32]byte
	hasher.Hash(&out, buf)
	return out
}

// grind finds the smallest nonce such that hashing the transcript's current
// state with that nonce appended yields a digest whose top bits bits are
// all zero, a grinding-style proof of work gating query-position derivation
// (spec.md §4.D "Proof-of-work grinding").
func grind(hasher core.Hasher, channel *utils.Channel, bits int) uint64 {
	if bits <= 0 {
		return 0
	}
	state := channel.State()
	for nonce := uint64(0); ; nonce++ {
		var digest [32]byte
		hasher.Hash(&digest, state[:], utils.Uint64Bytes(nonce))
		if leadingZeroBits(digest) >= bits {
			return nonce
		}
	}
}

// isPowerOfFour reports whether n is 4^k for some k >= 0: quartic folding
// needs domainSize to divide evenly by 4 every round down to the remainder,
// which a power-of-two domain only guarantees when log2(n) is even.
func isPowerOfFour(n int) bool {
	if n <= 0 || n&(n-1) != 0 {
		return false
	}
	return trailingZeroBitsInt(n)%2 == 0
}

func trailingZeroBitsInt(n int) int {
	count := 0
	for n&1 == 0 {
		n >>= 1
		count++
	}
	return count
}

func leadingZeroBits(digest [32]byte) int {
	count := 0
	for _, b := range digest {
		if b == 0 {
			count += 8
			continue
		}
		for shift := 7; shift >= 0; shift-- {
			if (b>>uint(shift))&1 != 0 {
				return count
			}
			count++
		}
	}
	return count
}
