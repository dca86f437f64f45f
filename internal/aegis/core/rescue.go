package core

import (
	"math/big"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// Rescue state/cycle parameters (spec.md §4.E). A single ARK table indexed
// mod cycleLength serves both the generic sponge and the program-hash
// accumulator, since hash_op and hash_acc cycle through the same 16 rounds
// at different offsets.
const (
	stateWidth     = 4
	cycleLength    = 16
	accNumRounds   = 14
	accRoundOffset = 1
	sboxAlpha      = 3
)

// ark holds, for each of the cycleLength round positions, the additive
// round constants for the forward half (indices [0:stateWidth]) and the
// inverse half (indices [stateWidth:2*stateWidth]).
var ark = func() [cycleLength][2 * stateWidth]Fp {
	seed := sha3.Sum256([]byte("aegis-stark-vm/rescue/ark/v1"))
	flat := PRNGFill(seed, cycleLength*2*stateWidth)
	var out [cycleLength][2 * stateWidth]Fp
	for i := range out {
		copy(out[i][:], flat[i*2*stateWidth:(i+1)*2*stateWidth])
	}
	return out
}()

// mds is the state-mixing matrix. It is built as a Cauchy matrix
// M[i][j] = 1/(x_i + y_j) with disjoint x/y families, which is always
// maximum-distance-separable and needs no trial-and-error search.
var mds = func() [stateWidth][stateWidth]Fp {
	var m [stateWidth][stateWidth]Fp
	for i := 0; i < stateWidth; i++ {
		x := FpFromUint64(uint64(i + 1))
		for j := 0; j < stateWidth; j++ {
			y := FpFromUint64(uint64(j + stateWidth + 1))
			m[i][j] = x.Add(y).Inv()
		}
	}
	return m
}()

// invAlphaExponent is the inverse of sboxAlpha modulo p-1, so that
// x -> x^invAlphaExponent undoes x -> x^sboxAlpha across the whole field.
var invAlphaExponent = func() *uint256.Int {
	pMinus1 := new(big.Int).Sub(Modulus().ToBig(), big.NewInt(1))
	inv := new(big.Int).ModInverse(big.NewInt(sboxAlpha), pMinus1)
	if inv == nil {
		panic("core: sbox exponent has no inverse mod p-1")
	}
	e, overflow := uint256.FromBig(inv)
	if overflow {
		panic("core: inverse sbox exponent overflowed 256 bits")
	}
	return e
}()

func sbox(x Fp) Fp { return x.Mul(x).Mul(x) }

func invSbox(x Fp) Fp { return x.ExpBig(invAlphaExponent) }

func applyMDS(state *[stateWidth]Fp) {
	var out [stateWidth]Fp
	for i := 0; i < stateWidth; i++ {
		acc := Zero()
		for j := 0; j < stateWidth; j++ {
			acc = acc.Add(mds[i][j].Mul(state[j]))
		}
		out[i] = acc
	}
	*state = out
}

// permuteRound applies one full Rescue round (forward half then inverse
// half) at the given cycle position (spec.md §4.E).
func permuteRound(state *[stateWidth]Fp, cyclePos int) {
	constants := ark[cyclePos%cycleLength]

	for i := 0; i < stateWidth; i++ {
		state[i] = state[i].Add(constants[i])
	}
	for i := 0; i < stateWidth; i++ {
		state[i] = sbox(state[i])
	}
	applyMDS(state)

	for i := 0; i < stateWidth; i++ {
		state[i] = state[i].Add(constants[stateWidth+i])
	}
	for i := 0; i < stateWidth; i++ {
		state[i] = invSbox(state[i])
	}
	applyMDS(state)
}

// RescuePermute runs the full cycleLength-round Rescue permutation over
// state in place. It is the permutation behind sponge Hash mode.
func RescuePermute(state *[stateWidth]Fp) {
	for cyclePos := 0; cyclePos < cycleLength; cyclePos++ {
		permuteRound(state, cyclePos)
	}
}

// RescueHash absorbs inputs in width-4 blocks (zero-padding the final
// partial block) and squeezes a 2-element, 256-bit digest (spec.md §4.E).
func RescueHash(inputs []Fp) [2]Fp {
	var state [stateWidth]Fp
	for i := 0; i < len(inputs); i += stateWidth {
		end := i + stateWidth
		if end > len(inputs) {
			end = len(inputs)
		}
		for j, v := range inputs[i:end] {
			state[j] = state[j].Add(v)
		}
		RescuePermute(&state)
	}
	if len(inputs) == 0 {
		RescuePermute(&state)
	}
	return [2]Fp{state[0], state[1]}
}

// HashOp injects one VM step's opcode and operand value into the running
// program-hash accumulator state with a single Rescue round at cycle
// position step mod cycleLength (spec.md §4.E, grounded on the original
// hash_op: add_constants/sbox/mds, then state[0]+=opcode, state[1]*=value,
// then add_constants/inv_sbox/mds).
func HashOp(state *[stateWidth]Fp, opcode uint8, opValue Fp, step int) {
	HashOpField(state, FpFromUint64(uint64(opcode)), opValue, step)
}

// HashOpField is HashOp with the opcode already carried as a field element
// rather than a raw uint8. The constraint evaluator reads an opcode back off
// the decoder's bit columns as an Fp (already bound to the real opcode by
// the decoder's own consistency constraints) and has no reason to round-trip
// it through an integer, so it calls this directly instead of HashOp.
func HashOpField(state *[stateWidth]Fp, opcode Fp, opValue Fp, step int) {
	cyclePos := step % cycleLength
	constants := ark[cyclePos]

	for i := 0; i < stateWidth; i++ {
		state[i] = state[i].Add(constants[i])
	}
	for i := 0; i < stateWidth; i++ {
		state[i] = sbox(state[i])
	}
	applyMDS(state)

	state[0] = state[0].Add(opcode)
	state[1] = state[1].Mul(opValue)

	for i := 0; i < stateWidth; i++ {
		state[i] = state[i].Add(constants[stateWidth+i])
	}
	for i := 0; i < stateWidth; i++ {
		state[i] = invSbox(state[i])
	}
	applyMDS(state)
}

// HashAcc folds a block's own hash h together with two sibling/parent
// digests v0, v1 into the parent's rolling digest across accNumRounds
// rounds starting at accRoundOffset (spec.md §4.E).
func HashAcc(h, v0, v1 Fp) [stateWidth]Fp {
	state := [stateWidth]Fp{h, v0, v1, Zero()}
	for cyclePos := accRoundOffset; cyclePos < accRoundOffset+accNumRounds; cyclePos++ {
		permuteRound(&state, cyclePos)
	}
	return state
}
