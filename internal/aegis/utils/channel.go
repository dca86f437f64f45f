// Package utils holds the cross-cutting pieces the prover and verifier both
// need: the Fiat-Shamir transcript and the proof-wide options config, both
// parameterized over the Hasher dispatch spec.md §9 calls for
// (sha3/blake3/rescue).
package utils

import (
	"encoding/binary"
	"math/big"

	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/core"
)

// Channel is a Fiat-Shamir transcript: committed data updates a running
// state, and challenges are derived deterministically from that state.
// Commits are absorbed strictly in call order, so every challenge depends on
// everything committed before it, in that order; committing the same data
// in a different order yields different challenges (spec.md §5 "Ordering
// guarantees").
type Channel struct {
	hasher core.Hasher
	state  [32]byte
}

// NewChannel starts a transcript over hasher.
func NewChannel(hasher core.Hasher) *Channel {
	return &Channel{hasher: hasher}
}

// Commit folds data into the transcript state.
func (c *Channel) Commit(data ...[]byte) {
	parts := append([][]byte{c.state[:]}, data...)
	var next [32]byte
	c.hasher.Hash(&next, parts...)
	c.state = next
}

// State returns the transcript's current 32-byte state.
func (c *Channel) State() [32]byte { return c.state }

// DrawFp derives one field element deterministically from the transcript,
// advancing the state so the next draw differs.
func (c *Channel) DrawFp() core.Fp {
	var digest [32]byte
	c.hasher.Hash(&digest, c.state[:], []byte("fp"))
	c.state = digest
	var buf [16]byte
	copy(buf[:], digest[:16])
	return core.FpFromBytes(buf)
}

// DrawFpVector draws n field elements.
func (c *Channel) DrawFpVector(n int) []core.Fp {
	out := make([]core.Fp, n)
	for i := range out {
		out[i] = c.DrawFp()
	}
	return out
}

// DrawInt derives a uniform integer in [0, max) from the transcript (used
// to pick FRI query positions).
func (c *Channel) DrawInt(max uint64) uint64 {
	var digest [32]byte
	c.hasher.Hash(&digest, c.state[:], []byte("int"))
	c.state = digest
	v := new(big.Int).SetBytes(digest[:])
	m := new(big.Int).SetUint64(max)
	return new(big.Int).Mod(v, m).Uint64()
}

// DrawPositions derives count distinct query positions in [0, domainSize).
func (c *Channel) DrawPositions(count, domainSize int) []int {
	seen := make(map[int]bool, count)
	out := make([]int, 0, count)
	for len(out) < count && len(out) < domainSize {
		p := int(c.DrawInt(uint64(domainSize)))
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// Uint64Bytes big-endian encodes v, used when committing integers (trace
// length, step counts, PoW nonces) into the transcript.
func Uint64Bytes(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}
