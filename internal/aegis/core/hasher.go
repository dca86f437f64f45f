package core

import (
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"
)

// Hasher is the polymorphism point spec.md §9 calls for: a single capability
// threaded explicitly through the Merkle tree, the Fiat-Shamir channel and
// FRI, selected once at proof setup rather than dispatched through an
// interface hierarchy (spec.md §9 "Polymorphism").
type Hasher interface {
	// Hash writes the digest of parts, concatenated in order, into dst.
	Hash(dst *[32]byte, parts ...[]byte)
}

// NewHasher resolves a hash_fn_id (spec.md §6) to a concrete Hasher.
func NewHasher(id string) (Hasher, error) {
	switch id {
	case "sha3":
		return sha3Hasher{}, nil
	case "blake3":
		return blake3Hasher{}, nil
	case "rescue":
		return rescueHasher{}, nil
	default:
		return nil, &UnknownHashFnError{ID: id}
	}
}

// UnknownHashFnError reports an unrecognized hash_fn_id.
type UnknownHashFnError struct{ ID string }

func (e *UnknownHashFnError) Error() string {
	return "core: unknown hash_fn_id " + e.ID
}

type sha3Hasher struct{}

func (sha3Hasher) Hash(dst *[32]byte, parts ...[]byte) {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	h.Sum(dst[:0])
}

type blake3Hasher struct{}

func (blake3Hasher) Hash(dst *[32]byte, parts ...[]byte) {
	h := blake3.New()
	for _, p := range parts {
		h.Write(p)
	}
	sum := h.Sum(nil)
	copy(dst[:], sum)
}

// rescueHasher exposes the field-native Rescue sponge (§4.E) behind the same
// byte-oriented Hasher interface the two general-purpose hashes use: input
// bytes are packed into field elements 16 bytes at a time (zero-padding the
// final chunk) and the two-element digest is serialized back to 32 bytes.
type rescueHasher struct{}

func (rescueHasher) Hash(dst *[32]byte, parts ...[]byte) {
	var flat []byte
	for _, p := range parts {
		flat = append(flat, p...)
	}
	var elems []Fp
	for i := 0; i < len(flat); i += 16 {
		var chunk [16]byte
		end := i + 16
		if end > len(flat) {
			end = len(flat)
		}
		copy(chunk[:], flat[i:end])
		elems = append(elems, FpFromBytes(chunk))
	}
	digest := RescueHash(elems)
	d0 := digest[0].Bytes()
	d1 := digest[1].Bytes()
	copy(dst[0:16], d0[:])
	copy(dst[16:32], d1[:])
}
