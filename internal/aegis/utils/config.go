package utils

import "fmt"

// ProofOptions is the proof-wide parameter set spec.md §6 names: extension
// factor, query count, grinding factor and hash function choice, built as a
// fluent config object.
type ProofOptions struct {
	ExtensionFactor int
	NumQueries      int
	GrindingFactor  int
	HashFnID        string
}

// DefaultProofOptions returns a conservative, always-valid option set.
func DefaultProofOptions() *ProofOptions {
	return &ProofOptions{
		ExtensionFactor: 32,
		NumQueries:      32,
		GrindingFactor:  16,
		HashFnID:        "blake3",
	}
}

// WithExtensionFactor sets the LDE blowup factor.
func (o *ProofOptions) WithExtensionFactor(f int) *ProofOptions {
	o.ExtensionFactor = f
	return o
}

// WithNumQueries sets the FRI query count.
func (o *ProofOptions) WithNumQueries(n int) *ProofOptions {
	o.NumQueries = n
	return o
}

// WithGrindingFactor sets the proof-of-work difficulty: the number of
// leading zero bits (counted from the first byte of the digest) the grinding
// hash must have. Trailing zero bits are not counted.
func (o *ProofOptions) WithGrindingFactor(bits int) *ProofOptions {
	o.GrindingFactor = bits
	return o
}

// WithHashFn sets the dispatch id for the Hasher used throughout the proof.
func (o *ProofOptions) WithHashFn(id string) *ProofOptions {
	o.HashFnID = id
	return o
}

// validExtensionFactors enumerates spec.md §6's allowed blowup factors.
var validExtensionFactors = map[int]bool{16: true, 32: true, 64: true, 128: true}

// Validate enforces the bounds spec.md §6 "Proof options" and §7
// "InvalidOptions" call for.
func (o *ProofOptions) Validate() error {
	if !validExtensionFactors[o.ExtensionFactor] {
		return fmt.Errorf("aegis: %w: extension_factor must be one of {16,32,64,128}, got %d", ErrInvalidOptions, o.ExtensionFactor)
	}
	if o.NumQueries < 1 || o.NumQueries > 128 {
		return fmt.Errorf("aegis: %w: num_queries must be in [1,128], got %d", ErrInvalidOptions, o.NumQueries)
	}
	if o.GrindingFactor < 0 || o.GrindingFactor > 32 {
		return fmt.Errorf("aegis: %w: grinding_factor must be in [0,32], got %d", ErrInvalidOptions, o.GrindingFactor)
	}
	switch o.HashFnID {
	case "blake3", "sha3", "rescue":
	default:
		return fmt.Errorf("aegis: %w: hash_fn_id must be one of {blake3,sha3,rescue}, got %q", ErrInvalidOptions, o.HashFnID)
	}
	return nil
}

// ErrInvalidOptions is the sentinel behind spec.md §7's InvalidOptions error
// kind.
var ErrInvalidOptions = fmt.Errorf("invalid proof options")
