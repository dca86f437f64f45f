// Package core implements the prime-field arithmetic, number-theoretic
// transforms, polynomial machinery and cryptographic primitives that the
// rest of Aegis is built on.
package core

import (
	"crypto/rand"
	"fmt"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/chacha20"
)

// Fp is an element of the 128-bit STARK-friendly field
//
//	p = 2^128 - 45*2^64 + 1
//
// Every Fp value that escapes this package is canonical, i.e. strictly
// smaller than the modulus. The value is carried as a uint256.Int so that
// multiplication can keep the full 256-bit intermediate product around for
// Barrett-style reduction (spec.md §4.A); the top 128 bits are always zero
// once an Fp has been normalized.
type Fp struct {
	v uint256.Int
}

var modulus = func() *uint256.Int {
	m := new(uint256.Int).SetUint64(1)
	m.Lsh(m, 128)
	forty5 := new(uint256.Int).SetUint64(45)
	shift := new(uint256.Int).SetUint64(1)
	shift.Lsh(shift, 64)
	forty5.Mul(forty5, shift)
	m.Sub(m, forty5)
	m.AddUint64(m, 1)
	return m
}()

// Modulus returns p.
func Modulus() *uint256.Int { return new(uint256.Int).Set(modulus) }

// Generator is a generator of the full multiplicative group of Fp.
var Generator = FpFromUint64(7)

const rootOfUnityExponentBits = 40

// omega40 is a primitive 2^40-th root of unity of Fp, defined as
// g^((p-1)/2^40).
var omega40 = func() Fp {
	exp := new(uint256.Int).Sub(modulus, uint256.NewInt(1))
	order := new(uint256.Int).SetUint64(1)
	order.Lsh(order, rootOfUnityExponentBits)
	exp.Div(exp, order)
	return Generator.ExpBig(exp)
}()

// Zero is the additive identity.
func Zero() Fp { return Fp{} }

// One is the multiplicative identity.
func One() Fp { return FpFromUint64(1) }

// FpFromUint64 embeds a uint64 into the field.
func FpFromUint64(x uint64) Fp {
	return Fp{v: *uint256.NewInt(x)}
}

// FpFromInt64 embeds a (possibly negative) int64 into the field.
func FpFromInt64(x int64) Fp {
	if x >= 0 {
		return FpFromUint64(uint64(x))
	}
	return Zero().Sub(FpFromUint64(uint64(-x)))
}

// IsZero reports whether a is the additive identity.
func (a Fp) IsZero() bool { return a.v.IsZero() }

// Equal reports whether a and b represent the same field element.
func (a Fp) Equal(b Fp) bool { return a.v.Eq(&b.v) }

// Cmp compares the canonical integer representations of a and b, as used by
// CMP's less-than/greater-than derivation (spec.md §4.H).
func (a Fp) Cmp(b Fp) int { return a.v.Cmp(&b.v) }

// Add computes (a + b) mod p.
func (a Fp) Add(b Fp) Fp {
	sum := new(uint256.Int).Add(&a.v, &b.v)
	if sum.Cmp(modulus) >= 0 {
		sum.Sub(sum, modulus)
	}
	return Fp{v: *sum}
}

// Sub computes (a - b) mod p.
func (a Fp) Sub(b Fp) Fp {
	if a.v.Cmp(&b.v) >= 0 {
		return Fp{v: *new(uint256.Int).Sub(&a.v, &b.v)}
	}
	d := new(uint256.Int).Sub(&b.v, &a.v)
	return Fp{v: *new(uint256.Int).Sub(modulus, d)}
}

// Neg computes (-a) mod p.
func (a Fp) Neg() Fp { return Zero().Sub(a) }

// Mul computes (a * b) mod p. Both operands are always < 2^128, so their
// product fits in 256 bits without overflow; reduction follows spec.md §4.A's
// repeated-subtraction recipe: at most three rounds of
// z -= (z>>128)*p bring z below 2p, then a final conditional subtract
// makes it canonical.
func (a Fp) Mul(b Fp) Fp {
	z := new(uint256.Int).Mul(&a.v, &b.v)
	for i := 0; i < 3; i++ {
		q := new(uint256.Int).Rsh(z, 128)
		if q.IsZero() {
			break
		}
		q.Mul(q, modulus)
		z.Sub(z, q)
	}
	for z.Cmp(modulus) >= 0 {
		z.Sub(z, modulus)
	}
	return Fp{v: *z}
}

// Square computes a*a.
func (a Fp) Square() Fp { return a.Mul(a) }

// Exp computes a^e mod p via square-and-multiply.
func (a Fp) Exp(e uint64) Fp {
	return a.ExpBig(uint256.NewInt(e))
}

// ExpBig computes a^e mod p for an arbitrary-width exponent.
func (a Fp) ExpBig(e *uint256.Int) Fp {
	result := One()
	base := a
	exp := new(uint256.Int).Set(e)
	zero := uint256.NewInt(0)
	one := uint256.NewInt(1)
	for exp.Cmp(zero) > 0 {
		if new(uint256.Int).And(exp, one).Eq(one) {
			result = result.Mul(base)
		}
		base = base.Square()
		exp.Rsh(exp, 1)
	}
	return result
}

// Inv computes the multiplicative inverse of a using the binary extended
// Euclidean algorithm over the modulus. By convention Inv(0) = 0 (§4.A:
// "never used with zero in production paths, but defined").
func (a Fp) Inv() Fp {
	if a.IsZero() {
		return Zero()
	}

	zero := uint256.NewInt(0)
	two := uint256.NewInt(2)

	u := new(uint256.Int).Set(&a.v)
	v := new(uint256.Int).Set(modulus)
	x1 := uint256.NewInt(1)
	x2 := uint256.NewInt(0)

	for u.Cmp(uint256.NewInt(1)) != 0 && v.Cmp(uint256.NewInt(1)) != 0 {
		for new(uint256.Int).Mod(u, two).Eq(zero) {
			u.Rsh(u, 1)
			if !new(uint256.Int).Mod(x1, two).Eq(zero) {
				x1.Add(x1, modulus)
			}
			x1.Rsh(x1, 1)
		}
		for new(uint256.Int).Mod(v, two).Eq(zero) {
			v.Rsh(v, 1)
			if !new(uint256.Int).Mod(x2, two).Eq(zero) {
				x2.Add(x2, modulus)
			}
			x2.Rsh(x2, 1)
		}
		if u.Cmp(v) >= 0 {
			u.Sub(u, v)
			x1 = subMod(x1, x2)
		} else {
			v.Sub(v, u)
			x2 = subMod(x2, x1)
		}
	}
	if u.Cmp(uint256.NewInt(1)) == 0 {
		return Fp{v: *new(uint256.Int).Mod(x1, modulus)}
	}
	return Fp{v: *new(uint256.Int).Mod(x2, modulus)}
}

func subMod(a, b *uint256.Int) *uint256.Int {
	if a.Cmp(b) >= 0 {
		return new(uint256.Int).Sub(a, b)
	}
	return new(uint256.Int).Sub(new(uint256.Int).Add(a, modulus), b)
}

// Div computes a / b = a * b.Inv().
func (a Fp) Div(b Fp) Fp { return a.Mul(b.Inv()) }

// InvMany inverts every element of xs using Montgomery's trick: a single
// product scan, one inversion, and a back-scan, so n elements cost Θ(n)
// multiplications plus exactly one Inv (spec.md §4.A). Zero entries invert
// to zero, matching Inv's convention, and are skipped in the running product.
func InvMany(xs []Fp) []Fp {
	n := len(xs)
	if n == 0 {
		return nil
	}
	prefix := make([]Fp, n)
	acc := One()
	for i, x := range xs {
		prefix[i] = acc
		if !x.IsZero() {
			acc = acc.Mul(x)
		}
	}
	accInv := acc.Inv()
	out := make([]Fp, n)
	for i := n - 1; i >= 0; i-- {
		if xs[i].IsZero() {
			out[i] = Zero()
			continue
		}
		out[i] = accInv.Mul(prefix[i])
		accInv = accInv.Mul(xs[i])
	}
	return out
}

// Rand draws a uniformly random field element from a cryptographic source.
func Rand() Fp {
	var b [32]byte
	_, _ = rand.Read(b[16:])
	v := new(uint256.Int).SetBytes(b[:])
	v.Mod(v, modulus)
	return Fp{v: *v}
}

// RandVector draws n independent uniformly random field elements.
func RandVector(n int) []Fp {
	out := make([]Fp, n)
	for i := range out {
		out[i] = Rand()
	}
	return out
}

// PRNG deterministically derives a single field element from a 32-byte seed.
func PRNG(seed [32]byte) Fp {
	return PRNGFill(seed, 1)[0]
}

// PRNGFill fills n field elements deterministically from seed, using a
// chacha20 keystream as a block cipher and rejection-sampling its 16-byte
// blocks into [0, p) (spec.md §9, resolving the upstream prng_fill stub by
// matching the 128-bit field's documented behavior).
func PRNGFill(seed [32]byte, n int) []Fp {
	var nonce [chacha20.NonceSize]byte
	cipher, err := chacha20.NewUnauthenticatedCipher(seed[:], nonce[:])
	if err != nil {
		panic(fmt.Sprintf("core: chacha20 seed rejected: %v", err))
	}

	out := make([]Fp, 0, n)
	zeroBlock := make([]byte, 16)
	keystream := make([]byte, 16)
	for len(out) < n {
		cipher.XORKeyStream(keystream, zeroBlock)
		var padded [32]byte
		copy(padded[16:], keystream)
		v := new(uint256.Int).SetBytes(padded[:])
		if v.Cmp(modulus) < 0 {
			out = append(out, Fp{v: *v})
		}
	}
	return out
}

// GetRootOfUnity returns a primitive root of unity of the given order, which
// must be a power of two dividing 2^40.
func GetRootOfUnity(order uint64) (Fp, error) {
	if order == 0 || order&(order-1) != 0 {
		return Zero(), fmt.Errorf("core: order %d is not a power of two", order)
	}
	if order > (1 << rootOfUnityExponentBits) {
		return Zero(), fmt.Errorf("core: order %d exceeds 2^%d", order, rootOfUnityExponentBits)
	}
	shift := rootOfUnityExponentBits - trailingZeros64(order)
	return omega40.Exp(uint64(1) << uint(shift)), nil
}

func trailingZeros64(v uint64) int {
	n := 0
	for v&1 == 0 {
		v >>= 1
		n++
	}
	return n
}

// GetPowerSeries returns [base^0, base^1, ..., base^(n-1)].
func GetPowerSeries(base Fp, n int) []Fp {
	out := make([]Fp, n)
	cur := One()
	for i := 0; i < n; i++ {
		out[i] = cur
		cur = cur.Mul(base)
	}
	return out
}

// FpFromBytes embeds a big-endian 16-byte value into the field, reducing it
// modulo p if it does not already represent a canonical element.
func FpFromBytes(b [16]byte) Fp {
	var full [32]byte
	copy(full[16:], b[:])
	v := new(uint256.Int).SetBytes(full[:])
	if v.Cmp(modulus) >= 0 {
		v.Mod(v, modulus)
	}
	return Fp{v: *v}
}

// Bytes returns the big-endian 16-byte canonical encoding of a.
func (a Fp) Bytes() [16]byte {
	full := a.v.Bytes32()
	var out [16]byte
	copy(out[:], full[16:])
	return out
}

// String renders the element in decimal for debugging.
func (a Fp) String() string { return a.v.Dec() }
