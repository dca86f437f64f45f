package core

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Fp64 is an element of the secondary 64-bit field
//
//	M = 2^64 - 45*2^32 + 1 = 18446743880436023297
//
// kept alongside Fp128 for the quartic-batch and NTT property tests that the
// original reference runs at both widths (spec.md §9). It shares Fp128's
// uint256-backed reduction strategy rather than a hand-rolled two-limb carry
// chain, trading a little headroom for the same correctness guarantee.
type Fp64 struct {
	v uint256.Int
}

var modulus64 = uint256.NewInt(18446743880436023297)

// Generator64 is a generator of Fp64's multiplicative group; g64Root32 is a
// primitive 2^32-th root of unity, both taken directly from the reference
// field (original_source/src/crypto/math.rs: M, G).
var (
	Generator64 = Fp64FromUint64(7)
	g64Root32   = Fp64FromUint64(8387321423513296549)
)

func Fp64Zero() Fp64 { return Fp64{} }
func Fp64One() Fp64  { return Fp64FromUint64(1) }

func Fp64FromUint64(x uint64) Fp64 { return Fp64{v: *uint256.NewInt(x)} }

func (a Fp64) IsZero() bool      { return a.v.IsZero() }
func (a Fp64) Equal(b Fp64) bool { return a.v.Eq(&b.v) }

func (a Fp64) Add(b Fp64) Fp64 {
	sum := new(uint256.Int).Add(&a.v, &b.v)
	if sum.Cmp(modulus64) >= 0 {
		sum.Sub(sum, modulus64)
	}
	return Fp64{v: *sum}
}

func (a Fp64) Sub(b Fp64) Fp64 {
	if a.v.Cmp(&b.v) >= 0 {
		return Fp64{v: *new(uint256.Int).Sub(&a.v, &b.v)}
	}
	d := new(uint256.Int).Sub(&b.v, &a.v)
	return Fp64{v: *new(uint256.Int).Sub(modulus64, d)}
}

func (a Fp64) Neg() Fp64 { return Fp64Zero().Sub(a) }

// Mul computes (a * b) mod M, following the same bounded-subtraction
// reduction the 64-bit reference uses (three rounds of z -= (z>>64)*M then a
// final conditional subtract), just carried out on a uint256 accumulator.
func (a Fp64) Mul(b Fp64) Fp64 {
	z := new(uint256.Int).Mul(&a.v, &b.v)
	for i := 0; i < 3; i++ {
		q := new(uint256.Int).Rsh(z, 64)
		if q.IsZero() {
			break
		}
		q.Mul(q, modulus64)
		z.Sub(z, q)
	}
	for z.Cmp(modulus64) >= 0 {
		z.Sub(z, modulus64)
	}
	return Fp64{v: *z}
}

func (a Fp64) Square() Fp64 { return a.Mul(a) }

func (a Fp64) Exp(e uint64) Fp64 {
	if a.IsZero() {
		return Fp64Zero()
	}
	result := Fp64One()
	base := a
	for e > 0 {
		if e&1 == 1 {
			result = result.Mul(base)
		}
		base = base.Square()
		e >>= 1
	}
	return result
}

// Inv computes the multiplicative inverse via binary extended gcd, mirroring
// Fp128.Inv; Inv(0) = 0 by the same convention.
func (a Fp64) Inv() Fp64 {
	if a.IsZero() {
		return Fp64Zero()
	}
	zero := uint256.NewInt(0)
	two := uint256.NewInt(2)

	u := new(uint256.Int).Set(&a.v)
	v := new(uint256.Int).Set(modulus64)
	x1 := uint256.NewInt(1)
	x2 := uint256.NewInt(0)

	for u.Cmp(uint256.NewInt(1)) != 0 && v.Cmp(uint256.NewInt(1)) != 0 {
		for new(uint256.Int).Mod(u, two).Eq(zero) {
			u.Rsh(u, 1)
			if !new(uint256.Int).Mod(x1, two).Eq(zero) {
				x1.Add(x1, modulus64)
			}
			x1.Rsh(x1, 1)
		}
		for new(uint256.Int).Mod(v, two).Eq(zero) {
			v.Rsh(v, 1)
			if !new(uint256.Int).Mod(x2, two).Eq(zero) {
				x2.Add(x2, modulus64)
			}
			x2.Rsh(x2, 1)
		}
		if u.Cmp(v) >= 0 {
			u.Sub(u, v)
			x1 = subMod64(x1, x2)
		} else {
			v.Sub(v, u)
			x2 = subMod64(x2, x1)
		}
	}
	if u.Cmp(uint256.NewInt(1)) == 0 {
		return Fp64{v: *new(uint256.Int).Mod(x1, modulus64)}
	}
	return Fp64{v: *new(uint256.Int).Mod(x2, modulus64)}
}

func subMod64(a, b *uint256.Int) *uint256.Int {
	if a.Cmp(b) >= 0 {
		return new(uint256.Int).Sub(a, b)
	}
	return new(uint256.Int).Sub(new(uint256.Int).Add(a, modulus64), b)
}

func (a Fp64) Div(b Fp64) Fp64 { return a.Mul(b.Inv()) }

// InvMany64 is Fp64's analogue of InvMany (Montgomery's batch-inversion
// trick).
func InvMany64(xs []Fp64) []Fp64 {
	n := len(xs)
	if n == 0 {
		return nil
	}
	prefix := make([]Fp64, n)
	acc := Fp64One()
	for i, x := range xs {
		prefix[i] = acc
		if !x.IsZero() {
			acc = acc.Mul(x)
		}
	}
	accInv := acc.Inv()
	out := make([]Fp64, n)
	for i := n - 1; i >= 0; i-- {
		if xs[i].IsZero() {
			out[i] = Fp64Zero()
			continue
		}
		out[i] = accInv.Mul(prefix[i])
		accInv = accInv.Mul(xs[i])
	}
	return out
}

// GetRootOfUnity64 returns a primitive root of unity of the given order,
// which must be a power of two dividing 2^32.
func GetRootOfUnity64(order uint64) (Fp64, error) {
	if order == 0 || order&(order-1) != 0 {
		return Fp64Zero(), fmt.Errorf("core: order %d is not a power of two", order)
	}
	if order > (1 << 32) {
		return Fp64Zero(), fmt.Errorf("core: order %d exceeds 2^32", order)
	}
	shift := 32 - trailingZeros64(order)
	return g64Root32.Exp(uint64(1) << uint(shift)), nil
}

// Fp64Quartic mirrors Quartic but over Fp64, used by the 64-bit parity tests
// spec.md §9 calls for.
type Fp64Quartic [4]Fp64

func (p Fp64Quartic) Eval(x Fp64) Fp64 {
	y := p[0].Add(p[1].Mul(x))
	x2 := x.Mul(x)
	y = y.Add(p[2].Mul(x2))
	x3 := x2.Mul(x)
	y = y.Add(p[3].Mul(x3))
	return y
}

// InterpolateBatch64 is Fp64's analogue of InterpolateBatch, built the same
// way (spec.md §4.A′: Fp64's batch interpolation is implemented identically
// to Fp128's rather than left unfinished).
func InterpolateBatch64(xs, ys [][4]Fp64) []Fp64Quartic {
	n := len(xs)
	equations := make([]Fp64Quartic, n*4)
	denominators := make([]Fp64, n*4)

	for i := 0; i < n; i++ {
		x := xs[i]
		j := i * 4

		x01 := x[0].Mul(x[1])
		x02 := x[0].Mul(x[2])
		x03 := x[0].Mul(x[3])
		x12 := x[1].Mul(x[2])
		x13 := x[1].Mul(x[3])
		x23 := x[2].Mul(x[3])

		equations[j] = Fp64Quartic{
			x12.Neg().Mul(x[3]),
			x12.Add(x13).Add(x23),
			x[1].Neg().Sub(x[2]).Sub(x[3]),
			Fp64One(),
		}
		denominators[j] = equations[j].Eval(x[0])

		equations[j+1] = Fp64Quartic{
			x02.Neg().Mul(x[3]),
			x02.Add(x03).Add(x23),
			x[0].Neg().Sub(x[2]).Sub(x[3]),
			Fp64One(),
		}
		denominators[j+1] = equations[j+1].Eval(x[1])

		equations[j+2] = Fp64Quartic{
			x01.Neg().Mul(x[3]),
			x01.Add(x03).Add(x13),
			x[0].Neg().Sub(x[1]).Sub(x[3]),
			Fp64One(),
		}
		denominators[j+2] = equations[j+2].Eval(x[2])

		equations[j+3] = Fp64Quartic{
			x01.Neg().Mul(x[2]),
			x01.Add(x02).Add(x12),
			x[0].Neg().Sub(x[1]).Sub(x[2]),
			Fp64One(),
		}
		denominators[j+3] = equations[j+3].Eval(x[3])
	}

	inverses := InvMany64(denominators)

	out := make([]Fp64Quartic, n)
	for i := 0; i < n; i++ {
		j := i * 4
		y := ys[i]
		var acc Fp64Quartic
		for k := 0; k < 4; k++ {
			invY := y[k].Mul(inverses[j+k])
			eq := equations[j+k]
			acc[0] = acc[0].Add(invY.Mul(eq[0]))
			acc[1] = acc[1].Add(invY.Mul(eq[1]))
			acc[2] = acc[2].Add(invY.Mul(eq[2]))
			acc[3] = acc[3].Add(invY.Mul(eq[3]))
		}
		out[i] = acc
	}
	return out
}
