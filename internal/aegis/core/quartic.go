package core

// Quartic is a degree-3 polynomial given by its four coefficients,
// Quartic[i] is the coefficient of x^i.
type Quartic [4]Fp

// Eval evaluates p at x via direct Horner-unrolled arithmetic. This is the
// hot path inside FRI folding (spec.md §4.D), invoked once per fold per
// query position.
func (p Quartic) Eval(x Fp) Fp {
	y := p[0].Add(p[1].Mul(x))
	x2 := x.Mul(x)
	y = y.Add(p[2].Mul(x2))
	x3 := x2.Mul(x)
	y = y.Add(p[3].Mul(x3))
	return y
}

// EvaluateBatch evaluates many degree-3 polynomials at the same point x.
func EvaluateBatch(polys []Quartic, x Fp) []Fp {
	out := make([]Fp, len(polys))
	for i, p := range polys {
		out[i] = p.Eval(x)
	}
	return out
}

// InterpolateBatch interpolates n sets of four (x,y) coordinates into n
// quartics in a single pass, amortizing field inversions across the whole
// batch via Montgomery's trick (spec.md §4.D). For each 4-tuple it builds the
// four Lagrange-basis numerator polynomials explicitly, evaluates each at its
// own node to get a denominator, runs one InvMany over all of them, then
// accumulates y_j * (inverse denominator) * (numerator polynomial).
func InterpolateBatch(xs, ys [][4]Fp) []Quartic {
	n := len(xs)
	equations := make([]Quartic, n*4)
	denominators := make([]Fp, n*4)

	for i := 0; i < n; i++ {
		x := xs[i]
		j := i * 4

		x01 := x[0].Mul(x[1])
		x02 := x[0].Mul(x[2])
		x03 := x[0].Mul(x[3])
		x12 := x[1].Mul(x[2])
		x13 := x[1].Mul(x[3])
		x23 := x[2].Mul(x[3])

		// eq0: numerator of the Lagrange basis polynomial for node x[0]
		equations[j] = Quartic{
			x12.Neg().Mul(x[3]),
			x12.Add(x13).Add(x23),
			x[1].Neg().Sub(x[2]).Sub(x[3]),
			One(),
		}
		denominators[j] = equations[j].Eval(x[0])

		// eq1: node x[1]
		equations[j+1] = Quartic{
			x02.Neg().Mul(x[3]),
			x02.Add(x03).Add(x23),
			x[0].Neg().Sub(x[2]).Sub(x[3]),
			One(),
		}
		denominators[j+1] = equations[j+1].Eval(x[1])

		// eq2: node x[2]
		equations[j+2] = Quartic{
			x01.Neg().Mul(x[3]),
			x01.Add(x03).Add(x13),
			x[0].Neg().Sub(x[1]).Sub(x[3]),
			One(),
		}
		denominators[j+2] = equations[j+2].Eval(x[2])

		// eq3: node x[3]
		equations[j+3] = Quartic{
			x01.Neg().Mul(x[2]),
			x01.Add(x02).Add(x12),
			x[0].Neg().Sub(x[1]).Sub(x[2]),
			One(),
		}
		denominators[j+3] = equations[j+3].Eval(x[3])
	}

	inverses := InvMany(denominators)

	out := make([]Quartic, n)
	for i := 0; i < n; i++ {
		j := i * 4
		y := ys[i]
		var acc Quartic
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

// Transpose reinterprets a flat vector of length 4*stride*rows, strided by
// `stride`, as `rows` quartics — the Go-idiomatic equivalent of the source's
// unsafe Vec<u64> -> Vec<[u64;4]> reinterpretation (spec.md §9): it copies
// into a freshly allocated view instead of reinterpreting memory in place,
// since Go does not allow that kind of aliasing.
func Transpose(vector []Fp, stride int) []Quartic {
	if len(vector)%(4*stride) != 0 {
		panic("core: vector length must be divisible by 4*stride")
	}
	rows := len(vector) / (4 * stride)
	out := make([]Quartic, rows)
	for i := 0; i < rows; i++ {
		out[i] = Quartic{
			vector[i*stride],
			vector[(i+rows)*stride],
			vector[(i+2*rows)*stride],
			vector[(i+3*rows)*stride],
		}
	}
	return out
}
