package core

import "fmt"

// Polynomial is a dense univariate polynomial over Fp, coefficient i is the
// coefficient of x^i. Leading zero coefficients may be present and are
// accepted as input everywhere. Add, Sub, Scale and Mul do not trim their
// results; Div, Interpolate and InterpolateFFT do.
type Polynomial []Fp

// Degree returns the polynomial's degree, ignoring trailing zero
// coefficients. The zero polynomial has degree -1.
func (p Polynomial) Degree() int {
	for i := len(p) - 1; i >= 0; i-- {
		if !p[i].IsZero() {
			return i
		}
	}
	return -1
}

// Trim drops trailing zero coefficients.
func (p Polynomial) Trim() Polynomial {
	d := p.Degree()
	if d < 0 {
		return Polynomial{}
	}
	return append(Polynomial{}, p[:d+1]...)
}

// Eval evaluates p at x by Horner's method.
func (p Polynomial) Eval(x Fp) Fp {
	result := Zero()
	for i := len(p) - 1; i >= 0; i-- {
		result = result.Mul(x).Add(p[i])
	}
	return result
}

// Add returns p + q.
func (p Polynomial) Add(q Polynomial) Polynomial {
	n := len(p)
	if len(q) > n {
		n = len(q)
	}
	out := make(Polynomial, n)
	for i := 0; i < n; i++ {
		var a, b Fp
		if i < len(p) {
			a = p[i]
		}
		if i < len(q) {
			b = q[i]
		}
		out[i] = a.Add(b)
	}
	return out
}

// Sub returns p - q.
func (p Polynomial) Sub(q Polynomial) Polynomial {
	n := len(p)
	if len(q) > n {
		n = len(q)
	}
	out := make(Polynomial, n)
	for i := 0; i < n; i++ {
		var a, b Fp
		if i < len(p) {
			a = p[i]
		}
		if i < len(q) {
			b = q[i]
		}
		out[i] = a.Sub(b)
	}
	return out
}

// Scale returns c*p.
func (p Polynomial) Scale(c Fp) Polynomial {
	out := make(Polynomial, len(p))
	for i, coeff := range p {
		out[i] = coeff.Mul(c)
	}
	return out
}

// Mul returns p * q via schoolbook convolution.
func (p Polynomial) Mul(q Polynomial) Polynomial {
	if len(p) == 0 || len(q) == 0 {
		return Polynomial{}
	}
	out := make(Polynomial, len(p)+len(q)-1)
	for i, a := range p {
		if a.IsZero() {
			continue
		}
		for j, b := range q {
			out[i+j] = out[i+j].Add(a.Mul(b))
		}
	}
	return out
}

// Div divides p by q, returning the quotient. It fails with ErrNotDivisible
// if the remainder is non-zero (spec.md §4.C).
func (p Polynomial) Div(q Polynomial) (Polynomial, error) {
	qd := q.Degree()
	if qd < 0 {
		return nil, fmt.Errorf("core: %w: division by zero polynomial", ErrNotDivisible)
	}
	remainder := append(Polynomial{}, p...)
	pd := remainder.Degree()
	if pd < qd {
		if pd < 0 {
			return Polynomial{}, nil
		}
		return nil, fmt.Errorf("core: %w: degree %d < %d", ErrNotDivisible, pd, qd)
	}

	leadInv := q[qd].Inv()
	quotient := make(Polynomial, pd-qd+1)
	for pd >= qd {
		if !remainder[pd].IsZero() {
			coeff := remainder[pd].Mul(leadInv)
			quotient[pd-qd] = coeff
			for i, qc := range q {
				remainder[pd-qd+i] = remainder[pd-qd+i].Sub(coeff.Mul(qc))
			}
		}
		pd--
	}
	if remainder.Degree() >= 0 {
		for _, c := range remainder {
			if !c.IsZero() {
				return nil, fmt.Errorf("core: %w", ErrNotDivisible)
			}
		}
	}
	return quotient.Trim(), nil
}

// Interpolate computes the unique polynomial of degree < len(xs) passing
// through the given (xs[i], ys[i]) points using Lagrange interpolation in
// O(n^2) field operations (spec.md §4.C).
func Interpolate(xs, ys []Fp) (Polynomial, error) {
	n := len(xs)
	if n != len(ys) {
		return nil, fmt.Errorf("core: interpolate: len(xs)=%d != len(ys)=%d", n, len(ys))
	}
	result := make(Polynomial, n)

	for i := 0; i < n; i++ {
		// basis_i(x) = prod_{j != i} (x - xs[j]) / (xs[i] - xs[j])
		basis := Polynomial{One()}
		denom := One()
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			basis = basis.Mul(Polynomial{xs[j].Neg(), One()})
			denom = denom.Mul(xs[i].Sub(xs[j]))
		}
		scaled := basis.Scale(ys[i].Mul(denom.Inv()))
		result = result.Add(scaled)
	}
	return result.Trim(), nil
}

// EvalManyFFT evaluates p (zero-padded/truncated to domainSize coefficients)
// on the multiplicative subgroup of order domainSize via NTT.
func EvalManyFFT(p Polynomial, domainSize int) ([]Fp, error) {
	coeffs := make([]Fp, domainSize)
	copy(coeffs, p)
	omega, err := GetRootOfUnity(uint64(domainSize))
	if err != nil {
		return nil, err
	}
	twiddles := computeTwiddles(omega, domainSize)
	values := append([]Fp{}, coeffs...)
	if err := FFTInPlace(values, twiddles, domainSize, 1, 0, 0); err != nil {
		return nil, err
	}
	return values, nil
}

// InterpolateFFT is the inverse of EvalManyFFT: given evaluations on the
// domainSize-th roots of unity, it returns the coefficient form.
func InterpolateFFT(values []Fp) (Polynomial, error) {
	n := len(values)
	omega, err := GetRootOfUnity(uint64(n))
	if err != nil {
		return nil, err
	}
	omegaInv := omega.Inv()
	twiddles := computeTwiddles(omegaInv, n)
	coeffs := append([]Fp{}, values...)
	if err := FFTInPlace(coeffs, twiddles, n, 1, 0, 0); err != nil {
		return nil, err
	}
	nInv := FpFromUint64(uint64(n)).Inv()
	for i := range coeffs {
		coeffs[i] = coeffs[i].Mul(nInv)
	}
	return Polynomial(coeffs).Trim(), nil
}

// ErrNotDivisible is returned by Div when the remainder is non-zero.
var ErrNotDivisible = fmt.Errorf("polynomial is not evenly divisible")
