package core

import "testing"

func TestFFTInPlaceRoundTrip(t *testing.T) {
	const n = 16
	coeffs := make([]Fp, n)
	for i := range coeffs {
		coeffs[i] = FpFromUint64(uint64(i * 7 + 1))
	}

	omega, err := GetRootOfUnity(n)
	if err != nil {
		t.Fatalf("GetRootOfUnity: %v", err)
	}
	values := append([]Fp{}, coeffs...)
	if err := FFTInPlace(values, computeTwiddles(omega, n), n, 1, 0, 0); err != nil {
		t.Fatalf("FFTInPlace: %v", err)
	}

	back := append([]Fp{}, values...)
	omegaInv := omega.Inv()
	if err := FFTInPlace(back, computeTwiddles(omegaInv, n), n, 1, 0, 0); err != nil {
		t.Fatalf("inverse FFTInPlace: %v", err)
	}
	nInv := FpFromUint64(n).Inv()
	for i := range back {
		back[i] = back[i].Mul(nInv)
	}

	for i := range coeffs {
		if !back[i].Equal(coeffs[i]) {
			t.Fatalf("round trip mismatch at %d: got %s, want %s", i, back[i].String(), coeffs[i].String())
		}
	}
}

func TestFFTInPlaceRejectsNonPowerOfTwo(t *testing.T) {
	values := make([]Fp, 6)
	if err := FFTInPlace(values, nil, 6, 1, 0, 0); err == nil {
		t.Error("expected an error for a non-power-of-two count")
	}
}

func TestFFTMatchesDirectEvaluation(t *testing.T) {
	const n = 8
	p := Polynomial{FpFromUint64(1), FpFromUint64(2), FpFromUint64(3)}
	got, err := EvalManyFFT(p, n)
	if err != nil {
		t.Fatalf("EvalManyFFT: %v", err)
	}
	omega, err := GetRootOfUnity(n)
	if err != nil {
		t.Fatalf("GetRootOfUnity: %v", err)
	}
	pts := GetPowerSeries(omega, n)
	for i, x := range pts {
		want := p.Eval(x)
		if !got[i].Equal(want) {
			t.Errorf("eval[%d]: got %s, want %s", i, got[i].String(), want.String())
		}
	}
}

func TestParallelFFTMatchesSequential(t *testing.T) {
	const domainSize = 16
	cols := []Polynomial{
		{FpFromUint64(1), FpFromUint64(2)},
		{FpFromUint64(5), FpFromUint64(6), FpFromUint64(7)},
	}
	got, err := ParallelFFT(cols, domainSize, false)
	if err != nil {
		t.Fatalf("ParallelFFT: %v", err)
	}
	for i, col := range cols {
		want, err := EvalManyFFT(col, domainSize)
		if err != nil {
			t.Fatalf("EvalManyFFT: %v", err)
		}
		for j := range want {
			if !got[i][j].Equal(want[j]) {
				t.Fatalf("column %d position %d: got %s, want %s", i, j, got[i][j].String(), want[j].String())
			}
		}
	}
}
