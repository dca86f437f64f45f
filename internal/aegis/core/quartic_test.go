package core

import "testing"

func TestQuarticEvalMatchesPolynomialEval(t *testing.T) {
	q := Quartic{FpFromUint64(1), FpFromUint64(2), FpFromUint64(3), FpFromUint64(4)}
	p := Polynomial{q[0], q[1], q[2], q[3]}
	x := FpFromUint64(9)
	if got, want := q.Eval(x), p.Eval(x); !got.Equal(want) {
		t.Errorf("Quartic.Eval = %s, want %s", got.String(), want.String())
	}
}

func TestInterpolateBatchReproducesPoints(t *testing.T) {
	xs := [][4]Fp{
		{FpFromUint64(1), FpFromUint64(2), FpFromUint64(3), FpFromUint64(4)},
		{FpFromUint64(5), FpFromUint64(6), FpFromUint64(7), FpFromUint64(8)},
	}
	ys := [][4]Fp{
		{FpFromUint64(11), FpFromUint64(22), FpFromUint64(33), FpFromUint64(44)},
		{FpFromUint64(55), FpFromUint64(66), FpFromUint64(77), FpFromUint64(88)},
	}
	quartics := InterpolateBatch(xs, ys)
	for i, q := range quartics {
		for k := 0; k < 4; k++ {
			if got := q.Eval(xs[i][k]); !got.Equal(ys[i][k]) {
				t.Errorf("batch %d node %d: got %s, want %s", i, k, got.String(), ys[i][k].String())
			}
		}
	}
}

func TestTransposeGroupsCosetMates(t *testing.T) {
	const rows = 2
	const stride = 1
	vector := make([]Fp, 4*rows*stride)
	for i := range vector {
		vector[i] = FpFromUint64(uint64(i))
	}
	quartics := Transpose(vector, stride)
	if len(quartics) != rows {
		t.Fatalf("got %d rows, want %d", len(quartics), rows)
	}
	for i := 0; i < rows; i++ {
		want := Quartic{
			FpFromUint64(uint64(i)),
			FpFromUint64(uint64(i + rows)),
			FpFromUint64(uint64(i + 2*rows)),
			FpFromUint64(uint64(i + 3*rows)),
		}
		if quartics[i] != want {
			t.Errorf("row %d: got %v, want %v", i, quartics[i], want)
		}
	}
}
