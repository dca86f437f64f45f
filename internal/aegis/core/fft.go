package core

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// computeTwiddles precomputes [omega^0, omega^1, ..., omega^(n/2-1)], the
// twiddle vector consumed by FFTInPlace (spec.md §4.B).
func computeTwiddles(omega Fp, n int) []Fp {
	return GetPowerSeries(omega, n/2)
}

// FFTInPlace performs an in-place iterative Cooley-Tukey radix-2 NTT (or its
// inverse, if twiddles were built from omega^-1) over a stride/offset-strided
// view of values, so independent sub-problems can be split out and run in
// parallel by ParallelFFT without any allocation in the hot loop (spec.md
// §4.B, §5). depth is unused by the sequential path and exists so recursive
// callers can track how deep a cache-oblivious split has gone; it is kept for
// symmetry with callers that do split recursively.
func FFTInPlace(values []Fp, twiddles []Fp, count, stride, offset, depth int) error {
	if count == 0 || count&(count-1) != 0 {
		return fmt.Errorf("core: fft size %d is not a power of two", count)
	}
	_ = depth

	// bit-reversal permutation over the strided view
	view := stridedView(values, stride, offset, count)
	bitReversePermute(view)

	for size := 2; size <= count; size *= 2 {
		half := size / 2
		twiddleStep := count / size
		for start := 0; start < count; start += size {
			for i := 0; i < half; i++ {
				w := twiddles[i*twiddleStep]
				a := view.get(start + i)
				b := view.get(start + i + half).Mul(w)
				view.set(start+i, a.Add(b))
				view.set(start+i+half, a.Sub(b))
			}
		}
	}
	return nil
}

// stridedView addresses the logical slots [offset, offset+stride, offset+2*stride, ...]
// of values through get/set rather than by reinterpreting the backing array,
// since Go has no safe equivalent of the source's unsafe Vec<u64> pointer
// cast (spec.md §9).
func stridedView(values []Fp, stride, offset, count int) stridedSlice {
	return stridedSlice{values: values, stride: stride, offset: offset, count: count}
}

type stridedSlice struct {
	values []Fp
	stride int
	offset int
	count  int
}

func (s stridedSlice) index(i int) int { return s.offset + i*s.stride }

func (s stridedSlice) get(i int) Fp { return s.values[s.index(i)] }

func (s stridedSlice) set(i int, v Fp) { s.values[s.index(i)] = v }

func bitReversePermute(s stridedSlice) {
	n := s.count
	j := 0
	for i := 1; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j ^= bit
		if i < j {
			vi, vj := s.get(i), s.get(j)
			s.set(i, vj)
			s.set(j, vi)
		}
	}
}

// ParallelFFT runs one NTT per column, each in its own goroutine regardless
// of domain size, joining before returning (spec.md §5: NTT is one of the
// three parallel phases). Each goroutine copies its column into a fresh
// domainSize-long slice and transforms that copy in place (stride 1, offset
// 0), so the input columns are never modified.
func ParallelFFT(columns []Polynomial, domainSize int, inverse bool) ([][]Fp, error) {
	omega, err := GetRootOfUnity(uint64(domainSize))
	if err != nil {
		return nil, err
	}
	if inverse {
		omega = omega.Inv()
	}
	twiddles := computeTwiddles(omega, domainSize)

	results := make([][]Fp, len(columns))
	var g errgroup.Group
	for idx, col := range columns {
		idx, col := idx, col
		g.Go(func() error {
			values := make([]Fp, domainSize)
			copy(values, col)
			if err := FFTInPlace(values, twiddles, domainSize, 1, 0, 0); err != nil {
				return err
			}
			if inverse {
				nInv := FpFromUint64(uint64(domainSize)).Inv()
				for i := range values {
					values[i] = values[i].Mul(nInv)
				}
			}
			results[idx] = values
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
