package utils

import (
	"testing"

	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/core"
)

func newTestChannel(t *testing.T) *Channel {
	t.Helper()
	h, err := core.NewHasher("blake3")
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	return NewChannel(h)
}

func TestChannelCommitIsDeterministic(t *testing.T) {
	a := newTestChannel(t)
	b := newTestChannel(t)
	a.Commit([]byte("hello"))
	b.Commit([]byte("hello"))
	if a.State() != b.State() {
		t.Error("identical commits on fresh channels diverged")
	}
	a.Commit([]byte("world"))
	if a.State() == b.State() {
		t.Error("committing extra data did not change the transcript state")
	}
}

func TestChannelCommitOrderMatters(t *testing.T) {
	a := newTestChannel(t)
	b := newTestChannel(t)
	a.Commit([]byte("x"), []byte("y"))
	b.Commit([]byte("y"), []byte("x"))
	if a.State() == b.State() {
		t.Error("swapping commit argument order should change the transcript state")
	}
}

func TestDrawFpAdvancesState(t *testing.T) {
	c := newTestChannel(t)
	c.Commit([]byte("seed"))
	before := c.State()
	first := c.DrawFp()
	if c.State() == before {
		t.Error("DrawFp did not advance the transcript state")
	}
	second := c.DrawFp()
	if first.Equal(second) {
		t.Error("two consecutive draws returned the same field element")
	}
}

func TestDrawFpVectorLength(t *testing.T) {
	c := newTestChannel(t)
	c.Commit([]byte("seed"))
	v := c.DrawFpVector(5)
	if len(v) != 5 {
		t.Fatalf("len(v) = %d, want 5", len(v))
	}
	for i := 0; i < len(v); i++ {
		for j := i + 1; j < len(v); j++ {
			if v[i].Equal(v[j]) {
				t.Errorf("DrawFpVector produced a repeat at indices %d,%d", i, j)
			}
		}
	}
}

func TestDrawIntRespectsBound(t *testing.T) {
	c := newTestChannel(t)
	c.Commit([]byte("seed"))
	for i := 0; i < 100; i++ {
		v := c.DrawInt(7)
		if v >= 7 {
			t.Fatalf("DrawInt(7) = %d, out of range", v)
		}
	}
}

func TestDrawPositionsAreDistinctAndInRange(t *testing.T) {
	c := newTestChannel(t)
	c.Commit([]byte("seed"))
	positions := c.DrawPositions(10, 64)
	if len(positions) != 10 {
		t.Fatalf("len(positions) = %d, want 10", len(positions))
	}
	seen := make(map[int]bool)
	for _, p := range positions {
		if p < 0 || p >= 64 {
			t.Fatalf("position %d out of [0,64)", p)
		}
		if seen[p] {
			t.Fatalf("duplicate position %d", p)
		}
		seen[p] = true
	}
}

func TestDrawPositionsCapsAtDomainSize(t *testing.T) {
	c := newTestChannel(t)
	c.Commit([]byte("seed"))
	positions := c.DrawPositions(20, 8)
	if len(positions) != 8 {
		t.Fatalf("len(positions) = %d, want 8 (domain size cap)", len(positions))
	}
}

func TestUint64BytesRoundTripsThroughBigEndian(t *testing.T) {
	b := Uint64Bytes(0x0102030405060708)
	want := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	for i := range want {
		if b[i] != want[i] {
			t.Fatalf("Uint64Bytes()[%d] = %x, want %x", i, b[i], want[i])
		}
	}
}
