package core

import "testing"

func leavesFor(t *testing.T, n int) [][32]byte {
	t.Helper()
	leaves := make([][32]byte, n)
	for i := range leaves {
		leaves[i] = FpFromUint64(uint64(i)).Bytes16Padded()
	}
	return leaves
}

// Bytes16Padded is a tiny local helper (not exported from the package) so the
// test data doesn't depend on any particular production encoding.
func (a Fp) Bytes16Padded() [32]byte {
	var out [32]byte
	b := a.Bytes()
	copy(out[:16], b[:])
	return out
}

func TestMerkleTreeProveVerifySingleLeaf(t *testing.T) {
	hasher, err := NewHasher("sha3")
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	leaves := leavesFor(t, 8)
	tree, err := NewMerkleTree(hasher, leaves)
	if err != nil {
		t.Fatalf("NewMerkleTree: %v", err)
	}
	for i := range leaves {
		path, err := tree.Prove(i)
		if err != nil {
			t.Fatalf("Prove(%d): %v", i, err)
		}
		if !Verify(hasher, tree.Root(), i, leaves[i], path) {
			t.Errorf("Verify failed for leaf %d", i)
		}
	}
}

func TestMerkleTreeVerifyRejectsWrongLeaf(t *testing.T) {
	hasher, _ := NewHasher("sha3")
	leaves := leavesFor(t, 8)
	tree, _ := NewMerkleTree(hasher, leaves)
	path, _ := tree.Prove(3)
	wrong := FpFromUint64(999).Bytes16Padded()
	if Verify(hasher, tree.Root(), 3, wrong, path) {
		t.Error("Verify accepted a tampered leaf")
	}
}

func TestMerkleTreeRejectsNonPowerOfTwo(t *testing.T) {
	hasher, _ := NewHasher("sha3")
	if _, err := NewMerkleTree(hasher, leavesFor(t, 5)); err == nil {
		t.Error("expected an error for a non-power-of-two leaf count")
	}
}

func TestMerkleTreeBatchProof(t *testing.T) {
	hasher, _ := NewHasher("sha3")
	leaves := leavesFor(t, 16)
	tree, err := NewMerkleTree(hasher, leaves)
	if err != nil {
		t.Fatalf("NewMerkleTree: %v", err)
	}
	indices := []int{1, 2, 9, 15}
	proof, err := tree.ProveBatch(indices)
	if err != nil {
		t.Fatalf("ProveBatch: %v", err)
	}
	if !VerifyBatch(hasher, tree.Root(), proof) {
		t.Error("VerifyBatch rejected a genuine batch proof")
	}

	proof.Leaves[0] = FpFromUint64(7777).Bytes16Padded()
	if VerifyBatch(hasher, tree.Root(), proof) {
		t.Error("VerifyBatch accepted a tampered batch proof")
	}
}
