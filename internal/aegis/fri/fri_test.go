package fri

import (
	"testing"

	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/core"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/utils"
)

func lowDegreeEvaluations(t *testing.T, domainSize int, degree int) ([]core.Fp, core.Fp) {
	t.Helper()
	gen, err := core.GetRootOfUnity(uint64(domainSize))
	if err != nil {
		t.Fatalf("GetRootOfUnity: %v", err)
	}
	coeffs := make(core.Polynomial, degree+1)
	for i := range coeffs {
		coeffs[i] = core.FpFromUint64(uint64(i + 1))
	}
	points := core.GetPowerSeries(gen, domainSize)
	evals := make([]core.Fp, domainSize)
	for i, x := range points {
		evals[i] = coeffs.Eval(x)
	}
	return evals, gen
}

func TestProveVerifyRoundTrip(t *testing.T) {
	hasher, err := core.NewHasher("blake3")
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	const domainSize = 256
	evals, gen := lowDegreeEvaluations(t, domainSize, 3)

	opts := Options{MaxRemainderLength: 16, NumQueries: 8, GrindingFactor: 0}

	proveChannel := utils.NewChannel(hasher)
	proof, err := Prove(hasher, evals, gen, opts, proveChannel)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	verifyChannel := utils.NewChannel(hasher)
	if err := Verify(hasher, proof, gen, domainSize, opts, verifyChannel); err != nil {
		t.Fatalf("Verify rejected a valid proof: %v", err)
	}
}

func TestVerifyRejectsTamperedRemainder(t *testing.T) {
	hasher, err := core.NewHasher("blake3")
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	const domainSize = 256
	evals, gen := lowDegreeEvaluations(t, domainSize, 3)
	opts := Options{MaxRemainderLength: 16, NumQueries: 8, GrindingFactor: 0}

	proveChannel := utils.NewChannel(hasher)
	proof, err := Prove(hasher, evals, gen, opts, proveChannel)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	proof.Remainder[0] = proof.Remainder[0].Add(core.One())

	verifyChannel := utils.NewChannel(hasher)
	if err := Verify(hasher, proof, gen, domainSize, opts, verifyChannel); err == nil {
		t.Error("expected Verify to reject a tampered remainder")
	}
}

func TestVerifyRejectsTamperedQueryValue(t *testing.T) {
	hasher, err := core.NewHasher("blake3")
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	const domainSize = 256
	evals, gen := lowDegreeEvaluations(t, domainSize, 3)
	opts := Options{MaxRemainderLength: 16, NumQueries: 8, GrindingFactor: 0}

	proveChannel := utils.NewChannel(hasher)
	proof, err := Prove(hasher, evals, gen, opts, proveChannel)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	proof.Queries[0].Layers[0].Values[0] = proof.Queries[0].Layers[0].Values[0].Add(core.One())

	verifyChannel := utils.NewChannel(hasher)
	if err := Verify(hasher, proof, gen, domainSize, opts, verifyChannel); err == nil {
		t.Error("expected Verify to reject a tampered query opening")
	}
}

func TestVerifyRejectsWrongDomainSize(t *testing.T) {
	hasher, err := core.NewHasher("blake3")
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	opts := Options{MaxRemainderLength: 16, NumQueries: 8, GrindingFactor: 0}
	gen, _ := core.GetRootOfUnity(256)
	if err := Verify(hasher, &Proof{}, gen, 100, opts, utils.NewChannel(hasher)); err == nil {
		t.Error("expected Verify to reject a non-power-of-four domain size")
	}
}

func TestGrindProducesNonceMeetingGrindingFactor(t *testing.T) {
	hasher, err := core.NewHasher("blake3")
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	channel := utils.NewChannel(hasher)
	channel.Commit([]byte("seed"))
	state := channel.State()
	nonce := grind(hasher, channel, 4)
	var digest [32]byte
	hasher.Hash(&digest, state[:], utils.Uint64Bytes(nonce))
	if leadingZeroBits(digest) < 4 {
		t.Error("grind produced a nonce that doesn't meet the requested grinding factor")
	}
}
