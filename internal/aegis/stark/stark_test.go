package stark

import (
	"testing"

	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/core"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/program"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/utils"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/vm"
)

// smallProgram asserts 3+4 == 7, a minimal span exercising a real pop-heavy
// opcode (ADD) and the terminal ASSERT an honest run must satisfy.
func smallProgram() *program.Program {
	span := program.NewSpan(
		program.WithImmediate(program.PUSH, core.FpFromUint64(3)),
		program.WithImmediate(program.PUSH, core.FpFromUint64(4)),
		program.Plain(program.ADD),
		program.WithImmediate(program.PUSH, core.FpFromUint64(7)),
		program.Plain(program.EQ),
		program.Plain(program.ASSERT),
	)
	return program.NewProgram(span)
}

// fastOptions keeps proving and verifying cheap enough for a unit test while
// still exercising the full pipeline (commit, FRI fold, query openings).
func fastOptions() *utils.ProofOptions {
	return utils.DefaultProofOptions().WithExtensionFactor(16).WithNumQueries(4).WithGrindingFactor(0)
}

func TestProveVerifyRoundTrip(t *testing.T) {
	prog := smallProgram()
	proof, claim, err := Prove(prog, vm.ProgramInputs{}, fastOptions())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if claim.ProgramDigest != prog.Root.Hash() {
		t.Error("claim's program digest does not match the program")
	}
	if err := Verify(*claim, proof, fastOptions()); err != nil {
		t.Fatalf("Verify rejected a valid proof: %v", err)
	}
}

func TestVerifyRejectsWrongPublicInput(t *testing.T) {
	prog := smallProgram()
	proof, claim, err := Prove(prog, vm.ProgramInputs{}, fastOptions())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	tampered := *claim
	tampered.Public = []core.Fp{core.One()}
	if err := Verify(tampered, proof, fastOptions()); err == nil {
		t.Error("expected Verify to reject a claim with altered public inputs")
	}
}

func TestVerifyRejectsWrongProgramDigest(t *testing.T) {
	prog := smallProgram()
	proof, claim, err := Prove(prog, vm.ProgramInputs{}, fastOptions())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	tampered := *claim
	tampered.ProgramDigest = tampered.ProgramDigest.Add(core.One())
	if err := Verify(tampered, proof, fastOptions()); err == nil {
		t.Error("expected Verify to reject a mismatched program digest")
	}
}

func TestVerifyRejectsTamperedTraceRoot(t *testing.T) {
	prog := smallProgram()
	proof, claim, err := Prove(prog, vm.ProgramInputs{}, fastOptions())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	proof.TraceRoot[0] ^= 0xFF
	if err := Verify(*claim, proof, fastOptions()); err == nil {
		t.Error("expected Verify to reject a tampered trace root")
	}
}

func TestVerifyRejectsMismatchedExtensionFactor(t *testing.T) {
	prog := smallProgram()
	proof, claim, err := Prove(prog, vm.ProgramInputs{}, fastOptions())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	other := fastOptions().WithExtensionFactor(32)
	if err := Verify(*claim, proof, other); err == nil {
		t.Error("expected Verify to reject options with a different extension factor")
	}
}

func TestClaimValidateRejectsOversizedPublicInput(t *testing.T) {
	tooLong := make([]core.Fp, vm.MinStackDepth+1)
	out := make([]core.Fp, vm.MinStackDepth)
	c := Claim{Public: tooLong, Outputs: out}
	if err := c.Validate(); err == nil {
		t.Error("expected an error for public input longer than MinStackDepth")
	}
}

func TestClaimValidateRejectsWrongOutputsLength(t *testing.T) {
	c := Claim{Outputs: make([]core.Fp, vm.MinStackDepth-1)}
	if err := c.Validate(); err == nil {
		t.Error("expected an error for an outputs vector not exactly MinStackDepth long")
	}
}

func TestLdeDomainSizeIsPowerOfFourCompatible(t *testing.T) {
	domainSize, adjusted := ldeDomainSize(16, 16)
	if log2(domainSize)%2 != 0 {
		t.Errorf("ldeDomainSize(16,16) = %d, log2 is odd", domainSize)
	}
	if adjusted < 16 {
		t.Errorf("adjusted trace length %d is smaller than the input", adjusted)
	}
	if domainSize != adjusted*16 {
		t.Errorf("domainSize = %d, want adjustedTraceLength*extensionFactor = %d", domainSize, adjusted*16)
	}
}
