// Package aegis provides a zero-knowledge virtual machine and STARK proof
// system: execute a program on a small stack machine over a 128-bit prime
// field, then prove in zero knowledge that the execution is correct without
// revealing the secret tapes it consumed.
//
// # Quick Start
//
// Proving a program's execution and verifying the resulting proof:
//
//	prog, err := aegis.NewProgram(
//		program.NewSpan(
//			program.WithImmediate(program.PUSH, core.FpFromUint64(3)),
//			program.WithImmediate(program.PUSH, core.FpFromUint64(4)),
//			program.Plain(program.ADD),
//		),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	inputs := aegis.ProgramInputs{Public: publicTape, SecretA: secretA, SecretB: secretB}
//
//	proof, claim, err := aegis.Prove(prog, inputs, aegis.DefaultProofOptions())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := aegis.Verify(*claim, proof, aegis.DefaultProofOptions()); err != nil {
//		log.Fatal(err)
//	}
//
// # Architecture
//
//   - pkg/aegis/: public API (this package)
//   - internal/aegis/core/: field arithmetic, NTT, Merkle trees, the Rescue
//     hash
//   - internal/aegis/program/: the block-tree program model
//   - internal/aegis/vm/: the trace builder
//   - internal/aegis/air/: the constraint evaluator
//   - internal/aegis/fri/: the FRI low-degree proximity protocol
//   - internal/aegis/stark/: the prover/verifier pipeline wiring the above
//     together
//
// Implementation details under internal/ can change freely without breaking
// this package's exported surface.
//
// # Error handling
//
// Every exported operation returns an *Error (or a nil error), whose Code
// classifies the failure into one of a fixed set: ErrAssembly,
// ErrInvalidInput, ErrTraceBuildFailed, ErrConstraintViolation,
// ErrInvalidProof, or ErrInvalidOptions, with ErrUnknown for a failure that
// matches none of the internal sentinel errors. There is no silent recovery: a
// failed assertion, a malformed proof, or an unsupported option combination
// always surfaces as an error rather than a best-effort result.
//
// # References
//
//   - STARK paper: https://eprint.iacr.org/2018/046
//   - FRI paper: https://eccc.weizmann.ac.il/report/2017/134/
package aegis
