package stark

import (
	"fmt"

	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/air"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/core"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/fri"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/program"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/utils"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/vm"
)

// Prove runs the full proving pipeline for prog against inputs: build the
// trace, low-degree extend and Merkle-commit it, arithmetize it into a
// composition quotient via the air package, run FRI over that quotient, and
// open the committed trace at every FRI query position (spec.md §4.K). The
// claim (the program's digest, its public inputs and the outputs it
// produces) is derived from the run itself and returned alongside the proof
// so the caller doesn't have to separately re-run the program to know what
// it's proving.
func Prove(prog *program.Program, inputs vm.ProgramInputs, opts *utils.ProofOptions) (*Proof, *Claim, error) {
	if opts == nil {
		opts = utils.DefaultProofOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}

	trace, _, err := vm.BuildTrace(prog, inputs)
	if err != nil {
		return nil, nil, fmt.Errorf("stark: build trace: %w", err)
	}

	claim := Claim{ProgramDigest: programDigest(prog), Public: inputs.Public, Outputs: trace.Outputs}
	if err := claim.Validate(); err != nil {
		return nil, nil, err
	}

	traceLength := trace.Length
	domainSize, adjusted := ldeDomainSize(traceLength, opts.ExtensionFactor)
	if adjusted != traceLength {
		trace.PadToLength(adjusted)
		traceLength = adjusted
	}

	hasher, err := core.NewHasher(opts.HashFnID)
	if err != nil {
		return nil, nil, fmt.Errorf("stark: %w", err)
	}

	channel := utils.NewChannel(hasher)
	commitClaim(channel, claim, traceLength)

	polys := make([]core.Polynomial, vm.NumColumns)
	for c := 0; c < vm.NumColumns; c++ {
		poly, err := core.InterpolateFFT(trace.Columns[c][:traceLength])
		if err != nil {
			return nil, nil, fmt.Errorf("stark: interpolate column %d: %w", c, err)
		}
		polys[c] = poly
	}
	ldeColumns, err := core.ParallelFFT(polys, domainSize, false)
	if err != nil {
		return nil, nil, fmt.Errorf("stark: extend trace: %w", err)
	}

	leaves := make([][32]byte, domainSize)
	for i := 0; i < domainSize; i++ {
		leaves[i] = hashRow(hasher, rowAt(ldeColumns, i))
	}
	traceTree, err := core.NewMerkleTree(hasher, leaves)
	if err != nil {
		return nil, nil, fmt.Errorf("stark: commit trace: %w", err)
	}
	traceRoot := traceTree.Root()
	channel.Commit(traceRoot[:])

	constraints := air.Build(air.Claim{PublicInputs: claim.Public, Outputs: claim.Outputs, ProgramDigest: claim.ProgramDigest})
	coefficients := channel.DrawFpVector(constraints.NumConstraints())

	composition, err := constraints.EvaluateComposition(ldeColumns, opts.ExtensionFactor, coefficients)
	if err != nil {
		return nil, nil, fmt.Errorf("stark: evaluate composition: %w", err)
	}
	quotient, err := air.CompositionPolynomial(composition, traceLength)
	if err != nil {
		return nil, nil, fmt.Errorf("stark: %w: %v", ErrConstraintViolation, err)
	}
	quotientEvals, err := core.EvalManyFFT(quotient, domainSize)
	if err != nil {
		return nil, nil, fmt.Errorf("stark: evaluate quotient: %w", err)
	}

	domainGen, err := core.GetRootOfUnity(uint64(domainSize))
	if err != nil {
		return nil, nil, fmt.Errorf("stark: %w", err)
	}
	friProof, err := fri.Prove(hasher, quotientEvals, domainGen, friOptionsFrom(opts.NumQueries, opts.GrindingFactor), channel)
	if err != nil {
		return nil, nil, fmt.Errorf("stark: fri: %w", err)
	}

	openings := make([]TraceOpening, len(friProof.Queries))
	for i, q := range friProof.Queries {
		pos := q.Position
		nextPos := (pos + opts.ExtensionFactor) % domainSize
		rowPath, err := traceTree.Prove(pos)
		if err != nil {
			return nil, nil, fmt.Errorf("stark: open trace row %d: %w", pos, err)
		}
		nextPath, err := traceTree.Prove(nextPos)
		if err != nil {
			return nil, nil, fmt.Errorf("stark: open trace row %d: %w", nextPos, err)
		}
		openings[i] = TraceOpening{
			Row:         toRowArray(rowAt(ldeColumns, pos)),
			NextRow:     toRowArray(rowAt(ldeColumns, nextPos)),
			RowPath:     rowPath,
			NextRowPath: nextPath,
		}
	}

	return &Proof{
		TraceLength:     traceLength,
		ExtensionFactor: opts.ExtensionFactor,
		TraceRoot:       traceRoot,
		Openings:        openings,
		Fri:             friProof,
	}, &claim, nil
}

// commitClaim folds the claim's public data and the trace length into the
// transcript before anything else is committed, binding every later
// challenge to the statement being proved (spec.md §5 "Ordering
// guarantees").
func commitClaim(channel *utils.Channel, claim Claim, traceLength int) {
	digestBytes := claim.ProgramDigest.Bytes()
	channel.Commit(digestBytes[:])
	for _, v := range claim.Public {
		b := v.Bytes()
		channel.Commit(b[:])
	}
	for _, v := range claim.Outputs {
		b := v.Bytes()
		channel.Commit(b[:])
	}
	channel.Commit(utils.Uint64Bytes(uint64(traceLength)))
}

// rowAt gathers column i's value from every column into one row.
func rowAt(columns [][]core.Fp, i int) []core.Fp {
	row := make([]core.Fp, len(columns))
	for c, col := range columns {
		row[c] = col[i]
	}
	return row
}

func toRowArray(row []core.Fp) [vm.NumColumns]core.Fp {
	var out [vm.NumColumns]core.Fp
	copy(out[:], row)
	return out
}

// hashRow hashes one trace row into a single Merkle leaf.
func hashRow(hasher core.Hasher, row []core.Fp) [32]byte {
	parts := make([][]byte, len(row))
	bufs := make([][16]byte, len(row))
	for i, v := range row {
		bufs[i] = v.Bytes()
		parts[i] = bufs[i][:]
	}
	var out [32]byte
	hasher.Hash(&out, parts...)
	return out
}
