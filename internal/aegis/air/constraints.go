// Package air arithmetizes the VM's execution trace into polynomial
// constraints: initial, consistency and transition constraints over the
// decoder and stack registers, plus terminal constraints binding the trace's
// last row to the program digest and claimed outputs (spec.md §4.I). The
// constraint categories and the composition-by-random-linear-combination
// approach follow a Triton-VM-style arithmetization, adapted from column
// predicates to the opcode table spec.md §4.H defines.
package air

import (
	"fmt"

	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/core"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/program"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/vm"
)

// RowConstraint evaluates to zero on every row it applies to (Initial:
// row 0 only; Consistency: every row; Terminal: the last row only).
type RowConstraint struct {
	Name   string
	Degree int
	Eval   func(row []core.Fp) core.Fp
}

// TransitionConstraint evaluates to zero across every consecutive row pair.
// cyclePos is current's position mod the Rescue round cycle (spec.md §4.E),
// the index HashOpField needs to pick the right round constants; every
// transition constraint receives it even though only the accumulator-
// evolution constraints currently use it, so Eval's signature doesn't need
// to change again if a future opcode needs cycle-indexed constants too.
type TransitionConstraint struct {
	Name   string
	Degree int
	Eval   func(current, next []core.Fp, cyclePos int) core.Fp
}

// Constraints is the full constraint set for one program, gated on that
// program's digest and input/output claims.
type Constraints struct {
	Initial     []RowConstraint
	Consistency []RowConstraint
	Transition  []TransitionConstraint
	Terminal    []RowConstraint
}

// NumConstraints returns the total constraint count, the width of the
// random-coefficient vector EvaluateComposition consumes.
func (c *Constraints) NumConstraints() int {
	return len(c.Initial) + len(c.Consistency) + len(c.Transition) + len(c.Terminal)
}

// Claim binds a constraint set to one concrete execution: the public inputs
// the initial stack must equal, the outputs the final window must equal, and
// the program digest the accumulator must reduce to (spec.md §4.I "Boundary
// constraints").
type Claim struct {
	PublicInputs  []core.Fp
	Outputs       []core.Fp
	ProgramDigest core.Fp
}

// Build constructs the constraint set for the VM's fixed register layout
// (vm.NumColumns columns: decoder fields, then the stack window), bound to
// claim. Stack-register transition constraints are table-driven over
// stackEffects, which covers every opcode spec.md §4.H defines a stack
// effect for (spec.md §4.I "Stack constraints: for each opcode, a
// polynomial identity..."). Accumulator-evolution transition constraints
// tie every row's ColAcc0..3 to either one hash_op Rescue round or one
// hash_acc fold, gated by ColIsFold, so the Terminal digest check can only
// be satisfied by a trace that actually ran the claimed program (spec.md
// §4.I "Decoder constraints").
func Build(claim Claim) *Constraints {
	c := &Constraints{}

	for i, v := range claim.PublicInputs {
		i, v := i, v
		c.Initial = append(c.Initial, RowConstraint{
			Name: fmt.Sprintf("public_input_%d", i), Degree: 1,
			Eval: func(row []core.Fp) core.Fp {
				return row[vm.ColStackBase+i].Sub(v)
			},
		})
	}
	for i := len(claim.PublicInputs); i < vm.MinStackDepth; i++ {
		i := i
		c.Initial = append(c.Initial, RowConstraint{
			Name: fmt.Sprintf("input_padding_%d_is_zero", i), Degree: 1,
			Eval: func(row []core.Fp) core.Fp { return row[vm.ColStackBase+i] },
		})
	}
	// The accumulator sponge starts from the all-zero Rescue state (spec.md
	// §4.E), matching vm.State{}'s zero-valued AccState before any hash_op
	// or hash_acc round has run.
	for i := 0; i < 4; i++ {
		i := i
		c.Initial = append(c.Initial, RowConstraint{
			Name: fmt.Sprintf("accumulator_%d_starts_at_zero", i), Degree: 1,
			Eval: func(row []core.Fp) core.Fp { return row[vm.ColAcc0+i] },
		})
	}

	for b := 0; b < 5; b++ {
		b := b
		c.Consistency = append(c.Consistency, RowConstraint{
			Name: fmt.Sprintf("op_bit_%d_is_binary", b), Degree: 2,
			Eval: func(row []core.Fp) core.Fp {
				bit := row[vm.ColOpBit0+b]
				return bit.Mul(bit.Sub(core.One()))
			},
		})
	}
	c.Consistency = append(c.Consistency, RowConstraint{
		Name: "opcode_matches_bit_decomposition", Degree: 2,
		Eval: func(row []core.Fp) core.Fp {
			sum := core.Zero()
			for b := 0; b < 5; b++ {
				weight := core.FpFromUint64(uint64(1) << uint(b))
				sum = sum.Add(row[vm.ColOpBit0+b].Mul(weight))
			}
			return row[vm.ColOpcode].Sub(sum)
		},
	})
	c.Consistency = append(c.Consistency, RowConstraint{
		Name: "is_fold_is_binary", Degree: 2,
		Eval: func(row []core.Fp) core.Fp {
			isFold := row[vm.ColIsFold]
			return isFold.Mul(isFold.Sub(core.One()))
		},
	})
	c.Consistency = append(c.Consistency, RowConstraint{
		Name: "is_boundary_fold_is_binary", Degree: 2,
		Eval: func(row []core.Fp) core.Fp {
			isBoundary := row[vm.ColIsBoundaryFold]
			return isBoundary.Mul(isBoundary.Sub(core.One()))
		},
	})

	for _, spec := range stackEffects {
		spec := spec
		c.Transition = append(c.Transition, TransitionConstraint{
			Name: spec.name + "_stack_effect", Degree: spec.degree,
			Eval: func(current, next []core.Fp, cyclePos int) core.Fp {
				selector := opcodeSelector(current, spec.opcode)
				return selector.Mul(spec.residual(current, next))
			},
		})
	}

	for i := 0; i < 4; i++ {
		i := i
		c.Transition = append(c.Transition, TransitionConstraint{
			Name: fmt.Sprintf("accumulator_%d_evolves_by_one_round", i), Degree: 8,
			Eval: func(current, next []core.Fp, cyclePos int) core.Fp {
				isFold := current[vm.ColIsFold]
				notFold := core.One().Sub(isFold)

				folded := core.HashAcc(current[vm.ColFoldH], current[vm.ColFoldV0], current[vm.ColFoldV1])
				foldResidual := next[vm.ColAcc0+i].Sub(folded[i])

				// opValue is nonzero only for the three opcodes that inject a
				// real operand value (PUSH, READ, READ2); in each case it lands
				// at next[ColStackBase+0] by the stack's index-0-is-top
				// convention (vm/instructions.go), so the constraint recovers
				// it from the very next row rather than needing its own
				// column.
				pushSel := opcodeSelector(current, program.PUSH)
				readSel := opcodeSelector(current, program.READ)
				read2Sel := opcodeSelector(current, program.READ2)
				opValue := pushSel.Add(readSel).Add(read2Sel).Mul(next[vm.ColStackBase])

				// BuildTrace folds the root body's trailing boundary NOOP (if any)
				// at the fixed pseudo-step program.BoundaryFoldStep, not at this
				// row's real trace position, to match blockSeq's own static digest
				// convention (program/block.go). ColIsBoundaryFold tags that one
				// row so this constraint recomputes the round at the same step
				// the builder actually used, instead of cyclePos.
				isBoundary := current[vm.ColIsBoundaryFold]
				notBoundary := core.One().Sub(isBoundary)

				var accNormal [4]core.Fp
				copy(accNormal[:], current[vm.ColAcc0:vm.ColAcc0+4])
				core.HashOpField(&accNormal, current[vm.ColOpcode], opValue, cyclePos)

				var accBoundary [4]core.Fp
				copy(accBoundary[:], current[vm.ColAcc0:vm.ColAcc0+4])
				core.HashOpField(&accBoundary, current[vm.ColOpcode], opValue, program.BoundaryFoldStep)

				evolved := next[vm.ColAcc0+i].Sub(notBoundary.Mul(accNormal[i]).Add(isBoundary.Mul(accBoundary[i])))
				held := next[vm.ColAcc0+i].Sub(current[vm.ColAcc0+i])
				nonFoldResidual := evolved.Mul(held)

				return isFold.Mul(foldResidual).Add(notFold.Mul(nonFoldResidual))
			},
		})
	}

	// Outputs are read off the top MinStackDepth registers of the last row,
	// the same fixed array positions vm.State.Outputs() copies claim.Outputs
	// from — so this constraint holds by construction regardless of the
	// program's final depth. A program that halts deeper than MinStackDepth
	// still has whatever values are left at the top after its last op, which
	// is only meaningful if the program asserted its real result in-program
	// before leaving the stack in that state (spec.md doesn't require a
	// program to rebalance to MinStackDepth before halting).
	for i, v := range claim.Outputs {
		i, v := i, v
		c.Terminal = append(c.Terminal, RowConstraint{
			Name: fmt.Sprintf("output_%d", i), Degree: 1,
			Eval: func(row []core.Fp) core.Fp {
				return row[vm.ColStackBase+i].Sub(v)
			},
		})
	}
	c.Terminal = append(c.Terminal, RowConstraint{
		Name: "accumulator_matches_program_digest", Degree: 1,
		Eval: func(row []core.Fp) core.Fp {
			return row[vm.ColAcc0].Sub(claim.ProgramDigest)
		},
	})

	return c
}

// opcodeSelector returns 1 when current's opcode bits exactly match target,
// 0 otherwise, built as a product of (bit) or (1-bit) per bit of target —
// the same indicator-polynomial pattern Triton-VM-style instruction-bit
// constraints use, generalized from 3 bits to 5.
func opcodeSelector(row []core.Fp, target program.Opcode) core.Fp {
	sel := core.One()
	for b := 0; b < 5; b++ {
		bit := row[vm.ColOpBit0+b]
		if (uint8(target)>>uint(b))&1 == 1 {
			sel = sel.Mul(bit)
		} else {
			sel = sel.Mul(core.One().Sub(bit))
		}
	}
	return sel
}

// stackEffectSpec names a pure-stack-effect opcode's transition residual:
// a polynomial in (current, next) stack registers that is zero exactly
// when next's window is the claimed function of current's.
type stackEffectSpec struct {
	name     string
	opcode   program.Opcode
	degree   int
	residual func(current, next []core.Fp) core.Fp
}

func stackAt(row []core.Fp, i int) core.Fp { return row[vm.ColStackBase+i] }

func hashAt(row []core.Fp, i int) core.Fp { return row[vm.ColHash0+i] }

// binary returns v*(v-1), zero exactly when v is 0 or 1 — the standard
// indicator-bit gadget used wherever an opcode's instructions.go semantics
// requires (and execute() runtime-checks) a binary operand, since the AIR
// has no other way to forbid a dishonest prover from feeding a non-binary
// value into these opcodes.
func binary(v core.Fp) core.Fp { return v.Mul(v.Sub(core.One())) }

var stackEffects = []stackEffectSpec{
	{
		name: "add", opcode: program.ADD, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			return stackAt(next, 0).Sub(stackAt(cur, 0).Add(stackAt(cur, 1)))
		},
	},
	{
		name: "mul", opcode: program.MUL, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			return stackAt(next, 0).Sub(stackAt(cur, 0).Mul(stackAt(cur, 1)))
		},
	},
	{
		name: "neg", opcode: program.NEG, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			return stackAt(next, 0).Add(stackAt(cur, 0))
		},
	},
	{
		name: "dup", opcode: program.DUP, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			return stackAt(next, 0).Sub(stackAt(cur, 0))
		},
	},
	{
		name: "drop", opcode: program.DROP, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			return stackAt(next, 0).Sub(stackAt(cur, 1))
		},
	},
	{
		name: "swap", opcode: program.SWAP, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			a := stackAt(next, 0).Sub(stackAt(cur, 1))
			b := stackAt(next, 1).Sub(stackAt(cur, 0))
			return a.Add(b)
		},
	},
	// PUSH/READ/READ2 inject a free value (an immediate, a public-tape
	// value, or a secret-tape pair) that nothing in the trace window
	// constrains directly — that binding instead runs through the
	// accumulator-evolution constraint, which recovers the injected value
	// from next[ColStackBase+0] and folds it into hash_op (see
	// accumulator_%d_evolves_by_one_round below). Here it's enough to check
	// the push shifts the rest of the window down by the right count.
	{
		name: "push", opcode: program.PUSH, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			return stackAt(next, 1).Sub(stackAt(cur, 0))
		},
	},
	{
		name: "read", opcode: program.READ, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			return stackAt(next, 1).Sub(stackAt(cur, 0))
		},
	},
	{
		name: "read2", opcode: program.READ2, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			return stackAt(next, 2).Sub(stackAt(cur, 0))
		},
	},
	{
		name: "dup2", opcode: program.DUP2, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			r := stackAt(next, 0).Sub(stackAt(cur, 0))
			r = r.Add(stackAt(next, 1).Sub(stackAt(cur, 1)))
			r = r.Add(stackAt(next, 2).Sub(stackAt(cur, 0)))
			r = r.Add(stackAt(next, 3).Sub(stackAt(cur, 1)))
			return r
		},
	},
	{
		name: "dup4", opcode: program.DUP4, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			r := core.Zero()
			for i := 0; i < 4; i++ {
				r = r.Add(stackAt(next, i).Sub(stackAt(cur, i)))
				r = r.Add(stackAt(next, i+4).Sub(stackAt(cur, i)))
			}
			return r
		},
	},
	{
		name: "pad2", opcode: program.PAD2, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			r := stackAt(next, 0).Add(stackAt(next, 1))
			r = r.Add(stackAt(next, 2).Sub(stackAt(cur, 0)))
			r = r.Add(stackAt(next, 3).Sub(stackAt(cur, 1)))
			return r
		},
	},
	{
		name: "drop4", opcode: program.DROP4, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			r := core.Zero()
			for i := 0; i < 4; i++ {
				r = r.Add(stackAt(next, i).Sub(stackAt(cur, i+4)))
			}
			return r
		},
	},
	{
		name: "swap2", opcode: program.SWAP2, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			r := core.Zero()
			for i := 0; i < 2; i++ {
				r = r.Add(stackAt(next, i).Sub(stackAt(cur, i+2)))
				r = r.Add(stackAt(next, i+2).Sub(stackAt(cur, i)))
			}
			return r
		},
	},
	{
		name: "swap4", opcode: program.SWAP4, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			r := core.Zero()
			for i := 0; i < 4; i++ {
				r = r.Add(stackAt(next, i).Sub(stackAt(cur, i+4)))
				r = r.Add(stackAt(next, i+4).Sub(stackAt(cur, i)))
			}
			return r
		},
	},
	{
		name: "roll4", opcode: program.ROLL4, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			r := stackAt(next, 0).Sub(stackAt(cur, 3))
			for i := 1; i < 4; i++ {
				r = r.Add(stackAt(next, i).Sub(stackAt(cur, i-1)))
			}
			return r
		},
	},
	{
		name: "roll8", opcode: program.ROLL8, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			r := stackAt(next, 0).Sub(stackAt(cur, 7))
			for i := 1; i < 8; i++ {
				r = r.Add(stackAt(next, i).Sub(stackAt(cur, i-1)))
			}
			return r
		},
	},
	// INV/NOT/EQ/CMP/BINACC/CHOOSE/CHOOSE2 need their binary-operand
	// invariant enforced too (instructions.go's execute() runtime-checks it,
	// but a prover building its own trace bypasses execute() entirely), so
	// each contributes more than one table row.
	{
		name: "inv_forward", opcode: program.INV, degree: 3,
		residual: func(cur, next []core.Fp) core.Fp {
			a, w := stackAt(cur, 0), stackAt(next, 0)
			return a.Mul(a.Mul(w).Sub(core.One()))
		},
	},
	{
		name: "inv_zero_convention", opcode: program.INV, degree: 3,
		residual: func(cur, next []core.Fp) core.Fp {
			a, w := stackAt(cur, 0), stackAt(next, 0)
			return w.Mul(a.Mul(w).Sub(core.One()))
		},
	},
	{
		name: "not_output", opcode: program.NOT, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			return stackAt(next, 0).Sub(core.One().Sub(stackAt(cur, 0)))
		},
	},
	{
		name: "not_operand_binary", opcode: program.NOT, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			return binary(stackAt(cur, 0))
		},
	},
	{
		name: "eq_output_binary", opcode: program.EQ, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			return binary(stackAt(next, 0))
		},
	},
	{
		// If the operands differ, the claimed result must be 0 (it forces
		// next0=0 whenever cur0 != cur1); the converse direction — next0
		// must be 1 when the operands actually match — would need an
		// explicit inverse-of-difference witness column this trace layout
		// doesn't carry, so it is not enforced here (see DESIGN.md).
		name: "eq_forces_zero_on_mismatch", opcode: program.EQ, degree: 3,
		residual: func(cur, next []core.Fp) core.Fp {
			return stackAt(next, 0).Mul(stackAt(cur, 0).Sub(stackAt(cur, 1)))
		},
	},
	{
		// CMP leaves gt on top, lt below it, then the popped operands in their
		// original order (a at slot 2, b at slot 3). Operand preservation and
		// binary/mutually exclusive lt/gt flags are enforced; the flags' actual correctness
		// relative to the operands' magnitudes is out of scope without the
		// bit-serial accumulator protocol instructions.go's CMP case already
		// documents as not recoverable from the distilled contract (see
		// DESIGN.md and instructions.go's CMP comment).
		name: "cmp_operands_preserved", opcode: program.CMP, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			r := stackAt(next, 2).Sub(stackAt(cur, 0))
			return r.Add(stackAt(next, 3).Sub(stackAt(cur, 1)))
		},
	},
	{
		name: "cmp_lt_binary", opcode: program.CMP, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp { return binary(stackAt(next, 1)) },
	},
	{
		name: "cmp_gt_binary", opcode: program.CMP, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp { return binary(stackAt(next, 0)) },
	},
	{
		name: "cmp_flags_mutually_exclusive", opcode: program.CMP, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			return stackAt(next, 0).Mul(stackAt(next, 1))
		},
	},
	{
		name: "binacc_output", opcode: program.BINACC, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			two := core.FpFromUint64(2)
			return stackAt(next, 0).Sub(stackAt(cur, 1).Mul(two).Add(stackAt(cur, 0)))
		},
	},
	{
		name: "binacc_bit_binary", opcode: program.BINACC, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp { return binary(stackAt(cur, 0)) },
	},
	{
		name: "choose_output", opcode: program.CHOOSE, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			cond, onTrue, onFalse := stackAt(cur, 0), stackAt(cur, 1), stackAt(cur, 2)
			return stackAt(next, 0).Sub(onFalse.Add(cond.Mul(onTrue.Sub(onFalse))))
		},
	},
	{
		name: "choose_cond_binary", opcode: program.CHOOSE, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp { return binary(stackAt(cur, 0)) },
	},
	{
		name: "choose2_a", opcode: program.CHOOSE2, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			cond, trueA, falseA := stackAt(cur, 0), stackAt(cur, 1), stackAt(cur, 3)
			return stackAt(next, 0).Sub(falseA.Add(cond.Mul(trueA.Sub(falseA))))
		},
	},
	{
		name: "choose2_b", opcode: program.CHOOSE2, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp {
			cond, trueB, falseB := stackAt(cur, 0), stackAt(cur, 2), stackAt(cur, 4)
			return stackAt(next, 1).Sub(falseB.Add(cond.Mul(trueB.Sub(falseB))))
		},
	},
	{
		name: "choose2_cond_binary", opcode: program.CHOOSE2, degree: 2,
		residual: func(cur, next []core.Fp) core.Fp { return binary(stackAt(cur, 0)) },
	},
	{
		name: "hashr_hash_0", opcode: program.HASHR, degree: 8,
		residual: func(cur, next []core.Fp) core.Fp {
			return next[vm.ColHash0].Sub(hashrNewState(cur)[0])
		},
	},
	{
		name: "hashr_hash_1", opcode: program.HASHR, degree: 8,
		residual: func(cur, next []core.Fp) core.Fp {
			return next[vm.ColHash0+1].Sub(hashrNewState(cur)[1])
		},
	},
	{
		name: "hashr_hash_2", opcode: program.HASHR, degree: 8,
		residual: func(cur, next []core.Fp) core.Fp {
			return next[vm.ColHash0+2].Sub(hashrNewState(cur)[2])
		},
	},
	{
		name: "hashr_hash_3", opcode: program.HASHR, degree: 8,
		residual: func(cur, next []core.Fp) core.Fp {
			return next[vm.ColHash0+3].Sub(hashrNewState(cur)[3])
		},
	},
	{
		name: "hashr_stack_0", opcode: program.HASHR, degree: 8,
		residual: func(cur, next []core.Fp) core.Fp {
			return stackAt(next, 0).Sub(hashrNewState(cur)[0])
		},
	},
	{
		name: "hashr_stack_1", opcode: program.HASHR, degree: 8,
		residual: func(cur, next []core.Fp) core.Fp {
			return stackAt(next, 1).Sub(hashrNewState(cur)[1])
		},
	},
}

// hashrNewState recomputes HASHR's post-permutation in-stack sponge state:
// the top 4 stack registers absorbed into the current hash state, then one
// full Rescue permutation (vm/instructions.go's HASHR case, spec.md §4.H
// "RESCR/HASHR").
func hashrNewState(cur []core.Fp) [4]core.Fp {
	state := [4]core.Fp{hashAt(cur, 0), hashAt(cur, 1), hashAt(cur, 2), hashAt(cur, 3)}
	for i := 0; i < 4; i++ {
		state[i] = state[i].Add(stackAt(cur, i))
	}
	core.RescuePermute(&state)
	return state
}

// EvaluateComposition folds every constraint, evaluated at every low-degree
// extended row it applies to, into one composition vector over the LDE
// domain, weighted by coefficients drawn from the Fiat-Shamir transcript
// (spec.md §4.I, §4.K). columns are the extension-factor-extended trace
// columns (length traceSteps*extensionFactor each); row i's transition
// constraints compare row i against row (i+extensionFactor) mod numRows,
// since the trace-domain generator is the LDE-domain generator raised to
// extensionFactor (spec.md §4.B "the trace domain is a subgroup of the LDE
// domain"). Initial constraints apply only at LDE index 0 and terminal
// constraints only at the LDE index of the trace's last step, folding
// boundary terms into the same vanishing-polynomial division as transition
// constraints rather than a separate per-point divisor.
func (c *Constraints) EvaluateComposition(columns [][]core.Fp, extensionFactor int, coefficients []core.Fp) ([]core.Fp, error) {
	if len(columns) != vm.NumColumns {
		return nil, fmt.Errorf("air: expected %d columns, got %d", vm.NumColumns, len(columns))
	}
	if len(coefficients) < c.NumConstraints() {
		return nil, fmt.Errorf("air: need %d coefficients, got %d", c.NumConstraints(), len(coefficients))
	}
	numRows := len(columns[0])
	if numRows == 0 || numRows%extensionFactor != 0 {
		return nil, fmt.Errorf("air: LDE domain size %d not a multiple of extension factor %d", numRows, extensionFactor)
	}
	for _, col := range columns {
		if len(col) != numRows {
			return nil, fmt.Errorf("air: ragged column lengths")
		}
	}
	lastStepIndex := c.LastStepIndex(numRows, extensionFactor)

	row := func(i int) []core.Fp {
		r := make([]core.Fp, vm.NumColumns)
		for col := 0; col < vm.NumColumns; col++ {
			r[col] = columns[col][i]
		}
		return r
	}

	composition := make([]core.Fp, numRows)
	for i := 0; i < numRows; i++ {
		cur := row(i)
		next := row((i + extensionFactor) % numRows)
		traceStep := i / extensionFactor
		composition[i] = c.EvaluateAt(cur, next, traceStep, i == 0, i == lastStepIndex, coefficients)
	}
	return composition, nil
}

// LastStepIndex returns the LDE-domain index of the trace's last step, given
// the LDE domain size and the extension factor that relates it to the trace
// domain (spec.md §4.I).
func (c *Constraints) LastStepIndex(numRows, extensionFactor int) int {
	traceSteps := numRows / extensionFactor
	return (traceSteps - 1) * extensionFactor
}

// EvaluateAt folds every constraint category applicable at one LDE-domain
// position into a single value: Initial only when isFirst, Terminal only
// when isLast, Consistency at every position, and Transition at every
// position except isLast, since the trace's last step has no successor row
// (its "next" row would wrap around to row 0) (spec.md §4.I).
// traceStep is current's position in the unextended trace (i.e. LDE index
// divided by the extension factor), the step counter HashOpField indexes
// its Rescue round constants by. This is the single-position core
// EvaluateComposition loops over; the prover and verifier also call it
// directly at individual FRI query positions to recompute the composition
// value a trace opening implies, without materializing the full LDE-sized
// vector.
func (c *Constraints) EvaluateAt(current, next []core.Fp, traceStep int, isFirst, isLast bool, coefficients []core.Fp) core.Fp {
	coeffIdx := 0
	value := core.Zero()

	if isFirst {
		for _, constraint := range c.Initial {
			value = value.Add(constraint.Eval(current).Mul(coefficients[coeffIdx]))
			coeffIdx++
		}
	} else {
		coeffIdx += len(c.Initial)
	}

	for _, constraint := range c.Consistency {
		value = value.Add(constraint.Eval(current).Mul(coefficients[coeffIdx]))
		coeffIdx++
	}

	if !isLast {
		for _, constraint := range c.Transition {
			value = value.Add(constraint.Eval(current, next, traceStep).Mul(coefficients[coeffIdx]))
			coeffIdx++
		}
	} else {
		coeffIdx += len(c.Transition)
	}

	if isLast {
		for _, constraint := range c.Terminal {
			value = value.Add(constraint.Eval(current).Mul(coefficients[coeffIdx]))
			coeffIdx++
		}
	}

	return value
}

// VanishingPolynomial returns Z(X) = X^domainSize - 1, the polynomial that
// is zero on every point of the order-domainSize multiplicative subgroup
// (spec.md §4.I "the composition polynomial is divided by the vanishing
// polynomial of the trace domain").
func VanishingPolynomial(domainSize int) core.Polynomial {
	coeffs := make(core.Polynomial, domainSize+1)
	for i := range coeffs {
		coeffs[i] = core.Zero()
	}
	coeffs[0] = core.One().Neg()
	coeffs[domainSize] = core.One()
	return coeffs
}

// CompositionPolynomial interpolates composition (evaluated over the LDE
// domain by EvaluateComposition) and divides out the trace domain's
// vanishing polynomial, returning the low-degree quotient a valid
// execution's composition must reduce to (spec.md §4.I, §4.K). traceLength
// is the unextended trace's length.
func CompositionPolynomial(composition []core.Fp, traceLength int) (core.Polynomial, error) {
	h, err := core.InterpolateFFT(composition)
	if err != nil {
		return nil, fmt.Errorf("air: interpolate composition: %w", err)
	}
	z := VanishingPolynomial(traceLength)
	q, err := h.Div(z)
	if err != nil {
		return nil, fmt.Errorf("air: composition not divisible by vanishing polynomial: %w", err)
	}
	return q, nil
}
