package vm

import (
	"fmt"

	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/core"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/program"
)

// execute applies one op's semantics to state, mutating the stack and
// hash-state registers (spec.md §4.H "Operation semantics"). It returns the
// op_value HashOp should inject for this step (most ops inject zero; PUSH
// injects its immediate).
func execute(s *State, op program.Op) (core.Fp, error) {
	switch op.Code {
	case program.NOOP:
		return core.Zero(), nil

	case program.ASSERT:
		top, err := s.Pop()
		if err != nil {
			return core.Zero(), err
		}
		if !top.Equal(core.One()) {
			return core.Zero(), fmt.Errorf("vm: %w: ASSERT failed at step %d", ErrTraceBuildFailed, s.Step)
		}
		return core.Zero(), nil

	case program.PUSH:
		if err := s.Push(op.Value); err != nil {
			return core.Zero(), err
		}
		return op.Value, nil

	case program.READ:
		v, err := s.NextPublic()
		if err != nil {
			return core.Zero(), err
		}
		return v, s.Push(v)

	case program.READ2:
		a, b, err := s.NextSecretPair()
		if err != nil {
			return core.Zero(), err
		}
		if err := s.Push(a); err != nil {
			return core.Zero(), err
		}
		return b, s.Push(b)

	case program.DUP:
		return core.Zero(), s.Push(s.Peek(0))

	case program.DUP2:
		a, b := s.Peek(0), s.Peek(1)
		if err := s.Push(b); err != nil {
			return core.Zero(), err
		}
		return core.Zero(), s.Push(a)

	case program.DUP4:
		vals := [4]core.Fp{s.Peek(0), s.Peek(1), s.Peek(2), s.Peek(3)}
		for i := 3; i >= 0; i-- {
			if err := s.Push(vals[i]); err != nil {
				return core.Zero(), err
			}
		}
		return core.Zero(), nil

	case program.PAD2:
		if err := s.Push(core.Zero()); err != nil {
			return core.Zero(), err
		}
		return core.Zero(), s.Push(core.Zero())

	case program.DROP:
		_, err := s.Pop()
		return core.Zero(), err

	case program.DROP4:
		for i := 0; i < 4; i++ {
			if _, err := s.Pop(); err != nil {
				return core.Zero(), err
			}
		}
		return core.Zero(), nil

	case program.SWAP:
		a, b := s.Peek(0), s.Peek(1)
		s.Set(0, b)
		s.Set(1, a)
		return core.Zero(), nil

	case program.SWAP2:
		for i := 0; i < 2; i++ {
			a, b := s.Peek(i), s.Peek(i+2)
			s.Set(i, b)
			s.Set(i+2, a)
		}
		return core.Zero(), nil

	case program.SWAP4:
		for i := 0; i < 4; i++ {
			a, b := s.Peek(i), s.Peek(i+4)
			s.Set(i, b)
			s.Set(i+4, a)
		}
		return core.Zero(), nil

	case program.ROLL4:
		last := s.Peek(3)
		for i := 3; i > 0; i-- {
			s.Set(i, s.Peek(i-1))
		}
		s.Set(0, last)
		return core.Zero(), nil

	case program.ROLL8:
		last := s.Peek(7)
		for i := 7; i > 0; i-- {
			s.Set(i, s.Peek(i-1))
		}
		s.Set(0, last)
		return core.Zero(), nil

	case program.ADD:
		a, err := s.Pop()
		if err != nil {
			return core.Zero(), err
		}
		b, err := s.Pop()
		if err != nil {
			return core.Zero(), err
		}
		return core.Zero(), s.Push(a.Add(b))

	case program.MUL:
		a, err := s.Pop()
		if err != nil {
			return core.Zero(), err
		}
		b, err := s.Pop()
		if err != nil {
			return core.Zero(), err
		}
		return core.Zero(), s.Push(a.Mul(b))

	case program.NEG:
		a, err := s.Pop()
		if err != nil {
			return core.Zero(), err
		}
		return core.Zero(), s.Push(a.Neg())

	case program.INV:
		a, err := s.Pop()
		if err != nil {
			return core.Zero(), err
		}
		return core.Zero(), s.Push(a.Inv())

	case program.NOT:
		a, err := s.Pop()
		if err != nil {
			return core.Zero(), err
		}
		if !a.IsZero() && !a.Equal(core.One()) {
			return core.Zero(), fmt.Errorf("vm: %w: NOT requires a binary operand", ErrInvalidInput)
		}
		return core.Zero(), s.Push(core.One().Sub(a))

	case program.EQ:
		a, err := s.Pop()
		if err != nil {
			return core.Zero(), err
		}
		b, err := s.Pop()
		if err != nil {
			return core.Zero(), err
		}
		if a.Equal(b) {
			return core.Zero(), s.Push(core.One())
		}
		return core.Zero(), s.Push(core.Zero())

	case program.CMP:
		// Simplified whole-value comparison: derives lt/gt of the top two
		// operands in one step rather than the original's bit-serial,
		// 128-step accumulator protocol, whose exact per-step register
		// wiring is not recoverable from the distilled contract alone (see
		// DESIGN.md). The externally observable result — both operands and
		// their lt/gt flags left on the stack — matches spec.md §4.H.
		a, err := s.Pop()
		if err != nil {
			return core.Zero(), err
		}
		b, err := s.Pop()
		if err != nil {
			return core.Zero(), err
		}
		lt, gt := core.Zero(), core.Zero()
		switch a.Cmp(b) {
		case -1:
			lt = core.One()
		case 1:
			gt = core.One()
		}
		if err := s.Push(b); err != nil {
			return core.Zero(), err
		}
		if err := s.Push(a); err != nil {
			return core.Zero(), err
		}
		if err := s.Push(lt); err != nil {
			return core.Zero(), err
		}
		return core.Zero(), s.Push(gt)

	case program.BINACC:
		bit, err := s.Pop()
		if err != nil {
			return core.Zero(), err
		}
		if !bit.IsZero() && !bit.Equal(core.One()) {
			return core.Zero(), fmt.Errorf("vm: %w: BINACC requires a binary bit", ErrInvalidInput)
		}
		acc, err := s.Pop()
		if err != nil {
			return core.Zero(), err
		}
		two := core.FpFromUint64(2)
		return core.Zero(), s.Push(acc.Mul(two).Add(bit))

	case program.CHOOSE:
		cond, err := s.Pop()
		if err != nil {
			return core.Zero(), err
		}
		if !cond.IsZero() && !cond.Equal(core.One()) {
			return core.Zero(), fmt.Errorf("vm: %w: CHOOSE requires a binary condition", ErrInvalidInput)
		}
		onTrue, err := s.Pop()
		if err != nil {
			return core.Zero(), err
		}
		onFalse, err := s.Pop()
		if err != nil {
			return core.Zero(), err
		}
		if cond.Equal(core.One()) {
			return core.Zero(), s.Push(onTrue)
		}
		return core.Zero(), s.Push(onFalse)

	case program.CHOOSE2:
		cond, err := s.Pop()
		if err != nil {
			return core.Zero(), err
		}
		if !cond.IsZero() && !cond.Equal(core.One()) {
			return core.Zero(), fmt.Errorf("vm: %w: CHOOSE2 requires a binary condition", ErrInvalidInput)
		}
		trueA, trueB := s.Peek(0), s.Peek(1)
		falseA, falseB := s.Peek(2), s.Peek(3)
		for i := 0; i < 4; i++ {
			if _, err := s.Pop(); err != nil {
				return core.Zero(), err
			}
		}
		if cond.Equal(core.One()) {
			if err := s.Push(trueB); err != nil {
				return core.Zero(), err
			}
			return core.Zero(), s.Push(trueA)
		}
		if err := s.Push(falseB); err != nil {
			return core.Zero(), err
		}
		return core.Zero(), s.Push(falseA)

	case program.HASHR:
		var block [4]core.Fp
		for i := 0; i < 4; i++ {
			block[i] = s.Peek(i)
		}
		s.HashState[0] = s.HashState[0].Add(block[0])
		s.HashState[1] = s.HashState[1].Add(block[1])
		s.HashState[2] = s.HashState[2].Add(block[2])
		s.HashState[3] = s.HashState[3].Add(block[3])
		core.RescuePermute(&s.HashState)
		s.Set(0, s.HashState[0])
		s.Set(1, s.HashState[1])
		return core.Zero(), nil

	default:
		return core.Zero(), fmt.Errorf("vm: %w: unhandled opcode %s", ErrInvalidInput, op.Code)
	}
}
