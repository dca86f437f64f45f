package aegis

import (
	"errors"
	"fmt"

	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/fri"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/stark"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/utils"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/vm"
)

// ErrorCode classifies an Error the way spec.md §7 "Error handling design"
// enumerates: every failure a caller sees is one of these, with no silent
// recovery in between.
type ErrorCode int

const (
	ErrUnknown ErrorCode = iota
	// ErrAssembly wraps a failure handed in from outside the module (an
	// external assembler or block-tree builder), passed through unchanged.
	ErrAssembly
	// ErrInvalidInput covers tape size violations, non-binary values fed to
	// CHOOSE/LOOP/SWITCH, and stack underflow/overflow.
	ErrInvalidInput
	// ErrTraceBuildFailed covers a VM assertion failing during execution
	// (ASSERT finding a top value other than 1; the VM has no ASSERTEQ op).
	ErrTraceBuildFailed
	// ErrConstraintViolation: a concrete execution's trace fails the
	// constraint set it should satisfy. stark.Prove reports it when the
	// composition polynomial does not divide exactly by the trace-domain
	// vanishing polynomial; there is no separate constraint-checking pass.
	ErrConstraintViolation
	// ErrInvalidProof covers every way a proof can fail to verify: Merkle
	// mismatch, FRI fold mismatch, remainder degree too high, insufficient
	// proof-of-work, or an opened trace row disagreeing with the quotient
	// FRI proved low-degree.
	ErrInvalidProof
	// ErrInvalidOptions covers an unsupported ProofOptions combination.
	ErrInvalidOptions
)

func (c ErrorCode) String() string {
	switch c {
	case ErrAssembly:
		return "AssemblyError"
	case ErrInvalidInput:
		return "InvalidInput"
	case ErrTraceBuildFailed:
		return "TraceBuildFailed"
	case ErrConstraintViolation:
		return "ConstraintViolation"
	case ErrInvalidProof:
		return "InvalidProof"
	case ErrInvalidOptions:
		return "InvalidOptions"
	default:
		return "Unknown"
	}
}

// Error is the single error type every exported Aegis operation returns,
// carrying enough structure for a caller to branch on Code without parsing
// Message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("aegis: %s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("aegis: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Code, so callers can
// write errors.Is(err, &aegis.Error{Code: aegis.ErrInvalidProof}).
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// newError wraps cause in an *Error of the given code, unless cause is
// already an *Error (in which case it passes through unchanged, since a
// lower layer already classified it).
func newError(code ErrorCode, message string, cause error) *Error {
	var existing *Error
	if errors.As(cause, &existing) {
		return existing
	}
	return &Error{Code: code, Message: message, Cause: cause}
}

// classify maps a sentinel error from an internal package onto the
// ErrorCode spec.md §7 assigns it.
func classify(err error) *Error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, vm.ErrInvalidInput), errors.Is(err, stark.ErrInvalidInput):
		return newError(ErrInvalidInput, "input rejected", err)
	case errors.Is(err, vm.ErrTraceBuildFailed):
		return newError(ErrTraceBuildFailed, "execution assertion failed", err)
	case errors.Is(err, stark.ErrConstraintViolation):
		return newError(ErrConstraintViolation, "trace does not satisfy its constraints", err)
	case errors.Is(err, stark.ErrInvalidProof), errors.Is(err, fri.ErrInvalidFri):
		return newError(ErrInvalidProof, "proof failed verification", err)
	case errors.Is(err, utils.ErrInvalidOptions):
		return newError(ErrInvalidOptions, "unsupported proof options", err)
	default:
		return newError(ErrUnknown, "unclassified failure", err)
	}
}

// assemblyError wraps a failure from program construction (an external
// assembler or hand-built block tree) without reclassifying it, matching
// spec.md §7's "passed through unchanged" contract.
func assemblyError(step int, message string, cause error) *Error {
	return &Error{Code: ErrAssembly, Message: fmt.Sprintf("step %d: %s", step, message), Cause: cause}
}
