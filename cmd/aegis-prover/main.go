// Command aegis-prover reads a program and its inputs as a single JSON
// object from stdin, executes and proves it, and writes a summary of the
// resulting proof to stdout as JSON. Progress is logged to stderr via a
// stdin-JSON-lines/logStderr/fatal CLI shape.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/core"
	"github.com/aegis-zkvm/aegis-stark-vm/internal/aegis/program"
	"github.com/aegis-zkvm/aegis-stark-vm/pkg/aegis"
)

// request is the CLI's input wire format: a flat instruction list (no
// nested block-tree syntax) plus the three input tapes and optional proof
// options overrides.
type request struct {
	Instructions []string `json:"instructions"`
	Public       []uint64 `json:"public"`
	SecretA      []uint64 `json:"secret_a"`
	SecretB      []uint64 `json:"secret_b"`

	ExtensionFactor int    `json:"extension_factor,omitempty"`
	NumQueries      int    `json:"num_queries,omitempty"`
	GrindingFactor  int    `json:"grinding_factor,omitempty"`
	HashFnID        string `json:"hash_fn_id,omitempty"`
}

type response struct {
	ProgramDigest   string `json:"program_digest"`
	TraceLength     int    `json:"trace_length"`
	ExtensionFactor int    `json:"extension_factor"`
	TraceRoot       string `json:"trace_root"`
	NumQueries      int    `json:"num_queries"`
	Outputs         []string `json:"outputs"`
}

func main() {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if !scanner.Scan() {
		fatal("failed to read request")
	}
	var req request
	if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
		fatal(fmt.Sprintf("failed to parse request: %v", err))
	}

	logStderr("assembling program...")
	prog, err := assemble(req.Instructions)
	if err != nil {
		fatal(fmt.Sprintf("assembly failed: %v", err))
	}

	opts := aegis.DefaultProofOptions()
	if req.ExtensionFactor != 0 {
		opts.WithExtensionFactor(req.ExtensionFactor)
	}
	if req.NumQueries != 0 {
		opts.WithNumQueries(req.NumQueries)
	}
	if req.GrindingFactor != 0 {
		opts.WithGrindingFactor(req.GrindingFactor)
	}
	if req.HashFnID != "" {
		opts.WithHashFn(req.HashFnID)
	}

	inputs := aegis.ProgramInputs{
		Public:  toFieldElements(req.Public),
		SecretA: toFieldElements(req.SecretA),
		SecretB: toFieldElements(req.SecretB),
	}

	logStderr("proving...")
	proof, claim, err := aegis.Prove(prog, inputs, opts)
	if err != nil {
		fatal(fmt.Sprintf("proving failed: %v", err))
	}
	logStderr("verifying the proof it just produced...")
	if err := aegis.Verify(*claim, proof, opts); err != nil {
		fatal(fmt.Sprintf("self-check failed: %v", err))
	}
	logStderr("proof generated and verified")

	digestBytes := claim.ProgramDigest.Bytes()
	outputs := make([]string, len(claim.Outputs))
	for i, v := range claim.Outputs {
		outputs[i] = v.String()
	}

	resp := response{
		ProgramDigest:   fmt.Sprintf("%x", digestBytes),
		TraceLength:     proof.TraceLength,
		ExtensionFactor: proof.ExtensionFactor,
		TraceRoot:       fmt.Sprintf("%x", proof.TraceRoot),
		NumQueries:      len(proof.Openings),
		Outputs:         outputs,
	}
	out, err := json.Marshal(resp)
	if err != nil {
		fatal(fmt.Sprintf("failed to serialize response: %v", err))
	}
	os.Stdout.Write(out)
	os.Stdout.Write([]byte("\n"))
}

// assemble turns a flat list of mnemonic strings (optionally carrying a
// decimal immediate, e.g. "PUSH(42)") into a single-Span Program. It is
// deliberately minimal: Group/Switch/Loop block-tree construction is only
// reachable through the internal/aegis/program APIs directly, not through this
// CLI's flat instruction format.
func assemble(instructions []string) (*aegis.Program, error) {
	ops := make([]program.Op, 0, len(instructions))
	for i, s := range instructions {
		op, err := parseOp(s)
		if err != nil {
			return nil, fmt.Errorf("instruction %d (%q): %w", i, s, err)
		}
		ops = append(ops, op)
	}
	return aegis.NewProgram(program.NewSpan(ops...))
}

func parseOp(s string) (program.Op, error) {
	name, arg, hasArg := splitMnemonic(s)
	if hasArg {
		if name != "PUSH" {
			return program.Op{}, fmt.Errorf("only PUSH takes an immediate, got %q", name)
		}
		return program.WithImmediate(program.PUSH, core.FpFromUint64(arg)), nil
	}
	code, ok := mnemonics[name]
	if !ok {
		return program.Op{}, fmt.Errorf("unknown mnemonic %q", name)
	}
	return program.Plain(code), nil
}

var mnemonics = map[string]program.Opcode{
	"NOOP": program.NOOP, "CMP": program.CMP, "BINACC": program.BINACC,
	"INV": program.INV, "NEG": program.NEG, "NOT": program.NOT,
	"READ": program.READ, "READ2": program.READ2,
	"DUP": program.DUP, "DUP2": program.DUP2, "DUP4": program.DUP4, "PAD2": program.PAD2,
	"ASSERT": program.ASSERT, "DROP": program.DROP, "DROP4": program.DROP4,
	"ADD": program.ADD, "MUL": program.MUL, "EQ": program.EQ,
	"CHOOSE": program.CHOOSE, "CHOOSE2": program.CHOOSE2, "HASHR": program.HASHR,
	"SWAP": program.SWAP, "SWAP2": program.SWAP2, "SWAP4": program.SWAP4,
	"ROLL4": program.ROLL4, "ROLL8": program.ROLL8,
}

// splitMnemonic parses "NAME" or "NAME(123)" into its name and, if present,
// its decimal argument.
func splitMnemonic(s string) (name string, arg uint64, hasArg bool) {
	open := -1
	for i, r := range s {
		if r == '(' {
			open = i
			break
		}
	}
	if open < 0 {
		return s, 0, false
	}
	name = s[:open]
	var v uint64
	fmt.Sscanf(s[open+1:len(s)-1], "%d", &v)
	return name, v, true
}

func toFieldElements(values []uint64) []core.Fp {
	out := make([]core.Fp, len(values))
	for i, v := range values {
		out[i] = core.FpFromUint64(v)
	}
	return out
}

func logStderr(msg string) {
	fmt.Fprintln(os.Stderr, "aegis-prover:", msg)
}

func fatal(msg string) {
	logStderr("ERROR: " + msg)
	os.Exit(1)
}
