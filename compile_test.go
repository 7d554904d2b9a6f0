package pjac

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nalgeon/be"
)

// manyFunctions builds a program of n functions that call each other.
func manyFunctions(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "function f%d(int a) -> int {\n", i)
		sb.WriteString("\tvar int x = a;\n")
		sb.WriteString("\twhile x { asm idec x; if x { break; } }\n")
		if i > 0 {
			fmt.Fprintf(&sb, "\treturn f%d(x);\n", i-1)
		} else {
			sb.WriteString("\treturn x;\n")
		}
		sb.WriteString("}\n")
	}
	return sb.String()
}

func TestCompileParallelMatchesSequential(t *testing.T) {
	src := []byte(manyFunctions(50))

	seq, err := Compile(src, Options{Workers: 1})
	be.Err(t, err, nil)
	for _, workers := range []int{2, 4, 16} {
		par, err := Compile(src, Options{Workers: workers})
		be.Err(t, err, nil)
		be.Equal(t, par.String(), seq.String())
	}
	be.Equal(t, len(seq.Functions), 50)
	be.Equal(t, seq.Functions[0].Name, "f0")
	be.Equal(t, seq.Functions[49].Name, "f49")
}

func TestCompileReportsEarliestError(t *testing.T) {
	// Functions f3 and f7 both fail; f3 comes first in the source.
	src := manyFunctions(10)
	src = strings.Replace(src, "function f3(int a) -> int {\n", "function f3(int a) -> int {\n\tmissing_a = 1;\n", 1)
	src = strings.Replace(src, "function f7(int a) -> int {\n", "function f7(int a) -> int {\n\tmissing_b = 1;\n", 1)

	for _, workers := range []int{0, 1, 3, 8} {
		_, err := Compile([]byte(src), Options{Workers: workers})
		ce, ok := err.(*CompileError)
		if !ok {
			t.Fatalf("workers=%d: expected *CompileError, got %v", workers, err)
		}
		be.Equal(t, ce.Kind, UnresolvedIdentifier)
		be.True(t, strings.Contains(ce.Message, "missing_a"))
	}
}

func TestCompileTrace(t *testing.T) {
	var phases []Phase
	opts := Options{Trace: func(phase Phase, elapsed time.Duration) {
		be.True(t, elapsed >= 0)
		phases = append(phases, phase)
	}}

	_, err := Compile([]byte("function main() {}"), opts)
	be.Err(t, err, nil)
	be.Equal(t, phases, []Phase{PhaseParse, PhaseSignature, PhaseResolve, PhaseCheck, PhaseGenerate})
}

func TestCompileTraceStopsAtFailure(t *testing.T) {
	var phases []Phase
	opts := Options{Trace: func(phase Phase, _ time.Duration) {
		phases = append(phases, phase)
	}}

	_, err := Compile([]byte(`function main() { var int x = "s"; }`), opts)
	be.True(t, err != nil)
	be.Equal(t, phases, []Phase{PhaseParse, PhaseSignature, PhaseResolve})
}

func TestCompileEmptyProgram(t *testing.T) {
	module, err := Compile(nil, Options{})
	be.Err(t, err, nil)
	be.Equal(t, len(module.Functions), 0)
	be.Equal(t, module.String(), "")
}

func TestCompileErrorMessage(t *testing.T) {
	_, err := Compile([]byte("function main() {\n  x = 1;\n}"), Options{})
	be.Equal(t, err.Error(), "2:3: error: undefined variable 'x'")
	be.True(t, !IsIncomplete(err))
}

func TestErrorKindString(t *testing.T) {
	be.Equal(t, LexError.String(), "LexError")
	be.Equal(t, BreakOutsideLoopError.String(), "BreakOutsideLoopError")
	be.Equal(t, ErrorKind(99).String(), "ErrorKind(99)")
}

func TestCompileIsDeterministic(t *testing.T) {
	src := []byte(manyFunctions(8))
	first, err := Compile(src, Options{})
	be.Err(t, err, nil)
	second, err := Compile(src, Options{})
	be.Err(t, err, nil)
	be.Equal(t, second.String(), first.String())
}
