package pjac_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marekjm/pjac"
	"github.com/marekjm/pjac/sexy"
	"github.com/marekjm/pjac/vm"
	"github.com/nalgeon/be"
)

func TestSexyAllTests(t *testing.T) {
	// Find all test files in the test/ directory
	testFiles, err := filepath.Glob("test/*_test.md")
	be.Err(t, err, nil)
	be.True(t, len(testFiles) > 0)

	for _, testFile := range testFiles {
		testName := strings.TrimSuffix(filepath.Base(testFile), ".md")

		t.Run(testName, func(t *testing.T) {
			content, err := os.ReadFile(testFile)
			be.Err(t, err, nil)

			testCases, err := sexy.ExtractTestCases(string(content))
			be.Err(t, err, nil)

			for _, tc := range testCases {
				t.Run(tc.Name, func(t *testing.T) {
					for _, assertion := range tc.Assertions {
						switch assertion.Type {
						case sexy.AssertionTypeAST:
							assertAST(t, tc, assertion)
						case sexy.AssertionTypeASM:
							assertListing(t, tc, assertion)
						case sexy.AssertionTypeExecute:
							assertExecute(t, tc, assertion)
						case sexy.AssertionTypeCompileError:
							assertCompileError(t, tc, assertion)
						}
					}
				})
			}
		})
	}
}

func parseInput(tc sexy.TestCase) (*pjac.ASTNode, error) {
	if tc.InputType == sexy.InputTypeProgram {
		return pjac.Parse([]byte(tc.Input))
	}
	tokens, err := pjac.Tokenize([]byte(tc.Input))
	if err != nil {
		return nil, err
	}
	return pjac.NewParser(tokens).ParseStatement()
}

func assertAST(t *testing.T, tc sexy.TestCase, assertion sexy.Assertion) {
	t.Helper()
	node, err := parseInput(tc)
	if err != nil {
		t.Fatalf("line %d: parse failed: %v", assertion.Line, err)
	}
	actual, err := sexy.Parse(pjac.ToSExpr(node))
	be.Err(t, err, nil)
	if err := sexy.Match(assertion.ParsedSexy, actual); err != nil {
		t.Errorf("line %d: %v\nactual: %s", assertion.Line, err, actual)
	}
}

// compileBoth compiles the input sequentially and in parallel and checks that
// both modes agree.
func compileBoth(t *testing.T, tc sexy.TestCase) (*pjac.Module, error) {
	t.Helper()
	seq, seqErr := pjac.Compile([]byte(tc.Input), pjac.Options{})
	par, parErr := pjac.Compile([]byte(tc.Input), pjac.Options{Workers: 4})
	if seqErr != nil || parErr != nil {
		be.Equal(t, errorString(parErr), errorString(seqErr))
		return nil, seqErr
	}
	be.Equal(t, par.String(), seq.String())
	return seq, nil
}

func errorString(err error) string {
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}

func assertListing(t *testing.T, tc sexy.TestCase, assertion sexy.Assertion) {
	t.Helper()
	module, err := compileBoth(t, tc)
	if err != nil {
		t.Fatalf("line %d: compile failed: %v", assertion.Line, err)
	}
	be.Equal(t, strings.TrimRight(module.String(), "\n"), assertion.Content)
}

func assertExecute(t *testing.T, tc sexy.TestCase, assertion sexy.Assertion) {
	t.Helper()
	module, err := compileBoth(t, tc)
	if err != nil {
		t.Fatalf("line %d: compile failed: %v", assertion.Line, err)
	}
	var stdout bytes.Buffer
	machine := vm.New(module, vm.Options{Stdout: &stdout, MaxDepth: 1000})
	_, err = machine.Run("main")
	be.Err(t, err, nil)
	be.Equal(t, strings.TrimRight(stdout.String(), "\n"), assertion.Content)
}

func assertCompileError(t *testing.T, tc sexy.TestCase, assertion sexy.Assertion) {
	t.Helper()
	kind, pos, err := sexy.ParseCompileError(assertion.Content)
	be.Err(t, err, nil)

	_, err = compileBoth(t, tc)
	if err == nil {
		t.Fatalf("line %d: expected %s, compilation succeeded", assertion.Line, assertion.Content)
	}
	var ce *pjac.CompileError
	be.True(t, errors.As(err, &ce))
	be.Equal(t, ce.Kind.String(), kind)
	if pos != "" {
		be.Equal(t, ce.Pos.String(), pos)
	}
}
