package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nalgeon/be"
)

const fence = "```"

func writeSuite(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suite_test.md")
	be.Err(t, os.WriteFile(path, []byte(content), 0o644), nil)
	return path
}

func TestUpdateSuiteRewritesStaleBlocks(t *testing.T) {
	path := writeSuite(t, "## Test: hello\n"+
		fence+"pjac-program\nfunction main() { asm print \"hi\"; }\n"+fence+"\n"+
		"~~~execute stale\nbye\n~~~\n"+
		"  "+fence+"asm\n  old\n  "+fence+"\n")

	n, err := updateSuite(path, false)
	be.Err(t, err, nil)
	be.Equal(t, n, 2)

	got, err := os.ReadFile(path)
	be.Err(t, err, nil)
	be.Equal(t, string(got), "## Test: hello\n"+
		fence+"pjac-program\nfunction main() { asm print \"hi\"; }\n"+fence+"\n"+
		"~~~execute stale\nhi\n~~~\n"+
		"  "+fence+"asm\n  .function: main\n      print \"hi\"\n      return\n  .end\n  "+fence+"\n")

	n, err = updateSuite(path, false)
	be.Err(t, err, nil)
	be.Equal(t, n, 0)
}

func TestUpdateSuiteCheckLeavesFile(t *testing.T) {
	content := "## Test: empty block\n" +
		fence + "pjac-program\nfunction main() { asm print 1; }\n" + fence + "\n" +
		fence + "execute\n" + fence + "\n"
	path := writeSuite(t, content)

	n, err := updateSuite(path, true)
	be.Err(t, err, nil)
	be.Equal(t, n, 1)
	got, err := os.ReadFile(path)
	be.Err(t, err, nil)
	be.Equal(t, string(got), content)

	n, err = updateSuite(path, false)
	be.Err(t, err, nil)
	be.Equal(t, n, 1)
	got, err = os.ReadFile(path)
	be.Err(t, err, nil)
	be.Equal(t, string(got), "## Test: empty block\n"+
		fence+"pjac-program\nfunction main() { asm print 1; }\n"+fence+"\n"+
		fence+"execute\n1\n"+fence+"\n")
}

func TestUpdateSuiteSkipsErrorTests(t *testing.T) {
	content := "## Test: broken\n" +
		fence + "pjac-program\nfunction main() { x = 1; }\n" + fence + "\n" +
		fence + "compile-error\nUnresolvedIdentifier\n" + fence + "\n" +
		"## Test: no program\n" +
		fence + "execute\nleft alone\n" + fence + "\n"
	path := writeSuite(t, content)

	n, err := updateSuite(path, false)
	be.Err(t, err, nil)
	be.Equal(t, n, 0)
}
