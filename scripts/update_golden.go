// Command update_golden regenerates the expected asm listings and program
// output in the markdown test suites from the current compiler.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/ComedicChimera/olive"
	"github.com/marekjm/pjac"
	"github.com/marekjm/pjac/sexy"
	"github.com/marekjm/pjac/vm"
	"github.com/pterm/pterm"
)

func main() {
	cli := olive.NewCLI("update_golden", "regenerate expected outputs of markdown test suites", true)
	cli.AddStringArg("suites", "s", "glob of the suites to update (default: test/*_test.md)", false)
	cli.AddFlag("check", "c", "report stale suites without rewriting them")

	result, err := olive.ParseArgs(cli, os.Args)
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(2)
	}

	pattern := "test/*_test.md"
	if v, ok := result.Arguments["suites"]; ok {
		pattern = v.(string)
	}
	check := result.HasFlag("check")

	paths, err := filepath.Glob(pattern)
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(2)
	}

	stale := 0
	for _, path := range paths {
		n, err := updateSuite(path, check)
		if err != nil {
			pterm.Error.Printfln("%s: %v", path, err)
			os.Exit(1)
		}
		switch {
		case n == 0:
			pterm.Success.Println(path)
		case check:
			pterm.Warning.Printfln("%s: %d stale blocks", path, n)
		default:
			pterm.Info.Printfln("%s: rewrote %d blocks", path, n)
		}
		stale += n
	}
	if check && stale > 0 {
		os.Exit(1)
	}
}

// updateSuite regenerates the asm and execute blocks of one suite and returns
// how many of them changed. Blocks of programs that fail to compile are left
// as they are, since they belong to error tests.
func updateSuite(path string, check bool) (int, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var out bytes.Buffer
	last := 0
	test, program := "", ""
	changed := 0
	for _, f := range sexy.Fences(source) {
		if f.Test != test {
			test, program = f.Test, ""
		}
		if f.Language == string(sexy.InputTypeProgram) {
			program = f.Content
			continue
		}

		regenerated, ok := regenerate(sexy.AssertionType(f.Language), program)
		if !ok || regenerated == strings.TrimRight(f.Content, "\n") {
			continue
		}
		out.Write(source[last:f.Start])
		out.WriteString(indent(regenerated, f.Indent))
		last = f.Stop
		changed++
	}
	out.Write(source[last:])

	if changed == 0 || check {
		return changed, nil
	}
	return changed, os.WriteFile(path, out.Bytes(), 0o644)
}

// indent prefixes every line of content with prefix and ends each with a
// newline.
func indent(content, prefix string) string {
	if content == "" {
		return ""
	}
	var sb strings.Builder
	for _, line := range strings.Split(content, "\n") {
		sb.WriteString(prefix)
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func regenerate(kind sexy.AssertionType, program string) (string, bool) {
	if program == "" || (kind != sexy.AssertionTypeASM && kind != sexy.AssertionTypeExecute) {
		return "", false
	}
	module, err := pjac.Compile([]byte(program), pjac.Options{})
	if err != nil {
		return "", false
	}
	if kind == sexy.AssertionTypeASM {
		return strings.TrimRight(module.String(), "\n"), true
	}

	var stdout bytes.Buffer
	machine := vm.New(module, vm.Options{Stdout: &stdout, MaxDepth: 1000})
	if _, err := machine.Run("main"); err != nil {
		return "", false
	}
	return strings.TrimRight(stdout.String(), "\n"), true
}
