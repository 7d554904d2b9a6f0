package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/marekjm/pjac"
	"github.com/marekjm/pjac/vm"
	"github.com/peterh/liner"
)

const (
	historyFile = ".pjac_history"
	promptMain  = "pjac> "
	promptCont  = "  ... "
	replEntry   = "repl_entry"
)

const banner = `pjac ` + Version + ` interactive mode
Declare functions with 'function', or enter statements to run them.
Commands: :asm shows the listing, :reset forgets all functions, :quit exits.`

// session holds the functions declared so far in the REPL.
type session struct {
	decls []string
	cfg   *pjac.Config
	out   io.Writer
}

// source returns the session's declarations followed by extra.
func (s *session) source(extra string) string {
	var sb strings.Builder
	for _, d := range s.decls {
		sb.WriteString(d)
		sb.WriteByte('\n')
	}
	sb.WriteString(extra)
	return sb.String()
}

func (s *session) compile(src string) (*pjac.Module, error) {
	return pjac.Compile([]byte(src), s.cfg.Options())
}

// eval handles one complete entry. Declarations are kept if the session
// still compiles with them; statements are wrapped in a function and run.
func (s *session) eval(code string) (string, error) {
	if strings.HasPrefix(strings.TrimSpace(code), "function") {
		if program, err := pjac.Parse([]byte(code)); err == nil {
			for _, fn := range program.Children {
				if fn.String == replEntry {
					return code, fmt.Errorf("%s: function name '%s' is reserved in interactive mode", fn.Pos, replEntry)
				}
			}
		}
		src := s.source(code)
		if _, err := s.compile(src); err != nil {
			return src, err
		}
		s.decls = append(s.decls, code)
		return src, nil
	}

	src := s.source("function " + replEntry + "() {\n" + code + "\n}")
	module, err := s.compile(src)
	if err != nil {
		return src, err
	}
	machine := vm.New(module, vm.Options{Stdout: s.out, MaxDepth: s.cfg.Runtime.MaxDepth})
	_, err = machine.Run(replEntry)
	return src, err
}

func runREPL(log *Logger, cfg *pjac.Config) int {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	s := &session{cfg: cfg, out: os.Stdout}
	for {
		code, ok := readEntry(ln)
		if !ok {
			fmt.Println()
			return 0
		}

		switch strings.TrimSpace(code) {
		case "":
			continue
		case ":quit":
			return 0
		case ":reset":
			s.decls = nil
			continue
		case ":asm":
			if module, err := s.compile(s.source("")); err != nil {
				log.PrintErrorMessage("Compile Error", err)
			} else {
				fmt.Print(module)
			}
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(code), ":") {
			fmt.Println("unknown command. Type :quit to exit.")
			continue
		}

		src, err := s.eval(code)
		if err != nil {
			var re *vm.RuntimeError
			if errors.As(err, &re) {
				log.PrintErrorMessage("Runtime Error", err)
			} else {
				log.CompileError("<repl>", []byte(src), err)
			}
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}
}

// readEntry reads lines until they form an entry that does not end in the
// middle of a construct.
func readEntry(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl-C abandons the current entry.
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		code := b.String()
		if strings.HasPrefix(strings.TrimSpace(code), ":") || !isIncomplete(code) {
			return code, true
		}
	}
}

// isIncomplete reports whether code stops in the middle of a construct.
func isIncomplete(code string) bool {
	src := code
	if !strings.HasPrefix(strings.TrimSpace(code), "function") {
		src = "function " + replEntry + "() {\n" + code + "\n}"
	}
	_, err := pjac.Parse([]byte(src))
	return pjac.IsIncomplete(err)
}
