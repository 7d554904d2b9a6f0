package pjac

import (
	"time"

	"golang.org/x/sync/errgroup"
)

// Phase names a compilation step, as reported to Options.Trace.
type Phase string

const (
	PhaseParse     Phase = "parse"
	PhaseSignature Phase = "signatures"
	PhaseResolve   Phase = "resolve"
	PhaseCheck     Phase = "check"
	PhaseGenerate  Phase = "generate"
)

// Options configures a compilation. The zero value compiles sequentially
// with the default opcode table.
type Options struct {
	// Workers > 1 processes the functions of each phase concurrently.
	Workers int
	// Opcodes are added to the default table, replacing entries of the same
	// name.
	Opcodes []Opcode
	// Trace, if set, is called after each phase completes.
	Trace func(phase Phase, elapsed time.Duration)
}

func (o Options) trace(phase Phase, start time.Time) {
	if o.Trace != nil {
		o.Trace(phase, time.Since(start))
	}
}

// Compile lexes, parses, checks and generates code for a program. A failed
// compilation returns a single *CompileError.
func Compile(src []byte, opts Options) (*Module, error) {
	start := time.Now()
	program, err := Parse(src)
	if err != nil {
		return nil, err
	}
	opts.trace(PhaseParse, start)
	return CompileProgram(program, opts)
}

// CompileProgram runs the compilation phases after parsing. It annotates the
// program in place.
func CompileProgram(program *ASTNode, opts Options) (*Module, error) {
	start := time.Now()
	sigs, err := CollectSignatures(program)
	if err != nil {
		return nil, err
	}
	opts.trace(PhaseSignature, start)

	funcs := program.Children
	phases := []struct {
		phase Phase
		run   func(i int, fn *ASTNode) error
	}{
		{PhaseResolve, func(_ int, fn *ASTNode) error { return ResolveFunction(fn, sigs) }},
		{PhaseCheck, func(_ int, fn *ASTNode) error { return CheckFunction(fn, sigs) }},
	}
	for _, p := range phases {
		start := time.Now()
		if err := forEachFunction(funcs, opts.Workers, p.run); err != nil {
			return nil, err
		}
		opts.trace(p.phase, start)
	}

	start = time.Now()
	opcodes := DefaultOpcodes().With(opts.Opcodes...)
	out := make([]*Function, len(funcs))
	err = forEachFunction(funcs, opts.Workers, func(i int, fn *ASTNode) error {
		f, err := GenerateFunction(fn, sigs, opcodes)
		out[i] = f
		return err
	})
	if err != nil {
		return nil, err
	}
	opts.trace(PhaseGenerate, start)

	return newModule(out), nil
}

// forEachFunction calls run for every function. With more than one worker the
// calls run concurrently; either way the error reported is the one of the
// earliest function in declaration order.
func forEachFunction(funcs []*ASTNode, workers int, run func(i int, fn *ASTNode) error) error {
	if workers <= 1 {
		for i, fn := range funcs {
			if err := run(i, fn); err != nil {
				return err
			}
		}
		return nil
	}

	errs := make([]error, len(funcs))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, fn := range funcs {
		g.Go(func() error {
			errs[i] = run(i, fn)
			return nil
		})
	}
	g.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
