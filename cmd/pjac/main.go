package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ComedicChimera/olive"
	"github.com/marekjm/pjac"
	"github.com/marekjm/pjac/vm"
)

// Version is the pjac release.
const Version = "0.1.0"

func main() {
	os.Exit(execute(os.Args))
}

// execute runs the pjac command line and returns the process exit status.
func execute(args []string) int {
	cli := olive.NewCLI("pjac", "pjac compiles programs for the register machine", true)
	logLvlArg := cli.AddSelectorArg("loglevel", "ll", "the compiler log level", false, []string{"silent", "error", "verbose"})
	logLvlArg.SetDefaultValue("verbose")
	cli.AddStringArg("config", "c", "path to a pjac.toml file", false)

	buildCmd := cli.AddSubcommand("build", "compile a source file to an assembly listing", true)
	buildCmd.AddPrimaryArg("file", "the source file to compile", true)
	buildCmd.AddStringArg("output", "o", "the listing path (default: the source path with .asm)", false)

	runCmd := cli.AddSubcommand("run", "compile a source file and run its main function", true)
	runCmd.AddPrimaryArg("file", "the source file to run", true)

	checkCmd := cli.AddSubcommand("check", "parse and check a source file without emitting code", true)
	checkCmd.AddPrimaryArg("file", "the source file to check", true)

	astCmd := cli.AddSubcommand("ast", "print the syntax tree of a source file", true)
	astCmd.AddPrimaryArg("file", "the source file to parse", true)

	evalCmd := cli.AddSubcommand("eval", "run inline statements", true)
	evalCmd.AddPrimaryArg("code", "the statements to run", true)

	cli.AddSubcommand("repl", "compile and run code interactively", false)
	cli.AddSubcommand("version", "print the pjac version", false)

	result, err := olive.ParseArgs(cli, args)
	if err != nil {
		newLogger(LogLevelError).PrintErrorMessage("CLI Usage Error", err)
		return 2
	}

	log := newLogger(parseLogLevel(result.Arguments["loglevel"].(string)))
	configPath := ""
	if v, ok := result.Arguments["config"]; ok {
		configPath = v.(string)
	}

	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "build":
		return execBuildCommand(log, subResult, configPath)
	case "run":
		return execRunCommand(log, subResult, configPath)
	case "check":
		return execCheckCommand(log, subResult, configPath)
	case "ast":
		return execASTCommand(log, subResult)
	case "eval":
		return execEvalCommand(log, subResult, configPath)
	case "repl":
		cfg, err := loadConfig(configPath, "")
		if err != nil {
			log.PrintErrorMessage("Config Error", err)
			return 1
		}
		return runREPL(log, cfg)
	case "version":
		fmt.Println("pjac v" + Version)
	}
	return 0
}

// loadConfig reads the explicit config file if one is given, otherwise the
// pjac.toml next to the source file if it exists.
func loadConfig(explicit, sourcePath string) (*pjac.Config, error) {
	if explicit != "" {
		return pjac.LoadConfig(explicit)
	}
	if sourcePath != "" {
		path := filepath.Join(filepath.Dir(sourcePath), pjac.ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return pjac.LoadConfig(path)
		}
	}
	return pjac.DefaultConfig(), nil
}

// compileFile reads and compiles a source file, logging any failure. It
// returns nil if compilation failed.
func compileFile(log *Logger, path string, cfg *pjac.Config) *pjac.Module {
	src, err := os.ReadFile(path)
	if err != nil {
		log.PrintErrorMessage("File Error", err)
		return nil
	}

	opts := cfg.Options()
	opts.Trace = log.Trace
	module, err := pjac.Compile(src, opts)
	if err != nil {
		log.CompileError(path, src, err)
		log.Finished(false)
		return nil
	}
	return module
}

func sourceAndConfig(log *Logger, result *olive.ArgParseResult, configPath string) (string, *pjac.Config, bool) {
	path, _ := result.PrimaryArg()
	cfg, err := loadConfig(configPath, path)
	if err != nil {
		log.PrintErrorMessage("Config Error", err)
		return "", nil, false
	}
	return path, cfg, true
}

// execBuildCommand compiles a file and writes its listing.
func execBuildCommand(log *Logger, result *olive.ArgParseResult, configPath string) int {
	path, cfg, ok := sourceAndConfig(log, result, configPath)
	if !ok {
		return 1
	}
	module := compileFile(log, path, cfg)
	if module == nil {
		return 1
	}

	output := strings.TrimSuffix(path, filepath.Ext(path)) + ".asm"
	if v, ok := result.Arguments["output"]; ok {
		output = v.(string)
	}
	if err := os.WriteFile(output, []byte(module.String()), 0o644); err != nil {
		log.PrintErrorMessage("File Error", err)
		return 1
	}
	log.PrintInfoMessage("Wrote", output)
	log.Finished(true)
	return 0
}

// execRunCommand compiles a file and runs main on the reference VM. An int
// returned from main becomes the exit status.
func execRunCommand(log *Logger, result *olive.ArgParseResult, configPath string) int {
	path, cfg, ok := sourceAndConfig(log, result, configPath)
	if !ok {
		return 1
	}
	module := compileFile(log, path, cfg)
	if module == nil {
		return 1
	}
	log.Finished(true)

	machine := vm.New(module, vm.Options{Stdout: os.Stdout, MaxDepth: cfg.Runtime.MaxDepth})
	ret, err := machine.Run("main")
	if err != nil {
		var re *vm.RuntimeError
		if errors.As(err, &re) {
			log.PrintErrorMessage("Runtime Error", err)
		} else {
			log.PrintErrorMessage("Run Error", err)
		}
		return 1
	}
	if ret.Kind == vm.Int {
		return int(ret.Int)
	}
	return 0
}

// execCheckCommand runs every compilation phase and reports the result.
func execCheckCommand(log *Logger, result *olive.ArgParseResult, configPath string) int {
	path, cfg, ok := sourceAndConfig(log, result, configPath)
	if !ok {
		return 1
	}
	if compileFile(log, path, cfg) == nil {
		return 1
	}
	log.Finished(true)
	return 0
}

// execASTCommand prints the syntax tree of a file as an s-expression.
func execASTCommand(log *Logger, result *olive.ArgParseResult) int {
	path, _ := result.PrimaryArg()
	src, err := os.ReadFile(path)
	if err != nil {
		log.PrintErrorMessage("File Error", err)
		return 1
	}
	program, err := pjac.Parse(src)
	if err != nil {
		log.CompileError(path, src, err)
		return 1
	}
	fmt.Println(pjac.ToSExpr(program))
	return 0
}

// execEvalCommand runs inline code the way a single REPL entry is run.
func execEvalCommand(log *Logger, result *olive.ArgParseResult, configPath string) int {
	code, _ := result.PrimaryArg()
	cfg, err := loadConfig(configPath, "")
	if err != nil {
		log.PrintErrorMessage("Config Error", err)
		return 1
	}

	s := &session{cfg: cfg, out: os.Stdout}
	src, err := s.eval(code)
	if err == nil {
		return 0
	}
	var re *vm.RuntimeError
	if errors.As(err, &re) {
		log.PrintErrorMessage("Runtime Error", err)
	} else {
		log.CompileError("<eval>", []byte(src), err)
	}
	return 1
}
