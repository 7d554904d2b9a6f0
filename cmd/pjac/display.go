package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/marekjm/pjac"
	"github.com/pterm/pterm"
)

var (
	SuccessColorFG = pterm.FgLightGreen
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	ErrorColorFG   = pterm.FgRed
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG    = SuccessColorFG
	InfoStyleBG    = SuccessStyleBG
)

// Enumeration of the log levels
const (
	LogLevelSilent  = iota // no output at all
	LogLevelError          // errors only
	LogLevelVerbose        // errors, phase progress and the closing message
)

func parseLogLevel(name string) int {
	switch name {
	case "silent":
		return LogLevelSilent
	case "error":
		return LogLevelError
	default:
		return LogLevelVerbose
	}
}

// Logger prints driver output at the selected level. Trace may be called
// from compiler workers, so printing is serialized.
type Logger struct {
	LogLevel int
	m        sync.Mutex
}

func newLogger(level int) *Logger {
	return &Logger{LogLevel: level}
}

// PrintErrorMessage prints a standard Go error to the console
func (l *Logger) PrintErrorMessage(tag string, err error) {
	if l.LogLevel == LogLevelSilent {
		return
	}
	l.m.Lock()
	defer l.m.Unlock()
	ErrorStyleBG.Print(tag)
	ErrorColorFG.Println(" " + err.Error())
}

// PrintInfoMessage prints an informational message to the user
func (l *Logger) PrintInfoMessage(tag, msg string) {
	if l.LogLevel < LogLevelVerbose {
		return
	}
	l.m.Lock()
	defer l.m.Unlock()
	InfoStyleBG.Print(tag)
	InfoColorFG.Println(" " + msg)
}

const maxPhaseLength = len("signatures")

// Trace displays the end of a compilation phase.
func (l *Logger) Trace(phase pjac.Phase, elapsed time.Duration) {
	if l.LogLevel < LogLevelVerbose {
		return
	}
	l.m.Lock()
	defer l.m.Unlock()
	SuccessStyleBG.Print("Done")
	fmt.Print(" " + string(phase) + strings.Repeat(" ", maxPhaseLength-len(phase)+2))
	fmt.Printf("(%.3fs)\n", elapsed.Seconds())
}

// Finished displays the closing message of a compilation.
func (l *Logger) Finished(success bool) {
	if l.LogLevel < LogLevelVerbose {
		return
	}
	if success {
		SuccessColorFG.Println("All done!")
	} else {
		ErrorColorFG.Println("Oh no!")
	}
}

// CompileError displays err. A *pjac.CompileError gets a banner and the
// offending line of source with a caret under the error position.
func (l *Logger) CompileError(path string, src []byte, err error) {
	var ce *pjac.CompileError
	if !errors.As(err, &ce) {
		l.PrintErrorMessage("Compile Error", err)
		return
	}
	if l.LogLevel == LogLevelSilent {
		return
	}
	l.m.Lock()
	defer l.m.Unlock()
	displayBanner(ce.Kind.String(), path)
	fmt.Println(ce.Error())
	displayCodeSelection(src, ce.Pos)
}

// displayBanner displays the banner on top of all compilation messages
func displayBanner(kind, path string) {
	fmt.Print("\n-- ")
	ErrorStyleBG.Print(kind)
	fmt.Print(" ")

	fileName := filepath.Base(path)
	bannerLen := pterm.GetTerminalWidth() / 2
	if bannerLen > 50 {
		bannerLen = 50
	}
	dashCount := max(bannerLen-len(fileName)-len(kind)-1, 3)

	fmt.Print(strings.Repeat("-", dashCount) + " ")
	InfoColorFG.Println(fileName)
}

// displayCodeSelection displays the line at pos with a caret under the column.
func displayCodeSelection(src []byte, pos pjac.Position) {
	lines := strings.Split(string(src), "\n")
	if pos.Line < 1 || pos.Line > len(lines) {
		return
	}
	line := strings.ReplaceAll(lines[pos.Line-1], "\t", " ")

	lineNumberWidth := len(strconv.Itoa(pos.Line)) + 1
	fmt.Println()
	InfoColorFG.Print(fmt.Sprintf("%-"+strconv.Itoa(lineNumberWidth)+"d", pos.Line))
	fmt.Println("|  " + line)
	fmt.Print(strings.Repeat(" ", lineNumberWidth), "|  ")
	fmt.Print(strings.Repeat(" ", max(pos.Column-1, 0)))
	ErrorColorFG.Println("^")
	fmt.Println()
}
