package pjac

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a compile error.
type ErrorKind int

const (
	LexError ErrorKind = iota
	SyntaxError
	RedeclarationError
	UnresolvedIdentifier
	TypeMismatchError
	ArityError
	BreakOutsideLoopError
	UnknownOpcodeError
)

func (k ErrorKind) String() string {
	switch k {
	case LexError:
		return "LexError"
	case SyntaxError:
		return "SyntaxError"
	case RedeclarationError:
		return "RedeclarationError"
	case UnresolvedIdentifier:
		return "UnresolvedIdentifier"
	case TypeMismatchError:
		return "TypeMismatchError"
	case ArityError:
		return "ArityError"
	case BreakOutsideLoopError:
		return "BreakOutsideLoopError"
	case UnknownOpcodeError:
		return "UnknownOpcodeError"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// CompileError is the single error a failed compilation produces.
type CompileError struct {
	Kind    ErrorKind
	Pos     Position
	Message string

	incomplete bool // the input ended before the construct did
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: error: %s", e.Pos, e.Message)
}

func errorf(kind ErrorKind, pos Position, format string, args ...any) *CompileError {
	return &CompileError{
		Kind:    kind,
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsIncomplete reports whether err was caused by the input ending in the
// middle of a construct, so more input could make it valid.
func IsIncomplete(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce) && ce.incomplete
}
