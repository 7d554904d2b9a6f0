// Package vm executes compiled modules. Every call gets a fresh register
// frame; frames are kept on a slice, so call depth does not grow the Go
// stack.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/marekjm/pjac"
)

// Options configures a VM.
type Options struct {
	Stdout   io.Writer // defaults to os.Stdout
	MaxDepth int       // maximum number of live frames, 0 for no limit
}

// RuntimeError reports a failure while executing an instruction.
type RuntimeError struct {
	Function    string
	PC          int
	Instruction string
	Message     string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error in %s at %d (%s): %s", e.Function, e.PC, e.Instruction, e.Message)
}

type function struct {
	*pjac.Function
	labels map[string]int
}

type frame struct {
	fn   *function
	regs []Value
	pc   int
	dest pjac.Operand // where the caller wants the result
}

// VM runs the functions of one module.
type VM struct {
	opts   Options
	funcs  map[string]*function
	frames []*frame
	args   []Value // arguments of the call being set up
	result Value
	Halted bool
}

// New prepares a VM for module.
func New(module *pjac.Module, opts Options) *VM {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	vm := &VM{opts: opts, funcs: make(map[string]*function, len(module.Functions))}
	for _, f := range module.Functions {
		vm.funcs[f.Name] = &function{Function: f, labels: f.Labels()}
	}
	return vm
}

// Run calls the entry function, which must take no parameters, and executes
// until it returns. It returns the entry function's return value, which is
// unset if it returns none.
func (vm *VM) Run(entry string) (Value, error) {
	fn, ok := vm.funcs[entry]
	if !ok {
		return Value{}, fmt.Errorf("no function named '%s'", entry)
	}
	if fn.Params != 0 {
		return Value{}, fmt.Errorf("entry function '%s' takes %d parameters", entry, fn.Params)
	}
	vm.frames = vm.frames[:0]
	vm.result = Value{}
	vm.Halted = false
	vm.push(fn, nil, pjac.Void)

	for !vm.Halted {
		if err := vm.Step(); err != nil {
			return Value{}, err
		}
	}
	return vm.result, nil
}

func (vm *VM) push(fn *function, args []Value, dest pjac.Operand) {
	regs := make([]Value, max(fn.Registers, len(args)))
	copy(regs, args)
	vm.frames = append(vm.frames, &frame{fn: fn, regs: regs, dest: dest})
}

// Depth returns the number of live frames.
func (vm *VM) Depth() int {
	return len(vm.frames)
}

// Step executes one instruction of the innermost frame.
func (vm *VM) Step() error {
	if vm.Halted {
		return nil
	}
	f := vm.frames[len(vm.frames)-1]
	if f.pc >= len(f.fn.Code) {
		return vm.errorf(f, "fell off the end of the function")
	}
	in := f.fn.Code[f.pc]
	f.pc++
	if err := vm.checkOperands(f, in); err != nil {
		return err
	}

	switch in.Opcode {
	case "store", "copy":
		v, err := vm.read(f, in.Operands[1])
		if err != nil {
			return err
		}
		return vm.write(f, in.Operands[0], v)

	case "echo", "print":
		v, err := vm.read(f, in.Operands[0])
		if err != nil {
			return err
		}
		fmt.Fprint(vm.opts.Stdout, v.String())
		if in.Opcode == "print" {
			fmt.Fprintln(vm.opts.Stdout)
		}

	case "idec", "iinc":
		n, err := vm.readInt(f, in.Operands[0])
		if err != nil {
			return err
		}
		if in.Opcode == "idec" {
			n--
		} else {
			n++
		}
		return vm.write(f, in.Operands[0], IntValue(n))

	case "iadd", "isub", "imul", "ieq":
		a, err := vm.readInt(f, in.Operands[1])
		if err != nil {
			return err
		}
		b, err := vm.readInt(f, in.Operands[2])
		if err != nil {
			return err
		}
		var v Value
		switch in.Opcode {
		case "iadd":
			v = IntValue(a + b)
		case "isub":
			v = IntValue(a - b)
		case "imul":
			v = IntValue(a * b)
		default:
			v = BoolValue(a == b)
		}
		return vm.write(f, in.Operands[0], v)

	case "label":

	case "jump":
		return vm.jump(f, in.Operands[0])

	case "jumpunless":
		v, err := vm.read(f, in.Operands[0])
		if err != nil {
			return err
		}
		if !v.Truthy() {
			return vm.jump(f, in.Operands[1])
		}

	case "frame":
		vm.args = make([]Value, in.Operands[0].Int)

	case "param":
		v, err := vm.read(f, in.Operands[1])
		if err != nil {
			return err
		}
		i := int(in.Operands[0].Int)
		if i < 0 || i >= len(vm.args) {
			return vm.errorf(f, "parameter %d outside of frame of %d", i, len(vm.args))
		}
		vm.args[i] = v

	case "call":
		return vm.call(f, in.Operands[0], in.Operands[1].Str)

	case "return":
		var v Value
		if len(in.Operands) > 0 {
			var err error
			if v, err = vm.read(f, in.Operands[0]); err != nil {
				return err
			}
		}
		return vm.ret(f, v)

	default:
		return vm.errorf(f, "unknown opcode '%s'", in.Opcode)
	}
	return nil
}

// operandCounts is the number of operands each opcode reads or writes.
var operandCounts = map[string]int{
	"store": 2, "copy": 2,
	"echo": 1, "print": 1,
	"idec": 1, "iinc": 1,
	"iadd": 3, "isub": 3, "imul": 3, "ieq": 3,
	"label": 1, "jump": 1, "jumpunless": 2,
	"frame": 1, "param": 2, "call": 2,
}

func (vm *VM) checkOperands(f *frame, in pjac.Instruction) error {
	n := len(in.Operands)
	if in.Opcode == "return" {
		if n > 1 {
			return vm.errorf(f, "opcode 'return' takes at most 1 operand, got %d", n)
		}
		return nil
	}
	want, ok := operandCounts[in.Opcode]
	if ok && n != want {
		return vm.errorf(f, "opcode '%s' takes %d operands, got %d", in.Opcode, want, n)
	}
	return nil
}

func (vm *VM) call(f *frame, dest pjac.Operand, name string) error {
	callee, ok := vm.funcs[name]
	if !ok {
		return vm.errorf(f, "call to undefined function '%s'", name)
	}
	if len(vm.args) != callee.Params {
		return vm.errorf(f, "function '%s' takes %d parameters, frame has %d", name, callee.Params, len(vm.args))
	}
	if vm.opts.MaxDepth > 0 && len(vm.frames) >= vm.opts.MaxDepth {
		return vm.errorf(f, "call depth limit of %d exceeded", vm.opts.MaxDepth)
	}
	args := vm.args
	vm.args = nil
	vm.push(callee, args, dest)
	return nil
}

func (vm *VM) ret(f *frame, v Value) error {
	vm.frames = vm.frames[:len(vm.frames)-1]
	if len(vm.frames) == 0 {
		vm.result = v
		vm.Halted = true
		return nil
	}
	if f.dest.Kind == pjac.OperandVoid {
		return nil
	}
	caller := vm.frames[len(vm.frames)-1]
	if v.Kind == Unset {
		return vm.errorf(caller, "function '%s' returned no value", f.fn.Name)
	}
	return vm.write(caller, f.dest, v)
}

func (vm *VM) jump(f *frame, label pjac.Operand) error {
	pc, ok := f.fn.labels[label.Str]
	if !ok {
		return vm.errorf(f, "undefined label '%s'", label.Str)
	}
	f.pc = pc
	return nil
}

func (vm *VM) read(f *frame, op pjac.Operand) (Value, error) {
	switch op.Kind {
	case pjac.OperandInt:
		return IntValue(op.Int), nil
	case pjac.OperandBool:
		return BoolValue(op.Bool), nil
	case pjac.OperandString:
		return StringValue(op.Str), nil
	case pjac.OperandRegister:
		if op.Register >= len(f.regs) {
			return Value{}, vm.errorf(f, "register %s out of range", op)
		}
		v := f.regs[op.Register]
		if v.Kind == Unset {
			return Value{}, vm.errorf(f, "read of unset register %s", op)
		}
		return v, nil
	}
	return Value{}, vm.errorf(f, "operand %s cannot be read", op)
}

func (vm *VM) readInt(f *frame, op pjac.Operand) (int64, error) {
	v, err := vm.read(f, op)
	if err != nil {
		return 0, err
	}
	if v.Kind != Int {
		return 0, vm.errorf(f, "operand %s holds %s, want int", op, v.Kind)
	}
	return v.Int, nil
}

func (vm *VM) write(f *frame, op pjac.Operand, v Value) error {
	if op.Kind != pjac.OperandRegister {
		return vm.errorf(f, "cannot write to operand %s", op)
	}
	if op.Register >= len(f.regs) {
		return vm.errorf(f, "register %s out of range", op)
	}
	f.regs[op.Register] = v
	return nil
}

func (vm *VM) errorf(f *frame, format string, args ...any) error {
	pc := f.pc - 1
	instr := ""
	if pc >= 0 && pc < len(f.fn.Code) {
		instr = f.fn.Code[pc].String()
	}
	return &RuntimeError{
		Function:    f.fn.Name,
		PC:          pc,
		Instruction: instr,
		Message:     fmt.Sprintf(format, args...),
	}
}
