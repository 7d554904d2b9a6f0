package pjac

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

// compileFunction compiles src and returns the listing of one function,
// one instruction per line.
func compileFunction(t *testing.T, src, name string) string {
	t.Helper()
	module, err := Compile([]byte(src), Options{})
	be.Err(t, err, nil)
	f := module.Function(name)
	if f == nil {
		t.Fatalf("function %s not generated", name)
	}
	var lines []string
	for _, in := range f.Code {
		lines = append(lines, in.String())
	}
	return strings.Join(lines, "\n")
}

func TestOperandString(t *testing.T) {
	tests := []struct {
		op   Operand
		want string
	}{
		{Reg(3), "%3"},
		{IntOperand(-7), "-7"},
		{BoolOperand(true), "true"},
		{StrOperand("a\"b\\c\n\t"), `"a\"b\\c\n\t"`},
		{LabelOperand("while_end_0"), "while_end_0"},
		{FuncOperand("main"), "main"},
		{Void, "void"},
	}

	for _, test := range tests {
		be.Equal(t, test.op.String(), test.want)
	}
	be.True(t, IntOperand(1).IsLiteral())
	be.True(t, !Reg(1).IsLiteral())
	be.True(t, !Void.IsLiteral())
}

func TestGenerateVarDefaults(t *testing.T) {
	listing := compileFunction(t, `
function main() {
	var int a;
	var bool b;
	var string s;
	var auto d;
}`, "main")
	be.Equal(t, listing, `store %0 0
store %1 false
store %2 ""
return`)
}

func TestGenerateBlockRegisters(t *testing.T) {
	module, err := Compile([]byte(`
function main(int p) {
	var int x;
	{ var int y; }
	{ var int y; }
}`), Options{})
	be.Err(t, err, nil)

	f := module.Function("main")
	be.Equal(t, f.Params, 1)
	be.Equal(t, f.Registers, 4)
	be.Equal(t, len(f.Code), 4)
	be.Equal(t, f.Code[0].String(), "store %1 0")
	be.Equal(t, f.Code[1].String(), "store %2 0")
	be.Equal(t, f.Code[2].String(), "store %3 0")
}

func TestGenerateLoops(t *testing.T) {
	listing := compileFunction(t, `
function main() {
	var int x = 1;
	while true {
		if x { break; }
		x = 2;
	}
}`, "main")
	be.Equal(t, listing, `store %0 1
label while_begin_0
store %1 true
jumpunless %1 while_end_0
jumpunless %0 if_end_1
jump while_end_0
label if_end_1
store %0 2
jump while_begin_0
label while_end_0
return`)
}

func TestGenerateNestedBreak(t *testing.T) {
	listing := compileFunction(t, `
function main(bool a, bool b) {
	while a {
		while b { break; }
		break;
	}
}`, "main")
	be.Equal(t, listing, `label while_begin_0
jumpunless %0 while_end_0
label while_begin_1
jumpunless %1 while_end_1
jump while_end_1
jump while_begin_1
label while_end_1
jump while_end_0
jump while_begin_0
label while_end_0
return`)
}

func TestGenerateCalls(t *testing.T) {
	src := `
function add(int a, int b) -> int { return a; }
function main() {
	var int x = add(1, add(2, 3));
	add(x, 4);
}`
	be.Equal(t, compileFunction(t, src, "add"), "return %0")
	be.Equal(t, compileFunction(t, src, "main"), `frame 2
param 0 2
param 1 3
call %1 add
frame 2
param 0 1
param 1 %1
call %0 add
frame 2
param 0 %0
param 1 4
call void add
return`)
}

func TestGenerateReturn(t *testing.T) {
	src := `
function s() -> string { return "a\nb"; }
function f(auto v) -> auto { return s(); }
function g() -> int { return; }
function h() { return; }`
	be.Equal(t, compileFunction(t, src, "s"), `return "a\nb"`)
	be.Equal(t, compileFunction(t, src, "f"), `frame 0
call %1 s
return %1`)
	be.Equal(t, compileFunction(t, src, "g"), "return")
	be.Equal(t, compileFunction(t, src, "h"), "return")
}

func TestGenerateAsm(t *testing.T) {
	listing := compileFunction(t, `
function main(auto v) {
	var string s = "x";
	asm iadd v v 1;
	asm print "hi";
	asm copy s v;
}`, "main")
	be.Equal(t, listing, `store %1 "x"
iadd %0 %0 1
print "hi"
copy %1 %0
return`)
}

func TestGenerateCustomOpcode(t *testing.T) {
	src := "function main(int v) { asm isub v v 1; }"

	_, err := Compile([]byte(src), Options{})
	ce, ok := err.(*CompileError)
	be.True(t, ok)
	be.Equal(t, ce.Kind, UnknownOpcodeError)

	opts := Options{Opcodes: []Opcode{{Name: "isub", Operands: 3, Writes: true}}}
	module, err := Compile([]byte(src), opts)
	be.Err(t, err, nil)
	be.Equal(t, module.Function("main").Code[0].String(), "isub %0 %0 1")
}

func TestOpcodeTableWith(t *testing.T) {
	base := DefaultOpcodes()
	extended := base.With(Opcode{Name: "print", Operands: 2})
	be.Equal(t, extended["print"].Operands, 2)
	be.Equal(t, base["print"].Operands, 1)
	be.Equal(t, len(extended), len(base))
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind ErrorKind
		pos  Position
	}{
		{"unknown opcode", "function main() { asm frob 1; }", UnknownOpcodeError, Position{1, 19}},
		{"missing operand", "function main() { asm print; }", ArityError, Position{1, 19}},
		{"extra operand", "function main() { asm echo 1 2; }", ArityError, Position{1, 19}},
		{"write to literal", "function main() { asm iinc 3; }", SyntaxError, Position{1, 28}},
		{"break outside loop", "function main() { break; }", BreakOutsideLoopError, Position{1, 19}},
		{"break in if outside loop", "function main() { if true { break; } }", BreakOutsideLoopError, Position{1, 29}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Compile([]byte(test.src), Options{})
			ce, ok := err.(*CompileError)
			if !ok {
				t.Fatalf("expected *CompileError, got %v", err)
			}
			be.Equal(t, ce.Kind, test.kind)
			be.Equal(t, ce.Pos, test.pos)
		})
	}
}

func TestModuleListing(t *testing.T) {
	module, err := Compile([]byte(`
function main() { helper(); }
function helper() { while true { } }`), Options{})
	be.Err(t, err, nil)

	be.Equal(t, module.EntryNames(), []string{"helper", "main"})
	be.Equal(t, module.Entries["main"], "main")
	be.True(t, module.Function("missing") == nil)
	for _, f := range module.Functions {
		for _, in := range f.Code {
			if in.Opcode == "call" {
				be.Equal(t, module.Entries[in.Operands[1].Str], in.Operands[1].Str)
			}
		}
	}
	be.Equal(t, module.Function("helper").Labels(), map[string]int{"while_begin_0": 0, "while_end_0": 4})

	be.Equal(t, module.String(), `.function: main
    frame 0
    call void helper
    return
.end

.function: helper
    label while_begin_0
    store %0 true
    jumpunless %0 while_end_0
    jump while_begin_0
    label while_end_0
    return
.end
`)
}

func TestGenerateRejectsControlOpcodes(t *testing.T) {
	for _, name := range []string{"label", "jump", "jumpunless", "frame", "param", "call", "return"} {
		be.True(t, IsControlOpcode(name))

		src := "function main() { asm " + name + "; asm print \"after\"; }"
		opts := Options{Opcodes: []Opcode{{Name: name}}}
		_, err := Compile([]byte(src), opts)
		ce, ok := err.(*CompileError)
		if !ok {
			t.Fatalf("asm %s: expected *CompileError, got %v", name, err)
		}
		be.Equal(t, ce.Kind, UnknownOpcodeError)
		be.Equal(t, ce.Pos, Position{1, 19})
	}
	be.True(t, !IsControlOpcode("store"))
}
