package pjac

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// OperandKind says how an instruction operand is to be read.
type OperandKind int

const (
	OperandRegister OperandKind = iota
	OperandInt
	OperandBool
	OperandString
	OperandLabel
	OperandFunction
	OperandVoid // call destination that discards the result
)

// Operand is one instruction argument. Only the field matching Kind is
// meaningful.
type Operand struct {
	Kind     OperandKind
	Register int
	Int      int64
	Bool     bool
	Str      string // string literal, label or function name
}

func Reg(n int) Operand { return Operand{Kind: OperandRegister, Register: n} }
func IntOperand(v int64) Operand { return Operand{Kind: OperandInt, Int: v} }
func BoolOperand(v bool) Operand { return Operand{Kind: OperandBool, Bool: v} }
func StrOperand(s string) Operand { return Operand{Kind: OperandString, Str: s} }
func LabelOperand(l string) Operand { return Operand{Kind: OperandLabel, Str: l} }
func FuncOperand(f string) Operand { return Operand{Kind: OperandFunction, Str: f} }

// Void is the destination of a call whose result is unused.
var Void = Operand{Kind: OperandVoid}

// IsLiteral reports whether the operand is an inline int, bool or string.
func (o Operand) IsLiteral() bool {
	return o.Kind == OperandInt || o.Kind == OperandBool || o.Kind == OperandString
}

func (o Operand) String() string {
	switch o.Kind {
	case OperandRegister:
		return "%" + strconv.Itoa(o.Register)
	case OperandInt:
		return strconv.FormatInt(o.Int, 10)
	case OperandBool:
		return strconv.FormatBool(o.Bool)
	case OperandString:
		return encodeString(o.Str)
	case OperandVoid:
		return "void"
	default:
		return o.Str
	}
}

// encodeString quotes s, re-encoding the escapes the lexer decodes.
func encodeString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '\a':
			sb.WriteString(`\a`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\v':
			sb.WriteString(`\v`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// Instruction is one line of the flat instruction stream.
type Instruction struct {
	Opcode   string
	Operands []Operand
}

func (in Instruction) String() string {
	var sb strings.Builder
	sb.WriteString(in.Opcode)
	for _, op := range in.Operands {
		sb.WriteByte(' ')
		sb.WriteString(op.String())
	}
	return sb.String()
}

// Function is the generated code of one function. Parameters occupy
// registers 0 to Params-1.
type Function struct {
	Name      string
	Params    int
	Registers int
	Code      []Instruction
}

// Labels maps each label defined in the function to the index of its
// label instruction.
func (f *Function) Labels() map[string]int {
	labels := make(map[string]int)
	for i, in := range f.Code {
		if in.Opcode == "label" {
			labels[in.Operands[0].Str] = i
		}
	}
	return labels
}

// Module is a compiled program. Each function's entry label is its own
// name, so call instructions name the callee directly and Entries maps
// every name to itself.
type Module struct {
	Functions []*Function       // in declaration order
	Entries   map[string]string // function name to entry label
	byName    map[string]*Function
}

func newModule(funcs []*Function) *Module {
	m := &Module{
		Functions: funcs,
		Entries:   make(map[string]string, len(funcs)),
		byName:    make(map[string]*Function, len(funcs)),
	}
	for _, f := range funcs {
		m.Entries[f.Name] = f.Name
		m.byName[f.Name] = f
	}
	return m
}

// Function returns the function with the given name, or nil.
func (m *Module) Function(name string) *Function {
	return m.byName[name]
}

// EntryNames returns the names in the entry table, sorted.
func (m *Module) EntryNames() []string {
	names := make([]string, 0, len(m.Entries))
	for name := range m.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteTo writes the textual assembly listing of the module.
func (m *Module) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	for i, f := range m.Functions {
		if i > 0 {
			buf.WriteByte('\n')
		}
		fmt.Fprintf(&buf, ".function: %s\n", m.Entries[f.Name])
		for _, in := range f.Code {
			buf.WriteString("    ")
			buf.WriteString(in.String())
			buf.WriteByte('\n')
		}
		buf.WriteString(".end\n")
	}
	return buf.WriteTo(w)
}

func (m *Module) String() string {
	var sb strings.Builder
	m.WriteTo(&sb)
	return sb.String()
}

// Opcode describes an instruction available to asm statements.
type Opcode struct {
	Name     string
	Operands int
	Writes   bool // operand 1 is a destination register
}

// OpcodeTable maps opcode names to their descriptions.
type OpcodeTable map[string]Opcode

// DefaultOpcodes returns the opcodes every runtime provides.
func DefaultOpcodes() OpcodeTable {
	return NewOpcodeTable(
		Opcode{Name: "echo", Operands: 1},
		Opcode{Name: "print", Operands: 1},
		Opcode{Name: "idec", Operands: 1, Writes: true},
		Opcode{Name: "iinc", Operands: 1, Writes: true},
		Opcode{Name: "iadd", Operands: 3, Writes: true},
		Opcode{Name: "imul", Operands: 3, Writes: true},
		Opcode{Name: "ieq", Operands: 3, Writes: true},
		Opcode{Name: "store", Operands: 2, Writes: true},
		Opcode{Name: "copy", Operands: 2, Writes: true},
	)
}

// NewOpcodeTable builds a table. Later entries replace earlier ones with the
// same name.
func NewOpcodeTable(ops ...Opcode) OpcodeTable {
	table := make(OpcodeTable, len(ops))
	for _, op := range ops {
		table[op.Name] = op
	}
	return table
}

// With returns a copy of the table extended by ops.
func (t OpcodeTable) With(ops ...Opcode) OpcodeTable {
	table := make(OpcodeTable, len(t)+len(ops))
	for name, op := range t {
		table[name] = op
	}
	for _, op := range ops {
		table[op.Name] = op
	}
	return table
}

// controlOpcodes are emitted by the generator for control flow and calls.
// asm statements cannot name them.
var controlOpcodes = map[string]bool{
	"label":      true,
	"jump":       true,
	"jumpunless": true,
	"frame":      true,
	"param":      true,
	"call":       true,
	"return":     true,
}

// IsControlOpcode reports whether name is one of the opcodes the generator
// emits for control flow and calls.
func IsControlOpcode(name string) bool {
	return controlOpcodes[name]
}

// CodeGenerator emits the instructions of one function.
type CodeGenerator struct {
	sigs    Signatures
	opcodes OpcodeTable
	fn      *ASTNode
	out     *Function
	regs    map[*Symbol]int
	labels  int
	loops   []string // exit labels of the enclosing loops, innermost last
}

// GenerateFunction emits code for a resolved and type checked function.
func GenerateFunction(fn *ASTNode, sigs Signatures, opcodes OpcodeTable) (*Function, error) {
	g := &CodeGenerator{
		sigs:    sigs,
		opcodes: opcodes,
		fn:      fn,
		out:     &Function{Name: fn.String, Params: len(fn.Params)},
		regs:    make(map[*Symbol]int),
	}
	for _, param := range fn.Params {
		g.regs[param.Symbol] = g.newRegister()
	}

	body := fn.Body()
	if err := g.genBlock(body); err != nil {
		return nil, err
	}
	if n := len(body.Children); n == 0 || body.Children[n-1].Kind != NodeReturn {
		g.emit("return")
	}
	return g.out, nil
}

func (g *CodeGenerator) emit(opcode string, operands ...Operand) {
	g.out.Code = append(g.out.Code, Instruction{Opcode: opcode, Operands: operands})
}

func (g *CodeGenerator) newRegister() int {
	r := g.out.Registers
	g.out.Registers++
	return r
}

func (g *CodeGenerator) newLabel(prefix string) string {
	l := prefix + "_" + strconv.Itoa(g.labels)
	g.labels++
	return l
}

func (g *CodeGenerator) register(sym *Symbol) Operand {
	return Reg(g.regs[sym])
}

// genBlock allocates registers for the locals of the block's scope, then
// emits its statements.
func (g *CodeGenerator) genBlock(block *ASTNode) error {
	for _, sym := range g.fn.Scopes.Symbols(block.Scope) {
		if sym.Kind == Local {
			g.regs[sym] = g.newRegister()
		}
	}
	for _, stmt := range block.Children {
		if err := g.genStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (g *CodeGenerator) genStatement(node *ASTNode) error {
	switch node.Kind {
	case NodeBlock:
		return g.genBlock(node)

	case NodeVar:
		dest := g.register(node.Symbol)
		if len(node.Children) > 0 {
			return g.evalInto(dest, node.Children[0])
		}
		switch node.DeclType {
		case TypeInt:
			g.emit("store", dest, IntOperand(0))
		case TypeBool:
			g.emit("store", dest, BoolOperand(false))
		case TypeString:
			g.emit("store", dest, StrOperand(""))
		}

	case NodeAssign:
		return g.evalInto(g.register(node.Symbol), node.Children[0])

	case NodeIf:
		cond, err := g.condition(node.Children[0])
		if err != nil {
			return err
		}
		end := g.newLabel("if_end")
		g.emit("jumpunless", cond, LabelOperand(end))
		if err := g.genBlock(node.Children[1]); err != nil {
			return err
		}
		g.emit("label", LabelOperand(end))

	case NodeWhile:
		n := g.labels
		g.labels++
		begin := "while_begin_" + strconv.Itoa(n)
		end := "while_end_" + strconv.Itoa(n)
		g.emit("label", LabelOperand(begin))
		cond, err := g.condition(node.Children[0])
		if err != nil {
			return err
		}
		g.emit("jumpunless", cond, LabelOperand(end))
		g.loops = append(g.loops, end)
		err = g.genBlock(node.Children[1])
		g.loops = g.loops[:len(g.loops)-1]
		if err != nil {
			return err
		}
		g.emit("jump", LabelOperand(begin))
		g.emit("label", LabelOperand(end))

	case NodeBreak:
		if len(g.loops) == 0 {
			return errorf(BreakOutsideLoopError, node.Pos, "break outside of a loop")
		}
		g.emit("jump", LabelOperand(g.loops[len(g.loops)-1]))

	case NodeReturn:
		if len(node.Children) == 0 || g.fn.DeclType == TypeVoid {
			g.emit("return")
			return nil
		}
		value, err := g.operand(node.Children[0])
		if err != nil {
			return err
		}
		g.emit("return", value)

	case NodeAsm:
		return g.genAsm(node)

	case NodeCall:
		return g.genCall(node, Void)

	default:
		// Identifiers and literals as statements have no effect.
	}
	return nil
}

func (g *CodeGenerator) genAsm(node *ASTNode) error {
	op, ok := g.opcodes[node.String]
	if !ok || IsControlOpcode(node.String) {
		return errorf(UnknownOpcodeError, node.Pos, "unknown opcode '%s'", node.String)
	}
	if len(node.Children) != op.Operands {
		return errorf(ArityError, node.Pos,
			"opcode '%s' takes %d operands, got %d", op.Name, op.Operands, len(node.Children))
	}
	operands := make([]Operand, len(node.Children))
	for i, child := range node.Children {
		if child.Kind == NodeIdent {
			operands[i] = g.register(child.Symbol)
		} else {
			operands[i] = literal(child)
		}
	}
	if op.Writes && operands[0].IsLiteral() {
		return errorf(SyntaxError, node.Children[0].Pos,
			"opcode '%s' writes its first operand, which must be a variable", op.Name)
	}
	g.emit(op.Name, operands...)
	return nil
}

// evalInto emits code leaving the value of expr in dest.
func (g *CodeGenerator) evalInto(dest Operand, expr *ASTNode) error {
	switch expr.Kind {
	case NodeIdent:
		g.emit("copy", dest, g.register(expr.Symbol))
	case NodeCall:
		return g.genCall(expr, dest)
	default:
		g.emit("store", dest, literal(expr))
	}
	return nil
}

// operand returns an operand holding the value of expr. Literals are used
// inline and calls are evaluated into a fresh temporary.
func (g *CodeGenerator) operand(expr *ASTNode) (Operand, error) {
	switch expr.Kind {
	case NodeIdent:
		return g.register(expr.Symbol), nil
	case NodeCall:
		tmp := Reg(g.newRegister())
		return tmp, g.genCall(expr, tmp)
	default:
		return literal(expr), nil
	}
}

// condition returns a register holding the value of expr.
func (g *CodeGenerator) condition(expr *ASTNode) (Operand, error) {
	op, err := g.operand(expr)
	if err != nil || !op.IsLiteral() {
		return op, err
	}
	tmp := Reg(g.newRegister())
	g.emit("store", tmp, op)
	return tmp, nil
}

func (g *CodeGenerator) genCall(call *ASTNode, dest Operand) error {
	args := make([]Operand, len(call.Children))
	for i, arg := range call.Children {
		op, err := g.operand(arg)
		if err != nil {
			return err
		}
		args[i] = op
	}
	g.emit("frame", IntOperand(int64(len(args))))
	for i, arg := range args {
		g.emit("param", IntOperand(int64(i)), arg)
	}
	g.emit("call", dest, FuncOperand(call.String))
	return nil
}

func literal(node *ASTNode) Operand {
	switch node.Kind {
	case NodeBoolean:
		return BoolOperand(node.Boolean)
	case NodeString:
		return StrOperand(node.String)
	default:
		return IntOperand(node.Integer)
	}
}
