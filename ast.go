package pjac

import (
	"strconv"
	"strings"
)

// Type is the closed set of value types. Void is never written in source; it
// is the type of a call to a function that declares no return type.
type Type int

const (
	TypeVoid Type = iota
	TypeInt
	TypeBool
	TypeString
	TypeDynamic // auto, undefined: exempt from type checking
)

func (t Type) String() string {
	switch t {
	case TypeVoid:
		return "void"
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeDynamic:
		return "dynamic"
	default:
		return "Type(" + strconv.Itoa(int(t)) + ")"
	}
}

// typeFromToken maps a type-name token to its Type.
func typeFromToken(tt TokenType) Type {
	switch tt {
	case INT_TYPE:
		return TypeInt
	case BOOL_TYPE:
		return TypeBool
	case STRING_TYPE:
		return TypeString
	case AUTO_TYPE, UNDEFINED_TYPE:
		return TypeDynamic
	}
	return TypeVoid
}

// NodeKind represents different types of AST nodes
type NodeKind string

const (
	NodeProgram NodeKind = "NodeProgram"
	NodeFunc    NodeKind = "NodeFunc"
	NodeParam   NodeKind = "NodeParam"
	NodeBlock   NodeKind = "NodeBlock"
	NodeVar     NodeKind = "NodeVar"
	NodeAssign  NodeKind = "NodeAssign"
	NodeIf      NodeKind = "NodeIf"
	NodeWhile   NodeKind = "NodeWhile"
	NodeBreak   NodeKind = "NodeBreak"
	NodeReturn  NodeKind = "NodeReturn"
	NodeAsm     NodeKind = "NodeAsm"
	NodeCall    NodeKind = "NodeCall"
	NodeIdent   NodeKind = "NodeIdent"
	NodeInteger NodeKind = "NodeInteger"
	NodeString  NodeKind = "NodeString"
	NodeBoolean NodeKind = "NodeBoolean"
)

// ASTNode represents a node in the Abstract Syntax Tree.
//
// Children layout by kind:
//
//	NodeProgram  functions
//	NodeFunc     [body]            (Params holds the parameters)
//	NodeBlock    statements
//	NodeVar      [initializer]?    (String: name, DeclType: declared type)
//	NodeAssign   [value]           (String: target name)
//	NodeIf       [condition, body]
//	NodeWhile    [condition, body]
//	NodeReturn   [value]?
//	NodeAsm      operands          (String: opcode)
//	NodeCall     arguments         (String: callee name)
type ASTNode struct {
	Kind NodeKind
	Pos  Position

	// NodeIdent, NodeString, and the name/opcode of declarations, calls and asm
	String string
	// NodeInteger:
	Integer int64
	// NodeBoolean:
	Boolean bool

	Children []*ASTNode

	// NodeVar, NodeParam: the declared type. NodeFunc: the return type, or
	// TypeVoid when none is declared.
	DeclType Type
	// NodeFunc:
	Params []*ASTNode

	// Filled in by the resolver. Symbol is set on NodeIdent, NodeAssign,
	// NodeVar and NodeParam; Scope on NodeBlock; Scopes on NodeFunc.
	Symbol *Symbol
	Scope  ScopeID
	Scopes *ScopeTree

	// Filled in by the type checker on expressions.
	Type Type
}

// Body returns the body block of a NodeFunc.
func (n *ASTNode) Body() *ASTNode {
	return n.Children[0]
}

// ToSExpr converts an AST node to s-expression string representation
func ToSExpr(node *ASTNode) string {
	switch node.Kind {
	case NodeProgram:
		return "(program" + joinSExpr(node.Children) + ")"
	case NodeFunc:
		result := "(function " + quote(node.String) + " ("
		for i, param := range node.Params {
			if i > 0 {
				result += " "
			}
			result += ToSExpr(param)
		}
		result += ") " + node.DeclType.String() + " " + ToSExpr(node.Body()) + ")"
		return result
	case NodeParam:
		return "(param " + node.DeclType.String() + " " + quote(node.String) + ")"
	case NodeBlock:
		return "(block" + joinSExpr(node.Children) + ")"
	case NodeVar:
		return "(var " + node.DeclType.String() + " " + quote(node.String) + joinSExpr(node.Children) + ")"
	case NodeAssign:
		return "(assign " + quote(node.String) + joinSExpr(node.Children) + ")"
	case NodeIf:
		return "(if" + joinSExpr(node.Children) + ")"
	case NodeWhile:
		return "(while" + joinSExpr(node.Children) + ")"
	case NodeBreak:
		return "(break)"
	case NodeReturn:
		return "(return" + joinSExpr(node.Children) + ")"
	case NodeAsm:
		return "(asm " + quote(node.String) + joinSExpr(node.Children) + ")"
	case NodeCall:
		return "(call " + quote(node.String) + joinSExpr(node.Children) + ")"
	case NodeIdent:
		return "(ident " + quote(node.String) + ")"
	case NodeInteger:
		return strconv.FormatInt(node.Integer, 10)
	case NodeString:
		return "(string " + quote(node.String) + ")"
	case NodeBoolean:
		return "(boolean " + strconv.FormatBool(node.Boolean) + ")"
	default:
		return ""
	}
}

func joinSExpr(nodes []*ASTNode) string {
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteByte(' ')
		sb.WriteString(ToSExpr(n))
	}
	return sb.String()
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
