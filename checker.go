package pjac

// TypeChecker validates the typed constructs of one resolved function.
type TypeChecker struct {
	sigs Signatures
	fn   *ASTNode
}

// NewTypeChecker creates a checker for fn, which must already be resolved.
func NewTypeChecker(fn *ASTNode, sigs Signatures) *TypeChecker {
	return &TypeChecker{sigs: sigs, fn: fn}
}

// CheckFunction type checks a resolved function and sets Type on every
// expression in its body.
func CheckFunction(fn *ASTNode, sigs Signatures) error {
	return NewTypeChecker(fn, sigs).CheckStatement(fn.Body())
}

// assignable reports whether a value of type got may flow into a slot of
// type want. Dynamic on either side disables the check.
func assignable(want, got Type) bool {
	return want == TypeDynamic || got == TypeDynamic || want == got
}

// CheckStatement type checks a statement and everything nested in it.
func (tc *TypeChecker) CheckStatement(node *ASTNode) error {
	switch node.Kind {
	case NodeBlock:
		for _, stmt := range node.Children {
			if err := tc.CheckStatement(stmt); err != nil {
				return err
			}
		}

	case NodeVar:
		if len(node.Children) == 0 {
			return nil
		}
		init := node.Children[0]
		if err := tc.checkValue(init, "initializer"); err != nil {
			return err
		}
		if !assignable(node.DeclType, init.Type) {
			return errorf(TypeMismatchError, init.Pos,
				"cannot initialize variable '%s' of type %s with %s",
				node.String, node.DeclType, init.Type)
		}

	case NodeAssign:
		value := node.Children[0]
		if err := tc.checkValue(value, "assignment"); err != nil {
			return err
		}
		if !assignable(node.Symbol.Type, value.Type) {
			return errorf(TypeMismatchError, value.Pos,
				"cannot assign %s to variable '%s' of type %s",
				value.Type, node.String, node.Symbol.Type)
		}

	case NodeIf, NodeWhile:
		if err := tc.checkValue(node.Children[0], "condition"); err != nil {
			return err
		}
		return tc.CheckStatement(node.Children[1])

	case NodeReturn:
		return tc.checkReturn(node)

	case NodeAsm, NodeBreak:
		// asm operands are deliberately unchecked.

	default:
		// Expression statement; a void call is fine here.
		return tc.CheckExpression(node)
	}
	return nil
}

func (tc *TypeChecker) checkReturn(node *ASTNode) error {
	if len(node.Children) == 0 {
		return nil
	}
	value := node.Children[0]
	want := tc.fn.DeclType
	if want == TypeVoid {
		return errorf(TypeMismatchError, value.Pos,
			"function '%s' has no return type but returns a value", tc.fn.String)
	}
	if err := tc.checkValue(value, "return value"); err != nil {
		return err
	}
	if !assignable(want, value.Type) {
		return errorf(TypeMismatchError, value.Pos,
			"cannot return %s from function '%s' returning %s", value.Type, tc.fn.String, want)
	}
	return nil
}

// checkValue checks an expression used where a value is required.
func (tc *TypeChecker) checkValue(node *ASTNode, context string) error {
	if err := tc.CheckExpression(node); err != nil {
		return err
	}
	if node.Type == TypeVoid {
		return errorf(TypeMismatchError, node.Pos,
			"call to '%s' has no value and cannot be used as %s", node.String, context)
	}
	return nil
}

// CheckExpression infers and records the type of an expression.
func (tc *TypeChecker) CheckExpression(node *ASTNode) error {
	switch node.Kind {
	case NodeInteger:
		node.Type = TypeInt
	case NodeBoolean:
		node.Type = TypeBool
	case NodeString:
		node.Type = TypeString
	case NodeIdent:
		node.Type = node.Symbol.Type
	case NodeCall:
		return tc.checkCall(node)
	default:
		return errorf(SyntaxError, node.Pos, "unexpected %s in expression", node.Kind)
	}
	return nil
}

func (tc *TypeChecker) checkCall(node *ASTNode) error {
	sig := tc.sigs[node.String]
	if len(node.Children) != len(sig.ParamTypes) {
		return errorf(ArityError, node.Pos,
			"function '%s' expects %d arguments, got %d", sig.Name, len(sig.ParamTypes), len(node.Children))
	}
	for i, arg := range node.Children {
		if err := tc.checkValue(arg, "argument"); err != nil {
			return err
		}
		if !assignable(sig.ParamTypes[i], arg.Type) {
			return errorf(TypeMismatchError, arg.Pos,
				"argument %d of '%s' (%s) must be %s, got %s",
				i+1, sig.Name, sig.ParamNames[i], sig.ParamTypes[i], arg.Type)
		}
	}
	node.Type = sig.ReturnType
	return nil
}
