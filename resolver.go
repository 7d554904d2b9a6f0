package pjac

// Resolver binds every name used in one function body to its declaration.
type Resolver struct {
	sigs   Signatures
	scopes *ScopeTree
}

// ResolveFunction builds the scope tree of fn and sets Symbol on every
// identifier, assignment, declaration and asm identifier operand in it.
// The body block shares the root scope with the parameters.
func ResolveFunction(fn *ASTNode, sigs Signatures) error {
	r := &Resolver{sigs: sigs, scopes: NewScopeTree()}
	root := r.scopes.Root()
	for _, param := range fn.Params {
		sym, ok := r.scopes.Declare(root, param.String, param.DeclType, Parameter, param.Pos)
		if !ok {
			return errorf(RedeclarationError, param.Pos,
				"parameter '%s' already declared at %s", param.String, sym.Pos)
		}
		param.Symbol = sym
	}

	body := fn.Body()
	body.Scope = root
	if err := r.resolveStatements(body.Children, root); err != nil {
		return err
	}
	fn.Scopes = r.scopes
	return nil
}

func (r *Resolver) resolveStatements(stmts []*ASTNode, scope ScopeID) error {
	for _, stmt := range stmts {
		if err := r.resolveStatement(stmt, scope); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) resolveBlock(block *ASTNode, parent ScopeID) error {
	block.Scope = r.scopes.Enter(parent)
	return r.resolveStatements(block.Children, block.Scope)
}

func (r *Resolver) resolveStatement(node *ASTNode, scope ScopeID) error {
	switch node.Kind {
	case NodeVar:
		// The initializer cannot see the variable it initializes.
		if len(node.Children) > 0 {
			if err := r.resolveExpression(node.Children[0], scope); err != nil {
				return err
			}
		}
		sym, ok := r.scopes.Declare(scope, node.String, node.DeclType, Local, node.Pos)
		if !ok {
			return errorf(RedeclarationError, node.Pos,
				"variable '%s' already declared at %s", node.String, sym.Pos)
		}
		node.Symbol = sym

	case NodeAssign:
		sym, err := r.lookup(node, scope)
		if err != nil {
			return err
		}
		node.Symbol = sym
		return r.resolveExpression(node.Children[0], scope)

	case NodeIf, NodeWhile:
		if err := r.resolveExpression(node.Children[0], scope); err != nil {
			return err
		}
		return r.resolveBlock(node.Children[1], scope)

	case NodeBlock:
		return r.resolveBlock(node, scope)

	case NodeReturn:
		if len(node.Children) > 0 {
			return r.resolveExpression(node.Children[0], scope)
		}

	case NodeAsm:
		for _, operand := range node.Children {
			if operand.Kind != NodeIdent {
				continue
			}
			sym, err := r.lookup(operand, scope)
			if err != nil {
				return err
			}
			operand.Symbol = sym
		}

	case NodeBreak:
		// Loop nesting is checked during code generation.

	default:
		return r.resolveExpression(node, scope)
	}
	return nil
}

func (r *Resolver) resolveExpression(node *ASTNode, scope ScopeID) error {
	switch node.Kind {
	case NodeIdent:
		sym, err := r.lookup(node, scope)
		if err != nil {
			return err
		}
		node.Symbol = sym

	case NodeCall:
		if _, ok := r.sigs[node.String]; !ok {
			return errorf(UnresolvedIdentifier, node.Pos, "undefined function '%s'", node.String)
		}
		for _, arg := range node.Children {
			if err := r.resolveExpression(arg, scope); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Resolver) lookup(node *ASTNode, scope ScopeID) (*Symbol, error) {
	sym := r.scopes.Lookup(scope, node.String)
	if sym == nil {
		return nil, errorf(UnresolvedIdentifier, node.Pos, "undefined variable '%s'", node.String)
	}
	return sym, nil
}
