package pjac

// FunctionSignature is what a call site needs to know about its callee.
type FunctionSignature struct {
	Name       string
	ParamNames []string
	ParamTypes []Type
	ReturnType Type // TypeVoid when none is declared
	Pos        Position
}

// Signatures maps function names to their signatures. Function names share
// a single flat namespace, separate from variables.
type Signatures map[string]*FunctionSignature

// CollectSignatures builds the signature table of a program. A second
// function with an already used name is a RedeclarationError.
func CollectSignatures(program *ASTNode) (Signatures, error) {
	sigs := make(Signatures, len(program.Children))
	for _, fn := range program.Children {
		if prev, ok := sigs[fn.String]; ok {
			return nil, errorf(RedeclarationError, fn.Pos,
				"function '%s' already declared at %s", fn.String, prev.Pos)
		}
		sig := &FunctionSignature{
			Name:       fn.String,
			ReturnType: fn.DeclType,
			Pos:        fn.Pos,
		}
		for _, param := range fn.Params {
			sig.ParamNames = append(sig.ParamNames, param.String)
			sig.ParamTypes = append(sig.ParamTypes, param.DeclType)
		}
		sigs[fn.String] = sig
	}
	return sigs, nil
}
