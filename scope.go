package pjac

// ScopeID indexes a Scope inside its function's ScopeTree.
type ScopeID int

// NoScope is the parent of a function's root scope.
const NoScope ScopeID = -1

// SymbolKind distinguishes parameters from locals.
type SymbolKind int

const (
	Parameter SymbolKind = iota
	Local
)

func (k SymbolKind) String() string {
	if k == Parameter {
		return "param"
	}
	return "local"
}

// Symbol is one declaration. Two declarations with the same name in
// different scopes are always distinct symbols.
type Symbol struct {
	Name  string
	Type  Type
	Kind  SymbolKind
	Scope ScopeID
	Pos   Position
}

// Scope holds the declarations made directly in one block.
type Scope struct {
	Parent  ScopeID
	Symbols []*Symbol // in declaration order
	byName  map[string]*Symbol
}

// ScopeTree is the arena of scopes of a single function. Scopes refer to
// their parent by index, so the tree owns every scope and no scope owns
// another.
type ScopeTree struct {
	scopes []*Scope
}

// NewScopeTree creates a tree holding only the root scope.
func NewScopeTree() *ScopeTree {
	t := &ScopeTree{}
	t.Enter(NoScope)
	return t
}

// Root returns the function's root scope.
func (t *ScopeTree) Root() ScopeID {
	return 0
}

// Len returns the number of scopes in the tree.
func (t *ScopeTree) Len() int {
	return len(t.scopes)
}

// Enter adds a child scope of parent and returns its ID.
func (t *ScopeTree) Enter(parent ScopeID) ScopeID {
	t.scopes = append(t.scopes, &Scope{
		Parent: parent,
		byName: make(map[string]*Symbol),
	})
	return ScopeID(len(t.scopes) - 1)
}

// Scope returns the scope with the given ID.
func (t *ScopeTree) Scope(id ScopeID) *Scope {
	return t.scopes[id]
}

// Parent returns the parent of id, or NoScope for the root.
func (t *ScopeTree) Parent(id ScopeID) ScopeID {
	return t.scopes[id].Parent
}

// Declare adds a symbol to scope id. It returns the existing symbol and false
// if the name is already declared directly in that scope; names declared in
// ancestor scopes do not conflict.
func (t *ScopeTree) Declare(id ScopeID, name string, typ Type, kind SymbolKind, pos Position) (*Symbol, bool) {
	scope := t.scopes[id]
	if prev, ok := scope.byName[name]; ok {
		return prev, false
	}
	sym := &Symbol{Name: name, Type: typ, Kind: kind, Scope: id, Pos: pos}
	scope.byName[name] = sym
	scope.Symbols = append(scope.Symbols, sym)
	return sym, true
}

// Lookup finds name starting at scope id and walking outward through the
// parents. It returns nil if no enclosing scope declares it.
func (t *ScopeTree) Lookup(id ScopeID, name string) *Symbol {
	for id != NoScope {
		scope := t.scopes[id]
		if sym, ok := scope.byName[name]; ok {
			return sym
		}
		id = scope.Parent
	}
	return nil
}

// Symbols returns the declarations made directly in scope id.
func (t *ScopeTree) Symbols(id ScopeID) []*Symbol {
	return t.scopes[id].Symbols
}
