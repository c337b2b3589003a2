package vm

// ---------------------------------------------------------------------------
// Scheme: interpreter state
// ---------------------------------------------------------------------------

// defaultGCThreshold is the number of fresh cons cells after which the
// next safe point triggers a collection cycle.
const defaultGCThreshold = 10000

// Scheme holds the shared state of one interpreter instance: the pair
// store owned by the garbage collector, the symbol table, the top
// environment and the default ports.
type Scheme struct {
	store     []*Pair
	storeSize int // store length at the end of the last collection

	symtab *SymbolTable
	topenv *Env

	stdin  *Port
	stdout *Port

	gc          GCollector
	gcThreshold int

	readFn ReadFunc // installed by the reader package
}

// NewScheme creates an interpreter with a fresh top environment holding
// the standard opcode bindings, optionally connected to the environment
// of another interpreter.
func NewScheme(parent *Env) *Scheme {
	scm := &Scheme{
		symtab:      NewSymbolTable(),
		topenv:      NewEnv(parent),
		stdin:       NewStandardInput(),
		stdout:      NewStandardOutput(),
		gcThreshold: defaultGCThreshold,
	}
	for name, op := range stdBindings {
		scm.topenv.Add(scm.symtab.Intern(name), FromOpcode(op))
	}
	return scm
}

// Getenv returns the top environment of this interpreter.
func (scm *Scheme) Getenv() *Env { return scm.topenv }

// NewChildEnv creates a new empty environment connected to the argument
// parent, or to the top environment when parent is nil.
func (scm *Scheme) NewChildEnv(parent *Env) *Env {
	if parent == nil {
		parent = scm.topenv
	}
	return NewEnv(parent)
}

// AddEnv binds a symbol at the top environment.
func (scm *Scheme) AddEnv(sym *Symbol, val Cell) {
	scm.topenv.Add(sym, val)
}

// Intern returns the unique symbol handle for a name.
func (scm *Scheme) Intern(name string) *Symbol {
	return scm.symtab.Intern(name)
}

// SymbolCell interns a name and returns it as a cell.
func (scm *Scheme) SymbolCell(name string) Cell {
	return FromSymbol(scm.symtab.Intern(name))
}

// Gensym returns a fresh symbol guaranteed not to exist before.
func (scm *Scheme) Gensym() *Symbol { return scm.symtab.Gensym() }

// Symtab returns the interpreter's symbol table.
func (scm *Scheme) Symtab() *SymbolTable { return scm.symtab }

// InPort returns the default input port.
func (scm *Scheme) InPort() *Port { return scm.stdin }

// OutPort returns the default output port.
func (scm *Scheme) OutPort() *Port { return scm.stdout }

// SetPorts replaces the default ports; a nil argument keeps the current
// port.
func (scm *Scheme) SetPorts(in, out *Port) {
	if in != nil {
		scm.stdin = in
	}
	if out != nil {
		scm.stdout = out
	}
}

// Cons allocates a new pair in the interpreter's store and returns it as
// a cell. The pair's lifetime is managed by the garbage collector.
func (scm *Scheme) Cons(car, cdr Cell) Cell {
	p := &Pair{Car: car, Cdr: cdr}
	scm.store = append(scm.store, p)
	return FromPair(p)
}

// List builds a proper list of the argument cells.
func (scm *Scheme) List(cells ...Cell) Cell {
	list := Nil
	for i := len(cells) - 1; i >= 0; i-- {
		list = scm.Cons(cells[i], list)
	}
	return list
}

// StoreSize returns the number of pairs currently held by the store.
func (scm *Scheme) StoreSize() int { return len(scm.store) }

// SetGCThreshold adjusts the allocation count that arms MaybeCollect.
func (scm *Scheme) SetGCThreshold(n int) {
	if n > 0 {
		scm.gcThreshold = n
	}
}

// GC returns the interpreter's collector for logging control.
func (scm *Scheme) GC() *GCollector { return &scm.gc }

// MaybeCollect runs a collection cycle when enough pairs accumulated
// since the last one. Call it only at interpreter-designated safe points,
// between top-level reads.
func (scm *Scheme) MaybeCollect() {
	if len(scm.store) > scm.storeSize+scm.gcThreshold {
		scm.gc.Collect(scm, nil)
	}
}
