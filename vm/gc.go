package vm

import (
	"github.com/tliron/commonlog"
)

// ---------------------------------------------------------------------------
// GCollector: mark/sweep over the pair store
// ---------------------------------------------------------------------------
//
// Collection cycles run only at interpreter-designated safe points,
// between top-level reads. The mark phase walks every cell reachable from
// the argument environment (or the interpreter's top environment); the
// sweep phase drops unmarked pairs from the store and flips the mark bits
// back for the next epoch.

var gcLog = commonlog.GetLogger("pscheme.gc")

// GCollector traces reachable pairs, vectors and environments.
type GCollector struct {
	logon   bool
	visited map[any]struct{}
}

// Logging toggles a log line per cycle with the released cell count.
func (g *GCollector) Logging(ok bool) { g.logon = ok }

// Collect runs one mark/sweep cycle over the interpreter's pair store,
// rooted at env or, when nil, at the top environment.
func (g *GCollector) Collect(scm *Scheme, env *Env) {
	g.visited = make(map[any]struct{})
	if env == nil {
		env = scm.topenv
	}
	g.markEnv(env)
	g.visited = nil

	size := len(scm.store)
	kept := scm.store[:0]
	for _, p := range scm.store {
		if p.mark {
			p.mark = false
			kept = append(kept, p)
		}
	}
	scm.store = kept
	scm.storeSize = len(kept)

	if g.logon {
		gcLog.Infof("garbage collector released %d cons-cells from %d in total",
			size-len(kept), size)
	}
}

// mark visits one cell and recurses into its reachable handles.
func (g *GCollector) mark(c Cell) {
	switch c.Type() {
	case TagPair:
		g.markPair(c.Pair())
	case TagVector:
		g.markVector(c.Vector())
	case TagEnv:
		g.markEnv(c.Env())
	case TagDict:
		g.markDict(c.Dict())
	}
}

// markPair walks a list iteratively along the cdr chain, recursing on the
// cars. A marked pair has been visited already, which also terminates
// circular lists.
func (g *GCollector) markPair(p *Pair) {
	for {
		if p.mark {
			return
		}
		p.mark = true
		g.mark(p.Car)
		if !p.Cdr.IsPair() {
			if !p.Cdr.IsNil() {
				g.mark(p.Cdr)
			}
			return
		}
		p = p.Cdr.Pair()
	}
}

// markVector marks all cells contained in a vector.
func (g *GCollector) markVector(v *Vector) {
	if _, ok := g.visited[v]; ok {
		return
	}
	g.visited[v] = struct{}{}
	for _, c := range *v {
		g.mark(c)
	}
}

// markDict marks the keys and values of a dict.
func (g *GCollector) markDict(d *Dict) {
	if _, ok := g.visited[d]; ok {
		return
	}
	g.visited[d] = struct{}{}
	d.Each(func(key, val Cell) {
		g.mark(key)
		g.mark(val)
	})
}

// markEnv marks the cells reachable from an environment chain.
func (g *GCollector) markEnv(env *Env) {
	for ; env != nil; env = env.Parent() {
		if _, ok := g.visited[env]; ok {
			return
		}
		g.visited[env] = struct{}{}
		env.Each(func(_ *Symbol, val Cell) {
			g.mark(val)
		})
	}
}
