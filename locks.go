package injector

import "sync"

// resolution identifies one top-level Get together with every nested
// resolution made through its context.
type resolution struct {
	root ServiceID
}

// lockGraph tracks which resolution is building each instance entry and
// which entry every blocked resolution waits for. One graph is shared by the
// singleton store and all scope stores of a container, so a wait that would
// close a loop across goroutines is reported as a dependency cycle instead
// of blocking forever.
type lockGraph struct {
	waits map[*resolution]*instanceEntry
	cond  *sync.Cond
	mu    sync.Mutex
}

func newLockGraph() *lockGraph {
	g := &lockGraph{waits: make(map[*resolution]*instanceEntry)}
	g.cond = sync.NewCond(&g.mu)

	return g
}

// acquire takes ownership of e for the resolution of ch, waiting while
// another resolution builds it.
func (g *lockGraph) acquire(e *instanceEntry, ch *chain) error {
	r := ch.resolution()

	g.mu.Lock()
	defer g.mu.Unlock()

	for e.owner != nil {
		if path, ok := g.cycle(e, r, ch); ok {
			return DependencyCycleError(path)
		}

		g.waits[r] = e
		g.cond.Wait()
		delete(g.waits, r)
	}

	e.owner = r

	return nil
}

// release gives up ownership of e and wakes the waiters.
func (g *lockGraph) release(e *instanceEntry) {
	g.mu.Lock()
	e.owner = nil
	g.mu.Unlock()

	g.cond.Broadcast()
}

// cycle follows wait-for edges starting at the owner of e. It returns the
// ids along the loop when they lead back to r, which owns an entry that
// the chain is waiting on.
func (g *lockGraph) cycle(e *instanceEntry, r *resolution, ch *chain) ([]ServiceID, bool) {
	// Goroutines spawned by one resolution share it; they wait on each other.
	if e.owner == r {
		return nil, false
	}

	path := ch.path()
	seen := make(map[*resolution]bool)

	for owner := e.owner; owner != nil && !seen[owner]; {
		seen[owner] = true

		next, ok := g.waits[owner]
		if !ok {
			return nil, false
		}

		path = append(path, next.id)

		if next.owner == r {
			return path, true
		}

		owner = next.owner
	}

	return nil, false
}
