package injector

import "context"

// chain is the list of ids being built by one resolution, innermost first.
// It is immutable, so goroutines that share a parent context never observe
// each other's links.
type chain struct {
	id        ServiceID
	lifestyle Lifestyle
	parent    *chain
	res       *resolution
	depth     int
}

type chainKey struct{}

// chainFrom returns the resolution chain carried by ctx, if any.
func chainFrom(ctx context.Context) *chain {
	ch, _ := ctx.Value(chainKey{}).(*chain)

	return ch
}

// push returns a chain with id appended. An empty chain starts a new
// resolution.
func (ch *chain) push(id ServiceID, lifestyle Lifestyle) *chain {
	if ch == nil {
		return &chain{id: id, lifestyle: lifestyle, res: &resolution{root: id}, depth: 1}
	}

	return &chain{id: id, lifestyle: lifestyle, parent: ch, res: ch.res, depth: ch.depth + 1}
}

// resolution returns the resolution the chain belongs to.
func (ch *chain) resolution() *resolution {
	if ch == nil {
		return &resolution{}
	}

	return ch.res
}

// singleton returns the innermost singleton being built, if any.
func (ch *chain) singleton() (ServiceID, bool) {
	for link := ch; link != nil; link = link.parent {
		if link.lifestyle == LifestyleSingleton {
			return link.id, true
		}
	}

	return "", false
}

// contains reports whether id is already being built.
func (ch *chain) contains(id ServiceID) bool {
	for link := ch; link != nil; link = link.parent {
		if link.id == id {
			return true
		}
	}

	return false
}

// len returns the number of ids in the chain.
func (ch *chain) len() int {
	if ch == nil {
		return 0
	}

	return ch.depth
}

// path returns the ids from the outermost request to the innermost.
func (ch *chain) path() []ServiceID {
	ids := make([]ServiceID, ch.len())
	for link := ch; link != nil; link = link.parent {
		ids[link.depth-1] = link.id
	}

	return ids
}

// withChain stores ch in ctx.
func withChain(ctx context.Context, ch *chain) context.Context {
	return context.WithValue(ctx, chainKey{}, ch)
}

// detachChain returns ctx with no resolution chain. Handles that resolve
// later (Lazy, Provider) use it so they are not charged for the chain that
// was in flight when they were created.
func detachChain(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}

	if chainFrom(ctx) == nil {
		return ctx
	}

	return withChain(ctx, nil)
}
