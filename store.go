package injector

import (
	"errors"
	"sync"
)

// errStoreDrained is returned by getOrBuild when the store was drained while
// the instance was being built. The late instance comes back with it so the
// owner can dispose it.
var errStoreDrained = errors.New("instance store drained")

// instanceStore caches built instances by id. It backs both the singleton
// store of a container and the instances of a scope.
type instanceStore struct {
	entries map[ServiceID]*instanceEntry
	order   []ServiceID // build order, for reverse disposal
	locks   *lockGraph
	drained bool
	mu      sync.Mutex
}

// instanceEntry serialises construction of one id. owner is guarded by the
// lock graph; built and value are written by the owner under the store lock.
type instanceEntry struct {
	id    ServiceID
	owner *resolution
	built bool
	value any
}

func newInstanceStore(locks *lockGraph) *instanceStore {
	return &instanceStore{
		entries: make(map[ServiceID]*instanceEntry),
		locks:   locks,
	}
}

// entry returns the entry for id, creating it if needed.
func (s *instanceStore) entry(id ServiceID) *instanceEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		e = &instanceEntry{id: id}
		s.entries[id] = e
	}

	return e
}

// getOrBuild returns the cached instance for id or builds it with build.
// ch is the resolution chain that ends with id. At most one build of id
// succeeds per store; a failed build leaves the entry empty so a later call
// can retry.
func (s *instanceStore) getOrBuild(ch *chain, id ServiceID, build func() (any, error)) (any, error) {
	e := s.entry(id)

	if err := s.locks.acquire(e, ch); err != nil {
		return nil, err
	}
	defer s.locks.release(e)

	s.mu.Lock()
	drained, built, value := s.drained, e.built, e.value
	s.mu.Unlock()

	switch {
	case drained:
		return nil, errStoreDrained
	case built:
		return value, nil
	}

	value, err := build()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.drained {
		return value, errStoreDrained
	}

	e.value = value
	e.built = true
	s.order = append(s.order, id)

	return value, nil
}

// has reports whether id has a built instance. It does not wait for a
// build in progress.
func (s *instanceStore) has(id ServiceID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]

	return ok && e.built
}

// drain empties the store and returns the built instances, newest first.
// Builds that finish afterwards are not cached.
func (s *instanceStore) drain() []builtInstance {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]builtInstance, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		id := s.order[i]
		if e, ok := s.entries[id]; ok && e.built {
			out = append(out, builtInstance{id: id, value: e.value})
		}
	}

	s.entries = make(map[ServiceID]*instanceEntry)
	s.order = nil
	s.drained = true

	return out
}

type builtInstance struct {
	id    ServiceID
	value any
}

// discardLate disposes an instance that finished building after its store
// was drained, and returns cause joined with any disposal error.
func discardLate(cause error, id ServiceID, value any) error {
	errs := disposeAll([]builtInstance{{id: id, value: value}})

	return errors.Join(append([]error{cause}, errs...)...)
}
