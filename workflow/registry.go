package workflow

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry holds workflow state per browser. Entries idle for longer than
// the TTL are evicted by Sweep; a generator with a pending generation is
// never evicted.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]*Generator
	pagers     map[string]*pagerEntry
	ttl        time.Duration
	now        func() time.Time
}

type pagerEntry struct {
	pager *Pager
	used  time.Time
}

// NewRegistry creates an empty Registry.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		generators: make(map[string]*Generator),
		pagers:     make(map[string]*pagerEntry),
		ttl:        ttl,
		now:        time.Now,
	}
}

func generatorKey(owner, formID string) string {
	return owner + "/" + formID
}

// Generator returns the generator form formID owned by owner, creating it
// if needed. An empty formID starts a new form with a fresh id.
func (r *Registry) Generator(owner, formID string) *Generator {
	if formID == "" {
		formID = uuid.NewString()
	}
	key := generatorKey(owner, formID)

	r.mu.RLock()
	g, ok := r.generators[key]
	r.mu.RUnlock()
	if ok {
		return g
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.generators[key]; ok {
		return g
	}
	g = NewGenerator(formID)
	r.generators[key] = g
	return g
}

// Pager returns owner's history pager, creating it if needed.
func (r *Registry) Pager(owner string) *Pager {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.pagers[owner]
	if !ok {
		e = &pagerEntry{pager: &Pager{}}
		r.pagers[owner] = e
	}
	e.used = r.now()
	return e.pager
}

// Forget drops everything owned by owner.
func (r *Registry) Forget(owner string) {
	prefix := owner + "/"
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pagers, owner)
	for key := range r.generators {
		if strings.HasPrefix(key, prefix) {
			delete(r.generators, key)
		}
	}
}

// Sweep evicts expired entries and returns how many were removed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for key, g := range r.generators {
		touched, idle := g.idleSince()
		if idle && touched.Before(cutoff) {
			delete(r.generators, key)
			n++
		}
	}
	for owner, e := range r.pagers {
		if e.used.Before(cutoff) {
			delete(r.pagers, owner)
			n++
		}
	}
	return n
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.generators) + len(r.pagers)
}

// StartSweeper runs Sweep every interval until the returned stop function
// is called.
func (r *Registry) StartSweeper(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Sweep()
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
