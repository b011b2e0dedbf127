package serial

import (
	"sort"
	"sync"
)

// Pool owns the candidate port names controllers may probe. A port
// successfully claimed leaves the pool, so two controllers can never
// race for one device. The pool is built once at startup and passed to
// every controller.
type Pool struct {
	mu        sync.Mutex
	available map[string]bool
}

// NewPool constructs a pool over the given port names.
func NewPool(names []string) *Pool {
	p := &Pool{available: make(map[string]bool, len(names))}
	for _, name := range names {
		p.available[name] = true
	}
	return p
}

// Candidates returns the unclaimed port names, sorted for stable
// probe order.
func (p *Pool) Candidates() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.available))
	for name := range p.available {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Claim removes a port from the pool, reporting whether the caller won
// it.
func (p *Pool) Claim(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.available[name] {
		return false
	}
	delete(p.available, name)
	return true
}

// Release returns a port to the pool, typically after a failed
// handshake or an explicit device teardown.
func (p *Pool) Release(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.available[name] = true
}

// Len returns the number of unclaimed ports.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.available)
}
