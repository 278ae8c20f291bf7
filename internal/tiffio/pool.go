package tiffio

import "sync"

// DefaultMaxHandles is the default pool size.
const DefaultMaxHandles = 4

// Pool hands out Handles for one file. A Handle's directory cursor is
// shared state, so concurrent callers must each hold their own: acquire
// with Get, use exclusively, return promptly with Put.
type Pool struct {
	path string
	max  int

	mu     sync.Mutex
	free   []*Handle
	closed bool
}

// NewPool creates a pool for path keeping at most max idle handles. A
// non-positive max selects DefaultMaxHandles.
func NewPool(path string, max int) *Pool {
	if max <= 0 {
		max = DefaultMaxHandles
	}
	return &Pool{path: path, max: max}
}

// Path returns the pooled file's path.
func (p *Pool) Path() string {
	return p.path
}

// Get returns an idle handle or opens a new one.
func (p *Pool) Get() (*Handle, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	if n := len(p.free); n > 0 {
		h := p.free[n-1]
		p.free = p.free[:n-1]
		p.mu.Unlock()
		return h, nil
	}
	p.mu.Unlock()

	return Open(p.path)
}

// Put returns a handle to the pool. Handles beyond the idle limit, and any
// returned after Close, are closed instead.
func (p *Pool) Put(h *Handle) {
	if h == nil {
		return
	}
	h.cur = 0

	p.mu.Lock()
	if !p.closed && len(p.free) < p.max {
		p.free = append(p.free, h)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	h.Close()
}

// Close closes all idle handles. Handles currently checked out are closed
// when returned.
func (p *Pool) Close() {
	p.mu.Lock()
	free := p.free
	p.free = nil
	p.closed = true
	p.mu.Unlock()

	for _, h := range free {
		h.Close()
	}
}
