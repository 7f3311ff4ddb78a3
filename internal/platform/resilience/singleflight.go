package resilience

import "sync"

// SingleFlight collapses concurrent calls for the same key into one
// execution. Late arrivals block on the leader and share its result.
type SingleFlight struct {
	mu       sync.Mutex
	inflight map[string]*flight
}

type flight struct {
	done sync.WaitGroup
	val  any
	err  error
}

// Do runs fn once per key among concurrent callers. The third return
// value reports whether the result was shared from another caller's run.
func (g *SingleFlight) Do(key string, fn func() (any, error)) (any, error, bool) {
	g.mu.Lock()
	if g.inflight == nil {
		g.inflight = make(map[string]*flight)
	}

	if f, ok := g.inflight[key]; ok {
		g.mu.Unlock()
		f.done.Wait()
		return f.val, f.err, true
	}

	f := &flight{}
	f.done.Add(1)
	g.inflight[key] = f
	g.mu.Unlock()

	f.val, f.err = fn()
	f.done.Done()

	g.mu.Lock()
	delete(g.inflight, key)
	g.mu.Unlock()

	return f.val, f.err, false
}
