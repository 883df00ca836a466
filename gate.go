package solarman

import "sync"

// gateResult is what a registered awaiter eventually receives: either the
// raw bytes of the inbound frame or the error the network read path
// observed.
type gateResult struct {
	frame []byte
	err   error
}

// responseGate is the single-slot rendezvous of spec §4.G between the
// network read path and the one request that may currently be awaiting a
// response. Registration is synchronous; at most one awaiter may hold the
// slot at a time. Completing the slot more than once is a no-op — the
// second completion is silently discarded, never delivered.
type responseGate struct {
	mu      sync.Mutex
	pending chan gateResult
}

// register reserves the slot for a new awaiter and returns the channel it
// should receive on. The channel is buffered by one so deliver/fail never
// block even if the awaiter has already stopped listening (e.g. after a
// timeout raced a concurrent delivery).
func (g *responseGate) register() chan gateResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch := make(chan gateResult, 1)
	g.pending = ch
	return ch
}

// deliver hands frame to the current awaiter, if any; an unsolicited
// frame (no awaiter registered) is discarded.
func (g *responseGate) deliver(frame []byte) {
	g.mu.Lock()
	ch := g.pending
	g.pending = nil
	g.mu.Unlock()
	if ch == nil {
		return
	}
	ch <- gateResult{frame: frame}
}

// fail completes the current awaiter, if any, with err.
func (g *responseGate) fail(err error) {
	g.mu.Lock()
	ch := g.pending
	g.pending = nil
	g.mu.Unlock()
	if ch == nil {
		return
	}
	ch <- gateResult{err: err}
}

// cancel clears the slot if it is still held by ch — i.e. if neither
// deliver nor fail has completed it in the meantime.
func (g *responseGate) cancel(ch chan gateResult) {
	g.mu.Lock()
	if g.pending == ch {
		g.pending = nil
	}
	g.mu.Unlock()
}
