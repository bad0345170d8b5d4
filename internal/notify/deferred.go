package notify

import "sync"

// Deferred forwards to a gateway bound after construction. It breaks the
// cycle between the race service, which needs a gateway, and a transport
// hub, which needs the race service. Messages sent before Bind are dropped.
type Deferred struct {
	mu     sync.RWMutex
	target Gateway
}

// Bind sets the gateway messages are forwarded to.
func (d *Deferred) Bind(g Gateway) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.target = g
}

func (d *Deferred) Notify(playerID, text string) {
	if g := d.get(); g != nil {
		g.Notify(playerID, text)
	}
}

func (d *Deferred) NotifyAll(playerIDs []string, text string) {
	if g := d.get(); g != nil {
		g.NotifyAll(playerIDs, text)
	}
}

func (d *Deferred) get() Gateway {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.target
}
