package transport

import (
	"context"
	"sync"

	"github.com/relabs-tech/tilt_node/internal/odometry"
)

// Mailbox is a delivery queue of depth one. When the handler falls behind,
// a newer update replaces the one still waiting.
type Mailbox struct {
	mu      sync.Mutex
	slot    chan *odometry.Update
	dropped uint64
}

func NewMailbox() *Mailbox {
	return &Mailbox{slot: make(chan *odometry.Update, 1)}
}

// Offer queues u, evicting any update not yet handled. It never blocks and
// is safe to call from transport callbacks on any goroutine.
func (m *Mailbox) Offer(u *odometry.Update) {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.slot:
		m.dropped++
	default:
	}
	m.slot <- u
}

// Dropped reports how many updates were replaced before being handled.
func (m *Mailbox) Dropped() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}

// Serve calls h for each queued update, one at a time, until ctx is done.
func (m *Mailbox) Serve(ctx context.Context, h odometry.Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-m.slot:
			h(u)
		}
	}
}
