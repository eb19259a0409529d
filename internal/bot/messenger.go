package bot

import (
	"context"
	"errors"
	"sync"

	"github.com/m3rciful/shopbot/internal/shop"
)

// ErrNotBound is returned by Messenger before the transport is attached.
var ErrNotBound = errors.New("messenger: transport not bound")

// Transport is the outbound side of the bot runtime (tgsender.Sender).
type Transport interface {
	Send(ctx context.Context, chatID int64, action string, what interface{}, opts ...interface{}) error
}

// Messenger adapts the bot transport to shop.Messenger. The transport only
// exists once the bot is running, so it is bound late.
type Messenger struct {
	mu        sync.RWMutex
	transport Transport
}

var _ shop.Messenger = (*Messenger)(nil)

// Bind attaches the transport.
func (m *Messenger) Bind(t Transport) {
	m.mu.Lock()
	m.transport = t
	m.mu.Unlock()
}

// Deliver sends text without parse mode so the recipient sees it verbatim.
func (m *Messenger) Deliver(ctx context.Context, userID int64, text string) error {
	m.mu.RLock()
	t := m.transport
	m.mu.RUnlock()
	if t == nil {
		return ErrNotBound
	}
	return t.Send(ctx, userID, "broadcast", text)
}
