package connect

import (
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/osa030/trackdeck/internal/app/notification"
)

var errStreamClosed = errors.New("notification stream closed")

// notificationStreamAdapter adapts a server stream to notification.Stream.
// Sends are serialized; connect streams are not safe for concurrent use.
type notificationStreamAdapter struct {
	mu     sync.Mutex
	send   func(*NotificationView) error
	minSeq uint64 // broadcasts stamped before the initial state are superseded by it
	closed bool
}

// open subscribes the adapter and sends the initial state before any
// broadcast reaches the stream.
func (a *notificationStreamAdapter) open(
	m *notification.Manager,
	initialState func() *notification.Notification,
) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	subscriptionID := m.Subscribe(a)

	initial := initialState()
	a.minSeq = initial.SequenceNo
	v := newNotificationView(initial)
	if err := a.send(&v); err != nil {
		m.Unsubscribe(subscriptionID)
		a.closed = true
		return "", errors.Wrap(err, "failed to send initial state")
	}
	return subscriptionID, nil
}

// Send implements notification.Stream.
func (a *notificationStreamAdapter) Send(n *notification.Notification) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return errStreamClosed
	}
	if n.SequenceNo < a.minSeq {
		return nil
	}
	v := newNotificationView(n)
	return a.send(&v)
}

func (a *notificationStreamAdapter) close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
}
