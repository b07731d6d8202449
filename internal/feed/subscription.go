package feed

import (
	"complaintdesk/backend/internal/complaint"
	"sync"
)

// Subscription is one open live view. Only the newest undelivered snapshot is
// kept, so a slow reader skips intermediate states rather than blocking the hub.
type Subscription struct {
	hub     *Hub
	view    complaint.View
	updates chan Snapshot
	removed chan struct{}
	once    sync.Once
}

func (s *Subscription) View() complaint.View { return s.view }

// Updates delivers snapshots until the subscription is closed.
func (s *Subscription) Updates() <-chan Snapshot { return s.updates }

// Close cancels the subscription. When it returns the Updates channel is
// closed and holds no further snapshots. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		select {
		case s.hub.UnregisterCh <- s:
			select {
			case <-s.removed:
			case <-s.hub.done:
			}
		case <-s.hub.done:
		}
	})
}

// offer replaces any pending snapshot with snap. Only the hub goroutine sends,
// so the send after draining cannot block.
func (s *Subscription) offer(snap Snapshot) {
	select {
	case <-s.updates:
	default:
	}
	s.updates <- snap
}

// finish runs on the hub goroutine.
func (s *Subscription) finish() {
	select {
	case <-s.updates:
	default:
	}
	close(s.updates)
	close(s.removed)
}
