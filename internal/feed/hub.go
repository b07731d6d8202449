// Package feed streams live complaint views to subscribers. A single hub
// goroutine owns the subscriber set; change events make it reload and push
// the affected views.
package feed

import (
	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/metrics"
	"complaintdesk/backend/internal/models"
	"context"
	"errors"
	"log/slog"
)

// ErrHubStopped is returned once Run has exited.
var ErrHubStopped = errors.New("feed: hub stopped")

// ViewLoader produces the current result set of a view.
type ViewLoader interface {
	LoadView(ctx context.Context, v complaint.View) ([]models.Complaint, error)
}

// Snapshot is the full result set of a view at one moment.
type Snapshot struct {
	View       complaint.View     `json:"view"`
	Complaints []models.Complaint `json:"complaints"`
	Error      string             `json:"error,omitempty"`
	Err        error              `json:"-"`
}

// Hub fans complaint events out to live view subscriptions.
type Hub struct {
	Loader ViewLoader

	RegisterCh   chan *Subscription
	UnregisterCh chan *Subscription
	EventCh      chan models.ComplaintEvent

	subs map[*Subscription]struct{}
	done chan struct{}
}

func NewHub(loader ViewLoader) *Hub {
	return &Hub{
		Loader:       loader,
		RegisterCh:   make(chan *Subscription),
		UnregisterCh: make(chan *Subscription),
		EventCh:      make(chan models.ComplaintEvent, config.FeedEventBuffer),
		subs:         make(map[*Subscription]struct{}),
		done:         make(chan struct{}),
	}
}

// Run is the hub loop. It returns when ctx is cancelled, after closing every
// open subscription.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for sub := range h.subs {
				h.remove(sub)
			}
			slog.Info("feed hub stopped")
			return nil

		case sub := <-h.RegisterCh:
			h.subs[sub] = struct{}{}
			metrics.LiveSubscriptions.Inc()
			sub.offer(h.load(ctx, sub.view))

		case sub := <-h.UnregisterCh:
			if _, ok := h.subs[sub]; ok {
				h.remove(sub)
			}

		case evt := <-h.EventCh:
			h.dispatch(ctx, evt)
		}
	}
}

// dispatch reloads every view the event touches, once per distinct view.
func (h *Hub) dispatch(ctx context.Context, evt models.ComplaintEvent) {
	loaded := make(map[complaint.View]Snapshot)
	for sub := range h.subs {
		if !sub.view.Matches(evt) {
			continue
		}
		snap, ok := loaded[sub.view]
		if !ok {
			snap = h.load(ctx, sub.view)
			loaded[sub.view] = snap
		}
		sub.offer(snap)
	}
}

func (h *Hub) load(ctx context.Context, v complaint.View) Snapshot {
	list, err := h.Loader.LoadView(ctx, v)
	if err != nil {
		slog.Error("load live view", "kind", v.Kind, "owner_id", v.OwnerID, "err", err)
		return Snapshot{View: v, Err: err, Error: err.Error()}
	}
	if list == nil {
		list = []models.Complaint{}
	}
	return Snapshot{View: v, Complaints: list}
}

func (h *Hub) remove(sub *Subscription) {
	delete(h.subs, sub)
	metrics.LiveSubscriptions.Dec()
	sub.finish()
}

// Subscribe opens a live view. The first snapshot is delivered right away.
func (h *Hub) Subscribe(ctx context.Context, v complaint.View) (*Subscription, error) {
	sub := &Subscription{
		hub:     h,
		view:    v,
		updates: make(chan Snapshot, 1),
		removed: make(chan struct{}),
	}
	select {
	case h.RegisterCh <- sub:
		return sub, nil
	case <-h.done:
		return nil, ErrHubStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Notify queues a change event for dispatch.
func (h *Hub) Notify(ctx context.Context, evt models.ComplaintEvent) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}
	select {
	case h.EventCh <- evt:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishComplaintEvent lets the hub act as the engine's publisher when
// running without Redis.
func (h *Hub) PublishComplaintEvent(ctx context.Context, evt models.ComplaintEvent) error {
	return h.Notify(ctx, evt)
}
