// Package tracker polls the customer's orders on a fixed interval while a
// tracking view is open.
package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"food-storefront/models"
)

const DefaultInterval = 15 * time.Second

var ErrRunning = errors.New("tracker already running")

type Fetcher interface {
	ListMyOrders(ctx context.Context, token string) ([]models.Order, error)
}

// Change is a status move observed between two polls. From is empty for an
// order that was not in the previous result.
type Change struct {
	OrderID string             `json:"orderId"`
	From    models.OrderStatus `json:"from"`
	To      models.OrderStatus `json:"to"`
}

type Update struct {
	Orders  []models.Order `json:"orders"`
	Changes []Change       `json:"changes"`
	Initial bool           `json:"initial"`
	At      time.Time      `json:"at"`
}

type Tracker struct {
	fetcher  Fetcher
	token    func() string
	interval time.Duration
	onUpdate func(Update)
	log      *logrus.Entry

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	last   map[string]models.OrderStatus
	primed bool
	latest []models.Order
}

// New builds a stopped tracker. token is consulted on every poll; an empty
// token skips the poll.
func New(f Fetcher, token func() string, interval time.Duration, onUpdate func(Update), log *logrus.Logger) *Tracker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Tracker{
		fetcher:  f,
		token:    token,
		interval: interval,
		onUpdate: onUpdate,
		log:      log.WithField("component", "tracker"),
	}
}

// Start fetches immediately and then once per interval until ctx is done or
// Stop is called.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return ErrRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.run(ctx, t.done)
	return nil
}

// Stop halts polling and waits for the loop to exit. No update is delivered
// after Stop returns.
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (t *Tracker) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.poll(ctx)
	for {
		select {
		case <-ticker.C:
			t.poll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (t *Tracker) poll(ctx context.Context) {
	token := t.token()
	if token == "" {
		return
	}
	orders, err := t.fetcher.ListMyOrders(ctx, token)
	if ctx.Err() != nil {
		// stopped while the request was in flight
		return
	}
	if err != nil {
		t.log.WithError(err).Warn("order status poll failed")
		return
	}

	update := t.record(orders)
	if t.onUpdate != nil {
		t.onUpdate(update)
	}
}

func (t *Tracker) record(orders []models.Order) Update {
	t.mu.Lock()
	defer t.mu.Unlock()

	update := Update{Orders: orders, Changes: []Change{}, Initial: !t.primed, At: time.Now()}
	next := make(map[string]models.OrderStatus, len(orders))
	for _, o := range orders {
		id := o.ID.String()
		status := o.Status.Normalize()
		next[id] = status
		if !t.primed {
			continue
		}
		if prev, seen := t.last[id]; !seen || prev != status {
			update.Changes = append(update.Changes, Change{OrderID: id, From: prev, To: status})
		}
	}
	t.last = next
	t.primed = true
	t.latest = orders
	if len(update.Changes) > 0 {
		t.log.WithField("changes", len(update.Changes)).Debug("order statuses changed")
	}
	return update
}

// Latest returns the orders from the most recent successful poll.
func (t *Tracker) Latest() []models.Order {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest
}
