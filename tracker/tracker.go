package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dordoifood/restaurant-app/models"
)

// View is the state-dependent UI the tracker drives.
type View string

const (
	ViewLoading   View = "loading"
	ViewWaiting   View = "waiting"   // awaiting payment or restaurant confirmation
	ViewApproved  View = "approved"  // confirmed, cooking or delivering
	ViewDelivered View = "delivered"
	ViewCanceled  View = "canceled"  // expected cancellation
	ViewRejected  View = "rejected"  // admin canceled an order the customer considered paid
	ViewMissing   View = "missing"   // order no longer exists
)

// Snapshot is the tracker's current knowledge of the order.
type Snapshot struct {
	Order   *OrderView
	View    View
	History []OrderView
	Err     error
}

const defaultInterval = 4 * time.Second

// Tracker polls one order while it is non-terminal and keeps the Prefs
// pointers in sync so a return visit lands back on the right screen. The
// poller is the authoritative status channel; push is only a convenience.
type Tracker struct {
	Interval time.Duration
	// OnUpdate, when set, runs after every snapshot change, on the
	// tracker's goroutine.
	OnUpdate func(Snapshot)

	client  *Client
	prefs   *Prefs
	orderID string

	wake chan struct{}

	mu         sync.Mutex
	snapshot   Snapshot
	prevStatus string
}

func New(client *Client, prefs *Prefs, orderID string) *Tracker {
	return &Tracker{
		Interval: defaultInterval,
		client:   client,
		prefs:    prefs,
		orderID:  orderID,
		wake:     make(chan struct{}, 1),
		snapshot: Snapshot{View: ViewLoading},
	}
}

// Snapshot returns the latest state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot
}

// Wake forces an immediate refresh, for page-focus and network-online
// events.
func (t *Tracker) Wake() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// Run polls until the order reaches a terminal state, disappears, or ctx is
// canceled. The initial load's error is returned (a visible failure); later
// poll errors are swallowed, polling is self-healing on the next tick.
func (t *Tracker) Run(ctx context.Context) error {
	if err := t.refresh(ctx); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil
		}
		t.setError(err)
		return err
	}
	if t.done() {
		return nil
	}

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-t.wake:
		}

		if err := t.refresh(ctx); err != nil && !errors.Is(err, ErrOrderNotFound) {
			continue
		}
		if t.done() {
			return nil
		}
	}
}

func (t *Tracker) done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.snapshot.View {
	case ViewDelivered, ViewCanceled, ViewRejected, ViewMissing:
		return true
	}
	return false
}

func (t *Tracker) setError(err error) {
	t.mu.Lock()
	t.snapshot.Err = err
	snap := t.snapshot
	t.mu.Unlock()

	if t.OnUpdate != nil {
		t.OnUpdate(snap)
	}
}

// refresh fetches the order, updates the prefs pointers and recomputes the
// view state.
func (t *Tracker) refresh(ctx context.Context) error {
	order, err := t.client.GetOrder(ctx, t.orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			t.prefs.ClearPendingPayOrderID(t.orderID)
			t.prefs.ClearActiveOrderID(t.orderID)
			t.publish(Snapshot{View: ViewMissing})
		}
		return err
	}

	t.applyPointers(order)

	t.mu.Lock()
	prev := t.prevStatus
	statusChanged := prev != order.Status
	history := t.snapshot.History
	t.mu.Unlock()

	view := t.viewFor(order.Status, prev)

	// Mirror the screen behavior: the history list is re-fetched whenever
	// the tracked order's status moves, best-effort.
	if statusChanged {
		if fetched, herr := t.client.History(ctx, t.prefs.HistoryOrderIDs(), t.prefs.Phone()); herr == nil {
			history = fetched
		}
	}

	t.mu.Lock()
	t.prevStatus = order.Status
	t.mu.Unlock()

	t.publish(Snapshot{Order: order, View: view, History: history})
	return nil
}

func (t *Tracker) publish(snap Snapshot) {
	t.mu.Lock()
	t.snapshot = snap
	t.mu.Unlock()

	if t.OnUpdate != nil {
		t.OnUpdate(snap)
	}
}

// applyPointers keeps the durable pointers consistent with the order state:
// an unpaid bank order re-arms the pending-pay pointer, anything confirmed or
// later clears it, terminal orders leave the active pointer and move into
// local history.
func (t *Tracker) applyPointers(order *OrderView) {
	bankAwaitingPayment := order.PaymentMethod == models.PaymentBank &&
		models.IsAwaitingPayment(order.Status)

	if bankAwaitingPayment {
		t.prefs.SetPendingPayOrderID(order.ID)
		t.prefs.SetActiveOrderID(order.ID)
		t.prefs.SetLastOrderID(order.ID)
		return
	}

	t.prefs.ClearPendingPayOrderID(order.ID)
	if models.IsTerminalStatus(order.Status) {
		t.prefs.ClearActiveOrderID(order.ID)
		t.prefs.AddHistory(HistoryEntry{
			OrderID:        order.ID,
			RestaurantSlug: order.Restaurant.Slug,
			TotalKGS:       order.TotalKGS,
			CreatedAt:      order.CreatedAt,
		})
	} else {
		t.prefs.SetActiveOrderID(order.ID)
	}
	t.prefs.SetLastOrderID(order.ID)
}

// viewFor distinguishes a surprise admin rejection from an expected
// cancellation: if the tracker last saw the order as paid or confirmed and it
// flips to canceled, the customer gets the "administrator rejected" state.
func (t *Tracker) viewFor(status, prevStatus string) View {
	switch {
	case models.IsAwaitingPayment(status):
		return ViewWaiting
	case status == models.StatusDelivered:
		return ViewDelivered
	case models.IsApprovedStatus(status):
		return ViewApproved
	}

	// canceled
	switch {
	case prevStatus == models.StatusPendingConfirmation,
		models.IsApprovedStatus(prevStatus):
		return ViewRejected
	default:
		return ViewCanceled
	}
}
