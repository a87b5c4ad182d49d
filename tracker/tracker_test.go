package tracker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func writeEnvelope(w http.ResponseWriter, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  code >= 200 && code < 300,
		"message": message,
		"data":    data,
	})
}

func orderDoc(orderID, status string) map[string]interface{} {
	return map[string]interface{}{
		"id":             orderID,
		"status":         status,
		"payment_method": "bank",
		"total_kgs":      500,
		"payment_code":   "BX-492318",
		"location":       map[string]string{"line": "5", "container": "112"},
		"restaurant": map[string]string{
			"name": "Dordoi Food",
			"slug": "dordoi-food",
		},
		"items":      []interface{}{},
		"created_at": time.Now().UTC().Format(time.RFC3339),
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
}

// newStatusServer serves one order whose status advances by one scripted step
// per poll, holding the last status once the script runs out.
func newStatusServer(t *testing.T, orderID string, statuses []string) *httptest.Server {
	t.Helper()
	var polls int64

	mux := http.NewServeMux()
	mux.HandleFunc("/orders/history", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ids") == "" && r.URL.Query().Get("phone") == "" {
			writeEnvelope(w, http.StatusBadRequest, "ids or phone required", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, "Order history", map[string]interface{}{
			"orders": []interface{}{},
		})
	})
	mux.HandleFunc("/orders/"+orderID, func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt64(&polls, 1)) - 1
		if n >= len(statuses) {
			n = len(statuses) - 1
		}
		writeEnvelope(w, http.StatusOK, "Order detail", orderDoc(orderID, statuses[n]))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func runTracker(t *testing.T, srv *httptest.Server, prefs *Prefs, orderID string) (*Tracker, []Snapshot, error) {
	t.Helper()
	tr := New(NewClient(srv.URL), prefs, orderID)
	tr.Interval = 5 * time.Millisecond

	var snaps []Snapshot
	tr.OnUpdate = func(s Snapshot) { snaps = append(snaps, s) }

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := tr.Run(ctx)
	return tr, snaps, err
}

func TestTrackerAdminRejectionAfterPayment(t *testing.T) {
	orderID := "ord-rejected"
	srv := newStatusServer(t, orderID, []string{
		"created", "pending_confirmation", "canceled",
	})
	prefs := OpenPrefs("")

	_, snaps, err := runTracker(t, srv, prefs, orderID)
	assert.NoError(t, err)
	assert.NotEmpty(t, snaps)

	// The unpaid order armed the pending-pay pointer on the first poll.
	assert.Equal(t, ViewWaiting, snaps[0].View)

	// Canceled after the customer declared payment: that is a rejection.
	final := snaps[len(snaps)-1]
	assert.Equal(t, ViewRejected, final.View)
	assert.Equal(t, "canceled", final.Order.Status)

	// Pointers released, the order moved into local history.
	id, kind := prefs.OrderPointer()
	assert.Equal(t, orderID, id)
	assert.Equal(t, PointerLast, kind)
	history := prefs.History()
	assert.Len(t, history, 1)
	assert.Equal(t, orderID, history[0].OrderID)
	assert.Equal(t, "dordoi-food", history[0].RestaurantSlug)
}

func TestTrackerPlainCancelBeforePayment(t *testing.T) {
	orderID := "ord-canceled"
	srv := newStatusServer(t, orderID, []string{"created", "canceled"})

	_, snaps, err := runTracker(t, srv, OpenPrefs(""), orderID)
	assert.NoError(t, err)

	// Canceled straight from created is the customer's own cancel, not a
	// rejection.
	final := snaps[len(snaps)-1]
	assert.Equal(t, ViewCanceled, final.View)
}

func TestTrackerDeliveredFlow(t *testing.T) {
	orderID := "ord-delivered"
	srv := newStatusServer(t, orderID, []string{
		"created", "pending_confirmation", "confirmed", "delivered",
	})
	prefs := OpenPrefs("")

	_, snaps, err := runTracker(t, srv, prefs, orderID)
	assert.NoError(t, err)

	views := make([]View, 0, len(snaps))
	for _, s := range snaps {
		views = append(views, s.View)
	}
	assert.Equal(t, []View{ViewWaiting, ViewWaiting, ViewApproved, ViewDelivered}, views)

	id, kind := prefs.OrderPointer()
	assert.Equal(t, orderID, id)
	assert.Equal(t, PointerLast, kind)
	assert.Len(t, prefs.History(), 1)
}

func TestTrackerMissingOrder(t *testing.T) {
	orderID := "ord-gone"
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, "order not found", nil)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	prefs := OpenPrefs("")
	prefs.SetPendingPayOrderID(orderID)
	prefs.SetActiveOrderID(orderID)

	tr, snaps, err := runTracker(t, srv, prefs, orderID)
	assert.NoError(t, err)
	assert.Equal(t, ViewMissing, tr.Snapshot().View)
	assert.NotEmpty(t, snaps)

	// A vanished order releases the pointers it held.
	id, kind := prefs.OrderPointer()
	assert.Equal(t, "", id)
	assert.Equal(t, PointerNone, kind)
}

func TestTrackerInitialLoadErrorSurfaces(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusInternalServerError, "database unavailable", nil)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	tr := New(NewClient(srv.URL), OpenPrefs(""), "ord-1")
	tr.Interval = 5 * time.Millisecond

	err := tr.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "database unavailable", err.Error())
	assert.Equal(t, err, tr.Snapshot().Err)
}

func TestTrackerWakeForcesRefresh(t *testing.T) {
	orderID := "ord-wake"
	srv := newStatusServer(t, orderID, []string{"created", "delivered"})

	tr := New(NewClient(srv.URL), OpenPrefs(""), orderID)
	// An interval long enough that only Wake can finish the test in time.
	tr.Interval = time.Hour

	done := make(chan error, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() { done <- tr.Run(ctx) }()

	tr.Wake()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(4 * time.Second):
		t.Fatal("tracker did not react to Wake")
	}
	assert.Equal(t, ViewDelivered, tr.Snapshot().View)
}

func TestClientErrorMessagePropagation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orders/ord-1/mark-paid", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusBadRequest, "payer name must be at least 2 characters", nil)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL)
	err := client.MarkPaid(context.Background(), "ord-1", "A")
	assert.Error(t, err)
	assert.Equal(t, "payer name must be at least 2 characters", err.Error())
}

func TestClientPlainNotFound(t *testing.T) {
	// Router-level 404s are plain text, not the JSON envelope; they still
	// classify as a missing order rather than a decode failure.
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL)
	_, err := client.GetOrder(context.Background(), "ord-gone")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestClientCreateOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		var req CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeEnvelope(w, http.StatusBadRequest, "bad payload", nil)
			return
		}
		writeEnvelope(w, http.StatusCreated, "Order created", map[string]interface{}{
			"order_id":     "ord-new",
			"status":       "created",
			"total_kgs":    500,
			"payment_code": "BX-000042",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL)
	result, err := client.CreateOrder(context.Background(), CreateOrderRequest{
		RestaurantSlug: "dordoi-food",
		PaymentMethod:  "bank",
		CustomerPhone:  "996555123456",
		Items:          []CreateOrderLine{{MenuItemID: "item-1", Qty: 2}},
	})
	assert.NoError(t, err)
	assert.Equal(t, "ord-new", result.OrderID)
	assert.Equal(t, "created", result.Status)
	assert.Equal(t, 500, result.TotalKGS)
}
