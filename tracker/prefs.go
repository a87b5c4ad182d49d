package tracker

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/dordoifood/restaurant-app/models"
)

const historyLimit = 8

// HistoryEntry is a locally saved order summary, enough to rebuild the
// history screen without the server.
type HistoryEntry struct {
	OrderID        string    `json:"order_id"`
	RestaurantSlug string    `json:"restaurant_slug"`
	TotalKGS       int       `json:"total_kgs"`
	CreatedAt      time.Time `json:"created_at"`
}

type prefsData struct {
	Phone             string                  `json:"phone,omitempty"`
	PayerName         string                  `json:"payer_name,omitempty"`
	Location          models.DeliveryLocation `json:"location,omitempty"`
	History           []HistoryEntry          `json:"history,omitempty"`
	LastOrderID       string                  `json:"last_order_id,omitempty"`
	ActiveOrderID     string                  `json:"active_order_id,omitempty"`
	PendingPayOrderID string                  `json:"pending_pay_order_id,omitempty"`
}

// Prefs is the single authoritative client-side session store: saved contact
// details, the bounded order history, and the three order pointers. It
// replaces the scattered cookie/local-storage keys with one accessor.
type Prefs struct {
	mu   sync.Mutex
	path string
	data prefsData
}

// OpenPrefs loads preferences from path, starting empty when the file does
// not exist or holds junk. An empty path keeps everything in memory.
func OpenPrefs(path string) *Prefs {
	p := &Prefs{path: path}
	if path == "" {
		return p
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return p
	}
	// A corrupt prefs file is discarded, not an error.
	_ = json.Unmarshal(raw, &p.data)
	return p
}

// save persists under the held lock.
func (p *Prefs) save() {
	if p.path == "" {
		return
	}
	raw, err := json.MarshalIndent(p.data, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(p.path, raw, 0o600)
}

func (p *Prefs) Phone() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data.Phone
}

func (p *Prefs) SetPhone(phone string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data.Phone = phone
	p.save()
}

func (p *Prefs) PayerName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data.PayerName
}

func (p *Prefs) SetPayerName(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data.PayerName = name
	p.save()
}

func (p *Prefs) Location() models.DeliveryLocation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data.Location
}

func (p *Prefs) SetLocation(loc models.DeliveryLocation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data.Location = loc
	p.save()
}

// AddHistory prepends an entry, dropping duplicates by order id and keeping
// the list bounded.
func (p *Prefs) AddHistory(entry HistoryEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := []HistoryEntry{entry}
	for _, item := range p.data.History {
		if item.OrderID == entry.OrderID {
			continue
		}
		next = append(next, item)
		if len(next) == historyLimit {
			break
		}
	}
	p.data.History = next
	p.save()
}

func (p *Prefs) History() []HistoryEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]HistoryEntry, len(p.data.History))
	copy(out, p.data.History)
	return out
}

// HistoryOrderIDs returns the saved order ids, newest first.
func (p *Prefs) HistoryOrderIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.data.History))
	for _, item := range p.data.History {
		ids = append(ids, item.OrderID)
	}
	return ids
}

func (p *Prefs) SetLastOrderID(orderID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data.LastOrderID = orderID
	p.save()
}

func (p *Prefs) SetActiveOrderID(orderID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data.ActiveOrderID = orderID
	p.save()
}

// ClearActiveOrderID clears the active pointer, but only when it still names
// the given order; a newer order's pointer is left alone.
func (p *Prefs) ClearActiveOrderID(orderID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if orderID == "" || p.data.ActiveOrderID == orderID {
		p.data.ActiveOrderID = ""
		p.save()
	}
}

func (p *Prefs) SetPendingPayOrderID(orderID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data.PendingPayOrderID = orderID
	p.save()
}

func (p *Prefs) ClearPendingPayOrderID(orderID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if orderID == "" || p.data.PendingPayOrderID == orderID {
		p.data.PendingPayOrderID = ""
		p.save()
	}
}

// Pointer kinds returned by OrderPointer.
const (
	PointerNone       = ""
	PointerPendingPay = "pending_pay"
	PointerActive     = "active"
	PointerLast       = "last"
)

// OrderPointer resolves which order the client should open on a return
// visit. Precedence: pending-pay > active > last-known.
func (p *Prefs) OrderPointer() (orderID, kind string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.data.PendingPayOrderID != "" {
		return p.data.PendingPayOrderID, PointerPendingPay
	}
	if p.data.ActiveOrderID != "" {
		return p.data.ActiveOrderID, PointerActive
	}
	if p.data.LastOrderID != "" {
		return p.data.LastOrderID, PointerLast
	}
	if len(p.data.History) > 0 {
		return p.data.History[0].OrderID, PointerLast
	}
	return "", PointerNone
}
