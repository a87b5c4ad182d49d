package tracker

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dordoifood/restaurant-app/models"
)

func TestPrefsPointerPrecedence(t *testing.T) {
	p := OpenPrefs("")

	id, kind := p.OrderPointer()
	assert.Equal(t, "", id)
	assert.Equal(t, PointerNone, kind)

	p.SetLastOrderID("last-1")
	id, kind = p.OrderPointer()
	assert.Equal(t, "last-1", id)
	assert.Equal(t, PointerLast, kind)

	p.SetActiveOrderID("active-1")
	id, kind = p.OrderPointer()
	assert.Equal(t, "active-1", id)
	assert.Equal(t, PointerActive, kind)

	// An unpaid bank order outranks everything.
	p.SetPendingPayOrderID("pending-1")
	id, kind = p.OrderPointer()
	assert.Equal(t, "pending-1", id)
	assert.Equal(t, PointerPendingPay, kind)

	p.ClearPendingPayOrderID("pending-1")
	id, kind = p.OrderPointer()
	assert.Equal(t, "active-1", id)
	assert.Equal(t, PointerActive, kind)
}

func TestPrefsClearOnlyWhenMatching(t *testing.T) {
	p := OpenPrefs("")
	p.SetActiveOrderID("order-a")

	// A stale clear for another order leaves the newer pointer alone.
	p.ClearActiveOrderID("order-b")
	id, _ := p.OrderPointer()
	assert.Equal(t, "order-a", id)

	p.ClearActiveOrderID("order-a")
	id, kind := p.OrderPointer()
	assert.Equal(t, "", id)
	assert.Equal(t, PointerNone, kind)
}

func TestPrefsHistoryBoundedAndDeduplicated(t *testing.T) {
	p := OpenPrefs("")

	for i := 0; i < 12; i++ {
		p.AddHistory(HistoryEntry{
			OrderID:   fmt.Sprintf("order-%d", i),
			TotalKGS:  100 + i,
			CreatedAt: time.Now(),
		})
	}
	history := p.History()
	assert.Len(t, history, 8)
	assert.Equal(t, "order-11", history[0].OrderID)

	// Re-adding an order moves it to the front without duplicating it.
	p.AddHistory(HistoryEntry{OrderID: "order-9"})
	history = p.History()
	assert.Len(t, history, 8)
	assert.Equal(t, "order-9", history[0].OrderID)
	seen := map[string]int{}
	for _, entry := range history {
		seen[entry.OrderID]++
	}
	assert.Equal(t, 1, seen["order-9"])

	// With no pointers, history provides the fallback pointer.
	id, kind := p.OrderPointer()
	assert.Equal(t, "order-9", id)
	assert.Equal(t, PointerLast, kind)
}

func TestPrefsPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")

	p := OpenPrefs(path)
	p.SetPhone("996555123456")
	p.SetPayerName("Aibek")
	p.SetLocation(models.DeliveryLocation{Line: "5", Container: "112"})
	p.SetPendingPayOrderID("order-1")

	reopened := OpenPrefs(path)
	assert.Equal(t, "996555123456", reopened.Phone())
	assert.Equal(t, "Aibek", reopened.PayerName())
	assert.Equal(t, "112", reopened.Location().Container)
	id, kind := reopened.OrderPointer()
	assert.Equal(t, "order-1", id)
	assert.Equal(t, PointerPendingPay, kind)
}

func TestPrefsIgnoresCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	assert.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	p := OpenPrefs(path)
	assert.Equal(t, "", p.Phone())
	assert.Empty(t, p.History())
}
