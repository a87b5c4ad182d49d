package controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdminConfirmAndDeliver(t *testing.T) {
	env := newTestEnv(t)
	orderID := env.createOrder(t, "bank")

	code, _ := env.request(t, http.MethodPost, "/orders/"+orderID+"/mark-paid",
		map[string]string{"payer_name": "Aibek"})
	assert.Equal(t, http.StatusOK, code)

	code, resp := env.request(t, http.MethodPost, "/admin/orders/"+orderID+"/confirm", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Payment confirmed", resp.Message)
	assert.Equal(t, "confirmed", resp.Data["status"])

	code, resp = env.request(t, http.MethodPost, "/admin/orders/"+orderID+"/deliver", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Order delivered", resp.Message)
	assert.Equal(t, "delivered", resp.Data["status"])
}

func TestAdminDeliverBeforeConfirmFails(t *testing.T) {
	env := newTestEnv(t)
	orderID := env.createOrder(t, "bank")

	code, resp := env.request(t, http.MethodPost, "/admin/orders/"+orderID+"/deliver", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Status)
}

func TestAdminCancelRequiresReason(t *testing.T) {
	env := newTestEnv(t)
	orderID := env.createOrder(t, "bank")

	code, resp := env.request(t, http.MethodPost, "/admin/orders/"+orderID+"/cancel", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Status)

	code, resp = env.request(t, http.MethodPost, "/admin/orders/"+orderID+"/cancel",
		map[string]string{"reason": "client no-show"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "canceled", resp.Data["status"])
	assert.Equal(t, "client no-show", resp.Data["canceled_reason"])

	// A canceled order cannot be re-declared as paid.
	code, resp = env.request(t, http.MethodPost, "/orders/"+orderID+"/mark-paid",
		map[string]string{"payer_name": "Aibek"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Status)
}

func TestAdminListOrdersScopes(t *testing.T) {
	env := newTestEnv(t)

	bankID := env.createOrder(t, "bank")
	env.createOrder(t, "cash")

	// Undeclared bank orders stay off the active board.
	code, resp := env.request(t, http.MethodGet, "/admin/orders?scope=active", nil)
	assert.Equal(t, http.StatusOK, code)
	orders := resp.Data["orders"].([]interface{})
	assert.Len(t, orders, 1)

	code, _ = env.request(t, http.MethodPost, "/orders/"+bankID+"/mark-paid",
		map[string]string{"payer_name": "Aibek"})
	assert.Equal(t, http.StatusOK, code)

	code, resp = env.request(t, http.MethodGet, "/admin/orders?scope=active", nil)
	assert.Equal(t, http.StatusOK, code)
	orders = resp.Data["orders"].([]interface{})
	assert.Len(t, orders, 2)

	// Every row carries a precomputed item count for the board.
	first := orders[0].(map[string]interface{})
	assert.EqualValues(t, 3, first["item_count"])
}
