package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dordoifood/restaurant-app/services"
	"github.com/dordoifood/restaurant-app/utils"
)

type AdminOrderController struct {
	DB     *gorm.DB
	Orders *services.OrderService
}

func NewAdminOrderController(db *gorm.DB, orders *services.OrderService) *AdminOrderController {
	return &AdminOrderController{DB: db, Orders: orders}
}

// ListOrders -> GET /admin/orders?scope=active|history&limit=n
// "active" hides bank orders until a payer name has been declared; cash
// orders appear immediately.
func (ac *AdminOrderController) ListOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "200"))

	orders, err := ac.Orders.ListOrders(c.Query("scope"), limit)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	views := make([]gin.H, 0, len(orders))
	for i := range orders {
		view := orderView(&orders[i])
		itemCount := 0
		for _, it := range orders[i].Items {
			itemCount += it.Qty
		}
		view["item_count"] = itemCount
		views = append(views, view)
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", gin.H{"orders": views})
}

// GetOrderByID -> GET /admin/orders/:order_id
func (ac *AdminOrderController) GetOrderByID(c *gin.Context) {
	order, err := ac.Orders.GetOrder(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", orderView(order))
}

// Confirm -> POST /admin/orders/:order_id/confirm
func (ac *AdminOrderController) Confirm(c *gin.Context) {
	order, err := ac.Orders.Confirm(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment confirmed", gin.H{
		"status": order.Status,
	})
}

// Deliver -> POST /admin/orders/:order_id/deliver
func (ac *AdminOrderController) Deliver(c *gin.Context) {
	order, err := ac.Orders.Deliver(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order delivered", gin.H{
		"status": order.Status,
	})
}

// Cancel -> POST /admin/orders/:order_id/cancel (reason required)
func (ac *AdminOrderController) Cancel(c *gin.Context) {
	type reqBody struct {
		Reason string `json:"reason"`
	}
	var body reqBody
	_ = c.ShouldBindJSON(&body)

	order, err := ac.Orders.AdminCancel(c.Param("order_id"), body.Reason)
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order canceled", gin.H{
		"status":          order.Status,
		"canceled_reason": order.CanceledReason,
	})
}
