package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dordoifood/restaurant-app/models"
	"github.com/dordoifood/restaurant-app/payments"
	"github.com/dordoifood/restaurant-app/services"
	"github.com/dordoifood/restaurant-app/utils"
)

type OrderController struct {
	DB     *gorm.DB
	Orders *services.OrderService
}

func NewOrderController(db *gorm.DB, orders *services.OrderService) *OrderController {
	return &OrderController{DB: db, Orders: orders}
}

// statusForError maps service errors onto the HTTP taxonomy: not-found 404,
// validation and guard violations 400, everything else 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrRestaurantNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrItemUnavailable),
		errors.Is(err, services.ErrNoItems),
		errors.Is(err, services.ErrPhoneRequired),
		errors.Is(err, services.ErrPhoneInvalid),
		errors.Is(err, services.ErrLocationRequired),
		errors.Is(err, services.ErrPayerNameRequired),
		errors.Is(err, services.ErrNotBankOrder),
		errors.Is(err, services.ErrOrderNotPayable),
		errors.Is(err, services.ErrPaymentNotConfirmed),
		errors.Is(err, services.ErrReasonRequired),
		errors.Is(err, services.ErrAlreadyDelivered),
		errors.Is(err, services.ErrOrderCanceled),
		errors.Is(err, services.ErrCancelNotAllowed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func orderItemViews(items []models.OrderItem) []gin.H {
	views := make([]gin.H, 0, len(items))
	for _, it := range items {
		views = append(views, gin.H{
			"id":        it.ID,
			"title":     it.TitleSnap,
			"qty":       it.Qty,
			"price_kgs": it.PriceKGS,
			"photo_url": it.PhotoSnap,
		})
	}
	return views
}

// orderView is the customer-facing order shape. The bank pay URL is derived
// on every read so the deep link always carries the order's total.
func orderView(order *models.Order) gin.H {
	view := gin.H{
		"id":              order.ID,
		"status":          order.Status,
		"payment_method":  order.PaymentMethod,
		"total_kgs":       order.TotalKGS,
		"total_display":   utils.FormatKGS(order.TotalKGS),
		"payment_code":    order.PaymentCode,
		"payer_name":      order.PayerName,
		"customer_phone":  order.CustomerPhone,
		"comment":         order.Comment,
		"canceled_reason": order.CanceledReason,
		"location":        order.Location(),
		"items":           orderItemViews(order.Items),
		"created_at":      order.CreatedAt,
		"updated_at":      order.UpdatedAt,
	}

	restaurant := gin.H{
		"name":         order.Restaurant.Name,
		"slug":         order.Restaurant.Slug,
		"bank_phone":   order.Restaurant.BankPhone,
		"qr_image_url": order.Restaurant.QRImageURL,
	}
	if order.PaymentMethod == models.PaymentBank {
		restaurant["bank_pay_url"] = payments.BuildBankPayURL(
			order.TotalKGS, order.Restaurant.BankPhone, order.Restaurant.PayURLTemplate)
	}
	view["restaurant"] = restaurant

	return view
}

// CreateOrder -> POST /orders
func (oc *OrderController) CreateOrder(c *gin.Context) {
	type reqBody struct {
		RestaurantSlug string                          `json:"restaurant_slug" binding:"required"`
		PaymentMethod  string                          `json:"payment_method"`
		CustomerPhone  string                          `json:"customer_phone" binding:"required"`
		PayerName      string                          `json:"payer_name"`
		Comment        string                          `json:"comment"`
		Location       models.DeliveryLocation         `json:"location" binding:"required"`
		Items          []services.CreateOrderItemInput `json:"items" binding:"required"`
	}

	var body reqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.CreateOrder(services.CreateOrderInput{
		RestaurantSlug: body.RestaurantSlug,
		Items:          body.Items,
		Location:       body.Location,
		PaymentMethod:  body.PaymentMethod,
		CustomerPhone:  body.CustomerPhone,
		PayerName:      body.PayerName,
		Comment:        body.Comment,
	})
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Order created", gin.H{
		"order_id":     order.ID,
		"status":       order.Status,
		"total_kgs":    order.TotalKGS,
		"payment_code": order.PaymentCode,
	})
}

// GetOrderByID -> GET /orders/:order_id
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	order, err := oc.Orders.GetOrder(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", orderView(order))
}

// GetHistory -> GET /orders/history?ids=a,b,c&phone=996...
func (oc *OrderController) GetHistory(c *gin.Context) {
	var ids []string
	if raw := strings.TrimSpace(c.Query("ids")); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	phone := strings.TrimSpace(c.Query("phone"))

	if len(ids) == 0 && len(phone) < 7 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("ids or phone required"))
		return
	}

	orders, err := oc.Orders.ListHistory(ids, phone)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	views := make([]gin.H, 0, len(orders))
	for i := range orders {
		views = append(views, orderView(&orders[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "Order history", gin.H{"orders": views})
}

// MarkPaid -> POST /orders/:order_id/mark-paid
func (oc *OrderController) MarkPaid(c *gin.Context) {
	type reqBody struct {
		PayerName string `json:"payer_name"`
	}
	var body reqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.MarkPaid(c.Param("order_id"), body.PayerName)
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Awaiting restaurant confirmation", gin.H{
		"status": order.Status,
	})
}

// CancelOrder -> POST /orders/:order_id/cancel (customer path, reason optional)
func (oc *OrderController) CancelOrder(c *gin.Context) {
	type reqBody struct {
		Reason string `json:"reason"`
	}
	var body reqBody
	// No body at all is fine for a customer cancel.
	_ = c.ShouldBindJSON(&body)

	order, err := oc.Orders.CustomerCancel(c.Param("order_id"), body.Reason)
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order canceled", gin.H{
		"status": order.Status,
	})
}
