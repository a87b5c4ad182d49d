package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/dordoifood/restaurant-app/events"
	"github.com/dordoifood/restaurant-app/models"
	"github.com/dordoifood/restaurant-app/payments"
	"github.com/dordoifood/restaurant-app/utils"
)

// Guard violations surfaced verbatim to the UI.
var (
	ErrRestaurantNotFound  = errors.New("restaurant not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrItemUnavailable     = errors.New("menu item not available")
	ErrNoItems             = errors.New("order must contain at least one item")
	ErrPhoneRequired       = errors.New("customer phone is required")
	ErrPhoneInvalid        = errors.New("customer phone must be 996 followed by 9 digits")
	ErrLocationRequired    = errors.New("delivery line and container are required")
	ErrPayerNameRequired   = errors.New("payer name must be at least 2 characters")
	ErrNotBankOrder        = errors.New("not a bank transfer order")
	ErrOrderNotPayable     = errors.New("order is no longer awaiting payment")
	ErrPaymentNotConfirmed = errors.New("payment is not confirmed yet")
	ErrReasonRequired      = errors.New("cancel reason is required")
	ErrAlreadyDelivered    = errors.New("delivered order cannot be canceled")
	ErrOrderCanceled       = errors.New("order is canceled")
	ErrCancelNotAllowed    = errors.New("order can no longer be canceled")
)

const (
	maxQtyPerLine    = 50
	maxCommentLen    = 120
	maxReasonLen     = 300
	historyLimit     = 30
	paymentCodeStamp = "BX"
)

// OrderService owns order creation and every status transition. Each
// transition is a single conditional UPDATE guarded on the current status, so
// concurrent customer and admin actions land on one valid final state.
type OrderService struct {
	DB   *gorm.DB
	Push *PushService
}

func NewOrderService(db *gorm.DB, push *PushService) *OrderService {
	return &OrderService{DB: db, Push: push}
}

type CreateOrderItemInput struct {
	MenuItemID string `json:"menu_item_id"`
	Qty        int    `json:"qty"`
}

type CreateOrderInput struct {
	RestaurantSlug string
	Items          []CreateOrderItemInput
	Location       models.DeliveryLocation
	PaymentMethod  string
	CustomerPhone  string
	PayerName      string
	Comment        string
}

// CreateOrder validates every line against the restaurant's live menu and
// creates the order with item snapshots atomically. All-or-nothing: one
// unavailable item rejects the whole order. Totals come from stored prices,
// never from the client.
func (s *OrderService) CreateOrder(in CreateOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, ErrNoItems
	}
	if strings.TrimSpace(in.CustomerPhone) == "" {
		return nil, ErrPhoneRequired
	}
	// Stored in the canonical 996XXXXXXXXX form so phone-based history lookups
	// match regardless of how the caller formatted the number.
	phone := payments.NormalizeBankPhone(in.CustomerPhone)
	if phone == "" {
		return nil, ErrPhoneInvalid
	}
	if strings.TrimSpace(in.Location.Line) == "" || strings.TrimSpace(in.Location.Container) == "" {
		return nil, ErrLocationRequired
	}

	var restaurant models.Restaurant
	if err := s.DB.Where("slug = ?", in.RestaurantSlug).First(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}

	ids := make([]string, 0, len(in.Items))
	for _, line := range in.Items {
		if line.Qty < 1 || line.Qty > maxQtyPerLine {
			return nil, ErrItemUnavailable
		}
		ids = append(ids, line.MenuItemID)
	}

	var menuItems []models.MenuItem
	if err := s.DB.Where("restaurant_id = ? AND id IN ?", restaurant.ID, ids).Find(&menuItems).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]models.MenuItem, len(menuItems))
	for _, m := range menuItems {
		byID[m.ID] = m
	}

	total := 0
	lines := make([]models.OrderItem, 0, len(in.Items))
	for _, line := range in.Items {
		m, ok := byID[line.MenuItemID]
		if !ok || !m.IsAvailable {
			return nil, ErrItemUnavailable
		}
		total += m.PriceKGS * line.Qty
		lines = append(lines, models.OrderItem{
			MenuItemID: m.ID,
			Qty:        line.Qty,
			PriceKGS:   m.PriceKGS,
			TitleSnap:  m.Title,
			PhotoSnap:  m.PhotoURL,
		})
	}

	method := models.NormalizePaymentMethod(in.PaymentMethod)
	status := models.StatusCreated
	if method == models.PaymentCash {
		status = models.StatusConfirmed
	}

	comment := truncateRunes(strings.TrimSpace(in.Comment), maxCommentLen)

	order := models.Order{
		RestaurantID:  restaurant.ID,
		Status:        status,
		PaymentMethod: method,
		TotalKGS:      total,
		PaymentCode:   payments.MakePaymentCode(paymentCodeStamp),
		PayerName:     strings.TrimSpace(in.PayerName),
		CustomerPhone: phone,
		Comment:       comment,
		Items:         lines,
	}
	order.SetLocation(in.Location)

	if err := s.DB.Create(&order).Error; err != nil {
		return nil, err
	}

	order.Restaurant = restaurant
	events.BroadcastOrderCreated(order)
	utils.InfoLogger.Printf("order %s created: %s, %d items, total %d KGS",
		order.ID, order.Status, len(order.Items), order.TotalKGS)
	return &order, nil
}

// GetOrder loads one order with items and its restaurant.
func (s *OrderService) GetOrder(id string) (*models.Order, error) {
	var order models.Order
	err := s.DB.Preload("Items").Preload("Restaurant").First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// ListOrders returns the admin console's order feed, newest first.
// scope "active": non-terminal orders, and bank orders only once the payer
// name has been declared. scope "history": terminal orders.
func (s *OrderService) ListOrders(scope string, limit int) ([]models.Order, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	q := s.DB.Preload("Items").Preload("Restaurant").
		Order("created_at desc").Limit(limit)

	terminal := []string{models.StatusDelivered, models.StatusCanceled}
	switch scope {
	case "active":
		q = q.Where("status NOT IN ?", terminal).
			Where("payment_method = ? OR payer_name <> ''", models.PaymentCash)
	case "history":
		q = q.Where("status IN ?", terminal)
	}

	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListHistory reconstructs a customer's history from saved order ids and/or
// phone. Terminal orders only, newest first, capped at 30.
func (s *OrderService) ListHistory(ids []string, phone string) ([]models.Order, error) {
	phone = strings.TrimSpace(phone)
	if n := payments.NormalizeBankPhone(phone); n != "" {
		phone = n
	}
	if len(ids) == 0 && phone == "" {
		return nil, nil
	}
	if len(ids) > historyLimit {
		ids = ids[:historyLimit]
	}

	q := s.DB.Preload("Items").Preload("Restaurant").
		Where("status IN ?", []string{models.StatusDelivered, models.StatusCanceled})

	switch {
	case len(ids) > 0 && phone != "":
		q = q.Where("id IN ? OR customer_phone = ?", ids, phone)
	case len(ids) > 0:
		q = q.Where("id IN ?", ids)
	default:
		q = q.Where("customer_phone = ?", phone)
	}

	var orders []models.Order
	if err := q.Order("created_at desc").Limit(historyLimit).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// truncateRunes bounds free text by characters, never splitting a multibyte
// rune mid-sequence.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// transition executes one compare-and-swap status update. It returns the
// number of rows changed; zero means the order was not in an allowed state
// (or does not exist) and the caller re-reads to report the precise outcome.
func (s *OrderService) transition(id string, allowed []string, updates map[string]interface{}) (int64, error) {
	updates["updated_at"] = time.Now()
	res := s.DB.Model(&models.Order{}).
		Where("id = ? AND status IN ?", id, allowed).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// afterTransition fires the best-effort side channels. Failures are logged
// and swallowed; the status change is the source of truth.
func (s *OrderService) afterTransition(order *models.Order) {
	if s.Push != nil {
		result, err := s.Push.Notify(order.ID, order.Status)
		if err != nil {
			utils.ErrorLogger.Printf("push: notify for order %s (%s): %v", order.ID, order.Status, err)
		} else if !result.Skipped {
			utils.InfoLogger.Printf("push: order %s -> %s: sent=%d removed=%d",
				order.ID, order.Status, result.Sent, result.Removed)
		}
	}
	events.BroadcastOrderUpdate(*order)
}

// MarkPaid is the customer's "I paid" declaration on a bank order. Requires a
// payer name of at least 2 characters; idempotent while the order is still
// awaiting confirmation.
func (s *OrderService) MarkPaid(id, payerName string) (*models.Order, error) {
	payerName = strings.TrimSpace(payerName)
	if len([]rune(payerName)) < 2 {
		return nil, ErrPayerNameRequired
	}

	order, err := s.GetOrder(id)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != models.PaymentBank {
		return nil, ErrNotBankOrder
	}

	rows, err := s.transition(id,
		[]string{models.StatusCreated, models.StatusPendingConfirmation},
		map[string]interface{}{
			"status":     models.StatusPendingConfirmation,
			"payer_name": payerName,
		})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrOrderNotPayable
	}

	order, err = s.GetOrder(id)
	if err != nil {
		return nil, err
	}
	s.afterTransition(order)
	return order, nil
}

// Confirm is the admin's payment confirmation. A no-op success when the order
// already moved past confirmation.
func (s *OrderService) Confirm(id string) (*models.Order, error) {
	rows, err := s.transition(id,
		[]string{models.StatusCreated, models.StatusPendingConfirmation},
		map[string]interface{}{"status": models.StatusConfirmed})
	if err != nil {
		return nil, err
	}

	order, err := s.GetOrder(id)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		if order.Status == models.StatusCanceled {
			return nil, ErrOrderCanceled
		}
		// Already confirmed or beyond: idempotent success, no side effects.
		return order, nil
	}
	s.afterTransition(order)
	return order, nil
}

// Deliver closes the happy path. Guarded against unconfirmed payments;
// idempotent on already-delivered orders.
func (s *OrderService) Deliver(id string) (*models.Order, error) {
	rows, err := s.transition(id,
		[]string{models.StatusConfirmed, models.StatusCooking, models.StatusDelivering},
		map[string]interface{}{"status": models.StatusDelivered})
	if err != nil {
		return nil, err
	}

	order, err := s.GetOrder(id)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		switch order.Status {
		case models.StatusDelivered:
			return order, nil
		case models.StatusCanceled:
			return nil, ErrOrderCanceled
		default:
			return nil, ErrPaymentNotConfirmed
		}
	}
	s.afterTransition(order)
	return order, nil
}

// AdminCancel cancels any active order with a mandatory reason. The reason is
// stored on the row and shown to the customer.
func (s *OrderService) AdminCancel(id, reason string) (*models.Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	reason = truncateRunes(reason, maxReasonLen)

	rows, err := s.transition(id,
		[]string{
			models.StatusCreated, models.StatusPendingConfirmation,
			models.StatusConfirmed, models.StatusCooking, models.StatusDelivering,
		},
		map[string]interface{}{
			"status":          models.StatusCanceled,
			"canceled_reason": reason,
		})
	if err != nil {
		return nil, err
	}

	order, err := s.GetOrder(id)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		if order.Status == models.StatusDelivered {
			return nil, ErrAlreadyDelivered
		}
		return nil, ErrCancelNotAllowed
	}
	s.afterTransition(order)
	return order, nil
}

// CustomerCancel cancels the customer's own order. No reason required; the
// row is always retained as `canceled`, never deleted. Idempotent on orders
// already canceled.
func (s *OrderService) CustomerCancel(id, reason string) (*models.Order, error) {
	reason = truncateRunes(strings.TrimSpace(reason), maxReasonLen)

	updates := map[string]interface{}{"status": models.StatusCanceled}
	if reason != "" {
		updates["canceled_reason"] = reason
	}

	rows, err := s.transition(id,
		[]string{
			models.StatusCreated, models.StatusPendingConfirmation,
			models.StatusConfirmed, models.StatusCooking, models.StatusDelivering,
		},
		updates)
	if err != nil {
		return nil, err
	}

	order, err := s.GetOrder(id)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		if order.Status == models.StatusCanceled {
			return order, nil
		}
		return nil, ErrAlreadyDelivered
	}
	s.afterTransition(order)
	return order, nil
}
