package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order status wire values. `delivered` and `canceled` are terminal.
const (
	StatusCreated             = "created"
	StatusPendingConfirmation = "pending_confirmation"
	StatusConfirmed           = "confirmed"
	StatusCooking             = "cooking"
	StatusDelivering          = "delivering"
	StatusDelivered           = "delivered"
	StatusCanceled            = "canceled"
)

// Canonical payment methods. Legacy storage rows used "qr_image" for bank
// transfers; NormalizePaymentMethod maps that at the boundary.
const (
	PaymentBank = "bank"
	PaymentCash = "cash"
)

type Order struct {
	ID                string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	RestaurantID      string     `gorm:"type:varchar(36);not null;index" json:"restaurant_id"`
	Restaurant        Restaurant `gorm:"foreignKey:RestaurantID" json:"restaurant"`
	Status            string     `gorm:"type:varchar(24);not null;default:'created';index" json:"status"`
	PaymentMethod     string     `gorm:"type:varchar(16);not null" json:"payment_method"`
	TotalKGS          int        `gorm:"not null;default:0" json:"total_kgs"`
	PaymentCode       string     `gorm:"type:varchar(16)" json:"payment_code"`
	PayerName         string     `gorm:"type:varchar(60)" json:"payer_name"`
	CustomerPhone     string     `gorm:"type:varchar(16);not null;index" json:"customer_phone"`
	Comment           string     `gorm:"type:varchar(120)" json:"comment"`
	LocationLine      string     `gorm:"type:varchar(32);not null" json:"-"`
	LocationContainer string     `gorm:"type:varchar(32);not null" json:"-"`
	LocationLandmark  string     `gorm:"type:varchar(80)" json:"-"`
	CanceledReason    string     `gorm:"type:varchar(300)" json:"canceled_reason"`
	CreatedAt         time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"not null" json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// DeliveryLocation is the line/container/landmark triple customers use to
// describe a stall inside the market.
type DeliveryLocation struct {
	Line      string `json:"line"`
	Container string `json:"container"`
	Landmark  string `json:"landmark,omitempty"`
}

func (o *Order) Location() DeliveryLocation {
	return DeliveryLocation{
		Line:      o.LocationLine,
		Container: o.LocationContainer,
		Landmark:  o.LocationLandmark,
	}
}

func (o *Order) SetLocation(loc DeliveryLocation) {
	o.LocationLine = loc.Line
	o.LocationContainer = loc.Container
	o.LocationLandmark = loc.Landmark
}

// IsTerminalStatus reports whether no further transitions are permitted.
func IsTerminalStatus(status string) bool {
	return status == StatusDelivered || status == StatusCanceled
}

// IsApprovedStatus reports whether payment has been confirmed by staff.
func IsApprovedStatus(status string) bool {
	switch status {
	case StatusConfirmed, StatusCooking, StatusDelivering, StatusDelivered:
		return true
	}
	return false
}

// IsAwaitingPayment reports whether a bank order still expects the customer
// to act on the payment screen.
func IsAwaitingPayment(status string) bool {
	return status == StatusCreated || status == StatusPendingConfirmation
}

// NormalizePaymentMethod collapses the legacy spelling into the canonical enum.
func NormalizePaymentMethod(method string) string {
	if method == PaymentCash {
		return PaymentCash
	}
	return PaymentBank
}
