package models

import (
	"time"
)

// PushSubscription is one device's registration to receive status pushes for
// one order. Unique on (order_id, endpoint) so re-subscribing upserts keys.
type PushSubscription struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	OrderID        string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_order_endpoint,priority:1" json:"order_id"`
	Order          Order      `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Endpoint       string     `gorm:"type:varchar(500);not null;uniqueIndex:idx_order_endpoint,priority:2" json:"endpoint"`
	P256dh         string     `gorm:"type:varchar(255);not null" json:"p256dh"`
	Auth           string     `gorm:"type:varchar(255);not null" json:"auth"`
	ExpirationTime *time.Time `json:"expiration_time,omitempty"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`
}
