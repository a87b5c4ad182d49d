package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderItem is an immutable line snapshot: title, photo and unit price are
// copied from the menu at order time so later menu edits never rewrite history.
type OrderItem struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	OrderID    string    `gorm:"type:varchar(36);not null;index" json:"order_id"`
	Order      Order     `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	MenuItemID string    `gorm:"type:varchar(36);not null;index" json:"menu_item_id"`
	Qty        int       `gorm:"not null" json:"qty"`
	PriceKGS   int       `gorm:"not null" json:"price_kgs"`
	TitleSnap  string    `gorm:"type:varchar(60);not null" json:"title"`
	PhotoSnap  string    `gorm:"type:varchar(255)" json:"photo_url"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
