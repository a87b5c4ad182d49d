package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Restaurant holds the stall's public identity and the bank identifiers the
// payment link builder needs. Only one restaurant is active at a time in the
// deployed model, though several rows may exist.
type Restaurant struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Slug           string    `gorm:"type:varchar(60);uniqueIndex;not null" json:"slug"`
	Name           string    `gorm:"type:varchar(100);not null" json:"name"`
	BankPhone      string    `gorm:"type:varchar(16)" json:"bank_phone"`
	PayURLTemplate string    `gorm:"type:varchar(512)" json:"pay_url_template"`
	QRImageURL     string    `gorm:"type:varchar(255)" json:"qr_image_url"`
	IsActive       bool      `gorm:"not null;default:false;index" json:"is_active"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`

	Categories []MenuCategory `gorm:"foreignKey:RestaurantID" json:"categories,omitempty"`
	Items      []MenuItem     `gorm:"foreignKey:RestaurantID" json:"items,omitempty"`
}

func (r *Restaurant) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
