package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MenuCategory struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	RestaurantID string    `gorm:"type:varchar(36);not null;index" json:"restaurant_id"`
	Title        string    `gorm:"type:varchar(40);not null" json:"title"`
	SortOrder    int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (c *MenuCategory) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type MenuItem struct {
	ID           string       `gorm:"type:varchar(36);primaryKey" json:"id"`
	RestaurantID string       `gorm:"type:varchar(36);not null;index" json:"restaurant_id"`
	CategoryID   string       `gorm:"type:varchar(36);not null;index" json:"category_id"`
	Category     MenuCategory `gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Title        string       `gorm:"type:varchar(60);not null" json:"title"`
	Description  string       `gorm:"type:varchar(200)" json:"description"`
	PhotoURL     string       `gorm:"type:varchar(255);not null" json:"photo_url"`
	PriceKGS     int          `gorm:"not null" json:"price_kgs"`
	IsAvailable  bool         `gorm:"not null;default:true" json:"is_available"`
	SortOrder    int          `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt    time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null" json:"updated_at"`
}

func (m *MenuItem) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
