package database

import (
	"errors"
	"os"

	"gorm.io/gorm"

	"github.com/dordoifood/restaurant-app/models"
	"github.com/dordoifood/restaurant-app/payments"
)

const (
	defaultSlug    = "dordoi-food"
	defaultQRImage = "/qr/demo-restaurant.png"
)

// EnsureActiveRestaurant guarantees exactly one usable active restaurant:
// reuse the active row, otherwise activate the oldest one, otherwise create
// the default stall.
func EnsureActiveRestaurant(db *gorm.DB) (*models.Restaurant, error) {
	var active models.Restaurant
	err := db.Where("is_active = ?", true).Order("created_at asc").First(&active).Error
	if err == nil {
		return &active, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var first models.Restaurant
	err = db.Order("created_at asc").First(&first).Error
	if err == nil {
		if err := db.Model(&first).Update("is_active", true).Error; err != nil {
			return nil, err
		}
		first.IsActive = true
		return &first, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	name := os.Getenv("APP_NAME")
	if name == "" {
		name = "Dordoi Food"
	}
	template := os.Getenv("MBANK_PAY_URL")
	if template == "" {
		template = payments.DefaultPayURLTemplate
	}

	restaurant := models.Restaurant{
		Slug:           defaultSlug,
		Name:           name,
		QRImageURL:     defaultQRImage,
		PayURLTemplate: template,
		IsActive:       true,
	}
	if err := db.Create(&restaurant).Error; err != nil {
		return nil, err
	}
	return &restaurant, nil
}
