package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dordoifood/restaurant-app/models"
	"github.com/dordoifood/restaurant-app/utils"
)

type MenuController struct {
	DB *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db}
}

func (mc *MenuController) activeRestaurant() (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := mc.DB.Where("is_active = ?", true).Order("created_at asc").First(&restaurant).Error
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

// GetRestaurantMenu -> GET /restaurants/:slug/menu
// Falls back to the active restaurant when the slug is unknown or inactive.
func (mc *MenuController) GetRestaurantMenu(c *gin.Context) {
	slug := c.Param("slug")

	var restaurant models.Restaurant
	err := mc.DB.Preload("Categories", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order asc")
	}).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order asc")
	}).Where("slug = ? AND is_active = ?", slug, true).First(&restaurant).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = mc.DB.Preload("Categories", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order asc")
		}).Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order asc")
		}).Where("is_active = ?", true).Order("created_at asc").First(&restaurant).Error
	}
	if err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("restaurant not found"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Restaurant menu", gin.H{
		"restaurant": gin.H{
			"id":   restaurant.ID,
			"name": restaurant.Name,
			"slug": restaurant.Slug,
		},
		"categories": restaurant.Categories,
		"items":      restaurant.Items,
	})
}

// UpsertCategory -> POST /admin/categories
func (mc *MenuController) UpsertCategory(c *gin.Context) {
	type reqBody struct {
		ID        string `json:"id"`
		Title     string `json:"title" binding:"required,max=40"`
		SortOrder int    `json:"sort_order"`
	}
	var body reqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	restaurant, err := mc.activeRestaurant()
	if err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("restaurant not found"))
		return
	}

	if body.ID != "" {
		var category models.MenuCategory
		if err := mc.DB.First(&category, "id = ?", body.ID).Error; err != nil {
			utils.RespondError(c, http.StatusNotFound, errors.New("category not found"))
			return
		}
		category.Title = body.Title
		category.SortOrder = body.SortOrder
		if err := mc.DB.Save(&category).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Category updated", category)
		return
	}

	category := models.MenuCategory{
		RestaurantID: restaurant.ID,
		Title:        body.Title,
		SortOrder:    body.SortOrder,
	}
	if err := mc.DB.Create(&category).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Category created", category)
}

// DeleteCategory -> DELETE /admin/categories/:category_id
func (mc *MenuController) DeleteCategory(c *gin.Context) {
	categoryID := c.Param("category_id")

	var count int64
	if err := mc.DB.Model(&models.MenuItem{}).Where("category_id = ?", categoryID).Count(&count).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if count > 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("category still has menu items"))
		return
	}

	if err := mc.DB.Delete(&models.MenuCategory{}, "id = ?", categoryID).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Category deleted", gin.H{"category_id": categoryID})
}

// UpsertMenuItem -> POST /admin/items
func (mc *MenuController) UpsertMenuItem(c *gin.Context) {
	type reqBody struct {
		ID          string `json:"id"`
		CategoryID  string `json:"category_id" binding:"required"`
		Title       string `json:"title" binding:"required,max=60"`
		Description string `json:"description" binding:"max=200"`
		PhotoURL    string `json:"photo_url" binding:"required"`
		PriceKGS    int    `json:"price_kgs" binding:"min=0,max=1000000"`
		IsAvailable *bool  `json:"is_available"`
		SortOrder   int    `json:"sort_order"`
	}
	var body reqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	restaurant, err := mc.activeRestaurant()
	if err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("restaurant not found"))
		return
	}

	var category models.MenuCategory
	if err := mc.DB.First(&category, "id = ? AND restaurant_id = ?", body.CategoryID, restaurant.ID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("category not found"))
		return
	}

	available := true
	if body.IsAvailable != nil {
		available = *body.IsAvailable
	}

	if body.ID != "" {
		var item models.MenuItem
		if err := mc.DB.First(&item, "id = ?", body.ID).Error; err != nil {
			utils.RespondError(c, http.StatusNotFound, errors.New("menu item not found"))
			return
		}
		item.CategoryID = body.CategoryID
		item.Title = body.Title
		item.Description = body.Description
		item.PhotoURL = body.PhotoURL
		item.PriceKGS = body.PriceKGS
		item.IsAvailable = available
		item.SortOrder = body.SortOrder
		if err := mc.DB.Save(&item).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Menu item updated", item)
		return
	}

	item := models.MenuItem{
		RestaurantID: restaurant.ID,
		CategoryID:   body.CategoryID,
		Title:        body.Title,
		Description:  body.Description,
		PhotoURL:     body.PhotoURL,
		PriceKGS:     body.PriceKGS,
		IsAvailable:  available,
		SortOrder:    body.SortOrder,
	}
	if err := mc.DB.Create(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu item created", item)
}

// DeleteMenuItem -> DELETE /admin/items/:item_id
// Blocked while any order line still references the item; historical orders
// must keep a resolvable soft reference.
func (mc *MenuController) DeleteMenuItem(c *gin.Context) {
	itemID := c.Param("item_id")

	var refs int64
	if err := mc.DB.Model(&models.OrderItem{}).Where("menu_item_id = ?", itemID).Count(&refs).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if refs > 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("menu item is referenced by orders"))
		return
	}

	if err := mc.DB.Delete(&models.MenuItem{}, "id = ?", itemID).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item deleted", gin.H{"item_id": itemID})
}
