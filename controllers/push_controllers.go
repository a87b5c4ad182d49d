package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dordoifood/restaurant-app/models"
	"github.com/dordoifood/restaurant-app/services"
	"github.com/dordoifood/restaurant-app/utils"
)

type PushController struct {
	DB   *gorm.DB
	Push *services.PushService
}

func NewPushController(db *gorm.DB, push *services.PushService) *PushController {
	return &PushController{DB: db, Push: push}
}

// Subscribe -> POST /push/subscribe
// Body mirrors the browser PushSubscription object.
func (pc *PushController) Subscribe(c *gin.Context) {
	type reqBody struct {
		OrderID      string `json:"order_id"`
		Subscription struct {
			Endpoint       string `json:"endpoint"`
			ExpirationTime *int64 `json:"expiration_time"`
			Keys           struct {
				P256dh string `json:"p256dh"`
				Auth   string `json:"auth"`
			} `json:"keys"`
		} `json:"subscription"`
	}

	var body reqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	orderID := strings.TrimSpace(body.OrderID)
	endpoint := strings.TrimSpace(body.Subscription.Endpoint)
	p256dh := strings.TrimSpace(body.Subscription.Keys.P256dh)
	auth := strings.TrimSpace(body.Subscription.Keys.Auth)

	if orderID == "" || endpoint == "" || p256dh == "" || auth == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid subscription payload"))
		return
	}

	var order models.Order
	if err := pc.DB.Select("id").First(&order, "id = ?", orderID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, services.ErrOrderNotFound)
		return
	}

	var expiration *time.Time
	if body.Subscription.ExpirationTime != nil {
		t := time.UnixMilli(*body.Subscription.ExpirationTime)
		expiration = &t
	}

	if err := pc.Push.Subscribe(orderID, endpoint, p256dh, auth, expiration); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Subscribed", gin.H{
		"push_configured": pc.Push.Configured(),
	})
}

// Unsubscribe -> POST /push/unsubscribe
func (pc *PushController) Unsubscribe(c *gin.Context) {
	type reqBody struct {
		OrderID  string `json:"order_id"`
		Endpoint string `json:"endpoint"`
	}

	var body reqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	endpoint := strings.TrimSpace(body.Endpoint)
	if endpoint == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("endpoint is required"))
		return
	}

	if err := pc.Push.Unsubscribe(strings.TrimSpace(body.OrderID), endpoint); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Unsubscribed", nil)
}
