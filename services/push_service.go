package services

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dordoifood/restaurant-app/models"
	"github.com/dordoifood/restaurant-app/utils"
)

// PushResult reports a dispatch attempt for observability. Skipped means push
// credentials are not configured and nothing was attempted.
type PushResult struct {
	Sent    int  `json:"sent"`
	Removed int  `json:"removed"`
	Skipped bool `json:"skipped"`
}

type pushPayload struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	URL     string `json:"url"`
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type vapidConfig struct {
	publicKey  string
	privateKey string
	subject    string
}

func (v vapidConfig) complete() bool {
	return v.publicKey != "" && v.privateKey != "" && v.subject != ""
}

// PushService delivers order-status web push notifications. Delivery is
// at-most-once per subscription; endpoints reported gone (404/410) are pruned.
type PushService struct {
	DB *gorm.DB

	configOnce sync.Once
	config     vapidConfig

	// send is swappable in tests; returns the provider's HTTP status code.
	send func(payload []byte, sub *models.PushSubscription, cfg vapidConfig) (int, error)
}

func NewPushService(db *gorm.DB) *PushService {
	return &PushService{
		DB:   db,
		send: sendWebPush,
	}
}

func sendWebPush(payload []byte, sub *models.PushSubscription, cfg vapidConfig) (int, error) {
	resp, err := webpush.SendNotification(payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      cfg.subject,
		VAPIDPublicKey:  cfg.publicKey,
		VAPIDPrivateKey: cfg.privateKey,
		TTL:             60,
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// Configured reports whether VAPID credentials are present. They are read
// once per process lifetime; these are deploy-time secrets.
func (p *PushService) Configured() bool {
	p.configOnce.Do(func() {
		p.config = vapidConfig{
			publicKey:  strings.TrimSpace(os.Getenv("VAPID_PUBLIC_KEY")),
			privateKey: strings.TrimSpace(os.Getenv("VAPID_PRIVATE_KEY")),
			subject:    strings.TrimSpace(os.Getenv("VAPID_SUBJECT")),
		}
	})
	return p.config.complete()
}

func statusPayload(orderID, status string) pushPayload {
	title := os.Getenv("APP_NAME")
	if title == "" {
		title = "Dordoi Food"
	}

	body := "Order canceled."
	switch status {
	case models.StatusPendingConfirmation:
		body = "Payment received. Waiting for restaurant confirmation."
	case models.StatusConfirmed:
		body = "Order confirmed by restaurant."
	case models.StatusDelivered:
		body = "Order marked as delivered."
	}

	return pushPayload{
		Title:   title,
		Body:    body,
		URL:     fmt.Sprintf("/order/%s", orderID),
		OrderID: orderID,
		Status:  status,
	}
}

// Notify sends the status change to every device subscribed to the order.
// Failures are per-subscription and never propagate to the caller's request;
// only storage errors are returned.
func (p *PushService) Notify(orderID, status string) (PushResult, error) {
	if !p.Configured() {
		return PushResult{Skipped: true}, nil
	}

	var subs []models.PushSubscription
	if err := p.DB.Where("order_id = ?", orderID).Find(&subs).Error; err != nil {
		return PushResult{}, err
	}
	if len(subs) == 0 {
		return PushResult{}, nil
	}

	payload, err := json.Marshal(statusPayload(orderID, status))
	if err != nil {
		return PushResult{}, err
	}

	var stale []string
	sent := 0
	for i := range subs {
		code, err := p.send(payload, &subs[i], p.config)
		if err != nil {
			utils.ErrorLogger.Printf("push: delivery to %s failed: %v", subs[i].Endpoint, err)
			continue
		}
		if code == 404 || code == 410 {
			stale = append(stale, subs[i].Endpoint)
			continue
		}
		if code >= 200 && code < 300 {
			sent++
			continue
		}
		// Other provider errors: no retry queue, the poller is the fallback.
		utils.ErrorLogger.Printf("push: provider returned %d for %s", code, subs[i].Endpoint)
	}

	if len(stale) > 0 {
		if err := p.DB.Where("order_id = ? AND endpoint IN ?", orderID, stale).
			Delete(&models.PushSubscription{}).Error; err != nil {
			return PushResult{Sent: sent, Removed: len(stale)}, err
		}
	}

	return PushResult{Sent: sent, Removed: len(stale)}, nil
}

// Subscribe upserts a device registration for one order.
func (p *PushService) Subscribe(orderID, endpoint, p256dh, auth string, expiration *time.Time) error {
	sub := models.PushSubscription{
		OrderID:        orderID,
		Endpoint:       endpoint,
		P256dh:         p256dh,
		Auth:           auth,
		ExpirationTime: expiration,
	}
	return p.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}, {Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "expiration_time", "updated_at"}),
	}).Create(&sub).Error
}

// Unsubscribe removes the endpoint's registrations, scoped to one order when
// orderID is non-empty.
func (p *PushService) Unsubscribe(orderID, endpoint string) error {
	q := p.DB.Where("endpoint = ?", endpoint)
	if orderID != "" {
		q = q.Where("order_id = ?", orderID)
	}
	return q.Delete(&models.PushSubscription{}).Error
}
