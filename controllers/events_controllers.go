package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/dordoifood/restaurant-app/events"
	"github.com/dordoifood/restaurant-app/models"
	"github.com/dordoifood/restaurant-app/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS policy is enforced by the middleware stack.
		return true
	},
}

// OrdersFeedHandler -> GET /admin/orders/ws
// Streams order_created/order_update events to the admin console so it does
// not depend on its polling interval alone.
func OrdersFeedHandler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("events: websocket upgrade: %v", err)
		return
	}

	// Seed the console with the current active orders before the connection
	// joins the broadcast set, so there is no write race on the socket.
	if db := utils.GetDB(); db != nil {
		var orders []models.Order
		err := db.Preload("Items").Preload("Restaurant").
			Where("status NOT IN ?", []string{models.StatusDelivered, models.StatusCanceled}).
			Order("created_at desc").Limit(50).Find(&orders).Error
		if err == nil {
			_ = conn.WriteJSON(events.Message{Event: events.EventOrderSnapshot, Data: orders})
		}
	}

	events.RegisterClient(conn)

	go func() {
		defer events.UnregisterClient(conn)
		for {
			// Inbound messages are ignored; the read loop only detects close.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
