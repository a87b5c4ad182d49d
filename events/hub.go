package events

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/dordoifood/restaurant-app/models"
	"github.com/dordoifood/restaurant-app/utils"
)

// Event types pushed to connected admin dashboards.
const (
	EventOrderUpdate   = "order_update"
	EventOrderCreated  = "order_created"
	EventOrderSnapshot = "order_snapshot"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub holds every connected admin console socket.
type hub struct {
	clients map[*websocket.Conn]struct{}
	mutex   sync.Mutex
}

var adminHub = hub{
	clients: make(map[*websocket.Conn]struct{}),
}

// RegisterClient adds a connection to the broadcast set.
func RegisterClient(conn *websocket.Conn) {
	adminHub.mutex.Lock()
	defer adminHub.mutex.Unlock()
	adminHub.clients[conn] = struct{}{}
}

// UnregisterClient removes and closes a connection.
func UnregisterClient(conn *websocket.Conn) {
	adminHub.mutex.Lock()
	defer adminHub.mutex.Unlock()
	delete(adminHub.clients, conn)
	conn.Close()
}

// BroadcastOrderUpdate pushes an order's new state to every console.
func BroadcastOrderUpdate(order models.Order) {
	broadcast(Message{
		Event: EventOrderUpdate,
		Data:  order,
	})
}

// BroadcastOrderCreated announces a freshly created order.
func BroadcastOrderCreated(order models.Order) {
	broadcast(Message{
		Event: EventOrderCreated,
		Data:  order,
	})
}

func broadcast(msg Message) {
	adminHub.mutex.Lock()
	defer adminHub.mutex.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		if utils.ErrorLogger != nil {
			utils.ErrorLogger.Printf("events: marshal broadcast: %v", err)
		}
		return
	}

	for conn := range adminHub.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			// A dead socket is dropped on its next read loop; keep going.
			continue
		}
	}
}
