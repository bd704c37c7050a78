package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"wise-student-be/internal/pkg/logger"
)

// fanoutChannel is the redis pub/sub channel instances use to reach
// clients connected to a different node.
const fanoutChannel = "entitlement_ws_fanout"

// Notice is the frame pushed to connected clients when something
// happens to their entitlements (activation, renewal, link, failure).
type Notice struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Hub tracks live websocket sessions per user. One user may hold
// several connections (multiple devices); all of them receive pushes.
type Hub struct {
	clients    map[uuid.UUID][]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	// rdb fans pushes out to other instances; nil means single node.
	rdb    *redis.Client
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.consumeFanout()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Debug("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.clients[client.UserID]; ok {
				for i, c := range conns {
					if c == client {
						h.clients[client.UserID] = append(conns[:i], conns[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.UserID]) == 0 {
					delete(h.clients, client.UserID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Send pushes a notice to every connection the user holds, here and on
// other instances via redis.
func (h *Hub) Send(userID uuid.UUID, notice Notice) {
	data, err := json.Marshal(notice)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode notice", map[string]interface{}{"error": err.Error()})
		return
	}

	// With redis present every instance, including this one, receives
	// the frame through the fanout subscription; delivering locally as
	// well would double-push.
	if h.rdb != nil {
		frame, _ := json.Marshal(fanoutFrame{TargetUserID: userID.String(), Message: data})
		h.rdb.Publish(context.Background(), fanoutChannel, frame)
		return
	}
	h.deliverLocal(userID, data)
}

type fanoutFrame struct {
	TargetUserID string          `json:"target_user_id"`
	Message      json.RawMessage `json:"message"`
}

func (h *Hub) deliverLocal(userID uuid.UUID, data []byte) {
	h.mu.RLock()
	conns := h.clients[userID]
	h.mu.RUnlock()

	for _, client := range conns {
		select {
		case client.Send <- data:
		default:
			// Slow consumer; drop the frame and the connection rather
			// than block the hub. Run's unregister branch is the sole
			// closer of Send.
			h.logger.Warn("Hub", "Send buffer full, dropping client", map[string]interface{}{"user_id": userID})
			h.unregister <- client
		}
	}
}

// consumeFanout relays pushes published by other instances to clients
// connected here. Frames for users without a local connection are
// discarded.
func (h *Hub) consumeFanout() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, fanoutChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var frame fanoutFrame
		if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
			h.logger.Warn("Hub", "Bad fanout frame", map[string]interface{}{"error": err.Error()})
			continue
		}
		uid, err := uuid.Parse(frame.TargetUserID)
		if err != nil {
			continue
		}
		h.deliverLocal(uid, frame.Message)
	}
}
