package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"citywatch/alertmedia/internal/model"

	"go.uber.org/atomic"
)

// Константы
const (
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10
	maxMessageSize     = 4 * 1024
	maxSendChannelSize = 64
)

// MediaEvent исходящее событие жизненного цикла media
type MediaEvent struct {
	Type      string    `json:"type"`
	AlertID   uint      `json:"alert_id"`
	MediaID   string    `json:"media_id,omitempty"`
	Status    string    `json:"status,omitempty"`
	Kind      string    `json:"kind,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Metrics метрики хаба
type Metrics struct {
	EventsSent  atomic.Int64
	Connections atomic.Int64
	Errors      atomic.Int64
}

// Hub держит по комнате на каждый alert; клиенты подписываются на
// события intake своего алерта.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[uint]map[*Client]bool
	metrics *Metrics
}

func NewHub() *Hub {
	return &Hub{
		rooms:   make(map[uint]map[*Client]bool),
		metrics: &Metrics{},
	}
}

func (h *Hub) register(alertID uint, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.rooms[alertID]; !exists {
		h.rooms[alertID] = make(map[*Client]bool)
	}
	h.rooms[alertID][client] = true
	h.metrics.Connections.Inc()
}

func (h *Hub) unregister(alertID uint, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.rooms[alertID]; exists {
		if clients[client] {
			delete(clients, client)
			close(client.send)
		}
		if len(clients) == 0 {
			delete(h.rooms, alertID)
		}
	}
}

// NotifyMedia реализует service.MediaNotifier: рассылает событие всем
// подписчикам комнаты алерта. Никогда не блокируется на медленном клиенте.
func (h *Hub) NotifyMedia(alertID uint, event string, media *model.Media) {
	ev := MediaEvent{
		Type:      event,
		AlertID:   alertID,
		Timestamp: time.Now(),
	}
	if media != nil {
		ev.MediaID = media.ID
		ev.Status = string(media.Status)
		ev.Kind = string(media.Kind)
	}

	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("hub: failed to marshal media event: %v", err)
		h.metrics.Errors.Inc()
		return
	}

	// Отправляем под RLock: unregister закрывает канал только под полным
	// Lock, поэтому запись в закрытый канал здесь невозможна.
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[alertID] {
		select {
		case client.send <- data:
			h.metrics.EventsSent.Inc()
		default:
			// Переполненный клиент отключится сам, событие не теряем для остальных.
			h.metrics.Errors.Inc()
		}
	}
}

// RoomSize возвращает число подписчиков комнаты.
func (h *Hub) RoomSize(alertID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[alertID])
}
