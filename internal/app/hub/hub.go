// Package hub broadcasts repository changes to websocket subscribers.
package hub

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/zyn-615/ACM-Transit-Template/internal/common/events"
	"github.com/zyn-615/ACM-Transit-Template/internal/metrics"
)

type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func New(logger zerolog.Logger, m *metrics.Metrics) *Hub {
	if m == nil {
		m = metrics.Nop()
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		metrics: m,
		logger:  logger.With().Str("component", "hub").Logger(),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.WSClients.Set(float64(n))
	h.logger.Info().Str("clientId", c.ID).Int("totalClients", n).Msg("Client registered")
}

// Unregister closes the client's send channel. Calling it twice is safe.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.Send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.metrics.WSClients.Set(float64(n))
		h.logger.Info().Str("clientId", c.ID).Int("totalClients", n).Msg("Client unregistered")
	}
}

// Broadcast queues msg for every client. Clients whose buffer is full are
// dropped.
func (h *Hub) Broadcast(msg events.Message) {
	data, err := msg.Bytes()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to serialize message")
		return
	}

	var slow []*Client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.Send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn().Str("clientId", c.ID).Msg("Client send buffer full, disconnecting")
		h.Unregister(c)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.Send)
	}
	h.mu.Unlock()
	h.metrics.WSClients.Set(0)
}
