package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/zyn-615/ACM-Transit-Template/internal/app/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventsHandler upgrades to a websocket that streams repository changes.
type EventsHandler struct {
	hub    *hub.Hub
	logger zerolog.Logger
}

func NewEventsHandler(h *hub.Hub, logger zerolog.Logger) *EventsHandler {
	return &EventsHandler{
		hub:    h,
		logger: logger.With().Str("component", "ws-handler").Logger(),
	}
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to upgrade connection")
		return
	}

	client := hub.NewClient(uuid.NewString(), conn, h.hub, h.logger)
	h.hub.Register(client)
	h.logger.Info().Str("clientId", client.ID).Str("remoteAddr", r.RemoteAddr).Msg("WebSocket connection established")

	go client.WritePump()
	go client.ReadPump()
}
