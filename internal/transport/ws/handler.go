package ws

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/buzzer/internal/dependencies/identity"
	"github.com/mcoot/buzzer/internal/protocol"
)

const disconnectTimeout = 5 * time.Second

// HandlerConfig configures the upgrade endpoint
type HandlerConfig struct {
	// AllowedOrigins lists accepted Origin hosts. Empty accepts any origin.
	AllowedOrigins []string
	Version        string
}

// Handler upgrades HTTP requests to websocket clients
type Handler struct {
	hub        *Hub
	dispatcher Dispatcher
	ids        identity.Source
	upgrader   websocket.Upgrader
	version    string
	logger     *slog.Logger
}

// NewHandler creates a new websocket Handler
func NewHandler(hub *Hub, dispatcher Dispatcher, ids identity.Source, cfg HandlerConfig, logger *slog.Logger) *Handler {
	return &Handler{
		hub:        hub,
		dispatcher: dispatcher,
		ids:        ids,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
		version: cfg.Version,
		logger:  logger.With(slog.String("component", "ws")),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response
		h.logger.Warn("ws upgrade failed", slog.Any("error", err))
		return
	}

	client := newClient(h.hub, h.ids.Next(), conn, h.logger)
	if !h.hub.Register(client) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
		return
	}

	if frame, err := protocol.EncodeWelcome(h.version); err == nil {
		h.hub.SendTo(client.id, frame)
	}

	go client.writePump()
	client.readPump(r.Context(), h.dispatcher)

	h.hub.Unregister(client)

	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	if err := h.dispatcher.Disconnect(ctx, client.id); err != nil {
		client.logger.Debug("disconnect not processed", slog.Any("error", err))
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}

	hosts := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		origin = strings.TrimSpace(origin)
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			hosts[strings.ToLower(u.Host)] = true
		} else if origin != "" {
			hosts[strings.ToLower(origin)] = true
		}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients send no Origin
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return hosts[strings.ToLower(u.Host)]
	}
}
