package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/buzzer/internal/api/apierr"
	"github.com/mcoot/buzzer/internal/api/handler"
	"github.com/mcoot/buzzer/internal/api/middleware"
)

const apiPrefix = "/api/v1"

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger    *slog.Logger
	Rooms     handler.RoomReader
	History   handler.HistoryReader
	WebSocket http.Handler
	PublicURL string
	Version   string
}

// NewRouter creates a new router with the JSON API and the websocket endpoint
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	roomHandler := handler.NewRoomHandler(cfg.Rooms, cfg.History, cfg.PublicURL, cfg.Logger)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	// Websocket upgrade; the logging writer supports hijacking
	if cfg.WebSocket != nil {
		r.Handle("/ws", cfg.WebSocket).Methods(http.MethodGet)
	}

	// Routes are registered flat under the prefix: a shared prefix matcher
	// would hide method mismatches and turn them into 404s.
	api := func(path string, h http.HandlerFunc) {
		r.HandleFunc(apiPrefix+path, h).Methods(http.MethodGet)
	}

	// Health check endpoint
	api("/health", handler.Health(cfg.Version))

	// Room routes; /new must be registered before /{code}
	api("/rooms", roomHandler.List)
	api("/rooms/new", roomHandler.New)
	api("/rooms/{code}", roomHandler.Get)
	api("/rooms/{code}/history", roomHandler.History)
	api("/rooms/{code}/qr", roomHandler.QR)

	// mux skips middleware for these, so they are wrapped here
	r.NotFoundHandler = loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError())
	}))
	r.MethodNotAllowedHandler = loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewMethodNotAllowedError())
	}))

	return r
}
