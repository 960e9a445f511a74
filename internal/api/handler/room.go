package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"

	"github.com/mcoot/buzzer/internal/api/apierr"
	"github.com/mcoot/buzzer/internal/api/response"
	"github.com/mcoot/buzzer/internal/model"
)

const qrSize = 320

// RoomReader answers read-only questions about live rooms
type RoomReader interface {
	Snapshot(ctx context.Context, code string) (model.RoomSnapshot, error)
	Rooms(ctx context.Context) ([]model.RoomSummary, error)
	NewCode(ctx context.Context) (model.RoomCode, error)
}

// HistoryReader lists archived rounds
type HistoryReader interface {
	List(ctx context.Context, code model.RoomCode) ([]model.RoundSummary, error)
}

// RoomHandler handles room-related endpoints
type RoomHandler struct {
	rooms     RoomReader
	history   HistoryReader
	publicURL string
	logger    *slog.Logger
}

// NewRoomHandler creates a new room handler. publicURL may be empty, in which
// case join links are derived from the request.
func NewRoomHandler(rooms RoomReader, history HistoryReader, publicURL string, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{
		rooms:     rooms,
		history:   history,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger.With(slog.String("component", "api")),
	}
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.Rooms(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RoomListFromModel(rooms))
}

// New handles GET /api/v1/rooms/new
func (h *RoomHandler) New(w http.ResponseWriter, r *http.Request) {
	code, err := h.rooms.NewCode(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.NewRoomCode{
		Code:    string(code),
		JoinURL: h.joinURL(r, code),
	})
}

// Get handles GET /api/v1/rooms/{code}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}

	snap, err := h.rooms.Snapshot(r.Context(), string(code))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RoomFromSnapshot(snap))
}

// History handles GET /api/v1/rooms/{code}/history
func (h *RoomHandler) History(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}

	rounds, err := h.history.List(r.Context(), code)
	if err != nil {
		h.logger.Error("failed to list history",
			slog.String("room", string(code)),
			slog.Any("error", err))
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.HistoryFromModel(code, rounds))
}

// QR handles GET /api/v1/rooms/{code}/qr, a PNG of the room's join link
func (h *RoomHandler) QR(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}

	png, err := qrcode.Encode(h.joinURL(r, code), qrcode.Medium, qrSize)
	if err != nil {
		h.logger.Error("qr generation failed",
			slog.String("room", string(code)),
			slog.Any("error", err))
		apierr.WriteError(w, apierr.NewInternalError())
		return
	}
	response.PNG(w, png)
}

// joinURL builds the link players open to join a room
func (h *RoomHandler) joinURL(r *http.Request, code model.RoomCode) string {
	base := h.publicURL
	if base == "" {
		// Respect TLS and X-Forwarded-Proto when behind a proxy
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return fmt.Sprintf("%s/?room=%s", base, url.QueryEscape(string(code)))
}

func roomCode(w http.ResponseWriter, r *http.Request) (model.RoomCode, bool) {
	code := model.NormalizeRoomCode(mux.Vars(r)["code"])
	if code == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("room code is required"))
		return "", false
	}
	return code, true
}
