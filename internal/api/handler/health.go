package handler

import (
	"net/http"

	"github.com/mcoot/buzzer/internal/api/response"
)

// Health returns a handler for GET /api/v1/health
func Health(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, response.Health{Status: "ok", Version: version})
	}
}
