package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/uzhavango/rental_core/internal/service"
)

// StatusCode переводит вид доменной ошибки в HTTP статус
func StatusCode(err error) int {
	kind, ok := service.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch kind {
	case service.KindInvalidInput, service.KindInvalidTransition:
		return http.StatusBadRequest
	case service.KindResourceUnavailable, service.KindSchedulingConflict:
		return http.StatusConflict
	case service.KindNotAuthorized:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
