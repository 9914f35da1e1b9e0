package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"tierdrive/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// writeJSON сериализует успешный ответ
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[HTTP] Failed to encode response: %v", err)
	}
}

// writeError переводит вид ошибки домена в HTTP статус
func writeError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)

	var status int
	switch kind {
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindConflict:
		status = http.StatusConflict
	case domain.KindInvalidArgument:
		status = http.StatusBadRequest
	case domain.KindBackendUnavailable:
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError || status == http.StatusServiceUnavailable {
		log.Printf("[HTTP] %s: %v", kind, err)
	}

	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: string(kind)})
}
