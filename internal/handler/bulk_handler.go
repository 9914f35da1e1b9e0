package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"tierdrive/internal/auth"
	"tierdrive/internal/domain"
	"tierdrive/internal/service"
)

type BulkHandler struct {
	bulkService *service.BulkService
}

func NewBulkHandler(bulkService *service.BulkService) *BulkHandler {
	return &BulkHandler{bulkService: bulkService}
}

// Execute запускает пакетную операцию над списком элементов
func (h *BulkHandler) Execute(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req service.BulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.InvalidArgument("invalid request body"))
		return
	}
	if len(req.Items) == 0 {
		writeError(w, domain.InvalidArgument("items list is empty"))
		return
	}

	progress := func(current, total int) {
		log.Printf("[Bulk] User %s: %s %d/%d", userID, req.Operation, current, total)
	}

	result, err := h.bulkService.Execute(r.Context(), userID, req, progress)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
