package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tierdrive/internal/auth"
	"tierdrive/internal/domain"
	"tierdrive/internal/service"
)

type CostHandler struct {
	reportService *service.ReportService
}

func NewCostHandler(reportService *service.ReportService) *CostHandler {
	return &CostHandler{reportService: reportService}
}

// GetFileCost возвращает помесячную стоимость файла по версиям
func (h *CostHandler) GetFileCost(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	fileID, err := uuid.Parse(chi.URLParam(r, "uuid"))
	if err != nil {
		writeError(w, domain.InvalidArgument("invalid file UUID"))
		return
	}

	report, err := h.reportService.FileCost(r.Context(), userID, fileID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// GetCostBreakdown возвращает сводку стоимости каталога по классам хранения
func (h *CostHandler) GetCostBreakdown(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	report, err := h.reportService.CostBreakdown(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// GetBillingHistory возвращает журнал биллинга пользователя
func (h *CostHandler) GetBillingHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	activities, err := h.reportService.BillingHistory(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, activities)
}
