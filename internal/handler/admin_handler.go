package handler

import (
	"log"
	"net/http"

	"tierdrive/internal/auth"
	"tierdrive/internal/service"
)

type AdminHandler struct {
	migrationService *service.MigrationService
}

func NewAdminHandler(migrationService *service.MigrationService) *AdminHandler {
	return &AdminHandler{migrationService: migrationService}
}

// MigrateLegacy переводит дореверсионные файлы всех пользователей на
// версионную модель. Запуск идемпотентен.
func (h *AdminHandler) MigrateLegacy(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	log.Printf("[Migration] Started by %s", userID)
	report, err := h.migrationService.RunLegacyMigration(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
