package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tierdrive/internal/auth"
	"tierdrive/internal/domain"
	"tierdrive/internal/service"
)

type FileHandler struct {
	versionService   *service.VersionService
	optimizerService *service.OptimizerService
}

func NewFileHandler(
	versionService *service.VersionService,
	optimizerService *service.OptimizerService,
) *FileHandler {
	return &FileHandler{
		versionService:   versionService,
		optimizerService: optimizerService,
	}
}

// UploadFile обрабатывает загрузку файла. Повторная загрузка того же
// имени в ту же папку создаёт новую версию.
func (h *FileHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(100 << 20); err != nil {
		writeError(w, domain.InvalidArgument("failed to parse multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := service.UploadRequest{
		Name:    r.FormValue("name"),
		Comment: r.FormValue("comment"),
	}

	if raw := r.FormValue("folder_id"); raw != "" {
		folderID, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, domain.InvalidArgument("invalid folder id"))
			return
		}
		req.FolderID = &folderID
	}

	if raw := r.FormValue("storage_class"); raw != "" {
		class, err := domain.ParseStorageClass(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		req.StorageClass = class
	} else {
		req.StorageClass = domain.StorageClassStandard
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		writeError(w, domain.InvalidArgument("no file uploaded"))
		return
	}
	fileHeader := files[0]

	if req.Name == "" {
		req.Name = fileHeader.Filename
	}
	req.MIMEType = fileHeader.Header.Get("Content-Type")

	src, err := fileHeader.Open()
	if err != nil {
		log.Printf("[Upload] Failed to open multipart file: %v", err)
		writeError(w, domain.Internal("failed to read uploaded file"))
		return
	}
	defer src.Close()

	req.Data, err = io.ReadAll(src)
	if err != nil {
		log.Printf("[Upload] Failed to read multipart file: %v", err)
		writeError(w, domain.Internal("failed to read uploaded file"))
		return
	}

	file, err := h.versionService.UploadFile(r.Context(), userID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	log.Printf("[Upload] User %s uploaded %s (version %d)", userID, file.Name, file.CurrentVersionNumber)
	writeJSON(w, http.StatusCreated, file)
}

// GetFile возвращает метаданные файла
func (h *FileHandler) GetFile(w http.ResponseWriter, r *http.Request) {
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

	file, err := h.versionService.GetFile(r.Context(), userID, fileID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, file)
}

// DownloadFile выдаёт подписанную ссылку на активную версию
func (h *FileHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
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

	var ttl time.Duration
	if raw := r.URL.Query().Get("ttl_seconds"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			writeError(w, domain.InvalidArgument("ttl_seconds must be a positive integer"))
			return
		}
		ttl = time.Duration(seconds) * time.Second
	}

	url, err := h.versionService.SignedDownloadURL(r.Context(), userID, fileID, ttl)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// DeleteFile удаляет файл со всеми его версиями
func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
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

	if err := h.versionService.DeleteFile(r.Context(), userID, fileID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RenameFile обрабатывает запрос на переименование файла
func (h *FileHandler) RenameFile(w http.ResponseWriter, r *http.Request) {
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

	var req struct {
		NewName string `json:"new_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.InvalidArgument("invalid request body"))
		return
	}

	if err := h.versionService.RenameFile(r.Context(), userID, fileID, req.NewName); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// SetStarred помечает или снимает отметку файла
func (h *FileHandler) SetStarred(w http.ResponseWriter, r *http.Request) {
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

	var req struct {
		Starred bool `json:"starred"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.InvalidArgument("invalid request body"))
		return
	}

	if err := h.versionService.SetStarred(r.Context(), userID, fileID, req.Starred); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// ListVersions возвращает все версии файла со стоимостью
func (h *FileHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
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

	listing, err := h.versionService.ListVersions(r.Context(), userID, fileID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listing)
}

// RestoreVersion делает указанную версию активной
func (h *FileHandler) RestoreVersion(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	fileID, versionID, err := versionParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	file, err := h.versionService.RestoreVersion(r.Context(), userID, fileID, versionID)
	if err != nil {
		writeError(w, err)
		return
	}

	log.Printf("[Versions] User %s restored version %s of file %s", userID, versionID, fileID)
	writeJSON(w, http.StatusOK, file)
}

// DeleteVersion удаляет неактивную версию файла
func (h *FileHandler) DeleteVersion(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	fileID, versionID, err := versionParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.versionService.DeleteVersion(r.Context(), userID, fileID, versionID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateVersionComment изменяет комментарий версии
func (h *FileHandler) UpdateVersionComment(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	fileID, versionID, err := versionParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.InvalidArgument("invalid request body"))
		return
	}

	if err := h.versionService.UpdateVersionComment(r.Context(), userID, fileID, versionID, req.Comment); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// OptimizeVersions переводит старые неактивные версии в более дешёвый класс
func (h *FileHandler) OptimizeVersions(w http.ResponseWriter, r *http.Request) {
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

	req := service.OptimizeRequest{SkipActiveVersion: true}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.InvalidArgument("invalid request body"))
		return
	}

	result, err := h.optimizerService.OptimizeVersions(r.Context(), userID, fileID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	log.Printf("[Optimizer] User %s optimized file %s: %d moved, %d skipped",
		userID, fileID, result.OptimizedCount, result.SkippedCount)
	writeJSON(w, http.StatusOK, result)
}

// versionParams извлекает пару идентификаторов из пути версии
func versionParams(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	fileID, err := uuid.Parse(chi.URLParam(r, "uuid"))
	if err != nil {
		return uuid.Nil, uuid.Nil, domain.InvalidArgument("invalid file UUID")
	}
	versionID, err := uuid.Parse(chi.URLParam(r, "versionId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, domain.InvalidArgument("invalid version UUID")
	}
	return fileID, versionID, nil
}
