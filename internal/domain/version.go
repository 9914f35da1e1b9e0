package domain

import (
	"time"

	"github.com/google/uuid"
)

// Version — одна неизменяемая версия файла. Payload версии лежит в
// объектном хранилище под StorageKey; запись описывает только метаданные.
type Version struct {
	ID           uuid.UUID    `json:"id"`
	Number       int          `json:"number"`
	StorageKey   string       `json:"storage_key"`
	SizeBytes    int64        `json:"size_bytes"`
	MIMEType     string       `json:"mime_type"`
	StorageClass StorageClass `json:"storage_class"`
	CreatedAt    time.Time    `json:"created_at"`
	CreatedBy    string       `json:"created_by"`
	Comment      string       `json:"comment,omitempty"`
	IsActive     bool         `json:"is_active"`
	// Checksum равен nil для версий, перенесённых из до-версионной схемы
	Checksum *string `json:"checksum"`
}

// AgeDays возвращает возраст версии в полных днях на момент now
func (v *Version) AgeDays(now time.Time) int {
	return int(now.Sub(v.CreatedAt).Hours() / 24)
}
