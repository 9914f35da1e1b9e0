package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// File — логический файл, объединяющий набор версий.
// Порядок в Versions равен порядку создания и никогда не меняется;
// удаление версии оставляет разрыв в номерах, перенумерации нет.
type File struct {
	ID                   uuid.UUID  `json:"id"`
	OwnerID              string     `json:"owner_id"`
	Name                 string     `json:"name"`
	MIMEType             string     `json:"mime_type"`
	SizeBytes            int64      `json:"size_bytes"`
	FolderID             *uuid.UUID `json:"folder_id,omitempty"`
	CurrentVersionNumber int        `json:"current_version_number"`
	// LastVersionNumber — наибольший когда-либо выданный номер версии.
	// Номера монотонно растут и не переиспользуются даже после удалений.
	LastVersionNumber int        `json:"last_version_number"`
	Versions          []*Version `json:"versions"`
	VersioningEnabled bool       `json:"versioning_enabled"`
	IsStarred         bool       `json:"is_starred"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Поля до-версионной схемы: единственный blob файла хранился прямо в
	// записи. Заполнены только у старых документов и читаются единственным
	// местом — инструментом миграции. Размер legacy-записи лежит в SizeBytes.
	LegacyStorageKey   string     `json:"storage_key,omitempty"`
	LegacyStorageClass string     `json:"storage_class,omitempty"`
	LegacyUploadDate   *time.Time `json:"upload_date,omitempty"`
}

// IsLegacy сообщает, что запись ещё не переведена на версионную схему
func (f *File) IsLegacy() bool {
	return len(f.Versions) == 0 && f.CurrentVersionNumber == 0
}

// ActiveVersion возвращает единственную активную версию файла.
// Ноль или больше одной активной версии — нарушение инварианта:
// оно не исправляется молча, а всплывает как внутренняя ошибка.
func (f *File) ActiveVersion() (*Version, error) {
	var active *Version
	count := 0
	for _, v := range f.Versions {
		if v.IsActive {
			active = v
			count++
		}
	}
	if count != 1 {
		return nil, Internal(fmt.Sprintf(
			"file %s has %d active versions, expected exactly 1", f.ID, count))
	}
	return active, nil
}

// VersionByID находит версию по идентификатору
func (f *File) VersionByID(versionID uuid.UUID) *Version {
	for _, v := range f.Versions {
		if v.ID == versionID {
			return v
		}
	}
	return nil
}

// NextVersionNumber выдаёт следующий номер версии, не переиспользуя старые
func (f *File) NextVersionNumber() int {
	next := f.LastVersionNumber + 1
	// Старые документы могли не содержать счётчика — восстанавливаем его
	// по максимальному из существующих номеров.
	for _, v := range f.Versions {
		if v.Number >= next {
			next = v.Number + 1
		}
	}
	return next
}
