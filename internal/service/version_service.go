package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"tierdrive/internal/domain"
	"tierdrive/internal/repository"
	"tierdrive/internal/service/s3"
)

// Определение констант для работы с файлами
const (
	maxFileSize     = 100 * 1024 * 1024 // 100MB максимальный размер файла
	downloadURLTTL  = 15 * time.Minute
	maxDownloadTTL  = 24 * time.Hour
	defaultMIMEType = "application/octet-stream"
)

// VersionService ведёт набор версий файлов: создание, список, восстановление,
// удаление и аннотации. Каждая операция атомарна относительно каталожной
// записи пользователя.
type VersionService struct {
	catalog     repository.CatalogStore
	s3Client    s3.Storage
	costService *CostService
}

func NewVersionService(
	catalog repository.CatalogStore,
	s3Client s3.Storage,
	costService *CostService,
) *VersionService {
	return &VersionService{
		catalog:     catalog,
		s3Client:    s3Client,
		costService: costService,
	}
}

// UploadRequest описывает загрузку нового содержимого
type UploadRequest struct {
	FolderID     *uuid.UUID
	Name         string
	MIMEType     string
	Data         []byte
	StorageClass domain.StorageClass
	Comment      string
}

// storageKey строит ключ объекта: каждая версия — независимый полный объект
func storageKey(ownerID string, fileID uuid.UUID, versionNumber int) string {
	return fmt.Sprintf("drive_files/%s/%s/v%d", ownerID, fileID, versionNumber)
}

// UploadFile загружает содержимое в хранилище. Первый аплоад с данным именем
// создаёт файл с версией №1; повторный — добавляет новую версию и атомарно
// снимает флаг активности с предыдущей.
func (s *VersionService) UploadFile(ctx context.Context, ownerID string, req UploadRequest) (*domain.File, error) {
	if ownerID == "" || req.Name == "" {
		return nil, domain.InvalidArgument("owner id and file name are required")
	}
	if int64(len(req.Data)) > maxFileSize {
		return nil, domain.InvalidArgument(fmt.Sprintf("file size exceeds maximum allowed size of %d bytes", maxFileSize))
	}
	if !req.StorageClass.Valid() {
		return nil, domain.InvalidArgument(fmt.Sprintf("unknown storage class: %q", req.StorageClass))
	}
	if req.MIMEType == "" {
		req.MIMEType = defaultMIMEType
	}

	sum := sha256.Sum256(req.Data)
	checksum := hex.EncodeToString(sum[:])
	now := time.Now()

	var result *domain.File
	var uploadedKey string

	err := s.catalog.WithCatalog(ctx, ownerID, func(cat *domain.Catalog) error {
		if req.FolderID != nil && cat.FolderByID(*req.FolderID) == nil {
			return domain.NotFound("folder", req.FolderID.String())
		}

		file := cat.FileByName(req.FolderID, req.Name)
		if file == nil {
			// Создаем новый файл с первой версией
			file = &domain.File{
				ID:                uuid.New(),
				OwnerID:           ownerID,
				Name:              req.Name,
				MIMEType:          req.MIMEType,
				FolderID:          req.FolderID,
				VersioningEnabled: true,
				CreatedAt:         now,
			}
			cat.Files = append(cat.Files, file)
		} else if file.IsLegacy() {
			return domain.Conflict("file", file.ID.String(),
				"file has not been migrated to the versioned schema yet")
		}

		number := file.NextVersionNumber()
		key := storageKey(ownerID, file.ID, number)

		// Загружаем объект до правки документа: если запись каталога
		// не зафиксируется, объект будет удалён ниже
		if err := s.s3Client.Put(ctx, key, req.Data, req.StorageClass); err != nil {
			return err
		}
		uploadedKey = key

		version := &domain.Version{
			ID:           uuid.New(),
			Number:       number,
			StorageKey:   key,
			SizeBytes:    int64(len(req.Data)),
			MIMEType:     req.MIMEType,
			StorageClass: req.StorageClass,
			CreatedAt:    now,
			CreatedBy:    ownerID,
			Comment:      req.Comment,
			IsActive:     true,
			Checksum:     &checksum,
		}

		// Снимаем активность со старой версии и добавляем новую —
		// обе правки уходят одной записью документа
		for _, v := range file.Versions {
			v.IsActive = false
		}
		file.Versions = append(file.Versions, version)
		file.LastVersionNumber = number
		file.CurrentVersionNumber = number
		file.SizeBytes = version.SizeBytes
		file.MIMEType = req.MIMEType
		file.UpdatedAt = now

		result = file
		return nil
	})
	if err != nil {
		// При ошибке записи каталога удаляем уже загруженный объект
		if uploadedKey != "" {
			if deleteErr := s.s3Client.Delete(ctx, uploadedKey); deleteErr != nil {
				log.Printf("warning: failed to delete object from s3 after catalog error: %v", deleteErr)
			}
		}
		return nil, err
	}

	s.recordActivity(ctx, ownerID, domain.ActivityUpload,
		domain.EffectiveMonthlyCost(req.StorageClass, int64(len(req.Data))),
		map[string]any{
			"file_id":       result.ID.String(),
			"version":       result.CurrentVersionNumber,
			"storage_class": req.StorageClass,
			"size_bytes":    len(req.Data),
		})

	return result, nil
}

// VersionCost — версия вместе с оценкой её месячной стоимости
type VersionCost struct {
	Version     *domain.Version `json:"version"`
	MonthlyCost float64         `json:"monthly_cost"`
}

// VersionListing — снимок набора версий файла со сводкой стоимости
type VersionListing struct {
	File             *domain.File                           `json:"file"`
	Versions         []VersionCost                          `json:"versions"`
	TotalMonthlyCost float64                                `json:"total_monthly_cost"`
	Breakdown        map[domain.StorageClass]ClassBreakdown `json:"breakdown"`
}

// ListVersions возвращает версии файла в порядке создания с постоимостной
// сводкой по классам хранения
func (s *VersionService) ListVersions(ctx context.Context, ownerID string, fileID uuid.UUID) (*VersionListing, error) {
	cat, err := s.catalog.ReadCatalog(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	file := cat.FileByID(fileID)
	if file == nil {
		return nil, domain.NotFound("file", fileID.String())
	}

	listing := &VersionListing{
		File:      file,
		Versions:  make([]VersionCost, 0, len(file.Versions)),
		Breakdown: s.costService.AggregateByStorageClass([]*domain.File{file}),
	}
	for _, v := range file.Versions {
		cost := s.costService.EstimateVersionCost(v)
		listing.Versions = append(listing.Versions, VersionCost{Version: v, MonthlyCost: cost})
		listing.TotalMonthlyCost += cost
	}
	return listing, nil
}

// GetFile возвращает файл по идентификатору
func (s *VersionService) GetFile(ctx context.Context, ownerID string, fileID uuid.UUID) (*domain.File, error) {
	cat, err := s.catalog.ReadCatalog(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	file := cat.FileByID(fileID)
	if file == nil {
		return nil, domain.NotFound("file", fileID.String())
	}
	return file, nil
}

// errRestoreNoChange сигнализирует откат транзакции без записи документа,
// когда восстановление оказалось no-op
var errRestoreNoChange = errors.New("restore: version already active")

// RestoreVersion делает историческую версию активной. Нового номера версии
// не появляется: атомарно переключается ровно пара флагов активности, а
// размер и MIME-тип файла начинают отражать восстановленную версию.
// Восстановление уже активной версии — успешный no-op без записи каталога.
func (s *VersionService) RestoreVersion(ctx context.Context, ownerID string, fileID, versionID uuid.UUID) (*domain.File, error) {
	var result *domain.File

	err := s.catalog.WithCatalog(ctx, ownerID, func(cat *domain.Catalog) error {
		file := cat.FileByID(fileID)
		if file == nil {
			return domain.NotFound("file", fileID.String())
		}

		target := file.VersionByID(versionID)
		if target == nil {
			return domain.NotFound("version", versionID.String())
		}

		if target.IsActive {
			// Уже активна — документ не переписываем
			result = file
			return errRestoreNoChange
		}

		active, err := file.ActiveVersion()
		if err != nil {
			return err
		}

		active.IsActive = false
		target.IsActive = true
		file.CurrentVersionNumber = target.Number
		file.SizeBytes = target.SizeBytes
		file.MIMEType = target.MIMEType
		file.UpdatedAt = time.Now()

		result = file
		return nil
	})
	if err != nil && !errors.Is(err, errRestoreNoChange) {
		return nil, err
	}
	return result, nil
}

// DeleteVersion удаляет историческую версию и освобождает место в бекенде.
// Активную версию удалить нельзя; последнюю оставшуюся — тоже (вместо этого
// удаляется файл целиком).
func (s *VersionService) DeleteVersion(ctx context.Context, ownerID string, fileID, versionID uuid.UUID) error {
	var removedKey string

	err := s.catalog.WithCatalog(ctx, ownerID, func(cat *domain.Catalog) error {
		file := cat.FileByID(fileID)
		if file == nil {
			return domain.NotFound("file", fileID.String())
		}

		target := file.VersionByID(versionID)
		if target == nil {
			return domain.NotFound("version", versionID.String())
		}

		if target.IsActive {
			return domain.Conflict("version", versionID.String(),
				"cannot delete the active version: restore a different version first, or delete the file")
		}
		if len(file.Versions) == 1 {
			return domain.Conflict("version", versionID.String(),
				"cannot delete the last remaining version: delete the file instead")
		}

		for i, v := range file.Versions {
			if v.ID == versionID {
				file.Versions = append(file.Versions[:i], file.Versions[i+1:]...)
				break
			}
		}
		file.UpdatedAt = time.Now()
		removedKey = target.StorageKey
		return nil
	})
	if err != nil {
		return err
	}

	// Запись каталога зафиксирована — освобождаем объект в бекенде
	if removedKey != "" {
		if err := s.s3Client.Delete(ctx, removedKey); err != nil {
			log.Printf("warning: failed to delete version object from S3: %v", err)
		}
	}
	return nil
}

// UpdateVersionComment меняет только аннотацию версии
func (s *VersionService) UpdateVersionComment(ctx context.Context, ownerID string, fileID, versionID uuid.UUID, comment string) error {
	return s.catalog.WithCatalog(ctx, ownerID, func(cat *domain.Catalog) error {
		file := cat.FileByID(fileID)
		if file == nil {
			return domain.NotFound("file", fileID.String())
		}

		target := file.VersionByID(versionID)
		if target == nil {
			return domain.NotFound("version", versionID.String())
		}

		target.Comment = comment
		return nil
	})
}

// DeleteFile удаляет файл со всеми версиями и их объектами
func (s *VersionService) DeleteFile(ctx context.Context, ownerID string, fileID uuid.UUID) error {
	var keys []string

	err := s.catalog.WithCatalog(ctx, ownerID, func(cat *domain.Catalog) error {
		file := cat.FileByID(fileID)
		if file == nil {
			return domain.NotFound("file", fileID.String())
		}

		for _, v := range file.Versions {
			keys = append(keys, v.StorageKey)
		}
		if file.IsLegacy() && file.LegacyStorageKey != "" {
			keys = append(keys, file.LegacyStorageKey)
		}

		cat.RemoveFile(fileID)
		return nil
	})
	if err != nil {
		return err
	}

	// Удаляем все версии из S3
	for _, key := range keys {
		if err := s.s3Client.Delete(ctx, key); err != nil {
			log.Printf("warning: failed to delete object %s from S3: %v", key, err)
		}
	}
	return nil
}

// ChangeFileStorageClass переводит все версии файла в указанный класс.
// Версии обрабатываются независимо: отказ на одной не откатывает уже
// выполненные переводы, каталог остаётся правдивым по отношению к бекенду.
func (s *VersionService) ChangeFileStorageClass(ctx context.Context, ownerID string, fileID uuid.UUID, target domain.StorageClass) error {
	if !target.Valid() {
		return domain.InvalidArgument(fmt.Sprintf("unknown storage class: %q", target))
	}

	var firstErr error
	var changed []*domain.Version

	err := s.catalog.WithCatalog(ctx, ownerID, func(cat *domain.Catalog) error {
		file := cat.FileByID(fileID)
		if file == nil {
			return domain.NotFound("file", fileID.String())
		}

		for _, v := range file.Versions {
			if v.StorageClass == target {
				continue
			}
			if err := s.s3Client.ChangeStorageClass(ctx, v.StorageKey, target); err != nil {
				// фиксируем уже выполненные переводы и останавливаемся
				firstErr = err
				break
			}
			v.StorageClass = target
			changed = append(changed, v)
		}
		file.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return err
	}

	for _, v := range changed {
		s.recordActivity(ctx, ownerID, domain.ActivityStorageClassChange,
			domain.EffectiveMonthlyCost(target, v.SizeBytes),
			map[string]any{
				"file_id":    fileID.String(),
				"version":    v.Number,
				"version_id": v.ID.String(),
				"new_class":  target,
			})
	}
	return firstErr
}

// RenameFile переименовывает файл
func (s *VersionService) RenameFile(ctx context.Context, ownerID string, fileID uuid.UUID, newName string) error {
	if newName == "" {
		return domain.InvalidArgument("new file name is required")
	}

	return s.catalog.WithCatalog(ctx, ownerID, func(cat *domain.Catalog) error {
		file := cat.FileByID(fileID)
		if file == nil {
			return domain.NotFound("file", fileID.String())
		}

		// Проверяем, нет ли файла с таким именем в той же папке
		if existing := cat.FileByName(file.FolderID, newName); existing != nil && existing.ID != fileID {
			return domain.Conflict("file", existing.ID.String(),
				fmt.Sprintf("file with name %s already exists in this folder", newName))
		}

		file.Name = newName
		file.UpdatedAt = time.Now()
		return nil
	})
}

// SetStarred помечает или снимает отметку файла
func (s *VersionService) SetStarred(ctx context.Context, ownerID string, fileID uuid.UUID, starred bool) error {
	return s.catalog.WithCatalog(ctx, ownerID, func(cat *domain.Catalog) error {
		file := cat.FileByID(fileID)
		if file == nil {
			return domain.NotFound("file", fileID.String())
		}
		file.IsStarred = starred
		return nil
	})
}

// SignedDownloadURL выдаёт подписанную ссылку на активную версию файла
func (s *VersionService) SignedDownloadURL(ctx context.Context, ownerID string, fileID uuid.UUID, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = downloadURLTTL
	}
	if ttl > maxDownloadTTL {
		return "", domain.InvalidArgument(fmt.Sprintf("download TTL must not exceed %v", maxDownloadTTL))
	}

	cat, err := s.catalog.ReadCatalog(ctx, ownerID)
	if err != nil {
		return "", err
	}

	file := cat.FileByID(fileID)
	if file == nil {
		return "", domain.NotFound("file", fileID.String())
	}

	active, err := file.ActiveVersion()
	if err != nil {
		return "", err
	}

	url, err := s.s3Client.SignedURL(ctx, active.StorageKey, ttl)
	if err != nil {
		return "", err
	}

	// Стоимость самой выдачи ссылки нулевая: тарифицируется хранение,
	// а не трафик. Запись нужна журналу как факт обращения к данным.
	s.recordActivity(ctx, ownerID, domain.ActivityRetrieval, 0,
		map[string]any{
			"file_id":     fileID.String(),
			"version":     active.Number,
			"ttl_seconds": int(ttl.Seconds()),
		})

	return url, nil
}

// recordActivity дописывает запись биллинга; отказ журнала не прерывает
// уже выполненную операцию
func (s *VersionService) recordActivity(ctx context.Context, ownerID string, actType domain.ActivityType, cost float64, metadata map[string]any) {
	activity := &domain.BillingActivity{
		OwnerID:  ownerID,
		Type:     actType,
		Cost:     cost,
		Metadata: metadata,
	}
	if err := s.catalog.AppendBillingActivity(ctx, activity); err != nil {
		log.Printf("warning: failed to append billing activity: %v", err)
	}
}
