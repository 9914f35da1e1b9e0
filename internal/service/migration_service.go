package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"tierdrive/internal/domain"
	"tierdrive/internal/repository"
)

const migratedVersionComment = "Initial version (migrated from legacy)"

// MigrationReport — итог прохода миграции по всем пользователям
type MigrationReport struct {
	MigratedCount int            `json:"migrated_count"`
	SkippedCount  int            `json:"skipped_count"`
	PerOwner      map[string]int `json:"per_owner"`
	FailedOwners  []string       `json:"failed_owners,omitempty"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
}

// MigrationService переводит дореверсионные файлы на версионную модель.
// Повторный запуск безопасен: уже версионные файлы не изменяются.
type MigrationService struct {
	catalog repository.CatalogStore
	clock   Clock
}

func NewMigrationService(catalog repository.CatalogStore, clock Clock) *MigrationService {
	return &MigrationService{catalog: catalog, clock: clock}
}

// RunLegacyMigration обходит каталоги всех пользователей. Сбой одного
// пользователя не останавливает проход: его каталог остаётся как есть,
// а владелец попадает в отчёт.
func (s *MigrationService) RunLegacyMigration(ctx context.Context) (*MigrationReport, error) {
	report := &MigrationReport{
		PerOwner:  make(map[string]int),
		StartedAt: s.clock.Now(),
	}

	owners, err := s.catalog.ListOwners(ctx)
	if err != nil {
		return nil, err
	}

	for _, ownerID := range owners {
		migrated, skipped, err := s.migrateOwner(ctx, ownerID)
		if err != nil {
			log.Printf("[Migration] WARNING: owner %s failed, catalog untouched: %v", ownerID, err)
			report.FailedOwners = append(report.FailedOwners, ownerID)
			continue
		}
		report.MigratedCount += migrated
		report.SkippedCount += skipped
		if migrated > 0 {
			report.PerOwner[ownerID] = migrated
		}
	}

	report.FinishedAt = s.clock.Now()
	log.Printf("[Migration] done: %d migrated, %d already versioned, %d owners failed",
		report.MigratedCount, report.SkippedCount, len(report.FailedOwners))
	return report, nil
}

func (s *MigrationService) migrateOwner(ctx context.Context, ownerID string) (migrated, skipped int, err error) {
	err = s.catalog.WithCatalog(ctx, ownerID, func(cat *domain.Catalog) error {
		for _, f := range cat.Files {
			if !f.IsLegacy() {
				skipped++
				continue
			}
			s.migrateFile(f)
			migrated++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return migrated, skipped, nil
}

// migrateFile синтезирует версию №1 из дореверсионных полей файла.
// Контрольная сумма неизвестна и остаётся пустой.
func (s *MigrationService) migrateFile(f *domain.File) {
	// Пустой класс — штатный случай для дореверсионных записей
	class := domain.StorageClassStandard
	if f.LegacyStorageClass != "" {
		parsed, err := domain.ParseStorageClass(f.LegacyStorageClass)
		if err != nil {
			log.Printf("[Migration] file %s has unknown class %q, defaulting to STANDARD", f.ID, f.LegacyStorageClass)
		} else {
			class = parsed
		}
	}

	createdAt := f.CreatedAt
	if f.LegacyUploadDate != nil {
		createdAt = *f.LegacyUploadDate
	}

	v := &domain.Version{
		ID:           uuid.New(),
		Number:       1,
		StorageKey:   f.LegacyStorageKey,
		SizeBytes:    f.SizeBytes,
		MIMEType:     f.MIMEType,
		StorageClass: class,
		CreatedAt:    createdAt,
		CreatedBy:    f.OwnerID,
		Comment:      migratedVersionComment,
		IsActive:     true,
	}

	f.Versions = []*domain.Version{v}
	f.CurrentVersionNumber = 1
	f.LastVersionNumber = 1
	f.VersioningEnabled = true
	f.LegacyStorageKey = ""
	f.LegacyStorageClass = ""
	f.LegacyUploadDate = nil
	f.UpdatedAt = s.clock.Now()
}
