package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierdrive/internal/domain"
	"tierdrive/internal/service"
)

var optimizerNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

// seedVersionedFile кладёт в каталог файл с версиями заданного возраста.
// Последняя версия активна.
func seedVersionedFile(t *testing.T, store *fakeCatalogStore, storage *fakeStorage, ageDays []int, class domain.StorageClass) *domain.File {
	t.Helper()

	file := &domain.File{
		ID:                uuid.New(),
		OwnerID:           testOwner,
		Name:              "archive.tar",
		VersioningEnabled: true,
		CreatedAt:         optimizerNow.AddDate(0, 0, -ageDays[0]),
	}
	for i, age := range ageDays {
		v := &domain.Version{
			ID:           uuid.New(),
			Number:       i + 1,
			StorageKey:   fmt.Sprintf("drive_files/%s/%s/v%d", testOwner, file.ID, i+1),
			SizeBytes:    1 << 30,
			StorageClass: class,
			CreatedAt:    optimizerNow.AddDate(0, 0, -age),
			IsActive:     i == len(ageDays)-1,
		}
		file.Versions = append(file.Versions, v)
		require.NoError(t, storage.Put(context.Background(), v.StorageKey, nil, class))
	}
	file.LastVersionNumber = len(ageDays)
	file.CurrentVersionNumber = len(ageDays)

	require.NoError(t, store.WithCatalog(context.Background(), testOwner, func(cat *domain.Catalog) error {
		cat.Files = append(cat.Files, file)
		return nil
	}))
	return file
}

func newOptimizer(store *fakeCatalogStore, storage *fakeStorage) *service.OptimizerService {
	return service.NewOptimizerService(store, storage, service.NewCostService(), fakeClock{now: optimizerNow})
}

func TestOptimizeVersions_MovesOldInactiveVersions(t *testing.T) {
	store := newFakeCatalogStore()
	storage := newFakeStorage()
	file := seedVersionedFile(t, store, storage, []int{400, 200, 1}, domain.StorageClassStandard)

	svc := newOptimizer(store, storage)
	result, err := svc.OptimizeVersions(context.Background(), testOwner, file.ID, service.OptimizeRequest{
		DaysThreshold:      90,
		TargetStorageClass: domain.StorageClassGlacierInstant,
		SkipActiveVersion:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.OptimizedCount)
	assert.Equal(t, 1, result.SkippedCount)
	assert.Greater(t, result.TotalMonthlySavings, 0.0)

	cat, err := store.ReadCatalog(context.Background(), testOwner)
	require.NoError(t, err)
	persisted := cat.FileByID(file.ID)
	assert.Equal(t, domain.StorageClassGlacierInstant, persisted.Versions[0].StorageClass)
	assert.Equal(t, domain.StorageClassGlacierInstant, persisted.Versions[1].StorageClass)
	assert.Equal(t, domain.StorageClassStandard, persisted.Versions[2].StorageClass)
}

func TestOptimizeVersions_NeverTouchesActiveVersion(t *testing.T) {
	store := newFakeCatalogStore()
	storage := newFakeStorage()
	// Активная версия старше порога, но всё равно неприкосновенна
	file := seedVersionedFile(t, store, storage, []int{500, 400}, domain.StorageClassStandard)

	svc := newOptimizer(store, storage)
	result, err := svc.OptimizeVersions(context.Background(), testOwner, file.ID, service.OptimizeRequest{
		DaysThreshold:      30,
		TargetStorageClass: domain.StorageClassGlacierInstant,
		SkipActiveVersion:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.OptimizedCount)

	cat, err := store.ReadCatalog(context.Background(), testOwner)
	require.NoError(t, err)
	persisted := cat.FileByID(file.ID)
	active, err := persisted.ActiveVersion()
	require.NoError(t, err)
	assert.Equal(t, domain.StorageClassStandard, active.StorageClass)
}

func TestOptimizeVersions_RejectsSkipActiveFalse(t *testing.T) {
	store := newFakeCatalogStore()
	storage := newFakeStorage()
	file := seedVersionedFile(t, store, storage, []int{400, 1}, domain.StorageClassStandard)

	svc := newOptimizer(store, storage)
	_, err := svc.OptimizeVersions(context.Background(), testOwner, file.ID, service.OptimizeRequest{
		DaysThreshold:      30,
		TargetStorageClass: domain.StorageClassGlacierInstant,
		SkipActiveVersion:  false,
	})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInvalidArgument))
}

func TestOptimizeVersions_NeverMovesToCostlierClass(t *testing.T) {
	store := newFakeCatalogStore()
	storage := newFakeStorage()
	file := seedVersionedFile(t, store, storage, []int{400, 1}, domain.StorageClassDeepArchive)

	svc := newOptimizer(store, storage)
	result, err := svc.OptimizeVersions(context.Background(), testOwner, file.ID, service.OptimizeRequest{
		DaysThreshold:      30,
		TargetStorageClass: domain.StorageClassStandardIA,
		SkipActiveVersion:  true,
	})
	require.NoError(t, err)
	assert.Zero(t, result.OptimizedCount)
	assert.Equal(t, 2, result.SkippedCount)
}

func TestOptimizeVersions_SecondRunIsIdempotent(t *testing.T) {
	store := newFakeCatalogStore()
	storage := newFakeStorage()
	file := seedVersionedFile(t, store, storage, []int{400, 200, 1}, domain.StorageClassStandard)

	svc := newOptimizer(store, storage)
	req := service.OptimizeRequest{
		DaysThreshold:      90,
		TargetStorageClass: domain.StorageClassGlacierInstant,
		SkipActiveVersion:  true,
	}

	first, err := svc.OptimizeVersions(context.Background(), testOwner, file.ID, req)
	require.NoError(t, err)
	require.Equal(t, 2, first.OptimizedCount)

	second, err := svc.OptimizeVersions(context.Background(), testOwner, file.ID, req)
	require.NoError(t, err)
	assert.Zero(t, second.OptimizedCount)
	assert.Zero(t, second.TotalMonthlySavings)
}

func TestOptimizeVersions_StorageFailureSkipsVersion(t *testing.T) {
	store := newFakeCatalogStore()
	storage := newFakeStorage()
	file := seedVersionedFile(t, store, storage, []int{400, 200, 1}, domain.StorageClassStandard)
	storage.changeErr = domain.BackendUnavailable("copy object", errors.New("timeout"))

	svc := newOptimizer(store, storage)
	result, err := svc.OptimizeVersions(context.Background(), testOwner, file.ID, service.OptimizeRequest{
		DaysThreshold:      90,
		TargetStorageClass: domain.StorageClassGlacierInstant,
		SkipActiveVersion:  true,
	})
	require.NoError(t, err)
	assert.Zero(t, result.OptimizedCount)
	assert.Equal(t, 3, result.SkippedCount)

	// Каталог не разошёлся с бекендом: классы остались прежними
	cat, err := store.ReadCatalog(context.Background(), testOwner)
	require.NoError(t, err)
	for _, v := range cat.FileByID(file.ID).Versions {
		assert.Equal(t, domain.StorageClassStandard, v.StorageClass)
	}
}

func TestOptimizeVersions_RespectsMinimumRetention(t *testing.T) {
	store := newFakeCatalogStore()
	storage := newFakeStorage()
	// Версия прошла порог в 30 дней, но моложе минимального срока
	// хранения DEEP_ARCHIVE (180 дней)
	file := seedVersionedFile(t, store, storage, []int{100, 1}, domain.StorageClassStandard)

	svc := newOptimizer(store, storage)
	result, err := svc.OptimizeVersions(context.Background(), testOwner, file.ID, service.OptimizeRequest{
		DaysThreshold:      30,
		TargetStorageClass: domain.StorageClassDeepArchive,
		SkipActiveVersion:  true,
	})
	require.NoError(t, err)
	assert.Zero(t, result.OptimizedCount)
}

func TestOptimizeVersions_UnknownFile(t *testing.T) {
	store := newFakeCatalogStore()
	storage := newFakeStorage()

	svc := newOptimizer(store, storage)
	_, err := svc.OptimizeVersions(context.Background(), testOwner, uuid.New(), service.OptimizeRequest{
		DaysThreshold:      30,
		TargetStorageClass: domain.StorageClassGlacierInstant,
		SkipActiveVersion:  true,
	})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}
