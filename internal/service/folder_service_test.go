package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierdrive/internal/domain"
	"tierdrive/internal/service"
)

func newFolderFixture(t *testing.T) (*service.FolderService, *service.VersionService, *fakeCatalogStore) {
	t.Helper()
	store := newFakeCatalogStore()
	storage := newFakeStorage()
	costService := service.NewCostService()
	return service.NewFolderService(store, costService),
		service.NewVersionService(store, storage, costService),
		store
}

func TestCreateFolder_UnknownParent(t *testing.T) {
	folders, _, _ := newFolderFixture(t)

	missing := uuid.New()
	_, err := folders.CreateFolder(context.Background(), testOwner, "docs", &missing)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestDeleteFolder_NotEmptyConflict(t *testing.T) {
	folders, versions, _ := newFolderFixture(t)
	ctx := context.Background()

	folder, err := folders.CreateFolder(ctx, testOwner, "docs", nil)
	require.NoError(t, err)
	_, err = versions.UploadFile(ctx, testOwner, service.UploadRequest{
		FolderID:     &folder.ID,
		Name:         "inside.txt",
		Data:         []byte("x"),
		StorageClass: domain.StorageClassStandard,
	})
	require.NoError(t, err)

	err = folders.DeleteFolder(ctx, testOwner, folder.ID)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindConflict))
}

func TestDeleteFolder_EmptySucceeds(t *testing.T) {
	folders, _, store := newFolderFixture(t)
	ctx := context.Background()

	folder, err := folders.CreateFolder(ctx, testOwner, "docs", nil)
	require.NoError(t, err)
	require.NoError(t, folders.DeleteFolder(ctx, testOwner, folder.ID))

	cat, err := store.ReadCatalog(ctx, testOwner)
	require.NoError(t, err)
	assert.Nil(t, cat.FolderByID(folder.ID))
}

func TestMoveFolder_IntoOwnSubtreeConflict(t *testing.T) {
	folders, _, _ := newFolderFixture(t)
	ctx := context.Background()

	parent, err := folders.CreateFolder(ctx, testOwner, "parent", nil)
	require.NoError(t, err)
	child, err := folders.CreateFolder(ctx, testOwner, "child", &parent.ID)
	require.NoError(t, err)

	err = folders.MoveFolder(ctx, testOwner, parent.ID, &child.ID)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindConflict))
}

func TestGetFolderContent_ReportsSubtreeCost(t *testing.T) {
	folders, versions, _ := newFolderFixture(t)
	ctx := context.Background()

	folder, err := folders.CreateFolder(ctx, testOwner, "docs", nil)
	require.NoError(t, err)
	sub, err := folders.CreateFolder(ctx, testOwner, "sub", &folder.ID)
	require.NoError(t, err)
	_, err = versions.UploadFile(ctx, testOwner, service.UploadRequest{
		FolderID:     &sub.ID,
		Name:         "deep.txt",
		Data:         []byte("payload"),
		StorageClass: domain.StorageClassStandard,
	})
	require.NoError(t, err)

	content, err := folders.GetFolderContent(ctx, testOwner, folder.ID)
	require.NoError(t, err)

	require.Len(t, content.Subfolders, 1)
	assert.Empty(t, content.Files)
	assert.Greater(t, content.TotalMonthlyCost, 0.0)
}
