package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tierdrive/internal/domain"
	"tierdrive/internal/repository"
)

// FolderService ведёт дерево папок пользователя. Папки не несут версий;
// непустая папка не удаляется — молчаливой потери вложенного нет.
type FolderService struct {
	catalog     repository.CatalogStore
	costService *CostService
}

func NewFolderService(catalog repository.CatalogStore, costService *CostService) *FolderService {
	return &FolderService{
		catalog:     catalog,
		costService: costService,
	}
}

// CreateFolder создаёт папку; parentID == nil означает корень
func (s *FolderService) CreateFolder(ctx context.Context, ownerID, name string, parentID *uuid.UUID) (*domain.Folder, error) {
	if ownerID == "" || name == "" {
		return nil, domain.InvalidArgument("owner id and folder name are required")
	}

	folder := &domain.Folder{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      name,
		ParentID:  parentID,
		CreatedAt: time.Now(),
	}

	err := s.catalog.WithCatalog(ctx, ownerID, func(cat *domain.Catalog) error {
		if parentID != nil && cat.FolderByID(*parentID) == nil {
			return domain.NotFound("folder", parentID.String())
		}
		cat.Folders = append(cat.Folders, folder)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// GetFolderContent возвращает содержимое папки с рекурсивной оценкой
// месячной стоимости
func (s *FolderService) GetFolderContent(ctx context.Context, ownerID string, folderID uuid.UUID) (*domain.FolderContent, error) {
	cat, err := s.catalog.ReadCatalog(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	folder := cat.FolderByID(folderID)
	if folder == nil {
		return nil, domain.NotFound("folder", folderID.String())
	}

	content := &domain.FolderContent{
		Folder:           folder,
		Files:            []*domain.File{},
		Subfolders:       []*domain.Folder{},
		TotalMonthlyCost: s.costService.EstimateFolderCost(cat, folderID),
	}
	for _, f := range cat.Files {
		if f.FolderID != nil && *f.FolderID == folderID {
			content.Files = append(content.Files, f)
		}
	}
	for _, sub := range cat.Folders {
		if sub.ParentID != nil && *sub.ParentID == folderID {
			content.Subfolders = append(content.Subfolders, sub)
		}
	}
	return content, nil
}

// DeleteFolder удаляет пустую папку. Папка с любым вложением отклоняется:
// каскадного удаления нет, вызывающий обязан сперва опустошить её.
func (s *FolderService) DeleteFolder(ctx context.Context, ownerID string, folderID uuid.UUID) error {
	return s.catalog.WithCatalog(ctx, ownerID, func(cat *domain.Catalog) error {
		folder := cat.FolderByID(folderID)
		if folder == nil {
			return domain.NotFound("folder", folderID.String())
		}
		if !cat.FolderIsEmpty(folderID) {
			return domain.Conflict("folder", folderID.String(),
				"folder is not empty: remove its contents first")
		}
		cat.RemoveFolder(folderID)
		return nil
	})
}

// MoveFolder перемещает папку под нового родителя с защитой от цикла
func (s *FolderService) MoveFolder(ctx context.Context, ownerID string, folderID uuid.UUID, newParentID *uuid.UUID) error {
	return s.catalog.WithCatalog(ctx, ownerID, func(cat *domain.Catalog) error {
		folder := cat.FolderByID(folderID)
		if folder == nil {
			return domain.NotFound("folder", folderID.String())
		}

		if newParentID != nil {
			if *newParentID == folderID {
				return domain.Conflict("folder", folderID.String(), "folder cannot be moved into itself")
			}
			if cat.FolderByID(*newParentID) == nil {
				return domain.NotFound("folder", newParentID.String())
			}
			// Папка не может стать собственным предком
			if cat.IsAncestor(folderID, *newParentID) {
				return domain.Conflict("folder", folderID.String(),
					"folder cannot be moved into its own subtree")
			}
		}

		folder.ParentID = newParentID
		folder.UpdatedAt = time.Now()
		return nil
	})
}
