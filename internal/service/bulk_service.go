package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"tierdrive/internal/domain"
	"tierdrive/internal/repository"
)

// BulkOperation — вид операции над набором элементов
type BulkOperation string

const (
	BulkDelete             BulkOperation = "delete"
	BulkChangeStorageClass BulkOperation = "change-storage-class"
	BulkRestore            BulkOperation = "restore"
)

// ProgressFunc получает прогресс после каждого обработанного элемента
type ProgressFunc func(current, total int)

// BulkItemResult — исход одного элемента пакета
type BulkItemResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BulkResult — итог пакетной операции
type BulkResult struct {
	SuccessCount int              `json:"success_count"`
	FailureCount int              `json:"failure_count"`
	Results      []BulkItemResult `json:"results"`
}

// BulkRequest описывает пакетную операцию. Элементы delete и
// change-storage-class адресуются идентификатором файла или папки;
// элементы restore — парой "fileID:versionID".
type BulkRequest struct {
	Operation          BulkOperation       `json:"operation"`
	Items              []string            `json:"items"`
	TargetStorageClass domain.StorageClass `json:"target_storage_class,omitempty"`
}

// BulkService выполняет операцию над упорядоченным списком элементов
// строго последовательно: прогресс детерминирован, а бекенд не получает
// всплесков параллельных вызовов. Ошибка одного элемента никогда не
// прерывает пакет.
type BulkService struct {
	catalog        repository.CatalogStore
	versionService *VersionService
	folderService  *FolderService
}

func NewBulkService(
	catalog repository.CatalogStore,
	versionService *VersionService,
	folderService *FolderService,
) *BulkService {
	return &BulkService{
		catalog:        catalog,
		versionService: versionService,
		folderService:  folderService,
	}
}

// Execute обрабатывает элементы по одному. Отмена контекста прекращает
// запуск новых элементов; уже записанные исходы остаются в результате.
func (s *BulkService) Execute(ctx context.Context, ownerID string, req BulkRequest, progress ProgressFunc) (*BulkResult, error) {
	switch req.Operation {
	case BulkDelete, BulkChangeStorageClass, BulkRestore:
	default:
		return nil, domain.InvalidArgument(fmt.Sprintf("unknown bulk operation: %q", req.Operation))
	}
	if req.Operation == BulkChangeStorageClass && !req.TargetStorageClass.Valid() {
		return nil, domain.InvalidArgument(fmt.Sprintf("unknown storage class: %q", req.TargetStorageClass))
	}

	total := len(req.Items)
	result := &BulkResult{Results: make([]BulkItemResult, 0, total)}

	for i, itemID := range req.Items {
		// Отмена: новые элементы не запускаем, частичный результат отдаём
		if ctx.Err() != nil {
			log.Printf("[Bulk] operation %s cancelled after %d of %d items", req.Operation, i, total)
			break
		}

		itemResult := BulkItemResult{ID: itemID, Success: true}
		if err := s.executeItem(ctx, ownerID, req, itemID); err != nil {
			itemResult.Success = false
			itemResult.Error = err.Error()
			result.FailureCount++
		} else {
			result.SuccessCount++
		}
		result.Results = append(result.Results, itemResult)

		if progress != nil {
			progress(i+1, total)
		}
	}

	return result, nil
}

// executeItem выполняет операцию над одним элементом; каждый элемент
// атомарен сам по себе
func (s *BulkService) executeItem(ctx context.Context, ownerID string, req BulkRequest, itemID string) error {
	switch req.Operation {
	case BulkRestore:
		fileID, versionID, err := parseVersionRef(itemID)
		if err != nil {
			return err
		}
		_, err = s.versionService.RestoreVersion(ctx, ownerID, fileID, versionID)
		return err

	case BulkDelete, BulkChangeStorageClass:
		id, err := uuid.Parse(itemID)
		if err != nil {
			return domain.InvalidArgument(fmt.Sprintf("malformed item id: %q", itemID))
		}

		item, err := s.resolveItem(ctx, ownerID, id)
		if err != nil {
			return err
		}

		// Разбираем оба случая закрытого варианта «файл или папка»
		switch {
		case item.File != nil:
			if req.Operation == BulkDelete {
				return s.versionService.DeleteFile(ctx, ownerID, id)
			}
			return s.versionService.ChangeFileStorageClass(ctx, ownerID, id, req.TargetStorageClass)
		case item.Folder != nil:
			if req.Operation == BulkDelete {
				return s.folderService.DeleteFolder(ctx, ownerID, id)
			}
			// Смена класса хранения к папкам неприменима: это отказ
			// элемента, а не всего пакета
			return domain.InvalidArgument("not applicable to folders")
		default:
			return domain.Internal(fmt.Sprintf("item %s resolved to neither file nor folder", id))
		}

	default:
		return domain.InvalidArgument(fmt.Sprintf("unknown bulk operation: %q", req.Operation))
	}
}

// resolveItem разрешает идентификатор элемента в файл или папку
func (s *BulkService) resolveItem(ctx context.Context, ownerID string, id uuid.UUID) (domain.Item, error) {
	cat, err := s.catalog.ReadCatalog(ctx, ownerID)
	if err != nil {
		return domain.Item{}, err
	}
	item, ok := cat.ItemByID(id)
	if !ok {
		return domain.Item{}, domain.NotFound("item", id.String())
	}
	return item, nil
}

// parseVersionRef разбирает ссылку "fileID:versionID"
func parseVersionRef(ref string) (uuid.UUID, uuid.UUID, error) {
	parts := strings.SplitN(ref, ":", 2)
	if len(parts) != 2 {
		return uuid.Nil, uuid.Nil, domain.InvalidArgument(
			fmt.Sprintf("restore item must look like fileID:versionID, got %q", ref))
	}
	fileID, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, uuid.Nil, domain.InvalidArgument(fmt.Sprintf("malformed file id: %q", parts[0]))
	}
	versionID, err := uuid.Parse(parts[1])
	if err != nil {
		return uuid.Nil, uuid.Nil, domain.InvalidArgument(fmt.Sprintf("malformed version id: %q", parts[1]))
	}
	return fileID, versionID, nil
}
