package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"tierdrive/internal/domain"
	"tierdrive/internal/repository"
	"tierdrive/internal/service/s3"
)

// OptimizerService переводит старые неактивные версии в более дешёвый
// класс хранения. Активную версию движок не трогает никогда: её задержка
// доступа видна пользователю. Запускается только по явному вызову.
type OptimizerService struct {
	catalog     repository.CatalogStore
	s3Client    s3.Storage
	costService *CostService
	clock       Clock
}

func NewOptimizerService(
	catalog repository.CatalogStore,
	s3Client s3.Storage,
	costService *CostService,
	clock Clock,
) *OptimizerService {
	return &OptimizerService{
		catalog:     catalog,
		s3Client:    s3Client,
		costService: costService,
		clock:       clock,
	}
}

// OptimizeRequest — параметры политики оптимизации.
// SkipActiveVersion обязан быть true; значение false — ошибка вызывающего
// (понижение активной версии ухудшило бы задержку доступа) и отклоняется,
// а не игнорируется молча.
type OptimizeRequest struct {
	DaysThreshold      int                 `json:"days_threshold"`
	TargetStorageClass domain.StorageClass `json:"target_storage_class"`
	SkipActiveVersion  bool                `json:"skip_active_version"`
}

// OptimizeResult — итог одного прогона
type OptimizeResult struct {
	OptimizedCount      int     `json:"optimized_count"`
	SkippedCount        int     `json:"skipped_count"`
	TotalMonthlySavings float64 `json:"total_monthly_savings"`
}

// OptimizeVersions применяет политику к версиям одного файла. Версии
// обрабатываются независимо: отказ перевода одной не блокирует остальные.
// Повторный прогон без новых подходящих версий даёт OptimizedCount == 0.
func (s *OptimizerService) OptimizeVersions(ctx context.Context, ownerID string, fileID uuid.UUID, req OptimizeRequest) (*OptimizeResult, error) {
	if !req.SkipActiveVersion {
		return nil, domain.InvalidArgument(
			"skipActiveVersion=false is not a legal configuration: demoting the active version degrades user-facing latency")
	}
	if req.DaysThreshold < 0 {
		return nil, domain.InvalidArgument(fmt.Sprintf("malformed days threshold: %d", req.DaysThreshold))
	}
	if !req.TargetStorageClass.Valid() {
		return nil, domain.InvalidArgument(fmt.Sprintf("unknown storage class: %q", req.TargetStorageClass))
	}

	targetPricing := domain.MustPricing(req.TargetStorageClass)
	now := s.clock.Now()

	result := &OptimizeResult{}
	var changed []*domain.Version

	err := s.catalog.WithCatalog(ctx, ownerID, func(cat *domain.Catalog) error {
		file := cat.FileByID(fileID)
		if file == nil {
			return domain.NotFound("file", fileID.String())
		}

		for _, v := range file.Versions {
			if !s.eligible(v, req, targetPricing, now) {
				result.SkippedCount++
				continue
			}

			oldCost := s.costService.EstimateVersionCost(v)
			if err := s.s3Client.ChangeStorageClass(ctx, v.StorageKey, req.TargetStorageClass); err != nil {
				log.Printf("warning: failed to change storage class of version %d of file %s: %v",
					v.Number, fileID, err)
				result.SkippedCount++
				continue
			}

			v.StorageClass = req.TargetStorageClass
			result.OptimizedCount++
			result.TotalMonthlySavings += oldCost - s.costService.EstimateVersionCost(v)
			changed = append(changed, v)
		}

		if result.OptimizedCount > 0 {
			file.UpdatedAt = now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, v := range changed {
		activity := &domain.BillingActivity{
			OwnerID: ownerID,
			Type:    domain.ActivityStorageClassChange,
			Cost:    s.costService.EstimateVersionCost(v),
			Metadata: map[string]any{
				"file_id":    fileID.String(),
				"version":    v.Number,
				"version_id": v.ID.String(),
				"new_class":  req.TargetStorageClass,
				"reason":     "optimization",
			},
		}
		if err := s.catalog.AppendBillingActivity(ctx, activity); err != nil {
			log.Printf("warning: failed to append billing activity: %v", err)
		}
	}

	return result, nil
}

// eligible решает, подлежит ли версия переводу в целевой класс
func (s *OptimizerService) eligible(v *domain.Version, req OptimizeRequest, target domain.Pricing, now time.Time) bool {
	// Политика никогда не трогает активную версию
	if v.IsActive {
		return false
	}
	if v.AgeDays(now) < req.DaysThreshold {
		return false
	}
	if v.StorageClass == req.TargetStorageClass {
		return false
	}
	// Никогда не «оптимизируем» в более дорогой класс
	if target.EffectiveUnitCost() >= domain.MustPricing(v.StorageClass).EffectiveUnitCost() {
		return false
	}
	// Версия моложе минимального срока хранения целевого класса не переводится
	if v.AgeDays(now) < target.MinimumRetentionDays {
		return false
	}
	return true
}
