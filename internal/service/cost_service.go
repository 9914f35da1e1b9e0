package service

import (
	"github.com/google/uuid"

	"tierdrive/internal/domain"
)

// CostService считает оценки месячной стоимости хранения по таблице тарифов
type CostService struct{}

func NewCostService() *CostService {
	return &CostService{}
}

// ClassBreakdown — сводка по одному классу хранения
type ClassBreakdown struct {
	Count      int     `json:"count"`
	TotalBytes int64   `json:"total_bytes"`
	TotalCost  float64 `json:"total_cost"`
}

// EstimateVersionCost — месячная стоимость хранения одной версии
func (s *CostService) EstimateVersionCost(v *domain.Version) float64 {
	return domain.EffectiveMonthlyCost(v.StorageClass, v.SizeBytes)
}

// EstimateFileCost — месячная стоимость файла. Тарифицируются все
// сохранённые байты, то есть все версии, а не только активная.
func (s *CostService) EstimateFileCost(f *domain.File) float64 {
	var total float64
	for _, v := range f.Versions {
		total += s.EstimateVersionCost(v)
	}
	return total
}

// EstimateFolderCost — рекурсивная стоимость папки со всеми вложениями
func (s *CostService) EstimateFolderCost(cat *domain.Catalog, folderID uuid.UUID) float64 {
	var total float64
	for _, f := range cat.Files {
		if f.FolderID != nil && *f.FolderID == folderID {
			total += s.EstimateFileCost(f)
		}
	}
	for _, sub := range cat.Folders {
		if sub.ParentID != nil && *sub.ParentID == folderID {
			total += s.EstimateFolderCost(cat, sub.ID)
		}
	}
	return total
}

// AggregateByStorageClass группирует версии по их собственному классу
// хранения: старые версии могут лежать не в том классе, что активная.
func (s *CostService) AggregateByStorageClass(files []*domain.File) map[domain.StorageClass]ClassBreakdown {
	result := make(map[domain.StorageClass]ClassBreakdown)
	for _, f := range files {
		for _, v := range f.Versions {
			b := result[v.StorageClass]
			b.Count++
			b.TotalBytes += v.SizeBytes
			b.TotalCost += s.EstimateVersionCost(v)
			result[v.StorageClass] = b
		}
	}
	return result
}
