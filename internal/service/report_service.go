package service

import (
	"context"

	"github.com/google/uuid"

	"tierdrive/internal/domain"
	"tierdrive/internal/repository"
)

// FileCostReport — помесячная стоимость файла с разбивкой по версиям
type FileCostReport struct {
	FileID           uuid.UUID     `json:"file_id"`
	Name             string        `json:"name"`
	TotalMonthlyCost float64       `json:"total_monthly_cost"`
	Versions         []VersionCost `json:"versions"`
}

// CostBreakdownReport — сводка по каталогу пользователя
type CostBreakdownReport struct {
	TotalMonthlyCost float64                                `json:"total_monthly_cost"`
	FileCount        int                                    `json:"file_count"`
	VersionCount     int                                    `json:"version_count"`
	ByStorageClass   map[domain.StorageClass]ClassBreakdown `json:"by_storage_class"`
}

// ReportService строит отчёты о стоимости поверх каталога. Отчёты
// читают снимок каталога и ничего не изменяют.
type ReportService struct {
	catalog     repository.CatalogStore
	costService *CostService
}

func NewReportService(catalog repository.CatalogStore, costService *CostService) *ReportService {
	return &ReportService{catalog: catalog, costService: costService}
}

// FileCost считает помесячную стоимость каждой версии файла
func (s *ReportService) FileCost(ctx context.Context, ownerID string, fileID uuid.UUID) (*FileCostReport, error) {
	cat, err := s.catalog.ReadCatalog(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	file := cat.FileByID(fileID)
	if file == nil {
		return nil, domain.NotFound("file", fileID.String())
	}

	report := &FileCostReport{
		FileID:   file.ID,
		Name:     file.Name,
		Versions: make([]VersionCost, 0, len(file.Versions)),
	}
	for _, v := range file.Versions {
		cost := s.costService.EstimateVersionCost(v)
		report.TotalMonthlyCost += cost
		report.Versions = append(report.Versions, VersionCost{Version: v, MonthlyCost: cost})
	}
	return report, nil
}

// CostBreakdown агрегирует стоимость всего каталога по классам хранения
func (s *ReportService) CostBreakdown(ctx context.Context, ownerID string) (*CostBreakdownReport, error) {
	cat, err := s.catalog.ReadCatalog(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	report := &CostBreakdownReport{
		FileCount:      len(cat.Files),
		ByStorageClass: s.costService.AggregateByStorageClass(cat.Files),
	}
	for _, breakdown := range report.ByStorageClass {
		report.TotalMonthlyCost += breakdown.TotalCost
		report.VersionCount += breakdown.Count
	}
	return report, nil
}

// BillingHistory возвращает журнал биллинга пользователя
func (s *ReportService) BillingHistory(ctx context.Context, ownerID string) ([]domain.BillingActivity, error) {
	return s.catalog.ListBillingActivities(ctx, ownerID)
}
