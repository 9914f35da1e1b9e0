package domain

import "fmt"

// StorageClass определяет класс хранения объекта в S3-совместимом хранилище
type StorageClass string

const (
	StorageClassStandard           StorageClass = "STANDARD"
	StorageClassStandardIA         StorageClass = "STANDARD_IA"
	StorageClassOneZoneIA          StorageClass = "ONEZONE_IA"
	StorageClassGlacierInstant     StorageClass = "GLACIER_INSTANT"
	StorageClassGlacierFlexible    StorageClass = "GLACIER_FLEXIBLE"
	StorageClassDeepArchive        StorageClass = "DEEP_ARCHIVE"
	StorageClassIntelligentTiering StorageClass = "INTELLIGENT_TIERING"
)

// RetrievalLatency описывает характер времени доступа к данным класса
type RetrievalLatency string

const (
	RetrievalInstant RetrievalLatency = "instant"
	RetrievalMinutes RetrievalLatency = "minutes"
	RetrievalHours   RetrievalLatency = "hours"
)

// Pricing — базовая цена бекенда, наша наценка и характеристики доступа
type Pricing struct {
	BaseUnitCostPerGBMonth float64          `json:"base_unit_cost_per_gb_month"`
	MarginPercent          float64          `json:"margin_percent"`
	RetrievalLatency       RetrievalLatency `json:"retrieval_latency"`
	MinimumRetentionDays   int              `json:"minimum_retention_days"`
}

// Статическая таблица тарифов. Цены указаны за ГБ в месяц в USD.
var pricingTable = map[StorageClass]Pricing{
	StorageClassStandard: {
		BaseUnitCostPerGBMonth: 0.023,
		MarginPercent:          30,
		RetrievalLatency:       RetrievalInstant,
		MinimumRetentionDays:   0,
	},
	StorageClassStandardIA: {
		BaseUnitCostPerGBMonth: 0.0125,
		MarginPercent:          30,
		RetrievalLatency:       RetrievalInstant,
		MinimumRetentionDays:   30,
	},
	StorageClassOneZoneIA: {
		BaseUnitCostPerGBMonth: 0.01,
		MarginPercent:          30,
		RetrievalLatency:       RetrievalInstant,
		MinimumRetentionDays:   30,
	},
	StorageClassGlacierInstant: {
		BaseUnitCostPerGBMonth: 0.004,
		MarginPercent:          35,
		RetrievalLatency:       RetrievalInstant,
		MinimumRetentionDays:   90,
	},
	StorageClassGlacierFlexible: {
		BaseUnitCostPerGBMonth: 0.0036,
		MarginPercent:          35,
		RetrievalLatency:       RetrievalMinutes,
		MinimumRetentionDays:   90,
	},
	StorageClassDeepArchive: {
		BaseUnitCostPerGBMonth: 0.00099,
		MarginPercent:          40,
		RetrievalLatency:       RetrievalHours,
		MinimumRetentionDays:   180,
	},
	StorageClassIntelligentTiering: {
		BaseUnitCostPerGBMonth: 0.023,
		MarginPercent:          25,
		RetrievalLatency:       RetrievalInstant,
		MinimumRetentionDays:   30,
	},
}

// ParseStorageClass проверяет класс хранения на входной границе.
// Все внешние значения обязаны проходить через эту функцию.
func ParseStorageClass(s string) (StorageClass, error) {
	class := StorageClass(s)
	if _, ok := pricingTable[class]; !ok {
		return "", InvalidArgument(fmt.Sprintf("unknown storage class: %q", s))
	}
	return class, nil
}

// Valid сообщает, известен ли класс таблице тарифов
func (c StorageClass) Valid() bool {
	_, ok := pricingTable[c]
	return ok
}

// MustPricing возвращает тариф класса. Неизвестный класс — ошибка
// программиста: классы валидируются на входных границах, поэтому здесь
// паникуем, а не подставляем значение по умолчанию.
func MustPricing(c StorageClass) Pricing {
	p, ok := pricingTable[c]
	if !ok {
		panic(fmt.Sprintf("domain: pricing requested for unknown storage class %q", c))
	}
	return p
}

// EffectiveUnitCost — цена за ГБ в месяц с учётом наценки, всегда > 0
func (p Pricing) EffectiveUnitCost() float64 {
	return p.BaseUnitCostPerGBMonth * (1 + p.MarginPercent/100)
}

// EffectiveMonthlyCost считает месячную стоимость хранения sizeBytes байт
// в классе c. Байты переводятся в двоичные гигабайты (1024-based).
func EffectiveMonthlyCost(c StorageClass, sizeBytes int64) float64 {
	gb := float64(sizeBytes) / float64(1<<30)
	return gb * MustPricing(c).EffectiveUnitCost()
}

// StorageClasses возвращает все известные классы хранения
func StorageClasses() []StorageClass {
	classes := make([]StorageClass, 0, len(pricingTable))
	for c := range pricingTable {
		classes = append(classes, c)
	}
	return classes
}
