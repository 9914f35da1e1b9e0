package domain

import "time"

// ActivityType — вид тарифицируемой операции
type ActivityType string

const (
	ActivityUpload             ActivityType = "upload"
	ActivityStorageClassChange ActivityType = "storage_class_change"
	ActivityRetrieval          ActivityType = "retrieval"
)

// BillingActivity — запись журнала тарифицируемых операций.
// Журнал только дописывается, записи после создания не меняются.
type BillingActivity struct {
	ID        int64          `json:"id" db:"id"`
	OwnerID   string         `json:"owner_id" db:"owner_id"`
	Type      ActivityType   `json:"type" db:"activity_type"`
	Cost      float64        `json:"cost" db:"cost"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}
