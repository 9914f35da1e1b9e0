package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tierdrive/internal/domain"
)

const recordTypeCatalog = "catalog"

// CatalogStore — долговременное хранилище каталожных записей пользователей.
// Документ читается и пишется целиком; запись одного пользователя — единица
// взаимного исключения.
type CatalogStore interface {
	// WithCatalog выполняет fn над каталогом пользователя под блокировкой
	// записи и сохраняет документ целиком, если fn вернула nil.
	WithCatalog(ctx context.Context, ownerID string, fn func(cat *domain.Catalog) error) error
	// ReadCatalog возвращает снимок каталога без блокировки
	ReadCatalog(ctx context.Context, ownerID string) (*domain.Catalog, error)
	// ListOwners перечисляет всех пользователей, у которых есть каталог
	ListOwners(ctx context.Context) ([]string, error)
	AppendBillingActivity(ctx context.Context, activity *domain.BillingActivity) error
	ListBillingActivities(ctx context.Context, ownerID string) ([]domain.BillingActivity, error)
}

type CatalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// WithCatalog читает документ каталога с блокировкой строки, отдаёт его fn
// и записывает результат обратно одной транзакцией. Конкурентные операции
// над каталогом одного пользователя сериализуются на этой блокировке;
// каталоги разных пользователей не конкурируют.
func (r *CatalogRepository) WithCatalog(ctx context.Context, ownerID string, fn func(cat *domain.Catalog) error) error {
	if ownerID == "" {
		return domain.InvalidArgument("owner id is required")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.BackendUnavailable("begin catalog transaction", err)
	}
	defer tx.Rollback()

	var raw []byte
	query := `SELECT document FROM user_records WHERE owner_id = $1 AND record_type = $2 FOR UPDATE`
	err = tx.QueryRowContext(ctx, query, ownerID, recordTypeCatalog).Scan(&raw)

	cat := &domain.Catalog{}
	switch {
	case err == sql.ErrNoRows:
		// У пользователя ещё нет каталога — начинаем с пустого документа
	case err != nil:
		return domain.BackendUnavailable("read catalog record", err)
	default:
		if err := json.Unmarshal(raw, cat); err != nil {
			return domain.Internal(fmt.Sprintf("catalog document for %s is not decodable: %v", ownerID, err))
		}
	}

	if err := fn(cat); err != nil {
		return err
	}

	doc, err := json.Marshal(cat)
	if err != nil {
		return domain.Internal(fmt.Sprintf("catalog document for %s is not encodable: %v", ownerID, err))
	}

	upsert := `
        INSERT INTO user_records (owner_id, record_type, document)
        VALUES ($1, $2, $3)
        ON CONFLICT (owner_id, record_type)
        DO UPDATE SET document = EXCLUDED.document, updated_at = CURRENT_TIMESTAMP`

	if _, err := tx.ExecContext(ctx, upsert, ownerID, recordTypeCatalog, doc); err != nil {
		return domain.BackendUnavailable("write catalog record", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.BackendUnavailable("commit catalog transaction", err)
	}
	return nil
}

// ReadCatalog возвращает снимок каталога без блокировки строки
func (r *CatalogRepository) ReadCatalog(ctx context.Context, ownerID string) (*domain.Catalog, error) {
	if ownerID == "" {
		return nil, domain.InvalidArgument("owner id is required")
	}

	var raw []byte
	query := `SELECT document FROM user_records WHERE owner_id = $1 AND record_type = $2`
	err := r.db.QueryRowContext(ctx, query, ownerID, recordTypeCatalog).Scan(&raw)
	if err == sql.ErrNoRows {
		return &domain.Catalog{}, nil
	}
	if err != nil {
		return nil, domain.BackendUnavailable("read catalog record", err)
	}

	cat := &domain.Catalog{}
	if err := json.Unmarshal(raw, cat); err != nil {
		return nil, domain.Internal(fmt.Sprintf("catalog document for %s is not decodable: %v", ownerID, err))
	}
	return cat, nil
}

func (r *CatalogRepository) ListOwners(ctx context.Context) ([]string, error) {
	var owners []string
	query := `SELECT owner_id FROM user_records WHERE record_type = $1 ORDER BY owner_id`
	if err := r.db.SelectContext(ctx, &owners, query, recordTypeCatalog); err != nil {
		return nil, domain.BackendUnavailable("list catalog owners", err)
	}
	return owners, nil
}

// AppendBillingActivity дописывает запись в журнал тарифицируемых операций.
// Журнал только растёт, записи никогда не обновляются и не удаляются.
func (r *CatalogRepository) AppendBillingActivity(ctx context.Context, activity *domain.BillingActivity) error {
	metadata, err := json.Marshal(activity.Metadata)
	if err != nil {
		return domain.Internal(fmt.Sprintf("billing metadata is not encodable: %v", err))
	}

	query := `
        INSERT INTO billing_activities (owner_id, activity_type, cost, metadata)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`

	err = r.db.QueryRowContext(ctx, query,
		activity.OwnerID,
		activity.Type,
		activity.Cost,
		metadata,
	).Scan(&activity.ID, &activity.CreatedAt)
	if err != nil {
		return domain.BackendUnavailable("append billing activity", err)
	}
	return nil
}

func (r *CatalogRepository) ListBillingActivities(ctx context.Context, ownerID string) ([]domain.BillingActivity, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, owner_id, activity_type, cost, metadata, created_at
        FROM billing_activities
        WHERE owner_id = $1
        ORDER BY id`, ownerID)
	if err != nil {
		return nil, domain.BackendUnavailable("list billing activities", err)
	}
	defer rows.Close()

	var activities []domain.BillingActivity
	for rows.Next() {
		var act domain.BillingActivity
		var metadata []byte
		if err := rows.Scan(&act.ID, &act.OwnerID, &act.Type, &act.Cost, &metadata, &act.CreatedAt); err != nil {
			return nil, domain.BackendUnavailable("scan billing activity", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &act.Metadata); err != nil {
				return nil, domain.Internal(fmt.Sprintf("billing metadata is not decodable: %v", err))
			}
		}
		activities = append(activities, act)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.BackendUnavailable("iterate billing activities", err)
	}
	return activities, nil
}
