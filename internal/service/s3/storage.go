package s3

import (
	"context"
	"time"

	"tierdrive/internal/domain"
)

// Storage определяет интерфейс хранилища объектов, которое потребляет ядро.
// Каждый вызов атомарен со стороны бекенда: он либо успешен, либо чисто
// падает, промежуточных состояний объекта не бывает.
type Storage interface {
	Put(ctx context.Context, key string, data []byte, class domain.StorageClass) error
	Delete(ctx context.Context, key string) error
	ChangeStorageClass(ctx context.Context, key string, class domain.StorageClass) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
