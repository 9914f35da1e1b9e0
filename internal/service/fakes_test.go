package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"tierdrive/internal/domain"
)

// fakeClock отдаёт фиксированное время
type fakeClock struct {
	now time.Time
}

func (c fakeClock) Now() time.Time { return c.now }

// fakeCatalogStore держит каталоги в памяти. Документ проходит через
// JSON-кодирование при каждой записи, как и в настоящем хранилище.
type fakeCatalogStore struct {
	mu         sync.Mutex
	catalogs   map[string][]byte
	activities []domain.BillingActivity
	writes     int
	failWith   error
	failOwners map[string]error
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{catalogs: make(map[string][]byte)}
}

func (s *fakeCatalogStore) load(ownerID string) (*domain.Catalog, error) {
	cat := &domain.Catalog{}
	if raw, ok := s.catalogs[ownerID]; ok {
		if err := json.Unmarshal(raw, cat); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

func (s *fakeCatalogStore) WithCatalog(ctx context.Context, ownerID string, fn func(cat *domain.Catalog) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWith != nil {
		return s.failWith
	}
	if err, ok := s.failOwners[ownerID]; ok {
		return err
	}

	cat, err := s.load(ownerID)
	if err != nil {
		return err
	}
	if err := fn(cat); err != nil {
		return err
	}
	raw, err := json.Marshal(cat)
	if err != nil {
		return err
	}
	s.catalogs[ownerID] = raw
	s.writes++
	return nil
}

func (s *fakeCatalogStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *fakeCatalogStore) ReadCatalog(ctx context.Context, ownerID string) (*domain.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWith != nil {
		return nil, s.failWith
	}
	if err, ok := s.failOwners[ownerID]; ok {
		return nil, err
	}
	return s.load(ownerID)
}

func (s *fakeCatalogStore) ListOwners(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owners := make([]string, 0, len(s.catalogs))
	for owner := range s.catalogs {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	return owners, nil
}

func (s *fakeCatalogStore) AppendBillingActivity(ctx context.Context, activity *domain.BillingActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	activity.ID = int64(len(s.activities) + 1)
	activity.CreatedAt = time.Now()
	s.activities = append(s.activities, *activity)
	return nil
}

func (s *fakeCatalogStore) ListBillingActivities(ctx context.Context, ownerID string) ([]domain.BillingActivity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.BillingActivity
	for _, act := range s.activities {
		if act.OwnerID == ownerID {
			out = append(out, act)
		}
	}
	return out, nil
}

// fakeStorage записывает обращения к объектному хранилищу
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string]domain.StorageClass
	deleted []string
	changed []string

	putErr    error
	changeErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string]domain.StorageClass)}
}

func (s *fakeStorage) Put(ctx context.Context, key string, data []byte, class domain.StorageClass) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.putErr != nil {
		return s.putErr
	}
	s.objects[key] = class
	return nil
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeStorage) ChangeStorageClass(ctx context.Context, key string, class domain.StorageClass) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.changeErr != nil {
		return s.changeErr
	}
	if _, ok := s.objects[key]; !ok {
		return domain.NotFound("object", key)
	}
	s.objects[key] = class
	s.changed = append(s.changed, key)
	return nil
}

func (s *fakeStorage) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; !ok {
		return "", domain.NotFound("object", key)
	}
	return fmt.Sprintf("https://storage.example.net/%s?expires=%d", key, int(ttl.Seconds())), nil
}

func (s *fakeStorage) classOf(key string) (domain.StorageClass, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	class, ok := s.objects[key]
	return class, ok
}
