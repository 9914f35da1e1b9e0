package s3

import (
	"context"
	"log"
	"time"

	"tierdrive/internal/domain"
)

// RetryPolicy — явная политика повторов на границе с хранилищем объектов.
// Повторяются только ошибки вида BackendUnavailable; остальные виды
// терминальны и отдаются сразу.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy возвращает политику по умолчанию
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}
}

// Do выполняет fn с повторами по политике. Задержка удваивается после
// каждой неудачной попытки, но не превышает MaxDelay.
func (p RetryPolicy) Do(ctx context.Context, operation string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	delay := p.BaseDelay
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !domain.Retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		log.Printf("[S3] %s failed (attempt %d/%d), retrying in %v: %v",
			operation, attempt, attempts, delay, err)

		select {
		case <-ctx.Done():
			return domain.BackendUnavailable(operation, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return err
}
