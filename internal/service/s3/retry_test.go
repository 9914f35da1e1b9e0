package s3_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierdrive/internal/domain"
	"tierdrive/internal/service/s3"
)

func testPolicy() s3.RetryPolicy {
	return s3.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestRetryDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := testPolicy().Do(context.Background(), "put object", func() error {
		calls++
		if calls < 3 {
			return domain.BackendUnavailable("put object", errors.New("timeout"))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := testPolicy().Do(context.Background(), "put object", func() error {
		calls++
		return domain.BackendUnavailable("put object", errors.New("timeout"))
	})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindBackendUnavailable))
	assert.Equal(t, 3, calls)
}

func TestRetryDo_NonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	err := testPolicy().Do(context.Background(), "copy object", func() error {
		calls++
		return domain.NotFound("object", "drive_files/u/f/v1")
	})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
	assert.Equal(t, 1, calls)
}

func TestRetryDo_CancelledContextStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := testPolicy().Do(ctx, "put object", func() error {
		calls++
		return domain.BackendUnavailable("put object", errors.New("timeout"))
	})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindBackendUnavailable))
	assert.Equal(t, 1, calls)
}

func TestRetryDo_ZeroAttemptsStillRunsOnce(t *testing.T) {
	calls := 0
	policy := s3.RetryPolicy{}
	err := policy.Do(context.Background(), "delete object", func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
