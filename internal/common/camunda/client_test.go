package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-chatbot/internal/common/errors"
)

var fastRetry = &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

func TestExecuteWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		failures  []error
		wantCalls int
		wantCode  errors.ErrorCode
	}{
		{name: "succeeds first time", wantCalls: 1},
		{
			name:      "retries transient failure",
			failures:  []error{stderrors.New("rpc error: code = Unavailable")},
			wantCalls: 2,
		},
		{
			name:      "gives up after max retries",
			failures:  []error{stderrors.New("connection refused"), stderrors.New("connection refused"), stderrors.New("connection refused")},
			wantCalls: 3,
			wantCode:  errors.ErrCodeLookupFailed,
		},
		{
			name:      "does not retry permanent failure",
			failures:  []error{stderrors.New("NOT_FOUND: job 1 not found")},
			wantCalls: 1,
			wantCode:  errors.ErrCodeLookupFailed,
		},
		{
			name:      "deadline maps to timeout",
			failures:  []error{stderrors.New("context deadline exceeded"), stderrors.New("context deadline exceeded"), stderrors.New("context deadline exceeded")},
			wantCalls: 3,
			wantCode:  errors.ErrCodeLookupTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			result, err := executeWithRetry(context.Background(), fastRetry, func(context.Context) (interface{}, error) {
				calls++
				if calls <= len(tt.failures) {
					return nil, tt.failures[calls-1]
				}
				return "ok", nil
			}, "topology")

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, "ok", result)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.wantCode), err.Error())
		})
	}
}

func TestExecuteWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	slow := &RetryConfig{MaxRetries: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}
	_, err := executeWithRetry(ctx, slow, func(context.Context) (interface{}, error) {
		return nil, stderrors.New("unavailable")
	}, "complete")
	assert.True(t, errors.HasCode(err, errors.ErrCodeLookupTimeout))
}

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(stderrors.New("read: connection reset by peer")))
	assert.True(t, isRetryableZeebeError(stderrors.New("Broken pipe")))
	assert.False(t, isRetryableZeebeError(stderrors.New("invalid argument")))
}
