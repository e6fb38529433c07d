package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-chatbot/internal/common/config"
)

func TestNew_TracingDisabled(t *testing.T) {
	ctx := context.Background()

	obs, err := New(ctx, "support-chatbot-test", config.TracingConfig{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, obs)

	spanCtx, span := obs.StartSpan(ctx, "classify")
	assert.NotNil(t, spanCtx)
	assert.False(t, span.SpanContext().IsValid(), "disabled tracing yields no-op spans")
	span.End()

	obs.RecordMessageProcessed(ctx, "order_status", "pipeline")
	obs.RecordMessageDuration(ctx, 15*time.Millisecond, "order_status")

	assert.NoError(t, obs.Shutdown(ctx))
}

func TestNilObservability_IsSafe(t *testing.T) {
	var obs *Observability
	ctx := context.Background()

	_, span := obs.StartSpan(ctx, "format")
	span.End()
	obs.RecordMessageProcessed(ctx, "general", "pipeline")
	obs.RecordMessageDuration(ctx, time.Millisecond, "general")
	assert.NoError(t, obs.Shutdown(ctx))
}
