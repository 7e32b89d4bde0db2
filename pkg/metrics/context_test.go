package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContext(t *testing.T) {
	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName("custody-test"),
		newrelic.ConfigEnabled(false),
	)
	require.NoError(t, err)

	txn := app.StartTransaction("test")
	defer txn.End()

	ctx := NewContext(context.Background(), app, txn)
	assert.Equal(t, app, ctx.Value(NewRelicContextKey))
	assert.Equal(t, txn, newrelic.FromContext(ctx))

	tracer := TraceMethodCall(ctx, "metrics", "TestNewContext")
	require.NotNil(t, tracer)
	tracer.AddAttribute("key", "value")
	tracer.End()

	RecordCount(ctx, "count", 1)
	RecordDuration(ctx, "duration", time.Second)
	RecordEvent(ctx, "event", map[string]interface{}{"key": "value"})
}

func TestWithoutNewRelic(t *testing.T) {
	ctx := context.Background()

	tracer := TraceMethodCall(ctx, "metrics", "TestWithoutNewRelic")
	assert.Nil(t, tracer)

	// Tracing and recording are no-ops without an application.
	tracer.AddAttribute("key", "value")
	tracer.OnError(context.Canceled)
	tracer.End()
	RecordCount(ctx, "count", 1)
}
