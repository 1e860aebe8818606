package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestRepoLogger_WritesCollectionAndCorrelation(t *testing.T) {
	prev := GlobalLogger
	defer func() { GlobalLogger = prev }()

	var buf bytes.Buffer
	ConfigureLogger(&buf, "debug")

	ctx := WithCorrelationID(context.Background(), "corr-1")
	NewRepoLogger("posts").LogError(ctx, errors.New("boom"), "delete")

	out := buf.String()
	assert.Contains(t, out, `"collection":"posts"`)
	assert.Contains(t, out, `"correlation_id":"corr-1"`)
	assert.Contains(t, out, `"error":"boom"`)
}

func TestRepoLogger_DisabledWritesNothing(t *testing.T) {
	prevLogger, prevConfig := GlobalLogger, Config
	defer func() { GlobalLogger, Config = prevLogger, prevConfig }()

	var buf bytes.Buffer
	ConfigureLogger(&buf, "debug")
	Config.EnableRepoLogging = false

	NewRepoLogger("posts").LogError(context.Background(), errors.New("boom"), "delete")
	assert.Empty(t, buf.String())
}

func TestLogAsyncOperationError_CarriesCorrelationID(t *testing.T) {
	prev := GlobalLogger
	defer func() { GlobalLogger = prev }()

	var buf bytes.Buffer
	ConfigureLogger(&buf, "error")

	id := GenerateCorrelationID()
	ctx := WithCorrelationID(context.Background(), id)
	LogAsyncOperationError(ctx, "like", errors.New("network unreachable"), map[string]interface{}{"post_id": "p1"})

	out := buf.String()
	assert.Contains(t, out, `"correlation_id":"`+id+`"`)
	assert.Contains(t, out, `"type":"async_error"`)
	assert.Contains(t, out, `"post_id":"p1"`)
}

func TestOutcomeAndCounters(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "error", Outcome(errors.New("x")))

	before := testutil.ToFloat64(LikeWrites.WithLabelValues("like", "ok"))
	LikeWrites.WithLabelValues("like", "ok").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(LikeWrites.WithLabelValues("like", "ok")))
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "murmur-test"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	ctx, span := TraceRepositoryMethod(context.Background(), "get", "posts")
	assert.NotNil(t, ctx)
	EndSpan(span, errors.New("ignored by noop span"))
}
