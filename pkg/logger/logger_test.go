package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/abgdnv/storefront/pkg/web"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextHandler_Handle(t *testing.T) {
	// given
	var buf bytes.Buffer
	log := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil)))
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	ctx = web.WithSessionID(ctx, "session-1")

	// when
	log.InfoContext(ctx, "hello")

	// then
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "req-1", record["request_id"])
	assert.Equal(t, "session-1", record["session_id"])
	assert.NotContains(t, record, "trace_id")
}

func TestContextHandler_WithAttrsKeepsWrapper(t *testing.T) {
	var buf bytes.Buffer
	h := NewContextHandler(slog.NewJSONHandler(&buf, nil))

	_, ok := h.WithAttrs([]slog.Attr{slog.String("component", "test")}).(*ContextHandler)
	assert.True(t, ok)
	_, ok = h.WithGroup("g").(*ContextHandler)
	assert.True(t, ok)
}
