package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/soundprediction/pathfinder/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParquetHandler_RecordsWarnings(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	next := slog.NewTextHandler(&console, &slog.HandlerOptions{Level: slog.LevelInfo})

	h, err := NewParquetHandler(next, dir, &ParquetOptions{MinLevel: slog.LevelWarn})
	require.NoError(t, err)

	log := slog.New(h).With("session_id", "from-attrs")
	ctx := context.WithValue(context.Background(), types.ContextKeyRequestSource, "http")

	log.InfoContext(ctx, "exploration started")
	log.WarnContext(ctx, "lookup failed, treating entity as a leaf",
		"entity", types.Entity("http://dbpedia.org/resource/Ulm"), "error", errors.New("503"))

	sessionCtx := context.WithValue(ctx, types.ContextKeySessionID, "from-context")
	log.ErrorContext(sessionCtx, "knowledge base unreachable")

	require.NoError(t, h.Close())

	assert.Contains(t, console.String(), "exploration started")

	records, err := ReadRecords(dir)
	require.NoError(t, err)
	require.Len(t, records, 2)

	byMsg := map[string]LogRecord{}
	for _, r := range records {
		byMsg[r.Message] = r
	}

	warn := byMsg["lookup failed, treating entity as a leaf"]
	assert.Equal(t, "WARN", warn.Level)
	assert.Equal(t, "from-attrs", warn.SessionID)
	assert.Equal(t, "http", warn.RequestSource)
	assert.Equal(t, "http://dbpedia.org/resource/Ulm", warn.Entity)
	assert.Contains(t, warn.Attributes, `"error":"503"`)
	assert.NotEmpty(t, warn.ID)

	assert.Equal(t, "from-context", byMsg["knowledge base unreachable"].SessionID)
}

func TestParquetHandler_BatchFlush(t *testing.T) {
	dir := t.TempDir()
	h, err := NewParquetHandler(slog.NewTextHandler(&bytes.Buffer{}, nil), dir, &ParquetOptions{
		MinLevel:  slog.LevelError,
		BatchSize: 2,
	})
	require.NoError(t, err)

	log := slog.New(h)
	for i := 0; i < 3; i++ {
		log.Error("boom", "i", i)
	}

	records, err := ReadRecords(dir)
	require.NoError(t, err)
	assert.Len(t, records, 2, "only the full batch is on disk before Close")

	require.NoError(t, h.Close())
	records, err = ReadRecords(dir)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}
