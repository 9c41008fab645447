package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/soundprediction/pathfinder/pkg/types"
)

// LogRecord represents a single log entry for Parquet storage
type LogRecord struct {
	ID            string    `parquet:"id"`
	Timestamp     time.Time `parquet:"timestamp"`
	Level         string    `parquet:"level"`
	Message       string    `parquet:"message"`
	SessionID     string    `parquet:"session_id"`
	RequestSource string    `parquet:"request_source"`
	Entity        string    `parquet:"entity"`
	SourceFile    string    `parquet:"source_file"`
	LineNumber    int       `parquet:"line_number"`
	Attributes    string    `parquet:"attributes"` // JSON string
}

// ParquetOptions configures a ParquetHandler.
type ParquetOptions struct {
	// MinLevel is the lowest level recorded (default: error)
	MinLevel slog.Level
	// BatchSize is the number of records per file (default: 100)
	BatchSize int
}

// sink is the buffer shared by a handler and every handler derived from it.
type sink struct {
	mu        sync.Mutex
	outputDir string
	batchSize int
	buffer    []LogRecord
}

// ParquetHandler is a slog.Handler that forwards every record to the next
// handler and additionally records warnings or errors to Parquet files, for
// later analysis of failed lookups per session.
type ParquetHandler struct {
	next     slog.Handler
	sink     *sink
	minLevel slog.Level
	attrs    []slog.Attr
}

// NewParquetHandler creates a new ParquetHandler
func NewParquetHandler(next slog.Handler, outputDir string, opts *ParquetOptions) (*ParquetHandler, error) {
	if opts == nil {
		opts = &ParquetOptions{MinLevel: slog.LevelError}
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}

	return &ParquetHandler{
		next:     next,
		minLevel: opts.MinLevel,
		sink: &sink{
			outputDir: outputDir,
			batchSize: opts.BatchSize,
			buffer:    make([]LogRecord, 0, opts.BatchSize),
		},
	}, nil
}

// Enabled implements slog.Handler
func (h *ParquetHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level) || level >= h.minLevel
}

// Handle implements slog.Handler
func (h *ParquetHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.next.Enabled(ctx, r.Level) {
		if err := h.next.Handle(ctx, r); err != nil {
			return err
		}
	}

	if r.Level < h.minLevel {
		return nil
	}

	attrs := make(map[string]interface{}, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Resolve().Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		v := a.Value.Resolve().Any()
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		attrs[a.Key] = v
		return true
	})

	// Context values win over logger attributes
	sessionID := stringAttr(attrs, "session_id")
	if v, ok := ctx.Value(types.ContextKeySessionID).(string); ok {
		sessionID = v
	}
	var requestSource string
	if v, ok := ctx.Value(types.ContextKeyRequestSource).(string); ok {
		requestSource = v
	}

	attrsJSON, _ := json.Marshal(attrs)

	fs := runtime.CallersFrames([]uintptr{r.PC})
	f, _ := fs.Next()

	record := LogRecord{
		ID:            uuid.New().String(),
		Timestamp:     r.Time.UTC(),
		Level:         r.Level.String(),
		Message:       r.Message,
		SessionID:     sessionID,
		RequestSource: requestSource,
		Entity:        stringAttr(attrs, "entity"),
		SourceFile:    f.File,
		LineNumber:    f.Line,
		Attributes:    string(attrsJSON),
	}

	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()

	h.sink.buffer = append(h.sink.buffer, record)
	if len(h.sink.buffer) >= h.sink.batchSize {
		return h.sink.flush()
	}
	return nil
}

// Flush writes buffered records to a new Parquet file.
func (h *ParquetHandler) Flush() error {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	return h.sink.flush()
}

// Close flushes buffered records.
func (h *ParquetHandler) Close() error {
	return h.Flush()
}

// flush writes the current buffer to a new Parquet file
// Caller must hold the lock
func (s *sink) flush() error {
	if len(s.buffer) == 0 {
		return nil
	}

	now := time.Now()
	filename := fmt.Sprintf("lookup_errors_%s_%d.parquet", now.Format("20060102_150405"), now.UnixNano())
	path := filepath.Join(s.outputDir, filename)

	if err := parquet.WriteFile(path, s.buffer); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write telemetry parquet file: %v\n", err)
		return err
	}

	s.buffer = s.buffer[:0]
	return nil
}

// WithAttrs implements slog.Handler
func (h *ParquetHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ParquetHandler{
		next:     h.next.WithAttrs(attrs),
		sink:     h.sink,
		minLevel: h.minLevel,
		attrs:    append(append([]slog.Attr(nil), h.attrs...), attrs...),
	}
}

// WithGroup implements slog.Handler
func (h *ParquetHandler) WithGroup(name string) slog.Handler {
	return &ParquetHandler{
		next:     h.next.WithGroup(name),
		sink:     h.sink,
		minLevel: h.minLevel,
		attrs:    h.attrs,
	}
}

func stringAttr(attrs map[string]interface{}, key string) string {
	switch v := attrs[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return ""
	}
}

// ReadRecords loads every record stored under dir, for inspection tools and tests.
func ReadRecords(dir string) ([]LogRecord, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.parquet"))
	if err != nil {
		return nil, err
	}
	var out []LogRecord
	for _, file := range files {
		rows, err := parquet.ReadFile[LogRecord](file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		out = append(out, rows...)
	}
	return out, nil
}
