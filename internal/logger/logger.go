package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Config logger configuration
type Config struct {
	LogDir     string     // Log directory
	Level      slog.Level // Minimum level
	MaxDays    int        // Max days to keep logs
	ConsoleOut bool       // Output to stderr as well
}

// ParseLevel maps a configured level name to a slog level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init installs the default slog logger writing to a daily rotated file.
// The returned closer releases the current log file.
func Init(cfg Config) (io.Closer, error) {
	file, err := NewRotatingFile(cfg.LogDir, cfg.MaxDays)
	if err != nil {
		return nil, err
	}

	var out io.Writer = file
	if cfg.ConsoleOut {
		out = io.MultiWriter(file, os.Stderr)
	}

	slog.SetDefault(New(out, cfg.Level))

	return file, nil
}

// New builds a logger whose records carry the attributes stored with WithAttrs.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(ContextHandler{
		Handler: slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}),
	})
}

type contextKey struct{}

// WithAttrs returns a context whose log records will include attrs.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	existing, _ := ctx.Value(contextKey{}).([]slog.Attr)
	merged := make([]slog.Attr, 0, len(existing)+len(attrs))
	merged = append(merged, existing...)
	merged = append(merged, attrs...)
	return context.WithValue(ctx, contextKey{}, merged)
}

// ContextHandler adds the attributes carried by the record's context.
type ContextHandler struct {
	slog.Handler
}

// Handle implements slog.Handler.
func (h ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(contextKey{}).([]slog.Attr); ok {
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.
func (h ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return ContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

// WithGroup implements slog.Handler.
func (h ContextHandler) WithGroup(name string) slog.Handler {
	return ContextHandler{Handler: h.Handler.WithGroup(name)}
}

var _ slog.Handler = ContextHandler{}

// RotatingFile is an io.Writer that appends to researcher-YYYY-MM-DD.log and
// keeps at most maxDays files.
type RotatingFile struct {
	mu          sync.Mutex
	logDir      string
	maxDays     int
	currentFile *os.File
	currentDate string
	now         func() time.Time
}

// NewRotatingFile creates the log directory and opens today's file.
func NewRotatingFile(logDir string, maxDays int) (*RotatingFile, error) {
	if maxDays <= 0 {
		maxDays = 7
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create log directory")
	}

	f := &RotatingFile{
		logDir:  logDir,
		maxDays: maxDays,
		now:     time.Now,
	}

	if err := f.rotateIfNeeded(); err != nil {
		return nil, err
	}

	return f, nil
}

// rotateIfNeeded must be called with mu held
func (f *RotatingFile) rotateIfNeeded() error {
	today := f.now().Format("2006-01-02")
	if f.currentDate == today && f.currentFile != nil {
		return nil
	}

	if f.currentFile != nil {
		f.currentFile.Close()
	}

	filename := filepath.Join(f.logDir, fmt.Sprintf("researcher-%s.log", today))
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(err, "failed to open log file")
	}

	f.currentFile = file
	f.currentDate = today

	f.cleanOldLogs()

	return nil
}

// cleanOldLogs removes log files beyond the newest maxDays
func (f *RotatingFile) cleanOldLogs() {
	files, err := filepath.Glob(filepath.Join(f.logDir, "researcher-*.log"))
	if err != nil {
		return
	}

	if len(files) <= f.maxDays {
		return
	}

	// File names sort by date
	sort.Strings(files)

	for i := 0; i < len(files)-f.maxDays; i++ {
		os.Remove(files[i])
	}
}

// Write implements io.Writer.
func (f *RotatingFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.rotateIfNeeded(); err != nil {
		return 0, err
	}

	return f.currentFile.Write(p)
}

// Close closes the current file.
func (f *RotatingFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.currentFile == nil {
		return nil
	}

	err := f.currentFile.Close()
	f.currentFile = nil
	f.currentDate = ""

	return err
}
