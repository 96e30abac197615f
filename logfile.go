package ingest

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const ingestLogTimeFormat = "2006-01-02T15:04:05.0000"

// IngestLog is the per-batch append-only log file. Lines are written
// through a slog text handler, mirrored to a secondary writer
// (normally stderr) so the operator sees progress live.
type IngestLog struct {
	file   *os.File
	out    io.Writer
	logger *slog.Logger
}

func OpenIngestLog(dir string, startedAt time.Time, mirror io.Writer) (*IngestLog, error) {
	name := fmt.Sprintf("ingest_log_at_%s", startedAt.Format(ingestLogTimeFormat))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open ingest log: %w", err)
	}

	var w io.Writer = f
	if mirror != nil {
		w = io.MultiWriter(f, mirror)
	}
	return &IngestLog{
		file:   f,
		out:    w,
		logger: slog.New(slog.NewTextHandler(w, nil)),
	}, nil
}

func (l *IngestLog) Logger() *slog.Logger { return l.logger }

// Write appends raw bytes past the slog handler, for the rendered
// batch report tail.
func (l *IngestLog) Write(p []byte) (int, error) { return l.out.Write(p) }

func (l *IngestLog) Path() string { return l.file.Name() }

func (l *IngestLog) Close() error { return l.file.Close() }
