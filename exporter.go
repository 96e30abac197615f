package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
)

type ExporterInterface interface {
	WriteArtifact(ctx context.Context, name string, data []byte) error
	WriteLogFile(ctx context.Context, logPath string) error
}

type LocalExporter struct {
	Dir    string
	Logger *slog.Logger
}

var _ ExporterInterface = (*LocalExporter)(nil)

func (e *LocalExporter) WriteArtifact(ctx context.Context, name string, data []byte) error {
	path := filepath.Join(e.Dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	e.Logger.Info("artifact written", "path", path, "bytes", len(data))
	return nil
}

// WriteLogFile is a no-op: the ingest log already lives in the batch
// directory.
func (e *LocalExporter) WriteLogFile(_ context.Context, _ string) error { return nil }
