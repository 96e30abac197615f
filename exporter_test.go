package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalExporterWriteArtifact(t *testing.T) {
	dir := t.TempDir()
	exporter := &LocalExporter{Dir: dir, Logger: discardLogger()}

	require.NoError(t, exporter.WriteArtifact(context.Background(), ArtifactUsersList, []byte(`[{"id":"U01"}]`)))

	data, err := os.ReadFile(filepath.Join(dir, ArtifactUsersList))
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"U01"}]`, string(data))
}

func TestLocalExporterOverwrites(t *testing.T) {
	dir := t.TempDir()
	exporter := &LocalExporter{Dir: dir, Logger: discardLogger()}
	ctx := context.Background()

	require.NoError(t, exporter.WriteArtifact(ctx, ArtifactConversationsList, []byte("old")))
	require.NoError(t, exporter.WriteArtifact(ctx, ArtifactConversationsList, []byte("new")))

	data, err := os.ReadFile(filepath.Join(dir, ArtifactConversationsList))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}
