package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBatchServer mocks the three endpoints of a small workspace: two
// channels (one archived), one user, and a two-page history for the
// active channel. historyFailPage > 0 makes that history page fail.
func newBatchServer(t *testing.T, historyFailPage int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/conversations.list", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true,"channels":[{"id":"C01","name":"general"},{"id":"C02","name":"graveyard","is_archived":true}],"response_metadata":{"next_cursor":""}}`)
	})
	mux.HandleFunc("/users.list", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true,"members":[{"id":"U01","name":"alice"}],"response_metadata":{"next_cursor":""}}`)
	})
	mux.HandleFunc("/conversations.history", func(w http.ResponseWriter, r *http.Request) {
		page := 1
		if r.FormValue("cursor") == "page2" {
			page = 2
		}
		if page == historyFailPage {
			fmt.Fprint(w, `{"ok":false,"error":"internal_error"}`)
			return
		}
		if page == 1 {
			fmt.Fprint(w, `{"ok":true,"messages":[{"type":"message","user":"U01","text":"hello","ts":"1755000001.000100"}],"has_more":true,"response_metadata":{"next_cursor":"page2"}}`)
			return
		}
		fmt.Fprint(w, `{"ok":true,"messages":[{"type":"message","user":"U01","text":"bye","ts":"1755000002.000100"}],"has_more":false}`)
	})
	return httptest.NewServer(mux)
}

func newRunConfig(serverURL, outDir string) *Config {
	return &Config{
		Oldest:     time.Unix(1755000000, 0),
		Latest:     time.Unix(1755086400, 0),
		OutDir:     outDir,
		SlackToken: "xoxb-test",
		apiURL:     serverURL + "/",
	}
}

func findIngestLog(t *testing.T, dir string) string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "ingest_log_at_") {
			return filepath.Join(dir, e.Name())
		}
	}
	t.Fatalf("no ingest log in %s", dir)
	return ""
}

func TestRunWritesAllArtifacts(t *testing.T) {
	server := newBatchServer(t, 0)
	defer server.Close()

	outDir := filepath.Join(t.TempDir(), "batch")
	require.NoError(t, Run(context.Background(), newRunConfig(server.URL, outDir)))

	var channels []map[string]any
	data, err := os.ReadFile(filepath.Join(outDir, ArtifactConversationsList))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &channels))
	assert.Len(t, channels, 2)

	var users []map[string]any
	data, err = os.ReadFile(filepath.Join(outDir, ArtifactUsersList))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &users))
	assert.Len(t, users, 1)

	var messages []map[string]any
	data, err = os.ReadFile(filepath.Join(outDir, ArtifactConversationsHistory))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &messages))
	require.Len(t, messages, 2)
	for _, msg := range messages {
		assert.Equal(t, "C01", msg["channel"])
	}

	logData, err := os.ReadFile(findIngestLog(t, outDir))
	require.NoError(t, err)
	assert.Contains(t, string(logData), EndpointConversationsList)
	assert.Contains(t, string(logData), EndpointUsersList)
	assert.Contains(t, string(logData), EndpointConversationsHistory)
	assert.Contains(t, string(logData), "slack-ingest batch report")
	assert.Contains(t, string(logData), "result: success")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestRunHistoryFailureKeepsOtherArtifacts(t *testing.T) {
	server := newBatchServer(t, 2)
	defer server.Close()

	outDir := filepath.Join(t.TempDir(), "batch")
	err := Run(context.Background(), newRunConfig(server.URL, outDir))

	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []string{EndpointConversationsHistory}, partial.Endpoints)

	assert.FileExists(t, filepath.Join(outDir, ArtifactConversationsList))
	assert.FileExists(t, filepath.Join(outDir, ArtifactUsersList))
	assert.NoFileExists(t, filepath.Join(outDir, ArtifactConversationsHistory))

	logData, err := os.ReadFile(findIngestLog(t, outDir))
	require.NoError(t, err)
	assert.Contains(t, string(logData), EndpointConversationsHistory)
	assert.Contains(t, string(logData), "internal_error")
	assert.Contains(t, string(logData), "result: partial failure ("+EndpointConversationsHistory+")")
}

func TestRunOverwritesPreviousBatch(t *testing.T) {
	server := newBatchServer(t, 0)
	defer server.Close()

	outDir := filepath.Join(t.TempDir(), "batch")
	require.NoError(t, os.MkdirAll(outDir, 0755))
	stale := filepath.Join(outDir, "stale_leftover.json")
	require.NoError(t, os.WriteFile(stale, []byte("[]"), 0644))

	require.NoError(t, Run(context.Background(), newRunConfig(server.URL, outDir)))

	assert.NoFileExists(t, stale)
	assert.FileExists(t, filepath.Join(outDir, ArtifactConversationsHistory))
}

func TestRunDerivesOutDir(t *testing.T) {
	server := newBatchServer(t, 0)
	defer server.Close()

	root := t.TempDir()
	conf := newRunConfig(server.URL, "")
	conf.OutRoot = root
	require.NoError(t, Run(context.Background(), conf))

	assert.DirExists(t, DefaultBatchDir(root, conf.Oldest))
	assert.FileExists(t, filepath.Join(DefaultBatchDir(root, conf.Oldest), ArtifactUsersList))
}

func TestRunMissingTokenFailsBeforeNetwork(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	outDir := filepath.Join(t.TempDir(), "batch")
	conf := newRunConfig(server.URL, outDir)
	conf.SlackToken = ""

	err := Run(context.Background(), conf)
	require.Error(t, err)

	var partial *PartialFailureError
	assert.False(t, errors.As(err, &partial), "config error must not be a partial failure")
	assert.Equal(t, 0, requests)
	assert.NoDirExists(t, outDir)
}
