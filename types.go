package ingest

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Artifact file names inside a batch directory.
const (
	ArtifactConversationsList    = "conversations_list.json"
	ArtifactUsersList            = "users_list.json"
	ArtifactConversationsHistory = "conversations_history.json"
)

// Slack Web API endpoint names, used in log lines and reports.
const (
	EndpointConversationsList    = "conversations.list"
	EndpointUsersList            = "users.list"
	EndpointConversationsHistory = "conversations.history"
)

const lakeDirName = "slack_lake"

type Config struct {
	// Oldest and Latest bound the conversations.history window.
	// The list endpoints are not time filtered.
	Oldest time.Time
	Latest time.Time

	// OutDir is the batch directory. Empty means derived from Oldest:
	// <OutRoot>/slack_lake/daily-ingest_target-date_YYYY-MM-DD
	OutDir  string
	OutRoot string

	SlackToken string

	// S3Bucket enables mirroring artifacts and the ingest log to S3.
	S3Bucket    string
	S3KeyPrefix string

	apiURL string
}

func (conf *Config) validate() error {
	if conf.SlackToken == "" {
		return fmt.Errorf("slack token is required: pass --token or set SLACK_BOT_TOKEN")
	}
	if conf.Oldest.IsZero() || conf.Latest.IsZero() {
		return fmt.Errorf("oldest and latest timestamps are required")
	}
	if !conf.Latest.After(conf.Oldest) {
		return fmt.Errorf("latest (%d) must be after oldest (%d)", conf.Latest.Unix(), conf.Oldest.Unix())
	}
	return nil
}

// BatchDirName returns the per-day directory name for a target date.
func BatchDirName(target time.Time) string {
	return fmt.Sprintf("daily-ingest_target-date_%s", target.Format("2006-01-02"))
}

// DefaultBatchDir returns root/slack_lake/daily-ingest_target-date_YYYY-MM-DD.
func DefaultBatchDir(root string, target time.Time) string {
	return filepath.Join(root, lakeDirName, BatchDirName(target))
}

// EpochTime converts real-valued UNIX epoch seconds to time.Time.
func EpochTime(ut float64) time.Time {
	sec := int64(ut)
	nsec := int64((ut - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

// slackTimestamp formats a time the way the Slack API expects
// oldest/latest parameters: "1234567890.000000".
func slackTimestamp(t time.Time) string {
	return fmt.Sprintf("%d.%06d", t.Unix(), t.Nanosecond()/1000)
}

type EndpointResult struct {
	Endpoint string
	Pages    int
	Items    int
	Err      error
}

type BatchReport struct {
	OutDir     string
	Oldest     time.Time
	Latest     time.Time
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []*EndpointResult
}

func (r *BatchReport) FailedEndpoints() []string {
	var failed []string
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res.Endpoint)
		}
	}
	return failed
}

func (r *BatchReport) Success() bool {
	return len(r.FailedEndpoints()) == 0
}

// PartialFailureError is returned by Run when at least one endpoint
// failed while the others produced artifacts.
type PartialFailureError struct {
	Endpoints []string
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("batch finished with failed endpoints: %s", strings.Join(e.Endpoints, ", "))
}
