package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/slack-go/slack"
)

// Run executes one batch: the three Slack endpoints in sequence, each
// fully paginated before its artifact is written. A failed endpoint
// leaves no artifact and does not stop the remaining endpoints.
func Run(ctx context.Context, conf *Config) error {
	if err := conf.validate(); err != nil {
		return err
	}
	if conf.OutDir == "" {
		conf.OutDir = DefaultBatchDir(firstString([]string{conf.OutRoot, "."}), conf.Oldest)
	}

	// A re-run overwrites the batch: recreate the directory so no
	// stale artifacts from a previous run survive.
	if err := os.RemoveAll(conf.OutDir); err != nil {
		return fmt.Errorf("failed to reset batch directory: %w", err)
	}
	if err := os.MkdirAll(conf.OutDir, 0755); err != nil {
		return fmt.Errorf("failed to create batch directory: %w", err)
	}

	startedAt := time.Now()
	ingestLog, err := OpenIngestLog(conf.OutDir, startedAt, os.Stderr)
	if err != nil {
		return err
	}
	defer ingestLog.Close()
	logger := ingestLog.Logger()

	exporters, err := newExporters(ctx, conf, logger)
	if err != nil {
		return err
	}

	collectorConf := NewSlackCollectorConfig(conf)
	collector := NewSlackCollector(conf, collectorConf, logger)

	report := &BatchReport{
		OutDir:    conf.OutDir,
		Oldest:    conf.Oldest,
		Latest:    conf.Latest,
		StartedAt: startedAt,
	}
	logger.Info("batch started",
		"out_dir", conf.OutDir,
		"oldest", slackTimestamp(conf.Oldest),
		"latest", slackTimestamp(conf.Latest))

	channels, listRes := collector.ConversationsList(ctx)
	finishEndpoint(ctx, exporters, ArtifactConversationsList, channels, listRes)
	report.Results = append(report.Results, listRes)

	users, usersRes := collector.UsersList(ctx)
	finishEndpoint(ctx, exporters, ArtifactUsersList, users, usersRes)
	report.Results = append(report.Results, usersRes)

	var historyChannels []slack.Channel
	if listRes.Err == nil {
		historyChannels = channels
	}
	messages, historyRes := collector.ConversationsHistory(ctx, historyChannels)
	finishEndpoint(ctx, exporters, ArtifactConversationsHistory, messages, historyRes)
	report.Results = append(report.Results, historyRes)

	report.FinishedAt = time.Now()
	logger.Info("batch finished",
		"out_dir", conf.OutDir,
		"duration", report.FinishedAt.Sub(report.StartedAt).String(),
		"failed_endpoints", len(report.FailedEndpoints()))
	if _, err := ingestLog.Write(report.Render()); err != nil {
		logger.Error("report write failed", "error", err.Error())
	}

	reporter, err := newReporter(ctx, conf, logger)
	if err != nil {
		logger.Error("reporter setup failed", "error", err.Error())
	} else if reporter != nil {
		if err := reporter.Send(ctx, report); err != nil {
			logger.Error("report delivery failed", "error", err.Error())
		}
	}

	for _, exporter := range exporters {
		if err := exporter.WriteLogFile(ctx, ingestLog.Path()); err != nil {
			logger.Error("log export failed", "error", err.Error())
		}
	}

	if failed := report.FailedEndpoints(); len(failed) > 0 {
		return &PartialFailureError{Endpoints: failed}
	}
	return nil
}

// finishEndpoint serializes and writes the endpoint artifact when the
// fetch succeeded. A failed endpoint leaves no file at all.
func finishEndpoint[T any](ctx context.Context, exporters []ExporterInterface, name string, items []T, res *EndpointResult) {
	if res.Err != nil {
		return
	}
	data, err := marshalArtifact(items)
	if err != nil {
		res.Err = fmt.Errorf("failed to encode %s: %w", name, err)
		return
	}
	for _, exporter := range exporters {
		if err := exporter.WriteArtifact(ctx, name, data); err != nil {
			res.Err = fmt.Errorf("failed to write %s: %w", name, err)
			return
		}
	}
}

func marshalArtifact[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.MarshalIndent(items, "", "    ")
}

func newExporters(ctx context.Context, conf *Config, logger *slog.Logger) ([]ExporterInterface, error) {
	exporters := []ExporterInterface{
		&LocalExporter{Dir: conf.OutDir, Logger: logger},
	}

	bucket := firstString([]string{conf.S3Bucket, os.Getenv("SI_S3_BUCKET")})
	if bucket != "" {
		keyPrefix := firstString([]string{conf.S3KeyPrefix, os.Getenv("SI_S3_KEY_PREFIX")})
		s3Exporter, err := NewS3Exporter(ctx, logger, bucket, path.Join(keyPrefix, BatchDirName(conf.Oldest)))
		if err != nil {
			return nil, err
		}
		exporters = append(exporters, s3Exporter)
	}
	return exporters, nil
}

// newReporter builds the optional SES report sender. Reporting is off
// unless SI_SES_CONFIG_SET is present in the environment.
func newReporter(ctx context.Context, conf *Config, logger *slog.Logger) (ReporterInterface, error) {
	configSet := os.Getenv("SI_SES_CONFIG_SET")
	if configSet == "" {
		return nil, nil
	}
	return NewSESReporter(ctx, logger,
		configSet,
		os.Getenv("SI_SES_SOURCE_ARN"),
		os.Getenv("SI_REPORT_FROM"),
		splitList(os.Getenv("SI_REPORT_TO")),
		os.Getenv("SI_REPORT_SUBJECT"),
	)
}
