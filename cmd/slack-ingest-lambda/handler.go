package main

import (
	"context"
	"errors"
	"os"
	"time"

	ingest "github.com/slacklake/slack-ingest"
)

func handler(ctx context.Context, req *ingestRequest) (string, error) {
	conf, err := makeConfig(req)
	if err != nil {
		return "internal server error", err
	}

	if err := ingest.Run(ctx, conf); err != nil {
		var partial *ingest.PartialFailureError
		if errors.As(err, &partial) {
			return err.Error(), err
		}
		return "internal server error", err
	}

	return "success", nil
}

func makeConfig(req *ingestRequest) (*ingest.Config, error) {
	oldestUT := req.OldestUT
	latestUT := req.LatestUT

	// Without an explicit window this is the regular daily run:
	// yesterday's local midnight through today's.
	if oldestUT == 0 || latestUT == 0 {
		now := time.Now()
		startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		latestUT = float64(startOfToday.Unix())
		oldestUT = float64(startOfToday.AddDate(0, 0, -1).Unix())
	}

	conf := &ingest.Config{
		Oldest:   ingest.EpochTime(oldestUT),
		Latest:   ingest.EpochTime(latestUT),
		OutRoot:  os.TempDir(),
		S3Bucket: req.BucketName,
	}
	if req.SlackToken != "" {
		conf.SlackToken = req.SlackToken
	} else {
		conf.SlackToken = os.Getenv("SLACK_BOT_TOKEN")
	}
	return conf, nil
}
