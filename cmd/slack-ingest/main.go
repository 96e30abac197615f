package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	ingest "github.com/slacklake/slack-ingest"
)

func main() {
	conf, err := parseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := ingest.Run(context.Background(), conf); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var partial *ingest.PartialFailureError
		if errors.As(err, &partial) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}

func parseFlags() (*ingest.Config, error) {
	// Credentials may live in a .env file next to the binary.
	_ = godotenv.Load()

	oldest := flag.Float64("oldest", 0, "Oldest message timestamp (UNIX epoch seconds)")
	latest := flag.Float64("latest", 0, "Latest message timestamp (UNIX epoch seconds)")
	outDir := flag.StringP("out-dir", "o", "", "Batch output directory (default: derived from the oldest timestamp)")
	outRoot := flag.String("out-root", ".", "Root directory of the slack_lake tree")
	token := flag.String("token", "", "Slack bot token (default: SLACK_BOT_TOKEN)")
	s3Bucket := flag.String("s3-bucket", "", "Mirror artifacts and log to this S3 bucket (default: SI_S3_BUCKET)")
	s3KeyPrefix := flag.String("s3-key-prefix", "", "Key prefix for uploaded objects (default: SI_S3_KEY_PREFIX)")
	flag.Parse()

	if *oldest == 0 || *latest == 0 {
		return nil, fmt.Errorf("--oldest and --latest are required")
	}

	conf := &ingest.Config{
		Oldest:      ingest.EpochTime(*oldest),
		Latest:      ingest.EpochTime(*latest),
		OutDir:      *outDir,
		OutRoot:     *outRoot,
		S3Bucket:    *s3Bucket,
		S3KeyPrefix: *s3KeyPrefix,
	}
	conf.SlackToken = firstString(*token, os.Getenv("SLACK_BOT_TOKEN"))
	if conf.SlackToken == "" {
		return nil, fmt.Errorf("slack token is required: pass --token or set SLACK_BOT_TOKEN")
	}
	return conf, nil
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
