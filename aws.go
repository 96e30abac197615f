package ingest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type S3Exporter struct {
	s3Client  *s3.Client
	bucket    string
	keyPrefix string

	logger *slog.Logger
}

var _ ExporterInterface = (*S3Exporter)(nil)

func NewS3Exporter(ctx context.Context, logger *slog.Logger, bucket, keyPrefix string) (*S3Exporter, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	cfg, err := awsConfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}

	return &S3Exporter{
		s3Client:  s3.NewFromConfig(cfg),
		bucket:    bucket,
		keyPrefix: keyPrefix,
		logger:    logger,
	}, nil
}

func (e *S3Exporter) WriteArtifact(ctx context.Context, name string, data []byte) error {
	key := path.Join(e.keyPrefix, name)
	params := &s3.PutObjectInput{
		Bucket: &e.bucket,
		Key:    &key,
		Body:   bytes.NewReader(data),
	}
	if _, err := e.s3Client.PutObject(ctx, params); err != nil {
		return err
	}
	e.logger.Info("artifact uploaded", "bucket", e.bucket, "key", key, "bytes", len(data))
	return nil
}

func (e *S3Exporter) WriteLogFile(ctx context.Context, logPath string) error {
	f, err := os.Open(logPath)
	if err != nil {
		return err
	}
	defer f.Close()

	key := path.Join(e.keyPrefix, filepath.Base(logPath))
	params := &s3.PutObjectInput{
		Bucket: &e.bucket,
		Key:    &key,
		Body:   f,
	}
	if _, err := e.s3Client.PutObject(ctx, params); err != nil {
		return err
	}
	return nil
}

type ReporterInterface interface {
	Send(ctx context.Context, report *BatchReport) error
}

// SESReporter mails the rendered batch report to the operator.
type SESReporter struct {
	sesClient     *ses.Client
	configSetName string
	sourceArn     string
	maildata      *Mail

	logger *slog.Logger
}

var _ ReporterInterface = (*SESReporter)(nil)

func NewSESReporter(ctx context.Context, logger *slog.Logger,
	sesConfigSetName string, sesSourceArn string,
	from string, to []string, subject string,
) (*SESReporter, error) {
	if sesConfigSetName == "" || sesSourceArn == "" ||
		from == "" || len(to) == 0 || subject == "" {
		return nil, fmt.Errorf("sesConfigSetName, sesSourceArn, from, to and subject are required")
	}
	cfg, err := awsConfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}

	maildata := &Mail{
		From:     from,
		To:       to,
		Subject:  subject,
		Boundary: boundary(),
	}

	return &SESReporter{
		sesClient:     ses.NewFromConfig(cfg),
		configSetName: sesConfigSetName,
		sourceArn:     sesSourceArn,
		maildata:      maildata,
		logger:        logger,
	}, nil
}

func (e *SESReporter) Send(ctx context.Context, report *BatchReport) error {
	mailbody, err := toMIMEBody(report.Render(), e.maildata.Boundary)
	if err != nil {
		return err
	}
	e.maildata.Body = mailbody

	if err := e.sendMail(ctx, e.maildata); err != nil {
		return err
	}
	e.logger.Info("report mail sent", "to", e.maildata.To)
	return nil
}

func (e *SESReporter) sendMail(ctx context.Context, maildata *Mail) error {
	header := maildata.headerString()

	rawMessage := append([]byte(header), maildata.Body...)
	msg := &sestypes.RawMessage{
		Data: rawMessage,
	}

	input := &ses.SendRawEmailInput{
		ConfigurationSetName: aws.String(e.configSetName),
		SourceArn:            aws.String(e.sourceArn),

		Source:       aws.String(maildata.From),
		Destinations: maildata.To,
		RawMessage:   msg,
	}

	if _, err := e.sesClient.SendRawEmail(ctx, input); err != nil {
		return err
	}

	return nil
}
