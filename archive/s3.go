// Package archive uploads run evidence (heatmap, report JSON) to S3 when a
// bucket is configured. Archival is best-effort: it never affects a run's
// outcome.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"cybershield/logging"
	"cybershield/types"
)

// Archiver wraps a narrow slice of the S3 client.
type Archiver struct {
	client *s3.Client
	bucket string
	prefix string
	logger zerolog.Logger
}

// NewFromEnv returns nil when S3_BUCKET is unset; archival is then skipped.
// Optional: S3_REGION, S3_PROFILE, S3_PREFIX, S3_USE_PATH_STYLE=true.
func NewFromEnv(ctx context.Context) *Archiver {
	logger := logging.WithComponent("archive")

	bucket := strings.TrimSpace(os.Getenv("S3_BUCKET"))
	if bucket == "" {
		return nil
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if region := strings.TrimSpace(os.Getenv("S3_REGION")); region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	if profile := strings.TrimSpace(os.Getenv("S3_PROFILE")); profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to init S3 client, archival disabled")
		return nil
	}

	pathStyle := strings.EqualFold(strings.TrimSpace(os.Getenv("S3_USE_PATH_STYLE")), "true")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = pathStyle
	})

	prefix := strings.Trim(strings.TrimSpace(os.Getenv("S3_PREFIX")), "/")
	if prefix != "" {
		prefix += "/"
	}

	return &Archiver{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

// ArchiveRun uploads the run's report JSON and heatmap image. Failures are
// logged and swallowed.
func (a *Archiver) ArchiveRun(ctx context.Context, run *types.PipelineRun, report types.Report) {
	if a == nil {
		return
	}

	uctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	payload, err := json.MarshalIndent(report, "", "  ")
	if err == nil {
		key := fmt.Sprintf("%sruns/%s/report.json", a.prefix, run.ID)
		if err := a.put(uctx, key, bytes.NewReader(payload), "application/json"); err != nil {
			a.logger.Warn().Err(err).Str("run", run.ID).Msg("report archive failed")
		}
	}

	a.putFile(uctx, run.HeatmapPath, fmt.Sprintf("%sruns/%s/heatmap.png", a.prefix, run.ID), run.ID)
	a.putFile(uctx, run.GridPath, fmt.Sprintf("%sruns/%s/grid.png", a.prefix, run.ID), run.ID)
}

func (a *Archiver) putFile(ctx context.Context, path, key, runID string) {
	if path == "" {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	if err := a.put(ctx, key, f, "image/png"); err != nil {
		a.logger.Warn().Err(err).Str("run", runID).Str("key", key).Msg("artifact archive failed")
	}
}

func (a *Archiver) put(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	return err
}
