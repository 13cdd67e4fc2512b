package sink

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"

	"trending_etl/internal/logger"
)

// S3Publisher uploads finished output files under
// s3://bucket/prefix/<run date>/<file name>.
type S3Publisher struct {
	uploader s3manageriface.UploaderAPI
	bucket   string
	prefix   string
	log      *logger.Logger
}

func NewS3Publisher(region, bucket, prefix string, log *logger.Logger) (*S3Publisher, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return NewS3PublisherWithUploader(s3manager.NewUploader(sess), bucket, prefix, log), nil
}

func NewS3PublisherWithUploader(up s3manageriface.UploaderAPI, bucket, prefix string, log *logger.Logger) *S3Publisher {
	return &S3Publisher{uploader: up, bucket: bucket, prefix: prefix, log: log}
}

// Key is the object key a file is published under.
func (p *S3Publisher) Key(runDate time.Time, file string) string {
	return path.Join(p.prefix, runDate.UTC().Format("2006-01-02"), filepath.Base(file))
}

// Publish uploads each output file once. SQLite outputs share one path and
// are uploaded a single time.
func (p *S3Publisher) Publish(ctx context.Context, runID string, runDate time.Time, outputs []Output) error {
	rows := map[string]int{}
	var order []string
	for _, o := range outputs {
		if _, ok := rows[o.Path]; !ok {
			order = append(order, o.Path)
		}
		rows[o.Path] += o.Rows
	}

	for _, file := range order {
		if err := p.upload(ctx, runID, runDate, file, rows[file]); err != nil {
			return err
		}
	}
	return nil
}

func (p *S3Publisher) upload(ctx context.Context, runID string, runDate time.Time, file string, records int) error {
	key := p.Key(runDate, file)
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open %s for upload: %w", file, err)
	}
	defer f.Close()

	result, err := p.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
		Body:   f,
		Metadata: map[string]*string{
			"record-count": aws.String(strconv.Itoa(records)),
			"run-id":       aws.String(runID),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	p.log.Info("uploaded to S3", "key", key, "location", result.Location)
	return nil
}
