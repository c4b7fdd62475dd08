package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Uploader distributes CSV exports to an S3 bucket where campaign
// tooling picks them up.
type S3Uploader struct {
	client *s3.Client
	bucket string
}

// NewS3Uploader builds an uploader from the default AWS config chain,
// optionally pinned to a shared-config profile.
func NewS3Uploader(ctx context.Context, bucket, region, profile string) (*S3Uploader, error) {
	var cfg aws.Config
	var err error

	if profile != "" {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
			awsconfig.WithSharedConfigProfile(profile),
		)
	} else {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &S3Uploader{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

// Upload stores a CSV export under exports/<segment>/<timestamp>.csv
// and returns the object key.
func (u *S3Uploader) Upload(ctx context.Context, segmentName string, body []byte) (string, error) {
	key := fmt.Sprintf("exports/%s/%s.csv", segmentName, time.Now().UTC().Format("20060102T150405Z"))

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", fmt.Errorf("uploading export to s3: %w", err)
	}

	return key, nil
}
