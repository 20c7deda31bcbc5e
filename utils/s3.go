package utils

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// MenuArchive keeps a copy of every scraped menu document in S3.
type MenuArchive struct {
	client objectPutter
	bucket string
}

func NewMenuArchive(ctx context.Context, region, bucket string) (*MenuArchive, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config for S3: %w", err)
	}
	return newMenuArchive(s3.NewFromConfig(cfg), bucket), nil
}

func newMenuArchive(client objectPutter, bucket string) *MenuArchive {
	return &MenuArchive{client: client, bucket: bucket}
}

// ArchiveKey is menus/YYYY/MM/DD/menus-<UTC timestamp>.json.
func ArchiveKey(at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("menus/%s/menus-%s.json", at.Format("2006/01/02"), at.Format("20060102T150405Z"))
}

// Put uploads body and returns the object key.
func (a *MenuArchive) Put(ctx context.Context, at time.Time, body []byte) (string, error) {
	key := ArchiveKey(at)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload menu archive to S3: %w", err)
	}
	return key, nil
}
