package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appcfg "hackathon-scoreboard/internal/config"
	"hackathon-scoreboard/internal/teams"
)

type Client struct {
	s3     *s3.Client
	bucket string
	log    *slog.Logger
}

// New builds a client for the configured bucket. A non-empty endpoint
// points the SDK at a MinIO style server instead of AWS.
func New(ctx context.Context, c appcfg.S3Config, log *slog.Logger) (*Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
	if c.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")))
	}
	if c.Endpoint != "" {
		endpoint := c.Endpoint
		if !strings.Contains(endpoint, "://") {
			endpoint = "http://" + endpoint
		}
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{URL: endpoint, HostnameImmutable: true}, nil
		})
		opts = append(opts, config.WithEndpointResolverWithOptions(resolver))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Client{s3: s3.NewFromConfig(cfg), bucket: c.Bucket, log: log}, nil
}

func ReportKey(id string) string   { return fmt.Sprintf("reports/%s.txt", id) }
func SnapshotKey(id string) string { return fmt.Sprintf("snapshots/%s.csv", id) }

// Put uploads body under key and returns its s3:// reference.
func (c *Client) Put(ctx context.Context, key, contentType string, body []byte) (string, error) {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &c.bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	ref := fmt.Sprintf("s3://%s/%s", c.bucket, key)
	c.log.Debug("s3_object_stored", "ref", ref, "bytes", len(body))
	return ref, nil
}

func (c *Client) PutReport(ctx context.Context, id, text string) (string, error) {
	return c.Put(ctx, ReportKey(id), "text/plain; charset=utf-8", []byte(text))
}

// PutSnapshot stores the teams in the same delimited format the registry
// saves locally.
func (c *Client) PutSnapshot(ctx context.Context, id string, ts []teams.Team) (string, error) {
	var buf bytes.Buffer
	if err := teams.WriteRecords(&buf, ts); err != nil {
		return "", err
	}
	return c.Put(ctx, SnapshotKey(id), "text/csv", buf.Bytes())
}

func parseS3Ref(ref string) (string, string, error) {
	const p = "s3://"
	if !strings.HasPrefix(ref, p) {
		return "", "", fmt.Errorf("bad s3 ref (missing s3://): %q", ref)
	}
	s := strings.TrimPrefix(ref, p)
	slash := strings.IndexByte(s, '/')
	if slash <= 0 || slash == len(s)-1 {
		return "", "", fmt.Errorf("bad s3 ref (need bucket/key): %q", ref)
	}
	return s[:slash], s[slash+1:], nil
}

// Get downloads the object behind an s3:// reference.
func (c *Client) Get(ctx context.Context, ref string) ([]byte, error) {
	bucket, key, err := parseS3Ref(ref)
	if err != nil {
		return nil, err
	}
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		c.log.Warn("s3_get_failed", "ref", ref, "err", err)
		return nil, err
	}
	defer out.Body.Close()
	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}
	return b, nil
}
