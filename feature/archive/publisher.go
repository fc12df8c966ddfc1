package archive

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"locafix/core/storage"

	"github.com/avast/retry-go/v4"
	"github.com/goccy/go-json"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Publisher uploads run artifacts.
type Publisher struct {
	client   storage.Client
	bucket   string
	prefix   string
	logger   *zap.Logger
	attempts uint
	delay    time.Duration
}

// Option configures a publisher.
type Option func(*Publisher)

// WithRetry overrides the upload retry policy.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(p *Publisher) {
		p.attempts = attempts
		p.delay = delay
	}
}

// NewPublisher creates a publisher writing to cfg.Bucket under cfg.Prefix.
func NewPublisher(client storage.Client, cfg storage.Config, logger *zap.Logger, opts ...Option) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Publisher{
		client:   client,
		bucket:   cfg.Bucket,
		prefix:   strings.Trim(cfg.Prefix, "/"),
		logger:   logger,
		attempts: 3,
		delay:    500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// EnsureBucket creates the bucket if it does not exist.
func (p *Publisher) EnsureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", p.bucket, err)
	}
	if exists {
		return nil
	}
	if err := p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", p.bucket, err)
	}
	p.logger.Info("created archive bucket", zap.String("bucket", p.bucket))
	return nil
}

// ReportKey returns the object key of a run report.
func (p *Publisher) ReportKey(runID string) string {
	return p.key("reports", runID+".json")
}

// PublishReport uploads report as JSON and returns its key.
func (p *Publisher) PublishReport(ctx context.Context, runID string, report any) (string, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to encode report %s: %w", runID, err)
	}
	key := p.ReportKey(runID)
	if err := p.put(ctx, key, data, "application/json"); err != nil {
		return "", err
	}
	return key, nil
}

// PublishFile uploads a local file for a run and returns its key.
func (p *Publisher) PublishFile(ctx context.Context, runID, localPath string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", localPath, err)
	}
	key := p.key("backups", runID, filepath.Base(localPath))
	if err := p.put(ctx, key, data, "application/octet-stream"); err != nil {
		return "", err
	}
	return key, nil
}

// ListReports returns report objects, newest first.
func (p *Publisher) ListReports(ctx context.Context) ([]minio.ObjectInfo, error) {
	var reports []minio.ObjectInfo
	for obj := range p.client.ListObjects(ctx, p.bucket, minio.ListObjectsOptions{
		Prefix:    p.key("reports") + "/",
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list reports: %w", obj.Err)
		}
		reports = append(reports, obj)
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].LastModified.After(reports[j].LastModified)
	})
	return reports, nil
}

// Prune deletes all but the newest keep reports and returns how many were removed.
func (p *Publisher) Prune(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	reports, err := p.ListReports(ctx)
	if err != nil {
		return 0, err
	}
	if len(reports) <= keep {
		return 0, nil
	}

	stale := reports[keep:]
	objectsCh := make(chan minio.ObjectInfo)
	go func() {
		defer close(objectsCh)
		for _, obj := range stale {
			select {
			case objectsCh <- obj:
			case <-ctx.Done():
				return
			}
		}
	}()

	removed := len(stale)
	for rErr := range p.client.RemoveObjects(ctx, p.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		removed--
		p.logger.Warn("failed to prune report", zap.String("key", rErr.ObjectName), zap.Error(rErr.Err))
	}
	return removed, nil
}

func (p *Publisher) put(ctx context.Context, key string, data []byte, contentType string) error {
	err := retry.Do(
		func() error {
			_, err := p.client.PutObject(ctx, p.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
				ContentType: contentType,
			})
			return err
		},
		retry.Context(ctx),
		retry.Attempts(p.attempts),
		retry.Delay(p.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			p.logger.Debug("retrying upload", zap.String("key", key), zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

func (p *Publisher) key(parts ...string) string {
	if p.prefix != "" {
		parts = append([]string{p.prefix}, parts...)
	}
	return path.Join(parts...)
}
