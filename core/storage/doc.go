// Package storage provides the object storage client used to archive runs.
//
// It wraps the MinIO Go client behind a narrow interface covering the calls
// the archive makes, which works against AWS S3 and self-hosted MinIO alike
// and keeps the archive testable with the mock in core/storage/mocks.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	exists, err := client.BucketExists(ctx, cfg.Storage.Bucket)
package storage
