// Package archive publishes run reports and catalog backups to object storage.
//
// Reports are JSON documents stored under <prefix>/reports/<run id>.json and
// catalog backups under <prefix>/backups/<run id>/<file name>. Uploads are
// retried with a fixed delay. Prune keeps only the newest reports.
package archive
