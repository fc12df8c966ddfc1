// Package database opens the run journal database and inspects its schema.
//
// It wraps GORM and supports two drivers: sqlite (the default, a local file)
// and mysql for a shared journal across machines.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns let the journal verify, after migration,
// that the table it writes to has every column it expects. This catches a
// shared mysql journal created by an older release.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    logger.Warn("run journal disabled", zap.Error(err))
//	}
package database
