// Package utils provides common utility functions for the locafix application.
// It includes file-system helpers (atomic writes, extension swapping, path segment
// checks) and value conversion used by the HTTP layer, i.e. shared logic that doesn't
// fit into domain-specific packages.
package utils
