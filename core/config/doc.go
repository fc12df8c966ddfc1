// Package config provides configuration management for locafix.
//
// Values come from the process environment and an optional .env file, with defaults
// declared on the section structs through `default` tags. Nested keys map to upper-case
// environment variables joined by underscores (patch.backup -> PATCH_BACKUP).
//
// # Configuration Structure
//
//   - Log: logging level and format
//   - Server: HTTP port, API key and shutdown timeout
//   - Database: run journal (sqlite or MySQL)
//   - Storage: S3/MinIO report archive
//   - Catalog: element and attribute names, duplicate id policy
//   - Patch: encodings, binary extensions, VCS folders, backups
//   - Dispatch: workers, chunk size, recursion, excluded folders and ignore globs
//   - Convert: conversion tool binary, game profile and timeout
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Dispatch.Workers)
package config
