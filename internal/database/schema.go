package database

import _ "embed"

// Schema is the SQLite schema produced by applying every migration.
// Tests apply it directly to an in-memory database.
//
//go:embed schema.sql
var Schema string
