package database

import _ "embed"

// Schema is the full schema produced by applying every migration. Tests use
// it to set up an in-memory database without running the migrator.
//
//go:embed schema.sql
var Schema string
