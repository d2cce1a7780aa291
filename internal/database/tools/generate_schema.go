// Command generate_schema applies every embedded migration to an in-memory
// database and writes the resulting schema to schema.sql. With -check it
// only reports whether schema.sql is stale.
package main

import (
	"bytes"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"folio/internal/database"
	"folio/internal/database/migrations"
)

const header = `-- This file is auto-generated from migration files.
-- DO NOT EDIT MANUALLY. Run 'go generate ./internal/database' to regenerate.
-- Source: internal/database/migrations/files/*.sql

`

// objectOrder lists the sqlite_master object types in output order.
var objectOrder = []string{"table", "index", "view", "trigger"}

func main() {
	out := flag.String("out", filepath.Join("internal", "database", "schema.sql"), "schema file to write")
	check := flag.Bool("check", false, "exit non-zero if the schema file is out of date instead of writing it")
	flag.Parse()

	if err := run(*out, *check); err != nil {
		fmt.Fprintf(os.Stderr, "generate_schema: %v\n", err)
		os.Exit(1)
	}
}

func run(out string, check bool) error {
	db, err := database.OpenConnection(":memory:")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := migrations.MigrateUp(db); err != nil {
		return fmt.Errorf("migrating: %w", err)
	}

	schema, err := extractSchema(db)
	if err != nil {
		return err
	}

	if check {
		current, err := os.ReadFile(out)
		if err != nil {
			return fmt.Errorf("reading %s: %w", out, err)
		}
		if !bytes.Equal(current, []byte(schema)) {
			return fmt.Errorf("%s is out of date; run go generate ./internal/database", out)
		}
		fmt.Printf("%s is up to date\n", out)
		return nil
	}

	if err := os.WriteFile(out, []byte(schema), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}

// extractSchema returns the CREATE statements in sqlite_master grouped by
// object type, skipping SQLite internals and the migrator's bookkeeping table.
func extractSchema(db *sql.DB) (string, error) {
	var schema strings.Builder
	schema.WriteString(header)

	for _, kind := range objectOrder {
		rows, err := db.Query(`
			SELECT sql || ';'
			FROM sqlite_master
			WHERE type = ?
			  AND sql IS NOT NULL
			  AND name NOT LIKE 'sqlite_%'
			  AND tbl_name != 'schema_migrations'
			ORDER BY name`, kind)
		if err != nil {
			return "", fmt.Errorf("listing %ss: %w", kind, err)
		}

		for rows.Next() {
			var stmt string
			if err := rows.Scan(&stmt); err != nil {
				rows.Close()
				return "", fmt.Errorf("scanning %s: %w", kind, err)
			}
			schema.WriteString(stmt)
			schema.WriteString("\n\n")
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return "", fmt.Errorf("listing %ss: %w", kind, err)
		}
	}

	return schema.String(), nil
}
