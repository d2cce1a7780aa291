package database

// To regenerate schema.sql after adding a migration:
//   go generate ./internal/database

//go:generate sh -c "cd ../.. && go run internal/database/tools/generate_schema.go"
//
// To verify schema.sql is current without rewriting it:
//   go run internal/database/tools/generate_schema.go -check
