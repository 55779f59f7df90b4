// Package migrations embeds and applies the SQL schema for both storage
// backends. Migrations are idempotent and applied in lexical filename
// order on every startup.
package migrations

import "embed"

// PostgresFS embeds all PostgreSQL migration files.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds all ClickHouse migration files.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
