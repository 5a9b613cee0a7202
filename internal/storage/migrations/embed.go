package migrations

import "embed"

// PostgresFS embeds the token registry schema migrations.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds the trade log schema migrations.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
