package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// schemaStatements creates every table if absent. Column changes never go
// here; the migrator below handles those additively.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS integration_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		matricula VARCHAR(32),
		nome VARCHAR(128) NOT NULL,
		setor VARCHAR(64) NOT NULL,
		integracao VARCHAR(32) NOT NULL,
		supervisor VARCHAR(128) NOT NULL,
		turno VARCHAR(32) NOT NULL,
		cargo VARCHAR(64) NOT NULL,
		data TEXT,
		observacao TEXT,
		submitted_at DATETIME NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS occurrence_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		matricula VARCHAR(32),
		nome VARCHAR(128) NOT NULL,
		setor VARCHAR(64) NOT NULL,
		cargo VARCHAR(64) NOT NULL,
		turno VARCHAR(32) NOT NULL,
		supervisor VARCHAR(128) NOT NULL,
		motivo VARCHAR(64),
		grau INTEGER,
		grau_label VARCHAR(128),
		volumes INTEGER,
		observacao TEXT,
		created_at DATETIME NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS config_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scope VARCHAR(32) NOT NULL,
		key VARCHAR(32) NOT NULL,
		value VARCHAR(128) NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL
	);`,
}

// columnDef declares one column the current record shape expects.
// The DDL must be NULL-able: the migrator only ever adds columns, it
// never backfills, renames, or retypes.
type columnDef struct {
	name string
	ddl  string
}

// migrations lists, per table, columns that older databases may lack.
// Tables created by schemaStatements already include all of these; the
// entries exist so a store written by an earlier release gains them on
// startup without data loss.
var migrations = map[string][]columnDef{
	"integration_records": {
		{name: "data", ddl: "ALTER TABLE integration_records ADD COLUMN data TEXT"},
		{name: "observacao", ddl: "ALTER TABLE integration_records ADD COLUMN observacao TEXT"},
	},
	"occurrence_records": {
		{name: "motivo", ddl: "ALTER TABLE occurrence_records ADD COLUMN motivo VARCHAR(64)"},
		{name: "grau_label", ddl: "ALTER TABLE occurrence_records ADD COLUMN grau_label VARCHAR(128)"},
		{name: "volumes", ddl: "ALTER TABLE occurrence_records ADD COLUMN volumes INTEGER"},
		{name: "observacao", ddl: "ALTER TABLE occurrence_records ADD COLUMN observacao TEXT"},
	},
}

// createSchema executes the create-if-absent statements in one transaction.
func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema setup: %w", err)
	}
	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute schema statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema setup: %w", err)
	}
	return nil
}

// Migrate inspects each live table and adds any declared column the
// stored shape lacks. Safe to run on every startup: existing columns and
// rows are never touched.
func (s *Store) Migrate(ctx context.Context) error {
	for table, cols := range migrations {
		existing, err := s.tableColumns(ctx, table)
		if err != nil {
			return err
		}
		for _, col := range cols {
			if existing[col.name] {
				continue
			}
			if _, err := s.db.ExecContext(ctx, col.ddl); err != nil {
				return fmt.Errorf("add column %s.%s: %w", table, col.name, err)
			}
			slog.Info("schema migrated", "table", table, "column", col.name)
		}
	}
	return nil
}

// tableColumns returns the set of column names currently stored for table.
func (s *Store) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := s.db.QueryxContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("inspect table %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var info struct {
			Cid       int            `db:"cid"`
			Name      string         `db:"name"`
			Type      string         `db:"type"`
			NotNull   int            `db:"notnull"`
			DfltValue sql.NullString `db:"dflt_value"`
			Pk        int            `db:"pk"`
		}
		if err := rows.StructScan(&info); err != nil {
			return nil, fmt.Errorf("scan table info for %s: %w", table, err)
		}
		cols[info.Name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read table info for %s: %w", table, err)
	}
	return cols, nil
}
