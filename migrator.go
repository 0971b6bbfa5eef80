package fieldcrypt

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

const defaultBatchSize = 500

// isValidIdentifier checks if a table or column name is safe for SQL interpolation.
// Must start with letter or underscore, followed by alphanumeric/underscore.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_') {
				return false
			}
		} else {
			if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9') || r == '_') {
				return false
			}
		}
	}
	return true
}

// Migrator rewrites one column of one table so every value is an
// authenticated envelope. Rows are read in key order, batch by batch; each
// batch is encrypted on a bounded worker pool and written back in a single
// transaction. Queries use '?' placeholders (SQLite, MySQL).
type Migrator struct {
	Cipher    *Cipher
	DB        *sql.DB
	Table     string
	KeyColumn string
	Column    string

	// BatchSize is the number of rows per read and per transaction. Default 500.
	BatchSize int
	// Workers bounds concurrent encryptions. Default GOMAXPROCS.
	Workers int
	// DryRun counts what would change without writing.
	DryRun bool
}

// MigrationStats summarises a Migrator run.
type MigrationStats struct {
	Scanned  int
	Migrated int
	Skipped  int
	Failed   int
}

type migrationRow struct {
	key    any
	value  any
	stored string
	err    error
	needed bool
}

// Run migrates the column. A value that cannot be migrated is logged,
// counted in Failed and left untouched; only database and context errors
// abort the run.
func (m *Migrator) Run(ctx context.Context) (MigrationStats, error) {
	var stats MigrationStats
	for _, ident := range []string{m.Table, m.KeyColumn, m.Column} {
		if !isValidIdentifier(ident) {
			return stats, fmt.Errorf("%w: invalid SQL identifier %q", ErrConfiguration, ident)
		}
	}
	if m.Cipher == nil || m.DB == nil {
		return stats, fmt.Errorf("%w: migrator needs a cipher and a database", ErrConfiguration)
	}

	batchSize := m.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	workers := m.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	log := m.Cipher.logger.With().
		Str("table", m.Table).
		Str("column", m.Column).
		Bool("dry_run", m.DryRun).
		Logger()

	var lastKey any
	for {
		rows, err := m.readBatch(ctx, lastKey, batchSize)
		if err != nil {
			return stats, err
		}
		if len(rows) == 0 {
			break
		}
		lastKey = rows[len(rows)-1].key

		if err := m.encryptBatch(ctx, rows, workers); err != nil {
			return stats, err
		}

		updates := make([]migrationRow, 0, len(rows))
		for _, row := range rows {
			stats.Scanned++
			switch {
			case !row.needed:
				stats.Skipped++
			case row.err != nil:
				stats.Failed++
				log.Warn().Err(row.err).Interface("key", row.key).Msg("value could not be migrated")
			default:
				stats.Migrated++
				updates = append(updates, row)
			}
		}

		if !m.DryRun && len(updates) > 0 {
			if err := m.writeBatch(ctx, updates); err != nil {
				return stats, err
			}
		}
		log.Info().
			Int("batch", len(rows)).
			Int("updated", len(updates)).
			Int("scanned_total", stats.Scanned).
			Msg("migrated batch")

		if len(rows) < batchSize {
			break
		}
	}
	return stats, nil
}

func (m *Migrator) readBatch(ctx context.Context, after any, limit int) ([]migrationRow, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if after == nil {
		query := fmt.Sprintf("SELECT %s, %s FROM %s ORDER BY %s LIMIT ?",
			m.KeyColumn, m.Column, m.Table, m.KeyColumn)
		rows, err = m.DB.QueryContext(ctx, query, limit)
	} else {
		query := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s > ? ORDER BY %s LIMIT ?",
			m.KeyColumn, m.Column, m.Table, m.KeyColumn, m.KeyColumn)
		rows, err = m.DB.QueryContext(ctx, query, after, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("fieldcrypt: read %s: %w", m.Table, err)
	}
	defer rows.Close()

	var batch []migrationRow
	for rows.Next() {
		var row migrationRow
		if err := rows.Scan(&row.key, &row.value); err != nil {
			return nil, fmt.Errorf("fieldcrypt: scan %s: %w", m.Table, err)
		}
		if b, ok := row.key.([]byte); ok {
			row.key = string(b)
		}
		batch = append(batch, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fieldcrypt: read %s: %w", m.Table, err)
	}
	return batch, nil
}

// encryptBatch fills in stored/err for every row needing migration.
func (m *Migrator) encryptBatch(ctx context.Context, rows []migrationRow, workers int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range rows {
		row := &rows[i]
		if !NeedsMigration(row.value) {
			continue
		}
		row.needed = true
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row.stored, row.err = m.Cipher.UpgradeEnvelope(row.value)
			return nil
		})
	}
	return g.Wait()
}

func (m *Migrator) writeBatch(ctx context.Context, rows []migrationRow) (err error) {
	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("fieldcrypt: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?", m.Table, m.Column, m.KeyColumn)
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("fieldcrypt: prepare update: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err = stmt.ExecContext(ctx, row.stored, row.key); err != nil {
			return fmt.Errorf("fieldcrypt: update %s: %w", m.Table, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("fieldcrypt: commit: %w", err)
	}
	return nil
}
