package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"petsnapshot/internal/domain"
	"petsnapshot/internal/ports"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

const dateLayout = "2006-01-02"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS animals (
		id BIGINT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		published_at TEXT NOT NULL,
		snapshot_date TEXT NOT NULL,
		payload TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS organizations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		city TEXT NOT NULL,
		state TEXT NOT NULL,
		snapshot_date TEXT NOT NULL,
		payload TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS enriched_animals (
		animal_id BIGINT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		resolved BOOLEAN NOT NULL,
		snapshot_date TEXT NOT NULL,
		payload TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT NOT NULL,
		enriched INTEGER NOT NULL,
		unresolved INTEGER NOT NULL,
		resources TEXT NOT NULL
	)`,
}

// SQLRepository stores snapshots and run reports in SQLite or PostgreSQL.
// Rows are upserted by id, so re-running a day replaces its rows.
type SQLRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var (
	_ ports.SnapshotWriter = (*SQLRepository)(nil)
	_ ports.RunRecorder    = (*SQLRepository)(nil)
)

// OpenSQL connects with the given driver and creates missing tables.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLRepository, error) {
	builder, err := statementBuilder(driver)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		if err := ensureSQLiteDir(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if driver == DriverSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &SQLRepository{db: db, builder: builder}
	if err := repo.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// ensureSQLiteDir creates the parent directory of a file DSN.
func ensureSQLiteDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || strings.HasPrefix(path, ":memory:") {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create database dir: %w", err)
	}
	return nil
}

func statementBuilder(driver string) (sq.StatementBuilderType, error) {
	switch driver {
	case DriverSQLite:
		return sq.StatementBuilder.PlaceholderFormat(sq.Question), nil
	case DriverPostgres:
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar), nil
	default:
		return sq.StatementBuilderType{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func (r *SQLRepository) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
	}
	return nil
}

// Close releases the connection pool.
func (r *SQLRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// WriteSnapshot upserts the three record sets in one transaction.
func (r *SQLRepository) WriteSnapshot(ctx context.Context, snapshot domain.Snapshot) error {
	if r.db == nil {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.PersistenceError{Artifact: "sql", Err: fmt.Errorf("begin tx: %w", err)}
	}

	if err := r.writeRows(ctx, tx, snapshot); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return &domain.PersistenceError{Artifact: "sql", Err: fmt.Errorf("commit snapshot: %w", err)}
	}
	return nil
}

func (r *SQLRepository) writeRows(ctx context.Context, tx *sql.Tx, snapshot domain.Snapshot) error {
	date := snapshot.Date.Format(dateLayout)

	for _, animal := range snapshot.Animals {
		payload, err := json.Marshal(animal)
		if err != nil {
			return &domain.PersistenceError{Artifact: "sql:animals", Err: fmt.Errorf("marshal animal %d: %w", animal.ID, err)}
		}
		insert := r.builder.Insert("animals").
			Columns("id", "organization_id", "name", "type", "status", "published_at", "snapshot_date", "payload").
			Values(animal.ID, animal.OrganizationID, animal.Name, animal.Type, animal.Status, formatTime(animal.PublishedAt), date, string(payload)).
			Suffix(upsertSuffix("id", "organization_id", "name", "type", "status", "published_at", "snapshot_date", "payload"))
		if err := exec(ctx, tx, insert); err != nil {
			return &domain.PersistenceError{Artifact: "sql:animals", Err: fmt.Errorf("upsert animal %d: %w", animal.ID, err)}
		}
	}

	for _, org := range snapshot.Organizations {
		payload, err := json.Marshal(org)
		if err != nil {
			return &domain.PersistenceError{Artifact: "sql:organizations", Err: fmt.Errorf("marshal organization %s: %w", org.ID, err)}
		}
		insert := r.builder.Insert("organizations").
			Columns("id", "name", "city", "state", "snapshot_date", "payload").
			Values(org.ID, org.Name, org.Address.City, org.Address.State, date, string(payload)).
			Suffix(upsertSuffix("id", "name", "city", "state", "snapshot_date", "payload"))
		if err := exec(ctx, tx, insert); err != nil {
			return &domain.PersistenceError{Artifact: "sql:organizations", Err: fmt.Errorf("upsert organization %s: %w", org.ID, err)}
		}
	}

	for _, enriched := range snapshot.Enriched {
		payload, err := json.Marshal(enriched)
		if err != nil {
			return &domain.PersistenceError{Artifact: "sql:enriched_animals", Err: fmt.Errorf("marshal enriched animal %d: %w", enriched.ID, err)}
		}
		insert := r.builder.Insert("enriched_animals").
			Columns("animal_id", "organization_id", "resolved", "snapshot_date", "payload").
			Values(enriched.ID, enriched.OrganizationID, enriched.Organization.Resolved, date, string(payload)).
			Suffix(upsertSuffix("animal_id", "organization_id", "resolved", "snapshot_date", "payload"))
		if err := exec(ctx, tx, insert); err != nil {
			return &domain.PersistenceError{Artifact: "sql:enriched_animals", Err: fmt.Errorf("upsert enriched animal %d: %w", enriched.ID, err)}
		}
	}

	return nil
}

// SaveRun upserts the run report into the runs table.
func (r *SQLRepository) SaveRun(ctx context.Context, report domain.RunReport) error {
	if r.db == nil {
		return nil
	}

	resources, err := json.Marshal(report.Resources)
	if err != nil {
		return fmt.Errorf("marshal run resources: %w", err)
	}

	insert := r.builder.Insert("runs").
		Columns("id", "started_at", "finished_at", "status", "reason", "enriched", "unresolved", "resources").
		Values(report.ID, formatTime(report.StartedAt), formatTime(report.FinishedAt), string(report.Status), string(report.Reason), report.Enriched, report.Unresolved, string(resources)).
		Suffix(upsertSuffix("id", "started_at", "finished_at", "status", "reason", "enriched", "unresolved", "resources"))
	if err := exec(ctx, r.db, insert); err != nil {
		return fmt.Errorf("save run %s: %w", report.ID, err)
	}
	return nil
}

// RecentRuns returns the latest run reports, newest first.
func (r *SQLRepository) RecentRuns(ctx context.Context, limit uint64) ([]domain.RunReport, error) {
	query, args, err := r.builder.
		Select("id", "started_at", "finished_at", "status", "reason", "enriched", "unresolved", "resources").
		From("runs").
		OrderBy("started_at DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build runs query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var reports []domain.RunReport
	for rows.Next() {
		var (
			report                domain.RunReport
			startedAt, finishedAt string
			status, reason, blob  string
		)
		if err := rows.Scan(&report.ID, &startedAt, &finishedAt, &status, &reason, &report.Enriched, &report.Unresolved, &blob); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		report.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		report.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt)
		report.Status = domain.RunStatus(status)
		report.Reason = domain.Reason(reason)
		if err := json.Unmarshal([]byte(blob), &report.Resources); err != nil {
			return nil, fmt.Errorf("decode run resources: %w", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return reports, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func exec(ctx context.Context, db execer, builder sq.Sqlizer) error {
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	_, err = db.ExecContext(ctx, query, args...)
	return err
}

// upsertSuffix renders ON CONFLICT handling understood by both SQLite and
// PostgreSQL; key is the conflict column and columns are overwritten.
func upsertSuffix(key string, columns ...string) string {
	suffix := fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET ", key)
	first := true
	for _, col := range columns {
		if col == key {
			continue
		}
		if !first {
			suffix += ", "
		}
		first = false
		suffix += fmt.Sprintf("%s = excluded.%s", col, col)
	}
	return suffix
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
