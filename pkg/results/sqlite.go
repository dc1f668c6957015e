package results

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"normi13qc/internal/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore keeps results of every run in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	source string
	log    *slog.Logger
}

// OpenSQLite opens or creates the database at path and migrates it.
// source is stored with every run, e.g. the analysed study directory.
func OpenSQLite(path, source string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SQLiteStore{db: db, source: source, log: logging.New("results")}
	if err := s.migrateUp(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{log: s.log}

	// m is not closed: that would close the shared database handle
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// WriteResults stores rs as a new run and returns once it is committed.
func (s *SQLiteStore) WriteResults(rs []Result) error {
	_, err := s.SaveRun(rs)
	return err
}

// SaveRun stores rs under a fresh run id.
func (s *SQLiteStore) SaveRun(rs []Result) (string, error) {
	runID := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT INTO runs (run_id, created_at, source) VALUES (?, ?, ?)`,
		runID, time.Now().UTC().Format(time.RFC3339), s.source); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO results (run_id, seq, name, category, float_value, text_value) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range rs {
		var fv sql.NullFloat64
		if r.Category == CategoryFloat {
			fv = sql.NullFloat64{Float64: r.Float, Valid: true}
		}
		if _, err := stmt.Exec(runID, i, r.Name, string(r.Category), fv, r.Text()); err != nil {
			return "", fmt.Errorf("insert result %s: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	s.log.Info("results stored", "run_id", runID, "count", len(rs))
	return runID, nil
}

// Run returns the results of one stored run in insertion order.
func (s *SQLiteStore) Run(runID string) ([]Result, error) {
	rows, err := s.db.Query(`SELECT name, category, float_value, text_value FROM results WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var (
			r    Result
			cat  string
			fv   sql.NullFloat64
			text sql.NullString
		)
		if err := rows.Scan(&r.Name, &cat, &fv, &text); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Category = Category(cat)
		switch r.Category {
		case CategoryFloat:
			r.Float = fv.Float64
		case CategoryDateTime:
			r.Time, err = time.Parse(DateTimeLayout, text.String)
			if err != nil {
				return nil, fmt.Errorf("parse datetime %s: %w", r.Name, err)
			}
		default:
			r.String = text.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// migrateLogger implements migrate.Logger
type migrateLogger struct {
	log *slog.Logger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf("[migrate] "+format, v...))
}

func (l *migrateLogger) Verbose() bool {
	return false
}
