package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder archives reviews to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS review_reports (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			date           TEXT,
			mode           TEXT,
			report         TEXT,
			index_count    INTEGER,
			news_count     INTEGER,
			leverage_ratio REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_review_ts ON review_reports(timestamp)`,

		`CREATE TABLE IF NOT EXISTS source_gaps (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			date      TEXT,
			section   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_gap_ts ON source_gaps(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordReview(rec *ReviewRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO review_reports
		(timestamp, date, mode, report, index_count, news_count, leverage_ratio)
		VALUES (?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.Date, rec.Mode, rec.Report,
		rec.IndexCount, rec.NewsCount, rec.LeverageRatio,
	)
	return err
}

func (r *SQLiteRecorder) RecordSourceGap(gap *SourceGap) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO source_gaps (timestamp, date, section) VALUES (?,?,?)`,
		time.Now().Unix(), gap.Date, gap.Section,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
