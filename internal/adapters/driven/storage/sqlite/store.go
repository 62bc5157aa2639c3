// Package sqlite persists fetched attendance reports so past extractions
// can be listed and re-exported without another Graph round trip.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rollcall-labs/rollcall/internal/core/domain"
	"github.com/rollcall-labs/rollcall/internal/core/ports/driven"
)

// DefaultFileName is the database file name under the rollcall data dir.
const DefaultFileName = "rollcall.db"

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id          TEXT PRIMARY KEY,
	meeting_id  TEXT NOT NULL,
	thread_id   TEXT NOT NULL,
	subject     TEXT NOT NULL DEFAULT '',
	fetched_at  TIMESTAMP NOT NULL,
	raw         BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS attendance_records (
	report_id    TEXT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
	display_name TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	joined_at    TIMESTAMP,
	left_at      TIMESTAMP,
	duration_sec INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_attendance_report ON attendance_records(report_id);
CREATE INDEX IF NOT EXISTS idx_reports_thread ON reports(thread_id);
`

// Store is a SQLite-backed report archive.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if necessary) the archive database. An empty
// path resolves to ~/.rollcall/data/rollcall.db.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		path = filepath.Join(home, ".rollcall", "data", DefaultFileName)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialise schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveReport stores a report and its attendance entries atomically.
func (s *Store) SaveReport(
	ctx context.Context, report domain.Report, entries []domain.AttendanceEntry,
) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reports (id, meeting_id, thread_id, subject, fetched_at, raw)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		report.ID, report.MeetingID, report.ThreadID, report.Subject,
		report.FetchedAt.UTC(), report.Raw,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	for _, entry := range entries {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO attendance_records (report_id, display_name, email, joined_at, left_at, duration_sec)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			report.ID, entry.DisplayName, entry.Email,
			nullTime(entry.JoinedAt), nullTime(entry.LeftAt),
			int64(entry.Duration/time.Second),
		)
		if err != nil {
			return fmt.Errorf("insert attendance record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit report: %w", err)
	}
	return nil
}

// ListReports returns all archived reports, newest first, without their
// raw payloads.
func (s *Store) ListReports(ctx context.Context) ([]domain.Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, meeting_id, thread_id, subject, fetched_at
		 FROM reports ORDER BY fetched_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.Report
	for rows.Next() {
		var r domain.Report
		if err := rows.Scan(&r.ID, &r.MeetingID, &r.ThreadID, &r.Subject, &r.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	return reports, nil
}

// GetReport returns one report with its raw payload and entries.
func (s *Store) GetReport(
	ctx context.Context, id string,
) (*domain.Report, []domain.AttendanceEntry, error) {
	var r domain.Report
	err := s.db.QueryRowContext(ctx,
		`SELECT id, meeting_id, thread_id, subject, fetched_at, raw
		 FROM reports WHERE id = ?`, id).
		Scan(&r.ID, &r.MeetingID, &r.ThreadID, &r.Subject, &r.FetchedAt, &r.Raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("report %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get report: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT display_name, email, joined_at, left_at, duration_sec
		 FROM attendance_records WHERE report_id = ? ORDER BY joined_at`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get attendance records: %w", err)
	}
	defer rows.Close()

	var entries []domain.AttendanceEntry
	for rows.Next() {
		var entry domain.AttendanceEntry
		var joined, left sql.NullTime
		var seconds int64
		if err := rows.Scan(&entry.DisplayName, &entry.Email, &joined, &left, &seconds); err != nil {
			return nil, nil, fmt.Errorf("scan attendance record: %w", err)
		}
		entry.JoinedAt = joined.Time
		entry.LeftAt = left.Time
		entry.Duration = time.Duration(seconds) * time.Second
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("get attendance records: %w", err)
	}

	return &r, entries, nil
}

// nullTime maps a zero time to NULL.
func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

var _ driven.ReportStore = (*Store)(nil)
