package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the interview_reports table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS interview_reports (
    id          TEXT PRIMARY KEY,
    session_id  TEXT NOT NULL,
    role        TEXT NOT NULL DEFAULT '',
    role_phrase TEXT NOT NULL DEFAULT '',
    label       TEXT NOT NULL DEFAULT '',
    reason      TEXT NOT NULL DEFAULT '',
    scores      JSONB NOT NULL DEFAULT '{}',
    feedback    TEXT NOT NULL DEFAULT '',
    transcript  JSONB NOT NULL DEFAULT '[]',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_interview_reports_session ON interview_reports(session_id);
CREATE INDEX IF NOT EXISTS idx_interview_reports_created ON interview_reports(created_at);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database. The scores and
// transcript sub-fields are serialised as JSONB.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new [PostgresStore] that uses the given database
// connection or pool. The caller is responsible for calling
// [PostgresStore.Migrate] to ensure the schema exists before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL against the database, creating the
// interview_reports table and indexes if they do not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, Schema)
	if err != nil {
		return fmt.Errorf("report: migrate: %w", err)
	}
	return nil
}

// Save inserts a report. A missing ID is assigned a fresh UUID; the report's
// CreatedAt field is populated from the database on success.
func (s *PostgresStore) Save(ctx context.Context, r *Report) error {
	if r.SessionID == "" {
		return errors.New("report: save: session ID is required")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	scoresJSON, err := json.Marshal(r.Scores)
	if err != nil {
		return fmt.Errorf("report: marshal scores: %w", err)
	}
	transcriptJSON, err := json.Marshal(emptySlice(r.Transcript))
	if err != nil {
		return fmt.Errorf("report: marshal transcript: %w", err)
	}

	const query = `
		INSERT INTO interview_reports (
			id, session_id, role, role_phrase, label, reason,
			scores, feedback, transcript
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at`

	err = s.db.QueryRow(ctx, query,
		r.ID, r.SessionID, r.Role, r.RolePhrase, r.Label, r.Reason,
		scoresJSON, r.Feedback, transcriptJSON,
	).Scan(&r.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("report: report with id %q already exists", r.ID)
		}
		return fmt.Errorf("report: save: %w", err)
	}
	return nil
}

// Get retrieves a report by ID. It returns (nil, nil) if no report with the
// given ID exists.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Report, error) {
	const query = `
		SELECT id, session_id, role, role_phrase, label, reason,
		       scores, feedback, transcript, created_at
		FROM interview_reports
		WHERE id = $1`

	r, err := scanReport(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("report: get %q: %w", id, err)
	}
	return r, nil
}

// ListBySession returns all reports for a session, oldest first.
func (s *PostgresStore) ListBySession(ctx context.Context, sessionID string) ([]Report, error) {
	const query = `
		SELECT id, session_id, role, role_phrase, label, reason,
		       scores, feedback, transcript, created_at
		FROM interview_reports
		WHERE session_id = $1
		ORDER BY created_at`

	rows, err := s.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("report: list session %q: %w", sessionID, err)
	}
	return collectReports(rows)
}

// ListRecent returns the most recent reports, newest first, up to limit.
// A non-positive limit defaults to 20.
func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Report, error) {
	if limit <= 0 {
		limit = 20
	}

	const query = `
		SELECT id, session_id, role, role_phrase, label, reason,
		       scores, feedback, transcript, created_at
		FROM interview_reports
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("report: list recent: %w", err)
	}
	return collectReports(rows)
}

// Ping verifies database connectivity; it backs the readiness probe.
func (s *PostgresStore) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("report: ping: %w", err)
	}
	return nil
}

func collectReports(rows pgx.Rows) ([]Report, error) {
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("report: list scan: %w", err)
		}
		reports = append(reports, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("report: list: %w", err)
	}
	return reports, nil
}

// scanReport reads one row in the canonical column order and deserialises the
// JSONB columns.
func scanReport(row pgx.Row) (*Report, error) {
	var r Report
	var scoresJSON, transcriptJSON []byte

	if err := row.Scan(
		&r.ID, &r.SessionID, &r.Role, &r.RolePhrase, &r.Label, &r.Reason,
		&scoresJSON, &r.Feedback, &transcriptJSON, &r.CreatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(scoresJSON, &r.Scores); err != nil {
		return nil, fmt.Errorf("unmarshal scores: %w", err)
	}
	if err := json.Unmarshal(transcriptJSON, &r.Transcript); err != nil {
		return nil, fmt.Errorf("unmarshal transcript: %w", err)
	}
	return &r, nil
}

// emptySlice normalises nil to an empty slice so JSONB columns never store
// SQL NULL or the JSON null literal.
func emptySlice(s []Turn) []Turn {
	if s == nil {
		return []Turn{}
	}
	return s
}

// isDuplicateKeyError reports whether err is a PostgreSQL unique-constraint
// violation (SQLSTATE 23505).
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
