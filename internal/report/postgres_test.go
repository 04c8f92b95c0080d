package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ---------------------------------------------------------------------------
// Test helpers — mock DB types
// ---------------------------------------------------------------------------

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error { return r.scanFunc(dest...) }

// mockRows implements pgx.Rows for testing.
type mockRows struct {
	data   [][]any
	idx    int
	err    error
	closed bool
}

func (r *mockRows) Close()                                       { r.closed = true }
func (r *mockRows) Err() error                                   { return r.err }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }

func (r *mockRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *mockRows) Scan(dest ...any) error {
	row := r.data[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: expected %d columns, got %d destinations", len(row), len(dest))
	}
	for i, v := range row {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *[]byte:
			*d = v.([]byte)
		case *time.Time:
			*d = v.(time.Time)
		default:
			return fmt.Errorf("scan: unsupported type at index %d: %T", i, dest[i])
		}
	}
	return nil
}

func (r *mockRows) Values() ([]any, error) { return nil, nil }

// mockDB implements the DB interface for testing.
type mockDB struct {
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFunc != nil {
		return m.queryRowFunc(ctx, sql, args...)
	}
	return &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, sql, args...)
	}
	return &mockRows{}, nil
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.execFunc != nil {
		return m.execFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

// reportRow builds a mockRows row in the canonical column order.
func reportRow(id, sessionID string, created time.Time) []any {
	return []any{
		id, sessionID, "software", "Software Developer", "Efficient User", "answered concisely",
		[]byte(`{"communication":8,"role_knowledge":7,"problem_solving":6,"conciseness":9}`),
		"Great interview.",
		[]byte(`[{"speaker":"ai","text":"Hello"},{"speaker":"user","text":"Hi"}]`),
		created,
	}
}

// ---------------------------------------------------------------------------
// PostgresStore tests
// ---------------------------------------------------------------------------

func TestPostgresStore_Migrate(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			execFunc: func(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
				if !strings.Contains(sql, "CREATE TABLE") {
					t.Errorf("Migrate SQL should contain CREATE TABLE, got: %s", sql)
				}
				return pgconn.CommandTag{}, nil
			},
		}
		store := NewPostgresStore(db)
		if err := store.Migrate(context.Background()); err != nil {
			t.Fatalf("Migrate() unexpected error: %v", err)
		}
	})

	t.Run("error", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			execFunc: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
				return pgconn.CommandTag{}, errors.New("connection refused")
			},
		}
		store := NewPostgresStore(db)
		err := store.Migrate(context.Background())
		if err == nil {
			t.Fatal("Migrate() expected error, got nil")
		}
		if !strings.Contains(err.Error(), "report: migrate:") {
			t.Errorf("error = %q, want prefix 'report: migrate:'", err.Error())
		}
	})
}

func TestPostgresStore_Save(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var capturedSQL string
		var capturedArgs []any

		db := &mockDB{
			queryRowFunc: func(_ context.Context, sql string, args ...any) pgx.Row {
				capturedSQL = sql
				capturedArgs = args
				return &mockRow{
					scanFunc: func(dest ...any) error {
						*(dest[0].(*time.Time)) = fixedTime
						return nil
					},
				}
			},
		}

		store := NewPostgresStore(db)
		r := &Report{
			SessionID: "sess-1",
			Role:      "software",
			Label:     "Efficient User",
			Scores:    Scores{Communication: 8, RoleKnowledge: 7, ProblemSolving: 6, Conciseness: 9},
			Feedback:  "Great interview.",
			Transcript: []Turn{
				{Speaker: "ai", Text: "Hello"},
				{Speaker: "user", Text: "Hi"},
			},
		}

		if err := store.Save(context.Background(), r); err != nil {
			t.Fatalf("Save() unexpected error: %v", err)
		}

		if !strings.Contains(capturedSQL, "INSERT INTO interview_reports") {
			t.Errorf("SQL should contain INSERT, got: %s", capturedSQL)
		}
		if len(capturedArgs) != 9 {
			t.Errorf("expected 9 args, got %d", len(capturedArgs))
		}
		if r.ID == "" {
			t.Error("Save() did not assign an ID")
		}
		if capturedArgs[1] != "sess-1" {
			t.Errorf("session_id arg = %v, want 'sess-1'", capturedArgs[1])
		}
		if r.CreatedAt != fixedTime {
			t.Errorf("CreatedAt = %v, want %v", r.CreatedAt, fixedTime)
		}
	})

	t.Run("missing session ID", func(t *testing.T) {
		t.Parallel()
		store := NewPostgresStore(&mockDB{})
		err := store.Save(context.Background(), &Report{})
		if err == nil {
			t.Fatal("Save() expected error, got nil")
		}
		if !strings.Contains(err.Error(), "session ID is required") {
			t.Errorf("error = %q, want session ID error", err.Error())
		}
	})

	t.Run("duplicate key", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &mockRow{
					scanFunc: func(_ ...any) error {
						return &pgconn.PgError{Code: "23505"}
					},
				}
			},
		}
		store := NewPostgresStore(db)
		err := store.Save(context.Background(), &Report{ID: "dup", SessionID: "sess-1"})
		if err == nil {
			t.Fatal("Save() expected duplicate error, got nil")
		}
		if !strings.Contains(err.Error(), "already exists") {
			t.Errorf("error = %q, want 'already exists'", err.Error())
		}
	})

	t.Run("db error", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &mockRow{
					scanFunc: func(_ ...any) error {
						return errors.New("connection lost")
					},
				}
			},
		}
		store := NewPostgresStore(db)
		err := store.Save(context.Background(), &Report{SessionID: "sess-1"})
		if err == nil {
			t.Fatal("Save() expected error, got nil")
		}
		if !strings.Contains(err.Error(), "report: save:") {
			t.Errorf("error = %q, want prefix 'report: save:'", err.Error())
		}
	})

	t.Run("preserves explicit ID", func(t *testing.T) {
		t.Parallel()
		var capturedArgs []any
		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, args ...any) pgx.Row {
				capturedArgs = args
				return &mockRow{
					scanFunc: func(dest ...any) error {
						*(dest[0].(*time.Time)) = fixedTime
						return nil
					},
				}
			},
		}
		store := NewPostgresStore(db)
		r := &Report{ID: "fixed-id", SessionID: "sess-1"}
		if err := store.Save(context.Background(), r); err != nil {
			t.Fatalf("Save() unexpected error: %v", err)
		}
		if capturedArgs[0] != "fixed-id" {
			t.Errorf("id arg = %v, want 'fixed-id'", capturedArgs[0])
		}
	})
}

func TestPostgresStore_Get(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, args ...any) pgx.Row {
				if args[0] != "rep-1" {
					t.Errorf("Get() id = %v, want 'rep-1'", args[0])
				}
				return &mockRow{
					scanFunc: func(dest ...any) error {
						row := reportRow("rep-1", "sess-1", fixedTime)
						for i, v := range row {
							switch d := dest[i].(type) {
							case *string:
								*d = v.(string)
							case *[]byte:
								*d = v.([]byte)
							case *time.Time:
								*d = v.(time.Time)
							}
						}
						return nil
					},
				}
			},
		}

		store := NewPostgresStore(db)
		r, err := store.Get(context.Background(), "rep-1")
		if err != nil {
			t.Fatalf("Get() unexpected error: %v", err)
		}
		if r == nil {
			t.Fatal("Get() returned nil report")
		}
		if r.SessionID != "sess-1" {
			t.Errorf("SessionID = %q, want 'sess-1'", r.SessionID)
		}
		if r.Scores.Communication != 8 || r.Scores.Conciseness != 9 {
			t.Errorf("Scores = %+v", r.Scores)
		}
		if len(r.Transcript) != 2 || r.Transcript[0].Speaker != "ai" {
			t.Errorf("Transcript = %+v", r.Transcript)
		}
		if r.CreatedAt != fixedTime {
			t.Errorf("CreatedAt = %v, want %v", r.CreatedAt, fixedTime)
		}
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		store := NewPostgresStore(&mockDB{})
		r, err := store.Get(context.Background(), "missing")
		if err != nil {
			t.Fatalf("Get() unexpected error: %v", err)
		}
		if r != nil {
			t.Errorf("Get() = %+v, want nil for missing report", r)
		}
	})

	t.Run("db error", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &mockRow{
					scanFunc: func(_ ...any) error { return errors.New("timeout") },
				}
			},
		}
		store := NewPostgresStore(db)
		_, err := store.Get(context.Background(), "rep-1")
		if err == nil {
			t.Fatal("Get() expected error, got nil")
		}
	})
}

func TestPostgresStore_ListBySession(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	t.Run("returns rows and closes", func(t *testing.T) {
		t.Parallel()

		rows := &mockRows{data: [][]any{
			reportRow("rep-1", "sess-1", fixedTime),
			reportRow("rep-2", "sess-1", fixedTime.Add(time.Minute)),
		}}
		db := &mockDB{
			queryFunc: func(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
				if args[0] != "sess-1" {
					t.Errorf("session arg = %v, want 'sess-1'", args[0])
				}
				return rows, nil
			},
		}

		store := NewPostgresStore(db)
		got, err := store.ListBySession(context.Background(), "sess-1")
		if err != nil {
			t.Fatalf("ListBySession() unexpected error: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d reports, want 2", len(got))
		}
		if got[0].ID != "rep-1" || got[1].ID != "rep-2" {
			t.Errorf("IDs = %q, %q", got[0].ID, got[1].ID)
		}
		if !rows.closed {
			t.Error("rows were not closed")
		}
	})

	t.Run("query error", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryFunc: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
				return nil, errors.New("connection refused")
			},
		}
		store := NewPostgresStore(db)
		_, err := store.ListBySession(context.Background(), "sess-1")
		if err == nil {
			t.Fatal("ListBySession() expected error, got nil")
		}
	})

	t.Run("rows error", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryFunc: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
				return &mockRows{err: errors.New("read interrupted")}, nil
			},
		}
		store := NewPostgresStore(db)
		_, err := store.ListBySession(context.Background(), "sess-1")
		if err == nil {
			t.Fatal("ListBySession() expected error, got nil")
		}
	})
}

func TestPostgresStore_ListRecent(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	t.Run("applies limit", func(t *testing.T) {
		t.Parallel()

		var capturedArgs []any
		db := &mockDB{
			queryFunc: func(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
				capturedArgs = args
				if !strings.Contains(sql, "ORDER BY created_at DESC") {
					t.Errorf("SQL should order newest first, got: %s", sql)
				}
				return &mockRows{data: [][]any{reportRow("rep-1", "sess-1", fixedTime)}}, nil
			},
		}

		store := NewPostgresStore(db)
		got, err := store.ListRecent(context.Background(), 5)
		if err != nil {
			t.Fatalf("ListRecent() unexpected error: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("got %d reports, want 1", len(got))
		}
		if capturedArgs[0] != 5 {
			t.Errorf("limit arg = %v, want 5", capturedArgs[0])
		}
	})

	t.Run("defaults non-positive limit", func(t *testing.T) {
		t.Parallel()

		var capturedArgs []any
		db := &mockDB{
			queryFunc: func(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
				capturedArgs = args
				return &mockRows{}, nil
			},
		}
		store := NewPostgresStore(db)
		if _, err := store.ListRecent(context.Background(), 0); err != nil {
			t.Fatalf("ListRecent() unexpected error: %v", err)
		}
		if capturedArgs[0] != 20 {
			t.Errorf("limit arg = %v, want default 20", capturedArgs[0])
		}
	})
}

func TestPostgresStore_Ping(t *testing.T) {
	t.Parallel()

	t.Run("healthy", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &mockRow{scanFunc: func(dest ...any) error {
					if d, ok := dest[0].(*int); ok {
						*d = 1
					}
					return nil
				}}
			},
		}
		store := NewPostgresStore(db)
		if err := store.Ping(context.Background()); err != nil {
			t.Fatalf("Ping() unexpected error: %v", err)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &mockRow{scanFunc: func(_ ...any) error {
					return errors.New("connection refused")
				}}
			},
		}
		store := NewPostgresStore(db)
		if err := store.Ping(context.Background()); err == nil {
			t.Fatal("Ping() expected error, got nil")
		}
	})
}

func TestIsDuplicateKeyError(t *testing.T) {
	t.Parallel()

	if !isDuplicateKeyError(&pgconn.PgError{Code: "23505"}) {
		t.Error("SQLSTATE 23505 should be a duplicate key error")
	}
	if isDuplicateKeyError(&pgconn.PgError{Code: "23503"}) {
		t.Error("SQLSTATE 23503 should not be a duplicate key error")
	}
	if isDuplicateKeyError(errors.New("plain error")) {
		t.Error("plain error should not be a duplicate key error")
	}
	wrapped := fmt.Errorf("query failed: %w", &pgconn.PgError{Code: "23505"})
	if !isDuplicateKeyError(wrapped) {
		t.Error("wrapped 23505 should be a duplicate key error")
	}
}
