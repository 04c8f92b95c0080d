package report

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func readLines(t *testing.T, path string) []Report {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var reports []Report
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var r Report
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("unmarshal line %d: %v", len(reports)+1, err)
		}
		reports = append(reports, r)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return reports
}

func TestFileStore_SaveAppendsJSONLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reports.jsonl")
	fs := NewFileStore(path)
	ctx := context.Background()

	first := &Report{
		SessionID: "sess-1",
		Role:      "retail",
		Label:     "Chatty User",
		Scores:    Scores{Communication: 6, RoleKnowledge: 5, ProblemSolving: 4, Conciseness: 3},
		Feedback:  "Keep answers shorter.",
		Transcript: []Turn{
			{Speaker: "ai", Text: "Tell me about a difficult customer."},
			{Speaker: "user", Text: "Once upon a time..."},
		},
	}
	if err := fs.Save(ctx, first); err != nil {
		t.Fatalf("Save() first: %v", err)
	}
	if err := fs.Save(ctx, &Report{SessionID: "sess-2"}); err != nil {
		t.Fatalf("Save() second: %v", err)
	}

	got := readLines(t, path)
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].SessionID != "sess-1" || got[1].SessionID != "sess-2" {
		t.Errorf("session IDs = %q, %q", got[0].SessionID, got[1].SessionID)
	}
	if got[0].Scores != first.Scores {
		t.Errorf("Scores = %+v, want %+v", got[0].Scores, first.Scores)
	}
	if len(got[0].Transcript) != 2 || got[0].Transcript[1].Speaker != "user" {
		t.Errorf("Transcript = %+v", got[0].Transcript)
	}
}

func TestFileStore_SaveAssignsIDAndTimestamp(t *testing.T) {
	t.Parallel()

	fs := NewFileStore(filepath.Join(t.TempDir(), "reports.jsonl"))
	r := &Report{SessionID: "sess-1"}

	if err := fs.Save(context.Background(), r); err != nil {
		t.Fatalf("Save(): %v", err)
	}
	if r.ID == "" {
		t.Error("Save() did not assign an ID")
	}
	if r.CreatedAt.IsZero() {
		t.Error("Save() did not set CreatedAt")
	}
}

func TestFileStore_SaveConcurrent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reports.jsonl")
	fs := NewFileStore(path)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = fs.Save(context.Background(), &Report{SessionID: "sess-1"})
		}()
	}
	wg.Wait()

	if got := readLines(t, path); len(got) != 10 {
		t.Errorf("got %d records, want 10", len(got))
	}
}

func TestFileStore_SaveBadPath(t *testing.T) {
	t.Parallel()

	fs := NewFileStore(filepath.Join(t.TempDir(), "missing", "reports.jsonl"))
	if err := fs.Save(context.Background(), &Report{SessionID: "sess-1"}); err == nil {
		t.Fatal("Save() expected error for unwritable path, got nil")
	}
}
