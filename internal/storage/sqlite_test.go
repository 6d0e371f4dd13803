package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/logsage/logsage-ai-go/internal/analysis"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "analyses.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleResults() []analysis.Result {
	return []analysis.Result{
		{
			ErrorMessage:    "2024-01-15 10:00:01 ERROR [db] connection timeout",
			Explanation:     "Database connection pool exhausted",
			PossibleCauses:  []string{"connection leak", "slow queries"},
			Severity:        analysis.SeverityHigh,
			Recommendations: []string{"check pool metrics", "enable query logging"},
			ConfidenceScore: 0.85,
			Timestamp:       time.Now().Format(time.RFC3339),
		},
		{
			ErrorMessage:    "2024-01-15 10:00:02 ERROR [api] invalid request body",
			Explanation:     "Client sent malformed JSON",
			PossibleCauses:  []string{"client bug"},
			Severity:        analysis.SeverityLow,
			Recommendations: []string{"validate client payloads"},
			ConfidenceScore: 0.7,
			Timestamp:       time.Now().Format(time.RFC3339),
		},
	}
}

func TestNew(t *testing.T) {
	store := newTestStorage(t)
	if store == nil {
		t.Fatal("New() returned nil")
	}
}

func TestNew_ReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analyses.db")

	store, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	run := &Run{Timestamp: time.Now(), LogFile: "app.log"}
	if err := store.SaveRun(run, nil); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Reopening must run no destructive migration
	store, err = New(path)
	if err != nil {
		t.Fatalf("New() on existing database error = %v", err)
	}
	defer func() { _ = store.Close() }()

	stats, err := store.GetStatistics()
	if err != nil {
		t.Fatalf("GetStatistics() error = %v", err)
	}
	if stats["total_runs"] != 1 {
		t.Errorf("total_runs = %v after reopen, want 1", stats["total_runs"])
	}
}

func TestSaveRunAndGetRecentRecords(t *testing.T) {
	store := newTestStorage(t)

	run := &Run{
		Timestamp:  time.Now(),
		LogFile:    "/var/log/app.log",
		EntryCount: 10,
		ChunkCount: 3,
		ErrorCount: 2,
		CostUSD:    0.0123,
	}

	if err := store.SaveRun(run, sampleResults()); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if run.ID == 0 {
		t.Error("SaveRun() did not set run ID")
	}

	records, err := store.GetRecentRecords(7, "")
	if err != nil {
		t.Fatalf("GetRecentRecords() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("GetRecentRecords() returned %d records, want 2", len(records))
	}

	var high *Record
	for _, r := range records {
		if r.Severity == "HIGH" {
			high = r
		}
	}
	if high == nil {
		t.Fatal("HIGH severity record not found")
	}
	if high.RunID != run.ID {
		t.Errorf("RunID = %d, want %d", high.RunID, run.ID)
	}
	if high.Explanation != "Database connection pool exhausted" {
		t.Errorf("Explanation = %q", high.Explanation)
	}
	if len(high.PossibleCauses) != 2 || high.PossibleCauses[0] != "connection leak" {
		t.Errorf("PossibleCauses = %v, want roundtrip intact", high.PossibleCauses)
	}
	if len(high.Recommendations) != 2 {
		t.Errorf("Recommendations = %v, want 2 entries", high.Recommendations)
	}
	if high.ConfidenceScore != 0.85 {
		t.Errorf("ConfidenceScore = %v, want 0.85", high.ConfidenceScore)
	}
}

func TestGetRecentRecords_SeverityFilter(t *testing.T) {
	store := newTestStorage(t)

	run := &Run{Timestamp: time.Now(), LogFile: "app.log"}
	if err := store.SaveRun(run, sampleResults()); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	records, err := store.GetRecentRecords(7, "HIGH")
	if err != nil {
		t.Fatalf("GetRecentRecords() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("GetRecentRecords(HIGH) returned %d records, want 1", len(records))
	}
	if records[0].Severity != "HIGH" {
		t.Errorf("Severity = %q, want HIGH", records[0].Severity)
	}
}

func TestGetRecentRecords_CutoffExcludesOld(t *testing.T) {
	store := newTestStorage(t)

	old := analysis.Result{
		ErrorMessage:    "old error",
		Explanation:     "stale",
		Severity:        analysis.SeverityMedium,
		PossibleCauses:  []string{"age"},
		Recommendations: []string{"none"},
		Timestamp:       time.Now().AddDate(0, 0, -30).Format(time.RFC3339),
	}
	run := &Run{Timestamp: time.Now().AddDate(0, 0, -30), LogFile: "app.log"}
	if err := store.SaveRun(run, []analysis.Result{old}); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	records, err := store.GetRecentRecords(7, "")
	if err != nil {
		t.Fatalf("GetRecentRecords() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("GetRecentRecords(7) returned %d records, want 0", len(records))
	}
}

func TestCleanupOldRuns(t *testing.T) {
	store := newTestStorage(t)

	oldRun := &Run{Timestamp: time.Now().AddDate(0, 0, -100), LogFile: "old.log"}
	oldResult := analysis.Result{
		ErrorMessage:    "old",
		Explanation:     "old",
		Severity:        analysis.SeverityLow,
		PossibleCauses:  []string{"x"},
		Recommendations: []string{"y"},
		Timestamp:       time.Now().AddDate(0, 0, -100).Format(time.RFC3339),
	}
	if err := store.SaveRun(oldRun, []analysis.Result{oldResult}); err != nil {
		t.Fatalf("SaveRun(old) error = %v", err)
	}

	freshRun := &Run{Timestamp: time.Now(), LogFile: "fresh.log"}
	if err := store.SaveRun(freshRun, sampleResults()); err != nil {
		t.Fatalf("SaveRun(fresh) error = %v", err)
	}

	deleted, err := store.CleanupOldRuns(90)
	if err != nil {
		t.Fatalf("CleanupOldRuns() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("CleanupOldRuns() = %d, want 1", deleted)
	}

	stats, err := store.GetStatistics()
	if err != nil {
		t.Fatalf("GetStatistics() error = %v", err)
	}
	if stats["total_runs"] != 1 {
		t.Errorf("total_runs = %v after cleanup, want 1", stats["total_runs"])
	}
	// Orphaned analyses must be removed with their run
	if stats["total_analyses"] != 2 {
		t.Errorf("total_analyses = %v after cleanup, want 2", stats["total_analyses"])
	}
}

func TestGetStatistics(t *testing.T) {
	store := newTestStorage(t)

	run := &Run{Timestamp: time.Now(), LogFile: "app.log", CostUSD: 0.05}
	if err := store.SaveRun(run, sampleResults()); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	stats, err := store.GetStatistics()
	if err != nil {
		t.Fatalf("GetStatistics() error = %v", err)
	}

	if stats["total_runs"] != 1 {
		t.Errorf("total_runs = %v, want 1", stats["total_runs"])
	}
	if stats["total_analyses"] != 2 {
		t.Errorf("total_analyses = %v, want 2", stats["total_analyses"])
	}

	dist, ok := stats["severity_distribution"].(map[string]int)
	if !ok {
		t.Fatalf("severity_distribution has type %T", stats["severity_distribution"])
	}
	if dist["HIGH"] != 1 || dist["LOW"] != 1 {
		t.Errorf("severity_distribution = %v, want HIGH:1 LOW:1", dist)
	}

	cost, ok := stats["total_cost_usd"].(float64)
	if !ok || cost != 0.05 {
		t.Errorf("total_cost_usd = %v, want 0.05", stats["total_cost_usd"])
	}
}

func TestClose_Idempotent(t *testing.T) {
	store := newTestStorage(t)
	if err := store.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
