package applog

import (
	"strings"
	"testing"
	"time"
)

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantEntries int
		wantStats   ParseStats
	}{
		{
			name:        "single entry",
			raw:         "2024-01-15 10:30:00 INFO [api] request served",
			wantEntries: 1,
			wantStats:   ParseStats{TotalLines: 1},
		},
		{
			name: "multiple entries",
			raw: "2024-01-15 10:30:00 INFO [api] request served\n" +
				"2024-01-15 10:30:01 ERROR [db] connection refused\n" +
				"2024-01-15 10:30:02 WARNING [cache] miss",
			wantEntries: 3,
			wantStats:   ParseStats{TotalLines: 3},
		},
		{
			name: "continuation lines fold into previous entry",
			raw: "2024-01-15 10:30:00 ERROR [api] boom\n" +
				"    stack trace line 1\n" +
				"    stack trace line 2",
			wantEntries: 1,
			wantStats:   ParseStats{TotalLines: 3, ContinuationLines: 2},
		},
		{
			name: "leading garbage is dropped and counted",
			raw: "random preamble\n" +
				"more noise\n" +
				"2024-01-15 10:30:00 INFO [api] first real entry",
			wantEntries: 1,
			wantStats:   ParseStats{TotalLines: 3, DroppedLeading: 2},
		},
		{
			name: "blank lines are skipped",
			raw: "2024-01-15 10:30:00 INFO [api] one\n" +
				"\n" +
				"2024-01-15 10:30:01 INFO [api] two",
			wantEntries: 2,
			wantStats:   ParseStats{TotalLines: 2},
		},
		{
			name:        "empty input",
			raw:         "",
			wantEntries: 0,
			wantStats:   ParseStats{},
		},
		{
			name:        "only garbage",
			raw:         "noise one\nnoise two",
			wantEntries: 0,
			wantStats:   ParseStats{TotalLines: 2, DroppedLeading: 2},
		},
	}

	parser := NewParser()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, stats := parser.Parse(tt.raw)
			if len(entries) != tt.wantEntries {
				t.Errorf("Parse() entries = %d, want %d", len(entries), tt.wantEntries)
			}
			if stats != tt.wantStats {
				t.Errorf("Parse() stats = %+v, want %+v", stats, tt.wantStats)
			}
		})
	}
}

func TestParser_ParseFields(t *testing.T) {
	parser := NewParser()

	entries, _ := parser.Parse("2024-01-15 10:30:00 error [auth.service] login failed for user")
	if len(entries) != 1 {
		t.Fatalf("Parse() entries = %d, want 1", len(entries))
	}

	entry := entries[0]
	if entry.Level != "ERROR" {
		t.Errorf("Level = %q, want ERROR (normalized)", entry.Level)
	}
	if entry.Component != "auth.service" {
		t.Errorf("Component = %q, want auth.service", entry.Component)
	}
	if entry.Message != "login failed for user" {
		t.Errorf("Message = %q, want 'login failed for user'", entry.Message)
	}
	if entry.TimestampRaw != "2024-01-15 10:30:00" {
		t.Errorf("TimestampRaw = %q", entry.TimestampRaw)
	}
	if !entry.IsError {
		t.Error("IsError = false, want true for ERROR level")
	}
	if entry.LineNumber != 1 {
		t.Errorf("LineNumber = %d, want 1", entry.LineNumber)
	}

	want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	if !entry.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", entry.Timestamp, want)
	}
}

func TestParser_ContinuationAppendsWithSpace(t *testing.T) {
	parser := NewParser()

	entries, _ := parser.Parse(
		"2024-01-15 10:30:00 ERROR [api] boom\n" +
			"  extra detail",
	)
	if len(entries) != 1 {
		t.Fatalf("Parse() entries = %d, want 1", len(entries))
	}

	if entries[0].Message != "boom extra detail" {
		t.Errorf("Message = %q, want 'boom extra detail'", entries[0].Message)
	}
	if !strings.HasSuffix(entries[0].FullLine, "boom extra detail") {
		t.Errorf("FullLine = %q, want suffix 'boom extra detail'", entries[0].FullLine)
	}
}

func TestParser_InvalidTimestampKeepsEntry(t *testing.T) {
	parser := NewParser()

	// Header-shaped but with an impossible date
	entries, _ := parser.Parse("2024-13-45 99:99:99 ERROR [api] bad clock")
	if len(entries) != 1 {
		t.Fatalf("Parse() entries = %d, want 1", len(entries))
	}

	entry := entries[0]
	if !entry.Timestamp.IsZero() {
		t.Errorf("Timestamp = %v, want zero for unparseable timestamp", entry.Timestamp)
	}
	if entry.HasTimestamp() {
		t.Error("HasTimestamp() = true, want false")
	}
	if entry.TimestampRaw != "2024-13-45 99:99:99" {
		t.Errorf("TimestampRaw = %q, raw text must be preserved", entry.TimestampRaw)
	}
}

func TestIsErrorLevel(t *testing.T) {
	tests := []struct {
		level string
		want  bool
	}{
		{"ERROR", true},
		{"CRITICAL", true},
		{"FATAL", true},
		{"WARNING", false},
		{"INFO", false},
		{"DEBUG", false},
		{"error", false}, // levels are normalized before lookup
	}

	for _, tt := range tests {
		if got := IsErrorLevel(tt.level); got != tt.want {
			t.Errorf("IsErrorLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestEntry_Serialized(t *testing.T) {
	entry := Entry{
		TimestampRaw: "2024-01-15 10:30:00",
		Level:        "ERROR",
		Component:    "db",
		Message:      "connection refused",
	}

	want := "2024-01-15 10:30:00 ERROR [db] connection refused"
	if got := entry.Serialized(); got != want {
		t.Errorf("Serialized() = %q, want %q", got, want)
	}
}
