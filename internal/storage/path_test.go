package storage

import (
	"testing"
	"time"
)

func TestBuildArchivePath(t *testing.T) {
	ts := time.Date(2026, time.February, 19, 22, 5, 0, 0, time.FixedZone("x", -5*3600))
	key, err := BuildArchivePath("history", ts, 12, 40)
	if err != nil {
		t.Fatalf("BuildArchivePath() error = %v", err)
	}
	want := "history/date=2026-02-20/history-0000000012-0000000040.parquet"
	if key != want {
		t.Fatalf("BuildArchivePath() = %q, want %q", key, want)
	}
}

func TestBuildArchivePathAcceptsNestedAndEmptyPrefix(t *testing.T) {
	ts := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	key, err := BuildArchivePath("/askdb/prod/", ts, 1, 1)
	if err != nil {
		t.Fatalf("BuildArchivePath() error = %v", err)
	}
	if key != "askdb/prod/date=2026-03-01/history-0000000001-0000000001.parquet" {
		t.Fatalf("BuildArchivePath() = %q", key)
	}

	key, err = BuildArchivePath("", ts, 1, 2)
	if err != nil {
		t.Fatalf("BuildArchivePath() error = %v", err)
	}
	if key != "date=2026-03-01/history-0000000001-0000000002.parquet" {
		t.Fatalf("BuildArchivePath() = %q", key)
	}
}

func TestBuildArchivePathRejectsInvalidInput(t *testing.T) {
	if _, err := BuildArchivePath("../oops", time.Now(), 1, 1); err == nil {
		t.Fatal("expected invalid prefix error")
	}
	if _, err := BuildArchivePath("history", time.Now(), 5, 4); err == nil {
		t.Fatal("expected invalid range error")
	}
	if _, err := BuildArchivePath("history", time.Now(), 0, 4); err == nil {
		t.Fatal("expected invalid first id error")
	}
}
