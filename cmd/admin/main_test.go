package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseAABB_NormalizesCorners(t *testing.T) {
	min, max, err := parseAABB("10,70,-5:0,60,5")
	if err != nil {
		t.Fatal(err)
	}
	if min != [3]int{0, 60, -5} || max != [3]int{10, 70, 5} {
		t.Fatalf("min=%v max=%v", min, max)
	}
	if !withinAABB([3]int{0, 64, 0}, min, max) || withinAABB([3]int{11, 64, 0}, min, max) {
		t.Fatalf("withinAABB mismatch")
	}
	for _, bad := range []string{"", "1,2,3", "1,2:3,4,5", "a,b,c:1,2,3"} {
		if _, _, err := parseAABB(bad); err == nil {
			t.Fatalf("parseAABB(%q) should fail", bad)
		}
	}
}

func TestJournalFiles_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"builds-2026-01-02-03.jsonl.zst", "builds-2026-01-01-23.jsonl.zst", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := journalFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || filepath.Base(got[0]) != "builds-2026-01-01-23.jsonl.zst" {
		t.Fatalf("files=%v", got)
	}
}
