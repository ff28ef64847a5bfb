package search

import (
	"testing"

	"github.com/ajmalps/trovebot/db/models"
)

func strp(s string) *string { return &s }
func i64p(n int64) *int64   { return &n }

func archivedEntry(name string, size int64) models.FileEntry {
	return models.FileEntry{
		Kind:             models.FileKindDocument,
		Name:             strp(name),
		Size:             i64p(size),
		ArchiveChatID:    i64p(-900),
		ArchiveMessageID: i64p(11),
	}
}

func TestPaginateBounds(t *testing.T) {
	var results []models.FileEntry
	for i := 0; i < 25; i++ {
		results = append(results, archivedEntry("f.bin", 10))
	}

	page := Paginate(results, 10, 1)
	if page.Total != 3 {
		t.Fatalf("total = %d, want 3", page.Total)
	}
	if len(page.Rows) != 10 {
		t.Fatalf("len(rows) = %d, want 10", len(page.Rows))
	}

	// Last page holds the remainder.
	page = Paginate(results, 10, 3)
	if len(page.Rows) != 5 {
		t.Fatalf("len(rows) = %d, want 5", len(page.Rows))
	}

	// Out-of-range page numbers clamp, never error, never go empty.
	page = Paginate(results, 10, 99)
	if page.Number != 3 || len(page.Rows) != 5 {
		t.Fatalf("clamped page = %d with %d rows, want 3 with 5", page.Number, len(page.Rows))
	}
	page = Paginate(results, 10, -4)
	if page.Number != 1 || len(page.Rows) != 10 {
		t.Fatalf("clamped page = %d with %d rows, want 1 with 10", page.Number, len(page.Rows))
	}
}

func TestPaginateEmpty(t *testing.T) {
	page := Paginate(nil, 10, 5)
	if page.Total != 0 || len(page.Rows) != 0 {
		t.Fatalf("empty result set should yield zero pages: %#v", page)
	}
}

func TestPaginateRefOnlyForArchived(t *testing.T) {
	unarchived := models.FileEntry{
		Kind: models.FileKindDocument,
		Name: strp("lost.bin"),
	}
	page := Paginate([]models.FileEntry{archivedEntry("kept.bin", 10), unarchived}, 10, 1)
	if len(page.Rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(page.Rows))
	}
	if page.Rows[0].Ref == nil {
		t.Fatalf("archived row should carry a retrieval ref")
	}
	if page.Rows[0].Ref.Destination != -900 || page.Rows[0].Ref.ArchiveMessageID != 11 {
		t.Fatalf("unexpected ref: %#v", page.Rows[0].Ref)
	}
	if page.Rows[1].Ref != nil {
		t.Fatalf("unarchived row must not carry a retrieval ref")
	}
}

func TestRowLabel(t *testing.T) {
	e := archivedEntry("report.pdf", 1024)
	if got := RowLabel(&e); got != "report.pdf (1.0 kB)" {
		t.Fatalf("label = %q", got)
	}

	noSize := models.FileEntry{Kind: models.FileKindPhoto}
	if got := RowLabel(&noSize); got != "photo" {
		t.Fatalf("label = %q, want kind fallback", got)
	}
}

func TestIsLikelySearchQuery(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"report", true},
		{"quarterly report 2024", true},
		{"/start", false},
		{"", false},
		{"ab", false},
		{"https://example.com/a", false},
		{"www.example.com", false},
		{"12345", false},
		{"...", false},
		{"a1b", true},
	}
	for _, tc := range cases {
		if got := IsLikelySearchQuery(tc.text); got != tc.want {
			t.Fatalf("IsLikelySearchQuery(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}
