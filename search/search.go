package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"

	"github.com/ajmalps/trovebot/db/models"
	"github.com/ajmalps/trovebot/store"
)

const (
	// DefaultPageSize is rows per rendered result page.
	DefaultPageSize = 10

	// DefaultLimit bounds how many entries one search pulls from the store.
	DefaultLimit = 50

	minQueryLen = 3
)

// Index turns free-text fragments into bounded, paginated result sets.
type Index struct {
	store *store.Store
	log   *slog.Logger
}

func New(st *store.Store, log *slog.Logger) (*Index, error) {
	if st == nil {
		return nil, fmt.Errorf("nil store")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Index{store: st, log: log}, nil
}

// Search re-executes the store query each call; no cursor state is kept.
func (ix *Index) Search(ctx context.Context, fragment string, limit int) ([]models.FileEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return ix.store.FindByNameFragment(ctx, fragment, limit)
}

// Ref locates an archived copy for retrieval.
type Ref struct {
	Destination      int64
	ArchiveMessageID int64
}

// Row is one rendered result line. Ref is nil for unarchived entries,
// which render as disabled rows.
type Row struct {
	Label string
	Ref   *Ref
}

// Page is one bounded window over a result set.
type Page struct {
	Number int
	Total  int
	Rows   []Row
}

// Paginate clamps pageNumber into [1, ceil(len(results)/pageSize)] and
// renders that window. It never errors and never yields an empty page
// while results exist.
func Paginate(results []models.FileEntry, pageSize, pageNumber int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := (len(results) + pageSize - 1) / pageSize
	if total == 0 {
		return Page{Number: 1, Total: 0}
	}
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageNumber > total {
		pageNumber = total
	}

	start := (pageNumber - 1) * pageSize
	end := start + pageSize
	if end > len(results) {
		end = len(results)
	}

	rows := make([]Row, 0, end-start)
	for i := start; i < end; i++ {
		e := results[i]
		row := Row{Label: RowLabel(&e)}
		if e.Archived() {
			row.Ref = &Ref{
				Destination:      *e.ArchiveChatID,
				ArchiveMessageID: *e.ArchiveMessageID,
			}
		}
		rows = append(rows, row)
	}
	return Page{Number: pageNumber, Total: total, Rows: rows}
}

// RowLabel renders the human label: file name, annotated with size when
// recorded.
func RowLabel(e *models.FileEntry) string {
	name := e.Kind
	if e.Name != nil && strings.TrimSpace(*e.Name) != "" {
		name = strings.TrimSpace(*e.Name)
	}
	if e.Size != nil && *e.Size > 0 {
		return fmt.Sprintf("%s (%s)", name, humanize.Bytes(uint64(*e.Size)))
	}
	return name
}

// IsLikelySearchQuery is the recall/precision gate deciding whether free
// text should trigger a search. Policy, not contract: false positives
// cost a confirmation prompt, false negatives ignore the message.
func IsLikelySearchQuery(text string) bool {
	text = strings.TrimSpace(text)
	if len(text) < minQueryLen {
		return false
	}
	if strings.HasPrefix(text, "/") {
		return false
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "://") || strings.HasPrefix(lower, "www.") {
		return false
	}

	alnum := 0
	letters := 0
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if alnum < 2 {
		return false
	}
	// Purely numeric text is more likely an id or amount than a name.
	if letters == 0 {
		return false
	}
	return true
}
