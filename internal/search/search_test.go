package search

import (
	"context"
	"testing"
)

var (
	_ Searcher = (*PgFTS)(nil)
	_ Searcher = (*Meili)(nil)
)

func TestPgFTSSearchSkipsBlankQuery(t *testing.T) {
	p := NewPgFTS(nil)

	results, total, err := p.Search(context.Background(), Query{Text: "   "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 0 || len(results) != 0 {
		t.Errorf("expected no results for blank query, got %d (total %d)", len(results), total)
	}
}

func TestPgFTSSearchSkipsUnknownFilterType(t *testing.T) {
	p := NewPgFTS(nil)

	results, total, err := p.Search(context.Background(), Query{Text: "chairs", FilterType: ResultType("bogus")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 0 || len(results) != 0 {
		t.Errorf("expected no results for unknown filter type, got %d (total %d)", len(results), total)
	}
}
