package ledger

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFacets(t *testing.T) {
	txns := []Transaction{
		{UserID: "10", Category: "food"},
		{UserID: "2", Category: ""},
		{UserID: "3", Category: "rent"},
		{UserID: "2", Category: "food"},
		{UserID: "1", Category: "transport"},
	}
	got := Facets(txns)
	want := FacetSet{
		Categories: []string{"food", "rent", "transport"},
		Users:      []string{"1", "2", "3", "10"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestFacetsEmpty(t *testing.T) {
	got := Facets(nil)
	if got.Categories == nil || len(got.Categories) != 0 || len(got.Users) != 0 {
		t.Fatalf("unexpected facets: %#v", got)
	}
}
