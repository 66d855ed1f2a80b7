package ledger

import "slices"

// FacetSet lists the values a filter menu can offer for a collection.
type FacetSet struct {
	Categories []string `json:"categories"`
	Users      []string `json:"users,omitempty"`
}

// Facets returns distinct non-empty categories in first-seen order and
// distinct user ids in id order.
func Facets(txns []Transaction) FacetSet {
	seenCat := map[string]bool{}
	seenUser := map[string]bool{}
	set := FacetSet{Categories: []string{}, Users: []string{}}
	for _, t := range txns {
		if t.Category != "" && !seenCat[t.Category] {
			seenCat[t.Category] = true
			set.Categories = append(set.Categories, t.Category)
		}
		if !seenUser[t.UserID] {
			seenUser[t.UserID] = true
			set.Users = append(set.Users, t.UserID)
		}
	}
	slices.SortFunc(set.Users, compareIDs)
	return set
}
