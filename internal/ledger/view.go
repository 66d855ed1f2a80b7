package ledger

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// Tab restricts a view to one transaction type.
type Tab string

const (
	TabAll    Tab = "all"
	TabCredit Tab = "credit"
	TabDebit  Tab = "debit"
)

// SortDir is the direction of the column sort.
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// Sortable columns.
const (
	SortName     = "name"
	SortCategory = "category"
	SortType     = "type"
	SortAmount   = "amount"
	SortDate     = "date"
	SortUser     = "user_id"
)

// UserNameResolver maps a user id to a display name. A nil resolver means the
// view is not an admin view and user names are not searched.
type UserNameResolver func(userID string) string

// FilterState is everything the presentation layer controls about a table.
type FilterState struct {
	Tab        Tab      `json:"tab"`
	Search     string   `json:"search"`
	Categories []string `json:"categories,omitempty"`
	Users      []string `json:"users,omitempty"`
	SortKey    string   `json:"sort"`
	SortDir    SortDir  `json:"dir"`
	Offset     int      `json:"offset"`
	Limit      int      `json:"limit"`
}

// View is the rendered slice of a filtered collection.
type View struct {
	Page         []Transaction `json:"page"`
	TotalMatched int           `json:"total"`
	Offset       int           `json:"offset"`
	Limit        int           `json:"limit"`
}

// HasPrev reports whether a previous page exists.
func (v View) HasPrev() bool { return v.Offset > 0 }

// HasNext reports whether another page follows this one.
func (v View) HasNext() bool { return v.Limit > 0 && v.Offset+v.Limit < v.TotalMatched }

// Viewer runs the pipeline with a fixed display zone for date search.
type Viewer struct {
	Location *time.Location
}

// Build is BuildView in the viewer's zone.
func (vw Viewer) Build(txns []Transaction, state FilterState, resolve UserNameResolver) View {
	return buildView(txns, state, resolve, vw.Location)
}

// Filtered is the filtered, sorted (not paginated) result in the viewer's zone.
func (vw Viewer) Filtered(txns []Transaction, state FilterState, resolve UserNameResolver) []Transaction {
	return filterAndSort(txns, state, resolve, vw.Location)
}

// BuildView filters by tab, search term, categories and users, stable-sorts by
// the requested column and slices out [Offset, Offset+Limit). Dates are
// matched in UTC.
func BuildView(txns []Transaction, state FilterState, resolve UserNameResolver) View {
	return buildView(txns, state, resolve, nil)
}

// Filtered applies every stage of BuildView except pagination.
func Filtered(txns []Transaction, state FilterState, resolve UserNameResolver) []Transaction {
	return filterAndSort(txns, state, resolve, nil)
}

func buildView(txns []Transaction, state FilterState, resolve UserNameResolver, loc *time.Location) View {
	matched := filterAndSort(txns, state, resolve, loc)
	offset := max(state.Offset, 0)
	limit := max(state.Limit, 0)
	return View{
		Page:         paginate(matched, offset, limit),
		TotalMatched: len(matched),
		Offset:       offset,
		Limit:        limit,
	}
}

func filterAndSort(txns []Transaction, state FilterState, resolve UserNameResolver, loc *time.Location) []Transaction {
	categories := toSet(state.Categories)
	users := toSet(state.Users)
	term := strings.ToLower(state.Search)

	out := make([]Transaction, 0, len(txns))
	for _, t := range txns {
		if !matchesTab(t, state.Tab) {
			continue
		}
		if term != "" && !matchesSearch(t, term, resolve, loc) {
			continue
		}
		if len(categories) > 0 && (t.Category == "" || !categories[t.Category]) {
			continue
		}
		if len(users) > 0 && !users[t.UserID] {
			continue
		}
		out = append(out, t)
	}

	if cmp := comparator(state.SortKey); cmp != nil {
		if state.SortDir == Desc {
			asc := cmp
			cmp = func(a, b Transaction) int { return -asc(a, b) }
		}
		slices.SortStableFunc(out, cmp)
	}
	return out
}

func matchesTab(t Transaction, tab Tab) bool {
	switch tab {
	case TabCredit:
		return t.Type == Credit
	case TabDebit:
		return t.Type == Debit
	}
	return true
}

func matchesSearch(t Transaction, term string, resolve UserNameResolver, loc *time.Location) bool {
	if strings.Contains(strings.ToLower(t.Name), term) ||
		strings.Contains(strings.ToLower(t.Category), term) ||
		strings.Contains(t.Amount.String(), term) ||
		strings.Contains(strings.ToLower(t.DisplayDate(loc)), term) {
		return true
	}
	return resolve != nil && strings.Contains(strings.ToLower(resolve(t.UserID)), term)
}

func comparator(key string) func(a, b Transaction) int {
	switch key {
	case SortName, "transaction_name":
		return func(a, b Transaction) int { return strings.Compare(a.Name, b.Name) }
	case SortCategory:
		return func(a, b Transaction) int { return strings.Compare(a.Category, b.Category) }
	case SortType:
		return func(a, b Transaction) int { return strings.Compare(string(a.Type), string(b.Type)) }
	case SortAmount:
		return func(a, b Transaction) int { return a.Amount.Cmp(b.Amount) }
	case SortDate:
		return func(a, b Transaction) int { return a.Date.Compare(b.Date) }
	case SortUser:
		return func(a, b Transaction) int { return compareIDs(a.UserID, b.UserID) }
	}
	return nil
}

// compareIDs orders numeric ids numerically and everything else lexically.
func compareIDs(a, b string) int {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	if aerr == nil && berr == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}

func paginate(txns []Transaction, offset, limit int) []Transaction {
	if offset >= len(txns) || limit == 0 {
		return []Transaction{}
	}
	end := len(txns)
	if limit < end-offset {
		end = offset + limit
	}
	page := make([]Transaction, end-offset)
	copy(page, txns[offset:end])
	return page
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
