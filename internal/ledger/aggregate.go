package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Week layouts for day-of-week charts.
var (
	MondayFirst = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	SundayFirst = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
)

// DateLabelLayout labels buckets produced by AggregateByDate.
const DateLabelLayout = "2006-01-02"

// DayBucket holds the summed amounts for one chart slot.
type DayBucket struct {
	Label  string          `json:"name"`
	Credit decimal.Decimal `json:"credit"`
	Debit  decimal.Decimal `json:"debit"`
}

// Totals are the grand sums of a collection partitioned by type.
type Totals struct {
	Credit decimal.Decimal `json:"credit"`
	Debit  decimal.Decimal `json:"debit"`
}

// Net is total credit minus total debit.
func (t Totals) Net() decimal.Decimal {
	return t.Credit.Sub(t.Debit)
}

// Slice is one segment of the balance distribution chart.
type Slice struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// Aggregator buckets transactions by weekday. Labels define both the bucket
// universe and the output order; Location fixes which calendar day an instant
// falls on (nil means UTC).
type Aggregator struct {
	Labels   []string
	Location *time.Location
}

// NewAggregator returns an aggregator whose week starts on Monday or Sunday.
// Any other weekday falls back to Monday.
func NewAggregator(weekStart time.Weekday, loc *time.Location) *Aggregator {
	labels := MondayFirst
	if weekStart == time.Sunday {
		labels = SundayFirst
	}
	return &Aggregator{Labels: labels, Location: loc}
}

// ByWeekday buckets txns using the aggregator's labels and zone.
func (a *Aggregator) ByWeekday(txns []Transaction) []DayBucket {
	return AggregateByDay(txns, a.Labels, a.Location)
}

// AggregateByDay sums credits and debits per weekday short name. Every label
// appears exactly once, in order, zero-filled. Transactions whose weekday is
// not among labels are dropped.
func AggregateByDay(txns []Transaction, labels []string, loc *time.Location) []DayBucket {
	loc = zone(loc)
	return accumulate(txns, labels, func(t Transaction) string {
		return t.Date.In(loc).Weekday().String()[:3]
	})
}

// AggregateByDate sums per calendar date over days consecutive dates starting
// at start's date in loc. Labels use DateLabelLayout.
func AggregateByDate(txns []Transaction, start time.Time, days int, loc *time.Location) []DayBucket {
	loc = zone(loc)
	if days < 0 {
		days = 0
	}
	y, m, d := start.In(loc).Date()
	first := time.Date(y, m, d, 0, 0, 0, 0, loc)
	labels := make([]string, days)
	for i := range labels {
		labels[i] = first.AddDate(0, 0, i).Format(DateLabelLayout)
	}
	return accumulate(txns, labels, func(t Transaction) string {
		return t.Date.In(loc).Format(DateLabelLayout)
	})
}

func accumulate(txns []Transaction, labels []string, labelOf func(Transaction) string) []DayBucket {
	buckets := make([]DayBucket, len(labels))
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		buckets[i] = DayBucket{Label: l, Credit: decimal.Zero, Debit: decimal.Zero}
		if _, dup := index[l]; !dup {
			index[l] = i
		}
	}
	for _, t := range txns {
		i, ok := index[labelOf(t)]
		if !ok {
			continue
		}
		if t.Type == Credit {
			buckets[i].Credit = buckets[i].Credit.Add(t.Amount)
		} else {
			buckets[i].Debit = buckets[i].Debit.Add(t.Amount)
		}
	}
	return buckets
}

// SumTotals adds up amounts by type. No rounding is applied.
func SumTotals(txns []Transaction) Totals {
	totals := Totals{Credit: decimal.Zero, Debit: decimal.Zero}
	for _, t := range txns {
		if t.Type == Credit {
			totals.Credit = totals.Credit.Add(t.Amount)
		} else {
			totals.Debit = totals.Debit.Add(t.Amount)
		}
	}
	return totals
}

// Distribution is the credit/debit pie series.
func Distribution(t Totals) []Slice {
	return []Slice{
		{Name: "Credit", Value: t.Credit},
		{Name: "Debit", Value: t.Debit},
	}
}

// Within keeps transactions dated in [from, to).
func Within(txns []Transaction, from, to time.Time) []Transaction {
	out := make([]Transaction, 0, len(txns))
	for _, t := range txns {
		if !t.Date.Before(from) && t.Date.Before(to) {
			out = append(out, t)
		}
	}
	return out
}

// WeekWindow returns the seven-day window ending with now's calendar day in loc.
func WeekWindow(now time.Time, loc *time.Location) (from, to time.Time) {
	loc = zone(loc)
	y, m, d := now.In(loc).Date()
	to = time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	return to.AddDate(0, 0, -7), to
}
