package ledger

import (
	"fmt"
	"io"
	"strings"
	"time"
)

var csvHeader = []string{"User ID", "Name", "Category", "Type", "Amount", "Date"}

// WriteCSV flattens txns into a header row plus one row per transaction.
// Text columns are always quoted with embedded quotes doubled; rows are
// separated by a single newline.
func WriteCSV(w io.Writer, txns []Transaction, loc *time.Location) error {
	var b strings.Builder
	b.WriteString(strings.Join(csvHeader, ","))
	for _, t := range txns {
		b.WriteByte('\n')
		b.WriteString(strings.Join([]string{
			t.UserID,
			quote(t.Name),
			quote(t.Category),
			quote(string(t.Type)),
			t.Amount.String(),
			quote(t.DisplayDate(loc)),
		}, ","))
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ExportFilename names a CSV download, e.g. admin_transactions_2024-03-01.csv.
func ExportFilename(prefix string, now time.Time) string {
	name := "transactions_" + now.Format("2006-01-02") + ".csv"
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}
