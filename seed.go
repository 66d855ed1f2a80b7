package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"money-matters-dashboard/internal/ledger"

	"github.com/shopspring/decimal"
)

var demoUsers = map[string]string{
	"1": "Jane Doe",
	"2": "Sam Patel",
	"3": "Admin",
	"4": "Lee Wong",
}

type demoRow struct {
	userID   string
	name     string
	typ      ledger.Type
	category string
	amount   string
	daysAgo  int
	hour     int
}

var demoRows = []demoRow{
	{"1", "Monthly Salary", ledger.Credit, "transfer", "3200.00", 28, 9},
	{"1", "Rent - Apartment", ledger.Debit, "shopping", "1500.00", 24, 10},
	{"1", "Groceries", ledger.Debit, "food", "96.72", 20, 18},
	{"1", "Subway Pass", ledger.Debit, "transport", "45.00", 19, 8},
	{"2", "Freelance: Landing Page", ledger.Credit, "transfer", "850.00", 25, 14},
	{"2", "Movie Night", ledger.Debit, "entertainment", "28.50", 16, 21},
	{"2", "Online Course", ledger.Debit, "education", "120.00", 12, 11},
	{"3", "Refund", ledger.Credit, "", "60.00", 11, 12},
	{"3", "Concert Tickets", ledger.Debit, "entertainment", "140.00", 8, 19},
	{"4", "Freelance: Dashboard Charts", ledger.Credit, "transfer", "600.00", 6, 15},
	{"4", "Groceries", ledger.Debit, "food", "132.39", 5, 17},
	{"1", "Rideshare", ledger.Debit, "transport", "22.30", 4, 23},
	{"2", "Bookstore", ledger.Debit, "education", "35.90", 3, 13},
	{"1", "Dinner Out", ledger.Debit, "food", "54.80", 1, 20},
	{"4", "Sold bike", ledger.Credit, "shopping", "210.00", 0, 7},
}

// demoTransactions spreads the demo rows over the month before now, so the
// last-seven-days charts always have data.
func demoTransactions(now time.Time) []ledger.Transaction {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]ledger.Transaction, 0, len(demoRows))
	for i, r := range demoRows {
		out = append(out, ledger.Transaction{
			ID:       strconv.Itoa(i + 1),
			UserID:   r.userID,
			Name:     r.name,
			Type:     r.typ,
			Category: r.category,
			Amount:   decimal.RequireFromString(r.amount),
			Date:     day.AddDate(0, 0, -r.daysAgo).Add(time.Duration(r.hour) * time.Hour),
		})
	}
	return out
}

// seedDemoData inserts the demo users and transactions. Transactions are
// only seeded into an empty table.
func seedDemoData(ctx context.Context, db *sql.DB, now time.Time) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for id, name := range demoUsers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`, id, name); err != nil {
			return fmt.Errorf("seeding demo users: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`SELECT setval(pg_get_serial_sequence('users', 'id'), (SELECT MAX(id) FROM users))`); err != nil {
		return fmt.Errorf("resetting users sequence: %w", err)
	}

	var cnt int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&cnt); err != nil {
		return fmt.Errorf("checking transactions count: %w", err)
	}
	if cnt == 0 {
		for _, t := range demoTransactions(now) {
			var category any
			if t.Category != "" {
				category = t.Category
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO transactions (user_id, transaction_name, type, category, amount, date)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				t.UserID, t.Name, string(t.Type), category, t.Amount.String(), t.Date)
			if err != nil {
				return fmt.Errorf("seeding demo transactions: %w", err)
			}
		}
	}

	return tx.Commit()
}
