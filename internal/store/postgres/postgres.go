package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"money-matters-dashboard/internal/ledger"
	"money-matters-dashboard/internal/store"
)

const columns = `id, user_id, transaction_name, type, category, amount, date`

// Store is a store.Source over the transactions and users tables.
type Store struct {
	db    *sql.DB
	limit int
}

// New wraps db. limit caps how many rows one snapshot fetch returns.
func New(db *sql.DB, limit int) *Store {
	if limit <= 0 {
		limit = 500
	}
	return &Store{db: db, limit: limit}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// List returns the newest transactions of scope, up to the fetch limit.
func (s *Store) List(ctx context.Context, scope store.Scope) ([]ledger.Transaction, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if scope.All {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+columns+` FROM transactions ORDER BY date DESC, id DESC LIMIT $1`, s.limit)
	} else {
		uid, perr := userID(scope.UserID)
		if perr != nil {
			return nil, perr
		}
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+columns+` FROM transactions WHERE user_id = $1 ORDER BY date DESC, id DESC LIMIT $2`, uid, s.limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	// ensure empty slice instead of nil when no rows
	txns := make([]ledger.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txns, nil
}

func (s *Store) Create(ctx context.Context, d store.Draft) (ledger.Transaction, error) {
	uid, err := userID(d.UserID)
	if err != nil {
		return ledger.Transaction{}, err
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO transactions (user_id, transaction_name, type, category, amount, date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+columns,
		uid, d.Name, string(d.Type), nullable(d.Category), d.Amount, d.Date,
	)
	t, err := scanTransaction(row)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return t, nil
}

func (s *Store) Update(ctx context.Context, scope store.Scope, id string, d store.Draft) (ledger.Transaction, error) {
	tid, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return ledger.Transaction{}, store.ErrNotFound
	}
	query := `
		UPDATE transactions
		SET transaction_name = $2, type = $3, category = $4, amount = $5, date = $6
		WHERE id = $1`
	args := []any{tid, d.Name, string(d.Type), nullable(d.Category), d.Amount, d.Date}
	if !scope.All {
		uid, err := userID(scope.UserID)
		if err != nil {
			return ledger.Transaction{}, err
		}
		query += ` AND user_id = $7`
		args = append(args, uid)
	}

	t, err := scanTransaction(s.db.QueryRowContext(ctx, query+` RETURNING `+columns, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Transaction{}, store.ErrNotFound
	}
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	return t, nil
}

func (s *Store) Delete(ctx context.Context, scope store.Scope, id string) error {
	tid, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return store.ErrNotFound
	}
	var res sql.Result
	if scope.All {
		res, err = s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, tid)
	} else {
		uid, perr := userID(scope.UserID)
		if perr != nil {
			return perr
		}
		res, err = s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, tid, uid)
	}
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) UserNames(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM users`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		names[strconv.FormatInt(id, 10)] = name
	}
	return names, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (ledger.Transaction, error) {
	var (
		t        ledger.Transaction
		id, uid  int64
		typ      string
		category sql.NullString
	)
	if err := row.Scan(&id, &uid, &t.Name, &typ, &category, &t.Amount, &t.Date); err != nil {
		return ledger.Transaction{}, err
	}
	t.ID = strconv.FormatInt(id, 10)
	t.UserID = strconv.FormatInt(uid, 10)
	t.Type = ledger.Type(typ)
	t.Category = category.String
	return t, nil
}

func userID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", store.ErrInvalidUser, s, err)
	}
	return id, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
