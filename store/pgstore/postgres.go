// Package pgstore persists users, budgets and expenses in PostgreSQL.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mindspend/mindspend-api/models"
	"github.com/mindspend/mindspend-api/store"
)

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open connects to databaseURL, sizes the pool and runs migrations.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Ping(ctx context.Context) error  { return s.db.PingContext(ctx) }
func (s *Store) Close(ctx context.Context) error { return s.db.Close() }

// validID reports whether id can be compared against a UUID column. Anything
// else cannot match a row.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// ============================================================================
// USERS
// ============================================================================

const userColumns = `id, email, name, password_hash, totp_secret, totp_enabled, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.TOTPSecret, &u.TOTPEnabled, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, u.ID, u.Email, u.Name, u.PasswordHash, u.TOTPSecret, u.TOTPEnabled, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	return err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, store.ErrNotFound
	}
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *Store) UpdateTOTP(ctx context.Context, id, secret string, enabled bool) error {
	if !validID(id) {
		return store.ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET totp_secret = $1, totp_enabled = $2, updated_at = NOW()
		WHERE id = $3
	`, secret, enabled, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ============================================================================
// BUDGETS
// ============================================================================

const budgetColumns = `id, user_id, amount, period, created_at, updated_at`

func scanBudget(row *sql.Row) (*models.Budget, error) {
	var b models.Budget
	err := row.Scan(&b.ID, &b.UserID, &b.Amount, &b.Period, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) GetBudget(ctx context.Context, userID string) (*models.Budget, error) {
	if !validID(userID) {
		return nil, store.ErrNotFound
	}
	return scanBudget(s.db.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE user_id = $1`, userID))
}

func (s *Store) UpsertBudget(ctx context.Context, userID string, amount float64, period string, now time.Time) (*models.Budget, error) {
	return scanBudget(s.db.QueryRowContext(ctx, `
		INSERT INTO budgets (id, user_id, amount, period, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, COALESCE(NULLIF($3::text, ''), 'monthly'), $4, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET amount = EXCLUDED.amount,
		    period = CASE WHEN $3::text = '' THEN budgets.period ELSE EXCLUDED.period END,
		    updated_at = EXCLUDED.updated_at
		RETURNING `+budgetColumns, userID, amount, period, now))
}

func (s *Store) CountBudgets(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM budgets`).Scan(&n)
	return n, err
}

// ============================================================================
// EXPENSES
// ============================================================================

const expenseColumns = `id, user_id, title, amount, category, date, type, notes, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(row scanner) (*models.Expense, error) {
	var e models.Expense
	err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Amount, &e.Category, &e.Date, &e.Type, &e.Notes, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	e.Date = e.Date.UTC()
	return &e, nil
}

func insertExpense(ctx context.Context, exec interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, e *models.Expense) error {
	_, err := exec.ExecContext(ctx, `
		INSERT INTO expenses (`+expenseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, e.UserID, e.Title, e.Amount, e.Category, e.Date, e.Type, e.Notes, e.CreatedAt)
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	return err
}

func (s *Store) CreateExpense(ctx context.Context, e *models.Expense) error {
	return insertExpense(ctx, s.db, e)
}

func (s *Store) CreateExpenses(ctx context.Context, es []*models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range es {
		if err := insertExpense(ctx, tx, e); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	if !validID(id) {
		return nil, store.ErrNotFound
	}
	return scanExpense(s.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id))
}

func (s *Store) ListExpenses(ctx context.Context, userID string, f models.ExpenseFilter) ([]models.Expense, error) {
	var (
		where = []string{"user_id = $1"}
		args  = []any{userID}
	)
	if !f.From.IsZero() {
		args = append(args, f.From)
		where = append(where, fmt.Sprintf("date >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		where = append(where, fmt.Sprintf("date < $%d", len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY date DESC, created_at DESC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

func (s *Store) DeleteExpense(ctx context.Context, id, userID string) error {
	if !validID(id) || !validID(userID) {
		return store.ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) SumByCategory(ctx context.Context, userID string, from, to time.Time) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COALESCE(SUM(amount), 0)
		FROM expenses
		WHERE user_id = $1 AND date >= $2 AND date < $3
		GROUP BY category
	`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var (
			category string
			total    float64
		)
		if err := rows.Scan(&category, &total); err != nil {
			return nil, err
		}
		totals[category] = total
	}
	return totals, rows.Err()
}

func (s *Store) TotalExpenses(ctx context.Context) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount), 0) FROM expenses`).Scan(&total)
	return total, err
}

func (s *Store) ForEachExpense(ctx context.Context, fn func(models.Expense) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT `+expenseColumns+` FROM expenses`)
	if err != nil {
		return err
	}

	// Collect first so fn may write through the same pool without holding a cursor open.
	var all []models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return err
		}
		all = append(all, *e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, e := range all {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) UpdateClassification(ctx context.Context, id, category, typ string) error {
	if !validID(id) {
		return store.ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `UPDATE expenses SET category = $1, type = $2 WHERE id = $3`, category, typ, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}
