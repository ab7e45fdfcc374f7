package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"fopsmart-server/src/models"
)

// RecomputeIncome rebuilds the user's annual income snapshot from scratch:
// the sum of positive amounts on FOP accounts within the calendar year.
// The snapshot is wholesale-overwritten, never incrementally accumulated,
// so duplicated or partial ingestion can never make it drift. Concurrent
// recomputes are last-write-wins.
func (s *Store) RecomputeIncome(ctx context.Context, userID int64, year int) (int64, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	incomeQuery := `
		SELECT COALESCE(SUM(t.amount), 0)
		FROM transactions t
		JOIN accounts a ON t.account_id = a.id
		WHERE t.user_id = $1
		  AND a.is_fop = true
		  AND t.amount > 0
		  AND EXTRACT(YEAR FROM t.transaction_date) = $2
	`

	var total int64
	if err := tx.QueryRow(ctx, incomeQuery, userID, year).Scan(&total); err != nil {
		return 0, err
	}

	upsertQuery := `
		INSERT INTO income_tracking (user_id, year, total_income)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, year) DO UPDATE SET
			total_income = EXCLUDED.total_income,
			updated_at = NOW()
	`
	if _, err := tx.Exec(ctx, upsertQuery, userID, year, total); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return total, nil
}

// IncomeForYear reads the stored snapshot; zero when none exists yet.
func (s *Store) IncomeForYear(ctx context.Context, userID int64, year int) (int64, error) {
	query := `
		SELECT total_income
		FROM income_tracking
		WHERE user_id = $1 AND year = $2
	`

	var total int64
	err := s.Pool.QueryRow(ctx, query, userID, year).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return total, nil
}

// UsersWithTransactions lists users that have any transaction in the year,
// for the scheduler-driven bulk recompute.
func (s *Store) UsersWithTransactions(ctx context.Context, year int) ([]int64, error) {
	query := `
		SELECT DISTINCT user_id
		FROM transactions
		WHERE EXTRACT(YEAR FROM transaction_date) = $1
	`

	rows, err := s.Pool.Query(ctx, query, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var userIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		userIDs = append(userIDs, id)
	}

	return userIDs, rows.Err()
}

// IncomeHistory returns the user's stored annual snapshots, newest year
// first.
func (s *Store) IncomeHistory(ctx context.Context, userID int64) ([]models.IncomeSnapshot, error) {
	query := `
		SELECT user_id, year, total_income, updated_at
		FROM income_tracking
		WHERE user_id = $1
		ORDER BY year DESC
	`

	rows, err := s.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []models.IncomeSnapshot
	for rows.Next() {
		var snap models.IncomeSnapshot
		if err := rows.Scan(&snap.UserID, &snap.Year, &snap.TotalIncome, &snap.UpdatedAt); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, rows.Err()
}
