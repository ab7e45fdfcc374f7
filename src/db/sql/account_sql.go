package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"fopsmart-server/src/models"
	"fopsmart-server/src/monobank"
)

// UpsertAccounts stores the accounts reported by client-info as one batch
// inside a transaction. Existing rows refresh balance and credit limit,
// keyed by (user_id, external_id).
func (s *Store) UpsertAccounts(ctx context.Context, userID, connectionID int64, accounts []monobank.Account) ([]models.Account, error) {
	if len(accounts) == 0 {
		return nil, nil
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO accounts
		(user_id, connection_id, external_id, balance, credit_limit, currency_code,
		 cashback_type, iban, account_type, masked_pan, is_fop, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, true)
		ON CONFLICT (user_id, external_id) DO UPDATE SET
			connection_id = EXCLUDED.connection_id,
			balance = EXCLUDED.balance,
			credit_limit = EXCLUDED.credit_limit,
			is_active = true,
			updated_at = NOW()
		RETURNING id, user_id, connection_id, external_id, balance, balance_as_of, credit_limit,
		          currency_code, cashback_type, iban, account_type, masked_pan, is_fop, is_active, created_at
	`

	batch := &pgx.Batch{}
	for _, acc := range accounts {
		maskedPan := ""
		if len(acc.MaskedPan) > 0 {
			maskedPan = acc.MaskedPan[0]
		}
		batch.Queue(query,
			userID,
			connectionID,
			acc.ID,
			acc.Balance,
			acc.CreditLimit,
			acc.CurrencyCode,
			acc.CashbackType,
			acc.IBAN,
			acc.Type,
			maskedPan,
			acc.Type == "fop",
		)
	}

	br := tx.SendBatch(ctx, batch)
	saved := make([]models.Account, 0, len(accounts))
	for range accounts {
		var a models.Account
		err := br.QueryRow().Scan(
			&a.ID, &a.UserID, &a.ConnectionID, &a.ExternalID, &a.Balance, &a.BalanceAsOf, &a.CreditLimit,
			&a.CurrencyCode, &a.CashbackType, &a.IBAN, &a.AccountType, &a.MaskedPan, &a.IsFop, &a.IsActive, &a.CreatedAt)
		if err != nil {
			br.Close()
			return nil, err
		}
		saved = append(saved, a)
	}
	if err := br.Close(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *Store) AccountsByUser(ctx context.Context, userID int64) ([]models.Account, error) {
	query := `
		SELECT id, user_id, connection_id, external_id, balance, balance_as_of, credit_limit,
		       currency_code, cashback_type, iban, account_type, masked_pan, is_fop, is_active, created_at
		FROM accounts
		WHERE user_id = $1 AND is_active = true
		ORDER BY created_at DESC
	`

	rows, err := s.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		err := rows.Scan(
			&a.ID, &a.UserID, &a.ConnectionID, &a.ExternalID, &a.Balance, &a.BalanceAsOf, &a.CreditLimit,
			&a.CurrencyCode, &a.CashbackType, &a.IBAN, &a.AccountType, &a.MaskedPan, &a.IsFop, &a.IsActive, &a.CreatedAt)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}

// FopAccounts returns the user's active FOP-flagged accounts, used when a
// manual transaction does not name an account.
func (s *Store) FopAccounts(ctx context.Context, userID int64) ([]models.Account, error) {
	query := `
		SELECT id, user_id, connection_id, external_id, balance, balance_as_of, credit_limit,
		       currency_code, cashback_type, iban, account_type, masked_pan, is_fop, is_active, created_at
		FROM accounts
		WHERE user_id = $1 AND is_fop = true AND is_active = true
		ORDER BY created_at
	`

	rows, err := s.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		err := rows.Scan(
			&a.ID, &a.UserID, &a.ConnectionID, &a.ExternalID, &a.Balance, &a.BalanceAsOf, &a.CreditLimit,
			&a.CurrencyCode, &a.CashbackType, &a.IBAN, &a.AccountType, &a.MaskedPan, &a.IsFop, &a.IsActive, &a.CreatedAt)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}

func (s *Store) AccountByID(ctx context.Context, accountID int64) (*models.Account, error) {
	query := `
		SELECT id, user_id, connection_id, external_id, balance, balance_as_of, credit_limit,
		       currency_code, cashback_type, iban, account_type, masked_pan, is_fop, is_active, created_at
		FROM accounts
		WHERE id = $1 AND is_active = true
	`

	var a models.Account
	err := s.Pool.QueryRow(ctx, query, accountID).Scan(
		&a.ID, &a.UserID, &a.ConnectionID, &a.ExternalID, &a.Balance, &a.BalanceAsOf, &a.CreditLimit,
		&a.CurrencyCode, &a.CashbackType, &a.IBAN, &a.AccountType, &a.MaskedPan, &a.IsFop, &a.IsActive, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
