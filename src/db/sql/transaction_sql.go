package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"fopsmart-server/src/models"
	"fopsmart-server/src/monobank"
)

const insertTransactionSQL = `
	INSERT INTO transactions
	(user_id, account_id, external_id, amount, balance, currency_code,
	 description, comment, mcc, original_mcc, hold, time, transaction_date,
	 counter_iban, counter_name, counter_edrpou, receipt_id, invoice_id,
	 cashback_amount, commission_rate, is_manual)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	ON CONFLICT (user_id, external_id) DO NOTHING
`

// IngestStatement writes one account's statement batch as a single atomic
// unit: a batched conflict-as-no-op insert of every row, then a guarded
// refresh of the cached account balance. Re-ingesting an overlapping window
// is a silent no-op per row, so repeated syncs never double-count.
//
// Returns the number of rows actually inserted.
func (s *Store) IngestStatement(ctx context.Context, account models.Account, items []monobank.StatementItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(insertTransactionSQL,
			account.UserID,
			account.ID,
			item.ID,
			item.Amount,
			item.Balance,
			item.CurrencyCode,
			item.Description,
			item.Comment,
			item.MCC,
			item.OriginalMCC,
			item.Hold,
			item.Time,
			time.Unix(item.Time, 0).UTC(),
			item.CounterIban,
			item.CounterName,
			item.CounterEdrpou,
			item.ReceiptID,
			item.InvoiceID,
			item.CashbackAmount,
			item.CommissionRate,
			false,
		)
	}

	br := tx.SendBatch(ctx, batch)
	inserted := 0
	for range items {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return 0, fmt.Errorf("insert transaction batch: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	if err := br.Close(); err != nil {
		return 0, err
	}

	// The batch arrives newest first; its head carries the freshest balance.
	// The predicate refuses a stale or out-of-order batch that would move
	// balance_as_of backwards.
	newest := items[0]
	_, err = tx.Exec(ctx, `
		UPDATE accounts
		SET balance = $1, balance_as_of = $2, updated_at = NOW()
		WHERE id = $3 AND balance_as_of <= $2
	`, newest.Balance, newest.Time, account.ID)
	if err != nil {
		return 0, fmt.Errorf("update account balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return inserted, nil
}

// CreateManualTransaction records a user-entered transaction. The sign is
// forced by kind: income positive, expense negative. Manual rows get a
// synthetic external id so they share the dedup keyspace with bank rows.
func (s *Store) CreateManualTransaction(ctx context.Context, userID int64, account models.Account, kind string, amount int64, description, comment string, mcc int, date time.Time) (*models.Transaction, error) {
	if amount < 0 {
		amount = -amount
	}
	if kind == "expense" {
		amount = -amount
	}

	externalID := fmt.Sprintf("manual_%s", uuid.NewString())

	query := insertTransactionSQL + `
		RETURNING id, created_at
	`

	var t models.Transaction
	err := s.Pool.QueryRow(ctx, query,
		userID,
		account.ID,
		externalID,
		amount,
		account.Balance,
		account.CurrencyCode,
		description,
		comment,
		mcc,
		0,
		false,
		date.Unix(),
		date.UTC(),
		"", "", "", "", "",
		0,
		0,
		true,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	t.UserID = userID
	t.AccountID = account.ID
	t.ExternalID = externalID
	t.Amount = amount
	t.Balance = account.Balance
	t.CurrencyCode = account.CurrencyCode
	t.Description = description
	t.Comment = comment
	t.MCC = mcc
	t.Time = date.Unix()
	t.Date = date.UTC()
	t.IsManual = true
	return &t, nil
}

// UpdateManualTransaction edits a manual row. Bank-ingested rows are
// immutable; the is_manual predicate makes that a no-row match.
func (s *Store) UpdateManualTransaction(ctx context.Context, userID, transactionID, amount int64, description, comment string, date time.Time) (bool, error) {
	query := `
		UPDATE transactions
		SET amount = $1, description = $2, comment = $3, time = $4, transaction_date = $5
		WHERE id = $6 AND user_id = $7 AND is_manual = true
	`

	tag, err := s.Pool.Exec(ctx, query, amount, description, comment, date.Unix(), date.UTC(), transactionID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteManualTransaction removes a manual row owned by the user.
func (s *Store) DeleteManualTransaction(ctx context.Context, userID, transactionID int64) (bool, error) {
	query := `
		DELETE FROM transactions
		WHERE id = $1 AND user_id = $2 AND is_manual = true
	`

	tag, err := s.Pool.Exec(ctx, query, transactionID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// TransactionsByUser lists a user's transactions for a calendar year,
// newest first.
func (s *Store) TransactionsByUser(ctx context.Context, userID int64, year, limit, offset int) ([]models.Transaction, error) {
	query := `
		SELECT id, user_id, account_id, external_id, amount, balance, currency_code,
		       description, comment, mcc, original_mcc, hold, time, transaction_date,
		       counter_iban, counter_name, counter_edrpou, receipt_id, invoice_id,
		       cashback_amount, commission_rate, is_manual, created_at
		FROM transactions
		WHERE user_id = $1 AND EXTRACT(YEAR FROM transaction_date) = $2
		ORDER BY transaction_date DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := s.Pool.Query(ctx, query, userID, year, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		err := rows.Scan(
			&t.ID, &t.UserID, &t.AccountID, &t.ExternalID, &t.Amount, &t.Balance, &t.CurrencyCode,
			&t.Description, &t.Comment, &t.MCC, &t.OriginalMCC, &t.Hold, &t.Time, &t.Date,
			&t.CounterIban, &t.CounterName, &t.CounterEdrpou, &t.ReceiptID, &t.InvoiceID,
			&t.CashbackAmount, &t.CommissionRate, &t.IsManual, &t.CreatedAt)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}

	return transactions, rows.Err()
}
