package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fopsmart-server/src/models"
	"fopsmart-server/src/util"
)

var (
	ErrInvalidKind    = errors.New(`transaction type must be "income" or "expense"`)
	ErrInvalidAccount = errors.New("account must be FOP type and belong to you")
	ErrNoFopAccounts  = errors.New("no FOP accounts found, please connect monobank first")
	ErrNotManual      = errors.New("transaction not found or not manually entered")
)

// AddManualTransaction records a user-entered transaction on one of their
// FOP accounts and re-evaluates the limit right away. Bank-ingested rows
// stay immutable; only rows created here can later be edited or deleted,
// and only by their creator.
func (s *Service) AddManualTransaction(ctx context.Context, userID, accountID int64, kind string, amount int64, description, comment string, mcc int, date time.Time) (*models.Transaction, error) {
	if !util.ValidateTransactionKind(kind) {
		return nil, ErrInvalidKind
	}
	if amount == 0 {
		return nil, fmt.Errorf("amount is required")
	}

	var account models.Account
	if accountID != 0 {
		acc, err := s.store.AccountByID(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if acc == nil || acc.UserID != userID || !acc.IsFop {
			return nil, ErrInvalidAccount
		}
		account = *acc
	} else {
		fopAccounts, err := s.store.FopAccounts(ctx, userID)
		if err != nil {
			return nil, err
		}
		if len(fopAccounts) == 0 {
			return nil, ErrNoFopAccounts
		}
		account = fopAccounts[0]
	}

	transaction, err := s.store.CreateManualTransaction(ctx, userID, account, kind, amount, description, comment, mcc, date)
	if err != nil {
		return nil, err
	}

	if err := s.checkAndNotify(ctx, userID, date.Year()); err != nil {
		return transaction, err
	}
	return transaction, nil
}

// UpdateManualTransaction edits a manual row the user owns.
func (s *Service) UpdateManualTransaction(ctx context.Context, userID, transactionID, amount int64, description, comment string, date time.Time) error {
	ok, err := s.store.UpdateManualTransaction(ctx, userID, transactionID, amount, description, comment, date)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotManual
	}

	return s.checkAndNotify(ctx, userID, date.Year())
}

// DeleteManualTransaction removes a manual row the user owns.
func (s *Service) DeleteManualTransaction(ctx context.Context, userID, transactionID int64) error {
	ok, err := s.store.DeleteManualTransaction(ctx, userID, transactionID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotManual
	}

	return s.checkAndNotify(ctx, userID, s.now().Year())
}
