package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/google/uuid"

	"fopsmart-server/src/fop"
	"fopsmart-server/src/monobank"
)

// AccountError is one account's failure inside a multi-account sync.
type AccountError struct {
	AccountID string `json:"account_id"`
	Err       error  `json:"-"`
}

func (e AccountError) Error() string {
	return fmt.Sprintf("account %s: %v", e.AccountID, e.Err)
}

// Result aggregates one user's sync run. AccountsProcessed counts accounts
// that ingested successfully; every failed account has an entry in Errors.
type Result struct {
	Synced            int            `json:"synced_transactions"`
	AccountsProcessed int            `json:"accounts_processed"`
	Errors            []AccountError `json:"errors,omitempty"`
}

// RateLimited reports whether any account hit the upstream rate limit, so
// a caller can back off instead of busy-retrying.
func (r *Result) RateLimited() bool {
	for _, e := range r.Errors {
		if errors.Is(e.Err, monobank.ErrRateLimited) {
			return true
		}
	}
	return false
}

// SyncUser reconciles one user's bank history. Per-account ingestion errors
// are collected, never fatal to siblings: an expired token on one account
// still lets every other account land. The statement window deliberately
// re-pulls the trailing overlap on every run; idempotent insert makes the
// repetition safe, so no ingestion cursor is kept.
func (s *Service) SyncUser(ctx context.Context, userID int64) (*Result, error) {
	runID := uuid.NewString()[:8]

	token, _, err := s.token(ctx, userID)
	if err != nil {
		return nil, err
	}

	accounts, err := s.store.AccountsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}

	now := s.now()
	to := now.Unix()
	from := now.Add(-s.overlap).Unix()

	result := &Result{}
	for _, account := range accounts {
		items, err := s.bank.GetStatements(ctx, token, account.ExternalID, from, to)
		if err != nil {
			log.Printf("ERROR: [sync %s] Failed to fetch statements for user %d, account %s: %v", runID, userID, account.ExternalID, err)
			result.Errors = append(result.Errors, AccountError{AccountID: account.ExternalID, Err: err})
			continue
		}

		inserted, err := s.store.IngestStatement(ctx, account, items)
		if err != nil {
			log.Printf("ERROR: [sync %s] Failed to ingest statements for user %d, account %s: %v", runID, userID, account.ExternalID, err)
			result.Errors = append(result.Errors, AccountError{AccountID: account.ExternalID, Err: err})
			continue
		}

		result.Synced += inserted
		result.AccountsProcessed++
	}

	if err := s.store.UpdateLastSync(ctx, userID); err != nil {
		log.Printf("ERROR: [sync %s] Failed to update last sync for user %d: %v", runID, userID, err)
	}

	if err := s.checkAndNotify(ctx, userID, now.Year()); err != nil {
		return result, err
	}

	if result.Synced > 0 && s.fanout != nil {
		_, err := s.fanout.Dispatch(ctx, userID,
			"sync_complete",
			"Синхронізація завершена",
			fmt.Sprintf("Оброблено %d нових транзакцій з Monobank", result.Synced),
			map[string]string{"transactionCount": strconv.Itoa(result.Synced)},
			false,
		)
		if err != nil {
			log.Printf("ERROR: [sync %s] Failed to create sync notification for user %d: %v", runID, userID, err)
		}
	}

	log.Printf("INFO: [sync %s] User %d: %d transactions, %d/%d accounts ok", runID, userID, result.Synced, result.AccountsProcessed, len(accounts))
	return result, nil
}

// checkAndNotify recomputes the authoritative annual income, evaluates the
// tier ceiling, and fires the one-shot alert when a threshold was crossed
// for the first time this year. A bad tier configuration is fatal to the
// operation; a fanout failure is not.
func (s *Service) checkAndNotify(ctx context.Context, userID int64, year int) error {
	total, err := s.store.RecomputeIncome(ctx, userID, year)
	if err != nil {
		return fmt.Errorf("recompute income: %w", err)
	}

	group, err := s.store.FopGroup(ctx, userID)
	if err != nil {
		return err
	}
	if group == 0 {
		return nil
	}

	eval, err := fop.Evaluate(group, total)
	if err != nil {
		return err
	}

	alertType := fop.AlertTypeFor(eval)
	if alertType == "" {
		return nil
	}

	fired, err := s.store.HasAlert(ctx, userID, year, alertType)
	if err != nil {
		return err
	}
	if fired {
		return nil
	}

	message := fop.AlertMessage(alertType, eval)
	if err := s.store.CreateAlert(ctx, userID, year, alertType, eval, message); err != nil {
		return fmt.Errorf("record alert: %w", err)
	}

	if s.fanout != nil {
		typ, title, body := fop.NotificationFor(alertType, eval)
		if _, err := s.fanout.Dispatch(ctx, userID, typ, title, body, fop.NotificationData(eval), true); err != nil {
			log.Printf("ERROR: Failed to dispatch %s alert for user %d: %v", alertType, userID, err)
		}
	}

	return nil
}

// SyncAll sweeps every active connection, isolating per-user failures.
// Used by the scheduler; returns how many users synced and how many failed.
func (s *Service) SyncAll(ctx context.Context) (synced, failed int) {
	conns, err := s.store.ActiveConnections(ctx)
	if err != nil {
		log.Printf("ERROR: Failed to list active connections: %v", err)
		return 0, 0
	}

	for _, conn := range conns {
		if ctx.Err() != nil {
			return synced, failed
		}

		result, err := s.SyncUser(ctx, conn.UserID)
		if err != nil {
			log.Printf("ERROR: Sync failed for user %d: %v", conn.UserID, err)
			failed++
			continue
		}
		synced++

		if result.RateLimited() {
			log.Printf("INFO: User %d hit the monobank rate limit, remaining accounts retry next sweep", conn.UserID)
		}
	}

	return synced, failed
}

// RecomputeAllIncomes rebuilds the annual snapshot for every user with
// activity this year, without touching the bank.
func (s *Service) RecomputeAllIncomes(ctx context.Context) error {
	year := s.now().Year()

	userIDs, err := s.store.UsersWithTransactions(ctx, year)
	if err != nil {
		return err
	}

	for _, userID := range userIDs {
		if _, err := s.store.RecomputeIncome(ctx, userID, year); err != nil {
			log.Printf("ERROR: Failed to recompute income for user %d: %v", userID, err)
		}
	}
	return nil
}
