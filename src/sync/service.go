package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"fopsmart-server/src/db"
	"fopsmart-server/src/fop"
	"fopsmart-server/src/models"
	"fopsmart-server/src/monobank"
	"fopsmart-server/src/notify"
	"fopsmart-server/src/util"
)

var (
	ErrNotConnected = errors.New("no active monobank connection")
	ErrNoAccounts   = errors.New("no accounts found, please reconnect monobank")
	// ErrReconnectRequired wraps vault failures: the stored token cannot be
	// decrypted anymore and only a fresh connect can fix it.
	ErrReconnectRequired = errors.New("monobank token unreadable, reconnect required")
	ErrInvalidTokenInput = errors.New("token has invalid format")
)

// Storage is the persistence the orchestrator needs. *db/sql.Store
// implements it against Postgres.
type Storage interface {
	SaveConnection(ctx context.Context, userID int64, tokenEncrypted, clientID, clientName string) (*models.Connection, error)
	ActiveConnection(ctx context.Context, userID int64) (*models.Connection, error)
	ActiveConnections(ctx context.Context) ([]models.Connection, error)
	UpdateConnectionToken(ctx context.Context, userID int64, tokenEncrypted string) error
	UpdateLastSync(ctx context.Context, userID int64) error
	DeactivateConnection(ctx context.Context, userID int64) error

	UpsertAccounts(ctx context.Context, userID, connectionID int64, accounts []monobank.Account) ([]models.Account, error)
	AccountsByUser(ctx context.Context, userID int64) ([]models.Account, error)
	FopAccounts(ctx context.Context, userID int64) ([]models.Account, error)
	AccountByID(ctx context.Context, accountID int64) (*models.Account, error)

	IngestStatement(ctx context.Context, account models.Account, items []monobank.StatementItem) (int, error)
	CreateManualTransaction(ctx context.Context, userID int64, account models.Account, kind string, amount int64, description, comment string, mcc int, date time.Time) (*models.Transaction, error)
	UpdateManualTransaction(ctx context.Context, userID, transactionID, amount int64, description, comment string, date time.Time) (bool, error)
	DeleteManualTransaction(ctx context.Context, userID, transactionID int64) (bool, error)

	RecomputeIncome(ctx context.Context, userID int64, year int) (int64, error)
	IncomeForYear(ctx context.Context, userID int64, year int) (int64, error)
	UsersWithTransactions(ctx context.Context, year int) ([]int64, error)
	FopGroup(ctx context.Context, userID int64) (int, error)

	HasAlert(ctx context.Context, userID int64, year int, alertType string) (bool, error)
	CreateAlert(ctx context.Context, userID int64, year int, alertType string, eval fop.Evaluation, message string) error
}

// BankClient is the external bank API surface the orchestrator consumes.
type BankClient interface {
	GetClientInfo(ctx context.Context, token string) (*monobank.ClientInfo, error)
	GetStatements(ctx context.Context, token, accountID string, from, to int64) ([]monobank.StatementItem, error)
}

// TokenVault encrypts connection tokens at rest.
type TokenVault interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(blob string) (string, error)
}

// Notifier fans a notification out to the in-app and push channels.
type Notifier interface {
	Dispatch(ctx context.Context, userID int64, typ, title, message string, data map[string]string, sendPush bool) (*notify.DispatchResult, error)
}

// Service runs the reconcile pipeline: fetch statements, ingest, recompute
// income, evaluate the tier ceiling, fire deduplicated alerts. All
// collaborators are injected; the service holds no hidden global state.
type Service struct {
	store   Storage
	bank    BankClient
	vault   TokenVault
	fanout  Notifier
	cache   *db.ClientInfoCache
	overlap time.Duration
	now     func() time.Time
}

func New(store Storage, bank BankClient, vault TokenVault, fanout Notifier, cache *db.ClientInfoCache, overlapDays int) *Service {
	return &Service{
		store:   store,
		bank:    bank,
		vault:   vault,
		fanout:  fanout,
		cache:   cache,
		overlap: time.Duration(overlapDays) * 24 * time.Hour,
		now:     time.Now,
	}
}

// ConnectResult reports a fresh connection and the accounts it brought in.
type ConnectResult struct {
	Connection *models.Connection `json:"connection"`
	Accounts   []models.Account   `json:"accounts"`
}

// Connect validates the token against the bank, encrypts it, and stores the
// connection together with its accounts. The plaintext token lives only in
// memory for the duration of this call.
func (s *Service) Connect(ctx context.Context, userID int64, token string) (*ConnectResult, error) {
	if !util.ValidateMonobankToken(token) {
		return nil, ErrInvalidTokenInput
	}

	info, err := s.bank.GetClientInfo(ctx, token)
	if err != nil {
		return nil, err
	}

	encrypted, err := s.vault.Encrypt(token)
	if err != nil {
		return nil, fmt.Errorf("encrypt token: %w", err)
	}

	conn, err := s.store.SaveConnection(ctx, userID, encrypted, info.ClientID, info.Name)
	if err != nil {
		return nil, fmt.Errorf("save connection: %w", err)
	}

	accounts, err := s.store.UpsertAccounts(ctx, userID, conn.ID, info.Accounts)
	if err != nil {
		return nil, fmt.Errorf("save accounts: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(userID, info)
	}

	log.Printf("INFO: Monobank connected for user %d, client %s, %d accounts", userID, info.ClientID, len(accounts))
	return &ConnectResult{Connection: conn, Accounts: accounts}, nil
}

// ClientInfo returns the user's bank profile, served from the 60-second
// cache when fresh so repeated calls do not burn the upstream rate limit.
func (s *Service) ClientInfo(ctx context.Context, userID int64) (*monobank.ClientInfo, error) {
	if s.cache != nil {
		if info, ok := s.cache.Get(userID); ok {
			return info, nil
		}
	}

	token, _, err := s.token(ctx, userID)
	if err != nil {
		return nil, err
	}

	info, err := s.bank.GetClientInfo(ctx, token)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(userID, info)
	}
	return info, nil
}

// UpdateToken re-encrypts a replacement token after verifying it upstream.
func (s *Service) UpdateToken(ctx context.Context, userID int64, token string) error {
	if !util.ValidateMonobankToken(token) {
		return ErrInvalidTokenInput
	}

	if _, err := s.bank.GetClientInfo(ctx, token); err != nil {
		return err
	}

	encrypted, err := s.vault.Encrypt(token)
	if err != nil {
		return fmt.Errorf("encrypt token: %w", err)
	}

	if err := s.store.UpdateConnectionToken(ctx, userID, encrypted); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Del(userID)
	}
	return nil
}

// Disconnect soft-deletes the connection and its accounts.
func (s *Service) Disconnect(ctx context.Context, userID int64) error {
	conn, err := s.store.ActiveConnection(ctx, userID)
	if err != nil {
		return err
	}
	if conn == nil {
		return ErrNotConnected
	}

	if err := s.store.DeactivateConnection(ctx, userID); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Del(userID)
	}

	log.Printf("INFO: Monobank disconnected for user %d", userID)
	return nil
}

// token decrypts the stored connection token. Vault failures are terminal
// for the calling operation and surface as "reconnect required".
func (s *Service) token(ctx context.Context, userID int64) (string, *models.Connection, error) {
	conn, err := s.store.ActiveConnection(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	if conn == nil {
		return "", nil, ErrNotConnected
	}

	token, err := s.vault.Decrypt(conn.TokenEncrypted)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrReconnectRequired, err)
	}
	return token, conn, nil
}

// CheckLimit evaluates the stored income snapshot against the user's tier
// without touching the bank.
func (s *Service) CheckLimit(ctx context.Context, userID int64, year int) (fop.Evaluation, error) {
	group, err := s.store.FopGroup(ctx, userID)
	if err != nil {
		return fop.Evaluation{}, err
	}
	if group == 0 {
		return fop.Evaluation{HasLimit: false}, nil
	}

	income, err := s.store.IncomeForYear(ctx, userID, year)
	if err != nil {
		return fop.Evaluation{}, err
	}

	return fop.Evaluate(group, income)
}
