package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"fopsmart-server/src/models"
)

// SaveConnection stores or replaces the user's Monobank connection. The
// token arrives already encrypted; plaintext never reaches this layer.
func (s *Store) SaveConnection(ctx context.Context, userID int64, tokenEncrypted, clientID, clientName string) (*models.Connection, error) {
	query := `
		INSERT INTO monobank_connections (user_id, token_encrypted, client_id, client_name, is_active)
		VALUES ($1, $2, $3, $4, true)
		ON CONFLICT (user_id) DO UPDATE SET
			token_encrypted = EXCLUDED.token_encrypted,
			client_id = EXCLUDED.client_id,
			client_name = EXCLUDED.client_name,
			is_active = true,
			updated_at = NOW()
		RETURNING id, user_id, client_name, client_id, is_active, last_sync_at, created_at
	`

	var conn models.Connection
	err := s.Pool.QueryRow(ctx, query, userID, tokenEncrypted, clientID, clientName).Scan(
		&conn.ID, &conn.UserID, &conn.ClientName, &conn.ClientID, &conn.IsActive, &conn.LastSyncAt, &conn.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// ActiveConnection returns the user's active connection, or nil when the
// user never connected or has disconnected.
func (s *Store) ActiveConnection(ctx context.Context, userID int64) (*models.Connection, error) {
	query := `
		SELECT id, user_id, token_encrypted, client_name, client_id, is_active, last_sync_at, created_at
		FROM monobank_connections
		WHERE user_id = $1 AND is_active = true
	`

	var conn models.Connection
	err := s.Pool.QueryRow(ctx, query, userID).Scan(
		&conn.ID, &conn.UserID, &conn.TokenEncrypted, &conn.ClientName, &conn.ClientID, &conn.IsActive, &conn.LastSyncAt, &conn.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// ActiveConnections lists every active connection, for the scheduler sweep.
func (s *Store) ActiveConnections(ctx context.Context) ([]models.Connection, error) {
	query := `
		SELECT id, user_id, token_encrypted, client_name, client_id, is_active, last_sync_at, created_at
		FROM monobank_connections
		WHERE is_active = true
		ORDER BY user_id
	`

	rows, err := s.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conns []models.Connection
	for rows.Next() {
		var conn models.Connection
		err := rows.Scan(&conn.ID, &conn.UserID, &conn.TokenEncrypted, &conn.ClientName, &conn.ClientID, &conn.IsActive, &conn.LastSyncAt, &conn.CreatedAt)
		if err != nil {
			return nil, err
		}
		conns = append(conns, conn)
	}

	return conns, rows.Err()
}

func (s *Store) UpdateConnectionToken(ctx context.Context, userID int64, tokenEncrypted string) error {
	query := `
		UPDATE monobank_connections
		SET token_encrypted = $1, updated_at = NOW()
		WHERE user_id = $2 AND is_active = true
	`
	_, err := s.Pool.Exec(ctx, query, tokenEncrypted, userID)
	return err
}

func (s *Store) UpdateLastSync(ctx context.Context, userID int64) error {
	query := `
		UPDATE monobank_connections
		SET last_sync_at = NOW()
		WHERE user_id = $1 AND is_active = true
	`
	_, err := s.Pool.Exec(ctx, query, userID)
	return err
}

// DeactivateConnection soft-deletes the connection and its accounts. The
// encrypted token stays on the row; it is useless without the secret anyway.
func (s *Store) DeactivateConnection(ctx context.Context, userID int64) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE monobank_connections
		SET is_active = false, updated_at = NOW()
		WHERE user_id = $1 AND is_active = true
	`, userID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE accounts
		SET is_active = false, updated_at = NOW()
		WHERE user_id = $1 AND is_active = true
	`, userID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
