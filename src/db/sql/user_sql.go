package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"fopsmart-server/src/fop"
)

// FopGroup returns the user's configured simplified-taxation tier, or 0
// when none is set (no limit monitoring for that user).
func (s *Store) FopGroup(ctx context.Context, userID int64) (int, error) {
	query := `
		SELECT COALESCE(fop_group, 0)
		FROM users
		WHERE id = $1
	`

	var group int
	err := s.Pool.QueryRow(ctx, query, userID).Scan(&group)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return group, nil
}

// SetFopGroup validates and stores the user's tier choice.
func (s *Store) SetFopGroup(ctx context.Context, userID int64, group int) error {
	if _, err := fop.LimitForGroup(group); err != nil {
		return err
	}

	query := `
		UPDATE users
		SET fop_group = $1, updated_at = NOW()
		WHERE id = $2
	`
	_, err := s.Pool.Exec(ctx, query, group, userID)
	return err
}
