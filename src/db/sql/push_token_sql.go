package db

import (
	"context"

	"fopsmart-server/src/models"
)

// UpsertPushToken registers a device token. One active token per
// (user, platform); re-registering replaces the old token.
func (s *Store) UpsertPushToken(ctx context.Context, userID int64, fcmToken, platform, deviceInfo string) (*models.PushToken, error) {
	query := `
		INSERT INTO user_push_tokens (user_id, fcm_token, platform, device_info, is_active, last_used_at)
		VALUES ($1, $2, $3, $4, true, NOW())
		ON CONFLICT (user_id, platform) DO UPDATE SET
			fcm_token = EXCLUDED.fcm_token,
			device_info = EXCLUDED.device_info,
			is_active = true,
			last_used_at = NOW(),
			updated_at = NOW()
		RETURNING id, user_id, fcm_token, platform, device_info, is_active, last_used_at, updated_at
	`

	var t models.PushToken
	err := s.Pool.QueryRow(ctx, query, userID, fcmToken, platform, deviceInfo).Scan(
		&t.ID, &t.UserID, &t.FCMToken, &t.Platform, &t.DeviceInfo, &t.IsActive, &t.LastUsedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) ActiveTokens(ctx context.Context, userID int64) ([]models.PushToken, error) {
	query := `
		SELECT id, user_id, fcm_token, platform, device_info, is_active, last_used_at, updated_at
		FROM user_push_tokens
		WHERE user_id = $1 AND is_active = true
		ORDER BY updated_at DESC
	`

	rows, err := s.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []models.PushToken
	for rows.Next() {
		var t models.PushToken
		err := rows.Scan(&t.ID, &t.UserID, &t.FCMToken, &t.Platform, &t.DeviceInfo, &t.IsActive, &t.LastUsedAt, &t.UpdatedAt)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}

	return tokens, rows.Err()
}

func (s *Store) DeactivateTokenByPlatform(ctx context.Context, userID int64, platform string) error {
	query := `
		UPDATE user_push_tokens
		SET is_active = false, updated_at = NOW()
		WHERE user_id = $1 AND platform = $2
	`
	_, err := s.Pool.Exec(ctx, query, userID, platform)
	return err
}

// DeactivateTokens marks tokens the push provider reported as permanently
// invalid, so future fanouts skip them.
func (s *Store) DeactivateTokens(ctx context.Context, fcmTokens []string) error {
	if len(fcmTokens) == 0 {
		return nil
	}

	query := `
		UPDATE user_push_tokens
		SET is_active = false, updated_at = NOW()
		WHERE fcm_token = ANY($1)
	`
	_, err := s.Pool.Exec(ctx, query, fcmTokens)
	return err
}
