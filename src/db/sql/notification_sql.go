package db

import (
	"context"

	"fopsmart-server/src/models"
)

// CreateNotification persists the in-app notification row. This row is the
// durable record that the user was notified; push delivery happens after
// and never touches it on failure.
func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, type, title, message, data, sent_via)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	if n.Data == nil {
		n.Data = map[string]string{}
	}
	if len(n.SentVia) == 0 {
		n.SentVia = []string{"in_app"}
	}

	return s.Pool.QueryRow(ctx, query,
		n.UserID, n.Type, n.Title, n.Message, n.Data, n.SentVia,
	).Scan(&n.ID, &n.CreatedAt)
}

// UpdateSentVia records which channels actually delivered, after fanout.
func (s *Store) UpdateSentVia(ctx context.Context, notificationID int64, sentVia []string) error {
	query := `
		UPDATE notifications
		SET sent_via = $1
		WHERE id = $2
	`
	_, err := s.Pool.Exec(ctx, query, sentVia, notificationID)
	return err
}

func (s *Store) NotificationsByUser(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, type, title, message, data, sent_via, is_read, read_at, created_at
		FROM notifications
		WHERE user_id = $1
	`
	if unreadOnly {
		query += ` AND is_read = false`
	}
	query += `
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.Pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Data, &n.SentVia, &n.IsRead, &n.ReadAt, &n.CreatedAt)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

func (s *Store) UnreadCount(ctx context.Context, userID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM notifications
		WHERE user_id = $1 AND is_read = false
	`

	var count int
	if err := s.Pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, notificationID int64) (bool, error) {
	query := `
		UPDATE notifications
		SET is_read = true, read_at = NOW()
		WHERE id = $1 AND user_id = $2 AND is_read = false
	`

	tag, err := s.Pool.Exec(ctx, query, notificationID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID int64) (int, error) {
	query := `
		UPDATE notifications
		SET is_read = true, read_at = NOW()
		WHERE user_id = $1 AND is_read = false
	`

	tag, err := s.Pool.Exec(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) DeleteNotification(ctx context.Context, userID, notificationID int64) (bool, error) {
	query := `
		DELETE FROM notifications
		WHERE id = $1 AND user_id = $2
	`

	tag, err := s.Pool.Exec(ctx, query, notificationID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
