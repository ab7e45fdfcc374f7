package db

import (
	"context"

	"fopsmart-server/src/fop"
	"fopsmart-server/src/models"
)

// HasAlert reports whether an alert was ever fired for this exact
// (user, year, alertType). Mere presence suppresses re-firing; there is no
// expiry and no reset within the year.
func (s *Store) HasAlert(ctx context.Context, userID int64, year int, alertType string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM limit_alerts
			WHERE user_id = $1 AND year = $2 AND alert_type = $3
		)
	`

	var exists bool
	err := s.Pool.QueryRow(ctx, query, userID, year, alertType).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// CreateAlert persists the one-shot alert record with its rendered message.
func (s *Store) CreateAlert(ctx context.Context, userID int64, year int, alertType string, eval fop.Evaluation, message string) error {
	query := `
		INSERT INTO limit_alerts
		(user_id, alert_type, threshold_percentage, income_amount, limit_amount, period_type, year, message)
		VALUES ($1, $2, $3, $4, $5, 'annual', $6, $7)
	`

	_, err := s.Pool.Exec(ctx, query,
		userID,
		alertType,
		fop.RoundedPercent(eval),
		eval.CurrentIncome,
		eval.AnnualLimit,
		year,
		message,
	)
	return err
}

// AlertHistory lists the alerts fired for a user in a year, newest first.
func (s *Store) AlertHistory(ctx context.Context, userID int64, year int) ([]models.LimitAlert, error) {
	query := `
		SELECT id, user_id, alert_type, threshold_percentage, income_amount,
		       limit_amount, period_type, year, message, created_at
		FROM limit_alerts
		WHERE user_id = $1 AND year = $2
		ORDER BY created_at DESC
	`

	rows, err := s.Pool.Query(ctx, query, userID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []models.LimitAlert
	for rows.Next() {
		var a models.LimitAlert
		err := rows.Scan(
			&a.ID, &a.UserID, &a.AlertType, &a.ThresholdPercentage, &a.IncomeAmount,
			&a.LimitAmount, &a.PeriodType, &a.Year, &a.Message, &a.SentAt)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}
