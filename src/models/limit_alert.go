package models

import "time"

type LimitAlert struct {
	ID                  int64     `json:"id"`
	UserID              int64     `json:"user_id"`
	AlertType           string    `json:"alert_type"`
	ThresholdPercentage int       `json:"threshold_percentage"`
	IncomeAmount        int64     `json:"income_amount"`
	LimitAmount         int64     `json:"limit_amount"`
	PeriodType          string    `json:"period_type"`
	Year                int       `json:"year"`
	Message             string    `json:"message"`
	SentAt              time.Time `json:"sent_at"`
}
