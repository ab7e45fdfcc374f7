package models

import "time"

// IncomeSnapshot is the authoritative annual income for a user, recomputed
// wholesale from the transaction table on every sync.
type IncomeSnapshot struct {
	UserID      int64     `json:"user_id"`
	Year        int       `json:"year"`
	TotalIncome int64     `json:"total_income"`
	UpdatedAt   time.Time `json:"updated_at"`
}
