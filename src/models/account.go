package models

import "time"

type Account struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	ConnectionID int64     `json:"connection_id"`
	ExternalID   string    `json:"external_id"`
	Balance      int64     `json:"balance"`
	BalanceAsOf  int64     `json:"balance_as_of"`
	CreditLimit  int64     `json:"credit_limit"`
	CurrencyCode int       `json:"currency_code"`
	CashbackType string    `json:"cashback_type"`
	IBAN         string    `json:"iban"`
	AccountType  string    `json:"account_type"`
	MaskedPan    string    `json:"masked_pan"`
	IsFop        bool      `json:"is_fop"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
