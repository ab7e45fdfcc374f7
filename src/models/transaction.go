package models

import "time"

type Transaction struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	AccountID      int64     `json:"account_id"`
	ExternalID     string    `json:"external_id"`
	Amount         int64     `json:"amount"`
	Balance        int64     `json:"balance"`
	CurrencyCode   int       `json:"currency_code"`
	Description    string    `json:"description"`
	Comment        string    `json:"comment"`
	MCC            int       `json:"mcc"`
	OriginalMCC    int       `json:"original_mcc"`
	Hold           bool      `json:"hold"`
	Time           int64     `json:"time"`
	Date           time.Time `json:"date"`
	CounterIban    string    `json:"counter_iban"`
	CounterName    string    `json:"counter_name"`
	CounterEdrpou  string    `json:"counter_edrpou"`
	ReceiptID      string    `json:"receipt_id"`
	InvoiceID      string    `json:"invoice_id"`
	CashbackAmount int64     `json:"cashback_amount"`
	CommissionRate int64     `json:"commission_rate"`
	IsManual       bool      `json:"is_manual"`
	CreatedAt      time.Time `json:"created_at"`
}
