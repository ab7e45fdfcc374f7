package models

import "time"

type Connection struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	TokenEncrypted string     `json:"-"`
	ClientName     string     `json:"client_name"`
	ClientID       string     `json:"client_id"`
	IsActive       bool       `json:"is_active"`
	LastSyncAt     *time.Time `json:"last_sync_at"`
	CreatedAt      time.Time  `json:"created_at"`
}
