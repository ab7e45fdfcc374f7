package models

import "time"

type PushToken struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	FCMToken   string    `json:"fcm_token"`
	Platform   string    `json:"platform"`
	DeviceInfo string    `json:"device_info"`
	IsActive   bool      `json:"is_active"`
	LastUsedAt time.Time `json:"last_used_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
