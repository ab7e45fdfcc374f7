package notify

import (
	"context"
	"fmt"
	"log"

	"fopsmart-server/src/models"
	"fopsmart-server/src/util"
)

// PushMessage is what a Pusher delivers to devices.
type PushMessage struct {
	Type  string
	Title string
	Body  string
	Data  map[string]string
}

// MulticastResult reports one batched push request. Per-token failures are
// independent; InvalidTokens lists tokens the provider rejected as
// permanently dead.
type MulticastResult struct {
	SuccessCount  int
	FailureCount  int
	InvalidTokens []string
}

// Pusher is the push-delivery provider, batched send with per-token result
// reporting. Implemented by FCMPusher; nil-able for deployments without push.
type Pusher interface {
	SendMulticast(ctx context.Context, tokens []string, msg PushMessage) (*MulticastResult, error)
}

// TokenStore is the slice of persistence the fanout needs.
type TokenStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	UpdateSentVia(ctx context.Context, notificationID int64, sentVia []string) error
	ActiveTokens(ctx context.Context, userID int64) ([]models.PushToken, error)
	UpsertPushToken(ctx context.Context, userID int64, fcmToken, platform, deviceInfo string) (*models.PushToken, error)
	DeactivateTokenByPlatform(ctx context.Context, userID int64, platform string) error
	DeactivateTokens(ctx context.Context, fcmTokens []string) error
}

// DispatchResult tells the caller what happened without a second round trip.
type DispatchResult struct {
	Notification *models.Notification
	PushSent     bool
	SentCount    int
	TokenCount   int
}

// Fanout persists in-app notifications and best-effort pushes them to every
// registered device.
type Fanout struct {
	store  TokenStore
	pusher Pusher
}

func NewFanout(store TokenStore, pusher Pusher) *Fanout {
	return &Fanout{store: store, pusher: pusher}
}

// Dispatch writes the in-app notification row first; that row is the
// durable source of truth for "was this user notified". Push delivery is
// attempted afterward and its failure never rolls back or fails the call.
func (f *Fanout) Dispatch(ctx context.Context, userID int64, typ, title, message string, data map[string]string, sendPush bool) (*DispatchResult, error) {
	notification := &models.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
		Data:    data,
		SentVia: []string{"in_app"},
	}
	if err := f.store.CreateNotification(ctx, notification); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	result := &DispatchResult{Notification: notification}

	if !sendPush || f.pusher == nil {
		return result, nil
	}

	tokens, err := f.store.ActiveTokens(ctx, userID)
	if err != nil {
		log.Printf("ERROR: Failed to load push tokens for user %d: %v", userID, err)
		return result, nil
	}
	if len(tokens) == 0 {
		return result, nil
	}
	result.TokenCount = len(tokens)

	fcmTokens := make([]string, len(tokens))
	for i, t := range tokens {
		fcmTokens[i] = t.FCMToken
	}

	pushResult, err := f.pusher.SendMulticast(ctx, fcmTokens, PushMessage{
		Type:  typ,
		Title: title,
		Body:  message,
		Data:  data,
	})
	if err != nil {
		log.Printf("ERROR: Push delivery failed for user %d: %v", userID, err)
		return result, nil
	}

	result.SentCount = pushResult.SuccessCount
	result.PushSent = pushResult.SuccessCount > 0

	if len(pushResult.InvalidTokens) > 0 {
		if err := f.store.DeactivateTokens(ctx, pushResult.InvalidTokens); err != nil {
			log.Printf("ERROR: Failed to deactivate %d invalid push tokens: %v", len(pushResult.InvalidTokens), err)
		}
	}

	if result.PushSent {
		if err := f.store.UpdateSentVia(ctx, notification.ID, []string{"in_app", "push"}); err != nil {
			log.Printf("ERROR: Failed to update sent_via for notification %d: %v", notification.ID, err)
		} else {
			notification.SentVia = []string{"in_app", "push"}
		}
	}

	return result, nil
}

// RegisterToken stores a device token, one active per (user, platform).
func (f *Fanout) RegisterToken(ctx context.Context, userID int64, fcmToken, platform, deviceInfo string) (*models.PushToken, error) {
	if fcmToken == "" {
		return nil, fmt.Errorf("fcm token is required")
	}
	if !util.ValidatePlatform(platform) {
		return nil, fmt.Errorf("invalid platform %q", platform)
	}
	return f.store.UpsertPushToken(ctx, userID, fcmToken, platform, deviceInfo)
}

// UnregisterToken deactivates the user's token for one platform.
func (f *Fanout) UnregisterToken(ctx context.Context, userID int64, platform string) error {
	if !util.ValidatePlatform(platform) {
		return fmt.Errorf("invalid platform %q", platform)
	}
	return f.store.DeactivateTokenByPlatform(ctx, userID, platform)
}
