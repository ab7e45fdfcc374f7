package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMPusher delivers pushes through Firebase Cloud Messaging.
type FCMPusher struct {
	client *messaging.Client
}

func NewFCMPusher(ctx context.Context, credentialsFile string) (*FCMPusher, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize fcm client: %w", err)
	}

	return &FCMPusher{client: client}, nil
}

// SendMulticast sends one batched request to every token. Each token
// succeeds or fails on its own; tokens the provider reports as dead come
// back in InvalidTokens for deactivation.
func (p *FCMPusher) SendMulticast(ctx context.Context, tokens []string, msg PushMessage) (*MulticastResult, error) {
	data := map[string]string{"type": msg.Type}
	for k, v := range msg.Data {
		data[k] = v
	}

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "fop_limits",
				Sound:     "default",
				Color:     colorFor(msg.Type),
			},
		},
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Icon:  "/icon-192.png",
				Badge: "/badge-72.png",
				RequireInteraction: strings.Contains(msg.Type, "exceeded") ||
					strings.Contains(msg.Type, "critical"),
			},
		},
	}

	resp, err := p.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("fcm multicast: %w", err)
	}

	result := &MulticastResult{
		SuccessCount: resp.SuccessCount,
		FailureCount: resp.FailureCount,
	}

	for i, r := range resp.Responses {
		if r.Error == nil {
			continue
		}
		log.Printf("ERROR: FCM send failed for token %d of %d: %v", i+1, len(tokens), r.Error)
		if messaging.IsUnregistered(r.Error) || errorutils.IsInvalidArgument(r.Error) {
			result.InvalidTokens = append(result.InvalidTokens, tokens[i])
		}
	}

	return result, nil
}

func colorFor(msgType string) string {
	switch {
	case strings.Contains(msgType, "exceeded"):
		return "#DC2626"
	case strings.Contains(msgType, "critical"):
		return "#F59E0B"
	default:
		return "#10B981"
	}
}
