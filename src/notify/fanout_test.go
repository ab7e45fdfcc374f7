package notify

import (
	"context"
	"errors"
	"testing"

	"fopsmart-server/src/models"
)

type fakeStore struct {
	notifications []*models.Notification
	sentVia       map[int64][]string
	tokens        []models.PushToken
	deactivated   []string
	createErr     error
	nextID        int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{sentVia: map[int64][]string{}}
}

func (f *fakeStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	n.ID = f.nextID
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakeStore) UpdateSentVia(ctx context.Context, id int64, sentVia []string) error {
	f.sentVia[id] = sentVia
	return nil
}

func (f *fakeStore) ActiveTokens(ctx context.Context, userID int64) ([]models.PushToken, error) {
	return f.tokens, nil
}

func (f *fakeStore) UpsertPushToken(ctx context.Context, userID int64, fcmToken, platform, deviceInfo string) (*models.PushToken, error) {
	t := models.PushToken{UserID: userID, FCMToken: fcmToken, Platform: platform, DeviceInfo: deviceInfo, IsActive: true}
	f.tokens = append(f.tokens, t)
	return &t, nil
}

func (f *fakeStore) DeactivateTokenByPlatform(ctx context.Context, userID int64, platform string) error {
	return nil
}

func (f *fakeStore) DeactivateTokens(ctx context.Context, fcmTokens []string) error {
	f.deactivated = append(f.deactivated, fcmTokens...)
	return nil
}

type fakePusher struct {
	result *MulticastResult
	err    error
	sent   [][]string
}

func (f *fakePusher) SendMulticast(ctx context.Context, tokens []string, msg PushMessage) (*MulticastResult, error) {
	f.sent = append(f.sent, tokens)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestDispatchPersistsInAppFirst(t *testing.T) {
	store := newFakeStore()
	store.tokens = []models.PushToken{{FCMToken: "tok1"}, {FCMToken: "tok2"}}
	pusher := &fakePusher{result: &MulticastResult{SuccessCount: 2}}
	fanout := NewFanout(store, pusher)

	result, err := fanout.Dispatch(context.Background(), 7, "limit_warning", "Попередження", "текст", map[string]string{"status": "warning"}, true)
	if err != nil {
		t.Fatal(err)
	}

	if len(store.notifications) != 1 {
		t.Fatalf("expected 1 in-app notification, got %d", len(store.notifications))
	}
	if !result.PushSent || result.SentCount != 2 || result.TokenCount != 2 {
		t.Errorf("unexpected result: %+v", result)
	}
	if got := store.sentVia[result.Notification.ID]; len(got) != 2 || got[1] != "push" {
		t.Errorf("sent_via not updated to include push: %v", got)
	}
}

func TestDispatchPushFailureDoesNotFailCall(t *testing.T) {
	store := newFakeStore()
	store.tokens = []models.PushToken{{FCMToken: "tok1"}}
	pusher := &fakePusher{err: errors.New("fcm down")}
	fanout := NewFanout(store, pusher)

	result, err := fanout.Dispatch(context.Background(), 7, "sync_complete", "t", "m", nil, true)
	if err != nil {
		t.Fatalf("push failure must not fail dispatch: %v", err)
	}
	if len(store.notifications) != 1 {
		t.Fatal("in-app notification must persist even when push fails")
	}
	if result.PushSent {
		t.Error("push should be reported as not sent")
	}
	if got := store.sentVia[result.Notification.ID]; got != nil {
		t.Errorf("sent_via must stay in_app only, got %v", got)
	}
}

func TestDispatchPartialTokenFailure(t *testing.T) {
	store := newFakeStore()
	store.tokens = []models.PushToken{{FCMToken: "good"}, {FCMToken: "dead"}}
	pusher := &fakePusher{result: &MulticastResult{
		SuccessCount:  1,
		FailureCount:  1,
		InvalidTokens: []string{"dead"},
	}}
	fanout := NewFanout(store, pusher)

	result, err := fanout.Dispatch(context.Background(), 7, "limit_critical", "t", "m", nil, true)
	if err != nil {
		t.Fatal(err)
	}

	if !result.PushSent || result.SentCount != 1 || result.TokenCount != 2 {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(store.deactivated) != 1 || store.deactivated[0] != "dead" {
		t.Errorf("invalid token should be scheduled for deactivation, got %v", store.deactivated)
	}
}

func TestDispatchNoTokens(t *testing.T) {
	store := newFakeStore()
	pusher := &fakePusher{result: &MulticastResult{}}
	fanout := NewFanout(store, pusher)

	result, err := fanout.Dispatch(context.Background(), 7, "custom", "t", "m", nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(pusher.sent) != 0 {
		t.Error("no multicast should happen without tokens")
	}
	if result.PushSent || result.TokenCount != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestDispatchPushDisabled(t *testing.T) {
	store := newFakeStore()
	store.tokens = []models.PushToken{{FCMToken: "tok1"}}
	fanout := NewFanout(store, nil)

	result, err := fanout.Dispatch(context.Background(), 7, "sync_complete", "t", "m", nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(store.notifications) != 1 {
		t.Fatal("in-app notification must persist with push disabled")
	}
	if result.PushSent {
		t.Error("push cannot be sent without a pusher")
	}
}

func TestDispatchSendPushFalse(t *testing.T) {
	store := newFakeStore()
	store.tokens = []models.PushToken{{FCMToken: "tok1"}}
	pusher := &fakePusher{result: &MulticastResult{SuccessCount: 1}}
	fanout := NewFanout(store, pusher)

	if _, err := fanout.Dispatch(context.Background(), 7, "sync_complete", "t", "m", nil, false); err != nil {
		t.Fatal(err)
	}
	if len(pusher.sent) != 0 {
		t.Error("sendPush=false must skip the push channel")
	}
}

func TestRegisterTokenValidation(t *testing.T) {
	fanout := NewFanout(newFakeStore(), nil)

	if _, err := fanout.RegisterToken(context.Background(), 7, "", "android", "{}"); err == nil {
		t.Error("empty token should be rejected")
	}
	if _, err := fanout.RegisterToken(context.Background(), 7, "tok", "blackberry", "{}"); err == nil {
		t.Error("unknown platform should be rejected")
	}
	if _, err := fanout.RegisterToken(context.Background(), 7, "tok", "web", "{}"); err != nil {
		t.Errorf("web platform should be accepted: %v", err)
	}
}
