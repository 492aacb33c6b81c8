package events

import (
	"encoding/json"
	"testing"
	"time"

	"campusportal/pkg/domain"
)

func TestRoutingKey(t *testing.T) {
	if got := RoutingKey(domain.Notification{Type: domain.NotificationSuccess}); got != "notification.success" {
		t.Fatalf("unexpected routing key %q", got)
	}
	if got := RoutingKey(domain.Notification{}); got != "notification.info" {
		t.Fatalf("blank type should route as info, got %q", got)
	}
}

func TestEncodeNotificationCarriesMetadata(t *testing.T) {
	at := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	n := domain.Notification{
		ID:       "n-1",
		UserID:   "u-1",
		Message:  "New Meeting",
		Type:     domain.NotificationInfo,
		Metadata: &domain.NotificationMetadata{MeetingID: "m-1"},
	}
	body, err := EncodeNotification(n, at)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var ev NotificationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Event != "notification.created" || ev.Notification.UserID != "u-1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Metadata == nil || ev.Metadata.MeetingID != "m-1" {
		t.Fatalf("expected meeting metadata, got %+v", ev.Metadata)
	}
	if !ev.PublishedAt.Equal(at) {
		t.Fatalf("unexpected publishedAt %v", ev.PublishedAt)
	}
}

func TestNewAMQPPublisherRequiresURL(t *testing.T) {
	if _, err := NewAMQPPublisher("  ", ""); err == nil {
		t.Fatalf("expected error for empty url")
	}
}
