package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"breadvan-backend/internal/models"
)

// FCMService handles Firebase Cloud Messaging
type FCMService struct {
	client *messaging.Client
	tokens TokenStore
}

func newFCMService(ctx context.Context, tokens TokenStore, opt option.ClientOption) (*FCMService, error) {
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return &FCMService{client: client, tokens: tokens}, nil
}

// NewFCMService creates a new FCM service instance from a credentials file
func NewFCMService(ctx context.Context, credentialsFile string, tokens TokenStore) (*FCMService, error) {
	return newFCMService(ctx, tokens, option.WithCredentialsFile(credentialsFile))
}

// NewFCMServiceFromBase64 creates a new FCM service instance from base64-encoded credentials
// This is useful for cloud deployments where you can't upload files easily
func NewFCMServiceFromBase64(ctx context.Context, credentialsBase64 string, tokens TokenStore) (*FCMService, error) {
	credentialsJSON, err := base64.StdEncoding.DecodeString(credentialsBase64)
	if err != nil {
		return nil, fmt.Errorf("error decoding base64 credentials: %w", err)
	}
	return newFCMService(ctx, tokens, option.WithCredentialsJSON(credentialsJSON))
}

var notificationTitles = map[models.NotificationType]string{
	models.NotificationDriveScheduled: "New Drive Scheduled",
	models.NotificationMenuUpdated:    "Menu Updated",
	models.NotificationETAUpdated:     "ETA Updated",
	models.NotificationArrivalAlert:   "Bread Van Nearby!",
	models.NotificationStopRequested:  "Stop Requested",
	models.NotificationDriveCancelled: "Drive Cancelled",
}

// Notify pushes n to every device the resident registered
func (s *FCMService) Notify(ctx context.Context, residentID string, n *models.Notification) {
	tokens, err := s.tokens.FCMTokens(ctx, residentID)
	if err != nil {
		log.Printf("❌ Failed to load FCM tokens for %s: %v", residentID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	data := map[string]string{
		"type":            string(n.Type),
		"notification_id": n.ID,
	}
	if n.DriveID != nil {
		data["drive_id"] = *n.DriveID
	}
	if err := s.SendMulticast(ctx, tokens, notificationTitles[n.Type], n.Message, data); err != nil {
		log.Printf("❌ FCM push to %s failed: %v", residentID, err)
	}
}

// SendMulticast sends the same message to multiple tokens and forgets tokens
// that FCM reports as unregistered
func (s *FCMService) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					ContentAvailable: true,
					Sound:            "default",
				},
			},
		},
	}

	response, err := s.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending multicast message: %w", err)
	}

	for i, r := range response.Responses {
		if r.Success || !messaging.IsUnregistered(r.Error) {
			continue
		}
		if err := s.tokens.DeleteFCMToken(ctx, tokens[i]); err != nil {
			log.Printf("⚠️  Failed to drop stale FCM token: %v", err)
		}
	}

	log.Printf("✅ Multicast sent: %d success, %d failures", response.SuccessCount, response.FailureCount)
	return nil
}
