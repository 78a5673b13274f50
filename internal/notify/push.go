package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// PushChannel sends notifications with Firebase Cloud Messaging. Each user
// has a topic named by UserTopic that their devices subscribe to.
type PushChannel struct {
	client *messaging.Client
}

// NewPushChannel initialises the Firebase Admin SDK from a service account file.
func NewPushChannel(ctx context.Context, credentialsFile string) (*PushChannel, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("initialising firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialising firebase messaging client: %w", err)
	}
	return &PushChannel{client: client}, nil
}

// UserTopic is the FCM topic a user's devices subscribe to.
func UserTopic(userID string) string {
	return "user-" + userID
}

// Name identifies the channel in logs and metrics.
func (c *PushChannel) Name() string { return "push" }

// Send publishes the notification to the recipient's user topic.
// Notifications without a recipient are skipped.
func (c *PushChannel) Send(ctx context.Context, n Notification) error {
	if n.RecipientID == "" {
		return nil
	}

	data := map[string]string{"type": n.Type}
	for k, v := range n.Data {
		// The OTP stays out of push payloads.
		if k == "otp" {
			continue
		}
		data[k] = v
	}

	msg := &messaging.Message{
		Topic: UserTopic(n.RecipientID),
		Data:  data,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Message,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}

	if _, err := c.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("sending FCM to topic %s: %w", msg.Topic, err)
	}
	return nil
}
