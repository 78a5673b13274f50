// Package notify delivers user notifications over log, email and push channels.
package notify

import (
	"context"
	"time"
)

// Notification is a message addressed to one user.
type Notification struct {
	Type           string
	RecipientID    string
	RecipientEmail string
	Title          string
	Message        string
	Data           map[string]string
	CreatedAt      time.Time
}

// Channel delivers notifications over one medium.
type Channel interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}
