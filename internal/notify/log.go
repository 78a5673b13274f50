package notify

import (
	"context"

	"dropngo/internal/logger"
)

// LogChannel writes notifications to the service log.
type LogChannel struct {
	log logger.ILogger
}

// NewLogChannel creates a LogChannel.
func NewLogChannel(log logger.ILogger) *LogChannel {
	return &LogChannel{log: log}
}

// Name identifies the channel in logs and metrics.
func (c *LogChannel) Name() string { return "log" }

// Send logs the notification at info level and never fails.
func (c *LogChannel) Send(_ context.Context, n Notification) error {
	c.log.Info("notification",
		logger.String("type", n.Type),
		logger.String("recipient", n.RecipientID),
		logger.String("title", n.Title),
		logger.String("message", n.Message),
	)
	return nil
}
