package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"dropngo/internal/domain"
)

const locationChannelPrefix = "porter_location:"

// subscriberBuffer is the per-subscriber channel capacity. Slow readers
// drop updates instead of blocking the fan-out.
const subscriberBuffer = 16

// LocationBroker fans porter location updates out over Redis pub/sub.
type LocationBroker struct {
	client *redis.Client
}

// NewLocationBroker creates a new LocationBroker.
func NewLocationBroker(client *redis.Client) *LocationBroker {
	return &LocationBroker{client: client}
}

// Publish sends a location update on the porter's channel.
func (b *LocationBroker) Publish(ctx context.Context, loc *domain.PorterLocation) error {
	data, err := json.Marshal(loc)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, locationChannelPrefix+loc.PorterID, data).Err()
}

// Subscribe returns a channel of updates for porterID. The channel is closed
// when ctx is done or the returned cancel func is called.
func (b *LocationBroker) Subscribe(ctx context.Context, porterID string) (<-chan domain.PorterLocation, func()) {
	ctx, cancel := context.WithCancel(ctx)
	sub := b.client.Subscribe(ctx, locationChannelPrefix+porterID)
	out := make(chan domain.PorterLocation, subscriberBuffer)

	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var loc domain.PorterLocation
				if err := json.Unmarshal([]byte(msg.Payload), &loc); err != nil {
					continue
				}
				select {
				case out <- loc:
				default:
				}
			}
		}
	}()

	return out, cancel
}
