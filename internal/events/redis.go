package events

import (
	"context"

	"go-bookstore-ws/internal/ws"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisPublisher fans events out to every instance through a redis channel.
// Each instance runs Relay to forward the channel into its own hub.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	msg, err := encode(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, p.channel, msg).Err()
}

// Relay blocks until ctx ends, forwarding channel messages into hub.
func Relay(ctx context.Context, rdb *redis.Client, channel string, hub *ws.Hub, log *logrus.Logger) {
	sub := rdb.Subscribe(ctx, channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				log.WithField("channel", channel).Warn("redis relay channel closed")
				return
			}
			select {
			case hub.Broadcast <- []byte(msg.Payload):
			case <-ctx.Done():
				return
			}
		}
	}
}
