// Package notifications provides real-time notification delivery over websockets
// with redis pub/sub fan-out between API instances.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const userChannelPrefix = "notifications:user:"

// Notifier publishes notification frames into per-user redis channels.
type Notifier struct {
	rdb    *redis.Client
	origin string
}

// NewNotifier creates a Notifier. A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb, origin: uuid.NewString()}
}

// Origin identifies this process on the shared channels.
func (n *Notifier) Origin() string { return n.origin }

// PublishUser sends a frame to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, message string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	b, err := json.Marshal(envelope{Origin: n.origin, Message: message})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return n.rdb.Publish(ctx, UserChannel(userID), string(b)).Err()
}

// StartPatternSubscriber subscribes to every user channel and calls onMessage for
// frames published by other instances. It returns once the subscription is
// confirmed; delivery stops when ctx is cancelled.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(userID uint, message string),
) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s*: %w", userChannelPrefix, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				n.dispatch(msg.Channel, msg.Payload, onMessage)
			}
		}
	}()

	return nil
}

func (n *Notifier) dispatch(channel, payload string, onMessage func(uint, string)) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in notification subscriber", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
		}
	}()

	userID, ok := ParseUserChannel(channel)
	if !ok {
		slog.Warn("invalid notification channel", slog.String("channel", channel))
		return
	}
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		slog.Warn("malformed notification envelope", slog.String("channel", channel), slog.Any("error", err))
		return
	}
	if env.Origin == n.origin {
		return
	}
	onMessage(userID, env.Message)
}

// UserChannel derives the redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// ParseUserChannel extracts the user id from a channel built by UserChannel.
func ParseUserChannel(channel string) (uint, bool) {
	raw, found := strings.CutPrefix(channel, userChannelPrefix)
	if !found || raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
