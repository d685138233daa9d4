package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), 1, "payload"))
	assert.NoError(t, n.StartPatternSubscriber(context.Background(), func(uint, string) {}))
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		userID   uint
		expected string
	}{
		{1, "notifications:user:1"},
		{100, "notifications:user:100"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, UserChannel(tt.userID))
		id, ok := ParseUserChannel(tt.expected)
		assert.True(t, ok)
		assert.Equal(t, tt.userID, id)
	}
}

func TestParseUserChannel_Invalid(t *testing.T) {
	t.Parallel()
	for _, ch := range []string{"", "notifications:user:", "notifications:user:abc", "notifications:user:0", "chat:conv:5"} {
		_, ok := ParseUserChannel(ch)
		assert.False(t, ok, ch)
	}
}

func TestHub_RelaysFramesFromOtherInstances(t *testing.T) {
	rdb := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	local := NewNotifier(rdb)
	require.NoError(t, hub.StartWiring(ctx, local))

	client, err := hub.Register(42, nil)
	require.NoError(t, err)

	remote := NewNotifier(rdb)
	require.NoError(t, remote.PublishUser(context.Background(), 42, `{"type":"follow_accepted"}`))

	select {
	case msg := <-client.Send:
		assert.Equal(t, `{"type":"follow_accepted"}`, string(msg))
	case <-time.After(testEventuallyTimeout):
		t.Fatal("expected relayed frame")
	}

	// Frames this instance published were already delivered locally.
	require.NoError(t, local.PublishUser(context.Background(), 42, "own"))
	assert.Never(t, func() bool { return len(client.Send) > 0 }, 20*testPollInterval, testPollInterval)

	_ = hub.Shutdown(context.Background())
}

func TestNotifier_SubscriberStopsOnCancel(t *testing.T) {
	rdb := newTestRedis(t)
	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())

	received := make(chan string, 4)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(_ uint, msg string) { received <- msg }))

	other := NewNotifier(rdb)
	require.NoError(t, other.PublishUser(context.Background(), 1, "before-cancel"))
	assert.Eventually(t, func() bool { return len(received) == 1 }, testEventuallyTimeout, testPollInterval)
	<-received

	cancel()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, other.PublishUser(context.Background(), 1, "after-cancel"))
	assert.Never(t, func() bool { return len(received) > 0 }, 200*time.Millisecond, testPollInterval)
}
