package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func drain(c *Client) []string {
	var out []string
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				return out
			}
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestHub_BroadcastTargetsOnlyThatUser(t *testing.T) {
	hub := NewHub()
	a1, err := hub.Register(1, nil)
	require.NoError(t, err)
	a2, err := hub.Register(1, nil)
	require.NoError(t, err)
	b, err := hub.Register(2, nil)
	require.NoError(t, err)

	hub.Broadcast(1, `{"type":"user_followed"}`)

	assert.Equal(t, []string{`{"type":"user_followed"}`}, drain(a1))
	assert.Equal(t, []string{`{"type":"user_followed"}`}, drain(a2))
	assert.Empty(t, drain(b))
	_ = hub.Shutdown(context.Background())
}

func TestHub_PerUserConnectionLimit(t *testing.T) {
	hub := NewHub()
	for i := 0; i < MaxConnsPerUser; i++ {
		_, err := hub.Register(7, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(7, nil)
	assert.ErrorIs(t, err, ErrUserConnLimit)

	_, err = hub.Register(8, nil)
	assert.NoError(t, err)
	assert.Equal(t, MaxConnsPerUser, hub.Connections(7))
	_ = hub.Shutdown(context.Background())
}

func TestHub_UnregisterFreesSlot(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(3, nil)
	require.NoError(t, err)

	hub.UnregisterClient(c)
	hub.UnregisterClient(c)
	assert.Equal(t, 0, hub.Connections(3))

	_, open := <-c.Send
	assert.False(t, open)

	// Sending to a closed client must not panic.
	c.TrySend([]byte("late"))
	_ = hub.Shutdown(context.Background())
}

func TestHub_ShutdownRefusesNewConnections(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(4, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	require.NoError(t, hub.Shutdown(context.Background()))

	_, open := <-c.Send
	assert.False(t, open)
	_, err = hub.Register(4, nil)
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestClient_TrySendDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(5, nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer+5; i++ {
		c.TrySend([]byte("x"))
	}
	assert.Len(t, drain(c), sendBuffer)
	_ = hub.Shutdown(context.Background())
}

func TestEvent_Encode(t *testing.T) {
	t.Parallel()
	msg, err := Event{Type: EventListShared, Payload: map[string]any{"list_id": 9}}.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"list_shared","payload":{"list_id":9}}`, msg)

	_, err = Event{}.Encode()
	assert.Error(t, err)
}
