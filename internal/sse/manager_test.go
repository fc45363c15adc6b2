package sse

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terplogapp/terplog-server/internal/domain"
)

func testManager() *Manager {
	return NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// waitForEvent receives one event from the client or fails the test.
func waitForEvent(t *testing.T, client *Client) Event {
	t.Helper()

	select {
	case event := <-client.EventChan:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestManager_ConnectDisconnect(t *testing.T) {
	m := testManager()

	client, err := m.Connect("user_a")
	require.NoError(t, err)
	assert.NotEmpty(t, client.ID)
	assert.Equal(t, "user_a", client.UserID)
	assert.Equal(t, 1, m.ClientCount())
	assert.True(t, m.HasClientsForUser("user_a"))
	assert.False(t, m.HasClientsForUser("user_b"))

	m.Disconnect(client.ID)
	assert.Equal(t, 0, m.ClientCount())
	assert.False(t, m.HasClientsForUser("user_a"))

	// Disconnecting an unknown client is harmless.
	m.Disconnect("sse-nonexistent")
}

func TestManager_BroadcastReachesAll(t *testing.T) {
	m := testManager()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)

	first, err := m.Connect("user_a")
	require.NoError(t, err)
	second, err := m.Connect("user_b")
	require.NoError(t, err)

	// Popular snapshots carry no UserID and reach every connection.
	m.Emit(NewPopularSnapshotEvent([]*domain.PopularStrain{
		{ID: "pop-1", Strain: "Blue Dream", Rating: 5},
	}))

	for _, client := range []*Client{first, second} {
		event := waitForEvent(t, client)
		assert.Equal(t, EventPopularSnapshot, event.Type)
	}
}

func TestManager_UserScopedDelivery(t *testing.T) {
	m := testManager()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)

	mine, err := m.Connect("user_a")
	require.NoError(t, err)
	other, err := m.Connect("user_b")
	require.NoError(t, err)

	m.Emit(NewReviewsSnapshotEvent("user_a", []*domain.Review{
		{ID: "rev-1", OwnerID: "user_a", Strain: "Blue Dream", Rating: 4},
	}))

	event := waitForEvent(t, mine)
	assert.Equal(t, EventReviewsSnapshot, event.Type)

	// user_b never sees user_a's reviews.
	select {
	case leaked := <-other.EventChan:
		t.Fatalf("user_b received user_a's event: %v", leaked.Type)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestManager_EmitToUser(t *testing.T) {
	m := testManager()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)

	client, err := m.Connect("user_a")
	require.NoError(t, err)

	m.EmitToUser("user_a", Event{
		Type:      EventConnected,
		Timestamp: time.Now(),
	})

	event := waitForEvent(t, client)
	assert.Equal(t, EventConnected, event.Type)
}

func TestManager_EmitIgnoresForeignTypes(t *testing.T) {
	m := testManager()

	// Emitting a value that isn't an Event must not panic or queue.
	m.Emit("not an event")
	m.Emit(42)
}

func TestManager_EmitAfterShutdownDropped(t *testing.T) {
	m := testManager()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))

	// Late emits are dropped silently, never panic on the closed channel.
	m.Emit(NewHeartbeatEvent())
}

func TestManager_StartStopClosesClients(t *testing.T) {
	m := testManager()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Start(ctx)
		close(done)
	}()

	client, err := m.Connect("user_a")
	require.NoError(t, err)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("manager did not stop")
	}

	select {
	case <-client.Done:
	case <-time.After(time.Second):
		t.Fatal("client was not closed on shutdown")
	}
	assert.Equal(t, 0, m.ClientCount())
}

func TestManager_ClientsIterator(t *testing.T) {
	m := testManager()

	_, err := m.Connect("user_a")
	require.NoError(t, err)
	_, err = m.Connect("user_b")
	require.NoError(t, err)

	users := make(map[string]bool)
	for client := range m.Clients() {
		users[client.UserID] = true
	}
	assert.Len(t, users, 2)
	assert.True(t, users["user_a"])
	assert.True(t, users["user_b"])
}

func TestNewSnapshotEvents_NilSlices(t *testing.T) {
	// Nil collections become empty arrays so clients can replace state wholesale.
	reviews := NewReviewsSnapshotEvent("user_a", nil)
	data, ok := reviews.Data.(ReviewsSnapshotData)
	require.True(t, ok)
	assert.NotNil(t, data.Reviews)
	assert.Empty(t, data.Reviews)
	assert.Equal(t, "user_a", reviews.UserID)

	popular := NewPopularSnapshotEvent(nil)
	popData, ok := popular.Data.(PopularSnapshotData)
	require.True(t, ok)
	assert.NotNil(t, popData.Strains)
	assert.Empty(t, popData.Strains)
	assert.Empty(t, popular.UserID)
}
