package zookeeper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManager_EmptyTarget(t *testing.T) {
	fake := newFakeClient()
	session := newSessionManager(fake.connector, time.Second, time.Second)
	t.Cleanup(session.Close)

	err := session.Connect("", func(error) {})
	assert.Error(t, err)
}

func TestSessionManager_LevelTriggered(t *testing.T) {
	fake := newFakeClient()
	session := newSessionManager(fake.connector, time.Second, time.Second)
	t.Cleanup(session.Close)

	results := make(chan error, 16)
	require.NoError(t, session.Connect("127.0.0.1:2181", func(err error) {
		results <- err
	}))

	wait := func() error {
		select {
		case err := <-results:
			return err
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for session callback")
			return nil
		}
	}

	// connected, dropped, re-established: one callback per transition
	fake.establishSession()
	assert.NoError(t, wait())

	fake.disconnect()
	var disconnected *DisconnectedError
	require.ErrorAs(t, wait(), &disconnected)

	fake.establishSession()
	assert.NoError(t, wait())
}

func TestSessionManager_TimeoutClosesClient(t *testing.T) {
	fake := newFakeClient()
	session := newSessionManager(fake.connector, 50*time.Millisecond, time.Second)
	t.Cleanup(session.Close)

	results := make(chan error, 1)
	require.NoError(t, session.Connect("127.0.0.1:2181", func(err error) {
		results <- err
	}))

	select {
	case err := <-results:
		var timeout *TimeoutError
		require.ErrorAs(t, err, &timeout)
		assert.Equal(t, 50*time.Millisecond, timeout.Window)
	case <-time.After(2 * time.Second):
		t.Fatal("connect timeout never fired")
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.True(t, fake.closed)
}
