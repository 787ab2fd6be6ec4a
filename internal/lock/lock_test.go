package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLockerWithoutClient(t *testing.T) {
	assert.Nil(t, NewLocker(nil))
}

func TestNilLockerRunsCallback(t *testing.T) {
	var l *Locker
	called := false

	err := l.WithLock(context.Background(), "claims:number:2025", time.Second, time.Second, func(context.Context) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
}

func TestNilLockerPropagatesCallbackError(t *testing.T) {
	var l *Locker
	boom := errors.New("boom")

	err := l.WithLock(context.Background(), "k", time.Second, time.Second, func(context.Context) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
}

func TestNilLockerTryLock(t *testing.T) {
	var l *Locker
	_, ok, err := l.TryLock(context.Background(), "k", time.Second)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.NoError(t, l.Release(context.Background(), "k", "token"))
}
