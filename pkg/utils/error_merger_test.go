package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeErrorChans(t *testing.T) {
	ch1 := make(chan error, 2)
	ch2 := make(chan error, 1)

	merged := MergeErrorChans(ch1, nil, ch2)

	ch1 <- errors.New("error 1")
	ch1 <- nil
	ch2 <- errors.New("error 2")
	close(ch1)
	close(ch2)

	var received []string
	timeout := time.After(time.Second)
	for {
		select {
		case err, ok := <-merged:
			if !ok {
				assert.ElementsMatch(t, []string{"error 1", "error 2"}, received)
				return
			}
			received = append(received, err.Error())
		case <-timeout:
			t.Fatal("timeout waiting for merged channel to close")
		}
	}
}

func TestMergeErrorChansEmpty(t *testing.T) {
	merged := MergeErrorChans()
	select {
	case _, ok := <-merged:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("merged channel never closed")
	}
}

func TestWaitForError(t *testing.T) {
	t.Run("error wins", func(t *testing.T) {
		errs := make(chan error, 1)
		errs <- errors.New("listen failed")
		err := WaitForError(context.Background(), errs)
		require.Error(t, err)
		assert.Equal(t, "listen failed", err.Error())
	})

	t.Run("context wins", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.NoError(t, WaitForError(ctx, make(chan error)))
	})

	t.Run("closed channel", func(t *testing.T) {
		errs := make(chan error)
		close(errs)
		assert.NoError(t, WaitForError(context.Background(), errs))
	})
}
