package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher(nil)

	var got []Event
	d.Subscribe(EventTaskAssigned, func(_ context.Context, e Event) error {
		got = append(got, e)
		return nil
	})
	d.Subscribe(EventTaskAssigned, func(context.Context, Event) error {
		return errors.New("boom")
	})
	var secondRan bool
	d.Subscribe(EventTaskAssigned, func(context.Context, Event) error {
		secondRan = true
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTaskAssigned, SubjectID: "task-1"}))
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventShiftMissed, SubjectID: "shift-1"}))

	require.Len(t, got, 1)
	assert.Equal(t, "task-1", got[0].SubjectID)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].Timestamp.IsZero())
	assert.True(t, secondRan, "a failing handler must not block later ones")
}

func TestDispatcherConcurrentUse(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var (
		mu    sync.Mutex
		count int
	)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			d.Subscribe(EventWarningIssued, func(context.Context, Event) error {
				mu.Lock()
				count++
				mu.Unlock()
				return nil
			})
		}()
		go func() {
			defer wg.Done()
			_ = d.Publish(context.Background(), Event{Type: EventWarningIssued})
		}()
	}
	wg.Wait()

	mu.Lock()
	before := count
	mu.Unlock()
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventWarningIssued}))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, before+8, count)
}
