package notify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/trip-planner/backend/internal/notify"
)

func TestBroadcaster_FansOut(t *testing.T) {
	b := notify.NewBroadcaster()
	first, cancelFirst := b.Subscribe()
	second, cancelSecond := b.Subscribe()
	defer cancelFirst()
	defer cancelSecond()

	b.RequestRerender()

	assert.Len(t, first, 1)
	assert.Len(t, second, 1)
}

func TestBroadcaster_Coalesces(t *testing.T) {
	b := notify.NewBroadcaster()
	ch, cancel := b.Subscribe()
	defer cancel()

	b.RequestRerender()
	b.RequestRerender()
	b.RequestRerender()

	assert.Len(t, ch, 1, "pending signals collapse into one")
}

func TestBroadcaster_Cancel(t *testing.T) {
	b := notify.NewBroadcaster()
	ch, cancel := b.Subscribe()
	assert.Equal(t, 1, b.Subscribers())

	cancel()
	cancel()

	assert.Equal(t, 0, b.Subscribers())
	_, open := <-ch
	assert.False(t, open)
	assert.NotPanics(t, b.RequestRerender)
}
