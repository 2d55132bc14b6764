package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitReachesAllSubscribers(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch1, cancel1 := bus.Subscribe(4)
	defer cancel1()
	ch2, cancel2 := bus.Subscribe(4)
	defer cancel2()

	bus.Emit(Event{Type: FileCreated, Path: `C:\a.txt`})

	got1 := <-ch1
	got2 := <-ch2
	assert.Equal(t, FileCreated, got1.Type)
	assert.Equal(t, `C:\a.txt`, got1.Path)
	assert.False(t, got1.Time.IsZero())
	assert.Equal(t, got1.Type, got2.Type)
}

func TestEmitDropsWhenBufferFull(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch, cancel := bus.Subscribe(1)
	defer cancel()

	bus.Emit(Event{Type: FileCreated, Path: `C:\1`})
	bus.Emit(Event{Type: FileCreated, Path: `C:\2`}) // dropped, must not block

	got := <-ch
	assert.Equal(t, `C:\1`, got.Path)
	assert.Empty(t, ch)
}

func TestCancelClosesChannel(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch, cancel := bus.Subscribe(1)
	cancel()
	cancel() // repeat cancel is harmless

	_, ok := <-ch
	assert.False(t, ok)

	// emits after cancel go nowhere
	bus.Emit(Event{Type: FileDeleted, Path: `C:\x`})
}

func TestClose(t *testing.T) {
	bus := NewBus()

	ch, _ := bus.Subscribe(1)
	bus.Close()
	bus.Close()

	_, ok := <-ch
	require.False(t, ok)

	bus.Emit(Event{Type: FileCreated, Path: `C:\x`})

	late, cancel := bus.Subscribe(1)
	defer cancel()
	_, ok = <-late
	assert.False(t, ok)
}
