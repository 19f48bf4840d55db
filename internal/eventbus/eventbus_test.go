package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_FanOut(t *testing.T) {
	b := New[int](4)
	s1 := b.Subscribe()
	s2 := b.Subscribe()
	b.Publish(1)
	b.Publish(2)
	assert.Equal(t, 1, <-s1)
	assert.Equal(t, 2, <-s1)
	assert.Equal(t, 1, <-s2)
	assert.Equal(t, 2, <-s2)
}

func TestBus_DropsWhenFull(t *testing.T) {
	b := New[string](1)
	sub := b.Subscribe()
	b.Publish("a")
	b.Publish("b")
	assert.Equal(t, uint64(1), b.Dropped())
	assert.Equal(t, "a", <-sub)
}

func TestBus_CloseDrainsBuffered(t *testing.T) {
	b := New[int](2)
	sub := b.Subscribe()
	b.Publish(7)
	b.Close()
	b.Publish(8)

	var got []int
	for v := range sub {
		got = append(got, v)
	}
	assert.Equal(t, []int{7}, got)

	_, ok := <-b.Subscribe()
	assert.False(t, ok, "subscribing to a closed bus yields a closed channel")
}

func TestBus_Unsubscribe(t *testing.T) {
	b := New[int](0)
	sub := b.Subscribe()
	b.Unsubscribe(sub)
	_, ok := <-sub
	assert.False(t, ok)
	b.Publish(1)
	assert.Equal(t, uint64(0), b.Dropped())
}
