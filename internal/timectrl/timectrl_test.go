package timectrl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

func TestManualAfterFiresOnAdvance(t *testing.T) {
	m := NewManual(start)
	ch := m.After(time.Second)
	assert.Equal(t, 1, m.Waiters())

	m.Advance(500 * time.Millisecond)
	select {
	case <-ch:
		t.Fatal("timer fired early")
	default:
	}

	m.Advance(500 * time.Millisecond)
	select {
	case got := <-ch:
		assert.True(t, got.Equal(start.Add(time.Second)))
	default:
		t.Fatal("timer did not fire")
	}
	assert.Zero(t, m.Waiters())
}

func TestManualNonPositiveFiresImmediately(t *testing.T) {
	m := NewManual(start)
	select {
	case <-m.After(0):
	default:
		t.Fatal("zero duration timer should fire immediately")
	}
	assert.Zero(t, m.Waiters())
}

func TestManualBlockUntil(t *testing.T) {
	m := NewManual(start)
	fired := make(chan struct{})
	go func() {
		<-m.After(time.Minute)
		close(fired)
	}()

	m.BlockUntil(1)
	m.Advance(time.Minute)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("goroutine was not released")
	}
}

func TestInstantAndReal(t *testing.T) {
	select {
	case <-Instant{}.After(time.Hour):
	default:
		t.Fatal("instant clock should not wait")
	}

	before := time.Now()
	require.False(t, Real{}.Now().Before(before))
}
