package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"guardplan/internal/events"
	"guardplan/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitAndClose(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Init("redis://" + mr.Addr())
	require.NoError(t, err)
	assert.Same(t, client, GetClient())

	require.NoError(t, Close())
	assert.Nil(t, GetClient())
	assert.NoError(t, Close())

	_, err = Init("not-a-url")
	assert.Error(t, err)
}

func TestPublisherForwardsEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, "guardplan:events")
	t.Cleanup(func() { sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	bus := events.NewEmitter()
	pub := NewPublisher(client, "guardplan:events", 16, time.Second, nil)
	pub.Attach(bus)

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- pub.Run(runCtx) }()

	unit := model.PlacedUnit{ID: "guard-abc", Kind: model.KindGuard, Position: model.Point{Lat: 1, Lng: 2}}
	bus.Emit(events.TypeUnitPlaced, events.UnitPlaced{Unit: unit})

	select {
	case msg := <-sub.Channel():
		var got struct {
			Type events.Type `json:"type"`
			Seq  uint64      `json:"seq"`
			Data struct {
				Unit model.PlacedUnit `json:"unit"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, events.TypeUnitPlaced, got.Type)
		assert.Equal(t, uint64(1), got.Seq)
		assert.Equal(t, unit, got.Data.Unit)
	case <-ctx.Done():
		t.Fatal("no message received")
	}

	stop()
	require.NoError(t, <-done)
	assert.Equal(t, uint64(1), pub.Published())
}

func TestPublisherDropsWhenFull(t *testing.T) {
	bus := events.NewEmitter()
	pub := NewPublisher(nil, "guardplan:events", 1, time.Second, nil)
	pub.Attach(bus)

	bus.Emit(events.TypeSessionCleared, events.SessionCleared{})
	bus.Emit(events.TypeSessionCleared, events.SessionCleared{})
	bus.Emit(events.TypeSessionCleared, events.SessionCleared{})

	assert.Equal(t, uint64(2), pub.Dropped())
}
