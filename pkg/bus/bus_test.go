package bus_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/bus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishDeliversToTopicSubscribers(t *testing.T) {
	b := bus.New()

	var got []any
	b.Subscribe("test.bus.1", func(v any) { got = append(got, v) })
	b.Subscribe("test.bus.other", func(v any) { t.Errorf("unexpected delivery on other topic: %v", v) })

	assert.True(t, b.Publish("test.bus.1", "a"))
	assert.True(t, b.Publish("test.bus.1", "b"))

	assert.Equal(t, []any{"a", "b"}, got)
}

func TestBus_PublishWithoutSubscribersIsAttempted(t *testing.T) {
	b := bus.New()

	assert.True(t, b.Publish("test.bus.2", 1))
	assert.False(t, b.Publish("", 1))
}

func TestBus_BroadcastToIndependentSubscribers(t *testing.T) {
	b := bus.New()

	var first, second int
	b.Subscribe("test.bus.3", func(v any) { first += v.(int) })
	cancel := b.Subscribe("test.bus.3", func(v any) { second += v.(int) })

	b.Publish("test.bus.3", 1)
	cancel()
	cancel()
	b.Publish("test.bus.3", 10)

	assert.Equal(t, 11, first)
	assert.Equal(t, 1, second)
	assert.Equal(t, 1, b.Subscribers("test.bus.3"))
}

func TestBus_Topics(t *testing.T) {
	b := bus.New()
	b.Publish("b", nil)
	b.Subscribe("a", func(any) {})

	assert.Equal(t, []string{"a", "b"}, b.Topics())
	assert.Equal(t, 0, b.Subscribers("missing"))
}

func TestBus_Watch(t *testing.T) {
	b := bus.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := b.Watch(ctx, "test.bus.watch")
	b.Publish("test.bus.watch", "hello")

	assert.Equal(t, "hello", <-ch)
}

func TestBus_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := bus.NewMetrics(reg)
	b := bus.New(bus.WithMetrics(m))

	cancel := b.Subscribe("test.bus.metrics", func(any) {})
	b.Publish("test.bus.metrics", 1)
	b.Publish("test.bus.metrics", 2)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Published().WithLabelValues("test.bus.metrics")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Subscribers().WithLabelValues("test.bus.metrics")))

	cancel()
	assert.Equal(t, float64(0), testutil.ToFloat64(m.Subscribers().WithLabelValues("test.bus.metrics")))

	count, err := testutil.GatherAndCount(reg, "arbor_bus_published_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDefault_IsProcessWide(t *testing.T) {
	assert.Same(t, bus.Default(), bus.Default())
	assert.Same(t, bus.Default(), bus.OrDefault(nil))

	b := bus.New()
	assert.Same(t, b, bus.OrDefault(b))
}
