package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gummygamer/smartraspberrytermometer/internal/config"
)

type fakeToken struct {
	done bool
	err  error
}

func (t *fakeToken) Wait() bool                     { return t.done }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.done }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if t.done {
		close(ch)
	}
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type published struct {
	topic    string
	retained bool
	payload  []byte
}

// fakePaho implements only the paho methods the client calls.
type fakePaho struct {
	mqtt.Client
	connected    bool
	connectToken *fakeToken
	publishToken *fakeToken
	published    []published
	disconnects  int
}

func (f *fakePaho) IsConnected() bool { return f.connected }
func (f *fakePaho) Connect() mqtt.Token {
	return f.connectToken
}
func (f *fakePaho) Disconnect(uint) {
	f.disconnects++
	f.connected = false
}
func (f *fakePaho) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	f.published = append(f.published, published{topic: topic, retained: retained, payload: payload.([]byte)})
	return f.publishToken
}

func newTestClient(t *testing.T, paho *fakePaho) *Client {
	t.Helper()
	c, err := NewClient(config.Config{StationID: "pico", MQTTBroker: "localhost", MQTTPort: 1883}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	c.client = paho
	return c
}

func TestPublishForecast(t *testing.T) {
	paho := &fakePaho{connected: true, publishToken: &fakeToken{done: true}}
	c := newTestClient(t, paho)
	c.setConnected(true)

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err := c.PublishForecast(ForecastMessage{
		Timestamp:    ts,
		Temperatures: []float64{24, 26, 28},
		Slope:        2,
		Intercept:    24,
		Predicted:    30,
	})
	require.NoError(t, err)
	require.Len(t, paho.published, 1)

	msg := paho.published[0]
	assert.Equal(t, "stations/pico/forecast", msg.topic)
	assert.True(t, msg.retained)

	var got ForecastMessage
	require.NoError(t, json.Unmarshal(msg.payload, &got))
	assert.Equal(t, "pico", got.StationID)
	assert.Equal(t, 3, got.Count)
	assert.Equal(t, 30.0, got.Predicted)
	assert.True(t, got.Timestamp.Equal(ts))
}

func TestPublishTelemetry(t *testing.T) {
	paho := &fakePaho{connected: true, publishToken: &fakeToken{done: true}}
	c := newTestClient(t, paho)
	c.setConnected(true)

	temp := 28.0
	require.NoError(t, c.PublishTelemetry(Telemetry{Temperature: &temp}))
	require.Len(t, paho.published, 1)
	assert.Equal(t, "stations/pico/telemetry", paho.published[0].topic)
	assert.False(t, paho.published[0].retained)

	var got map[string]any
	require.NoError(t, json.Unmarshal(paho.published[0].payload, &got))
	assert.Equal(t, 28.0, got["temperature_c"])
	assert.NotContains(t, got, "sequence")
}

func TestPublish_notConnected(t *testing.T) {
	paho := &fakePaho{publishToken: &fakeToken{done: true}}
	c := newTestClient(t, paho)

	err := c.PublishForecast(ForecastMessage{Temperatures: []float64{1, 2}})
	require.Error(t, err)
	assert.Empty(t, paho.published)
}

func TestPublish_timeoutAndError(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		paho := &fakePaho{connected: true, publishToken: &fakeToken{done: false}}
		c := newTestClient(t, paho)
		c.setConnected(true)

		err := c.PublishForecast(ForecastMessage{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timeout")
	})

	t.Run("broker error", func(t *testing.T) {
		boom := errors.New("not authorized")
		paho := &fakePaho{connected: true, publishToken: &fakeToken{done: true, err: boom}}
		c := newTestClient(t, paho)
		c.setConnected(true)

		err := c.PublishForecast(ForecastMessage{})
		assert.ErrorIs(t, err, boom)
	})
}

func TestConnect(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		paho := &fakePaho{connected: true, connectToken: &fakeToken{done: true}}
		c := newTestClient(t, paho)

		require.NoError(t, c.Connect(context.Background()))
		assert.True(t, c.IsConnected())
	})

	t.Run("error", func(t *testing.T) {
		boom := errors.New("connection refused")
		c := newTestClient(t, &fakePaho{connectToken: &fakeToken{done: true, err: boom}})

		err := c.Connect(context.Background())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("context canceled while waiting", func(t *testing.T) {
		paho := &fakePaho{connectToken: &fakeToken{done: false}}
		c := newTestClient(t, paho)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := c.Connect(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, paho.disconnects)
	})

	t.Run("after disconnect", func(t *testing.T) {
		paho := &fakePaho{connectToken: &fakeToken{done: true}}
		c := newTestClient(t, paho)

		c.Disconnect()
		c.Disconnect()
		assert.Error(t, c.Connect(context.Background()))
		assert.False(t, c.IsConnected())
	})
}
