package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	done bool
	err  error
}

func (t *fakeToken) Wait() bool                     { return t.done }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.done }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

// fakeClient overrides the methods the publisher uses.
type fakeClient struct {
	pahomqtt.Client
	token        *fakeToken
	sent         []published
	connected    bool
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload any) pahomqtt.Token {
	c.sent = append(c.sent, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return c.token
}
func (c *fakeClient) IsConnected() bool { return c.connected }
func (c *fakeClient) Disconnect(uint)   { c.disconnected = true }

func TestMQTTPublisher_Publish(t *testing.T) {
	client := &fakeClient{token: &fakeToken{done: true}}
	p := newMQTTPublisher(client, MQTTConfig{TopicPrefix: "gophauth/events", QoS: 1})

	at := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	err := p.Publish(context.Background(), AuthEvent{Type: TypeLoggedIn, UserName: "bob", Role: models.RoleUser, At: at})
	require.NoError(t, err)

	require.Len(t, client.sent, 1)
	assert.Equal(t, "gophauth/events/logged_in", client.sent[0].topic)
	assert.Equal(t, byte(1), client.sent[0].qos)

	var got AuthEvent
	require.NoError(t, json.Unmarshal(client.sent[0].payload, &got))
	assert.Equal(t, "bob", got.UserName)
	assert.Equal(t, TypeLoggedIn, got.Type)
	assert.True(t, got.At.Equal(at))
}

func TestMQTTPublisher_PublishErrors(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		p := newMQTTPublisher(&fakeClient{token: &fakeToken{done: false}}, MQTTConfig{TopicPrefix: "x"})
		err := p.Publish(context.Background(), AuthEvent{Type: TypeRefreshed})
		assert.ErrorIs(t, err, ErrPublishFailed)
	})
	t.Run("broker error", func(t *testing.T) {
		boom := errors.New("not authorized")
		p := newMQTTPublisher(&fakeClient{token: &fakeToken{done: true, err: boom}}, MQTTConfig{TopicPrefix: "x"})
		err := p.Publish(context.Background(), AuthEvent{Type: TypeRefreshed})
		assert.ErrorIs(t, err, ErrPublishFailed)
		assert.ErrorIs(t, err, boom)
	})
}

func TestMQTTPublisher_Close(t *testing.T) {
	client := &fakeClient{connected: true}
	require.NoError(t, newMQTTPublisher(client, MQTTConfig{}).Close())
	assert.True(t, client.disconnected)

	idle := &fakeClient{}
	require.NoError(t, newMQTTPublisher(idle, MQTTConfig{}).Close())
	assert.False(t, idle.disconnected)
}

func TestNewMQTTPublisher_Unreachable(t *testing.T) {
	_, err := NewMQTTPublisher(MQTTConfig{Broker: "tcp://127.0.0.1:1", ClientID: "test"})
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), AuthEvent{Type: TypeRegistered}))
	assert.NoError(t, p.Close())
}
