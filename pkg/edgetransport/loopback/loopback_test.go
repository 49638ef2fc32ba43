package loopback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnstreamer/ml-service-core/pkg/edgetransport"
)

func TestSendDeliversToReceiverCallback(t *testing.T) {
	factory := NewFactory()
	ctx := context.Background()

	recv, err := factory.Create("svc-1", edgetransport.ConnectTCP, edgetransport.RoleReceiver)
	require.NoError(t, err)
	require.NoError(t, recv.Start(ctx))
	defer recv.Close()

	var got edgetransport.Message
	received := make(chan struct{}, 1)
	recv.SetEventCallback(func(m edgetransport.Message) {
		got = m
		received <- struct{}{}
	})

	sender, err := factory.Create("client-1", edgetransport.ConnectTCP, edgetransport.RoleSender)
	require.NoError(t, err)
	require.NoError(t, sender.Start(ctx))
	defer sender.Close()

	require.NoError(t, sender.Connect(ctx, "svc-1", 0))
	require.NoError(t, sender.Send(ctx, edgetransport.Message{
		Info:  map[string]string{"service-type": "single", "service-key": "clf"},
		Blobs: [][]byte{[]byte("weights")},
	}))

	<-received
	assert.Equal(t, "clf", got.Info["service-key"])
	require.Len(t, got.Blobs, 1)
	assert.Equal(t, []byte("weights"), got.Blobs[0])
}

func TestSend_FailsWithoutConnect(t *testing.T) {
	factory := NewFactory()
	sender, err := factory.Create("client-2", edgetransport.ConnectTCP, edgetransport.RoleSender)
	require.NoError(t, err)

	err = sender.Send(context.Background(), edgetransport.Message{})
	assert.Error(t, err)
}

func TestConnect_FailsForUnregisteredPeer(t *testing.T) {
	factory := NewFactory()
	sender, err := factory.Create("client-3", edgetransport.ConnectTCP, edgetransport.RoleSender)
	require.NoError(t, err)

	err = sender.Connect(context.Background(), "nobody-home", 0)
	assert.Error(t, err)
}
