//go:build !no_containers

package mqtt_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/amice/core/metrics"
	"github.com/kilianp07/amice/infra/mqtt"
	"github.com/kilianp07/amice/test/util"
)

func TestPublisher_Mosquitto(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping container test in short mode")
	}
	if !util.DockerAvailable() {
		t.Skip("docker not installed")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	broker, cleanup, err := util.StartMosquitto(ctx)
	if err != nil {
		t.Skipf("Mosquitto not ready: %v", err)
	}
	defer cleanup()

	received := make(chan paho.Message, 1)
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("listener"))
	tok := sub.Connect()
	require.True(t, tok.WaitTimeout(5*time.Second))
	require.NoError(t, tok.Error())
	defer sub.Disconnect(100)
	tok = sub.Subscribe("amice/match/#", 1, func(_ paho.Client, m paho.Message) { received <- m })
	require.True(t, tok.WaitTimeout(5*time.Second))
	require.NoError(t, tok.Error())

	pub, err := mqtt.NewPublisher(mqtt.Config{Broker: broker, ClientID: "amice-test", QoS: 1})
	require.NoError(t, err)
	defer pub.Disconnect()
	require.NoError(t, pub.RecordMatches([]coremetrics.MatchRecord{{RunID: "r", Appliance: "kettle", Consumed: 2, Time: time.Now()}}))

	select {
	case m := <-received:
		assert.Equal(t, "amice/match/kettle", m.Topic())
		var body map[string]any
		require.NoError(t, json.Unmarshal(m.Payload(), &body))
		assert.Equal(t, "kettle", body["appliance"])
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}
