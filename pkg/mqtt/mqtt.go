// Package mqtt runs the embedded broker home automation subscribes to and
// publishes heater notifications on it.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqttv2 "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/nergy-se/waterheater/pkg/heater"
	"github.com/sirupsen/logrus"
)

const TopicPrefix = "waterheater"

// Start serves the broker on address until ctx is done. wg is released when
// the broker is closed.
func Start(ctx context.Context, wg *sync.WaitGroup, address string) (*mqttv2.Server, error) {
	server := mqttv2.New(&mqttv2.Options{
		InlineClient: true,
	})

	// Allow all connections.
	_ = server.AddHook(new(auth.AllowHook), nil)

	tcp := listeners.NewTCP(listeners.Config{ID: "t1", Address: address})
	err := server.AddListener(tcp)
	if err != nil {
		return server, err
	}

	err = server.Serve()
	if err != nil {
		return server, err
	}

	wg.Add(1)
	go func() {
		<-ctx.Done()
		server.Close()
		wg.Done()
	}()
	return server, nil
}

type Publisher interface {
	Publish(topic string, payload []byte, retain bool, qos byte) error
}

// Notifier publishes heater events as retained messages on
// waterheater/<device>/<event>.
type Notifier struct {
	publisher Publisher
	now       func() time.Time
}

func NewNotifier(publisher Publisher) *Notifier {
	return &Notifier{publisher: publisher, now: time.Now}
}

type Message struct {
	Device string           `json:"device"`
	Event  heater.EventKind `json:"event"`
	Value  int              `json:"value"`
	Time   time.Time        `json:"time"`
}

func Topic(deviceName string, kind heater.EventKind) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefix, deviceName, kind)
}

func (n *Notifier) Notify(deviceName string, kind heater.EventKind, value int) error {
	b, err := json.Marshal(Message{
		Device: deviceName,
		Event:  kind,
		Value:  value,
		Time:   n.now(),
	})
	if err != nil {
		return err
	}
	topic := Topic(deviceName, kind)
	logrus.Debugf("mqtt: publish %s: %s", topic, b)
	return n.publisher.Publish(topic, b, true, 0)
}
