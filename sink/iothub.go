package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/amenzhinsky/iothub/iotdevice"
	iotmqtt "github.com/amenzhinsky/iothub/iotdevice/transport/mqtt"

	"github.com/chewcw/pnio-hart/config"
)

// IoTHubSink publishes HART response messages as Azure IoT Hub
// telemetry events, and — when given a config.TwinSource — keeps the
// shared config.Store synchronized with the module twin's desired
// properties, reporting the config it ends up running back to the
// twin's reported properties, mirroring the C SDK module client this
// replaces.
type IoTHubSink struct {
	client *iotdevice.Client
	twin   *config.TwinSource
}

// NewIoTHubSink connects to IoT Hub using connStr (a device or module
// connection string) and, if twin is non-nil, subscribes to twin
// updates to keep it fed.
func NewIoTHubSink(ctx context.Context, connStr string, twin *config.TwinSource) (*IoTHubSink, error) {
	client, err := iotdevice.NewFromConnectionString(iotmqtt.New(), connStr)
	if err != nil {
		return nil, fmt.Errorf("sink: iothub client: %w", err)
	}
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("sink: iothub connect: %w", err)
	}

	s := &IoTHubSink{client: client, twin: twin}

	if twin != nil {
		if _, err := client.SubscribeTwinUpdates(ctx, s.onTwinUpdate); err != nil {
			return nil, fmt.Errorf("sink: iothub twin subscribe: %w", err)
		}
	}

	return s, nil
}

// Send publishes message as a device-to-cloud telemetry event.
func (s *IoTHubSink) Send(message []byte) error {
	return s.client.SendEvent(context.Background(), message)
}

func (s *IoTHubSink) onTwinUpdate(state iotdevice.TwinState) {
	payload, err := json.Marshal(state)
	if err != nil {
		return
	}
	if err := s.twin.ApplyUpdate(payload); err != nil {
		return
	}

	reported, err := s.twin.ReportedJSON()
	if err != nil {
		return
	}
	var state2 iotdevice.TwinState
	if err := json.Unmarshal(reported, &state2); err != nil {
		return
	}
	s.client.UpdateTwinState(context.Background(), state2)
}

// Close disconnects from IoT Hub.
func (s *IoTHubSink) Close() error {
	return s.client.Close()
}
