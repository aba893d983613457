// Package sink delivers HART command response messages to an
// external system (an MQTT broker or an Azure IoT Hub module) and, for
// sinks fed by a module twin, keeps the shared config.Store in sync
// with the twin's desired properties.
package sink

// MessageSink is anything the worker can hand a serialized HART
// response message to.
type MessageSink interface {
	Send(message []byte) error
}
