// Package hartdecode turns the raw status and command-specific payload
// bytes a device.Device reads back into named fields, for sinks that
// want to decode commands 9/14/48 before forwarding a message rather
// than shipping raw bytes downstream. The worker never calls this
// package directly.
package hartdecode

import "fmt"

// CommStatus is the first HART status byte (field device communication
// status / response code), common to every command's response.
// See FieldCommGroup TS20183 table A-2.
type CommStatus struct {
	BufferOverflow          bool
	CommunicationFailure    bool
	LongitudinalParityError bool
	FramingError            bool
	OverrunError            bool
	VerticalParityError     bool
	CommunicationError      bool
}

// DecodeCommStatus parses byte 0 of a HART status pair.
func DecodeCommStatus(b byte) CommStatus {
	return CommStatus{
		BufferOverflow:          b&0x02 == 0x02,
		CommunicationFailure:    b&0x04 == 0x04,
		LongitudinalParityError: b&0x08 == 0x08,
		FramingError:            b&0x10 == 0x10,
		OverrunError:            b&0x20 == 0x20,
		VerticalParityError:     b&0x40 == 0x40,
		CommunicationError:      b&0x80 == 0x80,
	}
}

// DeviceStatus is the second HART status byte (field device status),
// common to every command's response. See TS20183 table A-1.
type DeviceStatus struct {
	PrimaryVariableOutOfLimits    bool
	NonPrimaryVariableOutOfLimits bool
	LoopCurrentSaturated          bool
	LoopCurrentFixed              bool
	MoreStatusAvailable           bool
	ColdStart                     bool
	ConfigurationChanged          bool
	DeviceMalfunction             bool
}

// DecodeDeviceStatus parses byte 1 of a HART status pair.
func DecodeDeviceStatus(b byte) DeviceStatus {
	return DeviceStatus{
		PrimaryVariableOutOfLimits:    b&0x01 == 0x01,
		NonPrimaryVariableOutOfLimits: b&0x02 == 0x02,
		LoopCurrentSaturated:          b&0x04 == 0x04,
		LoopCurrentFixed:              b&0x08 == 0x08,
		MoreStatusAvailable:           b&0x10 == 0x10,
		ColdStart:                     b&0x20 == 0x20,
		ConfigurationChanged:          b&0x40 == 0x40,
		DeviceMalfunction:             b&0x80 == 0x80,
	}
}

// Statuses pairs the two status bytes every command response starts with.
type Statuses struct {
	Comm   CommStatus
	Device DeviceStatus
}

// DecodeStatuses decodes the leading 2-byte status pair shared by
// every HART command response.
func DecodeStatuses(b []byte) (Statuses, error) {
	if len(b) < 2 {
		return Statuses{}, fmt.Errorf("hartdecode: status pair needs 2 bytes, got %d", len(b))
	}
	return Statuses{Comm: DecodeCommStatus(b[0]), Device: DecodeDeviceStatus(b[1])}, nil
}
