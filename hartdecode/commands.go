package hartdecode

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Command0Response is the decoded payload of a command-0 read-device-
// identification response.
type Command0Response struct {
	Statuses
	HartMajorRevisionNumber     uint8
	DeviceRevisionLevel         uint8
	SoftwareRevisionLevel       uint8
	ConfigurationChangeCounter uint16
}

// DecodeCommand0 decodes a command-0 response payload (HART statuses
// plus device identification fields).
func DecodeCommand0(b []byte) (*Command0Response, error) {
	statuses, err := DecodeStatuses(b)
	if err != nil {
		return nil, err
	}
	if len(b) < 18 {
		return nil, fmt.Errorf("hartdecode: command 0 payload too short: %d bytes", len(b))
	}
	return &Command0Response{
		Statuses:                   statuses,
		HartMajorRevisionNumber:    b[6],
		DeviceRevisionLevel:        b[7],
		SoftwareRevisionLevel:      b[8],
		ConfigurationChangeCounter: binary.BigEndian.Uint16(b[16:18]),
	}, nil
}

// Command9Response is the decoded payload of a command-9 read-device-
// variables response for a single device variable slot.
type Command9Response struct {
	Statuses
	DeviceVariableCode           uint8
	DeviceVariableClassification string
	Unit                         string
	Value                        float32
}

// DecodeCommand9 decodes a command-9 response payload.
func DecodeCommand9(b []byte) (*Command9Response, error) {
	statuses, err := DecodeStatuses(b)
	if err != nil {
		return nil, err
	}
	if len(b) < 10 {
		return nil, fmt.Errorf("hartdecode: command 9 payload too short: %d bytes", len(b))
	}
	return &Command9Response{
		Statuses:                      statuses,
		DeviceVariableCode:            b[3],
		DeviceVariableClassification:  classifyDeviceVariable(b[4]),
		Unit:                          classifyUnit(b[5]),
		Value:                         math.Float32frombits(binary.BigEndian.Uint32(b[6:10])),
	}, nil
}

func classifyDeviceVariable(b byte) string {
	switch b {
	case 0x40:
		return "temperature"
	case 0x41:
		return "pressure"
	default:
		return "unknown"
	}
}

func classifyUnit(b byte) string {
	switch b {
	case 0x20:
		return "celcius"
	case 0x08:
		return "mbar"
	default:
		return "unknown"
	}
}

// Command14Response is the decoded payload of a command-14 read-
// transducer-limits response.
type Command14Response struct {
	Statuses
	TransducerUpperLimit float32
	TransducerLowerLimit float32
}

// DecodeCommand14 decodes a command-14 response payload.
func DecodeCommand14(b []byte) (*Command14Response, error) {
	statuses, err := DecodeStatuses(b)
	if err != nil {
		return nil, err
	}
	if len(b) < 14 {
		return nil, fmt.Errorf("hartdecode: command 14 payload too short: %d bytes", len(b))
	}
	return &Command14Response{
		Statuses:             statuses,
		TransducerUpperLimit: math.Float32frombits(binary.BigEndian.Uint32(b[6:10])),
		TransducerLowerLimit: math.Float32frombits(binary.BigEndian.Uint32(b[10:14])),
	}, nil
}

// Command48Response is the decoded payload of a command-48 read-
// additional-status response, one vendor's bit layout for it.
type Command48Response struct {
	Statuses
	HwFwError            bool
	DiagAlarm            bool
	DiagWarn             bool
	SimMode              bool
	SensorBreak0         bool
	RAMFailure           bool
	ROMFailure           bool
	SimPressure          bool
	SimSensorTemperature bool
	SimElTemperature     bool
	WatchdogFailed       bool
	WatchdogTriggered    bool
	ServiceAlarm         bool
}

// DecodeCommand48 decodes a command-48 response payload.
func DecodeCommand48(b []byte) (*Command48Response, error) {
	statuses, err := DecodeStatuses(b)
	if err != nil {
		return nil, err
	}
	if len(b) < 25 {
		return nil, fmt.Errorf("hartdecode: command 48 payload too short: %d bytes", len(b))
	}
	return &Command48Response{
		Statuses:             statuses,
		HwFwError:            b[2]&0b0000_0001 == 1,
		DiagAlarm:            b[2]&0b0000_0010 == 2,
		DiagWarn:             b[2]&0b0000_0100 == 4,
		SimMode:              b[2]&0b0000_1000 == 8,
		SensorBreak0:         b[2]&0b0001_0000 == 16,
		RAMFailure:           b[3]&0b0000_0001 == 1,
		ROMFailure:           b[3]&0b0000_0010 == 2,
		SimPressure:          b[24]&0b0000_0001 == 1,
		SimSensorTemperature: b[24]&0b0000_0010 == 2,
		SimElTemperature:     b[24]&0b0000_0100 == 4,
		WatchdogFailed:       b[5]&0b0000_1000 == 8,
		WatchdogTriggered:    b[5]&0b0001_0000 == 16,
		ServiceAlarm:         b[8]&0b0000_0001 == 1,
	}, nil
}
