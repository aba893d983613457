// Package config holds the set of configured PROFINET devices and HART
// channels this gateway polls, and the sources (a local YAML file or an
// IoT Hub module twin) that can supply and refresh it.
package config

// LocalIPAddress is the sentinel ip_address value meaning "no device
// configured in this slot yet" — entries carrying it are skipped by the
// worker rather than looked up.
const LocalIPAddress = "127.0.0.1"

// HartCommand is one HART command to issue against a channel, with an
// optional write payload.
type HartCommand struct {
	Number uint8  `yaml:"number" json:"number"`
	Data   []byte `yaml:"data,omitempty" json:"data,omitempty"`
}

// HartChannel is one AI-module slot/subslot carrying a HART device.
type HartChannel struct {
	SlotNum                  uint16        `yaml:"slot_number" json:"slot_number"`
	SubslotNum               uint16        `yaml:"subslot_number" json:"subslot_number"`
	HartCommands             []HartCommand `yaml:"hart_commands" json:"hart_commands"`
	RequestDataRecordNumber  uint16        `yaml:"request_data_record_number" json:"request_data_record_number"`
	ResponseDataRecordNumber uint16        `yaml:"response_data_record_number" json:"response_data_record_number"`
	HartDeviceName           string        `yaml:"hart_device_name" json:"hart_device_name"`
}

// Device is one PROFINET device to discover via lookup and its HART
// channels.
type Device struct {
	IPAddress string `yaml:"ip_address" json:"ip_address"`
	// Port is the endpoint-mapper lookup port; the actual PNIO port is
	// learned during lookup and is not persisted here.
	Port         uint16        `yaml:"port" json:"port"`
	HartChannels []HartChannel `yaml:"hart_devices" json:"hart_devices"`
	DeviceName   string        `yaml:"device_name" json:"device_name"`
}

func defaultDevice() Device {
	return Device{
		IPAddress: LocalIPAddress,
		Port:      0,
		HartChannels: []HartChannel{{
			SlotNum:                  0,
			SubslotNum:               0,
			HartCommands:             nil,
			RequestDataRecordNumber:  80,
			ResponseDataRecordNumber: 81,
			HartDeviceName:           "hart_device_name",
		}},
		DeviceName: "device_name",
	}
}
