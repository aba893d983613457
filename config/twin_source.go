package config

import (
	"bytes"
	"encoding/json"
)

// desiredMarker and reportedMarker are the substrings used to tell a
// full module twin document (desired+reported) apart from a
// desired-only patch notification. Azure IoT Hub delivers both shapes
// on the same callback depending on whether the twin was just read or
// just updated, and this heuristic is kept exactly as inherited rather
// than replaced with a stricter schema check.
var (
	desiredMarker  = []byte(`"desired":`)
	reportedMarker = []byte(`"reported":`)
)

// ModuleTwin is the full desired+reported document Azure IoT Hub sends
// back from a twin read.
type ModuleTwin struct {
	Desired  Desired  `json:"desired"`
	Reported Reported `json:"reported"`
}

// Desired is the desired-properties section of a module twin: the
// device list this gateway should be polling, plus IoT Hub's twin
// version counter.
type Desired struct {
	Config  []Device `json:"config"`
	Version uint16   `json:"$version"`
}

// Reported is the reported-properties section this gateway writes
// back after applying a desired update, echoing the config it is
// actually running.
type Reported struct {
	Config []Device `json:"config,omitempty"`
}

// TwinSource keeps a Store synchronized with a module twin's desired
// properties.
type TwinSource struct {
	store *Store
}

// NewTwinSource creates a TwinSource backed by store.
func NewTwinSource(store *Store) *TwinSource {
	return &TwinSource{store: store}
}

// ApplyUpdate parses a twin callback payload — either a full
// ModuleTwin document or a desired-only patch — and replaces the
// store's device list with whatever it found.
func (t *TwinSource) ApplyUpdate(payload []byte) error {
	var devices []Device

	if bytes.Contains(payload, desiredMarker) && bytes.Contains(payload, reportedMarker) {
		var twin ModuleTwin
		if err := json.Unmarshal(payload, &twin); err != nil {
			return &InvalidError{Path: "module twin", Err: err}
		}
		devices = twin.Desired.Config
	} else {
		var desired Desired
		if err := json.Unmarshal(payload, &desired); err != nil {
			return &InvalidError{Path: "module twin desired", Err: err}
		}
		devices = desired.Config
	}

	t.store.Replace(devices)
	return nil
}

// ReportedJSON serializes the store's current device list as a
// reported-properties patch, to echo back to IoT Hub after an update.
func (t *TwinSource) ReportedJSON() ([]byte, error) {
	reported := Reported{Config: t.store.Snapshot()}
	return json.Marshal(reported)
}
