package config_test

import (
	"encoding/json"
	"testing"

	"github.com/chewcw/pnio-hart/config"
)

func TestTwinSourceFullDocument(t *testing.T) {
	store := config.NewStore()
	ts := config.NewTwinSource(store)

	payload := []byte(`{
		"desired": {"config": [{"device_name": "a", "ip_address": "10.0.0.1"}], "$version": 3},
		"reported": {"config": []}
	}`)

	if err := ts.ApplyUpdate(payload); err != nil {
		t.Fatalf("ApplyUpdate: %v", err)
	}
	devices := store.Snapshot()
	if len(devices) != 1 || devices[0].DeviceName != "a" {
		t.Errorf("Snapshot() = %+v, want device 'a'", devices)
	}
}

func TestTwinSourceDesiredOnlyPatch(t *testing.T) {
	store := config.NewStore()
	ts := config.NewTwinSource(store)

	payload := []byte(`{"config": [{"device_name": "b", "ip_address": "10.0.0.2"}], "$version": 4}`)

	if err := ts.ApplyUpdate(payload); err != nil {
		t.Fatalf("ApplyUpdate: %v", err)
	}
	devices := store.Snapshot()
	if len(devices) != 1 || devices[0].DeviceName != "b" {
		t.Errorf("Snapshot() = %+v, want device 'b'", devices)
	}
}

func TestTwinSourceInvalidJSON(t *testing.T) {
	store := config.NewStore()
	ts := config.NewTwinSource(store)

	if err := ts.ApplyUpdate([]byte("{not json")); err == nil {
		t.Fatal("ApplyUpdate() = nil error, want a parse failure")
	}
}

func TestTwinSourceReportedJSON(t *testing.T) {
	store := config.NewStore()
	store.Replace([]config.Device{{DeviceName: "c", IPAddress: "10.0.0.3"}})
	ts := config.NewTwinSource(store)

	out, err := ts.ReportedJSON()
	if err != nil {
		t.Fatalf("ReportedJSON: %v", err)
	}

	var reported config.Reported
	if err := json.Unmarshal(out, &reported); err != nil {
		t.Fatalf("unmarshaling ReportedJSON output: %v", err)
	}
	if len(reported.Config) != 1 || reported.Config[0].DeviceName != "c" {
		t.Errorf("reported = %+v, want device 'c'", reported)
	}
}
