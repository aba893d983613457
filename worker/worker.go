// Package worker reconciles the configured device list against an
// in-memory store of live device.Device sessions, and drives the
// write-then-read HART command cycle for each of them once connected.
package worker

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/chewcw/pnio-hart/config"
	"github.com/chewcw/pnio-hart/device"
	"github.com/chewcw/pnio-hart/lookup"
	"github.com/chewcw/pnio-hart/metrics"
	"github.com/chewcw/pnio-hart/sink"
)

// entry pairs a live device session with the HART commands it should
// be polled for.
type entry struct {
	device   *device.Device
	commands []config.HartCommand
}

// Message is the envelope a Worker sends to its sink for every HART
// command response. Bytes carries the raw status+payload bytes as a
// JSON array of numbers: decoding it into named fields is a sink-side
// concern (see hartdecode), not the worker's.
type Message struct {
	Timestamp        string `json:"timestamp"`
	DeviceUniqueName string `json:"device_unique_name"`
	HartDeviceName   string `json:"hart_device_name"`
	HartCommand      uint8  `json:"hart_command"`
	Length           uint8  `json:"length"`
	Bytes            []int  `json:"bytes"`
}

// Worker owns the store of live device sessions and reconciles it
// against a config.Store each cycle.
type Worker struct {
	sink  sink.MessageSink
	cfg   *config.Store
	store map[string]*entry
}

// New creates a Worker that reads device lists from cfg and publishes
// HART command responses to sk.
func New(sk sink.MessageSink, cfg *config.Store) *Worker {
	return &Worker{
		sink:  sk,
		cfg:   cfg,
		store: make(map[string]*entry, cfg.Len()),
	}
}

// Evaluate reconciles the store against the current config snapshot:
// devices newly present are looked up and connected, already-present
// devices have their record numbers/commands refreshed, and devices no
// longer configured are dropped.
func (w *Worker) Evaluate(srcIP net.IP) {
	devices := w.cfg.Snapshot()
	seen := make(map[string]bool, len(devices))

	for _, d := range devices {
		if d.IPAddress == config.LocalIPAddress {
			continue
		}

		for _, ch := range d.HartChannels {
			unique := fmt.Sprintf("%s-%d-%d", d.IPAddress, ch.SlotNum, ch.SubslotNum)
			seen[unique] = true

			if existing, ok := w.store[unique]; ok {
				existing.device.RequestDataRecordNumber = ch.RequestDataRecordNumber
				existing.device.ResponseDataRecordNumber = ch.ResponseDataRecordNumber
				existing.commands = ch.HartCommands
				continue
			}

			metrics.LookupAttemptCount.Inc()
			target := lookup.Target{
				DeviceName:               d.DeviceName,
				IPAddress:                d.IPAddress,
				Port:                     d.Port,
				SlotNum:                  ch.SlotNum,
				SubslotNum:               ch.SubslotNum,
				RequestDataRecordNumber:  ch.RequestDataRecordNumber,
				ResponseDataRecordNumber: ch.ResponseDataRecordNumber,
				HartDeviceName:           ch.HartDeviceName,
			}
			dev, err := lookup.Lookup(srcIP, target)
			if err != nil {
				metrics.LookupFailureCount.Inc()
				log.Printf("worker: lookup %s failed: %v", unique, err)
				continue
			}

			if err := dev.ConnectReq(); err != nil {
				metrics.ConnectFailureCount.Inc()
				log.Printf("worker: connect %s failed: %v", unique, err)
				continue
			}

			w.store[unique] = &entry{device: dev, commands: ch.HartCommands}
		}
	}

	for unique := range w.store {
		if !seen[unique] {
			delete(w.store, unique)
		}
	}

	metrics.StoreSize.Set(float64(len(w.store)))
}

// Read drives one write-then-read cycle for every device currently in
// the store: command 0 bootstrap while the device id is unknown,
// otherwise every configured HART command in turn.
func (w *Worker) Read() {
	for unique, e := range w.store {
		if e.device.DeviceID == [5]byte{} {
			w.runCommand(unique, e, 0, nil)
			continue
		}

		for _, cmd := range e.commands {
			w.runCommand(unique, e, cmd.Number, cmd.Data)
		}
	}
}

func (w *Worker) runCommand(unique string, e *entry, command uint8, payload []byte) {
	label := fmt.Sprintf("%d", command)
	start := time.Now()
	defer func() {
		metrics.CommandLatencyHistogram.WithLabelValues(label).Observe(time.Since(start).Seconds())
	}()

	dev := e.device

	if err := dev.SendCommonWriteReq(dev.RequestDataRecordNumber, command, payload); err != nil {
		var statusErr *device.StatusError
		if errors.As(err, &statusErr) {
			metrics.PnioStatusErrorCount.WithLabelValues(hex.EncodeToString(statusErr.Status[:])).Inc()
		}
		log.Printf("worker: write command %d to %s failed: %v", command, unique, err)
		return
	}

	length, data, err := dev.SendCommonReadReq(dev.ResponseDataRecordNumber, command)
	if err != nil {
		var notReady *device.ReadNotReadyError
		if errors.As(err, &notReady) {
			metrics.ReadNotReadyCount.WithLabelValues(label).Inc()
		}
		log.Printf("worker: read command %d from %s failed: %v", command, unique, err)
		return
	}

	if command == 0 {
		// Device id bootstrap: nothing to forward downstream.
		return
	}

	values := make([]int, len(data))
	for i, b := range data {
		values[i] = int(b)
	}
	msg := Message{
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		DeviceUniqueName: unique,
		HartDeviceName:   dev.HartDeviceName,
		HartCommand:      command,
		Length:           length,
		Bytes:            values,
	}
	body, err := json.Marshal(msg)
	if err != nil {
		log.Printf("worker: marshal message for %s command %d failed: %v", unique, command, err)
		return
	}
	if err := w.sink.Send(body); err != nil {
		log.Printf("worker: send message for %s command %d failed: %v", unique, command, err)
	}
}

// Run repeatedly calls Evaluate and Read, starting a cycle on every
// tick of an interval ticker (at once if the previous cycle overran
// the interval), until ctx is canceled; ctx is checked between cycles.
func (w *Worker) Run(ctx context.Context, srcIP net.IP, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		cycleStart := time.Now()
		w.Evaluate(srcIP)
		w.Read()
		metrics.PollingHistogram.Observe(time.Since(cycleStart).Seconds())

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
