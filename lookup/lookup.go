// Package lookup performs the DCE/RPC endpoint-mapper conversation
// that discovers a PROFINET device's real PNIO port and interface
// UUID from its advertised name, before a device.Device session can
// be established with it.
package lookup

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chewcw/pnio-hart/device"
	"github.com/chewcw/pnio-hart/transport"
	"github.com/chewcw/pnio-hart/wire"
)

// MaxRetry bounds how many lookup attempts are made before giving up
// on a configured device for this cycle.
const MaxRetry = 10

// FailedError reports that a device could not be found within MaxRetry
// attempts. Key is the device's ip-slot-subslot key.
type FailedError struct {
	Key string
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("lookup failed for device %q, ignoring this device", e.Key)
}

// Target names the device being searched for and the HART channel
// parameters its resulting device.Device session will be configured
// with.
type Target struct {
	DeviceName               string
	IPAddress                string
	Port                     uint16
	SlotNum                  uint16
	SubslotNum               uint16
	RequestDataRecordNumber  uint16
	ResponseDataRecordNumber uint16
	HartDeviceName           string
}

// dataReadyFlag is the response-control byte value this gateway's AI
// modules use; constant across the product line it targets.
const dataReadyFlag = 0x04

// Lookup runs the EPM discovery conversation against target over a
// freshly-bound UDP socket sourced from srcIP, retrying up to MaxRetry
// times with a 1s backoff, and returns a ready-to-connect device.Device
// on success.
func Lookup(srcIP net.IP, target Target) (*device.Device, error) {
	dstIP := net.ParseIP(target.IPAddress)
	if dstIP == nil {
		return nil, fmt.Errorf("lookup: invalid ip address %q", target.IPAddress)
	}

	client, err := transport.NewUDPClient(srcIP, dstIP, target.Port)
	if err != nil {
		return nil, err
	}

	handle := [wire.EPMHandleSize]byte{}
	var seqNum uint32
	activity := uuid.New()
	unique := fmt.Sprintf("%s-%d-%d", target.IPAddress, target.SlotNum, target.SubslotNum)

	for retry := 0; retry < MaxRetry; retry++ {
		epmStub := wire.EncodeEPMRequest(handle)
		h := wire.DCERPCHeader{
			PacketType:       wire.PacketTypeRequest,
			ObjectUUID:       uuid.UUID{},
			InterfaceUUID:    wire.EpmInterfaceUUID,
			ActivityUUID:     activity,
			InterfaceVersion: wire.InterfaceVersionLookup,
			SeqNum:           seqNum,
			OpNum:            wire.OpNumRead,
		}
		packet := wire.EncodeDCERPCPacket(h, epmStub)

		if _, err := client.Send(packet); err != nil {
			return nil, err
		}
		buf, err := client.Receive()
		if err != nil {
			return nil, err
		}

		_, stub, err := wire.DecodeDCERPCPacket(buf)
		if err != nil {
			seqNum++
			time.Sleep(time.Second)
			continue
		}
		resp, err := wire.DecodeEPMResponse(stub)
		if err != nil {
			seqNum++
			time.Sleep(time.Second)
			continue
		}

		handle, err = wire.HandleBytes(resp.Handle)
		if err != nil {
			seqNum++
			time.Sleep(time.Second)
			continue
		}

		if resp.Entry.IsZeroObject() {
			seqNum++
			time.Sleep(time.Second)
			continue
		}

		tower := resp.Entry.TowerPointer
		if !strings.Contains(tower.Annotation, target.DeviceName) {
			seqNum++
			time.Sleep(time.Second)
			continue
		}

		interfaceUUID, ok := tower.InterfaceUUID()
		if !ok {
			seqNum++
			time.Sleep(time.Second)
			continue
		}
		port, ok := tower.UDPPort()
		if !ok {
			seqNum++
			time.Sleep(time.Second)
			continue
		}

		client.UpdateDest(dstIP, port)

		return device.New(
			unique,
			resp.Handle,
			resp.Entry.Object,
			interfaceUUID,
			port,
			dstIP,
			client,
			target.SlotNum,
			target.SubslotNum,
			dataReadyFlag,
			target.RequestDataRecordNumber,
			target.ResponseDataRecordNumber,
			target.HartDeviceName,
		), nil
	}

	return nil, &FailedError{Key: unique}
}
