// Package device drives a single PROFINET IO connection for one HART
// AI module channel: the Connect handshake and the write-then-read
// request cycle HART commands are issued over.
package device

import (
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/chewcw/pnio-hart/wire"
)

// retryMax is the number of times SendCommonReadReq retries a read
// before giving up on a not-yet-ready response.
const retryMax = 10

// retryBackoff is the pause between consecutive not-ready reads.
const retryBackoff = time.Second

// Transport is the subset of transport.UDPClient a Device needs; kept
// as an interface so device sessions can be exercised without a real
// socket.
type Transport interface {
	Send(data []byte) (int, error)
	Receive() ([]byte, error)
}

// Device is a single HART-over-PNIO session: one AR connection to one
// slot/subslot pair on a discovered PROFINET device.
type Device struct {
	Unique string // ip-slot-subslot identity used for logging/store keys

	Handle        string
	ObjectUUID    uuid.UUID
	InterfaceUUID uuid.UUID
	IPAddress     net.IP
	Port          uint16

	DeviceID [wire.DeviceIDSize]byte

	SlotNum    uint16
	SubslotNum uint16

	// DataReadyFlag is the response-control byte value the AI module
	// writes back once a response is ready to be read.
	DataReadyFlag byte

	RequestDataRecordNumber  uint16
	ResponseDataRecordNumber uint16
	HartDeviceName           string

	arUUID       uuid.UUID
	activity     uuid.UUID
	dcerpcSeqNum uint32
	pnioSeqNum   uint16

	transport Transport
}

// New creates a Device bound to transport, with no AR session yet
// established (call ConnectReq before issuing HART commands).
func New(unique, handle string, objectUUID, interfaceUUID uuid.UUID, port uint16, ip net.IP, transport Transport, slotNum, subslotNum uint16, dataReadyFlag byte, requestDataRecordNumber, responseDataRecordNumber uint16, hartDeviceName string) *Device {
	return &Device{
		Unique:                   unique,
		Handle:                   handle,
		ObjectUUID:               objectUUID,
		InterfaceUUID:            interfaceUUID,
		Port:                     port,
		IPAddress:                ip,
		transport:                transport,
		SlotNum:                  slotNum,
		SubslotNum:               subslotNum,
		activity:                 uuid.New(),
		DataReadyFlag:            dataReadyFlag,
		RequestDataRecordNumber:  requestDataRecordNumber,
		ResponseDataRecordNumber: responseDataRecordNumber,
		HartDeviceName:           hartDeviceName,
	}
}

func (d *Device) nextRequest() {
	d.dcerpcSeqNum++
	d.pnioSeqNum++
}

func (d *Device) constructDCERPCPacket(opnum wire.OpNum, stub []byte) []byte {
	h := wire.DCERPCHeader{
		PacketType:       wire.PacketTypeRequest,
		ObjectUUID:       d.ObjectUUID,
		InterfaceUUID:    d.InterfaceUUID,
		ActivityUUID:     d.activity,
		InterfaceVersion: wire.InterfaceVersionReadWrite,
		SeqNum:           d.dcerpcSeqNum,
		OpNum:            opnum,
	}
	return wire.EncodeDCERPCPacket(h, stub)
}

// ConnectReq establishes the AR session: sends ArBlockReq, waits for
// the response, and does not otherwise inspect it (a non-response is
// the only failure mode the original implementation distinguishes).
func (d *Device) ConnectReq() error {
	d.arUUID = uuid.New()

	block := wire.ArBlockReq{
		ARUUID:             d.arUUID,
		SessionKey:         1,
		CMInitiatorObjUUID: d.ObjectUUID,
	}
	stub := wire.EncodeConnectRequest(block)
	packet := d.constructDCERPCPacket(wire.OpNumConnect, stub)

	if _, err := d.transport.Send(packet); err != nil {
		return &ConnectError{Unique: d.Unique, Err: err}
	}
	if _, err := d.transport.Receive(); err != nil {
		return &ConnectError{Unique: d.Unique, Err: err}
	}
	return nil
}

// SendCommonWriteReq issues a HART command (as an IOD write request)
// and checks that the PNIO status in the response is zero.
func (d *Device) SendCommonWriteReq(dataRecordNumber uint16, command uint8, payload []byte) error {
	frame := wire.EncodeHARTFrame(d.DeviceID, command, payload)

	req := wire.IodReq{
		BlockHeaderType: wire.BlockHeaderTypeIodWriteReq,
		SeqNum:          d.pnioSeqNum,
		ARUUID:          d.arUUID,
		SlotNum:         d.SlotNum,
		SubslotNum:      d.SubslotNum,
		Index:           dataRecordNumber,
		RecordDataLen:   uint32(len(frame)),
	}
	stub := wire.EncodeIodWriteRequest(req, frame)
	packet := d.constructDCERPCPacket(wire.OpNumWrite, stub)

	if _, err := d.transport.Send(packet); err != nil {
		return err
	}

	buf, err := d.transport.Receive()
	if err != nil {
		return err
	}
	_, stub, err := wire.DecodeDCERPCPacket(buf)
	if err != nil {
		return err
	}
	status, _, err := wire.DecodeIodWriteResponse(stub)
	if err != nil {
		return err
	}
	if status != ([4]byte{}) {
		return &StatusError{Status: status}
	}
	return nil
}

// SendCommonReadReq polls an IOD read request until the module's
// data-ready flag is set (or retryMax is exhausted), returning the
// data length and the HART status+payload bytes. When command is 0
// and no device id is known yet, the first ready record is used to
// harvest the device's long address; the loop then reads again and
// returns the next ready record like any other command's.
func (d *Device) SendCommonReadReq(dataRecordNumber uint16, command uint8) (uint8, []byte, error) {
	for retry := 0; retry < retryMax; retry++ {
		bootstrapping := command == 0 && d.DeviceID == ([wire.DeviceIDSize]byte{})
		d.nextRequest()

		req := wire.IodReq{
			BlockHeaderType: wire.BlockHeaderTypeIodReadReq,
			SeqNum:          d.pnioSeqNum,
			ARUUID:          d.arUUID,
			SlotNum:         d.SlotNum,
			SubslotNum:      d.SubslotNum,
			Index:           dataRecordNumber,
			RecordDataLen:   65520,
		}
		stub := wire.EncodeIodReadRequest(req)
		packet := d.constructDCERPCPacket(wire.OpNumRead, stub)

		if _, err := d.transport.Send(packet); err != nil {
			return 0, nil, err
		}
		buf, err := d.transport.Receive()
		if err != nil {
			return 0, nil, err
		}
		_, respStub, err := wire.DecodeDCERPCPacket(buf)
		if err != nil {
			return 0, nil, err
		}
		_, _, record, err := wire.DecodeIodReadResponse(respStub)
		if err != nil {
			return 0, nil, err
		}
		if len(record) == 0 {
			time.Sleep(retryBackoff)
			continue
		}

		if bootstrapping {
			if record[0] != d.DataReadyFlag {
				time.Sleep(retryBackoff)
				continue
			}
			id, err := wire.ExtractDeviceID(record)
			if err != nil {
				time.Sleep(retryBackoff)
				continue
			}
			d.DeviceID = id
			time.Sleep(retryBackoff)
			continue
		}

		rec, err := wire.DecodeResponseRecord(record, d.DataReadyFlag)
		if err != nil {
			return 0, nil, err
		}
		if !rec.Ready {
			time.Sleep(retryBackoff)
			continue
		}
		return rec.DataLength, rec.Data, nil
	}

	return 0, nil, &ReadNotReadyError{Command: command, Retries: retryMax}
}
