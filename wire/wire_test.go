package wire

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/google/uuid"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("invalid hex fixture: %v", err)
	}
	return b
}

func TestDCERPCHeaderRoundTrip(t *testing.T) {
	h := DCERPCHeader{
		PacketType:       PacketTypeRequest,
		ObjectUUID:       uuid.New(),
		InterfaceUUID:    uuid.New(),
		ActivityUUID:     uuid.New(),
		InterfaceVersion: InterfaceVersionReadWrite,
		SeqNum:           42,
		OpNum:            OpNumWrite,
	}
	stub := []byte{0x01, 0x02, 0x03, 0x04, 0x05}

	packet := EncodeDCERPCPacket(h, stub)

	got, gotStub, err := DecodeDCERPCPacket(packet)
	if err != nil {
		t.Fatalf("DecodeDCERPCPacket: %v", err)
	}
	if got.PacketType != h.PacketType {
		t.Errorf("PacketType = %v, want %v", got.PacketType, h.PacketType)
	}
	if got.ObjectUUID != h.ObjectUUID {
		t.Errorf("ObjectUUID = %v, want %v", got.ObjectUUID, h.ObjectUUID)
	}
	if got.InterfaceUUID != h.InterfaceUUID {
		t.Errorf("InterfaceUUID = %v, want %v", got.InterfaceUUID, h.InterfaceUUID)
	}
	if got.ActivityUUID != h.ActivityUUID {
		t.Errorf("ActivityUUID = %v, want %v", got.ActivityUUID, h.ActivityUUID)
	}
	if got.InterfaceVersion != h.InterfaceVersion {
		t.Errorf("InterfaceVersion = %v, want %v", got.InterfaceVersion, h.InterfaceVersion)
	}
	if got.SeqNum != h.SeqNum {
		t.Errorf("SeqNum = %v, want %v", got.SeqNum, h.SeqNum)
	}
	if got.OpNum != h.OpNum {
		t.Errorf("OpNum = %v, want %v", got.OpNum, h.OpNum)
	}
	if int(got.FragmentLen) != len(stub) {
		t.Errorf("FragmentLen = %d, want %d", got.FragmentLen, len(stub))
	}
	if !bytes.Equal(gotStub, stub) {
		t.Errorf("stub = %x, want %x", gotStub, stub)
	}
}

// TestFullDCERPCWriteRequestEncode matches the create_write_request_dcerpc_packet_should_ok
// fixture: a fixed header plus a 91-byte stub must encode byte-identically,
// with fragment_len == 91 little-endian.
func TestFullDCERPCWriteRequestEncode(t *testing.T) {
	objUUID := uuid.MustParse("dea00000-6c97-11d1-8271-00010313002a")
	ifaceUUID := uuid.MustParse("dea00001-6c97-11d1-8271-00a02442df7d")
	activityUUID := uuid.MustParse("401ca514-11a1-1e1e-9ec0-080027e3f4b9")

	stub := mustHex(t, ""+
		"47000000470000004700"+
		"00000000000047000000"+
		"0008003c01000003b63d"+
		"bc71b5459246b8c50761"+
		"aeb88cde000000000001"+
		"00010000005000000007"+
		"00000000000000000000"+
		"00000000000000000000"+
		"00000000001402800000"+
		"82")
	if len(stub) != 91 {
		t.Fatalf("fixture stub length = %d, want 91", len(stub))
	}

	h := DCERPCHeader{
		PacketType:       PacketTypeRequest,
		ObjectUUID:       objUUID,
		InterfaceUUID:    ifaceUUID,
		ActivityUUID:     activityUUID,
		InterfaceVersion: InterfaceVersionReadWrite,
		SeqNum:           4,
		OpNum:            OpNumWrite,
	}

	want := mustHex(t, ""+
		"04002000100000000000"+
		"a0de976cd11182710001"+
		"0313002a0100a0de976c"+
		"d111827100a02442df7d"+
		"14a51c40a1111e1e9ec0"+
		"080027e3f4b900000000"+
		"01000000040000000300"+
		"ffffffff5b0000000000"+
		"47000000470000004700"+
		"00000000000047000000"+
		"0008003c01000003b63d"+
		"bc71b5459246b8c50761"+
		"aeb88cde000000000001"+
		"00010000005000000007"+
		"00000000000000000000"+
		"00000000000000000000"+
		"00000000001402800000"+
		"82")

	got := EncodeDCERPCPacket(h, stub)
	if !bytes.Equal(got, want) {
		t.Fatalf("encoded packet mismatch:\n got  %x\n want %x", got, want)
	}

	fragLen := got[74:76]
	if fragLen[0] != 0x5b || fragLen[1] != 0x00 {
		t.Errorf("fragment_len bytes = %x, want 5b00 (91 LE)", fragLen)
	}
}

func TestArBlockReqEncodeRoundTripFields(t *testing.T) {
	arUUID := uuid.New()
	objUUID := uuid.New()
	b := ArBlockReq{ARUUID: arUUID, SessionKey: 1, CMInitiatorObjUUID: objUUID}
	encoded := b.Encode()

	if len(encoded) != ArBlockReqSize {
		t.Fatalf("Encode() length = %d, want %d", len(encoded), ArBlockReqSize)
	}
	if got := BlockHeaderType(encoded[0])<<8 | BlockHeaderType(encoded[1]); got != BlockHeaderTypeArBlockReq {
		t.Errorf("block_type = 0x%04x, want 0x%04x", got, BlockHeaderTypeArBlockReq)
	}

	gotARUUID, err := uuid.FromBytes(encoded[8:24])
	if err != nil {
		t.Fatalf("parsing ar_uuid: %v", err)
	}
	if gotARUUID != arUUID {
		t.Errorf("ar_uuid = %v, want %v", gotARUUID, arUUID)
	}

	sessionKey := uint16(encoded[24])<<8 | uint16(encoded[25])
	if sessionKey != 1 {
		t.Errorf("session_key = %d, want 1", sessionKey)
	}

	gotObjUUID, err := uuid.FromBytes(encoded[32:48])
	if err != nil {
		t.Fatalf("parsing cm_initiator_obj_uuid: %v", err)
	}
	if gotObjUUID != objUUID {
		t.Errorf("cm_initiator_obj_uuid = %v, want %v", gotObjUUID, objUUID)
	}
}

// TestDecodeArBlockRes matches the try_from_pnio_connect_response fixture:
// cm_responder_mac_address must decode to [0xec,0x1c,0x5d,0x4d,0x54,0x97].
func TestDecodeArBlockRes(t *testing.T) {
	envelope := mustHex(t, ""+
		"00000000220000003d00"+
		"000000000000220000008"+
		"101001e01000006f4162d"+
		"be951d4041b5839b57a3b"+
		"ed95e0001ec1c5d4d5497"+
		"8892")

	status, res, err := DecodeConnectResponse(envelope)
	if err != nil {
		t.Fatalf("DecodeConnectResponse: %v", err)
	}
	if status != ([4]byte{}) {
		t.Errorf("status = %x, want zero", status)
	}
	wantMAC := [6]byte{0xec, 0x1c, 0x5d, 0x4d, 0x54, 0x97}
	if res.CMResponderMACAddress != wantMAC {
		t.Errorf("cm_responder_mac_address = %x, want %x", res.CMResponderMACAddress, wantMAC)
	}
}

// TestDecodeIodReadResponse matches the try_from_pnio_read_response fixture:
// ar_uuid must parse as f4162dbe-951d-4041-b583-9b57a3bed95e.
func TestDecodeIodReadResponse(t *testing.T) {
	envelope := mustHex(t, ""+
		"0000000030010000300001000000000030010000"+
		"8009003c01000023f4162dbe951d4041b5839b57"+
		"a3bed95e000000000001000100000051000000f0"+
		"0000000000000000000000000000000000000000"+
		"000000000400068000130000fe2a0b0505030638"+
		"003fcc78050c0269009e2082082002066cfa00c5"+
		"ba000000000000009a0000000000000000000000"+
		"0000000000000000000000000000000000000000"+
		"0000000000000000000000000000000000000000"+
		"0000000000000000000000000000000000000000"+
		"0000000000000000000000000000000000000000"+
		"0000000000000000000000000000000000000000"+
		"0000000000000000000000000000000000000000"+
		"0000000000000000000000000000000000000000"+
		"0000000000000000000000000000000000000000"+
		"0000000000000000000000000000000000000000"+
		"00000000")

	_, res, _, err := DecodeIodReadResponse(envelope)
	if err != nil {
		t.Fatalf("DecodeIodReadResponse: %v", err)
	}
	want := uuid.MustParse("f4162dbe-951d-4041-b583-9b57a3bed95e")
	if res.ARUUID != want {
		t.Errorf("ar_uuid = %v, want %v", res.ARUUID, want)
	}
}

// TestDecodeIodWriteResponse matches the try_from_pnio_write_response fixture:
// status == zero and block_header_len == 60.
func TestDecodeIodWriteResponse(t *testing.T) {
	envelope := mustHex(t, ""+
		"00000000400000004b00"+
		"00000000000040000000"+
		"8008003c01000024f416"+
		"2dbe951d4041b5839b57"+
		"a3bed95e000000000001"+
		"00010000005000000000"+
		"00000000000000000000"+
		"00000000000000000000"+
		"00000000")

	status, res, err := DecodeIodWriteResponse(envelope)
	if err != nil {
		t.Fatalf("DecodeIodWriteResponse: %v", err)
	}
	if status != ([4]byte{}) {
		t.Errorf("status = %x, want zero", status)
	}
	blockLen := uint16(envelope[22])<<8 | uint16(envelope[23])
	if blockLen != 60 {
		t.Errorf("block_header_len = %d, want 60", blockLen)
	}
	if res.BlockHeaderType != BlockHeaderTypeIodWriteRes {
		t.Errorf("block_header_type = 0x%04x, want 0x%04x", res.BlockHeaderType, BlockHeaderTypeIodWriteRes)
	}
}

// TestDecodeEPMResponseHappyPath feeds the literal ET 200SP response
// fixture: handle, floor count, floor-0 UUID and entry object must all
// decode exactly.
func TestDecodeEPMResponseHappyPath(t *testing.T) {
	stub := mustHex(t, ""+
		"00000000290000000000"+
		"00108000ec1c5d4d5497"+
		"01000000010000000000"+
		"0000010000000000a0de"+
		"976cd111827100010313"+
		"002a0300000000000000"+
		"40000000455432303053"+
		"50202020202020202020"+
		"20202020202020202020"+
		"36455337203135352d36"+
		"415530312d30424e3020"+
		"20202020203420562020"+
		"34202032202030004b00"+
		"00004b00000005001300"+
		"0d0100a0de976cd11182"+
		"7100a02442df7d010002"+
		"00000013000d045d888a"+
		"eb1cc9119fe808002b10"+
		"48600200020000000100"+
		"0a020000000100080200"+
		"c0040100090400000000"+
		"007000000000")

	resp, err := DecodeEPMResponse(stub)
	if err != nil {
		t.Fatalf("DecodeEPMResponse: %v", err)
	}

	const wantHandle = "0000000029000000000000108000ec1c5d4d5497"
	if resp.Handle != wantHandle {
		t.Errorf("handle = %q, want %q", resp.Handle, wantHandle)
	}

	if got := len(resp.Entry.TowerPointer.Floors); got != 5 {
		t.Fatalf("floor count = %d, want 5", got)
	}

	wantFloor0 := uuid.MustParse("dea00001-6c97-11d1-8271-00a02442df7d")
	if resp.Entry.TowerPointer.Floors[0].UUID != wantFloor0 {
		t.Errorf("floor 0 uuid = %v, want %v", resp.Entry.TowerPointer.Floors[0].UUID, wantFloor0)
	}

	wantObject := uuid.MustParse("dea00000-6c97-11d1-8271-00010313002a")
	if resp.Entry.Object != wantObject {
		t.Errorf("entry object = %v, want %v", resp.Entry.Object, wantObject)
	}
	if resp.Entry.IsZeroObject() {
		t.Error("IsZeroObject() = true for a non-zero entry")
	}

	ifaceUUID, ok := resp.Entry.TowerPointer.InterfaceUUID()
	if !ok || ifaceUUID != wantFloor0 {
		t.Errorf("InterfaceUUID() = (%v, %v), want (%v, true)", ifaceUUID, ok, wantFloor0)
	}
	if _, ok := resp.Entry.TowerPointer.UDPPort(); !ok {
		t.Error("UDPPort() = not found, want a UDP floor present")
	}
}

// TestDecodeEPMResponseEmptyEntry feeds a response whose entry object is
// all-zero (a 36-byte header, a zero object UUID, and a minimal
// zero-floor tower_pointer): the lookup client treats this as "not a
// PNIO entry, retry".
func TestDecodeEPMResponseEmptyEntry(t *testing.T) {
	stub := make([]byte, 36+16+22)

	resp, err := DecodeEPMResponse(stub)
	if err != nil {
		t.Fatalf("DecodeEPMResponse: %v", err)
	}
	if !resp.Entry.IsZeroObject() {
		t.Error("IsZeroObject() = false, want true for all-zero entry object")
	}
	if got := len(resp.Entry.TowerPointer.Floors); got != 0 {
		t.Errorf("floor count = %d, want 0", got)
	}
}

func TestHandleBytesRoundTrip(t *testing.T) {
	const handle = "0000000029000000000000108000ec1c5d4d5497"
	b, err := HandleBytes(handle)
	if err != nil {
		t.Fatalf("HandleBytes: %v", err)
	}
	if got := hex.EncodeToString(b[:]); got != handle {
		t.Errorf("round-trip handle = %q, want %q", got, handle)
	}
}

func TestXORChecksum(t *testing.T) {
	if got := XORChecksum([]byte{0x02, 0x80, 0x00, 0x00}, 0); got != 0x82 {
		t.Errorf("XORChecksum = 0x%02x, want 0x82", got)
	}
}

// TestHARTShortFrame matches the command-0 short-frame fixture.
func TestHARTShortFrame(t *testing.T) {
	got := EncodeHARTFrame([DeviceIDSize]byte{}, 0, nil)
	want := []byte{0x00, 0x14, 0x02, 0x00, 0x00, 0x00}
	want = append(want, XORChecksum(want, 2))
	if !bytes.Equal(got, want) {
		t.Errorf("short frame = %x, want %x", got, want)
	}
	if len(got) != 7 {
		t.Errorf("short frame length = %d, want 7", len(got))
	}
}

// TestHARTLongFrame matches the command-9 long-frame fixture.
func TestHARTLongFrame(t *testing.T) {
	deviceID := [DeviceIDSize]byte{0xAB, 0xCD, 0x01, 0x02, 0x03}
	got := EncodeHARTFrame(deviceID, 9, nil)

	want := []byte{0x00, 0x05, 0x82, 0xAB, 0xCD, 0x01, 0x02, 0x03, 0x09, 0x01}
	checksum := XORChecksum(want, 2)
	want = append(want, checksum)

	if !bytes.Equal(got, want) {
		t.Errorf("long frame = %x, want %x", got, want)
	}
}

func TestHARTLongFrameWithPayload(t *testing.T) {
	deviceID := [DeviceIDSize]byte{0x01, 0x02, 0x03, 0x04, 0x05}
	payload := []byte{0xAA, 0xBB}
	got := EncodeHARTFrame(deviceID, 48, payload)

	if len(got) != 10+len(payload)+1 {
		t.Fatalf("frame length = %d, want %d", len(got), 10+len(payload)+1)
	}
	if !bytes.Equal(got[10:12], payload) {
		t.Errorf("payload bytes = %x, want %x", got[10:12], payload)
	}
	wantChecksum := XORChecksum(got[:len(got)-1], 2)
	if got[len(got)-1] != wantChecksum {
		t.Errorf("checksum = 0x%02x, want 0x%02x", got[len(got)-1], wantChecksum)
	}
}

func TestDecodeResponseRecordNotReady(t *testing.T) {
	record := make([]byte, 12)
	record[0] = 0x01 // not the data-ready flag
	rec, err := DecodeResponseRecord(record, 0x04)
	if err != nil {
		t.Fatalf("DecodeResponseRecord: %v", err)
	}
	if rec.Ready {
		t.Error("Ready = true, want false")
	}
}

func TestDecodeResponseRecordReady(t *testing.T) {
	record := make([]byte, 14)
	record[0] = 0x04
	record[9] = 4
	copy(record[10:], []byte{0x00, 0x00, 0xAA, 0xBB})

	rec, err := DecodeResponseRecord(record, 0x04)
	if err != nil {
		t.Fatalf("DecodeResponseRecord: %v", err)
	}
	if !rec.Ready {
		t.Fatal("Ready = false, want true")
	}
	if rec.DataLength != 4 {
		t.Errorf("DataLength = %d, want 4", rec.DataLength)
	}
	if !bytes.Equal(rec.Data, []byte{0x00, 0x00, 0xAA, 0xBB}) {
		t.Errorf("Data = %x, want 0000aabb", rec.Data)
	}
}

func TestExtractDeviceID(t *testing.T) {
	record := make([]byte, 20)
	record[9], record[10] = 0x10, 0x20 // device type code
	record[17], record[18], record[19] = 0x30, 0x40, 0x50

	id, err := ExtractDeviceID(record)
	if err != nil {
		t.Fatalf("ExtractDeviceID: %v", err)
	}
	want := [DeviceIDSize]byte{0x10, 0x20, 0x30, 0x40, 0x50}
	if id != want {
		t.Errorf("device id = %x, want %x", id, want)
	}
}

func TestBlockHeaderTypeValid(t *testing.T) {
	if !BlockHeaderTypeArBlockReq.valid() {
		t.Error("ArBlockReq should be valid")
	}
	if BlockHeaderType(0x1234).valid() {
		t.Error("0x1234 should not be a valid block header type")
	}
}
