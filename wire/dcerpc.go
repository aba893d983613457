package wire

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// DCERPCHeaderSize is the fixed size of a DCE/RPC v4 connectionless header.
const DCERPCHeaderSize = 80

// DCERPCHeader is the 80-byte fixed header that precedes every DCE/RPC
// connectionless PDU. Stub data (an EPM request/response or a PNIO
// envelope) follows immediately after.
type DCERPCHeader struct {
	PacketType       PacketType
	ObjectUUID       uuid.UUID
	InterfaceUUID    uuid.UUID
	ActivityUUID     uuid.UUID
	InterfaceVersion InterfaceVersion
	SeqNum           uint32
	OpNum            OpNum
	FragmentLen      uint16
}

// EncodeDCERPCPacket builds a full DCE/RPC connectionless PDU: header
// followed by stub. FragmentLen is derived from len(stub).
func EncodeDCERPCPacket(h DCERPCHeader, stub []byte) []byte {
	buf := make([]byte, DCERPCHeaderSize+len(stub))

	buf[0] = Version
	buf[1] = byte(h.PacketType)
	buf[2] = Flags1
	buf[3] = Flags2
	copy(buf[4:7], DataRepresentation[:])
	buf[7] = SerialHigh

	objBytes, _ := h.ObjectUUID.MarshalBinary()
	copy(buf[8:24], littleEndianUUID(objBytes))

	ifaceBytes, _ := h.InterfaceUUID.MarshalBinary()
	copy(buf[24:40], littleEndianUUID(ifaceBytes))

	actBytes, _ := h.ActivityUUID.MarshalBinary()
	copy(buf[40:56], littleEndianUUID(actBytes))

	// server_boot_time is always zero.
	binary.LittleEndian.PutUint32(buf[60:64], uint32(h.InterfaceVersion))
	binary.LittleEndian.PutUint32(buf[64:68], h.SeqNum)
	binary.LittleEndian.PutUint16(buf[68:70], uint16(h.OpNum))
	binary.LittleEndian.PutUint16(buf[70:72], InterfaceHint)
	binary.LittleEndian.PutUint16(buf[72:74], ActivityHint)
	binary.LittleEndian.PutUint16(buf[74:76], uint16(len(stub)))
	binary.LittleEndian.PutUint16(buf[76:78], FragmentNum)
	buf[78] = AuthProto
	buf[79] = SerialLow

	copy(buf[80:], stub)
	return buf
}

// DecodeDCERPCPacket splits a received datagram into its header and
// stub payload.
func DecodeDCERPCPacket(data []byte) (*DCERPCHeader, []byte, error) {
	if len(data) < DCERPCHeaderSize {
		return nil, nil, decodeErrorf("dcerpc packet too short: %d bytes", len(data))
	}

	h := &DCERPCHeader{
		PacketType: PacketType(data[1]),
	}

	objUUID, err := uuidFromLittleEndian(data[8:24])
	if err != nil {
		return nil, nil, decodeErrorf("dcerpc object_uuid: %v", err)
	}
	h.ObjectUUID = objUUID

	ifaceUUID, err := uuidFromLittleEndian(data[24:40])
	if err != nil {
		return nil, nil, decodeErrorf("dcerpc interface_uuid: %v", err)
	}
	h.InterfaceUUID = ifaceUUID

	actUUID, err := uuidFromLittleEndian(data[40:56])
	if err != nil {
		return nil, nil, decodeErrorf("dcerpc activity_uuid: %v", err)
	}
	h.ActivityUUID = actUUID

	h.InterfaceVersion = InterfaceVersion(binary.LittleEndian.Uint32(data[60:64]))
	h.SeqNum = binary.LittleEndian.Uint32(data[64:68])
	h.OpNum = OpNum(binary.LittleEndian.Uint16(data[68:70]))
	h.FragmentLen = binary.LittleEndian.Uint16(data[74:76])

	stub := data[80:]
	return h, stub, nil
}

// littleEndianUUID reverses the big-endian bytes produced by
// uuid.MarshalBinary's three multi-byte fields into the
// little-endian-on-the-wire representation DCE/RPC expects, leaving
// the trailing 8 bytes (clock_seq + node) untouched.
func littleEndianUUID(b []byte) []byte {
	out := make([]byte, 16)
	copy(out, b)
	reverse(out[0:4])
	reverse(out[4:6])
	reverse(out[6:8])
	return out
}

// uuidFromLittleEndian is the inverse of littleEndianUUID.
func uuidFromLittleEndian(b []byte) (uuid.UUID, error) {
	tmp := make([]byte, 16)
	copy(tmp, b)
	reverse(tmp[0:4])
	reverse(tmp[4:6])
	reverse(tmp[6:8])
	return uuid.FromBytes(tmp)
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
