package wire

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// ArBlockReqSize is the fixed size of an ArBlockReq body (not
// including the PNIO envelope that wraps it).
const ArBlockReqSize = 2 + 2 + 1 + 1 + 2 + 16 + 2 + 6 + 16 + 4 + 2 + 2 + 2 + 3

// ArBlockReq is the application-relation connect request block.
type ArBlockReq struct {
	ARUUID              uuid.UUID
	SessionKey          uint16
	CMInitiatorObjUUID  uuid.UUID
}

// Encode lays out the ArBlockReq body in wire order.
func (b ArBlockReq) Encode() []byte {
	buf := make([]byte, ArBlockReqSize)
	off := 0

	binary.BigEndian.PutUint16(buf[off:off+2], uint16(BlockHeaderTypeArBlockReq))
	off += 2
	binary.BigEndian.PutUint16(buf[off:off+2], uint16(ArBlockReqSize-4))
	off += 2
	buf[off] = BlockVersionHigh
	off++
	buf[off] = BlockVersionLow
	off++
	binary.BigEndian.PutUint16(buf[off:off+2], ARType)
	off += 2

	arUUIDBytes, _ := b.ARUUID.MarshalBinary()
	copy(buf[off:off+16], arUUIDBytes)
	off += 16

	binary.BigEndian.PutUint16(buf[off:off+2], b.SessionKey)
	off += 2

	copy(buf[off:off+6], CMInitiatorMAC[:])
	off += 6

	initObjUUIDBytes, _ := b.CMInitiatorObjUUID.MarshalBinary()
	copy(buf[off:off+16], initObjUUIDBytes)
	off += 16

	copy(buf[off:off+4], ARProps[:])
	off += 4

	binary.BigEndian.PutUint16(buf[off:off+2], CMInitiatorActTimeoutFactor)
	off += 2
	binary.BigEndian.PutUint16(buf[off:off+2], CMInitiatorUDPRTPort)
	off += 2

	binary.BigEndian.PutUint16(buf[off:off+2], uint16(len(CMInitiatorStationName)))
	off += 2
	copy(buf[off:off+3], CMInitiatorStationName[:])
	off += 3

	return buf
}

// ArBlockRes is the application-relation connect response block.
type ArBlockRes struct {
	BlockHeaderType       BlockHeaderType
	ARUUID                uuid.UUID
	SessionKey            uint16
	CMResponderMACAddress [6]byte
	CMResponderUDPPort    [2]byte
}

// DecodeArBlockRes parses an ArBlockRes block including its common
// block header (offset 0 here is block_header_type).
func DecodeArBlockRes(data []byte) (*ArBlockRes, error) {
	if len(data) < 34 {
		return nil, decodeErrorf("ar_block_res too short: %d bytes", len(data))
	}

	blockType := BlockHeaderType(binary.BigEndian.Uint16(data[0:2]))
	if !blockType.valid() {
		return nil, decodeErrorf("ar_block_res: invalid block_header_type 0x%04x", blockType)
	}

	arUUID, err := uuid.FromBytes(data[8:24])
	if err != nil {
		return nil, decodeErrorf("ar_block_res ar_uuid: %v", err)
	}

	res := &ArBlockRes{
		BlockHeaderType: blockType,
		ARUUID:          arUUID,
		SessionKey:      binary.BigEndian.Uint16(data[24:26]),
	}
	copy(res.CMResponderMACAddress[:], data[26:32])
	copy(res.CMResponderUDPPort[:], data[32:34])
	return res, nil
}
