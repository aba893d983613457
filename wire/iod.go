package wire

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// IodReqSize is the fixed size of an IodReq header body (not
// including any trailing record data).
const IodReqSize = 2 + 2 + 1 + 1 + 2 + 16 + 4 + 2 + 2 + 2 + 2 + 4 + 24

// IodResSize is the fixed size of an IodRes header body (not
// including any trailing record data).
const IodResSize = 2 + 2 + 1 + 1 + 2 + 16 + 4 + 2 + 2 + 2 + 2 + 4 + 2 + 2 + 4 + 16

// IodReq is an IOD read or write request header.
type IodReq struct {
	BlockHeaderType BlockHeaderType
	SeqNum          uint16
	ARUUID          uuid.UUID
	SlotNum         uint16
	SubslotNum      uint16
	Index           uint16
	RecordDataLen   uint32
}

// Encode lays out the IodReq header in wire order.
func (r IodReq) Encode() []byte {
	buf := make([]byte, IodReqSize)
	off := 0

	binary.BigEndian.PutUint16(buf[off:off+2], uint16(r.BlockHeaderType))
	off += 2
	binary.BigEndian.PutUint16(buf[off:off+2], uint16(IodReqSize-4))
	off += 2
	buf[off] = BlockVersionHigh
	off++
	buf[off] = BlockVersionLow
	off++
	binary.BigEndian.PutUint16(buf[off:off+2], r.SeqNum)
	off += 2

	arUUIDBytes, _ := r.ARUUID.MarshalBinary()
	copy(buf[off:off+16], arUUIDBytes)
	off += 16

	copy(buf[off:off+4], IODReqAPI[:])
	off += 4
	binary.BigEndian.PutUint16(buf[off:off+2], r.SlotNum)
	off += 2
	binary.BigEndian.PutUint16(buf[off:off+2], r.SubslotNum)
	off += 2
	buf[off] = IODPadding
	buf[off+1] = IODPadding
	off += 2
	binary.BigEndian.PutUint16(buf[off:off+2], r.Index)
	off += 2
	binary.BigEndian.PutUint32(buf[off:off+4], r.RecordDataLen)
	off += 4
	// 24 trailing padding zero bytes are already zero-valued.

	return buf
}

// IodRes is an IOD read or write response header.
type IodRes struct {
	BlockHeaderType BlockHeaderType
	SeqNum          uint16
	ARUUID          uuid.UUID
	SlotNum         uint16
	SubslotNum      uint16
	Index           uint16
	RecordDataLen   uint32
	Status          [4]byte
}

// DecodeIodRes parses an IOD response header. data starts at
// block_header_type (offset 0 here = offset 20 of the enclosing PNIO
// envelope, per pnio.go).
func DecodeIodRes(data []byte) (*IodRes, error) {
	if len(data) < 40 {
		return nil, decodeErrorf("iod_res too short: %d bytes", len(data))
	}

	blockType := BlockHeaderType(binary.BigEndian.Uint16(data[0:2]))
	if !blockType.valid() {
		return nil, decodeErrorf("iod_res: invalid block_header_type 0x%04x", blockType)
	}

	arUUID, err := uuid.FromBytes(data[8:24])
	if err != nil {
		return nil, decodeErrorf("iod_res ar_uuid: %v", err)
	}

	res := &IodRes{
		BlockHeaderType: blockType,
		SeqNum:          binary.BigEndian.Uint16(data[6:8]),
		ARUUID:          arUUID,
		SlotNum:         binary.BigEndian.Uint16(data[28:30]),
		SubslotNum:      binary.BigEndian.Uint16(data[30:32]),
		Index:           binary.BigEndian.Uint16(data[34:36]),
		RecordDataLen:   binary.BigEndian.Uint32(data[36:40]),
	}

	if blockType == BlockHeaderTypeIodWriteRes && len(data) >= 49 {
		copy(res.Status[:], data[45:49])
	}

	return res, nil
}
