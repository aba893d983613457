package wire

import (
	"encoding/binary"
)

// envelopePrefixSize is the size of the PNIO envelope fields that
// precede the AR/IOD block: a single 4-byte "field0" slot (args_max on
// requests, status on responses) followed by args_length, max_count,
// offset and actual_count.
const envelopePrefixSize = 20

func encodeEnvelope(field0, argsLength, maxCount, actualCount uint32, block, data []byte) []byte {
	buf := make([]byte, envelopePrefixSize+len(block)+len(data))
	binary.LittleEndian.PutUint32(buf[0:4], field0)
	binary.LittleEndian.PutUint32(buf[4:8], argsLength)
	binary.LittleEndian.PutUint32(buf[8:12], maxCount)
	// offset (12:16) is always zero.
	binary.LittleEndian.PutUint32(buf[16:20], actualCount)
	copy(buf[20:], block)
	copy(buf[20+len(block):], data)
	return buf
}

// EncodeConnectRequest wraps an ArBlockReq in a PNIO envelope for a
// DCE/RPC Connect request.
func EncodeConnectRequest(b ArBlockReq) []byte {
	block := b.Encode()
	size := uint32(len(block))
	return encodeEnvelope(size, size, size, size, block, nil)
}

// EncodeIodReadRequest wraps an IodReq (read variant) in a PNIO
// envelope, with no trailing record data.
func EncodeIodReadRequest(r IodReq) []byte {
	block := r.Encode()
	return encodeEnvelope(ReadMaxCount, uint32(len(block)), ReadMaxCount, uint32(len(block)), block, nil)
}

// EncodeIodWriteRequest wraps an IodReq (write variant) in a PNIO
// envelope with the given HART frame appended as record data.
func EncodeIodWriteRequest(r IodReq, recordData []byte) []byte {
	block := r.Encode()
	total := uint32(len(block) + len(recordData))
	return encodeEnvelope(total, total, total, total, block, recordData)
}

// DecodeConnectResponse decodes a PNIO envelope wrapping an ArBlockRes.
func DecodeConnectResponse(data []byte) (status [4]byte, res *ArBlockRes, err error) {
	if len(data) < envelopePrefixSize+2 {
		return status, nil, decodeErrorf("connect response too short: %d bytes", len(data))
	}
	copy(status[:], data[0:4])

	blockType := BlockHeaderType(binary.BigEndian.Uint16(data[20:22]))
	if blockType != BlockHeaderTypeArBlockRes {
		return status, nil, decodeErrorf("connect response: unexpected block type 0x%04x", blockType)
	}

	res, err = DecodeArBlockRes(data[20:])
	if err != nil {
		return status, nil, err
	}
	return status, res, nil
}

// DecodeIodReadResponse decodes a PNIO envelope wrapping an IodRes
// (read variant) and the HART record data it carries.
//
// The record data length on the wire disagrees with the nominal
// record_data_len field in practice (a known vendor quirk, see
// SPEC_FULL.md §9): the payload buffer is resized to
// actual_count - (block_length + 4), zero-padding as needed, rather
// than trusting the raw remaining-byte count.
func DecodeIodReadResponse(data []byte) (status [4]byte, res *IodRes, recordData []byte, err error) {
	res, recordData, err = decodeIodResponse(data, BlockHeaderTypeIodReadRes)
	if err != nil {
		return status, nil, nil, err
	}
	copy(status[:], data[0:4])
	return status, res, recordData, nil
}

// DecodeIodWriteResponse decodes a PNIO envelope wrapping an IodRes
// (write variant); write responses carry no record data.
func DecodeIodWriteResponse(data []byte) (status [4]byte, res *IodRes, err error) {
	res, _, err = decodeIodResponse(data, BlockHeaderTypeIodWriteRes)
	if err != nil {
		return status, nil, err
	}
	copy(status[:], data[0:4])
	return status, res, nil
}

func decodeIodResponse(data []byte, want BlockHeaderType) (*IodRes, []byte, error) {
	if len(data) < envelopePrefixSize+IodResSize {
		return nil, nil, decodeErrorf("iod response too short: %d bytes", len(data))
	}

	actualCount := binary.LittleEndian.Uint32(data[16:20])
	blockType := BlockHeaderType(binary.BigEndian.Uint16(data[20:22]))
	if blockType != want {
		return nil, nil, decodeErrorf("iod response: expected block type 0x%04x, got 0x%04x", want, blockType)
	}
	blockLength := binary.BigEndian.Uint16(data[22:24])

	res, err := DecodeIodRes(data[20:])
	if err != nil {
		return nil, nil, err
	}

	headerEnd := envelopePrefixSize + int(blockLength) + 4
	var recordData []byte
	if blockType == BlockHeaderTypeIodReadRes {
		dataLen := int(actualCount) - (int(blockLength) + 4)
		if dataLen < 0 {
			dataLen = 0
		}
		if headerEnd > len(data) {
			return nil, nil, decodeErrorf("iod response: header extends past buffer")
		}
		raw := data[headerEnd:]
		recordData = make([]byte, dataLen)
		copy(recordData, raw)
	}

	return res, recordData, nil
}
