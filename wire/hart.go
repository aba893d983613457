package wire

// DeviceIDSize is the length of a HART long-form device address.
const DeviceIDSize = 5

// XORChecksum is the bit-wise XOR of all bytes starting at offset
// (the delimiter byte), matching the vendor's frame checksum.
func XORChecksum(b []byte, offset int) byte {
	var acc byte
	for _, v := range b[offset:] {
		acc ^= v
	}
	return acc
}

// EncodeHARTShortFrame builds the short-form command-0 write frame
// used while the device's long address is still unknown.
func EncodeHARTShortFrame() []byte {
	frame := []byte{0x00, 0x14, 0x02, 0x00, 0x00, 0x00}
	checksum := XORChecksum(frame, 2)
	return append(frame, checksum)
}

// EncodeHARTLongFrame builds a long-form frame addressed to
// deviceID for the given command and optional write payload.
func EncodeHARTLongFrame(deviceID [DeviceIDSize]byte, cmd uint8, payload []byte) []byte {
	frame := make([]byte, 0, 10+len(payload)+1)
	frame = append(frame, 0x00, 0x05, 0x82)
	frame = append(frame, deviceID[:]...)
	frame = append(frame, cmd, 0x01)
	frame = append(frame, payload...)
	checksum := XORChecksum(frame, 2)
	frame = append(frame, checksum)
	return frame
}

// EncodeHARTFrame picks the short or long frame form per spec.md
// §4.1: short form only while device_id is unknown and the command
// being issued is command 0.
func EncodeHARTFrame(deviceID [DeviceIDSize]byte, cmd uint8, payload []byte) []byte {
	if deviceID == ([DeviceIDSize]byte{}) && cmd == 0 {
		return EncodeHARTShortFrame()
	}
	return EncodeHARTLongFrame(deviceID, cmd, payload)
}

// ResponseRecord is the parsed response record an AI-HART module
// writes back: a response-control byte, a data length, and HART
// status + command-specific payload bytes.
type ResponseRecord struct {
	Ready      bool
	DataLength uint8
	Data       []byte
}

// DecodeResponseRecord inspects a raw IOD read record against the
// module's data-ready flag. Ready is false (and Data/DataLength are
// zero) when byte 0 doesn't match dataReadyFlag, i.e. no fresh reply
// is pending retrieval.
func DecodeResponseRecord(record []byte, dataReadyFlag byte) (*ResponseRecord, error) {
	if len(record) < 10 {
		return nil, decodeErrorf("response record too short: %d bytes", len(record))
	}
	if record[0] != dataReadyFlag {
		return &ResponseRecord{Ready: false}, nil
	}
	return &ResponseRecord{
		Ready:      true,
		DataLength: record[9],
		Data:       record[10:],
	}, nil
}

// ExtractDeviceID parses the 5-byte HART long address out of a raw
// command-0 response record (byte 0 = response control, as received
// straight off the wire, before DecodeResponseRecord's 10-byte
// split): device_type_code is record[9:11], and the device's own
// identifier bytes are record[17:20].
func ExtractDeviceID(record []byte) ([DeviceIDSize]byte, error) {
	var id [DeviceIDSize]byte
	if len(record) < 20 {
		return id, decodeErrorf("command-0 response record too short: %d bytes", len(record))
	}
	id[0] = record[9]
	id[1] = record[10]
	id[2] = record[17]
	id[3] = record[18]
	id[4] = record[19]
	return id, nil
}
