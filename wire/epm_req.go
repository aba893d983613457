package wire

import "encoding/binary"

// EPMHandleSize is the length of the opaque EPM conversation handle.
const EPMHandleSize = 20

// EPMRequestSize is the fixed size of an endpoint-mapper request stub.
//
// spec.md describes this stub as 72 bytes; the wire fixture in the
// original implementation (dcerpc_epm_req.rs, construct_packet_successfully)
// is 76 bytes once every documented field is laid out at its documented
// size. The fixture is authoritative here.
const EPMRequestSize = 76

// EncodeEPMRequest builds the fixed EPM lookup request stub, echoing
// the current conversation handle (20 bytes, zero on the first
// attempt) and requesting at most one matching entry.
func EncodeEPMRequest(handle [EPMHandleSize]byte) []byte {
	buf := make([]byte, EPMRequestSize)

	// inquiry_type = 0 (bytes 0..4, already zero)
	binary.LittleEndian.PutUint32(buf[4:8], 1) // object reference id
	// object.object = 0 (bytes 8..24, already zero)
	binary.LittleEndian.PutUint32(buf[24:28], 2) // interface reference id
	// interface.interface = 0 (bytes 28..44, already zero)
	binary.BigEndian.PutUint16(buf[44:46], 0)    // interface version major
	binary.BigEndian.PutUint16(buf[46:48], 0)    // interface version minor
	binary.LittleEndian.PutUint32(buf[48:52], 1) // version option
	copy(buf[52:72], handle[:])
	binary.LittleEndian.PutUint32(buf[72:76], 1) // max_entries
	return buf
}
