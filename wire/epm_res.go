package wire

import (
	"encoding/binary"
	"encoding/hex"
	"net"

	"github.com/google/uuid"
)

// TowerFloor is one floor of a tower_pointer, identifying a single
// protocol layer (UUID, RPC-connectionless, UDP, IP) the device
// advertises.
type TowerFloor struct {
	Protocol TowerProtocol
	UUID     uuid.UUID // set when Protocol == TowerProtocolUUID
	UDPPort  uint16    // set when Protocol == TowerProtocolUDP
	IPv4     net.IP    // set when Protocol == TowerProtocolIP
}

// TowerPointer describes how to reach the device advertised by an EPM entry.
type TowerPointer struct {
	Annotation string
	Floors     []TowerFloor
}

// Entry is a single EPM response entry. The real wire protocol allows
// arrays of entries; this gateway only ever sees one (see spec.md §1
// Non-goals) and treats the remainder of the buffer as a single
// tower_pointer, matching the reference decoder.
type Entry struct {
	Object       uuid.UUID
	TowerPointer TowerPointer
}

// EPMResponse is a decoded endpoint-mapper response.
type EPMResponse struct {
	// Handle is the opaque conversation handle, kept as a lowercase
	// hex string (not raw bytes) to match the reference decoder and
	// to make it directly loggable/comparable.
	Handle string
	Entry  Entry
}

// DecodeEPMResponse parses an endpoint-mapper response stub (handle,
// counts, and a single entry/tower_pointer/floor chain).
func DecodeEPMResponse(data []byte) (*EPMResponse, error) {
	if len(data) < 36 {
		return nil, decodeErrorf("epm response too short: %d bytes", len(data))
	}

	handle := hex.EncodeToString(data[0:20])
	// num_of_entries at 20:24, max_count at 24:28, offset at 28:32 are
	// parsed by the reference decoder but not used downstream.
	// actual_count at 32:36 is likewise unused here.

	entry, err := decodeEntry(data[36:])
	if err != nil {
		return nil, err
	}

	return &EPMResponse{Handle: handle, Entry: *entry}, nil
}

func decodeEntry(data []byte) (*Entry, error) {
	if len(data) < 16 {
		return nil, decodeErrorf("epm entry too short: %d bytes", len(data))
	}

	object, err := uuidFromLittleEndian(data[0:16])
	if err != nil {
		return nil, decodeErrorf("epm entry object uuid: %v", err)
	}

	tower, err := decodeTowerPointer(data[16:])
	if err != nil {
		return nil, err
	}

	return &Entry{Object: object, TowerPointer: *tower}, nil
}

func decodeTowerPointer(data []byte) (*TowerPointer, error) {
	if len(data) < 12 {
		return nil, decodeErrorf("tower_pointer too short: %d bytes", len(data))
	}

	annotationLength := binary.LittleEndian.Uint32(data[8:12])
	annotationStart := 12
	annotationEnd := annotationStart + int(annotationLength)
	if len(data) < annotationEnd {
		return nil, decodeErrorf("tower_pointer annotation truncated")
	}
	annotation := string(data[annotationStart:annotationEnd])

	length1End := annotationEnd + 4
	length2End := length1End + 4
	numFloorsEnd := length2End + 2
	if len(data) < numFloorsEnd {
		return nil, decodeErrorf("tower_pointer floor count truncated")
	}
	numFloors := binary.LittleEndian.Uint16(data[length2End:numFloorsEnd])

	floorsStart := numFloorsEnd
	floors := make([]TowerFloor, 0, numFloors)
	for i := uint16(0); i < numFloors; i++ {
		if len(data) < floorsStart+2 {
			break
		}
		lhsLength := int(binary.LittleEndian.Uint16(data[floorsStart : floorsStart+2]))

		protocolStart := floorsStart + 2
		protocolEnd := protocolStart + 1
		if len(data) < protocolEnd {
			break
		}
		protocol := TowerProtocol(data[protocolStart])

		rhsStart := floorsStart + 2 + lhsLength
		rhsEnd := rhsStart + 2
		if len(data) < rhsEnd {
			break
		}
		rhsLength := int(binary.LittleEndian.Uint16(data[rhsStart:rhsEnd]))

		floor := TowerFloor{Protocol: protocol}
		switch protocol {
		case TowerProtocolUUID:
			uuidStart := protocolEnd
			uuidEnd := uuidStart + 16
			if len(data) >= uuidEnd {
				u, err := uuidFromLittleEndian(data[uuidStart:uuidEnd])
				if err == nil {
					floor.UUID = u
				}
			}
		case TowerProtocolUDP:
			udpStart := rhsEnd
			udpEnd := udpStart + 2
			if len(data) >= udpEnd {
				floor.UDPPort = binary.BigEndian.Uint16(data[udpStart:udpEnd])
			}
		case TowerProtocolIP:
			ipStart := rhsEnd
			ipEnd := ipStart + 4
			if len(data) >= ipEnd {
				floor.IPv4 = net.IPv4(data[ipStart], data[ipStart+1], data[ipStart+2], data[ipStart+3])
			}
		default:
			// Unknown protocol ids are skipped, not fatal.
		}

		floors = append(floors, floor)
		floorsStart = floorsStart + lhsLength + rhsLength + 2 + 2
	}

	return &TowerPointer{Annotation: annotation, Floors: floors}, nil
}

// InterfaceUUID returns floor 0's UUID, the assumed PNIO interface
// UUID (spec.md §9: only floor 0 is assumed to carry it).
func (t TowerPointer) InterfaceUUID() (uuid.UUID, bool) {
	if len(t.Floors) == 0 || t.Floors[0].Protocol != TowerProtocolUUID {
		return uuid.UUID{}, false
	}
	return t.Floors[0].UUID, true
}

// UDPPort returns the last floor advertising a UDP protocol, the
// device's actual PNIO port per spec.md §4.3 step 2.5.
func (t TowerPointer) UDPPort() (uint16, bool) {
	for i := len(t.Floors) - 1; i >= 0; i-- {
		if t.Floors[i].Protocol == TowerProtocolUDP {
			return t.Floors[i].UDPPort, true
		}
	}
	return 0, false
}

// IsZeroObject reports whether the entry's object UUID is the
// all-zero "not a PNIO entry" sentinel the lookup client retries on.
func (e Entry) IsZeroObject() bool {
	return e.Object == uuid.UUID{}
}

// HandleBytes decodes Handle back into the 20 raw bytes carried on
// the wire, for re-encoding into a subsequent EPM request.
func HandleBytes(handle string) ([EPMHandleSize]byte, error) {
	var out [EPMHandleSize]byte
	b, err := hex.DecodeString(handle)
	if err != nil || len(b) != EPMHandleSize {
		return out, decodeErrorf("invalid epm handle %q", handle)
	}
	copy(out[:], b)
	return out, nil
}
