// Package wire implements byte-exact encoding and decoding of the
// DCE/RPC v4 connectionless, PNIO and HART frames this gateway speaks
// on the wire.
package wire

import "github.com/google/uuid"

// DCE/RPC connectionless header constants.
const (
	Version             = 0x04
	Flags1               = 0x20
	Flags2               = 0x00
	InterfaceHint        = 0xFFFF
	ActivityHint         = 0xFFFF
	FragmentNum          = 0x0000
	AuthProto            = 0x00
	SerialLow            = 0x00
	SerialHigh           = 0x00
)

// DataRepresentation is the fixed NDR format label: little-endian, ASCII, IEEE.
var DataRepresentation = [3]byte{0x10, 0x00, 0x00}

// PacketType identifies the DCE/RPC packet kind.
type PacketType uint8

const (
	PacketTypeRequest  PacketType = 0x00
	PacketTypeResponse PacketType = 0x02
	PacketTypeReject   PacketType = 0x06
)

// InterfaceVersion selects which PNIO interface a request targets.
type InterfaceVersion uint32

const (
	InterfaceVersionReadWrite InterfaceVersion = 1
	InterfaceVersionLookup    InterfaceVersion = 3
)

// OpNum identifies the PNIO operation carried in a DCE/RPC request.
type OpNum uint16

const (
	OpNumConnect OpNum = 0
	OpNumRead    OpNum = 2
	OpNumWrite   OpNum = 3
)

// EpmInterfaceUUID is the well-known DCE/RPC endpoint-mapper interface.
var EpmInterfaceUUID = uuid.MustParse("e1af8308-5d1f-11c9-91a4-08002b14a0fa")

// Tower floor protocol identifiers used in EPM responses.
type TowerProtocol uint8

const (
	TowerProtocolUUID    TowerProtocol = 0x0D
	TowerProtocolRPCConn TowerProtocol = 0x0A
	TowerProtocolUDP     TowerProtocol = 0x08
	TowerProtocolIP      TowerProtocol = 0x09
)

// PNIO block header constants.
const (
	BlockVersionHigh uint8 = 0x01
	BlockVersionLow  uint8 = 0x00
	ARType           uint16 = 0x0006
	IODPadding       byte   = 0x00
)

// IODReqAPI is the fixed API number carried in every IOD header.
var IODReqAPI = [4]byte{0x00, 0x00, 0x00, 0x00}

// ARProps is the fixed AR properties field sent in ArBlockReq.
var ARProps = [4]byte{0x00, 0x00, 0x01, 0x11}

// CMInitiatorMAC is the fixed (unused) initiator MAC address.
var CMInitiatorMAC = [6]byte{0, 0, 0, 0, 0, 0}

const (
	CMInitiatorActTimeoutFactor uint16 = 0x006E
	CMInitiatorUDPRTPort        uint16 = 0x0000
)

// CMInitiatorStationName is the fixed station name this gateway announces.
var CMInitiatorStationName = [3]byte{'T', 'B', 'L'}

// ReadMaxCount is the args_max/max_count value for IOD read requests.
const ReadMaxCount uint32 = 65584

// BlockHeaderType identifies an AR or IOD block on the wire.
type BlockHeaderType uint16

const (
	BlockHeaderTypeArBlockReq   BlockHeaderType = 0x0101
	BlockHeaderTypeArBlockRes   BlockHeaderType = 0x8101
	BlockHeaderTypeIodReadReq   BlockHeaderType = 0x0009
	BlockHeaderTypeIodReadRes   BlockHeaderType = 0x8009
	BlockHeaderTypeIodWriteReq  BlockHeaderType = 0x0008
	BlockHeaderTypeIodWriteRes  BlockHeaderType = 0x8008
)

func (t BlockHeaderType) valid() bool {
	switch t {
	case BlockHeaderTypeArBlockReq, BlockHeaderTypeArBlockRes,
		BlockHeaderTypeIodReadReq, BlockHeaderTypeIodReadRes,
		BlockHeaderTypeIodWriteReq, BlockHeaderTypeIodWriteRes:
		return true
	}
	return false
}
