package wgnlpy

// The wire schema below mirrors include/uapi/linux/wireguard.h.
// Attribute payloads are native-endian except where noted (sockaddr.go).

const (
	familyName    = "wireguard"
	familyVersion = 1
)

// Commands.
const (
	cmdGetDevice uint8 = 0
	cmdSetDevice uint8 = 1
)

// Device-level attribute types.
const (
	deviceAttrUnspec uint16 = iota
	deviceAttrIfindex
	deviceAttrIfname
	deviceAttrPrivateKey
	deviceAttrPublicKey
	deviceAttrFlags
	deviceAttrListenPort
	deviceAttrFwmark
	deviceAttrPeers
)

// Peer-level attribute types.
const (
	peerAttrUnspec uint16 = iota
	peerAttrPublicKey
	peerAttrPresharedKey
	peerAttrFlags
	peerAttrEndpoint
	peerAttrKeepaliveInterval
	peerAttrLastHandshakeTime
	peerAttrRxBytes
	peerAttrTxBytes
	peerAttrAllowedIPs
	peerAttrProtocolVersion
)

// Allowed-IP attribute types.
const (
	allowedIPAttrUnspec uint16 = iota
	allowedIPAttrFamily
	allowedIPAttrIPAddr
	allowedIPAttrCIDRMask
)

// Device flags (deviceAttrFlags bitmask).
const (
	deviceFlagReplacePeers uint32 = 1 << 0
)

// Peer flags (peerAttrFlags bitmask).
const (
	peerFlagRemoveMe          uint32 = 1 << 0
	peerFlagReplaceAllowedIPs uint32 = 1 << 1
	peerFlagUpdateOnly        uint32 = 1 << 2
)

// ifnameSize is IFNAMSIZ; interface names must fit in it including the
// trailing NUL.
const ifnameSize = 16
