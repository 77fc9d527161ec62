package wgnlpy

import (
	"encoding/binary"
	"net"

	"golang.org/x/sys/unix"
)

// Peer endpoints travel as raw sockaddr_in/sockaddr_in6 structs: the family
// is native-endian, the port is big-endian, everything else is laid out as
// the kernel structs are. IPv6 zone names are not representable on the wire
// and are dropped.

// encodeSockaddr lays out addr as a kernel sockaddr.
func encodeSockaddr(addr *net.UDPAddr) ([]byte, error) {
	if ip4 := addr.IP.To4(); ip4 != nil {
		b := make([]byte, unix.SizeofSockaddrInet4)
		binary.NativeEndian.PutUint16(b[0:2], unix.AF_INET)
		binary.BigEndian.PutUint16(b[2:4], uint16(addr.Port))
		copy(b[4:8], ip4)
		return b, nil
	}

	if ip6 := addr.IP.To16(); ip6 != nil {
		b := make([]byte, unix.SizeofSockaddrInet6)
		binary.NativeEndian.PutUint16(b[0:2], unix.AF_INET6)
		binary.BigEndian.PutUint16(b[2:4], uint16(addr.Port))
		// b[4:8] is flowinfo, b[24:28] is scope id; both stay zero.
		copy(b[8:24], ip6)
		return b, nil
	}

	return nil, validationf("endpoint has no valid IP address: %v", addr)
}

// decodeSockaddr parses a kernel sockaddr back into a UDP address.
func decodeSockaddr(b []byte) (*net.UDPAddr, error) {
	if len(b) < 4 {
		return nil, protocolf("sockaddr too short: %d bytes", len(b))
	}

	family := binary.NativeEndian.Uint16(b[0:2])
	port := int(binary.BigEndian.Uint16(b[2:4]))

	switch family {
	case unix.AF_INET:
		if len(b) < unix.SizeofSockaddrInet4 {
			return nil, protocolf("sockaddr_in too short: %d bytes", len(b))
		}
		ip := make(net.IP, net.IPv4len)
		copy(ip, b[4:8])
		return &net.UDPAddr{IP: ip, Port: port}, nil
	case unix.AF_INET6:
		if len(b) < unix.SizeofSockaddrInet6 {
			return nil, protocolf("sockaddr_in6 too short: %d bytes", len(b))
		}
		ip := make(net.IP, net.IPv6len)
		copy(ip, b[8:24])
		return &net.UDPAddr{IP: ip, Port: port}, nil
	}

	return nil, protocolf("sockaddr has unknown address family %d", family)
}
