package wgnlpy

import (
	"encoding/binary"
	"errors"
	"net"
	"time"

	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"
)

// parseDevice merges the fragments of one dump into a single snapshot.
//
// Large peer lists arrive split across several netlink messages. The
// interface-level scalars come from the first fragment; every fragment may
// contribute peer records. A peer public key seen before means the record
// continues an earlier one: only its allowed IPs are appended, in arrival
// order, and its scalar fields are ignored.
func parseDevice(msgs []genetlink.Message, name string, opts DumpOptions) (*Device, error) {
	if len(msgs) == 0 {
		return nil, protocolf("empty response for device %q", name)
	}

	dev := &Device{}
	if err := parseDeviceAttrs(dev, msgs[0].Data, opts); err != nil {
		return nil, err
	}
	if dev.Name != name {
		return nil, protocolf("response names device %q, requested %q", dev.Name, name)
	}

	seen := make(map[Key]int) // public key -> index into dev.Peers
	for _, msg := range msgs {
		if err := parsePeerLists(dev, seen, msg.Data); err != nil {
			return nil, err
		}
	}

	// Preshared key disclosure is a projection over the finished
	// snapshot, not a decoder special case.
	projectPresharedKeys(dev, opts)

	return dev, nil
}

// parseDeviceAttrs fills in the interface-level scalars of dev. Unknown
// attribute types are skipped. The private key is not even read unless its
// disclosure was requested.
func parseDeviceAttrs(dev *Device, b []byte, opts DumpOptions) error {
	ad, err := netlink.NewAttributeDecoder(b)
	if err != nil {
		return protocolf("malformed device attributes: %v", err)
	}

	for ad.Next() {
		switch ad.Type() {
		case deviceAttrIfindex:
			dev.Index = ad.Uint32()
		case deviceAttrIfname:
			dev.Name = ad.String()
		case deviceAttrPrivateKey:
			if !opts.RevealPrivateKey {
				continue
			}
			ad.Do(func(b []byte) error {
				k, err := decodeKey(b)
				if err != nil {
					return err
				}
				dev.PrivateKey = &k
				return nil
			})
		case deviceAttrPublicKey:
			ad.Do(func(b []byte) error {
				k, err := decodeKey(b)
				if err != nil {
					return err
				}
				dev.PublicKey = k
				return nil
			})
		case deviceAttrListenPort:
			dev.ListenPort = ad.Uint16()
		case deviceAttrFwmark:
			dev.FirewallMark = ad.Uint32()
		}
	}

	return attrError(ad.Err())
}

// parsePeerLists walks one fragment's peer list, if any, and merges each
// record into dev.
func parsePeerLists(dev *Device, seen map[Key]int, b []byte) error {
	ad, err := netlink.NewAttributeDecoder(b)
	if err != nil {
		return protocolf("malformed device attributes: %v", err)
	}

	for ad.Next() {
		if ad.Type() != deviceAttrPeers {
			continue
		}

		ad.Nested(func(nad *netlink.AttributeDecoder) error {
			for nad.Next() {
				nad.Nested(func(pad *netlink.AttributeDecoder) error {
					return mergePeer(dev, seen, pad)
				})
			}
			return nad.Err()
		})
	}

	return attrError(ad.Err())
}

// mergePeer decodes one peer record and either materializes a new Peer or,
// when its public key was already seen, appends its allowed IPs to the
// existing one.
func mergePeer(dev *Device, seen map[Key]int, ad *netlink.AttributeDecoder) error {
	var (
		p       Peer
		havePub bool
		ips     []net.IPNet
	)

	for ad.Next() {
		switch ad.Type() {
		case peerAttrPublicKey:
			ad.Do(func(b []byte) error {
				k, err := decodeKey(b)
				if err != nil {
					return err
				}
				p.PublicKey = k
				havePub = true
				return nil
			})
		case peerAttrPresharedKey:
			ad.Do(func(b []byte) error {
				k, err := decodeKey(b)
				if err != nil {
					return err
				}
				p.PresharedKey = &k
				return nil
			})
		case peerAttrEndpoint:
			ad.Do(func(b []byte) error {
				ep, err := decodeSockaddr(b)
				if err != nil {
					return err
				}
				p.Endpoint = ep
				return nil
			})
		case peerAttrKeepaliveInterval:
			p.KeepaliveInterval = ad.Uint16()
		case peerAttrLastHandshakeTime:
			ad.Do(func(b []byte) error {
				t, err := decodeTimespec(b)
				if err != nil {
					return err
				}
				p.LastHandshake = t
				return nil
			})
		case peerAttrRxBytes:
			p.RxBytes = ad.Uint64()
		case peerAttrTxBytes:
			p.TxBytes = ad.Uint64()
		case peerAttrProtocolVersion:
			p.ProtocolVersion = ad.Uint32()
		case peerAttrAllowedIPs:
			ad.Nested(func(nad *netlink.AttributeDecoder) error {
				for nad.Next() {
					nad.Nested(func(aad *netlink.AttributeDecoder) error {
						ipn, err := parseAllowedIP(aad)
						if err != nil {
							return err
						}
						ips = append(ips, ipn)
						return nil
					})
				}
				return nad.Err()
			})
		}
	}

	if err := attrError(ad.Err()); err != nil {
		return err
	}

	// The public key is the peer's identity; a record without one cannot
	// be merged and fails the whole decode.
	if !havePub {
		return protocolf("peer record is missing its public key")
	}

	if i, ok := seen[p.PublicKey]; ok {
		dev.Peers[i].AllowedIPs = append(dev.Peers[i].AllowedIPs, ips...)
		return nil
	}

	p.AllowedIPs = ips
	seen[p.PublicKey] = len(dev.Peers)
	dev.Peers = append(dev.Peers, p)
	return nil
}

// parseAllowedIP decodes one allowed-IP record. The address family is
// implied by the address length: 4 bytes is IPv4, 16 is IPv6.
func parseAllowedIP(ad *netlink.AttributeDecoder) (net.IPNet, error) {
	var (
		ip   net.IP
		cidr = -1
	)

	for ad.Next() {
		switch ad.Type() {
		case allowedIPAttrIPAddr:
			ad.Do(func(b []byte) error {
				ip = make(net.IP, len(b))
				copy(ip, b)
				return nil
			})
		case allowedIPAttrCIDRMask:
			cidr = int(ad.Uint8())
		}
	}

	if err := attrError(ad.Err()); err != nil {
		return net.IPNet{}, err
	}

	if len(ip) != net.IPv4len && len(ip) != net.IPv6len {
		return net.IPNet{}, protocolf("allowed IP address has invalid length %d", len(ip))
	}
	if cidr < 0 || cidr > 8*len(ip) {
		return net.IPNet{}, protocolf("allowed IP has invalid prefix length %d", cidr)
	}

	return net.IPNet{
		IP:   ip,
		Mask: net.CIDRMask(cidr, 8*len(ip)),
	}, nil
}

// projectPresharedKeys applies the disclosure policy after decoding: unless
// their disclosure was requested, preshared keys are reduced to the
// HasPresharedKey boolean and the raw bytes dropped.
func projectPresharedKeys(dev *Device, opts DumpOptions) {
	for i := range dev.Peers {
		p := &dev.Peers[i]
		p.HasPresharedKey = p.PresharedKey != nil && !p.PresharedKey.IsZero()
		if !opts.RevealPresharedKeys || !p.HasPresharedKey {
			p.PresharedKey = nil
		}
	}
}

// decodeKey rejects key attributes of any size other than KeyLen; silently
// truncating or padding key material would corrupt peer identities.
func decodeKey(b []byte) (Key, error) {
	if len(b) != KeyLen {
		return Key{}, protocolf("key attribute has invalid length %d, want %d", len(b), KeyLen)
	}

	var k Key
	copy(k[:], b)
	return k, nil
}

// decodeTimespec parses the kernel timespec of the last handshake. A zero
// timespec means no handshake has happened and maps to the zero time.
func decodeTimespec(b []byte) (time.Time, error) {
	var sec, nsec int64

	switch len(b) {
	case 16:
		sec = int64(binary.NativeEndian.Uint64(b[0:8]))
		nsec = int64(binary.NativeEndian.Uint64(b[8:16]))
	case 8:
		// 32-bit platforms.
		sec = int64(int32(binary.NativeEndian.Uint32(b[0:4])))
		nsec = int64(int32(binary.NativeEndian.Uint32(b[4:8])))
	default:
		return time.Time{}, protocolf("last handshake time has invalid length %d", len(b))
	}

	if sec == 0 && nsec == 0 {
		return time.Time{}, nil
	}

	return time.Unix(sec, nsec), nil
}

// attrError normalizes attribute iteration failures into ProtocolError,
// keeping ones we raised ourselves intact.
func attrError(err error) error {
	if err == nil {
		return nil
	}

	var pe *ProtocolError
	if errors.As(err, &pe) {
		return err
	}

	return protocolf("malformed attributes: %v", err)
}
