package wgnlpy

import (
	"net"

	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"
)

// checkIfname rejects interface names the kernel would refuse anyway, before
// a message is built.
func checkIfname(name string) error {
	if name == "" {
		return validationf("interface name is empty")
	}
	if len(name) >= ifnameSize {
		return validationf("interface name %q is too long", name)
	}
	return nil
}

// encodeIfname builds the attribute payload shared by every request: just
// the interface name.
func encodeIfname(name string) ([]byte, error) {
	if err := checkIfname(name); err != nil {
		return nil, err
	}

	ae := netlink.NewAttributeEncoder()
	ae.String(deviceAttrIfname, name)
	return ae.Encode()
}

// encodeDeviceConfig builds the payload for an interface-level set. Optional
// fields are emitted only when supplied; ReplacePeers becomes a device flag
// with no peer list, which clears all peers.
func encodeDeviceConfig(name string, cfg DeviceConfig) ([]byte, error) {
	if err := checkIfname(name); err != nil {
		return nil, err
	}

	ae := netlink.NewAttributeEncoder()
	ae.String(deviceAttrIfname, name)

	if cfg.ReplacePeers {
		ae.Uint32(deviceAttrFlags, deviceFlagReplacePeers)
	}
	if cfg.PrivateKey != nil {
		ae.Bytes(deviceAttrPrivateKey, (*cfg.PrivateKey)[:])
	}
	if cfg.ListenPort != nil {
		ae.Uint16(deviceAttrListenPort, *cfg.ListenPort)
	}
	if cfg.FirewallMark != nil {
		ae.Uint32(deviceAttrFwmark, *cfg.FirewallMark)
	}

	return ae.Encode()
}

// encodeSetPeer builds the payload for upserting a single peer.
func encodeSetPeer(name string, peer PeerConfig) ([]byte, error) {
	if err := checkIfname(name); err != nil {
		return nil, err
	}

	peer = peer.normalized()

	ae := netlink.NewAttributeEncoder()
	ae.String(deviceAttrIfname, name)
	ae.Nested(deviceAttrPeers, func(nae *netlink.AttributeEncoder) error {
		nae.Nested(0, func(pae *netlink.AttributeEncoder) error {
			return encodePeer(pae, peer)
		})
		return nil
	})

	return ae.Encode()
}

// encodePeer writes one peer record. The attribute order matters to the
// kernel in one place: flags must precede the allowed-IP list so that
// replace-allowed-ips applies before the new entries land.
func encodePeer(pae *netlink.AttributeEncoder, peer PeerConfig) error {
	pae.Bytes(peerAttrPublicKey, peer.PublicKey[:])

	var flags uint32
	if peer.ReplaceAllowedIPs != nil && *peer.ReplaceAllowedIPs {
		flags |= peerFlagReplaceAllowedIPs
	}
	if peer.UpdateOnly {
		flags |= peerFlagUpdateOnly
	}
	if flags != 0 {
		pae.Uint32(peerAttrFlags, flags)
	}

	if peer.PresharedKey != nil {
		pae.Bytes(peerAttrPresharedKey, (*peer.PresharedKey)[:])
	}
	if peer.Endpoint != nil {
		b, err := encodeSockaddr(peer.Endpoint)
		if err != nil {
			return err
		}
		pae.Bytes(peerAttrEndpoint, b)
	}
	if peer.KeepaliveInterval != nil {
		pae.Uint16(peerAttrKeepaliveInterval, *peer.KeepaliveInterval)
	}

	if peer.AllowedIPs != nil {
		pae.Nested(peerAttrAllowedIPs, func(aae *netlink.AttributeEncoder) error {
			for i, ipn := range peer.AllowedIPs {
				ipn := ipn
				aae.Nested(uint16(i), func(ae *netlink.AttributeEncoder) error {
					return encodeAllowedIP(ae, ipn)
				})
			}
			return nil
		})
	}

	return nil
}

// encodeAllowedIP writes the family, address bytes and prefix length of one
// allowed IP. The family is implied by the address length.
func encodeAllowedIP(ae *netlink.AttributeEncoder, ipn net.IPNet) error {
	ones, bits := ipn.Mask.Size()
	if ones == 0 && bits == 0 {
		return validationf("allowed IP %v has a non-CIDR mask", ipn)
	}

	if ip4 := ipn.IP.To4(); ip4 != nil {
		if bits != 8*net.IPv4len {
			return validationf("allowed IP %v mixes IPv4 address and IPv6 mask", ipn)
		}
		ae.Uint16(allowedIPAttrFamily, unix.AF_INET)
		ae.Bytes(allowedIPAttrIPAddr, ip4)
	} else if ip6 := ipn.IP.To16(); ip6 != nil {
		if bits != 8*net.IPv6len {
			return validationf("allowed IP %v mixes IPv6 address and IPv4 mask", ipn)
		}
		ae.Uint16(allowedIPAttrFamily, unix.AF_INET6)
		ae.Bytes(allowedIPAttrIPAddr, ip6)
	} else {
		return validationf("allowed IP %v has no valid IP address", ipn)
	}

	ae.Uint8(allowedIPAttrCIDRMask, uint8(ones))
	return nil
}

// encodeFlagOnlyPeers builds the payload shared by RemovePeers and
// ReplaceAllowedIPs: a peer list of minimal records carrying only a public
// key and a flag. Zero keys still yields a valid message with an empty peer
// list.
func encodeFlagOnlyPeers(name string, flag uint32, keys []Key) ([]byte, error) {
	if err := checkIfname(name); err != nil {
		return nil, err
	}

	ae := netlink.NewAttributeEncoder()
	ae.String(deviceAttrIfname, name)
	ae.Nested(deviceAttrPeers, func(nae *netlink.AttributeEncoder) error {
		for i, key := range keys {
			key := key
			nae.Nested(uint16(i), func(pae *netlink.AttributeEncoder) error {
				pae.Bytes(peerAttrPublicKey, key[:])
				pae.Uint32(peerAttrFlags, flag)
				return nil
			})
		}
		return nil
	})

	return ae.Encode()
}
