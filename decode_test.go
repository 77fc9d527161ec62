package wgnlpy

import (
	"encoding/binary"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"
)

// deviceMsg builds one kernel-shaped dump fragment.
func deviceMsg(t *testing.T, fn func(ae *netlink.AttributeEncoder)) genetlink.Message {
	t.Helper()

	ae := netlink.NewAttributeEncoder()
	fn(ae)

	b, err := ae.Encode()
	if err != nil {
		t.Fatalf("failed to encode test message: %v", err)
	}

	return genetlink.Message{
		Header: genetlink.Header{Command: cmdGetDevice, Version: familyVersion},
		Data:   b,
	}
}

func timespecBytes(sec, nsec int64) []byte {
	b := make([]byte, 16)
	binary.NativeEndian.PutUint64(b[0:8], uint64(sec))
	binary.NativeEndian.PutUint64(b[8:16], uint64(nsec))
	return b
}

func mustCIDR(t *testing.T, s string) net.IPNet {
	t.Helper()

	_, ipn, err := net.ParseCIDR(s)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", s, err)
	}
	return *ipn
}

// allowedIPAttrs emits kernel-shaped allowed-IP records.
func allowedIPAttrs(ae *netlink.AttributeEncoder, ipns ...net.IPNet) {
	ae.Nested(peerAttrAllowedIPs, func(nae *netlink.AttributeEncoder) error {
		for i, ipn := range ipns {
			ipn := ipn
			nae.Nested(uint16(i), func(aae *netlink.AttributeEncoder) error {
				ones, _ := ipn.Mask.Size()
				if ip4 := ipn.IP.To4(); ip4 != nil {
					aae.Uint16(allowedIPAttrFamily, unix.AF_INET)
					aae.Bytes(allowedIPAttrIPAddr, ip4)
				} else {
					aae.Uint16(allowedIPAttrFamily, unix.AF_INET6)
					aae.Bytes(allowedIPAttrIPAddr, ipn.IP.To16())
				}
				aae.Uint8(allowedIPAttrCIDRMask, uint8(ones))
				return nil
			})
		}
		return nil
	})
}

func TestParseDeviceReassembly(t *testing.T) {
	var (
		devPub = testKey(0xd0)
		peerA  = testKey(0xa0)
		peerB  = testKey(0xb0)
		ep     = &net.UDPAddr{IP: net.IPv4(203, 0, 113, 5).To4(), Port: 1234}
		hs     = time.Unix(1700000000, 123)
		ipnA1  = mustCIDR(t, "10.0.0.0/24")
		ipnA2  = mustCIDR(t, "10.0.1.0/24")
		ipnA3  = mustCIDR(t, "fd00::/64")
	)

	epBytes, err := encodeSockaddr(ep)
	if err != nil {
		t.Fatalf("failed to encode endpoint: %v", err)
	}

	frag1 := deviceMsg(t, func(ae *netlink.AttributeEncoder) {
		ae.Uint32(deviceAttrIfindex, 7)
		ae.String(deviceAttrIfname, "wg0")
		ae.Bytes(deviceAttrPublicKey, devPub[:])
		ae.Uint16(deviceAttrListenPort, 51820)
		ae.Uint32(deviceAttrFwmark, 42)
		ae.Nested(deviceAttrPeers, func(nae *netlink.AttributeEncoder) error {
			nae.Nested(0, func(pae *netlink.AttributeEncoder) error {
				pae.Bytes(peerAttrPublicKey, peerA[:])
				pae.Bytes(peerAttrEndpoint, epBytes)
				pae.Uint16(peerAttrKeepaliveInterval, 25)
				pae.Do(peerAttrLastHandshakeTime, func() ([]byte, error) {
					return timespecBytes(hs.Unix(), int64(hs.Nanosecond())), nil
				})
				pae.Uint64(peerAttrRxBytes, 100)
				pae.Uint64(peerAttrTxBytes, 200)
				pae.Uint32(peerAttrProtocolVersion, 1)
				allowedIPAttrs(pae, ipnA1)
				return nil
			})
			return nil
		})
	})

	// Second fragment continues peer A with zero scalar attributes (the
	// bogus rx counter must be ignored) and two more allowed IPs, then
	// introduces peer B.
	frag2 := deviceMsg(t, func(ae *netlink.AttributeEncoder) {
		ae.Nested(deviceAttrPeers, func(nae *netlink.AttributeEncoder) error {
			nae.Nested(0, func(pae *netlink.AttributeEncoder) error {
				pae.Bytes(peerAttrPublicKey, peerA[:])
				pae.Uint64(peerAttrRxBytes, 999)
				allowedIPAttrs(pae, ipnA2, ipnA3)
				return nil
			})
			nae.Nested(1, func(pae *netlink.AttributeEncoder) error {
				pae.Bytes(peerAttrPublicKey, peerB[:])
				pae.Uint32(peerAttrProtocolVersion, 1)
				return nil
			})
			return nil
		})
	})

	dev, err := parseDevice([]genetlink.Message{frag1, frag2}, "wg0", DumpOptions{})
	if err != nil {
		t.Fatalf("err = %v", err)
	}

	want := &Device{
		Index:        7,
		Name:         "wg0",
		PublicKey:    devPub,
		ListenPort:   51820,
		FirewallMark: 42,
		Peers: []Peer{
			{
				PublicKey:         peerA,
				Endpoint:          ep,
				LastHandshake:     hs,
				KeepaliveInterval: 25,
				RxBytes:           100,
				TxBytes:           200,
				ProtocolVersion:   1,
				AllowedIPs:        []net.IPNet{ipnA1, ipnA2, ipnA3},
			},
			{
				PublicKey:       peerB,
				ProtocolVersion: 1,
			},
		},
	}

	if diff := cmp.Diff(want, dev); diff != "" {
		t.Errorf("unexpected device (-want +got):\n%s", diff)
	}

	if p := dev.Peer(peerB); p == nil || p.PublicKey != peerB {
		t.Errorf("Peer(%v) = %+v, expected peer B", peerB, p)
	}
	if p := dev.Peer(testKey(0xee)); p != nil {
		t.Errorf("Peer lookup of unknown key = %+v, expected nil", p)
	}
}

func TestParseDevicePresharedKeyProjection(t *testing.T) {
	psk := testKey(0x55)

	tests := []struct {
		name    string
		psk     *Key
		reveal  bool
		has     bool
		wantKey *Key
	}{
		{"zero key hidden", &Key{}, false, false, nil},
		{"zero key revealed", &Key{}, true, false, nil},
		{"set key hidden", &psk, false, true, nil},
		{"set key revealed", &psk, true, true, &psk},
		{"absent", nil, true, false, nil},
	}

	for _, v := range tests {
		t.Run(v.name, func(t *testing.T) {
			peer := testKey(0xa0)
			msg := deviceMsg(t, func(ae *netlink.AttributeEncoder) {
				ae.String(deviceAttrIfname, "wg0")
				ae.Nested(deviceAttrPeers, func(nae *netlink.AttributeEncoder) error {
					nae.Nested(0, func(pae *netlink.AttributeEncoder) error {
						pae.Bytes(peerAttrPublicKey, peer[:])
						if v.psk != nil {
							pae.Bytes(peerAttrPresharedKey, (*v.psk)[:])
						}
						return nil
					})
					return nil
				})
			})

			dev, err := parseDevice([]genetlink.Message{msg}, "wg0", DumpOptions{
				RevealPresharedKeys: v.reveal,
			})
			if err != nil {
				t.Fatalf("err = %v", err)
			}

			p := dev.Peers[0]
			if p.HasPresharedKey != v.has {
				t.Errorf("HasPresharedKey = %v, expected %v", p.HasPresharedKey, v.has)
			}
			if diff := cmp.Diff(v.wantKey, p.PresharedKey); diff != "" {
				t.Errorf("unexpected preshared key (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseDevicePrivateKeyDisclosure(t *testing.T) {
	priv := testKey(0x11)

	msg := deviceMsg(t, func(ae *netlink.AttributeEncoder) {
		ae.String(deviceAttrIfname, "wg0")
		ae.Bytes(deviceAttrPrivateKey, priv[:])
	})

	dev, err := parseDevice([]genetlink.Message{msg}, "wg0", DumpOptions{})
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if dev.PrivateKey != nil {
		t.Error("private key exposed without disclosure")
	}

	dev, err = parseDevice([]genetlink.Message{msg}, "wg0", DumpOptions{RevealPrivateKey: true})
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if dev.PrivateKey == nil || *dev.PrivateKey != priv {
		t.Errorf("private key = %v, expected %v", dev.PrivateKey, priv)
	}
}

func TestParseDeviceNameMismatch(t *testing.T) {
	msg := deviceMsg(t, func(ae *netlink.AttributeEncoder) {
		ae.String(deviceAttrIfname, "wg1")
	})

	_, err := parseDevice([]genetlink.Message{msg}, "wg0", DumpOptions{})
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Errorf("err = %v, expected a ProtocolError", err)
	}
}

func TestParseDeviceUnknownAttributesSkipped(t *testing.T) {
	peer := testKey(0xa0)

	msg := deviceMsg(t, func(ae *netlink.AttributeEncoder) {
		ae.String(deviceAttrIfname, "wg0")
		ae.Bytes(0x77, []byte{1, 2, 3})
		ae.Nested(deviceAttrPeers, func(nae *netlink.AttributeEncoder) error {
			nae.Nested(0, func(pae *netlink.AttributeEncoder) error {
				pae.Bytes(peerAttrPublicKey, peer[:])
				pae.Bytes(0x66, []byte{4, 5})
				return nil
			})
			return nil
		})
	})

	dev, err := parseDevice([]genetlink.Message{msg}, "wg0", DumpOptions{})
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if len(dev.Peers) != 1 || dev.Peers[0].PublicKey != peer {
		t.Errorf("peers = %+v, expected one peer %v", dev.Peers, peer)
	}
}

func TestParseDeviceInvalidKeyLength(t *testing.T) {
	msg := deviceMsg(t, func(ae *netlink.AttributeEncoder) {
		ae.String(deviceAttrIfname, "wg0")
		ae.Bytes(deviceAttrPublicKey, make([]byte, 31))
	})

	_, err := parseDevice([]genetlink.Message{msg}, "wg0", DumpOptions{})
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Errorf("err = %v, expected a ProtocolError", err)
	}
}

func TestParsePeerMissingPublicKey(t *testing.T) {
	msg := deviceMsg(t, func(ae *netlink.AttributeEncoder) {
		ae.String(deviceAttrIfname, "wg0")
		ae.Nested(deviceAttrPeers, func(nae *netlink.AttributeEncoder) error {
			nae.Nested(0, func(pae *netlink.AttributeEncoder) error {
				pae.Uint16(peerAttrKeepaliveInterval, 10)
				return nil
			})
			return nil
		})
	})

	_, err := parseDevice([]genetlink.Message{msg}, "wg0", DumpOptions{})
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Errorf("err = %v, expected a ProtocolError", err)
	}
}

func TestParseDeviceEmptyResponse(t *testing.T) {
	_, err := parseDevice(nil, "wg0", DumpOptions{})
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Errorf("err = %v, expected a ProtocolError", err)
	}
}

func TestDecodeTimespec(t *testing.T) {
	tests := []struct {
		name string
		b    []byte
		want time.Time
		ok   bool
	}{
		{"never", timespecBytes(0, 0), time.Time{}, true},
		{"sixteen bytes", timespecBytes(1700000000, 123), time.Unix(1700000000, 123), true},
		{"bad length", make([]byte, 12), time.Time{}, false},
	}

	for _, v := range tests {
		t.Run(v.name, func(t *testing.T) {
			got, err := decodeTimespec(v.b)
			if !v.ok {
				var perr *ProtocolError
				if !errors.As(err, &perr) {
					t.Errorf("err = %v, expected a ProtocolError", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("err = %v", err)
			}
			if !got.Equal(v.want) {
				t.Errorf("time = %v, expected %v", got, v.want)
			}
		})
	}
}

// TestPeerKeyRoundTrip feeds the output of the peer mutation encoder back
// through the dump decoder: the key and allowed IPs must come out intact.
func TestPeerKeyRoundTrip(t *testing.T) {
	key := testKey(0xc3)
	ipn := mustCIDR(t, "192.0.2.0/24")

	b, err := encodeSetPeer("wg0", PeerConfig{
		PublicKey:  key,
		AllowedIPs: []net.IPNet{ipn},
	})
	if err != nil {
		t.Fatalf("err = %v", err)
	}

	dev, err := parseDevice([]genetlink.Message{{Data: b}}, "wg0", DumpOptions{})
	if err != nil {
		t.Fatalf("err = %v", err)
	}

	if len(dev.Peers) != 1 {
		t.Fatalf("peers = %d, expected 1", len(dev.Peers))
	}
	if dev.Peers[0].PublicKey != key {
		t.Errorf("key = %v, expected %v", dev.Peers[0].PublicKey, key)
	}
	if diff := cmp.Diff([]net.IPNet{ipn}, dev.Peers[0].AllowedIPs); diff != "" {
		t.Errorf("unexpected allowed IPs (-want +got):\n%s", diff)
	}
}
