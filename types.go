package wgnlpy

import (
	"net"
	"time"
)

// A Device is a snapshot of one WireGuard interface, reassembled from a
// netlink dump. It is a plain value; mutating it has no effect on the kernel.
type Device struct {
	// Index is the interface index of the device.
	Index uint32

	// Name is the interface name, e.g. "wg0".
	Name string

	// PrivateKey is only set when the device was queried with
	// RevealPrivateKey and the kernel disclosed it.
	PrivateKey *Key

	PublicKey  Key
	ListenPort uint16

	// FirewallMark is the fwmark applied to the device's UDP traffic.
	// Zero means none.
	FirewallMark uint32

	// Peers are in first-seen order across all dump fragments.
	Peers []Peer
}

// Peer returns the peer with the given public key, or nil.
func (d *Device) Peer(publicKey Key) *Peer {
	for i := range d.Peers {
		if d.Peers[i].PublicKey == publicKey {
			return &d.Peers[i]
		}
	}
	return nil
}

// A Peer is a snapshot of one peer of a Device.
type Peer struct {
	PublicKey Key

	// HasPresharedKey reports whether a non-zero preshared key is
	// configured. It is set regardless of disclosure options.
	HasPresharedKey bool

	// PresharedKey is only set when the device was queried with
	// RevealPresharedKeys and a preshared key is configured.
	PresharedKey *Key

	// Endpoint is the peer's last known endpoint, nil when unknown.
	Endpoint *net.UDPAddr

	// LastHandshake is zero when no handshake has completed yet.
	LastHandshake time.Time

	// KeepaliveInterval is in seconds; zero disables keepalives.
	KeepaliveInterval uint16

	RxBytes uint64
	TxBytes uint64

	ProtocolVersion uint32

	// AllowedIPs are in the order the kernel reported them, concatenated
	// across dump fragments.
	AllowedIPs []net.IPNet
}

// DumpOptions control disclosure of key material when querying a device.
//
// The zero value never exposes private or preshared key bytes; preshared
// keys are reduced to the HasPresharedKey boolean.
type DumpOptions struct {
	RevealPrivateKey    bool
	RevealPresharedKeys bool
}

// A DeviceConfig describes changes to the interface-level settings of a
// device. Nil fields are left untouched by the kernel.
type DeviceConfig struct {
	PrivateKey   *Key
	ListenPort   *uint16
	FirewallMark *uint32

	// ReplacePeers asks the kernel to discard every peer not named in
	// this request. SetDevice names none, so it clears all peers.
	ReplacePeers bool
}

// A PeerConfig describes changes to a single peer of a device. Nil fields
// are left untouched by the kernel.
type PeerConfig struct {
	PublicKey Key

	// PresharedKey, if set, is installed on the peer. The zero key
	// clears a previously configured preshared key.
	PresharedKey *Key

	Endpoint *net.UDPAddr

	// KeepaliveInterval is in seconds; zero disables keepalives.
	KeepaliveInterval *uint16

	// AllowedIPs replaces or extends the peer's allowed IPs depending on
	// ReplaceAllowedIPs.
	AllowedIPs []net.IPNet

	// ReplaceAllowedIPs defaults to true when AllowedIPs is non-nil:
	// supplying a full allow-list implies replacing the old one. Set it
	// explicitly to false to append instead.
	ReplaceAllowedIPs *bool

	// UpdateOnly asks the kernel to only modify an existing peer and
	// fail if the public key is unknown, instead of creating it.
	UpdateOnly bool
}

// normalized applies the documented flag defaults. It is the only place
// ReplaceAllowedIPs inference happens, so the rule stays visible.
func (p PeerConfig) normalized() PeerConfig {
	if p.ReplaceAllowedIPs == nil && p.AllowedIPs != nil {
		t := true
		p.ReplaceAllowedIPs = &t
	}
	return p
}
