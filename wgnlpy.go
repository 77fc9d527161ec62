// Package wgnlpy configures and inspects kernel WireGuard interfaces over
// the "wireguard" generic netlink family.
//
// It speaks the control protocol directly: mutation requests are built as
// nested netlink attribute lists and submitted with acknowledgement
// semantics, queries are submitted as dumps and their fragments reassembled
// into a single Device snapshot. The netlink socket itself is handled by
// github.com/mdlayher/genetlink.
//
// Creating or destroying the interface is a separate concern, see net/ifctl.
package wgnlpy

import (
	"fmt"

	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"
)

// conn is the transport surface a Client needs. *genetlink.Conn satisfies
// it; tests substitute a fake.
type conn interface {
	Execute(m genetlink.Message, family uint16, flags netlink.HeaderFlags) ([]genetlink.Message, error)
	Close() error
}

// A Client talks to the wireguard generic netlink family.
//
// A Client keeps no state between calls and never retries; every operation
// is one request/response round trip. It is not safe for concurrent use,
// one request may be in flight per Client at a time.
type Client struct {
	c      conn
	family genetlink.Family
}

// New dials generic netlink and resolves the wireguard family.
//
// Resolving fails when the wireguard kernel module is not available.
func New() (*Client, error) {
	c, err := genetlink.Dial(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial generic netlink: %w", err)
	}

	f, err := c.GetFamily(familyName)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to resolve %q family (is the wireguard module loaded?): %w", familyName, err)
	}

	return &Client{c: c, family: f}, nil
}

// Close releases the underlying netlink socket.
func (c *Client) Close() error {
	return c.c.Close()
}

// Device queries one interface by name and reassembles the dump fragments
// into a snapshot. Key material is omitted unless opts asks for it.
//
// Transport and kernel failures (no such device, insufficient privileges)
// are returned as-is.
func (c *Client) Device(name string, opts DumpOptions) (*Device, error) {
	b, err := encodeIfname(name)
	if err != nil {
		return nil, err
	}

	msgs, err := c.execute(cmdGetDevice, netlink.Request|netlink.Acknowledge|netlink.Dump, b)
	if err != nil {
		return nil, err
	}

	return parseDevice(msgs, name, opts)
}

// SetDevice changes interface-level settings. Nil fields of cfg are left
// alone; cfg.ReplacePeers clears every peer of the device.
func (c *Client) SetDevice(name string, cfg DeviceConfig) error {
	b, err := encodeDeviceConfig(name, cfg)
	if err != nil {
		return err
	}

	_, err = c.execute(cmdSetDevice, netlink.Request|netlink.Acknowledge, b)
	return err
}

// SetPeer adds or updates one peer of the device.
//
// When peer.AllowedIPs is supplied and peer.ReplaceAllowedIPs is not,
// the allowed IPs replace the peer's previous ones rather than extending
// them.
func (c *Client) SetPeer(name string, peer PeerConfig) error {
	b, err := encodeSetPeer(name, peer)
	if err != nil {
		return err
	}

	_, err = c.execute(cmdSetDevice, netlink.Request|netlink.Acknowledge, b)
	return err
}

// RemovePeers removes the peers with the given public keys. Keys not
// present on the device are ignored by the kernel.
func (c *Client) RemovePeers(name string, publicKeys ...Key) error {
	b, err := encodeFlagOnlyPeers(name, peerFlagRemoveMe, publicKeys)
	if err != nil {
		return err
	}

	_, err = c.execute(cmdSetDevice, netlink.Request|netlink.Acknowledge, b)
	return err
}

// ReplaceAllowedIPs clears the allowed-IP lists of the peers with the given
// public keys.
func (c *Client) ReplaceAllowedIPs(name string, publicKeys ...Key) error {
	b, err := encodeFlagOnlyPeers(name, peerFlagReplaceAllowedIPs, publicKeys)
	if err != nil {
		return err
	}

	_, err = c.execute(cmdSetDevice, netlink.Request|netlink.Acknowledge, b)
	return err
}

func (c *Client) execute(cmd uint8, flags netlink.HeaderFlags, data []byte) ([]genetlink.Message, error) {
	return c.c.Execute(genetlink.Message{
		Header: genetlink.Header{
			Command: cmd,
			Version: familyVersion,
		},
		Data: data,
	}, c.family.ID, flags)
}
