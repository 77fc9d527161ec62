package main

import (
	"time"

	"github.com/Global19/wgnlpy"
)

// deviceState is the JSON shape wgnld serves. Key material never crosses
// this boundary; devices are queried with zero DumpOptions.
type deviceState struct {
	Index      uint32      `json:"index"`
	Name       string      `json:"name"`
	PublicKey  wgnlpy.Key  `json:"public_key"`
	ListenPort uint16      `json:"listen_port,omitempty"`
	Fwmark     uint32      `json:"fwmark,omitempty"`
	Peers      []peerState `json:"peers"`
}

type peerState struct {
	PublicKey       wgnlpy.Key `json:"public_key"`
	HasPresharedKey bool       `json:"has_preshared_key"`
	Endpoint        string     `json:"endpoint,omitempty"`
	LastHandshake   *time.Time `json:"last_handshake,omitempty"`
	Keepalive       uint16     `json:"keepalive,omitempty"`
	RxBytes         uint64     `json:"rx_bytes"`
	TxBytes         uint64     `json:"tx_bytes"`
	AllowedIPs      []string   `json:"allowed_ips"`
}

func stateOf(dev *wgnlpy.Device) deviceState {
	st := deviceState{
		Index:      dev.Index,
		Name:       dev.Name,
		PublicKey:  dev.PublicKey,
		ListenPort: dev.ListenPort,
		Fwmark:     dev.FirewallMark,
		Peers:      make([]peerState, 0, len(dev.Peers)),
	}

	for i := range dev.Peers {
		p := &dev.Peers[i]

		ps := peerState{
			PublicKey:       p.PublicKey,
			HasPresharedKey: p.HasPresharedKey,
			Keepalive:       p.KeepaliveInterval,
			RxBytes:         p.RxBytes,
			TxBytes:         p.TxBytes,
			AllowedIPs:      make([]string, 0, len(p.AllowedIPs)),
		}
		if p.Endpoint != nil {
			ps.Endpoint = p.Endpoint.String()
		}
		if !p.LastHandshake.IsZero() {
			t := p.LastHandshake
			ps.LastHandshake = &t
		}
		for _, ipn := range p.AllowedIPs {
			ps.AllowedIPs = append(ps.AllowedIPs, ipn.String())
		}

		st.Peers = append(st.Peers, ps)
	}

	return st
}
