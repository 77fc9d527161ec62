package main

import (
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/Global19/wgnlpy"
)

// next pops the value following a keyword argument.
func next(args []string, i int, kw string) string {
	if i+1 >= len(args) {
		die("%s requires a value", kw)
	}
	return args[i+1]
}

func set(args []string) {
	if len(args) < 1 {
		die("usage: %s set <interface> ...", os.Args[0])
	}

	ifname := args[0]
	args = args[1:]

	cfg := wgnlpy.DeviceConfig{}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "private-key":
			k, err := wgnlpy.ParseKey(next(args, i, "private-key"))
			if err != nil {
				die("invalid private key: %v", err)
			}
			cfg.PrivateKey = &k
			i++
		case "listen-port":
			p, err := strconv.ParseUint(next(args, i, "listen-port"), 10, 16)
			if err != nil {
				die("invalid listen port: %v", err)
			}
			port := uint16(p)
			cfg.ListenPort = &port
			i++
		case "fwmark":
			m, err := strconv.ParseUint(next(args, i, "fwmark"), 0, 32)
			if err != nil {
				die("invalid fwmark: %v", err)
			}
			mark := uint32(m)
			cfg.FirewallMark = &mark
			i++
		case "replace-peers":
			cfg.ReplacePeers = true
		default:
			die("unknown argument %q", args[i])
		}
	}

	c := mustClient()
	defer c.Close()

	if err := c.SetDevice(ifname, cfg); err != nil {
		die("failed to configure %s: %v", ifname, err)
	}
}

func peer(args []string) {
	if len(args) < 2 {
		die("usage: %s peer <interface> set|remove|clear-ips ...", os.Args[0])
	}

	ifname := args[0]

	switch args[1] {
	case "set":
		peerSet(ifname, args[2:])
	case "remove":
		peerFlagBatch(ifname, args[2:], "remove")
	case "clear-ips":
		peerFlagBatch(ifname, args[2:], "clear-ips")
	default:
		die("unknown peer command %q", args[1])
	}
}

func peerSet(ifname string, args []string) {
	if len(args) < 1 {
		die("usage: %s peer <interface> set <pubkey> ...", os.Args[0])
	}

	pub, err := wgnlpy.ParseKey(args[0])
	if err != nil {
		die("invalid public key: %v", err)
	}
	args = args[1:]

	pc := wgnlpy.PeerConfig{PublicKey: pub}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "psk":
			k, err := wgnlpy.ParseKey(next(args, i, "psk"))
			if err != nil {
				die("invalid preshared key: %v", err)
			}
			pc.PresharedKey = &k
			i++
		case "endpoint":
			ep, err := net.ResolveUDPAddr("udp", next(args, i, "endpoint"))
			if err != nil {
				die("invalid endpoint: %v", err)
			}
			pc.Endpoint = ep
			i++
		case "keepalive":
			s, err := strconv.ParseUint(next(args, i, "keepalive"), 10, 16)
			if err != nil {
				die("invalid keepalive interval: %v", err)
			}
			ka := uint16(s)
			pc.KeepaliveInterval = &ka
			i++
		case "allowed-ips":
			for _, s := range strings.Split(next(args, i, "allowed-ips"), ",") {
				_, ipn, err := net.ParseCIDR(strings.TrimSpace(s))
				if err != nil {
					die("invalid allowed IP %q: %v", s, err)
				}
				pc.AllowedIPs = append(pc.AllowedIPs, *ipn)
			}
			i++
		case "append-ips":
			no := false
			pc.ReplaceAllowedIPs = &no
		case "update-only":
			pc.UpdateOnly = true
		default:
			die("unknown argument %q", args[i])
		}
	}

	c := mustClient()
	defer c.Close()

	if err := c.SetPeer(ifname, pc); err != nil {
		die("failed to configure peer: %v", err)
	}
}

func peerFlagBatch(ifname string, args []string, op string) {
	keys := make([]wgnlpy.Key, 0, len(args))
	for _, s := range args {
		k, err := wgnlpy.ParseKey(s)
		if err != nil {
			die("invalid public key %q: %v", s, err)
		}
		keys = append(keys, k)
	}

	c := mustClient()
	defer c.Close()

	var err error
	if op == "remove" {
		err = c.RemovePeers(ifname, keys...)
	} else {
		err = c.ReplaceAllowedIPs(ifname, keys...)
	}
	if err != nil {
		die("failed to %s peers: %v", op, err)
	}
}
