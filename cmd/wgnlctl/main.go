package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Global19/wgnlpy"
)

func die(f string, d ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", d...)
	os.Exit(1)
}

// mustClient connects to the wireguard netlink family or dies trying.
func mustClient() *wgnlpy.Client {
	c, err := wgnlpy.New()
	if err != nil {
		die("failed to connect to wireguard netlink: %v", err)
	}
	return c
}

func usage() {
	fmt.Printf(strings.ReplaceAll(`wgnlctl

%s show <interface> [secrets]
	print the state of an interface

%s set <interface> [private-key <base64>] [listen-port <port>] [fwmark <mark>] [replace-peers]
	change interface-level settings

%s peer <interface> set <pubkey> [psk <base64>] [endpoint <host:port>] [keepalive <seconds>] [allowed-ips <net,...>] [append-ips] [update-only]
	add or update one peer

%s peer <interface> remove <pubkey>...
	remove peers by public key

%s peer <interface> clear-ips <pubkey>...
	clear the allowed IPs of peers

%s list
	list wireguard interfaces

%s up <interface> [address]
	create an interface (assigning an optional address) and bring it up

%s down <interface>
	bring an interface down

%s delete <interface>
	delete an interface

%s genkey | genpsk
	generate a private or preshared key

%s pubkey
	derive the public key of the private key read from stdin

%s endpoint
	discover this machine's external address via STUN
`, "%s", os.Args[0]))
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	args := os.Args[2:]

	switch os.Args[1] {
	case "show":
		show(args)
	case "set":
		set(args)
	case "peer":
		peer(args)
	case "list":
		list(args)
	case "up", "down", "delete":
		link(os.Args[1], args)
	case "genkey", "genpsk":
		genkey(os.Args[1])
	case "pubkey":
		pubkey()
	case "endpoint":
		endpoint(args)
	case "help", "-h", "--help":
		usage()
	default:
		usage()
		os.Exit(1)
	}
}
