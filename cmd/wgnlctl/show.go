package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Global19/wgnlpy"
)

func show(args []string) {
	if len(args) < 1 {
		die("usage: %s show <interface> [secrets]", os.Args[0])
	}

	opts := wgnlpy.DumpOptions{}
	if len(args) >= 2 && args[1] == "secrets" {
		opts.RevealPrivateKey = true
		opts.RevealPresharedKeys = true
	}

	c := mustClient()
	defer c.Close()

	dev, err := c.Device(args[0], opts)
	if err != nil {
		die("failed to query %s: %v", args[0], err)
	}

	printDevice(dev)
}

func printDevice(dev *wgnlpy.Device) {
	fmt.Printf("interface: %s (index %d)\n", dev.Name, dev.Index)
	if !dev.PublicKey.IsZero() {
		fmt.Printf("  public key: %s\n", dev.PublicKey)
	}
	if dev.PrivateKey != nil {
		fmt.Printf("  private key: %s\n", dev.PrivateKey)
	}
	if dev.ListenPort != 0 {
		fmt.Printf("  listen port: %d\n", dev.ListenPort)
	}
	if dev.FirewallMark != 0 {
		fmt.Printf("  fwmark: %#x\n", dev.FirewallMark)
	}

	for i := range dev.Peers {
		p := &dev.Peers[i]

		fmt.Printf("\npeer: %s\n", p.PublicKey)
		if p.PresharedKey != nil {
			fmt.Printf("  preshared key: %s\n", p.PresharedKey)
		} else if p.HasPresharedKey {
			fmt.Printf("  preshared key: (configured)\n")
		}
		if p.Endpoint != nil {
			fmt.Printf("  endpoint: %s\n", p.Endpoint)
		}
		if len(p.AllowedIPs) > 0 {
			ips := make([]string, len(p.AllowedIPs))
			for j, ipn := range p.AllowedIPs {
				ips[j] = ipn.String()
			}
			fmt.Printf("  allowed ips: %s\n", strings.Join(ips, ", "))
		}
		if !p.LastHandshake.IsZero() {
			fmt.Printf("  latest handshake: %s\n", p.LastHandshake)
		}
		fmt.Printf("  transfer: %d B received, %d B sent\n", p.RxBytes, p.TxBytes)
		if p.KeepaliveInterval != 0 {
			fmt.Printf("  persistent keepalive: every %d seconds\n", p.KeepaliveInterval)
		}
	}
}
