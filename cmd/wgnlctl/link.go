package main

import (
	"fmt"
	"net"
	"os"

	"github.com/Global19/wgnlpy/net/ifctl"
)

func list(args []string) {
	names, err := ifctl.List()
	if err != nil {
		die("failed to list interfaces: %v", err)
	}

	for _, name := range names {
		fmt.Println(name)
	}
}

func link(op string, args []string) {
	if len(args) < 1 {
		die("usage: %s %s <interface>", os.Args[0], op)
	}
	name := args[0]

	switch op {
	case "up":
		l, err := ifctl.From(name)
		if err != nil {
			l, err = ifctl.New(name)
			if err != nil {
				die("failed to create %s: %v", name, err)
			}
		}

		if len(args) >= 2 {
			ip, ipn, err := net.ParseCIDR(args[1])
			if err != nil {
				die("invalid address %q: %v", args[1], err)
			}
			ipn.IP = ip
			if err := l.AddAddr(ipn); err != nil {
				die("failed to assign %s: %v", args[1], err)
			}
		}

		if err := l.Set(true); err != nil {
			die("failed to bring %s up: %v", name, err)
		}
	case "down":
		l, err := ifctl.From(name)
		if err != nil {
			die("no such interface %s: %v", name, err)
		}
		if err := l.Set(false); err != nil {
			die("failed to bring %s down: %v", name, err)
		}
	case "delete":
		l, err := ifctl.From(name)
		if err != nil {
			die("no such interface %s: %v", name, err)
		}
		if err := l.Delete(); err != nil {
			die("failed to delete %s: %v", name, err)
		}
	}
}
