package main

import (
	"fmt"
	"net"

	"github.com/pion/stun"
)

const defaultStunAddr = "stunserver.stunprotocol.org:3478"

// endpoint prints the external address of this machine as seen by a STUN
// server. The result is what a peer on the other side of the NAT would use
// as this machine's endpoint.
func endpoint(args []string) {
	server := defaultStunAddr
	if len(args) >= 1 {
		server = args[0]
	}

	addr, err := fetchEndpoint(server)
	if err != nil {
		die("failed to discover external address: %v", err)
	}

	fmt.Println(addr)
}

func fetchEndpoint(server string) (*net.UDPAddr, error) {
	conn, err := net.Dial("udp4", server)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	c, err := stun.NewClient(conn)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	var (
		addr    *net.UDPAddr
		stunErr error
	)

	err = c.Do(stun.MustBuild(stun.TransactionID, stun.BindingRequest), func(res stun.Event) {
		if res.Error != nil {
			stunErr = res.Error
			return
		}

		var xorAddr stun.XORMappedAddress
		if err := xorAddr.GetFrom(res.Message); err != nil {
			stunErr = err
			return
		}

		addr = &net.UDPAddr{IP: xorAddr.IP, Port: xorAddr.Port}
	})
	if err != nil {
		return nil, err
	}
	if stunErr != nil {
		return nil, stunErr
	}

	return addr, nil
}
