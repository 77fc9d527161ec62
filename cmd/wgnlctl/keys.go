package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/Global19/wgnlpy"
)

func genkey(op string) {
	var (
		k   wgnlpy.Key
		err error
	)
	if op == "genkey" {
		k, err = wgnlpy.GeneratePrivateKey()
	} else {
		k, err = wgnlpy.GenerateKey()
	}
	if err != nil {
		die("failed to generate key: %v", err)
	}

	fmt.Println(k)
}

func pubkey() {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		die("failed to read private key: %v", err)
	}

	k, err := wgnlpy.ParseKey(strings.TrimSpace(line))
	if err != nil {
		die("invalid private key: %v", err)
	}

	fmt.Println(k.PublicKey())
}
