// Package ifctl creates and manages WireGuard network interfaces through
// rtnetlink. It covers the link-level half of interface setup: the
// wireguard generic netlink family only configures devices that already
// exist.
package ifctl
