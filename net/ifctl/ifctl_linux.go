package ifctl

import (
	"net"

	"github.com/vishvananda/netlink"
)

// linkType is the rtnetlink kind of WireGuard links.
const linkType = "wireguard"

// A Link is a WireGuard network interface.
type Link struct {
	link netlink.Link
}

// wgLink implements netlink.Link just long enough for LinkAdd; the netlink
// package has no native wireguard link kind.
type wgLink struct {
	netlink.LinkAttrs
}

func (w *wgLink) Attrs() *netlink.LinkAttrs {
	return &w.LinkAttrs
}

func (w *wgLink) Type() string {
	return linkType
}

// New creates a new WireGuard interface.
//
// The created interface is down; bring it up with Set once it is
// configured.
func New(name string) (*Link, error) {
	attrs := netlink.NewLinkAttrs()
	attrs.Name = name

	if err := netlink.LinkAdd(&wgLink{attrs}); err != nil {
		return nil, err
	}

	return From(name)
}

// From returns the existing interface with the given name.
func From(name string) (*Link, error) {
	l, err := netlink.LinkByName(name)
	if err != nil {
		return nil, err
	}

	return &Link{link: l}, nil
}

// List returns the names of all WireGuard interfaces on the system.
func List() ([]string, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, err
	}

	var names []string
	for _, l := range links {
		if l.Type() == linkType {
			names = append(names, l.Attrs().Name)
		}
	}

	return names, nil
}

// Name returns the interface name.
func (l *Link) Name() string {
	return l.link.Attrs().Name
}

// Index returns the interface index.
func (l *Link) Index() int {
	return l.link.Attrs().Index
}

// Set sets the state of the interface to up (true) or down (false).
func (l *Link) Set(up bool) error {
	if up {
		return netlink.LinkSetUp(l.link)
	}
	return netlink.LinkSetDown(l.link)
}

// AddAddr assigns an address to the interface.
func (l *Link) AddAddr(addr *net.IPNet) error {
	return netlink.AddrAdd(l.link, &netlink.Addr{IPNet: addr})
}

// AddRoute routes a network through the interface.
func (l *Link) AddRoute(dst *net.IPNet) error {
	return netlink.RouteAdd(&netlink.Route{
		LinkIndex: l.link.Attrs().Index,
		Protocol:  6,
		Dst:       dst,
	})
}

// DeleteRoute removes the route for a network from the interface, if one
// exists.
func (l *Link) DeleteRoute(dst *net.IPNet) error {
	routes, err := netlink.RouteGet(dst.IP)
	if err != nil {
		return err
	}

	for _, r := range routes {
		if r.LinkIndex == l.link.Attrs().Index {
			return netlink.RouteDel(&r)
		}
	}

	return nil
}

// Delete removes the interface.
func (l *Link) Delete() error {
	return netlink.LinkDel(l.link)
}
