package net

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"LocalSketch/internal/state"
)

// ShareScheme prefixes the links a host hands out to its peers.
const ShareScheme = "localsketch://"

// DefaultPort is the hub's listening port when none is configured.
const DefaultPort = 8888

var ErrBadShareLink = errors.New("net: not a share link")

// OutgoingIP finds the preferred local IP address for the host to share.
func OutgoingIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		// No route out; fall back to the interfaces.
		return firstIPv4().String()
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

func firstIPv4() net.IP {
	ifaces, _ := net.Interfaces()
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return ipnet.IP.To4()
			}
		}
	}
	state.Logger().Warn("no LAN address found, share link will use loopback", "component", "net")
	return net.IPv4(127, 0, 0, 1)
}

// ShareLink formats the link peers pass on the command line to join a host.
func ShareLink(host string, port int) string {
	return ShareScheme + net.JoinHostPort(host, strconv.Itoa(port))
}

// ParseShareLink extracts host:port from a share link.
func ParseShareLink(link string) (string, error) {
	if !strings.HasPrefix(link, ShareScheme) {
		return "", fmt.Errorf("%w: %q", ErrBadShareLink, link)
	}
	addr := strings.TrimSuffix(strings.TrimPrefix(link, ShareScheme), "/")
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadShareLink, err)
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil || host == "" {
		return "", fmt.Errorf("%w: bad address %q", ErrBadShareLink, addr)
	}
	return addr, nil
}

// HubURL is the websocket URL of the hub at addr.
func HubURL(addr string) string {
	return "ws://" + addr + "/"
}
