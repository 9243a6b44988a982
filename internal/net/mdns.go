package net

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/mdns"

	"LocalSketch/internal/state"
)

const serviceType = "_localsketch._tcp"

// Advertise announces a hub on the LAN. The caller shuts the returned
// server down when the hub stops.
func Advertise(port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}

	service, err := mdns.NewMDNSService(host, serviceType, "", "", port, nil, []string{"LocalSketch"})
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	state.Logger().Info("advertising hub", "component", "mdns", "host", host, "port", port)
	return server, nil
}

// Discover looks for an advertised hub and returns the first host:port that
// answers within timeout.
func Discover(ctx context.Context, timeout time.Duration) (string, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	found := make(chan string, 1)
	drained := make(chan struct{})

	go func() {
		defer close(drained)
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			select {
			case found <- fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port):
			default:
			}
		}
	}()

	params := mdns.DefaultParams(serviceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	errc := make(chan error, 1)
	go func() {
		errc <- mdns.Query(params)
		close(entries)
	}()

	select {
	case addr := <-found:
		state.Logger().Info("discovered hub", "component", "mdns", "addr", addr)
		return addr, nil
	case err := <-errc:
		if err != nil {
			return "", fmt.Errorf("mdns query: %w", err)
		}
		<-drained
		select {
		case addr := <-found:
			return addr, nil
		default:
		}
		return "", fmt.Errorf("no hub answered within %s", timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
