// Package discovery finds FPP devices on the local network via mDNS.
// fppd advertises itself under the _fppd._udp service.
package discovery

import (
	"context"
	"fmt"

	"github.com/grandcat/zeroconf"
	log "github.com/sirupsen/logrus"
)

const (
	// Service is the mDNS service type fppd registers.
	Service = "_fppd._udp"
	// Domain is the mDNS browse domain.
	Domain = "local."
)

// Device is an FPP instance found on the network.
type Device struct {
	Name string
	Host string
	Port int
}

// Browse looks for FPP devices until ctx expires, invoking found for each
// one as it appears. Devices with no resolvable IPv4 address are skipped.
func Browse(ctx context.Context, found func(Device)) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to initialize resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	go func() {
		seen := make(map[string]struct{})
		for entry := range entries {
			if entry == nil || len(entry.AddrIPv4) == 0 {
				continue
			}
			if _, dup := seen[entry.Instance]; dup {
				continue
			}
			seen[entry.Instance] = struct{}{}

			device := Device{
				Name: entry.Instance,
				Host: entry.AddrIPv4[0].String(),
				Port: entry.Port,
			}
			log.WithFields(log.Fields{
				"name": device.Name,
				"host": device.Host,
				"port": device.Port,
			}).Debug("discovered FPP device")
			found(device)
		}
	}()

	if err := resolver.Browse(ctx, Service, Domain, entries); err != nil {
		return fmt.Errorf("failed to browse for FPP devices: %w", err)
	}

	<-ctx.Done()
	return nil
}
