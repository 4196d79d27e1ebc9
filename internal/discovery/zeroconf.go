package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/grandcat/zeroconf"
)

// mdnsDomain is the DNS-SD domain browsed and advertised in.
const mdnsDomain = "local."

// Browser is the inbound half of the discovery transport: a feed of raw
// service advertisements.
type Browser interface {
	// Browse streams advertisement records into records until ctx is
	// cancelled, then closes the channel.
	Browse(ctx context.Context, records chan<- Record) error
}

// Advertiser is the outbound half of the discovery transport: the node's
// self-advertisement.
type Advertiser interface {
	// Advertise announces the node until ctx is cancelled.
	Advertise(ctx context.Context, instance string, port int) error
}

// ZeroconfBrowser browses both registration advertisement families over
// mDNS.
type ZeroconfBrowser struct{}

// NewZeroconfBrowser creates the production mDNS browser.
func NewZeroconfBrowser() *ZeroconfBrowser {
	return &ZeroconfBrowser{}
}

// Browse runs one browser per advertisement family and merges both entry
// streams into records. It blocks until ctx is cancelled.
func (*ZeroconfBrowser) Browse(ctx context.Context, records chan<- Record) error {
	defer close(records)

	current := make(chan *zeroconf.ServiceEntry, 16)
	legacy := make(chan *zeroconf.ServiceEntry, 16)

	currentResolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}
	if err := currentResolver.Browse(ctx, RegisterService, mdnsDomain, current); err != nil {
		return fmt.Errorf("failed to browse %s: %w", RegisterService, err)
	}

	legacyResolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create legacy mDNS resolver: %w", err)
	}
	if err := legacyResolver.Browse(ctx, RegisterServiceLegacy, mdnsDomain, legacy); err != nil {
		return fmt.Errorf("failed to browse %s: %w", RegisterServiceLegacy, err)
	}

	slog.Info("Browsing for registration APIs",
		"service", RegisterService,
		"legacy_service", RegisterServiceLegacy)

	for {
		select {
		case entry, ok := <-current:
			if !ok {
				current = nil
				break
			}
			records <- entryToRecord(entry, false)
		case entry, ok := <-legacy:
			if !ok {
				legacy = nil
				break
			}
			records <- entryToRecord(entry, true)
		case <-ctx.Done():
			return ctx.Err()
		}
		if current == nil && legacy == nil {
			return nil
		}
	}
}

func entryToRecord(entry *zeroconf.ServiceEntry, legacy bool) Record {
	text := make(map[string]string, len(entry.Text))
	for _, kv := range entry.Text {
		key, value, found := strings.Cut(kv, "=")
		if !found {
			continue
		}
		text[key] = value
	}

	addrs := append(entry.AddrIPv4, entry.AddrIPv6...)

	return Record{
		Instance: entry.Instance,
		Addrs:    addrs,
		Port:     entry.Port,
		Text:     text,
		Legacy:   legacy,
	}
}

// ZeroconfAdvertiser announces the node's presence as _nmos-node._tcp.
type ZeroconfAdvertiser struct{}

// NewZeroconfAdvertiser creates the production mDNS advertiser.
func NewZeroconfAdvertiser() *ZeroconfAdvertiser {
	return &ZeroconfAdvertiser{}
}

// Advertise registers the node service and keeps it registered until ctx is
// cancelled. Registration failures are retried with exponential backoff;
// TXT metadata is deliberately empty.
func (*ZeroconfAdvertiser) Advertise(ctx context.Context, instance string, port int) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = time.Minute
	ticker := backoff.NewTicker(b)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-ticker.C:
			if !ok {
				return fmt.Errorf("mDNS advertisement retries exhausted")
			}

			server, err := zeroconf.Register(instance, NodeService, mdnsDomain, port, nil, nil)
			if err != nil {
				slog.Warn("Failed to advertise node service, retrying",
					"service", NodeService,
					"error", err)
				continue
			}

			slog.Info("Advertising node service",
				"instance", instance,
				"service", NodeService,
				"port", port)

			<-ctx.Done()
			server.Shutdown()
			return ctx.Err()
		}
	}
}
