package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"

	"github.com/nmos-go/node/internal/apiver"
	"github.com/nmos-go/node/internal/telemetry"
)

// DNS-SD service types browsed and advertised by the node.
const (
	// RegisterService is the registration API service type for v1.2+.
	RegisterService = "_nmos-register._tcp"

	// RegisterServiceLegacy is the registration API service type used by
	// v1.0/v1.1 era registries.
	RegisterServiceLegacy = "_nmos-registration._tcp"

	// NodeService is the service type the node advertises itself under.
	NodeService = "_nmos-node._tcp"
)

// registrationRoot is the path under which every registration API lives.
const registrationRoot = "/x-nmos/registration/"

// TXT record keys a registration advertisement must carry.
const (
	txtKeyProto = "api_proto"
	txtKeyVer   = "api_ver"
	txtKeyAuth  = "api_auth"
	txtKeyPri   = "pri"
)

// Record is one raw service advertisement as seen on the wire, already
// reduced to the fields candidate parsing needs.
type Record struct {
	Instance string
	Addrs    []net.IP
	Port     int
	Text     map[string]string

	// Legacy marks records from the legacy advertisement family.
	Legacy bool
}

// Candidate is a parsed, usable registration API advertisement.
type Candidate struct {
	Proto    string
	Versions []apiver.Version
	Auth     bool
	Priority uint8
	URL      *url.URL

	// seq is the discovery order, assigned by the queue; it breaks priority
	// ties deterministically in favor of the earlier discovery.
	seq uint64
}

// Compatible reports whether the candidate's advertised version list
// includes the node's configured API version.
func (c *Candidate) Compatible(v apiver.Version) bool {
	return apiver.Contains(c.Versions, v)
}

// String renders the candidate for logs.
func (c *Candidate) String() string {
	return fmt.Sprintf("%s (pri=%d)", c.URL, c.Priority)
}

// ParseCandidate turns a raw advertisement record into a candidate. Records
// missing a required TXT key or carrying an unparsable value return an
// error; callers log and drop them.
func ParseCandidate(rec Record) (*Candidate, error) {
	proto, ok := rec.Text[txtKeyProto]
	if !ok {
		return nil, fmt.Errorf("missing TXT key %s", txtKeyProto)
	}
	verList, ok := rec.Text[txtKeyVer]
	if !ok {
		return nil, fmt.Errorf("missing TXT key %s", txtKeyVer)
	}
	authStr, ok := rec.Text[txtKeyAuth]
	if !ok {
		return nil, fmt.Errorf("missing TXT key %s", txtKeyAuth)
	}
	priStr, ok := rec.Text[txtKeyPri]
	if !ok {
		return nil, fmt.Errorf("missing TXT key %s", txtKeyPri)
	}

	if proto != "http" && proto != "https" {
		return nil, fmt.Errorf("unsupported api_proto %q", proto)
	}

	addr := pickAddress(rec.Addrs)
	if addr == nil {
		return nil, fmt.Errorf("record for %q carries no usable address", rec.Instance)
	}

	versions, err := apiver.ParseList(verList)
	if err != nil {
		return nil, fmt.Errorf("unparsable api_ver: %w", err)
	}

	auth, err := strconv.ParseBool(authStr)
	if err != nil {
		return nil, fmt.Errorf("unparsable api_auth %q: %w", authStr, err)
	}

	pri, err := strconv.ParseUint(priStr, 10, 8)
	if err != nil {
		return nil, fmt.Errorf("unparsable pri %q: %w", priStr, err)
	}

	authority := net.JoinHostPort(addr.String(), strconv.Itoa(rec.Port))
	base, err := url.Parse(fmt.Sprintf("%s://%s%s", proto, authority, registrationRoot))
	if err != nil {
		return nil, fmt.Errorf("cannot build registration URL: %w", err)
	}

	return &Candidate{
		Proto:    proto,
		Versions: versions,
		Auth:     auth,
		Priority: uint8(pri),
		URL:      base,
	}, nil
}

// pickAddress prefers an IPv4 address, falling back to the first IPv6 one.
func pickAddress(addrs []net.IP) net.IP {
	for _, a := range addrs {
		if a.To4() != nil {
			return a
		}
	}
	if len(addrs) > 0 {
		return addrs[0]
	}
	return nil
}

// Consumer drains a record channel, parsing records into candidates and
// pushing them onto the queue. It returns when the channel closes or the
// context is cancelled.
type Consumer struct {
	queue   *CandidateQueue
	metrics *telemetry.DiscoveryMetrics
}

// ConsumerOption is a function that configures the consumer
type ConsumerOption func(*Consumer)

// WithConsumerMetrics sets the discovery metrics bundle for the consumer
func WithConsumerMetrics(metrics *telemetry.DiscoveryMetrics) ConsumerOption {
	return func(c *Consumer) {
		c.metrics = metrics
	}
}

// NewConsumer creates a consumer feeding the given queue.
func NewConsumer(queue *CandidateQueue, opts ...ConsumerOption) *Consumer {
	c := &Consumer{queue: queue}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run consumes records until ch closes.
func (c *Consumer) Run(ctx context.Context, records <-chan Record) {
	for rec := range records {
		candidate, err := ParseCandidate(rec)
		if err != nil {
			slog.Warn("Dropping malformed registry advertisement",
				"instance", rec.Instance,
				"legacy", rec.Legacy,
				"error", err)
			continue
		}
		slog.Debug("Discovered registration API",
			"url", candidate.URL.String(),
			"priority", candidate.Priority,
			"legacy", rec.Legacy)
		c.metrics.RecordCandidate(ctx, rec.Legacy)
		c.queue.Push(candidate)
	}
}
