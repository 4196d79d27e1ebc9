package discovery

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/nmos-go/node/internal/apiver"
	"github.com/nmos-go/node/internal/telemetry"
)

func validRecord() Record {
	return Record{
		Instance: "registry-1",
		Addrs:    []net.IP{net.ParseIP("192.0.2.20")},
		Port:     8235,
		Text: map[string]string{
			"api_proto": "http",
			"api_ver":   "v1.0,v1.1,v1.2,v1.3",
			"api_auth":  "false",
			"pri":       "10",
		},
	}
}

func TestParseCandidate(t *testing.T) {
	t.Parallel()

	candidate, err := ParseCandidate(validRecord())
	require.NoError(t, err)

	assert.Equal(t, "http", candidate.Proto)
	assert.Equal(t, uint8(10), candidate.Priority)
	assert.False(t, candidate.Auth)
	assert.Equal(t, "http://192.0.2.20:8235/x-nmos/registration/", candidate.URL.String())
	assert.True(t, candidate.Compatible(apiver.V1_3))
	assert.True(t, candidate.Compatible(apiver.V1_0))
	assert.False(t, candidate.Compatible(apiver.Version{Major: 2, Minor: 0}))
}

func TestParseCandidate_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Record)
	}{
		{
			name:   "missing api_proto",
			mutate: func(r *Record) { delete(r.Text, "api_proto") },
		},
		{
			name:   "missing api_ver",
			mutate: func(r *Record) { delete(r.Text, "api_ver") },
		},
		{
			name:   "missing api_auth",
			mutate: func(r *Record) { delete(r.Text, "api_auth") },
		},
		{
			name:   "missing pri",
			mutate: func(r *Record) { delete(r.Text, "pri") },
		},
		{
			name:   "unsupported protocol",
			mutate: func(r *Record) { r.Text["api_proto"] = "ftp" },
		},
		{
			name:   "unparsable version list",
			mutate: func(r *Record) { r.Text["api_ver"] = "banana" },
		},
		{
			name:   "unparsable auth flag",
			mutate: func(r *Record) { r.Text["api_auth"] = "maybe" },
		},
		{
			name:   "unparsable priority",
			mutate: func(r *Record) { r.Text["pri"] = "high" },
		},
		{
			name:   "priority out of range",
			mutate: func(r *Record) { r.Text["pri"] = "300" },
		},
		{
			name:   "no address",
			mutate: func(r *Record) { r.Addrs = nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := validRecord()
			tt.mutate(&rec)
			_, err := ParseCandidate(rec)
			require.Error(t, err)
		})
	}
}

func TestParseCandidate_PrefersIPv4(t *testing.T) {
	t.Parallel()

	rec := validRecord()
	rec.Addrs = []net.IP{net.ParseIP("2001:db8::1"), net.ParseIP("192.0.2.30")}

	candidate, err := ParseCandidate(rec)
	require.NoError(t, err)
	assert.Contains(t, candidate.URL.Host, "192.0.2.30")
}

func TestParseCandidate_IPv6Fallback(t *testing.T) {
	t.Parallel()

	rec := validRecord()
	rec.Addrs = []net.IP{net.ParseIP("2001:db8::1")}

	candidate, err := ParseCandidate(rec)
	require.NoError(t, err)
	assert.Equal(t, "http://[2001:db8::1]:8235/x-nmos/registration/", candidate.URL.String())
}

func TestConsumer_ParsesAndQueues(t *testing.T) {
	t.Parallel()

	queue := NewCandidateQueue()
	consumer := NewConsumer(queue)

	records := make(chan Record, 4)
	records <- validRecord()
	bad := validRecord()
	delete(bad.Text, "pri")
	records <- bad
	close(records)

	consumer.Run(context.Background(), records)

	assert.Equal(t, 1, queue.Len())
}

func TestConsumer_CountsCandidates(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := telemetry.NewDiscoveryMetrics(provider)
	require.NoError(t, err)

	queue := NewCandidateQueue()
	consumer := NewConsumer(queue, WithConsumerMetrics(metrics))

	records := make(chan Record, 4)
	records <- validRecord()
	legacy := validRecord()
	legacy.Legacy = true
	records <- legacy
	close(records)

	consumer.Run(context.Background(), records)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "nmos_node_candidates_discovered_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), total)
}
