package lookup

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadripper/internal/models"
)

var errNoSuchHost = &net.DNSError{Err: "no such host", IsNotFound: true}

// fakeDNS answers from fixed tables and counts every query.
type fakeDNS struct {
	mx    map[string][]*net.MX
	cname map[string]string
	a     map[string][]net.IP
	calls int
}

func (f *fakeDNS) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	f.calls++
	if recs, ok := f.mx[name]; ok {
		return recs, nil
	}
	return nil, errNoSuchHost
}

func (f *fakeDNS) LookupCNAME(ctx context.Context, host string) (string, error) {
	f.calls++
	if c, ok := f.cname[host]; ok {
		return c, nil
	}
	return host + ".", nil
}

func (f *fakeDNS) LookupIP(ctx context.Context, network, host string) ([]net.IP, error) {
	f.calls++
	if ips, ok := f.a[host]; ok {
		return ips, nil
	}
	return nil, errNoSuchHost
}

func newTestResolver(f *fakeDNS) *Resolver {
	return NewResolverWithClient(f, time.Second, quietLogger())
}

func TestResolveMX(t *testing.T) {
	f := &fakeDNS{mx: map[string][]*net.MX{
		"acme.com": {
			{Host: "mx2.acme.com.", Pref: 20},
			{Host: "mx1.acme.com.", Pref: 10},
		},
	}}

	res, err := newTestResolver(f).Resolve(context.Background(), "acme.com")
	require.NoError(t, err)

	assert.True(t, res.Valid)
	assert.Equal(t, models.ViaMX, res.Via)
	assert.Equal(t, uint16(10), res.Priority)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "mx1.acme.com", res.Records[0].Exchange, "sorted by priority, trailing dot trimmed")
	assert.Equal(t, "mx2.acme.com", res.Records[1].Exchange)
}

func TestResolveThroughCNAME(t *testing.T) {
	f := &fakeDNS{
		mx:    map[string][]*net.MX{"mail.host.net": {{Host: "mx.host.net.", Pref: 5}}},
		cname: map[string]string{"alias.com": "mail.host.net."},
	}

	res, err := newTestResolver(f).Resolve(context.Background(), "alias.com")
	require.NoError(t, err)

	assert.True(t, res.Valid)
	assert.Equal(t, models.ViaCNAME, res.Via)
	assert.Equal(t, "mail.host.net", res.CNAME)
	assert.Equal(t, "mx.host.net", res.Records[0].Exchange)
}

func TestResolveAFallback(t *testing.T) {
	f := &fakeDNS{a: map[string][]net.IP{"old.example": {net.ParseIP("192.0.2.7")}}}

	res, err := newTestResolver(f).Resolve(context.Background(), "old.example")
	require.NoError(t, err)

	assert.True(t, res.Valid)
	assert.Equal(t, models.ViaAFallback, res.Via)
	assert.Equal(t, []string{"192.0.2.7"}, res.ARecords)
	assert.Empty(t, res.Records, "A records are not mail exchangers")
}

func TestResolveNothing(t *testing.T) {
	res, err := newTestResolver(&fakeDNS{}).Resolve(context.Background(), "nowhere.invalid")
	require.NoError(t, err)

	assert.False(t, res.Valid)
	assert.Equal(t, "NO_MX_RECORDS", res.ErrorKind)
	assert.Equal(t, "Domain does not have MX records configured", res.Message)
}

func TestResolveIgnoresNullMX(t *testing.T) {
	f := &fakeDNS{mx: map[string][]*net.MX{"nomail.com": {{Host: ".", Pref: 0}}}}

	res, err := newTestResolver(f).Resolve(context.Background(), "nomail.com")
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestResolveCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestResolver(&fakeDNS{}).Resolve(ctx, "acme.com")
	assert.True(t, errors.Is(err, context.Canceled))
}
