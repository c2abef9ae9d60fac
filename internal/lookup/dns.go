package lookup

import (
	"context"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"leadripper/internal/models"
)

// DNSClient is the subset of *net.Resolver the cascade needs.
type DNSClient interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupCNAME(ctx context.Context, host string) (string, error)
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

// Resolver decides whether a domain can receive mail:
// MX, then MX of the CNAME target, then the domain's own A records.
type Resolver struct {
	dns     DNSClient
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewResolver uses the pure-Go resolver with a bounded dial so a slow DNS
// server fails fast instead of hanging the request.
func NewResolver(timeout time.Duration, log logrus.FieldLogger) *Resolver {
	r := &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
			d := net.Dialer{Timeout: timeout}
			return d.DialContext(ctx, network, address)
		},
	}
	return NewResolverWithClient(r, timeout, log)
}

func NewResolverWithClient(client DNSClient, timeout time.Duration, log logrus.FieldLogger) *Resolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Resolver{dns: client, timeout: timeout, log: log}
}

// Resolve runs the cascade. Lookup failures are folded into an invalid
// result; an error is returned only when ctx itself is done.
func (r *Resolver) Resolve(ctx context.Context, domain string) (models.MXLookupResult, error) {
	log := r.log.WithField("domain", domain)

	if records := r.lookupMX(ctx, domain); len(records) > 0 {
		return mxResult(records, models.ViaMX), nil
	}
	if err := ctx.Err(); err != nil {
		return models.MXLookupResult{}, err
	}

	if target := r.lookupCNAME(ctx, domain); target != "" {
		if records := r.lookupMX(ctx, target); len(records) > 0 {
			res := mxResult(records, models.ViaCNAME)
			res.CNAME = target
			log.WithField("cname", target).Debug("mail exchangers found through CNAME")
			return res, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return models.MXLookupResult{}, err
	}

	if addrs := r.lookupA(ctx, domain); len(addrs) > 0 {
		log.WithField("a_records", len(addrs)).Debug("no MX records, falling back to A records")
		return models.MXLookupResult{
			Valid:    true,
			Via:      models.ViaAFallback,
			ARecords: addrs,
		}, nil
	}
	if err := ctx.Err(); err != nil {
		return models.MXLookupResult{}, err
	}

	return models.MXLookupResult{
		Valid:     false,
		ErrorKind: models.ErrorKindNoMXRecords,
		Message:   models.NoMXMessage,
	}, nil
}

func (r *Resolver) lookupMX(ctx context.Context, name string) []models.MXRecord {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	mxs, err := r.dns.LookupMX(ctx, name)
	if err != nil {
		r.log.WithError(err).WithField("name", name).Debug("MX lookup failed")
		return nil
	}

	records := make([]models.MXRecord, 0, len(mxs))
	for _, mx := range mxs {
		host := trimDot(mx.Host)
		// "." is the null MX: the domain explicitly accepts no mail
		if host == "" {
			continue
		}
		records = append(records, models.MXRecord{Exchange: host, Priority: mx.Pref})
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Priority < records[j].Priority
	})
	return records
}

// lookupCNAME returns the canonical target, or "" when the name has none.
// The stdlib resolver answers with the name itself when there is no CNAME.
func (r *Resolver) lookupCNAME(ctx context.Context, name string) string {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cname, err := r.dns.LookupCNAME(ctx, name)
	if err != nil {
		return ""
	}
	target := trimDot(cname)
	if target == "" || strings.EqualFold(target, trimDot(name)) {
		return ""
	}
	return target
}

func (r *Resolver) lookupA(ctx context.Context, name string) []string {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ips, err := r.dns.LookupIP(ctx, "ip4", name)
	if err != nil {
		return nil
	}
	addrs := make([]string, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, ip.String())
	}
	return addrs
}

func mxResult(records []models.MXRecord, via models.ResolutionTier) models.MXLookupResult {
	return models.MXLookupResult{
		Valid:    true,
		Records:  records,
		Via:      via,
		Priority: records[0].Priority,
	}
}

func trimDot(s string) string {
	return strings.TrimSuffix(strings.TrimSpace(s), ".")
}
