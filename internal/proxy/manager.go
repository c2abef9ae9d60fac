package proxy

import (
	"fmt"
	"net/url"
	"sync/atomic"
)

// Pool rotates outbound connections across a list of SOCKS5/HTTP proxies
// and caps how many of them may be open at once.
type Pool struct {
	proxies []*url.URL
	counter uint64
	slots   chan struct{}
}

// NewPool parses the proxy URLs. A limit <= 0 defaults to one connection
// per proxy.
func NewPool(list []string, limit int) (*Pool, error) {
	var parsed []*url.URL
	for _, p := range list {
		if p == "" {
			continue
		}
		u, err := url.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL '%s': %w", p, err)
		}
		if u.Host == "" {
			return nil, fmt.Errorf("invalid proxy URL '%s': missing host", p)
		}
		parsed = append(parsed, u)
	}

	if limit <= 0 {
		limit = len(parsed)
		if limit == 0 {
			limit = 10
		}
	}

	return &Pool{
		proxies: parsed,
		slots:   make(chan struct{}, limit),
	}, nil
}

// Next returns proxies in round-robin order, or nil for an empty pool.
func (p *Pool) Next() *url.URL {
	if p == nil || len(p.proxies) == 0 {
		return nil
	}
	n := atomic.AddUint64(&p.counter, 1)
	return p.proxies[(n-1)%uint64(len(p.proxies))]
}

func (p *Pool) Enabled() bool {
	return p != nil && len(p.proxies) > 0
}

func (p *Pool) Size() int {
	if p == nil {
		return 0
	}
	return len(p.proxies)
}

func (p *Pool) Capacity() int {
	if p == nil {
		return 0
	}
	return cap(p.slots)
}
