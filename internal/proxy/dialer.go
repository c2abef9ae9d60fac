package proxy

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	netproxy "golang.org/x/net/proxy"
)

// proxyConn gives the pool slot back when the connection is closed.
type proxyConn struct {
	net.Conn
	release     func()
	releaseOnce sync.Once
}

func (pc *proxyConn) Close() error {
	pc.releaseOnce.Do(pc.release)
	return pc.Conn.Close()
}

// Dialer dials through the pool when it has proxies and directly otherwise.
type Dialer struct {
	Pool    *Pool
	Timeout time.Duration
	Log     logrus.FieldLogger
}

func (d *Dialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	direct := &net.Dialer{Timeout: d.Timeout}

	pURL := d.Pool.Next()
	if pURL == nil {
		return direct.DialContext(ctx, network, addr)
	}

	select {
	case d.Pool.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("timeout waiting for proxy slot: %w", ctx.Err())
	}
	release := func() { <-d.Pool.slots }

	// Resolve locally; not every proxy resolves names for port-25 targets.
	addr = resolveIPv4(ctx, addr)
	log := d.Log.WithFields(logrus.Fields{"addr": addr, "proxy": pURL.Host})
	start := time.Now()

	pdialer, err := netproxy.FromURL(pURL, direct)
	if err != nil {
		release()
		return nil, fmt.Errorf("proxy %s: %w", pURL.Host, err)
	}

	var conn net.Conn
	if cd, ok := pdialer.(netproxy.ContextDialer); ok {
		conn, err = cd.DialContext(ctx, network, addr)
	} else {
		conn, err = pdialer.Dial(network, addr)
	}
	if err != nil {
		release()
		log.WithError(err).WithField("took", time.Since(start)).Debug("proxy dial failed")
		return nil, err
	}

	log.WithField("took", time.Since(start)).Debug("proxy dial succeeded")
	return &proxyConn{Conn: conn, release: release}, nil
}

func resolveIPv4(ctx context.Context, addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || net.ParseIP(host) != nil {
		return addr
	}
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil || len(ips) == 0 {
		return addr
	}
	return net.JoinHostPort(ips[0].String(), port)
}
