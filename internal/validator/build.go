package validator

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"leadripper/internal/config"
	"leadripper/internal/lookup"
	"leadripper/internal/proxy"
)

// NewFromConfig assembles the production engine: file-backed lists,
// the bounded DNS resolver and an SMTP prober that dials through the
// proxy pool when port-25 proxying is enabled.
func NewFromConfig(cfg config.Config, log logrus.FieldLogger) (*Engine, error) {
	v := cfg.Validation

	lists, err := lookup.NewFileSource(v.DisposableListPath, v.RoleListPath, v.ListRefresh, log)
	if err != nil {
		return nil, fmt.Errorf("load classifier lists: %w", err)
	}

	proberCfg := lookup.ProberConfig{
		HeloDomain:     v.HeloDomain,
		MailFrom:       v.MailFrom,
		Port:           v.SMTPPort,
		Timeout:        v.SMTPTimeout,
		MaxConcurrency: v.SMTPMaxConcurrency,
	}

	if len(cfg.Proxy.List) > 0 {
		pool, err := proxy.NewPool(cfg.Proxy.List, cfg.Proxy.Concurrency)
		if err != nil {
			return nil, fmt.Errorf("proxy pool: %w", err)
		}
		if cfg.Proxy.SMTPEnabled && pool.Enabled() {
			d := &proxy.Dialer{Pool: pool, Timeout: v.SMTPTimeout, Log: log}
			proberCfg.Dial = d.DialContext
			log.WithFields(logrus.Fields{
				"proxies":    pool.Size(),
				"max_active": pool.Capacity(),
			}).Warn("SMTP proxying enabled, port 25 traffic routes through proxies")
		} else {
			log.Info("SMTP proxying disabled, port 25 traffic routes direct")
		}
	}

	return NewEngine(
		lists,
		lookup.NewResolver(v.DNSTimeout, log),
		lookup.NewProber(proberCfg, log),
		log,
	), nil
}
