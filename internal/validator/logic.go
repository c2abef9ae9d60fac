package validator

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"leadripper/internal/lookup"
	"leadripper/internal/models"
)

const (
	errInvalidSyntax    = "Invalid email syntax"
	errDomainUnmailable = "Domain cannot receive emails"
	warnDisposable      = "Disposable/temporary email address"
	warnRoleBased       = "Role-based email (info@, admin@, etc.) - may have lower deliverability"
	warnAFallback       = "No MX records; mail delivery relies on A-record fallback"
	warnSMTPPrefix      = "Could not verify email via SMTP - "
)

type MXResolver interface {
	Resolve(ctx context.Context, domain string) (models.MXLookupResult, error)
}

type SMTPProber interface {
	Probe(ctx context.Context, mxHost, email string) models.SMTPProbeResult
}

// Engine runs the validation pipeline. It holds no per-call state and is
// safe for concurrent use.
type Engine struct {
	lists  lookup.ClassifierSource
	dns    MXResolver
	prober SMTPProber
	log    logrus.FieldLogger
}

// NewEngine wires the stages. prober may be nil, in which case SMTP
// checks are treated as not requested.
func NewEngine(lists lookup.ClassifierSource, dns MXResolver, prober SMTPProber, log logrus.FieldLogger) *Engine {
	return &Engine{lists: lists, dns: dns, prober: prober, log: log}
}

// Validate scores one address. Terminal verdicts (bad syntax, unreachable
// domain, rejected mailbox) are results, not errors; an error means the
// call itself could not complete, e.g. ctx expired.
func (e *Engine) Validate(ctx context.Context, email string, opts models.ValidationOptions) (models.ValidationResult, error) {
	res := models.NewResult(email)
	log := e.log.WithField("email", email)

	res.Checks.Syntax = lookup.ValidSyntax(email)
	if !res.Checks.Syntax {
		res.Errors = append(res.Errors, errInvalidSyntax)
		finalize(&res, 0)
		return res, nil
	}
	score := PointsSyntax

	local, domain := lookup.SplitAddress(email)
	lists := e.lists.Classifier()

	res.Checks.Disposable = lists.IsDisposableDomain(domain)
	if res.Checks.Disposable && opts.SkipDisposable {
		res.Warnings = append(res.Warnings, warnDisposable)
		score -= PenaltyDisposable
	}

	res.Checks.RoleBased = lists.IsRoleAccount(local)
	if res.Checks.RoleBased {
		res.Warnings = append(res.Warnings, warnRoleBased)
		if opts.SkipRoleBased {
			score -= PenaltyRoleBased
		}
	}

	mx, err := e.dns.Resolve(ctx, domain)
	if err != nil {
		return res, fmt.Errorf("resolve %s: %w", domain, err)
	}
	res.Checks.MX = &mx

	if !mx.Valid {
		msg := mx.Message
		if msg == "" {
			msg = errDomainUnmailable
		}
		res.Errors = append(res.Errors, msg)
		finalize(&res, floorAtZero(score, PenaltyNoMX))
		log.WithField("score", res.Score).Debug("domain has no mail route")
		return res, nil
	}
	score += PointsMX
	if mx.Via == models.ViaAFallback {
		res.Warnings = append(res.Warnings, warnAFallback)
	}

	primary, hasMX := mx.Primary()
	if opts.CheckSMTP && hasMX && e.prober != nil {
		probe := e.prober.Probe(ctx, primary.Exchange, email)
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("smtp probe %s: %w", primary.Exchange, err)
		}
		res.Checks.SMTP = &probe

		switch {
		case probe.Accepted():
			score += PointsSMTPAccepted
		case probe.Rejected():
			res.Errors = append(res.Errors, probe.Message)
			score = floorAtZero(score, PenaltySMTPRejected)
		default:
			res.Warnings = append(res.Warnings, warnSMTPPrefix+probe.Message)
			score += PointsSMTPInconclusive
		}
	} else {
		score += PointsSMTPSkipped
	}

	finalize(&res, score)
	log.WithFields(logrus.Fields{
		"score":          res.Score,
		"valid":          res.Valid,
		"recommendation": res.Recommendation,
		"via":            mx.Via,
	}).Debug("validation finished")
	return res, nil
}
