package lookup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"leadripper/internal/models"
)

const (
	msgAccepted     = "Email verified via SMTP"
	msgRejected     = "Email address rejected by server"
	msgTempError    = "Temporary server error - verification inconclusive"
	msgTimeout      = "SMTP verification timed out"
	quitGracePeriod = time.Second
)

// DialFunc opens the TCP connection to the mail exchanger.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

type ProberConfig struct {
	HeloDomain     string
	MailFrom       string
	Port           string
	Timeout        time.Duration
	MaxConcurrency int
	Dial           DialFunc
}

// Prober asks a mail exchanger whether it would accept mail for an address,
// stopping after RCPT TO. Nothing is ever sent.
type Prober struct {
	cfg   ProberConfig
	slots chan struct{}
	log   logrus.FieldLogger
}

func NewProber(cfg ProberConfig, log logrus.FieldLogger) *Prober {
	if cfg.Port == "" {
		cfg.Port = "25"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 15
	}
	if cfg.Dial == nil {
		d := &net.Dialer{Timeout: cfg.Timeout}
		cfg.Dial = d.DialContext
	}
	return &Prober{
		cfg:   cfg,
		slots: make(chan struct{}, cfg.MaxConcurrency),
		log:   log,
	}
}

type handshakeState int

const (
	stateAwaitingGreeting handshakeState = iota
	stateAwaitingHeloAck
	stateAwaitingMailAck
	stateAwaitingRcptAck
	stateDone
)

func (s handshakeState) String() string {
	switch s {
	case stateAwaitingGreeting:
		return "AwaitingGreeting"
	case stateAwaitingHeloAck:
		return "AwaitingHeloAck"
	case stateAwaitingMailAck:
		return "AwaitingMailAck"
	case stateAwaitingRcptAck:
		return "AwaitingRcptAck"
	default:
		return "Done"
	}
}

// session owns the connection so that whichever side finishes first,
// the handshake or the timer, closes it exactly once.
type session struct {
	mu     sync.Mutex
	conn   net.Conn
	closed bool
	once   sync.Once
}

// attach reports false when the session was already closed.
func (s *session) attach(c net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conn = c
	return true
}

// quit sends a best-effort QUIT. It runs after the outcome is delivered,
// so a stalled write cannot turn a settled verdict into a timeout.
func (s *session) quit() {
	s.mu.Lock()
	c, closed := s.conn, s.closed
	s.mu.Unlock()
	if c == nil || closed {
		return
	}
	c.SetDeadline(time.Now().Add(quitGracePeriod))
	textproto.NewConn(c).Cmd("QUIT")
}

func (s *session) close() {
	s.once.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true
		if s.conn != nil {
			s.conn.Close()
		}
	})
}

// Probe runs the handshake against mxHost for email. It always resolves to
// exactly one result; the overall timer covers connect and handshake.
func (p *Prober) Probe(ctx context.Context, mxHost, email string) models.SMTPProbeResult {
	log := p.log.WithFields(logrus.Fields{"mx": mxHost, "email": email})

	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return inconclusive(models.ReasonTimeout, msgTimeout, 0, mxHost)
	}
	defer func() { <-p.slots }()

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	sess := &session{}
	done := make(chan models.SMTPProbeResult, 1)

	go func() {
		res, greeted := p.run(ctx, sess, mxHost, email)
		done <- res
		if greeted {
			sess.quit()
		}
		sess.close()
	}()

	select {
	case res := <-done:
		log.WithFields(logrus.Fields{"outcome": res.Outcome, "code": res.Code}).Debug("smtp probe finished")
		return res
	case <-ctx.Done():
		sess.close()
		log.Debug("smtp probe timed out")
		return inconclusive(models.ReasonTimeout, msgTimeout, 0, mxHost)
	}
}

// run dials and drives the handshake. greeted reports whether the server
// ever answered, in which case a QUIT is owed.
func (p *Prober) run(ctx context.Context, sess *session, mxHost, email string) (models.SMTPProbeResult, bool) {
	conn, err := p.cfg.Dial(ctx, "tcp", net.JoinHostPort(mxHost, p.cfg.Port))
	if err != nil {
		if ctx.Err() != nil {
			return inconclusive(models.ReasonTimeout, msgTimeout, 0, mxHost), false
		}
		return inconclusive(models.ReasonConnectionError, err.Error(), 0, mxHost), false
	}
	if !sess.attach(conn) {
		conn.Close()
		return inconclusive(models.ReasonTimeout, msgTimeout, 0, mxHost), false
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	tp := textproto.NewConn(conn)
	res, greeted := p.handshake(tp, email)
	res.Host = mxHost
	return res, greeted
}

// handshake drives the state machine until a terminal reply.
func (p *Prober) handshake(tp *textproto.Conn, email string) (res models.SMTPProbeResult, greeted bool) {
	state := stateAwaitingGreeting
	for {
		code, msg, err := tp.ReadResponse(0)
		if err != nil {
			return ioFailure(err), greeted
		}
		greeted = true

		next, cmd, final := p.advance(state, code, msg, email)
		if next == stateDone {
			return final, greeted
		}
		if _, err := tp.Cmd("%s", cmd); err != nil {
			return ioFailure(err), greeted
		}
		state = next
	}
}

// advance maps one reply in one state to the next state and the command to
// send, or to a terminal result.
func (p *Prober) advance(state handshakeState, code int, msg, email string) (handshakeState, string, models.SMTPProbeResult) {
	switch code {
	case 450, 451, 452:
		return stateDone, "", inconclusive(models.ReasonTempError, msgTempError, code, "")
	case 550, 551, 553:
		if state == stateAwaitingMailAck || state == stateAwaitingRcptAck {
			return stateDone, "", models.SMTPRejectedResult(code, msgRejected)
		}
	}

	switch {
	case state == stateAwaitingGreeting && code == 220:
		return stateAwaitingHeloAck, "HELO " + p.cfg.HeloDomain, models.SMTPProbeResult{}
	case state == stateAwaitingHeloAck && code == 250:
		return stateAwaitingMailAck, "MAIL FROM:<" + p.cfg.MailFrom + ">", models.SMTPProbeResult{}
	case state == stateAwaitingMailAck && code == 250:
		return stateAwaitingRcptAck, "RCPT TO:<" + email + ">", models.SMTPProbeResult{}
	case state == stateAwaitingRcptAck && (code == 250 || code == 251):
		return stateDone, "", models.SMTPAcceptedResult(code, msgAccepted)
	}

	return stateDone, "", inconclusive(
		models.ReasonUnexpectedReply,
		fmt.Sprintf("Unexpected SMTP reply %d in state %s: %s", code, state, msg),
		code, "",
	)
}

func ioFailure(err error) models.SMTPProbeResult {
	var netErr net.Error
	if errors.Is(err, os.ErrDeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return inconclusive(models.ReasonTimeout, msgTimeout, 0, "")
	}
	return inconclusive(models.ReasonConnectionError, err.Error(), 0, "")
}

func inconclusive(reason, msg string, code int, host string) models.SMTPProbeResult {
	res := models.SMTPInconclusiveResult(reason, code, msg)
	res.Host = host
	return res
}
