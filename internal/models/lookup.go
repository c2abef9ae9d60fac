package models

// ResolutionTier records which DNS lookup produced the mail exchangers.
type ResolutionTier string

const (
	ViaMX        ResolutionTier = "MX"
	ViaCNAME     ResolutionTier = "CNAME"
	ViaAFallback ResolutionTier = "A-fallback"
)

const (
	ErrorKindNoMXRecords = "NO_MX_RECORDS"
	NoMXMessage          = "Domain does not have MX records configured"
)

type MXRecord struct {
	Exchange string `json:"exchange"`
	Priority uint16 `json:"priority"`
}

type MXLookupResult struct {
	Valid     bool           `json:"valid"`
	Records   []MXRecord     `json:"records,omitempty"`
	Via       ResolutionTier `json:"via,omitempty"`
	Priority  uint16         `json:"priority,omitempty"`
	CNAME     string         `json:"cname,omitempty"`
	ARecords  []string       `json:"aRecords,omitempty"`
	ErrorKind string         `json:"errorKind,omitempty"`
	Message   string         `json:"message,omitempty"`
}

// Primary returns the exchange with the lowest priority value.
// Records are kept sorted, so this is the first one.
func (r *MXLookupResult) Primary() (MXRecord, bool) {
	if r == nil || len(r.Records) == 0 {
		return MXRecord{}, false
	}
	return r.Records[0], true
}

type SMTPOutcome string

const (
	SMTPAccepted     SMTPOutcome = "accepted"
	SMTPRejected     SMTPOutcome = "rejected"
	SMTPInconclusive SMTPOutcome = "inconclusive"
)

// Reasons attached to rejected and inconclusive probes.
const (
	ReasonSMTPRejected    = "SMTP_REJECTED"
	ReasonTempError       = "TEMP_ERROR"
	ReasonTimeout         = "TIMEOUT"
	ReasonConnectionError = "CONNECTION_ERROR"
	ReasonUnexpectedReply = "UNEXPECTED_REPLY"
)

// SMTPProbeResult is three-way on purpose: "could not determine" is never
// reported as "definitely invalid".
type SMTPProbeResult struct {
	Valid   *bool       `json:"valid"` // true accepted, false rejected, null inconclusive
	Outcome SMTPOutcome `json:"outcome"`
	Reason  string      `json:"reason,omitempty"`
	Code    int         `json:"code,omitempty"`
	Message string      `json:"message"`
	Host    string      `json:"host,omitempty"`
}

func (r SMTPProbeResult) Accepted() bool { return r.Outcome == SMTPAccepted }
func (r SMTPProbeResult) Rejected() bool { return r.Outcome == SMTPRejected }

func SMTPAcceptedResult(code int, msg string) SMTPProbeResult {
	valid := true
	return SMTPProbeResult{Valid: &valid, Outcome: SMTPAccepted, Code: code, Message: msg}
}

func SMTPRejectedResult(code int, msg string) SMTPProbeResult {
	valid := false
	return SMTPProbeResult{Valid: &valid, Outcome: SMTPRejected, Reason: ReasonSMTPRejected, Code: code, Message: msg}
}

func SMTPInconclusiveResult(reason string, code int, msg string) SMTPProbeResult {
	return SMTPProbeResult{Outcome: SMTPInconclusive, Reason: reason, Code: code, Message: msg}
}
