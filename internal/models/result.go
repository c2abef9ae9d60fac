package models

type Recommendation string

const (
	RecommendationExcellent  Recommendation = "EXCELLENT"
	RecommendationGood       Recommendation = "GOOD"
	RecommendationAcceptable Recommendation = "ACCEPTABLE"
	RecommendationRisky      Recommendation = "RISKY"
	RecommendationBad        Recommendation = "BAD"
)

// Detail returns the human readable sentence shown next to the tier.
func (r Recommendation) Detail() string {
	switch r {
	case RecommendationExcellent:
		return "EXCELLENT - Highly deliverable email address"
	case RecommendationGood:
		return "GOOD - Email address appears valid and deliverable"
	case RecommendationAcceptable:
		return "ACCEPTABLE - Email may be valid but has some concerns"
	case RecommendationRisky:
		return "RISKY - Email address has significant deliverability concerns"
	default:
		return "BAD - Email address is likely to bounce or is invalid"
	}
}

// ValidationOptions are policy switches. Classifiers always run; the
// options only decide whether their verdict costs points.
type ValidationOptions struct {
	CheckSMTP      bool `json:"checkSMTP"`
	SkipDisposable bool `json:"skipDisposable"`
	SkipRoleBased  bool `json:"skipRoleBased"`
}

func DefaultOptions() ValidationOptions {
	return ValidationOptions{
		CheckSMTP:      false,
		SkipDisposable: true,
		SkipRoleBased:  false,
	}
}

type Checks struct {
	Syntax     bool             `json:"syntax"`
	Disposable bool             `json:"disposable"`
	RoleBased  bool             `json:"roleBased"`
	MX         *MXLookupResult  `json:"mx,omitempty"`
	SMTP       *SMTPProbeResult `json:"smtp,omitempty"`
}

type ValidationResult struct {
	Email                string         `json:"email"`
	Valid                bool           `json:"valid"`
	Score                int            `json:"score"`
	Checks               Checks         `json:"checks"`
	Warnings             []string       `json:"warnings"`
	Errors               []string       `json:"errors"`
	Recommendation       Recommendation `json:"recommendation"`
	RecommendationDetail string         `json:"recommendationDetail"`
	Duration             string         `json:"duration,omitempty"`
}

// NewResult returns a result with empty (non-nil) message lists so the
// JSON encoding always carries arrays.
func NewResult(email string) ValidationResult {
	return ValidationResult{
		Email:    email,
		Warnings: []string{},
		Errors:   []string{},
	}
}
