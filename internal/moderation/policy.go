// Package moderation decides whether community reports hide a message.
// The rule is a fixed report-count threshold: it is not content dependent,
// does not decay over time and is never reversed.
package moderation

import "lennonwall/backend/internal/config"

// Decision is the outcome of evaluating a message's report count.
type Decision int

const (
	Keep Decision = iota
	Hide
)

func (d Decision) String() string {
	if d == Hide {
		return "hide"
	}
	return "keep"
}

// Policy hides a message once it has collected Threshold reports.
type Policy struct {
	Threshold int
}

// DefaultPolicy uses config.ReportHideThreshold.
var DefaultPolicy = Policy{Threshold: config.ReportHideThreshold}

// NewPolicy returns a policy with the given threshold, falling back to the
// default when threshold is not positive.
func NewPolicy(threshold int) Policy {
	if threshold <= 0 {
		return DefaultPolicy
	}
	return Policy{Threshold: threshold}
}

// Decide returns Hide when reportCount has reached the threshold.
func (p Policy) Decide(reportCount int) Decision {
	threshold := p.Threshold
	if threshold <= 0 {
		threshold = config.ReportHideThreshold
	}
	if reportCount >= threshold {
		return Hide
	}
	return Keep
}
