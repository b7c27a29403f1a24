package config

import "time"

const (
	// Moderation
	ReportHideThreshold = 3

	// Content limits
	MaxContentLength       = 500
	MaxAuthorNameLength    = 50
	MaxLocationLength      = 100
	MaxReportDetailsLength = 500
	MaxIdentityTokenLength = 256

	// Feed
	DefaultPageSize = 20
	MaxPageSize     = 100

	// Identity
	IdentityTokenTTL = 365 * 24 * time.Hour
)
