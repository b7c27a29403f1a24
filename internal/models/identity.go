package models

import (
	"errors"

	"lennonwall/backend/internal/config"
)

var (
	ErrEmptyIdentity   = errors.New("identity token is empty")
	ErrIdentityTooLong = errors.New("identity token is too long")
)

// IdentityToken is the opaque per-visitor key supplied by the client. It is
// only ever compared for equality.
type IdentityToken string

// Validate checks the token is usable as a key. Entropy is the client's concern.
func (t IdentityToken) Validate() error {
	if t == "" {
		return ErrEmptyIdentity
	}
	if len(t) > config.MaxIdentityTokenLength {
		return ErrIdentityTooLong
	}
	return nil
}
