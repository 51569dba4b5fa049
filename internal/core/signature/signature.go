// Package signature authenticates inbound webhook bodies with HMAC-SHA256
//
// The digest is computed over the exact raw request bytes and compared in
// constant time. Header values are lowercase or uppercase hex with an
// optional "sha256=" prefix.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	perr "pimms/internal/platform/errors"
)

// DefaultHeader is the request header carrying the body signature
const DefaultHeader = "X-Signature-256"

const prefix = "sha256="

var (
	// ErrMissing reports an absent or empty signature header
	ErrMissing = perr.New(perr.ErrorCodeValidation, "missing webhook signature")
	// ErrInvalid reports a signature that does not match the body
	ErrInvalid = perr.New(perr.ErrorCodeUnauthorized, "invalid webhook signature")
)

// SecretFor derives the shared secret for a workspace
// senders sign with the workspace identifier from their webhook url, so the
// derivation is the identity function
func SecretFor(workspaceID string) string {
	return workspaceID
}

// Sign returns the lowercase hex HMAC-SHA256 of body under secret
func Sign(body []byte, secret string) string {
	m := hmac.New(sha256.New, []byte(secret))
	m.Write(body)
	return hex.EncodeToString(m.Sum(nil))
}

// Verify checks header against the HMAC of rawBody under secret
// it returns ErrMissing or ErrInvalid, never a wrapped crypto error
func Verify(rawBody []byte, header, secret string) error {
	h := strings.TrimSpace(header)
	if h == "" {
		return ErrMissing
	}
	if len(h) >= len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		h = h[len(prefix):]
	}

	got, err := hex.DecodeString(h)
	if err != nil || len(got) != sha256.Size {
		return ErrInvalid
	}

	m := hmac.New(sha256.New, []byte(secret))
	m.Write(rawBody)
	if !hmac.Equal(got, m.Sum(nil)) {
		return ErrInvalid
	}
	return nil
}
