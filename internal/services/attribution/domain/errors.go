package domain

import (
	stderrs "errors"
	"fmt"

	perr "pimms/internal/platform/errors"
)

// Reason is the stable machine code recorded with a failed attribution
type Reason string

const (
	// ReasonNoToken means the payload carried no attribution token
	ReasonNoToken Reason = "no_token"
	// ReasonClickNotFound means the token matched no click
	ReasonClickNotFound Reason = "click_not_found"
	// ReasonLinkNotFound means the click referenced a missing link
	ReasonLinkNotFound Reason = "link_not_found"
	// ReasonWorkspaceMismatch means the click belongs to another workspace
	ReasonWorkspaceMismatch Reason = "workspace_mismatch"
)

// sentinels, match with errors.Is
var (
	ErrNoToken           = perr.New(perr.ErrorCodeValidation, "no attribution token in payload")
	ErrClickNotFound     = perr.New(perr.ErrorCodeNotFound, "click not found for token")
	ErrLinkNotFound      = perr.New(perr.ErrorCodeNotFound, "link not found for click")
	ErrWorkspaceMismatch = perr.New(perr.ErrorCodeForbidden, "click belongs to another workspace")
)

// Failure is a soft attribution failure the caller records and acknowledges
type Failure struct {
	Reason Reason
	Token  string
	// Expected is the routed workspace, Actual the one owning the click or link
	Expected string
	Actual   string

	err error
}

// Error implements error
func (f *Failure) Error() string {
	if f.Reason == ReasonWorkspaceMismatch {
		return fmt.Sprintf("%v: expected %s got %s", f.err, f.Expected, f.Actual)
	}
	return f.err.Error()
}

// Unwrap exposes the sentinel
func (f *Failure) Unwrap() error { return f.err }

// HasToken reports whether a token was found in the payload
func (f *Failure) HasToken() bool { return f.Reason != ReasonNoToken }

// Security reports a cross-workspace replay
func (f *Failure) Security() bool { return f.Reason == ReasonWorkspaceMismatch }

// Fail builds a Failure for reason
func Fail(reason Reason, token string) *Failure {
	f := &Failure{Reason: reason, Token: token}
	switch reason {
	case ReasonNoToken:
		f.err = ErrNoToken
	case ReasonClickNotFound:
		f.err = ErrClickNotFound
	case ReasonLinkNotFound:
		f.err = ErrLinkNotFound
	default:
		f.err = ErrWorkspaceMismatch
	}
	return f
}

// Mismatch builds a workspace mismatch Failure
func Mismatch(token, expected, actual string) *Failure {
	f := Fail(ReasonWorkspaceMismatch, token)
	f.Expected, f.Actual = expected, actual
	return f
}

// AsFailure extracts a Failure from err
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if stderrs.As(err, &f) {
		return f, true
	}
	return nil, false
}
