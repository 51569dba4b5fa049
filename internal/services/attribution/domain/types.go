// Package domain defines click attribution types, ports and failure taxonomy
package domain

import (
	"context"
	"time"
)

// Click is an immutable redirect click recorded by click tracking
type Click struct {
	Token       string    `json:"token"`
	LinkID      string    `json:"link_id"`
	WorkspaceID string    `json:"workspace_id"`
	AnonymousID string    `json:"anonymous_id,omitempty"`
	URL         string    `json:"url,omitempty"`
	Country     string    `json:"country,omitempty"`
	Device      string    `json:"device,omitempty"`
	Referer     string    `json:"referer,omitempty"`
	At          time.Time `json:"at"`
}

// Link is the tracked short link a click went through
type Link struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	Domain      string `json:"domain"`
	Key         string `json:"key"`
	URL         string `json:"url"`
}

// Attribution is a validated (click, link, workspace) triple
type Attribution struct {
	WorkspaceID string `json:"workspace_id"`
	Token       string `json:"token"`
	// TokenField is the payload path the token was read from
	TokenField string `json:"token_field"`
	Click      Click  `json:"click"`
	Link       Link   `json:"link"`
}

// ClickStore reads clicks
type ClickStore interface {
	ClickByToken(ctx context.Context, token string) (Click, error)
	ClicksByAnonymous(ctx context.Context, workspaceID, anonymousID string, since time.Time, limit int) ([]Click, error)
}

// LinkStore reads links
type LinkStore interface {
	LinkByID(ctx context.Context, id string) (Link, error)
}
