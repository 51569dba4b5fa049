// Package domain holds customer identity types and service contracts
package domain

import (
	"context"
	"time"

	"pimms/internal/core/hotscore"
)

// Identity keys a customer inside a workspace, at least one is set
type Identity struct {
	ExternalID  string `json:"external_id,omitempty" validate:"omitempty,max=256"`
	AnonymousID string `json:"anonymous_id,omitempty" validate:"omitempty,max=256"`
}

// Fields are the mutable contact fields
type Fields struct {
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// Touch is the attributed click and link for this upsert
type Touch struct {
	LinkID    string    `json:"link_id,omitempty"`
	ClickID   string    `json:"click_id,omitempty"`
	ClickedAt time.Time `json:"clicked_at,omitempty"`
}

// Event is the lead or sale carried by the webhook
type Event struct {
	Kind       hotscore.Kind `json:"kind"`
	Name       string        `json:"name,omitempty"`
	Amount     int64         `json:"amount,omitempty"`
	Currency   string        `json:"currency,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
	// DedupeKey folds repeated deliveries of the same webhook
	DedupeKey string `json:"dedupe_key"`
}

// UpsertInput is one identity upsert plus its event
type UpsertInput struct {
	WorkspaceID string `json:"workspace_id" validate:"required,ident"`
	Identity    Identity
	Fields      Fields
	Touch       Touch
	Event       *Event
}

// Customer is the durable identity record
type Customer struct {
	ID             string            `json:"id" example:"cus_3f1c0c1e9a2b4d7c8e6f5a4b3c2d1e0f"`
	WorkspaceID    string            `json:"workspace_id" example:"ws_123"`
	ExternalID     string            `json:"external_id,omitempty"`
	AnonymousID    string            `json:"anonymous_id,omitempty"`
	Name           string            `json:"name,omitempty"`
	Email          string            `json:"email,omitempty"`
	Avatar         string            `json:"avatar,omitempty"`
	LinkID         string            `json:"link_id,omitempty"`
	ClickID        string            `json:"click_id,omitempty"`
	LastLinkID     string            `json:"last_link_id,omitempty"`
	LastClickID    string            `json:"last_click_id,omitempty"`
	HotScore       float64           `json:"hot_score"`
	HotTier        hotscore.Tier     `json:"hot_tier"`
	HotReasons     []string          `json:"hot_reasons"`
	HotWindows     []hotscore.Window `json:"hot_windows"`
	LastHotScoreAt *time.Time        `json:"last_hot_score_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Outcome says which merge step handled an upsert
type Outcome string

const (
	// OutcomeCreated is a new record
	OutcomeCreated Outcome = "created"
	// OutcomeUpdated matched an existing record
	OutcomeUpdated Outcome = "updated"
	// OutcomePromoted attached an external id to an anonymous record
	OutcomePromoted Outcome = "promoted"
)

// UpsertResult is the record after the upsert
type UpsertResult struct {
	Customer Customer `json:"customer"`
	Outcome  Outcome  `json:"outcome"`
	// Appended counts events that were new, duplicates are folded
	Appended int `json:"appended"`
}

// HotScoreView is the stored score with its explanation
type HotScoreView struct {
	WorkspaceID    string            `json:"workspace_id" example:"ws_123"`
	CustomerID     string            `json:"customer_id" example:"cus_3f1c0c1e9a2b4d7c8e6f5a4b3c2d1e0f"`
	Score          float64           `json:"score" example:"74.9"`
	Tier           hotscore.Tier     `json:"tier" example:"2"`
	TierLabel      string            `json:"tier_label" example:"hot"`
	IsHot          bool              `json:"is_hot" example:"true"`
	Reasons        []string          `json:"reasons"`
	HotWindows     []hotscore.Window `json:"hot_windows"`
	LastHotScoreAt *time.Time        `json:"last_hot_score_at,omitempty"`
}

// ServicePort is the customers contract used by webhooks and http
type ServicePort interface {
	Upsert(ctx context.Context, in UpsertInput) (UpsertResult, error)
	Get(ctx context.Context, workspaceID, customerID string) (Customer, error)
	HotScore(ctx context.Context, workspaceID, customerID string) (HotScoreView, error)
}
