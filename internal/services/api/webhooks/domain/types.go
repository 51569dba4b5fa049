// Package domain holds webhook ingestion types and contracts
package domain

import (
	"context"
	"net/http"
	"time"
)

// Delivery is one inbound webhook, the workspace is untrusted until verified
type Delivery struct {
	App         string
	WorkspaceID string
	RawBody     []byte
	Headers     http.Header
	ContentType string
	ReceivedAt  time.Time
}

// Status is the acknowledged result of a delivery
type Status string

const (
	// StatusIngested means the customer and event were written
	StatusIngested Status = "ingested"
	// StatusNotAttributed means the delivery was logged and dropped
	StatusNotAttributed Status = "not_attributed"
)

// Outcome is the response body for an acknowledged delivery
// soft failures carry no detail so another tenant learns nothing
type Outcome struct {
	Status     Status `json:"status" example:"ingested"`
	CustomerID string `json:"customer_id,omitempty" example:"cus_3f1c0c1e9a2b4d7c8e6f5a4b3c2d1e0f"`
	Result     string `json:"result,omitempty" example:"created"`
	Appended   int    `json:"appended,omitempty" example:"2"`
}

// WebhookError is an operator visible record of a failed ingestion
type WebhookError struct {
	ID           string    `json:"id"`
	WorkspaceID  string    `json:"workspace_id"`
	App          string    `json:"app"`
	HasPimmsID   bool      `json:"has_pimms_id"`
	PimmsID      string    `json:"pimms_id,omitempty"`
	FailedReason string    `json:"failed_reason"`
	ReasonCode   string    `json:"reason_code"`
	Security     bool      `json:"security"`
	Payload      []byte    `json:"-"`
	ReceivedAt   time.Time `json:"received_at"`
}

// ServicePort is the ingestion contract used by http and the cli
type ServicePort interface {
	Ingest(ctx context.Context, d Delivery) (Outcome, error)
}
