// Package http provides http transport for webhooks
package http

import (
	"io"
	stdhttp "net/http"
	"strings"
	"time"

	"pimms/internal/modkit/httpkit"
	"pimms/internal/modkit/swaggerkit"
	perr "pimms/internal/platform/errors"
	"pimms/internal/services/api/webhooks/domain"
)

// MaxBody is the largest accepted webhook body
const MaxBody = 1 << 20

// Operations lists the routes for the api docs, paths include the module prefix
var Operations = []swaggerkit.Operation{
	{Method: stdhttp.MethodPost, Path: "/webhooks/{app}", Summary: "Ingest a webhook, workspace from the workspace_id query", Tag: "webhooks"},
	{Method: stdhttp.MethodPost, Path: "/webhooks/{app}/{workspaceID}", Summary: "Ingest a signed form or CRM webhook", Tag: "webhooks"},
}

// DocSignatureHeader adds the optional signature header to the webhook operations
func DocSignatureHeader(spec map[string]any) {
	paths, _ := spec["paths"].(map[string]any)
	for path, node := range paths {
		if !strings.HasPrefix(path, "/webhooks/") {
			continue
		}
		ops, _ := node.(map[string]any)
		for _, op := range ops {
			entry, ok := op.(map[string]any)
			if !ok {
				continue
			}
			params, _ := entry["parameters"].([]any)
			entry["parameters"] = append(params, map[string]any{
				"name":        "x-signature-256",
				"in":          "header",
				"description": "hex hmac-sha256 of the raw body, optionally prefixed sha256=",
				"schema":      map[string]any{"type": "string"},
			})
		}
	}
}

// Register mounts the router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s, now: time.Now}
	httpkit.Post(r, "/{app}", h.ingest)
	httpkit.Post(r, "/{app}/{workspaceID}", h.ingest)
}

type handlers struct {
	svc domain.ServicePort
	now func() time.Time
}

// swagger:route POST /webhooks/{app}/{workspaceID} Webhooks ingest
// @Summary Ingest a signed form or CRM webhook
// @Tags webhooks
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param app path string true "Source app" example(tally)
// @Param workspaceID path string false "Workspace id, or use the workspace_id query"
// @Param workspace_id query string false "Workspace id"
// @Param X-Signature-256 header string true "hex HMAC-SHA256 of the raw body"
// @Success 200 {object} domain.Outcome "ingested or not attributed"
// @Failure 400 {object} httpkit.Envelope "missing signature, workspace or bad body"
// @Failure 401 {object} httpkit.Envelope "signature mismatch"
// @Failure 503 {object} httpkit.Envelope "retry later"
// @Router /webhooks/{app}/{workspaceID} [post]
func (h *handlers) ingest(r *stdhttp.Request) (any, error) {
	ws := httpkit.ParamOrQuery(r, "workspaceID", "workspace_id")
	if ws == "" {
		return nil, perr.New(perr.ErrorCodeValidation, "workspace id is required")
	}
	raw, err := readBody(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Ingest(r.Context(), domain.Delivery{
		App:         httpkit.Param(r, "app"),
		WorkspaceID: ws,
		RawBody:     raw,
		Headers:     r.Header,
		ContentType: r.Header.Get("Content-Type"),
		ReceivedAt:  h.now().UTC(),
	})
}

// readBody reads the body exactly once through the size limit
func readBody(r *stdhttp.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(r.Body, MaxBody+1))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeValidation, "could not read webhook body")
	}
	if len(raw) > MaxBody {
		return nil, perr.New(perr.ErrorCodeValidation, "webhook body too large")
	}
	return raw, nil
}
