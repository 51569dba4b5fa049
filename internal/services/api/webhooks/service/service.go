// Package service ingests webhook deliveries
//
// A delivery is verified against the raw body, parsed with its app config,
// attributed to a click and link in the routed workspace, then merged into a
// customer. Attribution failures are logged to webhook_errors and
// acknowledged so senders stop retrying.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"

	"pimms/internal/core/appconfig"
	"pimms/internal/core/payload"
	"pimms/internal/core/signature"
	"pimms/internal/modkit/repokit"
	perr "pimms/internal/platform/errors"
	"pimms/internal/platform/logger"
	"pimms/internal/platform/metrics"
	cdom "pimms/internal/services/api/customers/domain"
	"pimms/internal/services/api/webhooks/domain"
	"pimms/internal/services/api/webhooks/guardrails"
	"pimms/internal/services/api/webhooks/repo"
	attrdom "pimms/internal/services/attribution/domain"
	attrsvc "pimms/internal/services/attribution/service"
)

// Service defines the webhooks service contract
type Service interface {
	domain.ServicePort
}

// Config tunes ingestion
type Config struct {
	Apps     appconfig.Table
	Timeouts guardrails.Timeouts
}

// Svc implements the webhooks service
type Svc struct {
	errs      repo.Repo
	attr      attrsvc.Service
	customers cdom.ServicePort
	metrics   *metrics.Metrics

	apps     appconfig.Table
	timeouts guardrails.Timeouts
	now      func() time.Time
}

// New constructs a webhooks service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], attr attrsvc.Service, customers cdom.ServicePort, m *metrics.Metrics, cfg Config) *Svc {
	if db == nil {
		panic("webhooks.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("webhooks.Service requires a non nil Repo binder")
	}
	if attr == nil {
		panic("webhooks.Service requires an attribution service")
	}
	if customers == nil {
		panic("webhooks.Service requires a customers port")
	}
	if cfg.Apps == nil {
		cfg.Apps = appconfig.Builtin()
	}
	return &Svc{
		errs:      binder.Bind(db),
		attr:      attr,
		customers: customers,
		metrics:   m,
		apps:      cfg.Apps,
		timeouts:  cfg.Timeouts,
		now:       time.Now,
	}
}

// Ingest runs one delivery end to end
func (s *Svc) Ingest(ctx context.Context, d domain.Delivery) (domain.Outcome, error) {
	start := s.now()
	app := strings.ToLower(strings.TrimSpace(d.App))
	ws := strings.TrimSpace(d.WorkspaceID)
	if d.ReceivedAt.IsZero() {
		d.ReceivedAt = start.UTC()
	}

	out, err := s.ingest(ctx, app, ws, d)
	result := string(out.Status)
	if err != nil {
		result = resultOf(err)
	}
	s.metrics.Webhook(app, result, s.now().Sub(start).Seconds())
	return out, err
}

func (s *Svc) ingest(ctx context.Context, app, ws string, d domain.Delivery) (domain.Outcome, error) {
	if ws == "" {
		return domain.Outcome{}, perr.New(perr.ErrorCodeValidation, "workspace id is required")
	}
	ctx, cancel := guardrails.WithIngest(logger.WithRequest(ctx, "", ws), s.timeouts)
	defer cancel()
	log := logger.C(ctx)

	cfg, known := s.apps.Resolve(app)
	if !known {
		log.Warn().Str("app", app).Msg("unknown webhook app, using default config")
		s.metrics.AppFallback(app)
	}

	header := cfg.SignatureHeader
	if header == "" {
		header = signature.DefaultHeader
	}
	if err := signature.Verify(d.RawBody, d.Headers.Get(header), signature.SecretFor(ws)); err != nil {
		log.Debug().Err(err).Str("app", app).Msg("webhook signature rejected")
		return domain.Outcome{}, err
	}

	p, err := payload.Parse(d.RawBody, d.ContentType, cfg.Format)
	if err != nil {
		return domain.Outcome{}, err
	}

	att, err := s.attr.Resolve(ctx, ws, p, cfg)
	if err != nil {
		if f, ok := attrdom.AsFailure(err); ok {
			s.audit(ctx, app, ws, d, f)
			return domain.Outcome{Status: domain.StatusNotAttributed}, nil
		}
		return domain.Outcome{}, transient(ctx, err)
	}

	in := s.upsertInput(app, ws, d, p, cfg, att)
	sctx, scancel := guardrails.ForStore(ctx, s.timeouts)
	defer scancel()
	res, err := s.customers.Upsert(sctx, in)
	if err != nil {
		log.Error().Err(err).Str("app", app).Msg("customer upsert failed")
		return domain.Outcome{}, transient(sctx, err)
	}

	log.Info().
		Str("app", app).
		Str("customer_id", res.Customer.ID).
		Str("result", string(res.Outcome)).
		Int("appended", res.Appended).
		Msg("webhook ingested")
	return domain.Outcome{
		Status:     domain.StatusIngested,
		CustomerID: res.Customer.ID,
		Result:     string(res.Outcome),
		Appended:   res.Appended,
	}, nil
}

func (s *Svc) upsertInput(app, ws string, d domain.Delivery, p *payload.Payload, cfg appconfig.Config, att attrdom.Attribution) cdom.UpsertInput {
	ex := Extract(p, cfg)
	if ex.Identity.AnonymousID == "" {
		ex.Identity.AnonymousID = att.Click.AnonymousID
	}
	if ex.Identity.ExternalID == "" && ex.Identity.AnonymousID == "" {
		// the click token is the only stable handle left
		ex.Identity.AnonymousID = att.Token
	}
	return cdom.UpsertInput{
		WorkspaceID: ws,
		Identity:    ex.Identity,
		Fields:      ex.Fields,
		Touch: cdom.Touch{
			LinkID:    att.Link.ID,
			ClickID:   att.Click.Token,
			ClickedAt: att.Click.At,
		},
		Event: &cdom.Event{
			Kind:       ex.Kind,
			Name:       ex.EventName,
			Amount:     ex.Amount,
			Currency:   ex.Currency,
			OccurredAt: d.ReceivedAt,
			DedupeKey:  DedupeKey(app, ws, d.RawBody),
		},
	}
}

// audit records a soft attribution failure, the write never fails the delivery
func (s *Svc) audit(ctx context.Context, app, ws string, d domain.Delivery, f *attrdom.Failure) {
	s.metrics.AttributionFailure(string(f.Reason))
	log := logger.C(ctx)
	if f.Security() {
		log.Warn().
			Str("app", app).
			Str("routed_workspace", f.Expected).
			Str("click_workspace", f.Actual).
			Str("pimms_id", f.Token).
			Msg("cross workspace attribution attempt")
	} else {
		log.Info().Str("app", app).Str("reason", string(f.Reason)).Msg("webhook not attributed")
	}

	actx, cancel := guardrails.ForAudit(ctx, s.timeouts)
	defer cancel()
	err := s.errs.Insert(actx, domain.WebhookError{
		ID:           uuid.NewString(),
		WorkspaceID:  ws,
		App:          app,
		HasPimmsID:   f.HasToken(),
		PimmsID:      f.Token,
		FailedReason: f.Error(),
		ReasonCode:   string(f.Reason),
		Security:     f.Security(),
		Payload:      d.RawBody,
		ReceivedAt:   d.ReceivedAt,
	})
	if err != nil {
		log.Error().Err(err).Str("reason", string(f.Reason)).Msg("webhook error log write failed")
	}
}

// DedupeKey folds redeliveries of the same body into one event
func DedupeKey(app, workspaceID string, raw []byte) string {
	h := sha256.New()
	h.Write([]byte(app))
	h.Write([]byte{'|'})
	h.Write([]byte(workspaceID))
	h.Write([]byte{'|'})
	h.Write(raw)
	return "wh:" + hex.EncodeToString(h.Sum(nil))
}

// transient maps an expired budget to a retryable error
func transient(ctx context.Context, err error) error {
	if ctx.Err() != nil && !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "webhook ingestion timed out")
	}
	return err
}

func resultOf(err error) string {
	switch perr.CodeOf(err) {
	case perr.ErrorCodeValidation, perr.ErrorCodeJSON, perr.ErrorCodeInvalidArgument:
		return "bad_request"
	case perr.ErrorCodeUnauthorized:
		return "unauthorized"
	case perr.ErrorCodeUnavailable:
		return "unavailable"
	default:
		return "error"
	}
}
