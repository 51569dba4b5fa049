// Package service contains the customer identity workflows
//
// Upsert merges in three single-statement steps: update by external id,
// promote the anonymous record, insert or merge on the unique index. A unique
// violation from a concurrent delivery is retried once by fetching the winner
// and patching it.
package service

import (
	"context"
	stderrs "errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pimms/internal/core/hotscore"
	"pimms/internal/core/normalize"
	"pimms/internal/modkit/repokit"
	perr "pimms/internal/platform/errors"
	"pimms/internal/platform/logger"
	"pimms/internal/platform/metrics"
	"pimms/internal/platform/net/http/bind"
	"pimms/internal/services/api/customers/domain"
	"pimms/internal/services/api/customers/repo"
	hsdom "pimms/internal/services/hotscore/domain"
)

// Service defines the customers service contract
type Service interface {
	domain.ServicePort
}

// Config tunes side effects
type Config struct {
	// EnqueueTimeout bounds the detached recompute enqueue
	EnqueueTimeout time.Duration
}

// Svc implements the customers service
type Svc struct {
	Repo repo.Repo

	enq     hsdom.EnqueuePort
	metrics *metrics.Metrics
	cfg     Config

	pending sync.WaitGroup
	newID   func() string
	now     func() time.Time
}

// New constructs a customers service, enq may be nil to skip recomputes
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], enq hsdom.EnqueuePort, m *metrics.Metrics, cfg Config) *Svc {
	if db == nil {
		panic("customers.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("customers.Service requires a non nil Repo binder")
	}
	if cfg.EnqueueTimeout <= 0 {
		cfg.EnqueueTimeout = 10 * time.Second
	}
	return &Svc{
		Repo:    binder.Bind(db),
		enq:     enq,
		metrics: m,
		cfg:     cfg,
		newID:   NewCustomerID,
		now:     time.Now,
	}
}

// NewCustomerID returns a fresh customer id
func NewCustomerID() string {
	return "cus_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Upsert merges the identity, appends the event and triggers a recompute
func (s *Svc) Upsert(ctx context.Context, in domain.UpsertInput) (domain.UpsertResult, error) {
	in, err := clean(in)
	if err != nil {
		return domain.UpsertResult{}, err
	}
	p := patchOf(in)

	c, outcome, err := s.merge(ctx, in.WorkspaceID, p)
	if err != nil && perr.IsDuplicateKey(err) {
		s.metrics.IdentityRetry()
		logger.C(ctx).Debug().Err(err).Msg("identity conflict, retrying as fetch then update")
		c, outcome, err = s.fetchThenUpdate(ctx, in.WorkspaceID, p)
	}
	if err != nil {
		s.metrics.Upsert("error")
		if perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
			return domain.UpsertResult{}, err
		}
		return domain.UpsertResult{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "customer store unavailable")
	}
	s.metrics.Upsert(string(outcome))

	appended, err := s.appendEvents(ctx, c, in)
	if err != nil {
		return domain.UpsertResult{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "customer event store unavailable")
	}

	s.triggerRecompute(ctx, c.WorkspaceID, c.ID)
	return domain.UpsertResult{Customer: c, Outcome: outcome, Appended: appended}, nil
}

func (s *Svc) merge(ctx context.Context, workspaceID string, p repo.Patch) (domain.Customer, domain.Outcome, error) {
	if p.ExternalID != "" {
		c, ok, err := s.Repo.UpdateByExternal(ctx, workspaceID, p)
		if err != nil || ok {
			return c, domain.OutcomeUpdated, err
		}
		if p.AnonymousID != "" {
			c, ok, err := s.Repo.Promote(ctx, workspaceID, p)
			if err != nil || ok {
				return c, domain.OutcomePromoted, err
			}
		}
	}

	id := s.newID()
	c, inserted, err := s.Repo.Insert(ctx, workspaceID, id, domain.PlaceholderAvatar(id, p.Name, p.Email), p)
	if err != nil {
		return c, "", err
	}
	if inserted {
		return c, domain.OutcomeCreated, nil
	}
	return c, domain.OutcomeUpdated, nil
}

// fetchThenUpdate patches whichever record won the race
func (s *Svc) fetchThenUpdate(ctx context.Context, workspaceID string, p repo.Patch) (domain.Customer, domain.Outcome, error) {
	var (
		c   domain.Customer
		err = perr.ErrNotFound
	)
	if p.ExternalID != "" {
		c, err = s.Repo.FindByExternal(ctx, workspaceID, p.ExternalID)
	}
	if stderrs.Is(err, perr.ErrNotFound) && p.AnonymousID != "" {
		c, err = s.Repo.FindByAnonymous(ctx, workspaceID, p.AnonymousID)
	}
	if err != nil {
		return domain.Customer{}, "", err
	}
	if p.ExternalID != "" && c.ExternalID != "" && c.ExternalID != p.ExternalID {
		return s.splitIdentity(ctx, workspaceID, c, p)
	}
	updated, err := s.Repo.UpdateByID(ctx, workspaceID, c.ID, p)
	if err != nil {
		return domain.Customer{}, "", err
	}
	return updated, domain.OutcomeUpdated, nil
}

// splitIdentity handles an anonymous id already promoted to another person
// the visitor stays with its owner and the incoming external id gets its own record
func (s *Svc) splitIdentity(ctx context.Context, workspaceID string, owner domain.Customer, p repo.Patch) (domain.Customer, domain.Outcome, error) {
	s.metrics.IdentityConflict()
	logger.C(ctx).Warn().
		Str("anonymous_id", p.AnonymousID).
		Str("owner_customer_id", owner.ID).
		Str("owner_external_id", owner.ExternalID).
		Str("external_id", p.ExternalID).
		Msg("anonymous id belongs to another customer, keeping identities apart")

	p.AnonymousID = ""
	id := s.newID()
	c, inserted, err := s.Repo.Insert(ctx, workspaceID, id, domain.PlaceholderAvatar(id, p.Name, p.Email), p)
	if err != nil {
		return domain.Customer{}, "", err
	}
	if inserted {
		return c, domain.OutcomeCreated, nil
	}
	return c, domain.OutcomeUpdated, nil
}

// appendEvents records the attributed click and the webhook event
func (s *Svc) appendEvents(ctx context.Context, c domain.Customer, in domain.UpsertInput) (int, error) {
	var rows []repo.EventRow
	if in.Touch.ClickID != "" {
		at := in.Touch.ClickedAt
		if at.IsZero() {
			at = s.now()
		}
		rows = append(rows, repo.EventRow{
			Kind:       string(hotscore.KindClick),
			LinkID:     in.Touch.LinkID,
			ClickID:    in.Touch.ClickID,
			OccurredAt: at,
			DedupeKey:  "click:" + in.WorkspaceID + ":" + in.Touch.ClickID,
		})
	}
	if e := in.Event; e != nil {
		at := e.OccurredAt
		if at.IsZero() {
			at = s.now()
		}
		key := e.DedupeKey
		if key == "" {
			key = string(e.Kind) + ":" + c.ID + ":" + at.UTC().Format(time.RFC3339Nano)
		}
		rows = append(rows, repo.EventRow{
			Kind:       string(e.Kind),
			Name:       e.Name,
			Amount:     e.Amount,
			Currency:   e.Currency,
			LinkID:     in.Touch.LinkID,
			ClickID:    in.Touch.ClickID,
			OccurredAt: at,
			DedupeKey:  key,
		})
	}

	appended := 0
	for _, r := range rows {
		r.ID = "evt_" + strings.ReplaceAll(uuid.NewString(), "-", "")
		r.CustomerID = c.ID
		r.WorkspaceID = c.WorkspaceID
		ok, err := s.Repo.AppendEvent(ctx, r)
		if err != nil {
			return appended, err
		}
		if ok {
			appended++
		}
	}
	return appended, nil
}

// triggerRecompute enqueues without blocking the caller
// the enqueue runs on a detached context with its own timeout
func (s *Svc) triggerRecompute(ctx context.Context, workspaceID, customerID string) {
	if s.enq == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(detached, s.cfg.EnqueueTimeout)
		defer cancel()
		if err := s.enq.EnqueueRecompute(ctx, workspaceID, customerID); err != nil {
			logger.C(ctx).Warn().Err(err).Str("customer_id", customerID).Msg("recompute enqueue failed")
		}
	}()
}

// Drain waits for pending recompute enqueues or until ctx ends
func (s *Svc) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get returns a customer by id
func (s *Svc) Get(ctx context.Context, workspaceID, customerID string) (domain.Customer, error) {
	if workspaceID == "" || customerID == "" {
		return domain.Customer{}, perr.InvalidArgf("workspace and customer ids are required")
	}
	c, err := s.Repo.Get(ctx, workspaceID, customerID)
	if err != nil {
		if stderrs.Is(err, perr.ErrNotFound) {
			return domain.Customer{}, perr.NotFoundf("customer %s not found", customerID)
		}
		return domain.Customer{}, perr.FromPostgres(err, "load customer")
	}
	return c, nil
}

// HotScore returns the stored score and its explanation
func (s *Svc) HotScore(ctx context.Context, workspaceID, customerID string) (domain.HotScoreView, error) {
	c, err := s.Get(ctx, workspaceID, customerID)
	if err != nil {
		return domain.HotScoreView{}, err
	}
	v := domain.HotScoreView{
		WorkspaceID:    c.WorkspaceID,
		CustomerID:     c.ID,
		Score:          c.HotScore,
		Tier:           c.HotTier,
		TierLabel:      c.HotTier.String(),
		IsHot:          c.HotTier >= hotscore.TierHot,
		Reasons:        c.HotReasons,
		HotWindows:     c.HotWindows,
		LastHotScoreAt: c.LastHotScoreAt,
	}
	if v.Reasons == nil {
		v.Reasons = []string{}
	}
	if v.HotWindows == nil {
		v.HotWindows = []hotscore.Window{}
	}
	return v, nil
}

// clean normalizes contact fields and checks identity
func clean(in domain.UpsertInput) (domain.UpsertInput, error) {
	in.WorkspaceID = strings.TrimSpace(in.WorkspaceID)
	in.Identity.ExternalID = strings.TrimSpace(in.Identity.ExternalID)
	in.Identity.AnonymousID = strings.TrimSpace(in.Identity.AnonymousID)
	if err := bind.Struct(in); err != nil {
		return in, err
	}
	if in.Identity.ExternalID == "" && in.Identity.AnonymousID == "" {
		return in, perr.InvalidArgf("customer needs an external or anonymous id")
	}

	in.Fields.Name = normalize.Name(in.Fields.Name)
	in.Fields.Email = normalize.Email(in.Fields.Email)
	if in.Fields.Email != "" && !bind.Valid(in.Fields.Email, "email") {
		in.Fields.Email = ""
	}
	in.Fields.Avatar = strings.TrimSpace(in.Fields.Avatar)
	if in.Fields.Avatar != "" && !bind.Valid(in.Fields.Avatar, "http_url") {
		in.Fields.Avatar = ""
	}

	if e := in.Event; e != nil && !e.Kind.Valid() {
		return in, perr.InvalidArgf("unknown event kind %q", e.Kind)
	}
	return in, nil
}

func patchOf(in domain.UpsertInput) repo.Patch {
	return repo.Patch{
		ExternalID:  in.Identity.ExternalID,
		AnonymousID: in.Identity.AnonymousID,
		Name:        in.Fields.Name,
		Email:       in.Fields.Email,
		Avatar:      in.Fields.Avatar,
		LinkID:      in.Touch.LinkID,
		ClickID:     in.Touch.ClickID,
	}
}
