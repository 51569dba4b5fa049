// Package service resolves webhook payloads to attributed clicks
package service

import (
	"context"
	stderrs "errors"

	"pimms/internal/core/appconfig"
	"pimms/internal/core/payload"
	perr "pimms/internal/platform/errors"
	"pimms/internal/services/attribution/domain"
)

// Service is the attribution contract
type Service interface {
	Resolve(ctx context.Context, workspaceID string, p *payload.Payload, cfg appconfig.Config) (domain.Attribution, error)
}

// Svc implements Service over a click store and a link store
type Svc struct {
	clicks domain.ClickStore
	links  domain.LinkStore
}

// New constructs the attribution service
func New(clicks domain.ClickStore, links domain.LinkStore) *Svc {
	if clicks == nil {
		panic("attribution.Service requires a non nil ClickStore")
	}
	if links == nil {
		panic("attribution.Service requires a non nil LinkStore")
	}
	return &Svc{clicks: clicks, links: links}
}

// Resolve finds the token in p, loads its click and link and checks both
// belong to workspaceID
// soft failures are *domain.Failure, anything else is a store error
func (s *Svc) Resolve(ctx context.Context, workspaceID string, p *payload.Payload, cfg appconfig.Config) (domain.Attribution, error) {
	token, field, ok := p.First(cfg.TokenFields)
	if !ok {
		return domain.Attribution{}, domain.Fail(domain.ReasonNoToken, "")
	}

	click, err := s.clicks.ClickByToken(ctx, token)
	if err != nil {
		if stderrs.Is(err, perr.ErrNotFound) {
			return domain.Attribution{}, domain.Fail(domain.ReasonClickNotFound, token)
		}
		return domain.Attribution{}, err
	}

	link, err := s.links.LinkByID(ctx, click.LinkID)
	if err != nil {
		if stderrs.Is(err, perr.ErrNotFound) {
			return domain.Attribution{}, domain.Fail(domain.ReasonLinkNotFound, token)
		}
		return domain.Attribution{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "link lookup failed")
	}

	if link.WorkspaceID != workspaceID {
		return domain.Attribution{}, domain.Mismatch(token, workspaceID, link.WorkspaceID)
	}
	if click.WorkspaceID != "" && click.WorkspaceID != workspaceID {
		return domain.Attribution{}, domain.Mismatch(token, workspaceID, click.WorkspaceID)
	}

	return domain.Attribution{
		WorkspaceID: workspaceID,
		Token:       token,
		TokenField:  field,
		Click:       click,
		Link:        link,
	}, nil
}
