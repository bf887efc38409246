// Package resolver turns a raw resolution request into a redirect
// target while recording click analytics as a side effect.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/customslinks/customslinks/pkg/customslinks/geoip"
	"github.com/customslinks/customslinks/pkg/customslinks/models"
	"github.com/customslinks/customslinks/pkg/customslinks/store"
	"github.com/customslinks/customslinks/pkg/customslinks/useragent"
)

var (
	// ErrInvalidRequest is returned for malformed input: a missing
	// short code, or a domain-less lookup of a code that exists under
	// several domains.
	ErrInvalidRequest = errors.New("invalid resolution request")

	// ErrNotFound is returned when no active link matches. Links in
	// pending_payment or expired status produce the same error as
	// links that never existed.
	ErrNotFound = errors.New("link not found or not active")

	// ErrStoreUnavailable is returned when the link store cannot be
	// reached for the authoritative read or the click increment.
	// Callers may retry.
	ErrStoreUnavailable = errors.New("link store unavailable")
)

// Request is one inbound resolution request
type Request struct {
	ShortCode string
	Domain    string
	UserAgent string
	ClientIP  string
}

// Resolution is a successful outcome, ready for an HTTP redirect
type Resolution struct {
	DestinationURL string
	ClickCount     uint
}

// Resolver orchestrates lookup, enrichment, and click recording
type Resolver struct {
	links   store.LinkStore
	clicks  store.ClickRecorder
	locator geoip.Locator
	logger  *zap.Logger
	skipLog func(Request) bool
}

// Option configures a Resolver
type Option func(*Resolver)

// WithClickFilter installs a predicate that suppresses click recording
// (both the increment and the event) for matching requests, e.g. known
// bots. The redirect itself is unaffected.
func WithClickFilter(skip func(Request) bool) Option {
	return func(r *Resolver) {
		r.skipLog = skip
	}
}

// New creates a Resolver
func New(links store.LinkStore, clicks store.ClickRecorder, locator geoip.Locator, logger *zap.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		links:   links,
		clicks:  clicks,
		locator: locator,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve looks up the active link for req, records the visit, and
// returns the destination URL with the updated click count.
//
// Enrichment (user-agent classification, geolocation) and the click
// event append are best-effort: they degrade to sentinel values or a
// warning log line and never fail the redirect. Only failures that
// prevent determining the destination URL or incrementing the counter
// surface as errors.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Resolution, error) {
	if req.ShortCode == "" {
		return nil, fmt.Errorf("%w: short code is required", ErrInvalidRequest)
	}

	link, err := r.links.FindActiveByCode(ctx, req.ShortCode, req.Domain)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, store.ErrAmbiguousCode):
			return nil, fmt.Errorf("%w: code exists under multiple domains, domain is required", ErrInvalidRequest)
		default:
			r.logger.Error("resolver: link lookup failed",
				zap.String("short_code", req.ShortCode), zap.Error(err))
			return nil, ErrStoreUnavailable
		}
	}

	if r.skipLog != nil && r.skipLog(req) {
		return &Resolution{
			DestinationURL: link.OriginalURL,
			ClickCount:     link.ClickCount,
		}, nil
	}

	newCount, err := r.links.IncrementClickCount(ctx, link.ID)
	if err != nil {
		r.logger.Error("resolver: click increment failed",
			zap.Uint("link_id", link.ID), zap.Error(err))
		return nil, ErrStoreUnavailable
	}

	// The count increment is the load-bearing side effect; the event
	// row is telemetry. A failed append is logged, never surfaced.
	if err := r.clicks.Record(ctx, r.buildClick(ctx, link, req)); err != nil {
		r.logger.Warn("resolver: click event dropped",
			zap.Uint("link_id", link.ID),
			zap.Uint("click_count", newCount),
			zap.Error(err))
	}

	return &Resolution{
		DestinationURL: link.OriginalURL,
		ClickCount:     newCount,
	}, nil
}

func (r *Resolver) buildClick(ctx context.Context, link *models.Link, req Request) *models.LinkClick {
	cls := useragent.Classify(req.UserAgent)
	loc := r.locator.Lookup(ctx, req.ClientIP)

	ua := req.UserAgent
	if len(ua) > models.MaxUserAgentLength {
		ua = ua[:models.MaxUserAgentLength]
	}

	return &models.LinkClick{
		LinkID:     link.ID,
		IPAddress:  req.ClientIP,
		UserAgent:  ua,
		DeviceType: cls.DeviceType,
		Browser:    cls.Browser,
		OS:         cls.OS,
		Country:    loc.Country,
		Region:     loc.Region,
		City:       loc.City,
	}
}
