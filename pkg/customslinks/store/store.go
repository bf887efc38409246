// Package store provides link lookup and click persistence on top of
// the gorm database. The click counter is mutated only through the
// atomic increment here; callers never read-modify-write it.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/customslinks/customslinks/pkg/customslinks/models"
)

var (
	// ErrNotFound is returned when no active link matches a lookup.
	// Inactive links are deliberately indistinguishable from missing
	// ones so the link lifecycle does not leak to anonymous callers.
	ErrNotFound = errors.New("link not found")

	// ErrAmbiguousCode is returned when a domain-less lookup matches
	// active links under more than one domain.
	ErrAmbiguousCode = errors.New("short code is ambiguous without a domain")
)

// LinkStore is the lookup and mutation surface the resolver consumes
type LinkStore interface {
	FindActiveByCode(ctx context.Context, code, domain string) (*models.Link, error)
	IncrementClickCount(ctx context.Context, linkID uint) (uint, error)
}

// ClickRecorder appends immutable click events
type ClickRecorder interface {
	Record(ctx context.Context, click *models.LinkClick) error
}

// GormStore implements LinkStore and ClickRecorder on gorm
type GormStore struct {
	db *gorm.DB
}

// New creates a GormStore
func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// FindActiveByCode looks up an active link by short code, scoped to
// domain when one is given. A domain-less lookup is only valid when
// the code is unique across domains; otherwise ErrAmbiguousCode.
func (s *GormStore) FindActiveByCode(ctx context.Context, code, domain string) (*models.Link, error) {
	query := s.db.WithContext(ctx).
		Where("short_code = ? AND status = ?", code, models.StatusActive)
	if domain != "" {
		var link models.Link
		err := query.Where("custom_domain = ?", domain).First(&link).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("find link by code and domain: %w", err)
		}
		return &link, nil
	}

	var links []models.Link
	if err := query.Limit(2).Find(&links).Error; err != nil {
		return nil, fmt.Errorf("find link by code: %w", err)
	}
	switch len(links) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &links[0], nil
	default:
		return nil, ErrAmbiguousCode
	}
}

// IncrementClickCount atomically bumps the click counter for linkID
// and returns the new value. The increment happens in a single UPDATE
// with RETURNING, so concurrent callers against the same link each
// observe a distinct, sequential count.
func (s *GormStore) IncrementClickCount(ctx context.Context, linkID uint) (uint, error) {
	var link models.Link
	res := s.db.WithContext(ctx).
		Model(&link).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "click_count"}}}).
		Where("id = ?", linkID).
		UpdateColumn("click_count", gorm.Expr("click_count + ?", 1))
	if res.Error != nil {
		return 0, fmt.Errorf("increment click count: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	return link.ClickCount, nil
}

// Record appends one click event. Events are append-only; nothing in
// the codebase updates or deletes link_clicks rows.
func (s *GormStore) Record(ctx context.Context, click *models.LinkClick) error {
	if len(click.UserAgent) > models.MaxUserAgentLength {
		click.UserAgent = click.UserAgent[:models.MaxUserAgentLength]
	}
	if err := s.db.WithContext(ctx).Create(click).Error; err != nil {
		return fmt.Errorf("record click: %w", err)
	}
	return nil
}
