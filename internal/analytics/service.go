package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/feria-cr/feria-backend/pkg/errors"
)

const (
	defaultWindow   = 30 * 24 * time.Hour
	maxWindow       = 365 * 24 * time.Hour
	defaultTopLimit = 5
	maxTopLimit     = 20
)

type dashboardRepository interface {
	Summary(ctx context.Context, vendorID uuid.UUID, start, end time.Time) (*Summary, error)
	RevenueByDay(ctx context.Context, vendorID uuid.UUID, start, end time.Time) ([]TimeSeriesPoint, error)
	StatusBreakdown(ctx context.Context, vendorID uuid.UUID, start, end time.Time) ([]LabelValue, error)
	TopProducts(ctx context.Context, vendorID uuid.UUID, start, end time.Time, limit int) ([]LabelValue, error)
}

// Service provides the seller dashboard reports.
type Service interface {
	Summary(ctx context.Context, query DashboardQuery) (*Summary, error)
	RevenueByDay(ctx context.Context, query DashboardQuery) ([]TimeSeriesPoint, error)
	StatusBreakdown(ctx context.Context, query DashboardQuery) ([]LabelValue, error)
	TopProducts(ctx context.Context, query DashboardQuery, limit int) ([]LabelValue, error)
}

type service struct {
	repo dashboardRepository
	now  func() time.Time
}

// NewService builds an analytics service over the orders tables.
func NewService(repo dashboardRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("analytics repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Summary(ctx context.Context, query DashboardQuery) (*Summary, error) {
	query, err := s.normalize(query)
	if err != nil {
		return nil, err
	}
	summary, err := s.repo.Summary(ctx, query.VendorID, query.Start, query.End)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query summary")
	}
	return summary, nil
}

func (s *service) RevenueByDay(ctx context.Context, query DashboardQuery) ([]TimeSeriesPoint, error) {
	query, err := s.normalize(query)
	if err != nil {
		return nil, err
	}
	points, err := s.repo.RevenueByDay(ctx, query.VendorID, query.Start, query.End)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query revenue")
	}
	return points, nil
}

func (s *service) StatusBreakdown(ctx context.Context, query DashboardQuery) ([]LabelValue, error) {
	query, err := s.normalize(query)
	if err != nil {
		return nil, err
	}
	buckets, err := s.repo.StatusBreakdown(ctx, query.VendorID, query.Start, query.End)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query status breakdown")
	}
	return buckets, nil
}

func (s *service) TopProducts(ctx context.Context, query DashboardQuery, limit int) ([]LabelValue, error) {
	query, err := s.normalize(query)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultTopLimit
	}
	if limit > maxTopLimit {
		limit = maxTopLimit
	}
	rows, err := s.repo.TopProducts(ctx, query.VendorID, query.Start, query.End, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query top products")
	}
	return rows, nil
}

// normalize fills the window defaults and rejects inverted or oversized ranges.
func (s *service) normalize(query DashboardQuery) (DashboardQuery, error) {
	if query.VendorID == uuid.Nil {
		return query, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if query.End.IsZero() {
		query.End = s.now()
	}
	if query.Start.IsZero() {
		query.Start = query.End.Add(-defaultWindow)
	}
	if !query.Start.Before(query.End) {
		return query, pkgerrors.New(pkgerrors.CodeValidation, "start must be before end")
	}
	if query.End.Sub(query.Start) > maxWindow {
		return query, pkgerrors.New(pkgerrors.CodeValidation, "date range too large")
	}
	return query, nil
}
