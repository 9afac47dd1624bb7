package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/feria-cr/feria-backend/pkg/errors"
)

type capturedWindow struct {
	start time.Time
	end   time.Time
	limit int
}

type stubDashboardRepo struct {
	captured capturedWindow
}

func (s *stubDashboardRepo) Summary(_ context.Context, _ uuid.UUID, start, end time.Time) (*Summary, error) {
	s.captured = capturedWindow{start: start, end: end}
	return &Summary{}, nil
}

func (s *stubDashboardRepo) RevenueByDay(_ context.Context, _ uuid.UUID, start, end time.Time) ([]TimeSeriesPoint, error) {
	s.captured = capturedWindow{start: start, end: end}
	return nil, nil
}

func (s *stubDashboardRepo) StatusBreakdown(_ context.Context, _ uuid.UUID, start, end time.Time) ([]LabelValue, error) {
	s.captured = capturedWindow{start: start, end: end}
	return nil, nil
}

func (s *stubDashboardRepo) TopProducts(_ context.Context, _ uuid.UUID, start, end time.Time, limit int) ([]LabelValue, error) {
	s.captured = capturedWindow{start: start, end: end, limit: limit}
	return nil, nil
}

func newAnalyticsTestService(t *testing.T, now time.Time) (*service, *stubDashboardRepo) {
	t.Helper()
	repo := &stubDashboardRepo{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	impl := svc.(*service)
	impl.now = func() time.Time { return now }
	return impl, repo
}

func TestSummaryDefaultsWindowToLast30Days(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	svc, repo := newAnalyticsTestService(t, now)

	_, err := svc.Summary(context.Background(), DashboardQuery{VendorID: uuid.New()})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if !repo.captured.end.Equal(now) {
		t.Fatalf("expected end=now, got %v", repo.captured.end)
	}
	if want := now.Add(-30 * 24 * time.Hour); !repo.captured.start.Equal(want) {
		t.Fatalf("expected start=%v, got %v", want, repo.captured.start)
	}
}

func TestQueryRejectsInvalidWindows(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newAnalyticsTestService(t, now)
	vendorID := uuid.New()

	cases := []struct {
		name  string
		query DashboardQuery
	}{
		{"missing vendor", DashboardQuery{}},
		{"inverted range", DashboardQuery{VendorID: vendorID, Start: now, End: now.Add(-time.Hour)}},
		{"oversized range", DashboardQuery{VendorID: vendorID, Start: now.Add(-400 * 24 * time.Hour), End: now}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RevenueByDay(context.Background(), tc.query)
			if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestTopProductsClampsLimit(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	svc, repo := newAnalyticsTestService(t, now)
	vendorID := uuid.New()

	if _, err := svc.TopProducts(context.Background(), DashboardQuery{VendorID: vendorID}, 0); err != nil {
		t.Fatalf("TopProducts: %v", err)
	}
	if repo.captured.limit != defaultTopLimit {
		t.Fatalf("expected default limit %d, got %d", defaultTopLimit, repo.captured.limit)
	}

	if _, err := svc.TopProducts(context.Background(), DashboardQuery{VendorID: vendorID}, 500); err != nil {
		t.Fatalf("TopProducts: %v", err)
	}
	if repo.captured.limit != maxTopLimit {
		t.Fatalf("expected clamped limit %d, got %d", maxTopLimit, repo.captured.limit)
	}
}
