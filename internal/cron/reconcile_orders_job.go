package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/feria-cr/feria-backend/internal/orders"
	"github.com/feria-cr/feria-backend/pkg/logger"
)

const (
	defaultReconcileLookback = 30 * 24 * time.Hour
	reconcileBatchSize       = 200
)

// ReconcileOrdersJobParams configure the parent-status sweep.
type ReconcileOrdersJobParams struct {
	Logger   *logger.Logger
	Parents  staleParentFinder
	Orders   parentReconciler
	Lookback time.Duration
}

type staleParentFinder interface {
	FindParentsUpdatedSince(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
}

type parentReconciler interface {
	ReconcileParent(ctx context.Context, buyerOrderID uuid.UUID) (*orders.ReconcileResult, error)
}

// NewReconcileOrdersJob builds the job that re-derives parent statuses from
// their sub-orders. The fan-out path reconciles inline; this sweep catches
// parents a crashed worker left stale.
func NewReconcileOrdersJob(params ReconcileOrdersJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Parents == nil {
		return nil, fmt.Errorf("parent finder required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	lookback := params.Lookback
	if lookback <= 0 {
		lookback = defaultReconcileLookback
	}
	return &reconcileOrdersJob{
		logg:     params.Logger,
		parents:  params.Parents,
		orders:   params.Orders,
		lookback: lookback,
		now:      time.Now,
	}, nil
}

type reconcileOrdersJob struct {
	logg     *logger.Logger
	parents  staleParentFinder
	orders   parentReconciler
	lookback time.Duration
	now      func() time.Time
}

func (j *reconcileOrdersJob) Name() string { return "reconcile-orders" }

func (j *reconcileOrdersJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.lookback)
	parentIDs, err := j.parents.FindParentsUpdatedSince(ctx, cutoff, reconcileBatchSize)
	if err != nil {
		return fmt.Errorf("list stale parents: %w", err)
	}

	var errs error
	changed := 0
	for _, parentID := range parentIDs {
		result, reconcileErr := j.orders.ReconcileParent(ctx, parentID)
		if reconcileErr != nil {
			errs = multierr.Append(errs, fmt.Errorf("reconcile %s: %w", parentID, reconcileErr))
			continue
		}
		if result != nil && result.Changed {
			changed++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"scanned": len(parentIDs),
		"changed": changed,
	})
	j.logg.Info(logCtx, "parent reconciliation sweep complete")
	return errs
}
