package service

import (
	"context"
	"time"

	earningserrors "gatherly/internal/earnings/errors"
	"gatherly/internal/earnings/repository"
	"gatherly/pkg/config"
	apperrors "gatherly/pkg/errors"
	"gatherly/pkg/model"
)

type EarningsService interface {
	GetHostEarnings(ctx context.Context, actor model.Actor, hostID string, from, to *time.Time) (*model.Earnings, error)
}

type earningsService struct {
	repo repository.EarningsRepository
	cfg  *config.Config
}

func NewEarningsService(repo repository.EarningsRepository, cfg *config.Config) EarningsService {
	return &earningsService{
		repo: repo,
		cfg:  cfg,
	}
}

// GetHostEarnings sums paid, uncancelled bookings of the host created in
// [from, to). Refunds are reported separately and subtracted from the net.
func (s *earningsService) GetHostEarnings(ctx context.Context, actor model.Actor, hostID string, from, to *time.Time) (*model.Earnings, error) {
	if hostID == "" {
		return nil, apperrors.InvalidInput("host id is required")
	}
	if actor.ID != hostID && !actor.IsAdmin() {
		return nil, earningserrors.AccessDenied()
	}
	if from != nil && to != nil && !from.Before(*to) {
		return nil, earningserrors.InvalidRange()
	}

	totals, err := s.repo.HostTotals(ctx, hostID, repository.Range{From: from, To: to})
	if err != nil {
		s.cfg.Log.Error("Failed to aggregate host earnings",
			"host_id", hostID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to compute earnings", err)
	}

	earnings := &model.Earnings{
		HostID:        hostID,
		From:          from,
		To:            to,
		TotalRevenue:  totals.Revenue,
		TotalRefunds:  totals.Refunds,
		NetEarnings:   totals.Revenue - totals.Refunds,
		TotalBookings: totals.Bookings,
	}
	if totals.Bookings > 0 {
		earnings.AverageBookingValue = float64(totals.Revenue) / float64(totals.Bookings)
	}
	return earnings, nil
}
