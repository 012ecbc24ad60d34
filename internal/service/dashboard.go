package service

import (
	"context"

	"pharmacy/m/domain"
)

// DashboardStats reads committed totals. It never writes.
func (s *Service) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	stats, err := s.store.DashboardStats(ctx, s.store.DB(), domain.LowStockThreshold)
	if err != nil {
		return domain.DashboardStats{}, internal("unable to load dashboard stats", err)
	}
	stats.TotalSalesAmount = domain.RoundMoney(stats.TotalSalesAmount)
	return stats, nil
}
