package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"pharmacy/m/domain"
)

// DashboardStats aggregates catalog and sales figures in a single statement so
// every number comes from the same snapshot.
func (s *Store) DashboardStats(ctx context.Context, q Queryer, lowStockThreshold int64) (domain.DashboardStats, error) {
	var stats domain.DashboardStats
	err := sqlx.GetContext(ctx, q, &stats, q.Rebind(`SELECT
                (SELECT COUNT(*) FROM medicines) AS medicine_count,
                (SELECT COUNT(*) FROM suppliers) AS supplier_count,
                (SELECT COALESCE(SUM(total_amount), 0) FROM sales) AS total_sales_amount,
                (SELECT COUNT(*) FROM medicines WHERE stock_qty <= ?) AS low_stock_count`), lowStockThreshold)
	if err != nil {
		return domain.DashboardStats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	return stats, nil
}
