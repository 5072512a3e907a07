package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mindspend/mindspend-api/models"
	"github.com/mindspend/mindspend-api/store"
)

type StatsService struct {
	store store.Store
}

func NewStatsService(st store.Store) *StatsService {
	return &StatsService{store: st}
}

// Stats runs the three aggregate queries concurrently.
func (s *StatsService) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.store.CountUsers(ctx)
		if err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		stats.TotalUsers = n
		return nil
	})
	g.Go(func() error {
		total, err := s.store.TotalExpenses(ctx)
		if err != nil {
			return fmt.Errorf("total expenses: %w", err)
		}
		stats.TotalExpenses = total
		return nil
	})
	g.Go(func() error {
		n, err := s.store.CountBudgets(ctx)
		if err != nil {
			return fmt.Errorf("count budgets: %w", err)
		}
		stats.TotalGoals = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}
