// Package stats aggregates delivery events into totals and a per-day series,
// and renders the series as a line chart.
package stats

import (
	"context"
	"fmt"

	"github.com/garpil124/menfes/internal/storage"
)

type Service struct {
	store storage.Store
}

func New(store storage.Store) *Service {
	return &Service{store: store}
}

// Total returns the all-time delivery count.
func (s *Service) Total(ctx context.Context) (int64, error) {
	n, err := s.store.CountDeliveries(ctx)
	if err != nil {
		return 0, fmt.Errorf("count deliveries: %w", err)
	}
	return n, nil
}

// SeriesByDay returns per-day delivery counts in ascending day order. Days
// without deliveries are absent from the series.
func (s *Service) SeriesByDay(ctx context.Context) ([]storage.DayCount, error) {
	series, err := s.store.DeliveriesByDay(ctx)
	if err != nil {
		return nil, fmt.Errorf("deliveries by day: %w", err)
	}
	return series, nil
}
