package repositories

import (
	"cmp"
	"context"
	"courier-tracking-service/internal/domain"
	"slices"
	"sync"
	"time"
)

type courierKey struct {
	orgID     string
	courierID string
}

type latestRow struct {
	pos       domain.Position
	updatedAt time.Time
}

// In-memory implementation of the LocationStore port, used by tests and
// local runs without Postgres. A single lock covers the latest map and the
// history log so a report is applied atomically.
type MemoryLocationStore struct {
	mu       sync.RWMutex
	latest   map[courierKey]latestRow
	history  map[courierKey][]domain.Position
	couriers map[courierKey]domain.Courier
	now      func() time.Time
}

func NewMemoryLocationStore(now func() time.Time) *MemoryLocationStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryLocationStore{
		latest:   make(map[courierKey]latestRow),
		history:  make(map[courierKey][]domain.Position),
		couriers: make(map[courierKey]domain.Courier),
		now:      now,
	}
}

// RegisterCourier records name/phone metadata joined by GetAllLatest.
func (s *MemoryLocationStore) RegisterCourier(orgID string, c domain.Courier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.couriers[courierKey{orgID, c.ID}] = c
}

func (s *MemoryLocationStore) Report(
	_ context.Context,
	orgID string,
	courierID string,
	report domain.PositionReport,
) (domain.Position, error) {
	if err := report.Validate(); err != nil {
		return domain.Position{}, err
	}

	k := courierKey{orgID, courierID}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	pos := domain.Position{
		OrganizationID: orgID,
		CourierID:      courierID,
		Lat:            *report.Lat,
		Lon:            *report.Lon,
		Accuracy:       copyFloat(report.Accuracy),
		ActiveOrderID:  copyString(report.ActiveOrderID),
		RecordedAt:     now,
	}

	s.latest[k] = latestRow{pos: pos, updatedAt: now}
	s.history[k] = append(s.history[k], pos)

	return pos, nil
}

func (s *MemoryLocationStore) GetLatest(_ context.Context, orgID, courierID string) (*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.latest[courierKey{orgID, courierID}]
	if !ok {
		return nil, nil
	}

	pos := row.pos
	return &pos, nil
}

func (s *MemoryLocationStore) GetHistorySince(
	_ context.Context,
	orgID string,
	courierID string,
	since time.Time,
) ([]domain.Position, error) {
	s.mu.RLock()
	rows := s.history[courierKey{orgID, courierID}]
	out := make([]domain.Position, 0, len(rows))
	for _, p := range rows {
		if !p.RecordedAt.Before(since) {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b domain.Position) int {
		return a.RecordedAt.Compare(b.RecordedAt)
	})

	return out, nil
}

func (s *MemoryLocationStore) GetAllLatest(_ context.Context, orgID string) ([]domain.CourierPosition, error) {
	s.mu.RLock()
	out := make([]domain.CourierPosition, 0, len(s.latest))
	for k, row := range s.latest {
		if k.orgID != orgID {
			continue
		}
		c := s.couriers[k]
		out = append(out, domain.CourierPosition{
			Position:     row.pos,
			CourierName:  c.Name,
			CourierPhone: c.Phone,
			UpdatedAt:    row.updatedAt,
		})
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.CourierPosition) int {
		return cmp.Or(
			cmp.Compare(a.CourierName, b.CourierName),
			cmp.Compare(a.CourierID, b.CourierID),
		)
	})

	return out, nil
}

func (s *MemoryLocationStore) PurgeOlderThan(_ context.Context, orgID string, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for k, rows := range s.history {
		if k.orgID != orgID {
			continue
		}

		kept := rows[:0]
		for _, p := range rows {
			if p.RecordedAt.After(cutoff) {
				kept = append(kept, p)
				continue
			}
			deleted++
		}

		if len(kept) == 0 {
			delete(s.history, k)
			continue
		}
		s.history[k] = kept
	}

	return deleted, nil
}

// Return the organizations that currently hold any history rows.
func (s *MemoryLocationStore) ListHistoryOrganizations(_ context.Context) ([]string, error) {
	s.mu.RLock()
	seen := make(map[string]struct{})
	for k := range s.history {
		seen[k.orgID] = struct{}{}
	}
	s.mu.RUnlock()

	orgs := make([]string, 0, len(seen))
	for o := range seen {
		orgs = append(orgs, o)
	}
	slices.Sort(orgs)

	return orgs, nil
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
