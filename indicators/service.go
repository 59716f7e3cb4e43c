/*
Package indicators combines central-bank series into the yield figures the
projection engine consumes.

PURPOSE:
  Fetches Selic (nominal rate) and 12-month IPCA (inflation) from SGS,
  derives the real and net real yields, and caches every successful fetch in
  SQLite. When SGS is unreachable, the last cached snapshot is served and
  flagged as stale.

FLOW:
  Refresh(ctx)  -> fetch both series -> save snapshot -> update memory copy
  Current(ctx)  -> memory copy, else latest SQLite row, else ErrUnavailable

RATES:
  Everything exposed by Snapshot is a decimal fraction (0.105, not 10.5).
  The percent values from SGS are kept only in the cache.

SEE ALSO:
  - bcb/client.go: SGS client
  - planning/yield.go: RealYield / NetRealYield
  - api/scheduler.go: Calls Refresh on a cron schedule
*/
package indicators

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/warp/goal-planner/bcb"
	"github.com/warp/goal-planner/planning"
	"github.com/warp/goal-planner/store/sqlite"
)

// ErrUnavailable is returned when there is neither live nor cached data.
var ErrUnavailable = errors.New("indicators unavailable")

// YieldBasis selects which real rate feeds a projection.
type YieldBasis string

const (
	BasisNet   YieldBasis = "net"   // After 15% withholding (default)
	BasisGross YieldBasis = "gross" // Before tax
)

// ParseYieldBasis maps a request value to a basis. Empty means net.
func ParseYieldBasis(s string) (YieldBasis, error) {
	switch YieldBasis(s) {
	case "", BasisNet:
		return BasisNet, nil
	case BasisGross:
		return BasisGross, nil
	default:
		return "", fmt.Errorf("unknown yield basis %q (use %q or %q)", s, BasisNet, BasisGross)
	}
}

// Snapshot is a consistent view of both indicators and the derived yields.
type Snapshot struct {
	Selic              float64 // Nominal annual rate
	IPCA               float64 // Annual inflation
	RealYield          float64
	NetRealYield       float64
	SelicReferenceDate time.Time
	IPCAReferenceDate  time.Time
	FetchedAt          time.Time
	Stale              bool // Loaded from the cache or kept after a failed refresh
}

// Rate returns the real annual rate for the given basis.
func (s Snapshot) Rate(basis YieldBasis) float64 {
	if basis == BasisGross {
		return s.RealYield
	}
	return s.NetRealYield
}

// SeriesFetcher fetches the latest observation of an SGS series.
type SeriesFetcher interface {
	Latest(ctx context.Context, series bcb.SeriesCode) (*bcb.Observation, error)
}

// Service serves indicator snapshots.
type Service struct {
	fetcher SeriesFetcher
	store   *sqlite.Store
	log     zerolog.Logger
	now     func() time.Time

	mu      sync.RWMutex
	current *Snapshot
}

// NewService creates a service. store may be nil to disable caching.
func NewService(fetcher SeriesFetcher, store *sqlite.Store, log zerolog.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		store:   store,
		log:     log.With().Str("component", "indicators").Logger(),
		now:     time.Now,
	}
}

// Refresh fetches both series and caches the result. On failure the
// in-memory snapshot is left untouched and marked stale.
// Returns the new snapshot and the ID of its cache row (0 without a store).
func (s *Service) Refresh(ctx context.Context) (*Snapshot, int64, error) {
	selic, err := s.fetcher.Latest(ctx, bcb.SeriesSelic)
	if err != nil {
		s.markStale()
		return nil, 0, fmt.Errorf("failed to fetch selic: %w", err)
	}
	ipca, err := s.fetcher.Latest(ctx, bcb.SeriesIPCA12M)
	if err != nil {
		s.markStale()
		return nil, 0, fmt.Errorf("failed to fetch ipca: %w", err)
	}

	record := sqlite.SnapshotRecord{
		Selic:              selic.Value,
		IPCA:               ipca.Value,
		SelicReferenceDate: selic.Date,
		IPCAReferenceDate:  ipca.Date,
		FetchedAt:          s.now().UTC(),
	}

	var id int64
	if s.store != nil {
		id, err = s.store.SaveSnapshot(ctx, record)
		if err != nil {
			// A cache failure must not hide fresh data.
			s.log.Warn().Err(err).Msg("Failed to cache indicator snapshot")
		}
	}

	snap := fromRecord(record)
	s.mu.Lock()
	s.current = &snap
	s.mu.Unlock()

	s.log.Info().
		Float64("selic", snap.Selic).
		Float64("ipca", snap.IPCA).
		Float64("real_yield", snap.RealYield).
		Float64("net_real_yield", snap.NetRealYield).
		Msg("Indicators refreshed")

	out := snap
	return &out, id, nil
}

// Current returns the latest known snapshot without calling SGS when one is
// available in memory or in the cache. With neither, it attempts a refresh.
func (s *Service) Current(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	if s.current != nil {
		out := *s.current
		s.mu.RUnlock()
		return &out, nil
	}
	s.mu.RUnlock()

	if cached, err := s.loadCached(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Failed to read indicator cache")
	} else if cached != nil {
		return cached, nil
	}

	snap, _, err := s.Refresh(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("No indicator data available")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return snap, nil
}

// History returns cached snapshots, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]Snapshot, error) {
	if s.store == nil {
		return []Snapshot{}, nil
	}
	records, err := s.store.ListSnapshots(ctx, limit)
	if err != nil {
		return nil, err
	}
	snaps := make([]Snapshot, len(records))
	for i, r := range records {
		snaps[i] = fromRecord(r)
	}
	return snaps, nil
}

// loadCached promotes the newest cached row to the in-memory snapshot.
// It stays stale until a refresh succeeds in this process.
func (s *Service) loadCached(ctx context.Context) (*Snapshot, error) {
	if s.store == nil {
		return nil, nil
	}
	record, err := s.store.LatestSnapshot(ctx)
	if err != nil || record == nil {
		return nil, err
	}

	snap := fromRecord(*record)
	snap.Stale = true
	s.mu.Lock()
	if s.current == nil {
		s.current = &snap
	}
	out := *s.current
	s.mu.Unlock()
	return &out, nil
}

func (s *Service) markStale() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.Stale = true
	}
}

func fromRecord(r sqlite.SnapshotRecord) Snapshot {
	selic := planning.PercentToFraction(r.Selic)
	ipca := planning.PercentToFraction(r.IPCA)
	return Snapshot{
		Selic:              selic,
		IPCA:               ipca,
		RealYield:          planning.RealYield(selic, ipca),
		NetRealYield:       planning.NetRealYield(selic, ipca),
		SelicReferenceDate: r.SelicReferenceDate,
		IPCAReferenceDate:  r.IPCAReferenceDate,
		FetchedAt:          r.FetchedAt,
	}
}
