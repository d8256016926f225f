package indexer

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/analytics"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/constants"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/storage"
)

// Store is the part of the registry the scheduler reads and updates.
type Store interface {
	ListDApps(ctx context.Context, filter storage.DAppFilter) ([]models.DApp, error)
	UpdateMetrics(ctx context.Context, dappID string, tvl, volume *float64, indexedAt time.Time) error
	UpsertPool(ctx context.Context, p models.Pool) error
}

// SchedulerConfig holds configuration for the scheduler
type SchedulerConfig struct {
	Store     Store
	Registry  *Registry
	Analytics storage.AnalyticsSink
	Interval  time.Duration

	// Concurrency bounds how many dApps are indexed at once.
	Concurrency int

	Logger *logrus.Logger
}

// RunReport summarises one indexing pass.
type RunReport struct {
	StartedAt time.Time         `json:"startedAt"`
	Duration  time.Duration     `json:"durationNs"`
	Indexed   int               `json:"indexed"`
	Failed    int               `json:"failed"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// DAppStatus is the indexing state of one dApp.
type DAppStatus struct {
	ID                    string          `json:"id"`
	Name                  string          `json:"name"`
	Category              models.Category `json:"category"`
	TVL                   *float64        `json:"tvl,omitempty"`
	Volume24h             *float64        `json:"volume24h,omitempty"`
	LastIndexed           *time.Time      `json:"lastIndexed,omitempty"`
	LastIndexedMinutesAgo *int            `json:"lastIndexedMinutesAgo"`
}

// Status is reported by GET /v1/indexer/status.
type Status struct {
	Running    bool         `json:"running"`
	Interval   string       `json:"interval"`
	TotalDApps int          `json:"totalDApps"`
	DApps      []DAppStatus `json:"dapps"`
	LastRun    *RunReport   `json:"lastRun,omitempty"`
}

// Scheduler runs the indexers for every active dApp.
type Scheduler struct {
	store       Store
	registry    *Registry
	analytics   storage.AnalyticsSink
	interval    time.Duration
	concurrency int
	logger      *logrus.Logger
	now         func() time.Time

	mu      sync.RWMutex
	running bool
	lastRun *RunReport

	// serialises passes started by the ticker and by RunOnce callers
	runMu sync.Mutex
}

func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("registry store is nil")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("indexer registry is nil")
	}
	if cfg.Analytics == nil {
		cfg.Analytics = analytics.Discard{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = constants.DefaultIndexInterval
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Scheduler{
		store:       cfg.Store,
		registry:    cfg.Registry,
		analytics:   cfg.Analytics,
		interval:    cfg.Interval,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// RunOnce indexes every active dApp. A failing dApp is counted and logged;
// only a failure to list the registry is returned as an error.
func (s *Scheduler) RunOnce(ctx context.Context) (*RunReport, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := s.now()
	dapps, err := s.store.ListDApps(ctx, storage.DAppFilter{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list active dapps: %w", err)
	}
	s.logger.WithField("count", len(dapps)).Info("starting indexer pass")

	report := &RunReport{StartedAt: start, Errors: make(map[string]string)}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, d := range dapps {
		g.Go(func() error {
			err := s.indexOne(ctx, d)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				report.Errors[d.ID] = err.Error()
				return nil
			}
			report.Indexed++
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = s.now().Sub(start)
	s.mu.Lock()
	s.lastRun = report
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"indexed":  report.Indexed,
		"failed":   report.Failed,
		"duration": report.Duration.String(),
	}).Info("indexer pass complete")
	return report, nil
}

func (s *Scheduler) indexOne(ctx context.Context, d models.DApp) error {
	idx := s.registry.For(d.Category)
	log := s.logger.WithFields(logrus.Fields{"dapp": d.ID, "indexer": idx.Name()})

	res, err := idx.Index(ctx, d)
	snap := storage.IndexSnapshot{DAppID: d.ID, Category: string(d.Category), IndexedAt: s.now()}
	if err != nil {
		log.WithError(err).Warn("indexing failed")
		s.snapshot(ctx, snap)
		return err
	}

	if err := s.store.UpdateMetrics(ctx, d.ID, res.TVL, res.Volume24h, snap.IndexedAt); err != nil {
		log.WithError(err).Error("update metrics failed")
		return err
	}
	for _, p := range res.Pools {
		if err := s.store.UpsertPool(ctx, p); err != nil {
			log.WithError(err).WithField("pool", p.PoolAddress).Error("upsert pool failed")
			return err
		}
	}

	snap.Healthy = res.Healthy
	snap.Pools = len(res.Pools)
	if res.TVL != nil {
		snap.TVL = *res.TVL
	}
	if res.Volume24h != nil {
		snap.Volume24h = *res.Volume24h
	}
	s.snapshot(ctx, snap)
	log.WithField("pools", len(res.Pools)).Debug("indexed dapp")
	return nil
}

func (s *Scheduler) snapshot(ctx context.Context, snap storage.IndexSnapshot) {
	if err := s.analytics.InsertIndexSnapshot(ctx, snap); err != nil {
		s.logger.WithError(err).Warn("record index snapshot failed")
	}
}

// Start runs a pass immediately and then every interval until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.logger.WithField("interval", s.interval).Info("starting indexer scheduler")
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.WithError(err).Error("indexer pass failed")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.WithError(err).Error("indexer pass failed")
			}
		}
	}
}

// Status lists active dApps, most recently indexed first.
func (s *Scheduler) Status(ctx context.Context) (*Status, error) {
	dapps, err := s.store.ListDApps(ctx, storage.DAppFilter{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list active dapps: %w", err)
	}

	now := s.now()
	out := &Status{Interval: s.interval.String(), TotalDApps: len(dapps), DApps: make([]DAppStatus, 0, len(dapps))}
	for _, d := range dapps {
		st := DAppStatus{ID: d.ID, Name: d.Name, Category: d.Category, TVL: d.TVL, Volume24h: d.Volume24h, LastIndexed: d.LastIndexed}
		if d.LastIndexed != nil {
			m := int(now.Sub(*d.LastIndexed) / time.Minute)
			st.LastIndexedMinutesAgo = &m
		}
		out.DApps = append(out.DApps, st)
	}
	sortByLastIndexed(out.DApps)

	s.mu.RLock()
	out.Running = s.running
	out.LastRun = s.lastRun
	s.mu.RUnlock()
	return out, nil
}

func sortByLastIndexed(ds []DAppStatus) {
	key := func(d DAppStatus) int64 {
		if d.LastIndexed == nil {
			return -1
		}
		return d.LastIndexed.UnixNano()
	}
	sort.SliceStable(ds, func(i, j int) bool { return key(ds[i]) > key(ds[j]) })
}
