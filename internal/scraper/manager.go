package scraper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/beamline-io/dataweb/internal/archive"
	"github.com/beamline-io/dataweb/internal/config"
	"github.com/beamline-io/dataweb/internal/lib/logger/sl"
	"github.com/beamline-io/dataweb/internal/model"
	"github.com/beamline-io/dataweb/internal/store"
)

// Manager runs one polling loop per configured instrument. Each loop
// fetches a snapshot, publishes it to the store and optionally the
// archive, and decides its own next poll time: the healthy interval
// after a success, backing off toward the failed interval otherwise.
type Manager struct {
	log         *slog.Logger
	cfg         *config.Config
	instruments []config.InstrumentConfig
	client      *Client
	store       *store.Store
	archive     archive.Archive
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

func NewManager(
	log *slog.Logger,
	cfg *config.Config,
	instruments []config.InstrumentConfig,
	client *Client,
	st *store.Store,
	arch archive.Archive,
) *Manager {
	return &Manager{
		log:         log,
		cfg:         cfg,
		instruments: instruments,
		client:      client,
		store:       st,
		archive:     arch,
		stopCh:      make(chan struct{}),
	}
}

func (m *Manager) Start(ctx context.Context) {
	m.log.Info("starting scraper manager",
		slog.Int("instruments", len(m.instruments)),
		slog.Duration("interval", m.cfg.Poll.Interval),
	)

	for i := range m.instruments {
		inst := m.instruments[i]
		m.wg.Add(1)
		go m.pollLoop(ctx, inst)
	}

	if m.archive != nil {
		m.wg.Add(1)
		go m.cleanupLoop(ctx)
	}
}

func (m *Manager) Stop() {
	close(m.stopCh)
	m.wg.Wait()
	m.client.Close()
}

func (m *Manager) pollLoop(ctx context.Context, inst config.InstrumentConfig) {
	defer m.wg.Done()

	delay := newPollDelay(m.cfg.Poll.Interval, m.cfg.Poll.FailedInterval)
	failures := 0
	triesSinceLogged := 0

	// Fires immediately so the first page load after startup has data.
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-timer.C:
		}

		m.pollOnce(ctx, inst, &failures, &triesSinceLogged)

		timer.Reset(delay.Next(failures))
	}
}

// pollOnce runs a single fetch cycle. A failure is terminal for the
// cycle only; the next timer fire tries again independently. Repeated
// failures are logged once, then again every RetriesBetweenLogs
// attempts, with a recovery log when the instrument comes back.
func (m *Manager) pollOnce(ctx context.Context, inst config.InstrumentConfig, failures, triesSinceLogged *int) {
	pollCtx, cancel := context.WithTimeout(ctx, m.cfg.Poll.Timeout)
	defer cancel()

	target := Target(inst)

	snap, err := m.client.Fetch(pollCtx, inst)
	if err != nil {
		*triesSinceLogged++
		if *failures == 0 || *triesSinceLogged >= m.cfg.Poll.RetriesBetweenLogs {
			m.log.Error("failed to poll instrument",
				slog.String("instrument", inst.Name),
				slog.String("target", target),
				sl.Err(err),
			)
			*triesSinceLogged = 0
		}
		*failures++
		m.store.SetError(inst.Name, target, err)
		return
	}

	if *failures > 0 {
		m.log.Info("reconnected to instrument", slog.String("instrument", inst.Name))
	}
	*failures = 0
	*triesSinceLogged = 0

	m.store.SetSnapshot(inst.Name, target, snap)

	if m.archive != nil {
		m.archiveSnapshot(ctx, inst.Name, snap)
	}
}

func (m *Manager) archiveSnapshot(ctx context.Context, instrument string, snap *model.Snapshot) {
	raw, err := snap.ToJSON()
	if err != nil {
		m.log.Error("failed to marshal snapshot for archive",
			slog.String("instrument", instrument),
			sl.Err(err),
		)
		return
	}

	runState := ""
	if rs, ok := snap.InstPV("RUNSTATE"); ok {
		runState = rs.Value
	}

	rec := &archive.Record{
		ID:         uuid.New().String(),
		Instrument: instrument,
		ConfigName: snap.ConfigName,
		RunState:   runState,
		Snapshot:   raw,
		FetchedAt:  time.Now().UTC(),
	}

	if err := m.archive.Store(ctx, rec); err != nil {
		m.log.Error("failed to archive snapshot",
			slog.String("instrument", instrument),
			sl.Err(err),
		)
	}
}

func (m *Manager) cleanupLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			if err := m.archive.Cleanup(ctx, m.cfg.Archive.MaxAge); err != nil {
				m.log.Error("failed to clean up archive", sl.Err(err))
			}
		}
	}
}
