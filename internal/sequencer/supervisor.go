package sequencer

import (
	"context"
	"log"
	"sync"
	"time"
)

// TickRunner executes one campaign tick. Satisfied by *Engine.
type TickRunner interface {
	RunTick(ctx context.Context, campaignID string) (stop bool, err error)
}

type timerHandle struct {
	cancel context.CancelFunc
}

// Supervisor owns the per-campaign timers. It is the only mutator of the
// timer map; campaign lifecycle operations reach it through Start and Stop,
// and process startup/shutdown through ResumeActive and StopAll.
type Supervisor struct {
	store  CampaignStore
	tick   func(ctx context.Context, campaignID string) (bool, error)
	mu     sync.Mutex
	timers map[string]*timerHandle
	wg     sync.WaitGroup
}

func NewSupervisor(store CampaignStore, engine TickRunner) *Supervisor {
	return &Supervisor{
		store:  store,
		tick:   engine.RunTick,
		timers: make(map[string]*timerHandle),
	}
}

// Start arms a periodic timer for the campaign, replacing any existing one.
// The first tick runs immediately so a freshly activated campaign makes
// progress without waiting a full interval.
func (s *Supervisor) Start(campaignID string) {
	ctx, cancel := context.WithCancel(context.Background())
	h := &timerHandle{cancel: cancel}

	s.mu.Lock()
	if old, ok := s.timers[campaignID]; ok {
		old.cancel()
	}
	s.timers[campaignID] = h
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx, campaignID, h)
}

// Stop disarms the campaign's timer. No-op if absent. A tick already in
// flight still completes and persists its result.
func (s *Supervisor) Stop(campaignID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.timers[campaignID]; ok {
		h.cancel()
		delete(s.timers, campaignID)
	}
}

// Running reports whether a timer is armed for the campaign.
func (s *Supervisor) Running(campaignID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[campaignID]
	return ok
}

// ResumeActive arms timers for every campaign stored as active, so
// in-flight sequences survive a process restart. Campaigns already armed
// are left alone, making periodic rescans safe.
func (s *Supervisor) ResumeActive(ctx context.Context) error {
	ids, err := s.store.ListActiveIDs(ctx)
	if err != nil {
		return err
	}
	started := 0
	for _, id := range ids {
		if s.Running(id) {
			continue
		}
		s.Start(id)
		started++
	}
	if started > 0 {
		log.Printf("[sequencer.Supervisor] Resumed %d active campaign(s)", started)
	}
	return nil
}

// StopAll disarms every timer and waits for in-flight ticks to finish.
// Used on shutdown.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	for id, h := range s.timers {
		h.cancel()
		delete(s.timers, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// removeOwn clears the map entry only if it still belongs to this timer;
// a Start that replaced the handle must not be disturbed.
func (s *Supervisor) removeOwn(campaignID string, h *timerHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timers[campaignID] == h {
		h.cancel()
		delete(s.timers, campaignID)
	}
}

func (s *Supervisor) run(ctx context.Context, campaignID string, h *timerHandle) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval(ctx, campaignID))
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return
		}
		stop, err := s.tick(ctx, campaignID)
		if err != nil {
			log.Printf("[sequencer.Supervisor] tick for campaign %s failed: %v", campaignID, err)
		}
		if stop {
			s.removeOwn(campaignID, h)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// interval reads the campaign's tick frequency at arm time. Schedule edits
// require a pause/start cycle, so a snapshot is safe.
func (s *Supervisor) interval(ctx context.Context, campaignID string) time.Duration {
	const fallback = 60 * time.Minute
	c, err := s.store.Get(ctx, campaignID)
	if err != nil || c.Schedule.FrequencyMinutes <= 0 {
		return fallback
	}
	return time.Duration(c.Schedule.FrequencyMinutes) * time.Minute
}
