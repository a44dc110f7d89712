package sequencer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ignite/leadpilot/internal/domain"
)

type countingRunner struct {
	ticks    atomic.Int64
	stopNext atomic.Bool
}

func (r *countingRunner) RunTick(_ context.Context, _ string) (bool, error) {
	r.ticks.Add(1)
	return r.stopNext.Load(), nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestSupervisorStartTicksImmediately(t *testing.T) {
	runner := &countingRunner{}
	s := NewSupervisor(newFakeStore(activeCampaign()), runner)
	defer s.StopAll()

	s.Start("camp-1")
	waitFor(t, func() bool { return runner.ticks.Load() >= 1 })
	if !s.Running("camp-1") {
		t.Fatal("timer should be armed")
	}
}

func TestSupervisorStopDisarms(t *testing.T) {
	runner := &countingRunner{}
	s := NewSupervisor(newFakeStore(activeCampaign()), runner)
	defer s.StopAll()

	s.Start("camp-1")
	waitFor(t, func() bool { return runner.ticks.Load() >= 1 })
	s.Stop("camp-1")
	if s.Running("camp-1") {
		t.Fatal("timer should be disarmed")
	}
	// Stop of an absent timer is a no-op.
	s.Stop("camp-1")
}

func TestSupervisorStopsWhenTickRequests(t *testing.T) {
	runner := &countingRunner{}
	runner.stopNext.Store(true)
	s := NewSupervisor(newFakeStore(activeCampaign()), runner)
	defer s.StopAll()

	s.Start("camp-1")
	waitFor(t, func() bool { return runner.ticks.Load() >= 1 && !s.Running("camp-1") })
}

func TestSupervisorStartReplacesExistingTimer(t *testing.T) {
	runner := &countingRunner{}
	s := NewSupervisor(newFakeStore(activeCampaign()), runner)
	defer s.StopAll()

	s.Start("camp-1")
	s.Start("camp-1")
	waitFor(t, func() bool { return runner.ticks.Load() >= 1 && s.Running("camp-1") })
	s.Stop("camp-1")
	if s.Running("camp-1") {
		t.Fatal("single Stop should clear the replacement")
	}
}

func TestSupervisorResumeActive(t *testing.T) {
	active := activeCampaign()
	paused := activeCampaign()
	paused.ID = "camp-2"
	paused.Status = domain.CampaignPaused

	runner := &countingRunner{}
	s := NewSupervisor(newFakeStore(active, paused), runner)
	defer s.StopAll()

	if err := s.ResumeActive(context.Background()); err != nil {
		t.Fatalf("resume: %v", err)
	}
	waitFor(t, func() bool { return s.Running("camp-1") })
	if s.Running("camp-2") {
		t.Fatal("paused campaign must not be resumed")
	}
}

func TestSupervisorStopAll(t *testing.T) {
	runner := &countingRunner{}
	s := NewSupervisor(newFakeStore(activeCampaign()), runner)

	s.Start("camp-1")
	waitFor(t, func() bool { return runner.ticks.Load() >= 1 })
	s.StopAll()
	if s.Running("camp-1") {
		t.Fatal("StopAll should disarm every timer")
	}
}
