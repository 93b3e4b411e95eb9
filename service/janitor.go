package service

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule is how often idle sessions are looked for
const DefaultSweepSchedule = "@every 10m"

// IdleEvictor is implemented by session registries that expire idle sessions
type IdleEvictor interface {
	EvictIdle(now time.Time, ttl time.Duration) int
}

// Janitor periodically evicts idle wizard and editor sessions
type Janitor struct {
	cron     *cron.Cron
	schedule string
	ttl      time.Duration
	targets  []IdleEvictor
	now      func() time.Time
}

// NewJanitor creates a janitor that evicts sessions idle for longer than ttl
func NewJanitor(ttl time.Duration, targets ...IdleEvictor) *Janitor {
	return &Janitor{
		cron:     cron.New(),
		schedule: DefaultSweepSchedule,
		ttl:      ttl,
		targets:  targets,
		now:      time.Now,
	}
}

// Start schedules the sweep and starts the cron scheduler
func (j *Janitor) Start() error {
	if j.ttl <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", j.ttl)
	}
	if _, err := j.cron.AddFunc(j.schedule, func() { j.Sweep() }); err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}
	j.cron.Start()
	log.Printf("✅ Session janitor started (schedule=%s, ttl=%s)", j.schedule, j.ttl)
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

// Sweep evicts idle sessions now and returns how many were removed
func (j *Janitor) Sweep() int {
	now := j.now()
	total := 0
	for _, target := range j.targets {
		total += target.EvictIdle(now, j.ttl)
	}
	if total > 0 {
		log.Printf("🧹 Session janitor: evicted %d idle sessions", total)
	}
	return total
}
