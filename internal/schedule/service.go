package schedule

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"
)

const defaultRetryCooldown = time.Hour

// Service runs fixed daily jobs at wall-clock HH:MM times. A failed run is
// logged and retried once after a cooldown instead of waiting a full day;
// nothing a job returns can take the service down.
type Service struct {
	cron     *rcron.Cron
	cooldown time.Duration

	mu      sync.Mutex
	retries []*time.Timer
	stopped bool
}

func NewService() *Service {
	return &Service{
		cron:     rcron.New(rcron.WithSeconds()),
		cooldown: defaultRetryCooldown,
	}
}

// AddDaily registers fn to run every day at the given "HH:MM" time.
// Must be called before Start.
func (s *Service) AddDaily(name, hhmm string, fn func() error) error {
	spec, err := dailySpec(hhmm)
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	if _, err := s.cron.AddFunc(spec, func() { s.runJob(name, fn) }); err != nil {
		return fmt.Errorf("register job %s: %w", name, err)
	}
	log.Printf("[schedule] job %s registered at %s daily", name, hhmm)
	return nil
}

func (s *Service) Start(ctx context.Context) {
	s.cron.Start()
	log.Printf("[schedule] started")

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

func (s *Service) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	timers := s.retries
	s.retries = nil
	s.mu.Unlock()

	for _, t := range timers {
		t.Stop()
	}

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		log.Printf("[schedule] stop timeout waiting for running jobs")
	}
	log.Printf("[schedule] stopped")
}

func (s *Service) runJob(name string, fn func() error) {
	log.Printf("[schedule] running job %s", name)
	if err := fn(); err != nil {
		log.Printf("[schedule] job %s error: %v, retrying in %s", name, err, s.cooldown)
		s.scheduleRetry(name, fn)
	}
}

func (s *Service) scheduleRetry(name string, fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	timer := time.AfterFunc(s.cooldown, func() {
		if err := fn(); err != nil {
			log.Printf("[schedule] job %s retry error: %v", name, err)
		}
	})
	s.retries = append(s.retries, timer)
}

// dailySpec turns "HH:MM" into a six-field cron spec firing once per day.
func dailySpec(hhmm string) (string, error) {
	parts := strings.Split(strings.TrimSpace(hhmm), ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, want HH:MM", hhmm)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", hhmm)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", hhmm)
	}
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
