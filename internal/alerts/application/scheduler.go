package application

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Scheduler drives periodic batch evaluation across tenants. Tenants are
// evaluated concurrently under a bounded fan-out, each under its own
// deadline so one stuck snapshot fetch cannot block the others.
type Scheduler struct {
	service *Service
	logger  *log.Logger
	limiter *tenantLimiter
}

// NewScheduler constructs a Scheduler.
func NewScheduler(service *Service, logger *log.Logger) *Scheduler {
	cfg := Config{}
	if service != nil {
		cfg = service.policies.Config()
	}
	return &Scheduler{
		service: service,
		logger:  logger,
		limiter: newTenantLimiter(effectiveRate(cfg.Schedule), effectiveBurst(cfg.Schedule)),
	}
}

// Start begins the scheduler loop. It runs until ctx is cancelled. The tick
// interval is re-read from the provider each tick so a hot-reloaded config
// takes effect without a restart.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || s.service == nil {
		return
	}
	interval := effectiveInterval(s.service.policies.Config())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
			if next := effectiveInterval(s.service.policies.Config()); next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

func effectiveInterval(cfg Config) time.Duration {
	if interval := cfg.Interval(); interval > 0 {
		return interval
	}
	return 30 * time.Second
}

func effectiveRate(schedule ScheduleConfig) float64 {
	if schedule.RatePerSecond > 0 {
		return schedule.RatePerSecond
	}
	return 1
}

func effectiveBurst(schedule ScheduleConfig) int {
	if schedule.Burst > 0 {
		return schedule.Burst
	}
	return 1
}

func (s *Scheduler) runOnce(ctx context.Context) {
	tenants, err := s.service.Tenants(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("alert schedule: tenant list error: %v", err)
		}
		return
	}
	if len(tenants) == 0 {
		return
	}

	cfg := s.service.policies.Config()
	s.limiter.configure(effectiveRate(cfg.Schedule), effectiveBurst(cfg.Schedule))
	timeout := cfg.TenantTimeout()
	maxConcurrent := cfg.Schedule.MaxConcurrentTenants
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup
	for _, companyID := range tenants {
		if companyID == "" {
			continue
		}
		if !s.limiter.Allow(companyID) {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(companyID string) {
			defer wg.Done()
			defer func() { <-sem }()
			runCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			if _, err := s.service.RunBatch(runCtx, companyID); err != nil && s.logger != nil {
				s.logger.Printf("alert schedule: tenant=%s err=%v", companyID, err)
			}
		}(companyID)
	}
	wg.Wait()
}

// tenantLimiter keeps a token bucket per tenant.
type tenantLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	r        rate.Limit
	b        int
}

func newTenantLimiter(r float64, b int) *tenantLimiter {
	return &tenantLimiter{
		limiters: make(map[string]*rate.Limiter),
		r:        rate.Limit(r),
		b:        b,
	}
}

// Allow reports whether the tenant may be evaluated this tick.
func (l *tenantLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.r, l.b)
		l.limiters[key] = limiter
	}
	return limiter.Allow()
}

// configure applies a new rate and burst, so a hot-reloaded schedule takes
// effect without a restart. Buckets are rebuilt on change; they refill
// lazily on the next Allow.
func (l *tenantLimiter) configure(r float64, b int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rate.Limit(r) == l.r && b == l.b {
		return
	}
	l.r = rate.Limit(r)
	l.b = b
	l.limiters = make(map[string]*rate.Limiter)
}
