package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"aqwidget/pkg/logx"
)

// Config controls the scheduler service.
type Config struct {
	DefaultTimeout time.Duration // applied when a job has no timeout of its own
	HistorySize    int           // run history ring size (default 200)
	Timezone       string        // IANA TZ for cron specs, e.g. "Asia/Yerevan"
}

// HistoryItem records one job run.
type HistoryItem struct {
	Name     string
	Started  time.Time
	Duration time.Duration
	Error    string
}

type runState struct {
	mu      sync.Mutex
	running bool
}

type jobDef struct {
	name    string
	spec    ParsedSpec
	timeout time.Duration
	run     func(ctx context.Context) error
	state   *runState
}

// Service schedules named jobs. Jobs are registered before Start; failures
// are logged and recorded, never escalated.
type Service struct {
	mu sync.Mutex

	log logx.Logger
	cfg Config

	parser cron.Parser
	c      *cron.Cron
	defs   []jobDef

	running   bool
	runCtx    context.Context
	runCancel context.CancelFunc
	wg        sync.WaitGroup

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg: cfg,
		log: log,
		// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Add registers a job under a stable name. Must be called before Start.
func (s *Service) Add(name, rawSpec string, timeout time.Duration, run func(ctx context.Context) error) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("job name required")
	}
	if run == nil {
		return fmt.Errorf("job %q: run func required", name)
	}
	spec, err := ParseSchedule(rawSpec)
	if err != nil {
		return fmt.Errorf("job %q: %w", name, err)
	}
	if spec.Kind == SpecCron {
		// Fail fast on bad cron syntax instead of at Start.
		if _, err := s.parser.Parse(spec.Cron); err != nil {
			return fmt.Errorf("job %q: invalid cron %q: %w", name, spec.Cron, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("job %q: scheduler already started", name)
	}
	s.defs = append(s.defs, jobDef{
		name:    name,
		spec:    spec,
		timeout: timeout,
		run:     run,
		state:   &runState{},
	})
	return nil
}

// Start launches all registered jobs. Interval jobs run once immediately,
// then wait their full interval after each completed run. Cron jobs fire on
// the wall clock and skip a firing while a previous run is still executing.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.runCtx, s.runCancel = context.WithCancel(ctx)

	loc := s.loadLocationLocked()
	s.c = cron.New(cron.WithParser(s.parser), cron.WithLocation(loc))

	runCtx := s.runCtx
	for i := range s.defs {
		def := s.defs[i]
		switch def.spec.Kind {
		case SpecInterval:
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.intervalLoop(runCtx, def)
			}()
		case SpecCron:
			_, err := s.c.AddFunc(def.spec.Cron, func() {
				if !def.state.tryAcquire() {
					s.log.Debug("job still running; skipping firing", logx.String("job", def.name))
					return
				}
				defer def.state.release()
				s.execOne(runCtx, def)
			})
			if err != nil {
				// Add() validated the expression; this is unreachable in practice.
				s.log.Error("cron registration failed", logx.String("job", def.name), logx.Err(err))
			}
		}
	}
	s.c.Start()
	s.log.Info("scheduler started", logx.Int("jobs", len(s.defs)), logx.String("tz", loc.String()))
}

// Stop cancels running jobs and waits for them to exit, bounded by ctx.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.runCancel
	c := s.c
	s.c = nil
	s.runCancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if c != nil {
		<-c.Stop().Done()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Info("scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out; jobs finishing in background")
	}
}

// History returns a copy of the run history, newest last.
func (s *Service) History() []HistoryItem {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	out := make([]HistoryItem, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Service) intervalLoop(ctx context.Context, def jobDef) {
	timer := time.NewTimer(0) // immediate first run
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		s.execOne(ctx, def)
		// The wait starts AFTER the run completed.
		timer.Reset(def.spec.Every)
	}
}

func (s *Service) execOne(ctx context.Context, def jobDef) {
	start := time.Now()

	timeout := def.timeout
	if timeout <= 0 {
		s.mu.Lock()
		timeout = s.cfg.DefaultTimeout
		s.mu.Unlock()
	}
	runCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	}

	err := s.safeRun(runCtx, def)
	if cancel != nil {
		cancel()
	}

	dur := time.Since(start)
	item := HistoryItem{Name: def.name, Started: start, Duration: dur}
	if err != nil {
		item.Error = err.Error()
		s.log.Warn("job failed", logx.String("job", def.name), logx.Err(err), logx.Duration("dur", dur))
	} else {
		// Avoid noisy logs for very frequent jobs: only elevate to INFO when it took noticeable time.
		if dur >= 750*time.Millisecond {
			s.log.Info("job completed", logx.String("job", def.name), logx.Duration("dur", dur))
		} else {
			s.log.Debug("job completed", logx.String("job", def.name), logx.Duration("dur", dur))
		}
	}

	s.hmu.Lock()
	s.history = append(s.history, item)
	historySize := s.cfg.HistorySize
	if historySize <= 0 {
		historySize = 200
	}
	if len(s.history) > historySize {
		s.history = s.history[len(s.history)-historySize:]
	}
	s.hmu.Unlock()
}

func (s *Service) safeRun(ctx context.Context, def jobDef) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			s.log.Error("panic in job", logx.String("job", def.name), logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
		}
	}()
	return def.run(ctx)
}

func (s *Service) loadLocationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone; using local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}

func (st *runState) tryAcquire() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.running {
		return false
	}
	st.running = true
	return true
}

func (st *runState) release() {
	st.mu.Lock()
	st.running = false
	st.mu.Unlock()
}
