package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskFn is a scheduled task. ctx is cancelled when the scheduler stops or
// the task is removed.
type TaskFn func(ctx context.Context)

// Scheduler runs background maintenance such as the narrative health probe.
type Scheduler struct {
	mu      sync.Mutex
	tickers map[string]*tickerEntry
	timers  map[string]*time.Timer
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *zap.Logger
}

type tickerEntry struct {
	interval time.Duration
	cancel   context.CancelFunc
}

// TaskInfo describes a registered ticker task.
type TaskInfo struct {
	Name     string `json:"name"`
	Interval string `json:"interval"`
}

// New creates a new Scheduler.
func New(logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		tickers: make(map[string]*tickerEntry),
		timers:  make(map[string]*time.Timer),
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
	}
}

func (s *Scheduler) run(ctx context.Context, name string, fn TaskFn) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler task panicked",
				zap.String("task", name),
				zap.Any("recover", r))
		}
	}()
	fn(ctx)
}

// AddTicker registers a task to run on a fixed interval.
// If a task with the same name exists, it is replaced.
func (s *Scheduler) AddTicker(name string, interval time.Duration, fn TaskFn) {
	s.addTicker(name, interval, fn, false)
}

// AddTickerNow is AddTicker with one extra run right away.
func (s *Scheduler) AddTickerNow(name string, interval time.Duration, fn TaskFn) {
	s.addTicker(name, interval, fn, true)
}

func (s *Scheduler) addTicker(name string, interval time.Duration, fn TaskFn, immediate bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.tickers[name]; ok {
		old.cancel()
		delete(s.tickers, name)
	}

	ctx, cancel := context.WithCancel(s.ctx)
	s.tickers[name] = &tickerEntry{interval: interval, cancel: cancel}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		if immediate {
			s.run(ctx, name, fn)
		}
		for {
			select {
			case <-ticker.C:
				s.run(ctx, name, fn)
			case <-ctx.Done():
				return
			}
		}
	}()
	s.logger.Info("scheduler task registered", zap.String("name", name), zap.Duration("interval", interval))
}

// AddDelay runs fn once after the given delay.
func (s *Scheduler) AddDelay(name string, delay time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.timers[name]; ok {
		old.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		defer func() {
			s.mu.Lock()
			if s.timers[name] == t {
				delete(s.timers, name)
			}
			s.mu.Unlock()
		}()
		if s.ctx.Err() != nil {
			return
		}
		s.run(s.ctx, name, fn)
	})
	s.timers[name] = t
}

// Remove stops and removes a ticker or delay task by name.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.tickers[name]; ok {
		entry.cancel()
		delete(s.tickers, name)
	}
	if t, ok := s.timers[name]; ok {
		t.Stop()
		delete(s.timers, name)
	}
}

// Stop stops all tasks. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, t := range s.timers {
		t.Stop()
		delete(s.timers, name)
	}
}

// ListTickers returns the registered ticker tasks sorted by name.
func (s *Scheduler) ListTickers() []TaskInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TaskInfo, 0, len(s.tickers))
	for name, e := range s.tickers {
		out = append(out, TaskInfo{Name: name, Interval: e.interval.String()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
