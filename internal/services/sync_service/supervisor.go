package sync_service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Carima-SSY/AWS-Client/internal/domain/models"
	"github.com/Carima-SSY/AWS-Client/internal/middleware/logging"
)

const maxBackoff = 30 * time.Second

// Loop - один цикл синхронизации. Tick выполняет одну итерацию и
// возвращает ее ошибку; решение о паузе принимает Supervisor.
type Loop interface {
	Name() string
	Interval() time.Duration
	Tick(ctx context.Context) error
}

type loopState struct {
	loop  Loop
	stats models.LoopStats
}

// Supervisor запускает циклы, ведет статистику тиков и после ошибок
// откладывает следующий тик с экспоненциальной паузой.
type Supervisor struct {
	logger *logging.Logger

	mu     sync.Mutex
	loops  []*loopState
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSupervisor(logger *logging.Logger, loops ...Loop) *Supervisor {
	s := &Supervisor{logger: logger.WithPrefix("SUPERVISOR")}
	for _, l := range loops {
		s.loops = append(s.loops, &loopState{loop: l, stats: models.LoopStats{Name: l.Name()}})
	}
	return s
}

// Start запускает все циклы в отдельных горутинах и сразу возвращается
func (s *Supervisor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	for _, st := range s.loops {
		s.wg.Add(1)
		go s.run(ctx, st)
	}
	s.logger.Info("Sync loops started", "count", len(s.loops))
}

// Stop отменяет контекст циклов и ждет их завершения
func (s *Supervisor) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.logger.Info("Sync loops stopped")
}

func (s *Supervisor) run(ctx context.Context, st *loopState) {
	defer s.wg.Done()

	name := st.loop.Name()
	base := st.loop.Interval()
	logger := s.logger.WithPrefix(name)
	logger.Info("Starting loop goroutine", "interval", base)
	defer logger.Info("Loop goroutine stopped")

	timer := time.NewTimer(base)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		err := s.tick(ctx, st.loop)
		if ctx.Err() != nil {
			return
		}
		delay := s.record(st, err)
		if err != nil {
			logger.Error("Loop tick failed", "error", err, "retry_in", delay)
		}
		timer.Reset(delay)
	}
}

// tick вызывает Tick и превращает панику в ошибку тика
func (s *Supervisor) tick(ctx context.Context, loop Loop) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return loop.Tick(ctx)
}

// record обновляет статистику и возвращает паузу до следующего тика
func (s *Supervisor) record(st *loopState, err error) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	st.stats.Ticks++
	st.stats.LastTick = time.Now()
	if err != nil {
		st.stats.Failures++
		st.stats.ConsecutiveFailures++
		st.stats.LastError = err.Error()
	} else {
		st.stats.ConsecutiveFailures = 0
		st.stats.LastError = ""
	}
	st.stats.Backoff = calculateBackoff(st.stats.ConsecutiveFailures, st.loop.Interval())
	return st.stats.Backoff
}

// Stats возвращает копию статистики в порядке регистрации циклов
func (s *Supervisor) Stats() []models.LoopStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.LoopStats, 0, len(s.loops))
	for _, st := range s.loops {
		out = append(out, st.stats)
	}
	return out
}

// calculateBackoff возвращает base * 2^failures, но не больше maxBackoff
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	limit := maxBackoff
	if base > limit {
		limit = base
	}
	if failures > 30 {
		return limit
	}
	d := base * time.Duration(1<<uint(failures))
	if d > limit || d <= 0 {
		return limit
	}
	return d
}
