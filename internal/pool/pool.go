// Package pool manages a fixed-size pool of started UCI engine processes,
// checked out for a search and returned afterwards, with unhealthy engines
// replaced transparently.
package pool

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/eloinsight/tempolens/internal/engine"
)

// Pool is a fixed-size collection of interchangeable engine processes, all
// started with the same Config.
type Pool struct {
	engines   chan *engine.Engine
	config    engine.Config
	logger    *zap.Logger
	size      int
	created   atomic.Int32
	available atomic.Int32
	inUse     atomic.Int32
	mu        sync.Mutex
	closed    bool
	startTime time.Time
}

// New starts size engines and returns the pool holding them.
func New(size int, config engine.Config, logger *zap.Logger) (*Pool, error) {
	if size <= 0 {
		return nil, errors.New("pool size must be positive")
	}

	p := &Pool{
		engines:   make(chan *engine.Engine, size),
		config:    config,
		logger:    logger,
		size:      size,
		startTime: time.Now(),
	}

	for i := 0; i < size; i++ {
		eng, err := engine.Start(config, logger)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.engines <- eng
		p.created.Inc()
		p.available.Inc()
	}

	logger.Info("engine pool created", zap.Int("size", size))
	return p, nil
}

// Get acquires an engine from the pool, blocking until one is available or
// ctx is done.
func (p *Pool) Get(ctx context.Context) (*engine.Engine, error) {
	if p.closed {
		return nil, errors.New("pool is closed")
	}

	select {
	case eng := <-p.engines:
		p.available.Dec()
		p.inUse.Inc()
		return eng, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Put returns an engine to the pool, resetting it for the next caller. An
// engine that fails to reset is torn down and replaced rather than
// returned to circulation.
func (p *Pool) Put(eng *engine.Engine) {
	if p.closed {
		eng.Close()
		return
	}

	if err := eng.NewGame(); err != nil {
		p.logger.Warn("engine failed to reset, replacing", zap.Error(err))
		eng.Close()
		p.replaceEngine()
		return
	}

	p.inUse.Dec()
	p.available.Inc()
	p.engines <- eng
}

func (p *Pool) replaceEngine() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	eng, err := engine.Start(p.config, p.logger)
	if err != nil {
		p.logger.Error("failed to create replacement engine", zap.Error(err))
		p.created.Dec()
		return
	}

	p.engines <- eng
	p.available.Inc()
	p.logger.Info("engine replaced successfully")
}

// Stats reports the pool's current occupancy and uptime.
type Stats struct {
	Size          int
	Available     int
	InUse         int
	EngineVersion string
	Uptime        time.Duration
}

// Stats returns current pool statistics, peeking at one engine's reported
// version without blocking if none are idle.
func (p *Pool) Stats() Stats {
	version := "unknown"
	select {
	case eng := <-p.engines:
		version = eng.Version()
		p.engines <- eng
	default:
	}

	return Stats{
		Size:          p.size,
		Available:     int(p.available.Load()),
		InUse:         int(p.inUse.Load()),
		EngineVersion: version,
		Uptime:        time.Since(p.startTime),
	}
}

// Size returns the pool's configured size.
func (p *Pool) Size() int { return p.size }

// Available returns the number of currently idle engines.
func (p *Pool) Available() int { return int(p.available.Load()) }

// Close tears down every engine in the pool. Safe to call more than once.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	close(p.engines)

	var firstErr error
	for eng := range p.engines {
		if err := eng.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	p.logger.Info("engine pool closed")
	return firstErr
}

// HealthCheck round-trips every engine in the pool through Get/Put,
// replacing any that fail to reset.
func (p *Pool) HealthCheck(ctx context.Context) error {
	checked := make([]*engine.Engine, 0, p.size)

	for i := 0; i < p.size; i++ {
		eng, err := p.Get(ctx)
		if err != nil {
			for _, e := range checked {
				p.Put(e)
			}
			return err
		}
		checked = append(checked, eng)
	}

	for _, eng := range checked {
		p.Put(eng)
	}
	return nil
}
