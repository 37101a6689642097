package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"meme-maker/internal/logger"
)

const defaultStepTimeout = 10 * time.Second

// Step is one named action of the shutdown sequence.
type Step struct {
	Name string
	Fn   func()
}

// Manager runs registered steps once, in reverse registration order, when
// Shutdown is called or a termination signal arrives.
type Manager struct {
	steps       []Step
	logger      logger.Logger
	stepTimeout time.Duration
	mu          sync.Mutex
	done        chan struct{}
	ctx         context.Context
	cancel      context.CancelFunc
	stopSignals func()
}

func NewManager(log logger.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		logger:      logger.ForComponent(log, "ShutdownManager"),
		stepTimeout: defaultStepTimeout,
		done:        make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetStepTimeout bounds how long a single step may block the sequence.
func (m *Manager) SetStepTimeout(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d > 0 {
		m.stepTimeout = d
	}
}

func (m *Manager) Register(name string, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, Step{Name: name, Fn: fn})
}

// Listen starts shutdown on SIGINT or SIGTERM. onSignal runs after the
// sequence, typically to quit the UI loop.
func (m *Manager) Listen(onSignal func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	m.mu.Lock()
	m.stopSignals = func() { signal.Stop(sigChan) }
	m.mu.Unlock()

	go func() {
		select {
		case sig := <-sigChan:
			m.logger.Info("shutdown signal received", map[string]interface{}{
				"signal": sig.String(),
			})
			m.Shutdown()
			if onSignal != nil {
				onSignal()
			}
		case <-m.done:
		}
	}()
}

// Shutdown runs the sequence. Later calls return immediately.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.done:
		return
	default:
		close(m.done)
	}
	if m.stopSignals != nil {
		m.stopSignals()
	}

	m.logger.Info("shutdown sequence initiated", map[string]interface{}{
		"steps": len(m.steps),
	})
	m.cancel()

	for i := len(m.steps) - 1; i >= 0; i-- {
		step := m.steps[i]
		start := time.Now()

		finished := make(chan struct{})
		go func() {
			defer close(finished)
			step.Fn()
		}()

		select {
		case <-finished:
			m.logger.Debug("shutdown step completed", map[string]interface{}{
				"step":        step.Name,
				"duration_ms": time.Since(start).Milliseconds(),
			})
		case <-time.After(m.stepTimeout):
			m.logger.Warning("shutdown step timeout", map[string]interface{}{
				"step": step.Name,
			})
		}
	}

	m.logger.Info("shutdown sequence completed", nil)
}

// Context is cancelled when shutdown begins.
func (m *Manager) Context() context.Context {
	return m.ctx
}

func (m *Manager) Done() <-chan struct{} {
	return m.done
}
