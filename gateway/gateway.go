package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// window is the trailing interval over which per-service limits apply.
const window = time.Minute

// Operation is a unit of work executed under a service's rate limit.
type Operation func(ctx context.Context) error

// Config holds gateway configuration.
type Config struct {
	// Limits maps service names to their requests-per-minute budget.
	Limits map[string]int

	// SafetyMargin is added to every computed wait so a dispatch never
	// lands just inside a still-full window.
	SafetyMargin time.Duration

	// InterRequestDelay is a fixed pause after each dispatch for burst
	// smoothing. Zero disables it.
	InterRequestDelay time.Duration
}

// DefaultConfig returns limits for the external services tabstash calls.
func DefaultConfig() Config {
	return Config{
		Limits: map[string]int{
			ServiceEmbeddings: 60,
			ServiceGenerative: 20,
			ServiceExtraction: 30,
			ServiceScreenshot: 10,
		},
		SafetyMargin:      100 * time.Millisecond,
		InterRequestDelay: 50 * time.Millisecond,
	}
}

// Well-known service names.
const (
	ServiceEmbeddings = "embeddings"
	ServiceGenerative = "generative"
	ServiceExtraction = "extraction"
	ServiceScreenshot = "screenshot"
)

// Stats is a point-in-time snapshot of one service's queue.
type Stats struct {
	QueueLength        int
	DispatchedInWindow int
	Limit              int
	NextSlotIn         time.Duration
}

// request is a queued operation awaiting dispatch.
type request struct {
	ctx      context.Context
	op       Operation
	priority int
	seq      uint64
	done     chan error
}

func (r *request) deliver(err error) {
	r.done <- err
}

// serviceQueue holds one service's pending requests and dispatch history.
type serviceQueue struct {
	name       string
	limit      int
	pending    []*request  // sorted descending by priority, FIFO within a tier
	dispatched []time.Time // timestamps within the trailing window, oldest first
	wake       chan struct{}
}

// insert places the request so pending stays sorted descending by priority,
// with stable FIFO order among equal priorities.
func (s *serviceQueue) insert(req *request) {
	idx := len(s.pending)
	for i, pending := range s.pending {
		if req.priority > pending.priority {
			idx = i
			break
		}
	}
	s.pending = append(s.pending, nil)
	copy(s.pending[idx+1:], s.pending[idx:])
	s.pending[idx] = req
}

// pop removes and returns the highest-priority request.
func (s *serviceQueue) pop() *request {
	req := s.pending[0]
	copy(s.pending, s.pending[1:])
	s.pending[len(s.pending)-1] = nil
	s.pending = s.pending[:len(s.pending)-1]
	return req
}

// prune drops dispatch timestamps that have left the trailing window.
func (s *serviceQueue) prune(now time.Time) {
	cutoff := now.Add(-window)
	i := 0
	for i < len(s.dispatched) && !s.dispatched[i].After(cutoff) {
		i++
	}
	if i > 0 {
		s.dispatched = append(s.dispatched[:0], s.dispatched[i:]...)
	}
}

// Gateway schedules outbound calls to rate-capped external services.
// Each service has a sliding-window limit and a priority queue drained by
// its own goroutine; higher priority dispatches first, FIFO within a tier.
type Gateway struct {
	mu       sync.Mutex
	cfg      Config
	clock    Clock
	services map[string]*serviceQueue
	seq      uint64
	closed   bool
	done     chan struct{}
	logger   *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithClock sets the clock used for window tracking and waits.
// Tests use this to drive virtual time.
func WithClock(clock Clock) Option {
	return func(g *Gateway) {
		g.clock = clock
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// New creates a Gateway and starts one drain goroutine per configured service.
func New(cfg Config, opts ...Option) *Gateway {
	g := &Gateway{
		cfg:      cfg,
		clock:    realClock{},
		services: make(map[string]*serviceQueue, len(cfg.Limits)),
		done:     make(chan struct{}),
		logger:   slog.Default().With("component", "gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}

	for name, limit := range cfg.Limits {
		s := &serviceQueue{
			name:  name,
			limit: limit,
			wake:  make(chan struct{}, 1),
		}
		g.services[name] = s
		go g.drain(s)
	}
	return g
}

// Do schedules op for execution under the service's rate limit and waits for
// its result. Higher priority requests dispatch first; equal priorities run
// in arrival order. The operation's error is returned to this caller only.
//
// If ctx is cancelled while the request is still queued, Do returns the
// context error and the drain loop discards the request without dispatching.
func (g *Gateway) Do(ctx context.Context, service string, priority int, op Operation) error {
	g.mu.Lock()
	s, ok := g.services[service]
	if !ok {
		g.mu.Unlock()
		return ErrUnknownService
	}
	if g.closed {
		g.mu.Unlock()
		return ErrGatewayClosed
	}
	g.seq++
	req := &request{
		ctx:      ctx,
		op:       op,
		priority: priority,
		seq:      g.seq,
		done:     make(chan error, 1),
	}
	s.insert(req)
	g.mu.Unlock()

	// Nudge the drain loop
	select {
	case s.wake <- struct{}{}:
	default:
	}

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Clear rejects every pending request for the service with ErrQueueCleared
// and empties its queue. In-flight operations are not interrupted.
func (g *Gateway) Clear(service string) {
	g.mu.Lock()
	s, ok := g.services[service]
	if !ok {
		g.mu.Unlock()
		return
	}
	pending := s.pending
	s.pending = nil
	g.mu.Unlock()

	for _, req := range pending {
		req.deliver(ErrQueueCleared)
	}
	g.logger.Debug("cleared pending requests", "service", service, "count", len(pending))
}

// Stats returns a snapshot of the service's queue state.
// Returns ErrUnknownService for unconfigured services.
func (g *Gateway) Stats(service string) (Stats, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.services[service]
	if !ok {
		return Stats{}, ErrUnknownService
	}

	now := g.clock.Now()
	s.prune(now)

	stats := Stats{
		QueueLength:        len(s.pending),
		DispatchedInWindow: len(s.dispatched),
		Limit:              s.limit,
	}
	if len(s.dispatched) >= s.limit && len(s.dispatched) > 0 {
		stats.NextSlotIn = window - now.Sub(s.dispatched[0]) + g.cfg.SafetyMargin
	}
	return stats, nil
}

// Services returns the configured service names.
func (g *Gateway) Services() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	names := make([]string, 0, len(g.services))
	for name := range g.services {
		names = append(names, name)
	}
	return names
}

// Close shuts the gateway down. Pending requests are rejected with
// ErrGatewayClosed; in-flight operations run to completion.
func (g *Gateway) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	var rejected []*request
	for _, s := range g.services {
		rejected = append(rejected, s.pending...)
		s.pending = nil
	}
	g.mu.Unlock()

	close(g.done)
	for _, req := range rejected {
		req.deliver(ErrGatewayClosed)
	}
	return nil
}

// drain is the per-service dispatch loop. It prunes the trailing window,
// waits when the service is at its limit, and otherwise pops the
// highest-priority request and executes it. Operation failures go to the
// requesting caller only and never stall the loop.
func (g *Gateway) drain(s *serviceQueue) {
	for {
		g.mu.Lock()
		if g.closed {
			g.mu.Unlock()
			return
		}

		if len(s.pending) == 0 {
			g.mu.Unlock()
			select {
			case <-s.wake:
			case <-g.done:
			}
			continue
		}

		now := g.clock.Now()
		s.prune(now)

		if len(s.dispatched) >= s.limit {
			wait := window - now.Sub(s.dispatched[0]) + g.cfg.SafetyMargin
			g.mu.Unlock()
			g.logger.Debug("rate limit reached, waiting", "service", s.name, "wait", wait)
			select {
			case <-g.clock.After(wait):
			case <-g.done:
			}
			continue
		}

		req := s.pop()
		if req.ctx.Err() != nil {
			g.mu.Unlock()
			req.deliver(req.ctx.Err())
			continue
		}
		s.dispatched = append(s.dispatched, now)
		g.mu.Unlock()

		err := req.op(req.ctx)
		if err != nil {
			g.logger.Debug("operation failed", "service", s.name, "err", err)
		}
		req.deliver(err)

		if g.cfg.InterRequestDelay > 0 {
			select {
			case <-g.clock.After(g.cfg.InterRequestDelay):
			case <-g.done:
			}
		}
	}
}
