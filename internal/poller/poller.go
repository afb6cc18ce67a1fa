package poller

import (
	"log"
	"sync"
	"time"

	"github.com/restartfu/corepanel/internal/clock"
	"github.com/restartfu/corepanel/internal/domain"
	"github.com/restartfu/corepanel/internal/ports"
)

const (
	DefaultInterval = 2 * time.Second

	PlaceholderFrequency = "---"
	initialGlyph         = GlyphPowersave
)

// Poller owns one CoreState per logical CPU and refreshes them on a fixed
// cadence. Readers only ever see copies.
type Poller struct {
	source    ports.CoreSource
	scheduler clock.Scheduler
	interval  time.Duration
	logger    *log.Logger

	mu         sync.RWMutex
	cores      []domain.CoreState
	generation uint64
	disposed   bool
	stop       func()
	ticks      uint64
}

type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New allocates coreCount records. Nothing is polled until Start.
func New(coreCount int, source ports.CoreSource, scheduler clock.Scheduler, opts ...Option) *Poller {
	if coreCount < 0 {
		coreCount = 0
	}
	p := &Poller{
		source:    source,
		scheduler: scheduler,
		interval:  DefaultInterval,
		logger:    log.Default(),
		cores:     make([]domain.CoreState, coreCount),
	}
	for _, opt := range opts {
		opt(p)
	}
	for i := range p.cores {
		p.cores[i] = domain.CoreState{
			Index:          i,
			FrequencyLabel: PlaceholderFrequency,
			GovernorSymbol: initialGlyph,
			Status:         domain.CoreUninitialized,
		}
	}
	return p
}

// Start schedules Tick every interval, the first run happening right away.
// Calling Start twice or after Stop does nothing.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.disposed || p.stop != nil {
		p.mu.Unlock()
		return
	}
	p.stop = func() {}
	p.mu.Unlock()

	stop := p.scheduler.Every(p.interval, p.Tick)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		stop()
		return
	}
	p.stop = stop
}

// Tick refreshes every core in index order. Online status and governor
// glyphs are settled before Tick returns; frequency labels arrive later.
func (p *Poller) Tick() {
	online := p.source.OnlineProcessors()

	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	p.ticks++
	generation := p.generation
	count := len(p.cores)
	for i := range p.cores {
		core := &p.cores[i]
		core.IsOnline = core.Index < online
		if core.IsOnline {
			core.Status = domain.CoreOnline
		} else {
			core.Status = domain.CoreOffline
		}
		raw, ok := p.source.Governor(core.Index)
		if !ok {
			continue
		}
		if glyph, ok := GovernorGlyph(raw); ok {
			core.GovernorSymbol = glyph
		}
	}
	p.mu.Unlock()

	// Dispatched outside the lock: a source may complete synchronously.
	for i := 0; i < count; i++ {
		index := i
		p.source.QueryFrequency(index, func(label string) {
			p.completeFrequency(generation, index, label)
		})
	}
}

func (p *Poller) completeFrequency(generation uint64, index int, label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed || generation != p.generation || index < 0 || index >= len(p.cores) {
		return
	}
	p.cores[index].FrequencyLabel = label
}

// Stop cancels the schedule and marks every record Disposed. The records stay
// readable; frequency results still in flight are dropped when they arrive.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	p.disposed = true
	p.generation++
	stop := p.stop
	for i := range p.cores {
		p.cores[i].Status = domain.CoreDisposed
	}
	p.mu.Unlock()

	if stop != nil {
		stop()
	}
	p.logger.Printf("poller stopped")
}

func (p *Poller) Snapshot() []domain.CoreState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.CoreState, len(p.cores))
	copy(out, p.cores)
	return out
}

func (p *Poller) Ticks() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ticks
}

func (p *Poller) Interval() time.Duration {
	return p.interval
}
