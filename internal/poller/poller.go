// internal/poller/poller.go
package poller

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/clivet-modbus/internal/registers"
)

// Client abstracts the Modbus operations the poller needs.
// The poller depends on geometry only.
type Client interface {
	Connect() error
	Close() error
	Connected() bool
	ReadHoldingRegisters(addr, qty uint16, deviceID uint8) ([]uint16, error) // FC 3
	WriteRegister(addr, value uint16, deviceID uint8) error                  // FC 6
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	UniqueID string
	DeviceID uint8
	Interval time.Duration
	Ranges   []registers.Range
}

// Poller owns the transport and the register cache. The transport is only
// touched from the worker goroutine started by Run or Serve; every other
// caller submits a job and waits for its reply.
type Poller struct {
	cfg     Config
	client  Client
	cache   *registers.Cache
	log     zerolog.Logger
	metrics *Metrics
	now     func() time.Time

	requests chan request

	obsMu     sync.Mutex
	observers map[int]func(Update)
	nextObs   int

	// worker-owned
	everConnected bool
}

// Option configures a Poller.
type Option func(*Poller)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Poller) { p.log = l }
}

// WithMetrics records activity into m.
func WithMetrics(m *Metrics) Option {
	return func(p *Poller) { p.metrics = m }
}

// New creates a poller with immutable config.
func New(cfg Config, client Client, opts ...Option) (*Poller, error) {
	if client == nil {
		return nil, errors.New("poller: client required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if len(cfg.Ranges) == 0 {
		return nil, errors.New("poller: at least one read range required")
	}
	for _, r := range cfg.Ranges {
		if r.Count == 0 {
			return nil, errors.New("poller: read range with zero count")
		}
	}

	p := &Poller{
		cfg:       cfg,
		client:    client,
		log:       zerolog.Nop(),
		now:       time.Now,
		cache:     registers.NewCache(),
		requests:  make(chan request),
		observers: make(map[int]func(Update)),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With().Str("device", cfg.UniqueID).Logger()
	return p, nil
}

// Cache returns the register cache. Readers may use it from any goroutine.
func (p *Poller) Cache() *registers.Cache { return p.cache }

// Get returns the last known value at addr.
func (p *Poller) Get(addr registers.Address) registers.Value { return p.cache.Get(addr) }

// UniqueID returns the device identity string.
func (p *Poller) UniqueID() string { return p.cfg.UniqueID }

// ---- OBSERVERS ----

// Subscribe registers fn for every Update. fn runs on the worker
// goroutine, so it must not block and must not call back into the poller
// synchronously. The returned func unsubscribes.
func (p *Poller) Subscribe(fn func(Update)) (cancel func()) {
	p.obsMu.Lock()
	id := p.nextObs
	p.nextObs++
	p.observers[id] = fn
	p.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.obsMu.Lock()
			delete(p.observers, id)
			p.obsMu.Unlock()
		})
	}
}

func (p *Poller) notify(u Update) {
	p.obsMu.Lock()
	fns := make([]func(Update), 0, len(p.observers))
	for _, fn := range p.observers {
		fns = append(fns, fn)
	}
	p.obsMu.Unlock()

	for _, fn := range fns {
		fn(u)
	}
}

// ---- CONNECTION ----

// ensureConnected connects when needed. Failure is Offline.
func (p *Poller) ensureConnected(op string, addr registers.Address) error {
	if p.client.Connected() {
		return nil
	}
	if err := p.client.Connect(); err != nil {
		p.metrics.setConnected(false)
		return offline(op, addr, err)
	}
	if !p.client.Connected() {
		p.metrics.setConnected(false)
		return offline(op, addr, nil)
	}

	if !p.everConnected {
		p.log.Info().Msg("connected")
	} else {
		p.log.Info().Msg("reconnected")
	}
	p.everConnected = true
	p.metrics.setConnected(true)
	return nil
}

// readFault records an I/O fault. The transport already dropped the link.
func (p *Poller) readFault() {
	p.metrics.rangeRead("fault")
	p.metrics.setConnected(p.client.Connected())
}

// ---- REFRESH CYCLE ----

// pollOnce performs exactly one refresh cycle.
// Ranges are read in order. An exception reply skips that range only;
// Offline or an I/O fault aborts the cycle. Ranges merged before the
// abort stay merged.
func (p *Poller) pollOnce() error {
	for _, r := range p.cfg.Ranges {
		if err := p.ensureConnected("poll", r.Start); err != nil {
			return err
		}

		regs, err := p.client.ReadHoldingRegisters(uint16(r.Start), r.Count, p.cfg.DeviceID)
		if err != nil {
			if IsException(err) {
				p.metrics.rangeRead("exception")
				p.log.Error().
					Err(err).
					Uint16("address", uint16(r.Start)).
					Uint16("count", r.Count).
					Msg("range read rejected by device, skipping")
				continue
			}
			p.readFault()
			return communication("poll", r.Start, err)
		}

		p.metrics.rangeRead("ok")
		p.cache.PutRange(r.Start, regs)
	}
	return nil
}

// cycle runs pollOnce, logs the outcome and notifies observers.
func (p *Poller) cycle() error {
	start := p.now()
	err := p.pollOnce()
	p.metrics.cycle(resultLabel(err), p.now().Sub(start))

	switch {
	case err == nil:
	case errors.Is(err, ErrOffline) && !p.everConnected:
		// nothing useful to say until the first successful connect
		p.log.Debug().Err(err).Msg("refresh failed")
	default:
		p.log.Warn().Err(err).Msg("refresh failed")
	}

	p.notify(Update{Kind: UpdateCycle, At: p.now(), Err: err})
	return err
}

// refreshAddress re-reads one register. The cache is updated only when a
// value comes back; an exception reply is logged, not raised. Observers
// are notified unless the read failed hard.
func (p *Poller) refreshAddress(addr registers.Address) error {
	if err := p.ensureConnected("read", addr); err != nil {
		return err
	}

	regs, err := p.client.ReadHoldingRegisters(uint16(addr), 1, p.cfg.DeviceID)
	switch {
	case err == nil:
		if len(regs) > 0 {
			p.cache.Put(addr, regs[0])
		}
	case IsException(err):
		p.log.Error().Err(err).Uint16("address", uint16(addr)).Msg("register read rejected by device")
	default:
		p.readFault()
		return communication("read", addr, err)
	}

	p.notify(Update{Kind: UpdateAddress, Address: addr, At: p.now()})
	return nil
}
