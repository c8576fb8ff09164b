// internal/poller/runner.go
package poller

import (
	"context"
	"time"

	"github.com/tamzrod/clivet-modbus/internal/registers"
)

// Run refreshes once immediately, then every Interval, and serves
// submitted jobs in between. One goroutine per device. No overlap.
// No retries. The transport is closed on return.
func (p *Poller) Run(ctx context.Context) {
	defer p.client.Close()

	_ = p.cycle()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.loop(ctx, ticker.C)
}

// Serve runs the worker without periodic refresh, for one-shot callers.
// The transport is closed on return.
func (p *Poller) Serve(ctx context.Context) {
	defer p.client.Close()
	p.loop(ctx, nil)
}

func (p *Poller) loop(ctx context.Context, tick <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			_ = p.cycle()
		case req := <-p.requests:
			req.reply <- req.fn()
		}
	}
}

// submit hands fn to the worker and waits for its result. Cancelling ctx
// abandons the wait; a job already accepted still runs to completion.
func (p *Poller) submit(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)

	select {
	case p.requests <- request{fn: fn, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ---- public operations ----

// Refresh runs one full refresh cycle now.
func (p *Poller) Refresh(ctx context.Context) error {
	return p.submit(ctx, p.cycle)
}

// RefreshAddress re-reads a single register.
func (p *Poller) RefreshAddress(ctx context.Context, addr registers.Address) error {
	return p.submit(ctx, func() error { return p.refreshAddress(addr) })
}

// WriteRegister writes a raw word and refreshes it from the device.
func (p *Poller) WriteRegister(ctx context.Context, addr registers.Address, value uint16) error {
	return p.submit(ctx, func() error { return p.writeRegister(addr, value) })
}

// WriteBit sets or clears one bit with a read-modify-write. Nothing is
// written when the bit already has the requested value.
func (p *Poller) WriteBit(ctx context.Context, addr registers.Address, bit uint, value bool) error {
	return p.submit(ctx, func() error { return p.writeBit(addr, bit, value) })
}

// WriteBits is WriteBit for several bits of one word.
func (p *Poller) WriteBits(ctx context.Context, addr registers.Address, bits map[uint]bool) error {
	return p.submit(ctx, func() error { return p.writeBits(addr, bits) })
}
