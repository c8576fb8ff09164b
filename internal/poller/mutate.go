// internal/poller/mutate.go
package poller

import (
	"errors"

	"github.com/tamzrod/clivet-modbus/internal/codec"
	"github.com/tamzrod/clivet-modbus/internal/registers"
)

// writeRegister writes one word, then re-reads it so the cache holds what
// the device accepted rather than what was asked for.
// Any failure after connecting surfaces as CommunicationFailure.
func (p *Poller) writeRegister(addr registers.Address, value uint16) error {
	if err := p.ensureConnected("write", addr); err != nil {
		return err
	}

	if err := p.client.WriteRegister(uint16(addr), value, p.cfg.DeviceID); err != nil {
		p.metrics.write("error")
		p.metrics.setConnected(p.client.Connected())
		p.log.Error().Err(err).Uint16("address", uint16(addr)).Uint16("value", value).Msg("register write failed")
		return communication("write", addr, err)
	}

	p.metrics.write("ok")
	p.log.Info().Uint16("address", uint16(addr)).Uint16("value", value).Msg("register written")

	if err := p.refreshAddress(addr); err != nil {
		if errors.Is(err, ErrCommunication) {
			return err
		}
		return communication("write", addr, err)
	}
	return nil
}

// writeBits reads the current word from the device, applies bits and
// writes the result back. No write happens when the word is unchanged.
func (p *Poller) writeBits(addr registers.Address, bits map[uint]bool) error {
	if err := p.ensureConnected("write_bit", addr); err != nil {
		return err
	}

	regs, err := p.client.ReadHoldingRegisters(uint16(addr), 1, p.cfg.DeviceID)
	if err != nil {
		p.metrics.setConnected(p.client.Connected())
		return communication("write_bit", addr, err)
	}
	if len(regs) == 0 {
		return communication("write_bit", addr, nil)
	}

	current := regs[0]
	next := codec.SetBits(current, bits)

	if next == current {
		p.metrics.write("skipped")
		p.log.Debug().Uint16("address", uint16(addr)).Msg("bit write skipped, word unchanged")
		// the read still refreshed our view of the word
		p.cache.Put(addr, current)
		return nil
	}

	return p.writeRegister(addr, next)
}

func (p *Poller) writeBit(addr registers.Address, bit uint, value bool) error {
	return p.writeBits(addr, map[uint]bool{bit: value})
}
