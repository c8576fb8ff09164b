// cmd/clivet/session.go
package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tamzrod/clivet-modbus/internal/config"
	"github.com/tamzrod/clivet-modbus/internal/poller"
)

// withPoller runs fn against a poller whose worker serves jobs without
// periodic refresh. reads, when given, replaces the configured read plan.
func withPoller(reads []config.ReadConfig, fn func(ctx context.Context, cfg *config.Config, p *poller.Poller) error) error {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}
	for _, r := range reads {
		if err := config.ValidateRead(r); err != nil {
			return err
		}
	}
	if len(reads) > 0 {
		cfg.Reads = reads
	}

	p, err := poller.Build(cfg, logger)
	if err != nil {
		return err
	}

	// every read range may take a full timeout
	budget := time.Duration(len(cfg.Reads)+2) * cfg.Device.Timeout()
	ctx, cancel := context.WithTimeout(context.Background(), budget)
	defer cancel()

	done := make(chan struct{})
	go func() {
		p.Serve(ctx)
		close(done)
	}()

	err = fn(ctx, cfg, p)
	cancel()
	<-done
	return err
}

// parseWord accepts decimal, 0x hex and 0b binary.
func parseWord(s string) (uint16, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return uint16(n), nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid switch value %q: use on or off", s)
}
