// cmd/clivet/read.go
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tamzrod/clivet-modbus/internal/config"
	"github.com/tamzrod/clivet-modbus/internal/poller"
	"github.com/tamzrod/clivet-modbus/internal/registers"
)

var readCmd = &cobra.Command{
	Use:   "read <address> [count]",
	Short: "Read raw holding registers",
	Example: `  clivet read 2600 18 --host 192.168.1.40
  clivet read 0x0A28 --serial-port /dev/ttyUSB0`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := parseWord(args[0])
		if err != nil {
			return err
		}
		count := uint16(1)
		if len(args) == 2 {
			n, err := strconv.ParseUint(args[1], 10, 16)
			if err != nil {
				return fmt.Errorf("invalid count %q", args[1])
			}
			count = uint16(n)
		}

		reads := []config.ReadConfig{{Address: addr, Count: count}}
		if err := config.ValidateRead(reads[0]); err != nil {
			return err
		}

		return withPoller(reads, func(ctx context.Context, cfg *config.Config, p *poller.Poller) error {
			if err := p.Refresh(ctx); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ADDRESS\tDEC\tHEX\tBIN")
			r := registers.Range{Start: registers.Address(addr), Count: count}
			for a := uint32(r.Start); a <= uint32(r.End()); a++ {
				v := p.Get(registers.Address(a))
				if !v.Known {
					fmt.Fprintf(tw, "%d\tunknown\t\t\n", a)
					continue
				}
				fmt.Fprintf(tw, "%d\t%d\t0x%04X\t%016b\n", a, v.Word, v.Word, v.Word)
			}
			return tw.Flush()
		})
	},
}
