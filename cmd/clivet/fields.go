// cmd/clivet/fields.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tamzrod/clivet-modbus/internal/codec"
	"github.com/tamzrod/clivet-modbus/internal/config"
	"github.com/tamzrod/clivet-modbus/internal/heatpump"
	"github.com/tamzrod/clivet-modbus/internal/poller"
	"github.com/tamzrod/clivet-modbus/internal/writer"
)

var fieldsJSON bool

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Run one refresh cycle and decode every known field",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPoller(nil, func(ctx context.Context, cfg *config.Config, p *poller.Poller) error {
			refreshErr := p.Refresh(ctx)

			fields := append(heatpump.Catalogue(), config.CustomFields(cfg)...)

			if fieldsJSON {
				msg := writer.BuildState(p.UniqueID(), fields, p, poller.Update{Kind: poller.UpdateCycle, At: time.Now(), Err: refreshErr})
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(msg)
			}

			fmt.Printf("%s  %s\n\n", heatpump.ModelName(p), p.UniqueID())

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FIELD\tDEVICE\tADDRESS\tVALUE")
			for _, r := range codec.DecodeAll(fields, p) {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.Field, r.Device, r.Address, formatReading(r, fields))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			wh := heatpump.DeriveWaterHeater(p)
			if wh.Available() {
				fmt.Printf("\nwater heater: %s", wh.Mode)
				if wh.Target != nil {
					fmt.Printf(", target %.1f °C (max %.0f)", *wh.Target, wh.MaxTemp)
				}
				fmt.Println()
			}

			return refreshErr
		})
	},
}

func init() {
	fieldsCmd.Flags().BoolVar(&fieldsJSON, "json", false, "print the state message as JSON")
}

func formatReading(r codec.Reading, fields []codec.Field) string {
	if !r.Known {
		return "unknown"
	}
	switch r.Kind {
	case codec.KindNumeric:
		f, _ := codec.Find(fields, r.Field)
		if f.Unit == "" {
			return fmt.Sprintf("%g", r.Number)
		}
		return fmt.Sprintf("%g %s", r.Number, f.Unit)
	case codec.KindBoolean, codec.KindBooleanSplit:
		if r.Bool {
			return "on"
		}
		return "off"
	case codec.KindStatus:
		return r.Status.Label
	}
	return ""
}
