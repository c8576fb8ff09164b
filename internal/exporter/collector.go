// internal/exporter/collector.go
package exporter

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tamzrod/clivet-modbus/internal/codec"
	"github.com/tamzrod/clivet-modbus/internal/heatpump"
	"github.com/tamzrod/clivet-modbus/internal/registers"
)

// Collector decodes the register cache at scrape time.
// Unknown values are omitted rather than exported as zero.
type Collector struct {
	fields []codec.Field
	src    registers.Getter

	value  *prometheus.Desc
	state  *prometheus.Desc
	dhw    *prometheus.Desc
	target *prometheus.Desc
}

// NewCollector exports fields read from src, labelled with the device identity.
func NewCollector(uniqueID string, fields []codec.Field, src registers.Getter) *Collector {
	constLabels := prometheus.Labels{"unique_id": uniqueID}

	return &Collector{
		fields: fields,
		src:    src,
		value: prometheus.NewDesc(
			"clivet_field_value",
			"Decoded field value; booleans are 0 or 1.",
			[]string{"field", "device", "unit"}, constLabels,
		),
		state: prometheus.NewDesc(
			"clivet_field_state",
			"Raw code of a status field, labelled with its state.",
			[]string{"field", "device", "state"}, constLabels,
		),
		dhw: prometheus.NewDesc(
			"clivet_water_heater_mode",
			"1 for the current water heater operating mode.",
			[]string{"mode"}, constLabels,
		),
		target: prometheus.NewDesc(
			"clivet_water_heater_target_celsius",
			"Active water heater target temperature.",
			nil, constLabels,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.value
	ch <- c.state
	ch <- c.dhw
	ch <- c.target
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, f := range c.fields {
		r := f.Decode(c.src.Get(f.Address))
		if !r.Known {
			continue
		}

		switch r.Kind {
		case codec.KindNumeric:
			ch <- prometheus.MustNewConstMetric(c.value, prometheus.GaugeValue, r.Number, r.Field, r.Device, f.Unit)
		case codec.KindBoolean, codec.KindBooleanSplit:
			ch <- prometheus.MustNewConstMetric(c.value, prometheus.GaugeValue, boolValue(r.Bool), r.Field, r.Device, "")
		case codec.KindStatus:
			ch <- prometheus.MustNewConstMetric(c.state, prometheus.GaugeValue, float64(r.Status.Code), r.Field, r.Device, r.Status.Label)
		}
	}

	wh := heatpump.DeriveWaterHeater(c.src)
	if wh.Available() {
		ch <- prometheus.MustNewConstMetric(c.dhw, prometheus.GaugeValue, 1, string(wh.Mode))
	}
	if wh.Target != nil {
		ch <- prometheus.MustNewConstMetric(c.target, prometheus.GaugeValue, *wh.Target)
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
