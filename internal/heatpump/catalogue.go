// internal/heatpump/catalogue.go
package heatpump

import (
	"github.com/tamzrod/clivet-modbus/internal/codec"
	"github.com/tamzrod/clivet-modbus/internal/registers"
)

// Devices a field belongs to.
const (
	DeviceHeatPump   = "heat_pump"
	DeviceDHW        = "dhw"
	DeviceCompressor = "compressor"
)

// Presentation classes.
const (
	ClassProblem = "problem"
	ClassRunning = "running"
	ClassHeat    = "heat"
	ClassCold    = "cold"
)

// DefaultRanges is the fixed polling plan of a Sphera-T unit, in poll order.
var DefaultRanges = []registers.Range{
	{Start: 2600, Count: 18},
	{Start: 2700, Count: 12},
	{Start: 2800, Count: 7},
	{Start: 3000, Count: 8},
	{Start: 4200, Count: 79},
	{Start: 4300, Count: 19},
	{Start: 7000, Count: 6},
}

// ---- FIELD CONSTRUCTORS ----

func temperature(name, device string, addr registers.Address) codec.Field {
	return codec.Field{
		Name: name, Device: device, Kind: codec.KindNumeric, Address: addr,
		Bit: codec.NoBit, Scale: 0.1, Signed: true, Unit: "°C", Class: "temperature",
	}
}

func sensor(name, device string, addr registers.Address, scale float64, unit string) codec.Field {
	return codec.Field{
		Name: name, Device: device, Kind: codec.KindNumeric, Address: addr,
		Bit: codec.NoBit, Scale: scale, Unit: unit,
	}
}

func number(name, device string, addr registers.Address, scale float64, unit string, min, max float64) codec.Field {
	return codec.Field{
		Name: name, Device: device, Kind: codec.KindNumeric, Address: addr,
		Bit: codec.NoBit, Scale: scale, Signed: min < 0, Unit: unit,
		Min: min, Max: max, Writable: true,
	}
}

func switchBit(name, device string, addr registers.Address, bit int, invert bool) codec.Field {
	return codec.Field{
		Name: name, Device: device, Kind: codec.KindBoolean, Address: addr,
		Bit: bit, Invert: invert, Writable: true,
	}
}

func flag(name, device string, addr registers.Address, bit int, class string) codec.Field {
	return codec.Field{
		Name: name, Device: device, Kind: codec.KindBoolean, Address: addr,
		Bit: bit, Class: class,
	}
}

func modeMap(name, device string, addr registers.Address) codec.Field {
	return codec.Field{
		Name: name, Device: device, Kind: codec.KindStatus, Address: addr,
		Bit: codec.NoBit, Class: "enum",
		States: codec.StatusMap{
			{Code: 0, Label: "Off"},
			{Code: 2, Label: "Cooling"},
			{Code: 3, Label: "Heating"},
			{Code: 4, Label: "Forced Cooling"},
			{Code: 5, Label: "Water Heating"},
		},
	}
}

// ---- CATALOGUE ----

// Catalogue returns a fresh copy of the built-in Sphera-T field set.
// Field names are unique.
func Catalogue() []codec.Field {
	out := make([]codec.Field, 0, 128)

	// sensors
	out = append(out,
		temperature("dhw_current_setpoint", DeviceDHW, 2804),
		sensor("dhw_resistance_hours", DeviceDHW, 2805, 1, "h"),
		sensor("dhw_resistance_starts", DeviceDHW, 2806, 1, ""),
		temperature("current_setpoint", DeviceHeatPump, 4200),
		temperature("temperature_difference", DeviceHeatPump, 4201),
		sensor("resource_insertion_timer", DeviceHeatPump, 4202, 1, "s"),
		sensor("resource_insertion_timescan", DeviceHeatPump, 4203, 1, "s"),
		temperature("external_compensation", DeviceHeatPump, 4204),
		temperature("ambient_compensation", DeviceHeatPump, 4205),
		temperature("charge_compensation", DeviceHeatPump, 4207),
		temperature("duty_cycle_compensation", DeviceHeatPump, 4208),
		temperature("compensation_duration", DeviceHeatPump, 4209),
		temperature("water_inlet_temperature", DeviceHeatPump, 4210),
		temperature("water_outlet_temperature", DeviceHeatPump, 4211),
		temperature("outdoor_temperature", DeviceHeatPump, 4213),
		temperature("dhw_high_probe_temperature", DeviceHeatPump, 4215),
		sensor("utility_pump", DeviceHeatPump, 4216, 0.1, "%"),
		sensor("condensing_pressure", DeviceHeatPump, 4219, 0.01, "bar"),
		sensor("evaporating_pressure", DeviceHeatPump, 4220, 0.01, "bar"),
		sensor("auxiliary_heater_signal", DeviceHeatPump, 4221, 0.1, "%"),
		temperature("boiler_valves_control", DeviceHeatPump, 4223),
		sensor("thermoregulator_request", DeviceHeatPump, 4225, 0.1, "%"),
		sensor("compressor_signal", DeviceHeatPump, 4226, 0.1, "%"),
		sensor("compressor_hours", DeviceHeatPump, 4227, 1, "h"),
		sensor("compressor_starts", DeviceHeatPump, 4228, 1, ""),
		sensor("power_absorbed", DeviceCompressor, 4235, 0.1, "kW"),
		sensor("odu_current", DeviceCompressor, 4236, 0.1, "A"),
		sensor("odu_voltage", DeviceCompressor, 4237, 1, "V"),
		sensor("odu_frequency", DeviceCompressor, 4238, 0.1, "Hz"),
		temperature("return_temperature", DeviceHeatPump, 4248),
		temperature("discharge_temperature", DeviceHeatPump, 4249),
		sensor("regulation_valve_opening", DeviceHeatPump, 4252, 0.1, "%"),
		sensor("fan", DeviceHeatPump, 4262, 0.1, ""),
		temperature("dhw_setpoint", DeviceHeatPump, 4266),
		sensor("primary_flow_rate", DeviceHeatPump, 4273, 0.1, "L/min"),
		sensor("dhw_flow_rate", DeviceHeatPump, 4275, 0.1, "L/min"),
		sensor("dhw_total_consumption", DeviceHeatPump, 4276, 0.1, "L"),
		modeMap("set_operating_mode", DeviceCompressor, 4300),
		sensor("requested_frequency", DeviceCompressor, 4301, 1, "Hz"),
		sensor("operating_frequency", DeviceCompressor, 4302, 1, "Hz"),
		modeMap("odu_operating_mode", DeviceCompressor, 4303),
		sensor("fan_speed", DeviceCompressor, 4304, 0.1, ""),
		temperature("condenser_output_temperature", DeviceCompressor, 4305),
		temperature("outdoor_temperature_t4", DeviceCompressor, 4306),
		temperature("compressor_discharge_temperature", DeviceCompressor, 4307),
		sensor("inverter_protection_code", DeviceCompressor, 4308, 1, ""),
		sensor("odu_absorbed_current", DeviceCompressor, 4309, 1, "A"),
		sensor("odu_supply_voltage", DeviceCompressor, 4310, 1, "V"),
		temperature("thermostatic_opening", DeviceCompressor, 4311),
		sensor("error_code", DeviceCompressor, 4313, 1, ""),
		temperature("extraction_temperature", DeviceCompressor, 4315),
		sensor("pressure_transducer_1", DeviceCompressor, 4316, 0.01, "bar"),
		sensor("pressure_transducer_2", DeviceCompressor, 4317, 0.01, "bar"),
		sensor("lower_frequency_limit", DeviceHeatPump, 7000, 1, "Hz"),
		sensor("upper_frequency_limit", DeviceHeatPump, 7001, 1, "Hz"),
		sensor("thermoregulator_frequency", DeviceHeatPump, 7002, 1, "Hz"),
		sensor("odu_requested_frequency", DeviceHeatPump, 7003, 1, "Hz"),
		sensor("odu_current_frequency", DeviceHeatPump, 7004, 1, "Hz"),
		sensor("defrost_frequency", DeviceHeatPump, 7005, 1, "Hz"),
	)

	// writable numbers
	out = append(out,
		number("demand_limit", DeviceHeatPump, 2614, 1, "kW", 0, 10),
		number("sanitary_band", DeviceDHW, 2702, 0.1, "°C", 0, 20),
		number("anti_legionella_setpoint", DeviceDHW, 2704, 0.1, "°C", 55, 70),
		number("anti_legionella_interval", DeviceDHW, 2706, 1, "min", 0, 65535),
	)

	// switches
	out = append(out,
		switchBit("system_status", DeviceHeatPump, 2600, 0, false),
		switchBit("heat_cool_mode", DeviceHeatPump, 2600, 2, false),
		switchBit("cool_heat_mode", DeviceHeatPump, 2600, 2, true),
		switchBit("dhw_only_mode", DeviceHeatPump, 2600, 4, false),
		switchBit("room_thermoregulation_request", DeviceHeatPump, 2600, 9, false),
		switchBit("remote_unit_mode", DeviceHeatPump, 2601, 2, false),
		switchBit("remote_dhw_only", DeviceHeatPump, 2601, 4, false),
		switchBit("remote_unit_state", DeviceHeatPump, 2601, 5, false),
		switchBit("remote_demand_limit", DeviceHeatPump, 2601, 15, false),
		switchBit("thermoregulation_request", DeviceHeatPump, 2602, 1, false),
		switchBit("remote_dhw_control", DeviceHeatPump, 2602, 3, false),
		switchBit("dhw_remote_control", DeviceDHW, 2709, 0, false),
		switchBit("dhw_remote_storage_setpoint", DeviceDHW, 2709, 1, false),
		switchBit("dhw_remote_range", DeviceDHW, 2709, 2, false),
		switchBit("dhw_remote_maintenance_setpoint", DeviceDHW, 2709, 3, false),
		switchBit("dhw_remote_anti_legionella_setpoint", DeviceDHW, 2709, 4, false),
		switchBit("dhw_remote_anti_legionella_interval", DeviceDHW, 2709, 6, false),
	)

	// binary status
	out = append(out,
		codec.Field{Name: "auxiliary_heater", Device: DeviceHeatPump, Kind: codec.KindBoolean, Address: 4222, Bit: codec.NoBit},
		codec.Field{Name: "cooling_mode", Device: DeviceHeatPump, Kind: codec.KindBooleanSplit, Address: 4263, Bit: 1, BitValue: false, Class: ClassCold},
		codec.Field{Name: "heating_mode", Device: DeviceHeatPump, Kind: codec.KindBooleanSplit, Address: 4263, Bit: 1, BitValue: true, Class: ClassHeat},
	)
	out = append(out, bits(DeviceDHW, 2801, []bitDef{{3, "anti_legionella", ClassRunning}})...)
	out = append(out, bits(DeviceDHW, 2803, []bitDef{{0, "dhw_resistance", ""}, {1, "dhw_pump", ClassRunning}})...)
	out = append(out, bits(DeviceHeatPump, 3000, []bitDef{
		{0, "alarm_e00_timeout_tast", ClassProblem},
		{1, "alarm_e01_probe_in", ClassProblem},
		{2, "alarm_e02_probe_out", ClassProblem},
		{3, "alarm_e03_probe_ext", ClassProblem},
		{4, "alarm_e04_probe_battery", ClassProblem},
		{8, "alarm_e08_probe_press1", ClassProblem},
		{14, "alarm_f01_hp1_circ1", ClassProblem},
		{15, "alarm_f02_lp1_circ1", ClassProblem},
	})...)
	out = append(out, bits(DeviceHeatPump, 3001, []bitDef{
		{0, "alarm_e26_thermal1", ClassProblem},
		{4, "alarm_e23_fan_thermal", ClassProblem},
		{15, "alarm_i01_pump_flow", ClassProblem},
	})...)
	out = append(out, bits(DeviceHeatPump, 3002, []bitDef{
		{3, "alarm_i03_frost", ClassProblem},
		{6, "alarm_i06_load", ClassProblem},
		{7, "alarm_i07_delta_t", ClassProblem},
		{9, "alarm_i09_antifreeze", ClassProblem},
		{11, "alarm_i11_tin_out_of_range", ClassProblem},
		{12, "alarm_i12_exchanger", ClassProblem},
		{13, "alarm_i13_room_frost", ClassProblem},
		{15, "alarm_e14_power_timeout", ClassProblem},
	})...)
	out = append(out, bits(DeviceHeatPump, 3003, []bitDef{{1, "alarm_f10_max_ts", ClassProblem}})...)
	out = append(out, bits(DeviceHeatPump, 3004, []bitDef{
		{0, "alarm_e15_probe_solar", ClassProblem},
		{2, "alarm_e16_probe_dhw", ClassProblem},
		{6, "alarm_e18_probe_discharge", ClassProblem},
		{7, "alarm_e19_probe_suction", ClassProblem},
		{14, "alarm_i15_dhw_load", ClassProblem},
	})...)
	out = append(out, bits(DeviceHeatPump, 3006, []bitDef{
		{2, "alarm_e32_inverter", ClassProblem},
		{3, "alarm_e58_probe_solar_dhw", ClassProblem},
		{6, "alarm_e46_boiler", ClassProblem},
		{7, "alarm_e47_io_timeout", ClassProblem},
		{9, "alarm_i22_high_temperature", ClassProblem},
		{10, "alarm_f22_out_of_envelope", ClassProblem},
	})...)
	out = append(out, bits(DeviceHeatPump, 3007, []bitDef{
		{0, "alarm_e59_condenser_outlet", ClassProblem},
		{1, "alarm_e60_odu_power_supply", ClassProblem},
		{2, "alarm_f22_fan_speed", ClassProblem},
		{3, "alarm_e61_odu_eeprom", ClassProblem},
		{4, "alarm_e62_fan", ClassProblem},
		{5, "alarm_f23_lp_protection", ClassProblem},
		{6, "alarm_e63_dc_voltage_low", ClassProblem},
	})...)
	out = append(out, bits(DeviceHeatPump, 4263, []bitDef{
		{0, "unit_status", ""},
		{3, "only_boiler", ""},
		{4, "only_dhw", ""},
		{5, "defrosting", ""},
		{6, "cycle_reverse", ""},
		{7, "any_alarm", ClassProblem},
		{8, "dhw_valve", ""},
		{10, "additional_heating", ""},
		{11, "oil_return", ""},
	})...)
	out = append(out, bits(DeviceDHW, 4264, []bitDef{
		{4, "dhw_production_hp", ""},
		{5, "dhw_production_boiler", ""},
		{7, "dhw_in_anti_legionella", ""},
		{8, "dhw_pump_status", ""},
	})...)
	out = append(out, bits(DeviceCompressor, 4314, []bitDef{
		{0, "compressor_status", ""},
		{1, "compressor_defrosting", ""},
		{3, "compressor_oil_return", ""},
		{5, "compressor_test_mode", ""},
	})...)

	return out
}

type bitDef struct {
	bit   int
	name  string
	class string
}

// bits expands a bit -> label map into one boolean field per bit.
func bits(device string, addr registers.Address, defs []bitDef) []codec.Field {
	out := make([]codec.Field, 0, len(defs))
	for _, d := range defs {
		out = append(out, flag(d.name, device, addr, d.bit, d.class))
	}
	return out
}
