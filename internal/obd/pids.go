package obd

import (
	"errors"
	"fmt"
)

// ErrUnknownPID is returned when a caller asks for a key that is not in the
// registry. This is a programming error, not a runtime condition, so it is
// surfaced instead of yielding an empty reading.
var ErrUnknownPID = errors.New("unknown PID key")

// Descriptor describes one OBD-II parameter: how to request it and how to
// decode the reply. Descriptors are immutable registry entries.
type Descriptor struct {
	Key   string
	Desc  string
	Mode  byte
	PID   byte
	Bytes int
	Unit  string

	// Alert thresholds. HasLow/HasHigh distinguish "no threshold" from a
	// threshold of zero.
	AlertLow  float64
	AlertHigh float64
	HasLow    bool
	HasHigh   bool

	decode decoder
}

// Command returns the request string sent to the adapter, e.g. "010C".
func (d Descriptor) Command() string {
	return fmt.Sprintf("%02X%02X", d.Mode, d.PID)
}

// Scalar reports whether the descriptor decodes to a single numeric value.
// Multi-field PIDs (monitor status) are excluded from bulk scans and read
// individually.
func (d Descriptor) Scalar() bool {
	return d.decode != decodeMonitorStatus
}

// The registry. Insertion order is display/export column order.
var registry = []Descriptor{
	{Key: "MONITOR_STATUS", Desc: "MIL / Monitor Status", Mode: 0x01, PID: 0x01, Bytes: 4, decode: decodeMonitorStatus},
	{Key: "RPM", Desc: "Engine RPM", Mode: 0x01, PID: 0x0C, Bytes: 2, decode: decodeRPM, Unit: "rpm", AlertHigh: 6500, HasHigh: true},
	{Key: "SPEED", Desc: "Vehicle Speed", Mode: 0x01, PID: 0x0D, Bytes: 1, decode: decodeByte, Unit: "km/h", AlertHigh: 200, HasHigh: true},
	{Key: "COOLANT_TEMP", Desc: "Engine Coolant Temperature", Mode: 0x01, PID: 0x05, Bytes: 1, decode: decodeTemp, Unit: "°C", AlertHigh: 105, HasHigh: true},
	{Key: "ENGINE_LOAD", Desc: "Calculated Engine Load", Mode: 0x01, PID: 0x04, Bytes: 1, decode: decodePercent, Unit: "%", AlertHigh: 95, HasHigh: true},
	{Key: "THROTTLE", Desc: "Throttle Position", Mode: 0x01, PID: 0x11, Bytes: 1, decode: decodePercent, Unit: "%"},
	{Key: "MAF", Desc: "Mass Air Flow Rate", Mode: 0x01, PID: 0x10, Bytes: 2, decode: decodeMAF, Unit: "g/s"},
	{Key: "INTAKE_TEMP", Desc: "Intake Air Temperature", Mode: 0x01, PID: 0x0F, Bytes: 1, decode: decodeTemp, Unit: "°C", AlertHigh: 60, HasHigh: true},
	{Key: "MAP", Desc: "Intake Manifold Absolute Pressure", Mode: 0x01, PID: 0x0B, Bytes: 1, decode: decodeByte, Unit: "kPa"},
	{Key: "TIMING_ADVANCE", Desc: "Timing Advance", Mode: 0x01, PID: 0x0E, Bytes: 1, decode: decodeTiming, Unit: "° before TDC"},
	{Key: "OIL_TEMP", Desc: "Engine Oil Temperature", Mode: 0x01, PID: 0x5C, Bytes: 1, decode: decodeTemp, Unit: "°C", AlertHigh: 130, HasHigh: true},
	{Key: "FUEL_LEVEL", Desc: "Fuel Tank Level", Mode: 0x01, PID: 0x2F, Bytes: 1, decode: decodePercent, Unit: "%", AlertLow: 10, HasLow: true},
	{Key: "FUEL_RATE", Desc: "Engine Fuel Rate", Mode: 0x01, PID: 0x5E, Bytes: 2, decode: decodeFuelRate, Unit: "L/h"},
	{Key: "SHORT_FUEL_TRIM_1", Desc: "Short Term Fuel Trim (Bank 1)", Mode: 0x01, PID: 0x06, Bytes: 1, decode: decodeFuelTrim, Unit: "%"},
	{Key: "LONG_FUEL_TRIM_1", Desc: "Long Term Fuel Trim (Bank 1)", Mode: 0x01, PID: 0x07, Bytes: 1, decode: decodeFuelTrim, Unit: "%"},
	{Key: "VOLTAGE", Desc: "Control Module Voltage", Mode: 0x01, PID: 0x42, Bytes: 2, decode: decodeVoltage, Unit: "V", AlertLow: 11.5, HasLow: true},
	{Key: "BARO_PRESSURE", Desc: "Barometric Pressure", Mode: 0x01, PID: 0x33, Bytes: 1, decode: decodeByte, Unit: "kPa"},
	{Key: "AMBIENT_TEMP", Desc: "Ambient Air Temperature", Mode: 0x01, PID: 0x46, Bytes: 1, decode: decodeTemp, Unit: "°C"},
	{Key: "RUNTIME", Desc: "Engine Run Time", Mode: 0x01, PID: 0x1F, Bytes: 2, decode: decodeWord, Unit: "s"},
	{Key: "DISTANCE_MIL", Desc: "Distance Traveled with MIL On", Mode: 0x01, PID: 0x21, Bytes: 2, decode: decodeWord, Unit: "km"},
	{Key: "DISTANCE_SINCE_CLR", Desc: "Distance Since DTCs Cleared", Mode: 0x01, PID: 0x31, Bytes: 2, decode: decodeWord, Unit: "km"},
	{Key: "WARMUPS_SINCE_CLR", Desc: "Warm-ups Since DTCs Cleared", Mode: 0x01, PID: 0x30, Bytes: 1, decode: decodeByte, Unit: "count"},
	{Key: "ABS_LOAD", Desc: "Absolute Load Value", Mode: 0x01, PID: 0x43, Bytes: 2, decode: decodePercentWord, Unit: "%"},
	{Key: "EVAP_PRESSURE", Desc: "Evap System Vapor Pressure", Mode: 0x01, PID: 0x32, Bytes: 2, decode: decodeEvapPressure, Unit: "Pa"},
}

var registryByKey = func() map[string]Descriptor {
	m := make(map[string]Descriptor, len(registry))
	for _, d := range registry {
		if _, dup := m[d.Key]; dup {
			panic("duplicate PID key: " + d.Key)
		}
		m[d.Key] = d
	}
	return m
}()

// Lookup returns the descriptor for key or an ErrUnknownPID-wrapped error.
func Lookup(key string) (Descriptor, error) {
	d, ok := registryByKey[key]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownPID, key)
	}
	return d, nil
}

// Keys returns all registry keys in registration order.
func Keys() []string {
	keys := make([]string, 0, len(registry))
	for _, d := range registry {
		keys = append(keys, d.Key)
	}
	return keys
}

// ScanKeys returns the keys included in bulk scans: registration order,
// multi-field PIDs excluded.
func ScanKeys() []string {
	keys := make([]string, 0, len(registry))
	for _, d := range registry {
		if d.Scalar() {
			keys = append(keys, d.Key)
		}
	}
	return keys
}

// Vehicle information PIDs (Mode 09).
const (
	ModeVehicleInfo byte = 0x09

	PIDVIN           byte = 0x02
	PIDCalibrationID byte = 0x04
	PIDECUName       byte = 0x0A
)
