package obd

import (
	"math"

	"gobd/internal/models"
)

// decoder selects one of the fixed per-PID conversions. The set is closed so
// that every registry entry's byte count can be checked against its decoder
// in tests rather than at runtime.
type decoder int

const (
	decodeByte decoder = iota // single raw byte
	decodeWord                // big-endian 16-bit
	decodeRPM                 // word / 4
	decodeTemp                // byte - 40 (°C)
	decodePercent             // byte * 100 / 255
	decodePercentWord         // word * 100 / 65535
	decodeMAF                 // word / 100 (g/s)
	decodeTiming              // byte / 2 - 64 (degrees)
	decodeVoltage             // word / 1000 (V)
	decodeFuelRate            // word * 0.05 (L/h)
	decodeFuelTrim            // (byte - 128) * 100 / 128 (%)
	decodeEvapPressure        // signed word / 4 (Pa)
	decodeMonitorStatus       // bit-flags, not scalar
)

// width returns the number of data bytes the decoder consumes.
func (d decoder) width() int {
	switch d {
	case decodeByte, decodeTemp, decodePercent, decodeTiming, decodeFuelTrim:
		return 1
	case decodeWord, decodeRPM, decodePercentWord, decodeMAF, decodeVoltage, decodeFuelRate, decodeEvapPressure:
		return 2
	case decodeMonitorStatus:
		return 4
	}
	return 0
}

// apply converts raw data bytes into a scalar reading. A short payload or a
// non-scalar decoder yields a not-OK reading, never a panic, so that one
// unsupported PID cannot abort a full scan.
func (d decoder) apply(data []byte) models.Reading {
	if len(data) < d.width() || d == decodeMonitorStatus {
		return models.Reading{}
	}

	var v float64
	switch d {
	case decodeByte:
		v = float64(data[0])
	case decodeWord:
		v = word(data)
	case decodeRPM:
		v = word(data) / 4
	case decodeTemp:
		v = float64(data[0]) - 40
	case decodePercent:
		v = round1(float64(data[0]) * 100 / 255)
	case decodePercentWord:
		v = round1(word(data) * 100 / 65535)
	case decodeMAF:
		v = round2(word(data) / 100)
	case decodeTiming:
		v = float64(data[0])/2 - 64
	case decodeVoltage:
		v = round3(word(data) / 1000)
	case decodeFuelRate:
		v = round2(word(data) * 0.05)
	case decodeFuelTrim:
		v = round1((float64(data[0]) - 128) * 100 / 128)
	case decodeEvapPressure:
		raw := int(data[0])*256 + int(data[1])
		if raw >= 32768 {
			raw -= 65536
		}
		v = round2(float64(raw) / 4)
	default:
		return models.Reading{}
	}
	return models.Reading{Value: v, OK: true}
}

// decodeMonitor converts the 4-byte monitor-status payload. Byte 0 carries
// the MIL bit (bit 7) and the stored DTC count (bits 0-6).
func decodeMonitor(data []byte) (models.MonitorStatus, bool) {
	if len(data) < 4 {
		return models.MonitorStatus{}, false
	}
	return models.MonitorStatus{
		MILOn:    data[0]&0x80 != 0,
		DTCCount: int(data[0] & 0x7F),
	}, true
}

func word(data []byte) float64 {
	return float64(int(data[0])*256 + int(data[1]))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
