package obd

import (
	"fmt"
	"strconv"
	"strings"
)

// dtcSystems maps the top two bits of the first DTC byte to the system
// letter per SAE J2012.
var dtcSystems = [4]byte{'P', 'C', 'B', 'U'}

// parseDTCs decodes a Mode 03 (stored) or Mode 07 (pending) reply into
// 5-character code strings, in reply order. An all-zero byte pair is frame
// padding, not a code.
func parseDTCs(raw string) []string {
	tokens := hexTokens(raw)

	// Drop the leading response-mode byte (43 = stored, 47 = pending).
	if len(tokens) > 0 && (tokens[0] == "43" || tokens[0] == "47") {
		tokens = tokens[1:]
	}

	var codes []string
	for i := 0; i+1 < len(tokens); i += 2 {
		high, err1 := strconv.ParseUint(tokens[i], 16, 8)
		low, err2 := strconv.ParseUint(tokens[i+1], 16, 8)
		if err1 != nil || err2 != nil {
			break
		}
		if high == 0 && low == 0 {
			continue
		}
		code := fmt.Sprintf("%c%d%X%X%X",
			dtcSystems[(high&0xC0)>>6],
			(high&0x30)>>4,
			high&0x0F,
			(low&0xF0)>>4,
			low&0x0F,
		)
		codes = append(codes, code)
	}
	return codes
}

// DescribeDTC returns a human-readable description for common codes, or a
// category hint when the exact code is not in the table.
func DescribeDTC(code string) string {
	if desc, ok := dtcDescriptions[code]; ok {
		return desc
	}
	switch {
	case strings.HasPrefix(code, "P"):
		return "Powertrain fault"
	case strings.HasPrefix(code, "C"):
		return "Chassis fault"
	case strings.HasPrefix(code, "B"):
		return "Body fault"
	case strings.HasPrefix(code, "U"):
		return "Network fault"
	}
	return "Unknown DTC"
}

var dtcDescriptions = map[string]string{
	"P0101": "Mass Air Flow Circuit Range/Performance",
	"P0102": "Mass Air Flow Circuit Low Input",
	"P0103": "Mass Air Flow Circuit High Input",
	"P0171": "System Too Lean (Bank 1)",
	"P0172": "System Too Rich (Bank 1)",
	"P0174": "System Too Lean (Bank 2)",
	"P0175": "System Too Rich (Bank 2)",
	"P0300": "Random/Multiple Cylinder Misfire Detected",
	"P0301": "Cylinder 1 Misfire Detected",
	"P0302": "Cylinder 2 Misfire Detected",
	"P0303": "Cylinder 3 Misfire Detected",
	"P0304": "Cylinder 4 Misfire Detected",
	"P0401": "Exhaust Gas Recirculation Flow Insufficient",
	"P0402": "Exhaust Gas Recirculation Flow Excessive",
	"P0420": "Catalyst System Efficiency Below Threshold",
	"P0440": "Evaporative Emission Control System Malfunction",
	"P0441": "Evaporative Emission Control System Incorrect Purge Flow",
	"P0442": "Evaporative Emission Control System Leak Detected (Small)",
	"P0455": "Evaporative Emission Control System Leak Detected (Large)",
	"P0500": "Vehicle Speed Sensor Malfunction",
	"P0505": "Idle Control System Malfunction",
	"P0506": "Idle Control System RPM Lower Than Expected",
	"P0507": "Idle Control System RPM Higher Than Expected",
	"U0001": "High Speed CAN Communication Bus",
	"U0100": "Lost Communication With ECM/PCM",
	"U0101": "Lost Communication With TCM",
	"U0121": "Lost Communication With ABS Module",
	"U0140": "Lost Communication With Body Control Module",
	"U0155": "Lost Communication With Instrument Cluster",
}
