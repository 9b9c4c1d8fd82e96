package obd

import (
	"strconv"
	"strings"
)

// NotAvailable is the sentinel string returned when a Mode 09 text field
// cannot be recovered from the reply.
const NotAvailable = "N/A"

// parseVIN extracts the vehicle identification number from a raw Mode 09
// PID 02 reply. Multi-frame replies arrive pre-concatenated by the
// connector. Everything up to and including the positive-response marker
// (49) is discarded; the bytes that follow include a frame-continuation
// counter and the PID echo, neither of which is printable ASCII, so
// filtering on the printable range is enough to drop them.
func parseVIN(raw string) string {
	tokens := hexTokens(raw)

	var sb strings.Builder
	collecting := false
	for _, t := range tokens {
		if !collecting {
			if t == "49" {
				collecting = true
			}
			continue
		}
		v, err := strconv.ParseUint(t, 16, 8)
		if err != nil {
			continue
		}
		if v >= 0x20 && v <= 0x7E {
			sb.WriteByte(byte(v))
		}
	}

	vin := strings.TrimSpace(sb.String())
	if len(vin) < 5 {
		return NotAvailable
	}
	return vin
}

// parseASCII collects printable ASCII from a Mode 09 string reply (ECU name,
// calibration ID). Unlike the VIN there is no minimum length.
func parseASCII(raw string) string {
	var sb strings.Builder
	for _, t := range hexTokens(raw) {
		v, err := strconv.ParseUint(t, 16, 8)
		if err != nil {
			continue
		}
		if v >= 0x20 && v <= 0x7E {
			sb.WriteByte(byte(v))
		}
	}
	s := strings.TrimSpace(sb.String())
	if s == "" {
		return NotAvailable
	}
	return s
}
