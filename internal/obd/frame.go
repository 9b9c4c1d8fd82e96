package obd

import (
	"fmt"
	"strconv"
	"strings"
)

// hexTokens normalizes a raw adapter reply and returns only the 2-character
// hex byte tokens. Echoed command text, "SEARCHING...", the ">" prompt and
// any other adapter chatter fall out here.
func hexTokens(raw string) []string {
	raw = strings.ToUpper(raw)
	raw = strings.ReplaceAll(raw, "\r", " ")
	raw = strings.ReplaceAll(raw, "\n", " ")
	raw = strings.ReplaceAll(raw, ">", " ")

	var tokens []string
	for _, t := range strings.Fields(raw) {
		if len(t) == 2 && isHex(t[0]) && isHex(t[1]) {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'A' && c <= 'F'
}

// parsePayload extracts the data bytes from a raw reply to a mode/pid
// request. A positive reply echoes mode+0x40 followed by the PID byte; the
// payload is everything after those two tokens. Returns nil when the frame
// is invalid or carries no data.
//
// Scanning tokens instead of slicing at fixed offsets tolerates command
// echo, CAN headers and multi-frame noise.
func parsePayload(raw string, mode, pid byte) []byte {
	tokens := hexTokens(raw)
	if len(tokens) == 0 {
		return nil
	}

	responseMode := fmt.Sprintf("%02X", mode+0x40)
	wantPID := fmt.Sprintf("%02X", pid)

	idx := -1
	for i, t := range tokens {
		if t == responseMode {
			idx = i
			break
		}
	}
	if idx == -1 || idx+1 >= len(tokens) || tokens[idx+1] != wantPID {
		return nil
	}

	rest := tokens[idx+2:]
	if len(rest) == 0 {
		return nil
	}
	data := make([]byte, 0, len(rest))
	for _, t := range rest {
		v, err := strconv.ParseUint(t, 16, 8)
		if err != nil {
			return nil
		}
		data = append(data, byte(v))
	}
	return data
}
