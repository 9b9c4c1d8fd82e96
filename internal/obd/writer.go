package obd

import (
	"fmt"
	"strings"
)

// Named AT commands. These are opaque pass-through strings; the adapter's
// side effects are not modeled here.
var atCommands = map[string]string{
	"RESET":              "AT Z",
	"WARM_START":         "AT WS",
	"ECHO_OFF":           "AT E0",
	"ECHO_ON":            "AT E1",
	"LINEFEEDS_OFF":      "AT L0",
	"LINEFEEDS_ON":       "AT L1",
	"HEADERS_OFF":        "AT H0",
	"HEADERS_ON":         "AT H1",
	"SPACES_OFF":         "AT S0",
	"SPACES_ON":          "AT S1",
	"AUTO_PROTOCOL":      "AT SP 0",
	"PROTOCOL_CAN":       "AT SP 6",
	"DESCRIBE_PROTOCOL":  "AT DP",
	"PROTOCOL_NUMBER":    "AT DPN",
	"VOLTAGE":            "AT RV",
	"VERSION":            "AT I",
	"DEVICE_DESCRIPTION": "AT @1",
	"DEVICE_ID":          "AT @2",
	"ALLOW_LONG":         "AT AL",
	"ADAPTIVE_TIMING_0":  "AT AT0",
	"ADAPTIVE_TIMING_1":  "AT AT1",
	"ADAPTIVE_TIMING_2":  "AT AT2",
	"SLOW_INIT":          "AT SI",
	"FAST_INIT":          "AT FI",
}

// Writer sends raw and AT commands to the vehicle. Unlike reads, write
// failures surface as errors so the caller can tell "adapter said no" from
// "we couldn't talk to the adapter".
type Writer struct {
	conn Connector
}

func NewWriter(conn Connector) *Writer {
	return &Writer{conn: conn}
}

// SendRaw sends any AT or OBD command string and returns the raw reply.
func (w *Writer) SendRaw(cmd string) (string, error) {
	return w.conn.SendCommand(cmd)
}

// SendAT sends a named AT command from the table above.
func (w *Writer) SendAT(name string) (string, error) {
	cmd, ok := atCommands[name]
	if !ok {
		return "", fmt.Errorf("unknown AT command name %q", name)
	}
	return w.conn.SendCommand(cmd)
}

// ClearDTCs clears stored trouble codes and the MIL (Mode 04). The positive
// reply echoes 44.
func (w *Writer) ClearDTCs() error {
	resp, err := w.conn.SendCommand("04")
	if err != nil {
		return fmt.Errorf("clear DTCs: %w", err)
	}
	if strings.Contains(resp, "44") || strings.Contains(strings.ToUpper(resp), "OK") {
		return nil
	}
	return fmt.Errorf("clear DTCs: unexpected reply %q", strings.TrimSpace(resp))
}

// Reset performs a full adapter reset (AT Z).
func (w *Writer) Reset() (string, error) {
	return w.SendAT("RESET")
}

// SoftReset warm-starts the adapter without losing the selected protocol.
func (w *Writer) SoftReset() (string, error) {
	return w.SendAT("WARM_START")
}

// SetProtocol selects an OBD protocol explicitly (0 = auto, 6 = CAN 11/500).
func (w *Writer) SetProtocol(n int) (string, error) {
	return w.conn.SendCommand(fmt.Sprintf("AT SP %X", n))
}

// SetHeader sets a custom request header, e.g. "7DF".
func (w *Writer) SetHeader(header string) (string, error) {
	return w.conn.SendCommand("AT SH " + strings.ToUpper(header))
}

// SetTimeout sets the adapter response timeout in multiples of 4 ms.
func (w *Writer) SetTimeout(v int) (string, error) {
	return w.conn.SendCommand(fmt.Sprintf("AT ST %02X", v))
}
