// Package mock provides a scripted ELM327 adapter used by demo mode and
// tests. It answers the same command strings a real adapter would, with
// simulated sensor values that drift over time.
package mock

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
)

// Connector simulates an ELM327 over a Connector-shaped API. The zero value
// is not usable; call New.
type Connector struct {
	mu        sync.Mutex
	connected bool
	sent      []string

	// Responses overrides replies for exact command strings. Tests use this
	// to inject malformed or scripted frames.
	Responses map[string]string

	// FailWith, when set, makes every SendCommand fail with this error.
	FailWith error

	// Stored and pending trouble codes as raw byte-pair hex ("0143").
	StoredDTCs  []string
	PendingDTCs []string

	// VIN reported via Mode 09 PID 02.
	VIN string

	rpm      float64
	speed    float64
	coolant  float64
	throttle float64
	fuel     float64
}

func New() *Connector {
	return &Connector{
		Responses: make(map[string]string),
		VIN:       "1HGBH41JXMN109186",
		rpm:       820,
		speed:     0,
		coolant:   78,
		throttle:  12,
		fuel:      64,
	}
}

func (c *Connector) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = true
	return nil
}

func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	return nil
}

func (c *Connector) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Connector) Port() string {
	return "MOCK"
}

// Sent returns the commands received so far, oldest first.
func (c *Connector) Sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.sent))
	copy(out, c.sent)
	return out
}

func (c *Connector) SendCommand(cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.FailWith != nil {
		return "", c.FailWith
	}
	cmd = strings.ToUpper(strings.TrimSpace(cmd))
	c.sent = append(c.sent, cmd)

	if resp, ok := c.Responses[cmd]; ok {
		return resp, nil
	}
	if strings.HasPrefix(cmd, "AT") {
		return c.atReply(cmd), nil
	}

	switch {
	case cmd == "03":
		return dtcReply("43", c.StoredDTCs), nil
	case cmd == "07":
		return dtcReply("47", c.PendingDTCs), nil
	case cmd == "04":
		return "44 \r\r>", nil
	case cmd == "0902":
		return vinReply(c.VIN), nil
	case cmd == "090A":
		return asciiReply("0A", "ECM-SIM"), nil
	case cmd == "0904":
		return asciiReply("04", "SIM21A08"), nil
	case strings.HasPrefix(cmd, "01") && len(cmd) == 4:
		return c.pidReply(cmd[2:]), nil
	case strings.HasPrefix(cmd, "02") && len(cmd) == 6:
		return c.freezeReply(cmd[2:4]), nil
	}
	return "NO DATA\r\r>", nil
}

func (c *Connector) atReply(cmd string) string {
	switch strings.ReplaceAll(cmd, " ", "") {
	case "ATZ":
		return "ELM327 v1.5\r\r>"
	case "ATI":
		return "ELM327 v1.5\r\r>"
	case "ATRV":
		return "12.8V\r\r>"
	case "ATDP":
		return "AUTO, ISO 15765-4 (CAN 11/500)\r\r>"
	case "ATDPN":
		return "A6\r\r>"
	}
	return "OK\r\r>"
}

// pidReply encodes the current simulated state for a Mode 01 request and
// advances the random walk.
func (c *Connector) pidReply(pid string) string {
	c.step()
	data := c.encode(pid)
	if data == "" {
		return "NO DATA\r\r>"
	}
	return "41 " + pid + " " + data + " \r\r>"
}

func (c *Connector) freezeReply(pid string) string {
	data := c.encode(pid)
	if data == "" {
		return "NO DATA\r\r>"
	}
	return "42 " + pid + " " + data + " \r\r>"
}

func (c *Connector) encode(pid string) string {
	switch pid {
	case "01": // monitor status
		b0 := byte(len(c.StoredDTCs) & 0x7F)
		if len(c.StoredDTCs) > 0 {
			b0 |= 0x80
		}
		return fmt.Sprintf("%02X 00 00 00", b0)
	case "0C":
		return wordHex(c.rpm * 4)
	case "0D":
		return byteHex(c.speed)
	case "05":
		return byteHex(c.coolant + 40)
	case "04":
		return byteHex(c.throttle * 255 / 100)
	case "11":
		return byteHex(c.throttle * 255 / 100)
	case "0F":
		return byteHex(28 + 40)
	case "0B":
		return byteHex(99)
	case "2F":
		return byteHex(c.fuel * 255 / 100)
	case "42":
		return wordHex(14264)
	case "33":
		return byteHex(101)
	case "1F":
		return wordHex(342)
	case "06":
		return byteHex(131)
	case "0E":
		return byteHex((12 + 64) * 2)
	}
	return ""
}

func (c *Connector) step() {
	c.rpm = clamp(c.rpm+float64(rand.Intn(81)-40), 650, 4200)
	c.speed = clamp(c.speed+float64(rand.Intn(7)-3), 0, 180)
	c.coolant = clamp(c.coolant+float64(rand.Intn(3)-1)*0.5, 60, 108)
	c.throttle = clamp(c.throttle+float64(rand.Intn(9)-4), 4, 92)
	if rand.Float64() < 0.01 && c.fuel > 1 {
		c.fuel--
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func byteHex(v float64) string {
	n := int(v)
	if n < 0 {
		n = 0
	}
	if n > 0xFF {
		n = 0xFF
	}
	return fmt.Sprintf("%02X", n)
}

func wordHex(v float64) string {
	n := int(v)
	if n < 0 {
		n = 0
	}
	if n > 0xFFFF {
		n = 0xFFFF
	}
	return fmt.Sprintf("%02X %02X", n>>8, n&0xFF)
}

func dtcReply(mode string, pairs []string) string {
	tokens := []string{mode}
	for _, p := range pairs {
		if len(p) != 4 {
			continue
		}
		tokens = append(tokens, p[:2], p[2:])
	}
	// Pad to three code slots per frame.
	for len(tokens) < 7 {
		tokens = append(tokens, "00")
	}
	return strings.Join(tokens, " ") + " \r\r>"
}

func vinReply(vin string) string {
	tokens := []string{"49", "02", "01"}
	for i := 0; i < len(vin); i++ {
		tokens = append(tokens, fmt.Sprintf("%02X", vin[i]))
	}
	return strings.Join(tokens, " ") + " \r\r>"
}

func asciiReply(pid, text string) string {
	tokens := []string{"49", pid, "01"}
	for i := 0; i < len(text); i++ {
		tokens = append(tokens, fmt.Sprintf("%02X", text[i]))
	}
	return strings.Join(tokens, " ") + " \r\r>"
}
