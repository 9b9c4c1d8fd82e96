package obd

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"gobd/pkg/log"

	"github.com/tarm/serial"
	"go.uber.org/zap"
)

// ErrNotConnected is returned by SendCommand when the transport is not open.
var ErrNotConnected = errors.New("not connected to adapter")

const (
	// CR terminates every command on the wire.
	CR = "\r"

	// Prompt marks the end of adapter output.
	Prompt = '>'

	responseTimeout = 5 * time.Second
	resetSettle     = 1500 * time.Millisecond
	commandSettle   = 100 * time.Millisecond
)

// Connector is a synchronous, single-request-at-a-time channel to an
// ELM327-style adapter. SendCommand writes the command terminated by a
// carriage return and returns the accumulated reply text including the
// trailing prompt. A Connector is not safe for concurrent callers; the
// poller owns it exclusively while running.
type Connector interface {
	Connect() error
	Close() error
	Connected() bool
	Port() string
	SendCommand(cmd string) (string, error)
}

// SerialConnector talks to an ELM327 over a serial (USB or Bluetooth rfcomm)
// device.
type SerialConnector struct {
	portName string
	baud     int

	mu        sync.Mutex
	port      *serial.Port
	connected bool
}

// NewSerialConnector creates a connector for the given device path. An empty
// path selects a platform default.
func NewSerialConnector(portName string, baud int) *SerialConnector {
	if portName == "" {
		portName = defaultSerialDevice()
	}
	return &SerialConnector{portName: portName, baud: baud}
}

func defaultSerialDevice() string {
	switch runtime.GOOS {
	case "windows":
		return "COM3"
	case "darwin":
		return "/dev/tty.usbserial"
	default:
		return "/dev/ttyUSB0"
	}
}

// Connect opens the port and runs the adapter init sequence: reset, echo
// off, linefeeds off, automatic protocol selection.
func (s *SerialConnector) Connect() error {
	cfg := &serial.Config{
		Name:        s.portName,
		Baud:        s.baud,
		ReadTimeout: 100 * time.Millisecond,
	}

	port, err := serial.OpenPort(cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.portName, err)
	}

	s.mu.Lock()
	s.port = port
	s.connected = true
	s.mu.Unlock()

	log.Info("serial port opened", zap.String("port", s.portName), zap.Int("baud", s.baud))

	if err := s.initialize(); err != nil {
		s.Close()
		return fmt.Errorf("adapter initialization failed: %w", err)
	}
	return nil
}

func (s *SerialConnector) initialize() error {
	resp, err := s.SendCommand(atCommands["RESET"])
	if err != nil {
		return err
	}
	time.Sleep(resetSettle)
	if !strings.Contains(resp, "ELM") {
		log.Warn("no ELM327 banner in reset response", zap.String("response", resp))
	}

	for _, name := range []string{"ECHO_OFF", "LINEFEEDS_OFF", "AUTO_PROTOCOL"} {
		if _, err := s.SendCommand(atCommands[name]); err != nil {
			return fmt.Errorf("init command %s: %w", name, err)
		}
		time.Sleep(commandSettle)
	}
	return nil
}

func (s *SerialConnector) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

func (s *SerialConnector) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *SerialConnector) Port() string {
	return s.portName
}

// SendCommand writes cmd followed by CR and accumulates the reply byte by
// byte until the prompt character or the response timeout.
func (s *SerialConnector) SendCommand(cmd string) (string, error) {
	s.mu.Lock()
	port := s.port
	connected := s.connected
	s.mu.Unlock()

	if !connected || port == nil {
		return "", ErrNotConnected
	}

	log.Debug("write", zap.String("command", cmd))
	if _, err := port.Write([]byte(strings.TrimSpace(cmd) + CR)); err != nil {
		return "", fmt.Errorf("write %q: %w", cmd, err)
	}

	var sb strings.Builder
	buf := make([]byte, 1)
	deadline := time.Now().Add(responseTimeout)

	for time.Now().Before(deadline) {
		n, err := port.Read(buf)
		if err != nil {
			// The port read timeout surfaces as EOF; keep waiting for the
			// prompt until the overall deadline.
			continue
		}
		if n == 0 {
			continue
		}
		sb.WriteByte(buf[0])
		if buf[0] == Prompt {
			resp := sb.String()
			log.Debug("read", zap.String("response", resp))
			return resp, nil
		}
		deadline = time.Now().Add(responseTimeout)
	}

	if sb.Len() > 0 {
		return sb.String(), nil
	}
	return "", fmt.Errorf("timeout waiting for reply to %q", cmd)
}
