package obd

import (
	"fmt"
	"strings"

	"gobd/internal/models"
	"gobd/pkg/log"

	"go.uber.org/zap"
)

// ErrNotScalar is returned when a multi-field PID is requested through the
// scalar read path. Multi-field PIDs have dedicated accessors.
var ErrNotScalar = fmt.Errorf("PID is not scalar, use the dedicated accessor")

// Reader reads sensor data, trouble codes and vehicle information through a
// Connector. Decode and transport failures on reads are absorbed into
// not-OK readings; only programming errors (unknown or misused keys)
// surface as errors.
type Reader struct {
	conn Connector
}

func NewReader(conn Connector) *Reader {
	return &Reader{conn: conn}
}

// ReadPID reads a single scalar PID by registry key.
func (r *Reader) ReadPID(key string) (models.Reading, error) {
	d, err := Lookup(key)
	if err != nil {
		return models.Reading{}, err
	}
	if !d.Scalar() {
		return models.Reading{}, fmt.Errorf("%w: %q", ErrNotScalar, key)
	}
	return r.readDescriptor(d), nil
}

func (r *Reader) readDescriptor(d Descriptor) models.Reading {
	raw, err := r.conn.SendCommand(d.Command())
	if err != nil {
		log.Debug("read failed", zap.String("key", d.Key), zap.Error(err))
		return models.Reading{}
	}
	data := parsePayload(raw, d.Mode, d.PID)
	if len(data) < d.Bytes {
		return models.Reading{}
	}
	return d.decode.apply(data[:d.Bytes])
}

// ReadAll performs a bulk scan over the given keys (default: every scalar
// registry key in registry order) and returns one snapshot. Keys the vehicle
// does not support come back as not-OK readings.
func (r *Reader) ReadAll(keys ...string) (models.Snapshot, error) {
	if len(keys) == 0 {
		keys = ScanKeys()
	}
	snap := models.NewSnapshot(keys)
	for _, key := range keys {
		reading, err := r.ReadPID(key)
		if err != nil {
			return models.Snapshot{}, err
		}
		snap.Readings[key] = reading
	}
	return snap, nil
}

// ReadSupported scans all scalar PIDs and returns only the ones the vehicle
// answered.
func (r *Reader) ReadSupported() (models.Snapshot, error) {
	full, err := r.ReadAll()
	if err != nil {
		return models.Snapshot{}, err
	}
	snap := models.NewSnapshot(nil)
	snap.Timestamp = full.Timestamp
	for _, key := range full.Keys {
		if reading := full.Readings[key]; reading.OK {
			snap.Keys = append(snap.Keys, key)
			snap.Readings[key] = reading
		}
	}
	return snap, nil
}

// ReadFreezeFrame reads a PID from freeze-frame storage (Mode 02). frame
// selects the stored frame, 0 being the first.
func (r *Reader) ReadFreezeFrame(key string, frame int) (models.Reading, error) {
	d, err := Lookup(key)
	if err != nil {
		return models.Reading{}, err
	}
	if !d.Scalar() {
		return models.Reading{}, fmt.Errorf("%w: %q", ErrNotScalar, key)
	}

	cmd := fmt.Sprintf("02%02X%02X", d.PID, frame)
	raw, err := r.conn.SendCommand(cmd)
	if err != nil {
		return models.Reading{}, nil
	}
	data := parsePayload(raw, 0x02, d.PID)
	if len(data) < d.Bytes {
		return models.Reading{}, nil
	}
	return d.decode.apply(data[:d.Bytes]), nil
}

// MonitorStatus reads the Mode 01 PID 01 bit-flag PID. ok is false when the
// vehicle did not answer.
func (r *Reader) MonitorStatus() (models.MonitorStatus, bool) {
	d, err := Lookup("MONITOR_STATUS")
	if err != nil {
		return models.MonitorStatus{}, false
	}
	raw, err := r.conn.SendCommand(d.Command())
	if err != nil {
		return models.MonitorStatus{}, false
	}
	return decodeMonitor(parsePayload(raw, d.Mode, d.PID))
}

// ReadDTCs reads stored trouble codes (Mode 03).
func (r *Reader) ReadDTCs() []models.DTCEntry {
	return r.readDTCMode("03")
}

// ReadPendingDTCs reads pending trouble codes (Mode 07).
func (r *Reader) ReadPendingDTCs() []models.DTCEntry {
	return r.readDTCMode("07")
}

func (r *Reader) readDTCMode(mode string) []models.DTCEntry {
	raw, err := r.conn.SendCommand(mode)
	if err != nil {
		log.Debug("DTC read failed", zap.String("mode", mode), zap.Error(err))
		return nil
	}
	var entries []models.DTCEntry
	for _, code := range parseDTCs(raw) {
		entries = append(entries, models.DTCEntry{Code: code, Description: DescribeDTC(code)})
	}
	return entries
}

// VIN reads the vehicle identification number (Mode 09 PID 02). Headers are
// switched on around the request so multi-frame replies can be reassembled.
func (r *Reader) VIN() string {
	r.conn.SendCommand(atCommands["HEADERS_ON"])
	raw, err := r.conn.SendCommand(fmt.Sprintf("%02X%02X", ModeVehicleInfo, PIDVIN))
	r.conn.SendCommand(atCommands["HEADERS_OFF"])
	if err != nil {
		return NotAvailable
	}
	return parseVIN(raw)
}

// ECUName reads the ECU name string (Mode 09 PID 0A).
func (r *Reader) ECUName() string {
	return r.readInfoString(PIDECUName)
}

// CalibrationID reads the calibration ID string (Mode 09 PID 04).
func (r *Reader) CalibrationID() string {
	return r.readInfoString(PIDCalibrationID)
}

func (r *Reader) readInfoString(pid byte) string {
	raw, err := r.conn.SendCommand(fmt.Sprintf("%02X%02X", ModeVehicleInfo, pid))
	if err != nil {
		return NotAvailable
	}
	return parseASCII(raw)
}

// Protocol returns the adapter's current protocol description (AT DP).
func (r *Reader) Protocol() string {
	return r.atString("DESCRIBE_PROTOCOL")
}

// ProtocolNumber returns the current protocol number (AT DPN).
func (r *Reader) ProtocolNumber() string {
	return r.atString("PROTOCOL_NUMBER")
}

// ELMVersion returns the adapter chip version banner (AT I).
func (r *Reader) ELMVersion() string {
	return r.atString("VERSION")
}

// BatteryVoltage returns the battery voltage reported by the adapter (AT RV).
func (r *Reader) BatteryVoltage() string {
	return r.atString("VOLTAGE")
}

func (r *Reader) atString(name string) string {
	raw, err := r.conn.SendCommand(atCommands[name])
	if err != nil {
		return NotAvailable
	}
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), string(Prompt)))
	if s == "" {
		return NotAvailable
	}
	return s
}
