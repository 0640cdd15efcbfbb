package session

import (
	"fmt"
	"time"

	"github.com/fleetwire/gt06-gateway/pkg/eventlog"
	"github.com/fleetwire/gt06-gateway/pkg/frame"
	"github.com/fleetwire/gt06-gateway/pkg/protocol"
)

// handleFrameSafely runs handleFrame with a panic recovered to this single
// frame: a bug in one opcode's parser or handler must not take down the
// whole connection, let alone the process (spec §7).
func (s *Session) handleFrameSafely(res frame.Result) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn(eventlog.StructuralError, eventlog.Fields{
				"conn_id": s.connID,
				"opcode":  protocol.Opcode(res.Opcode).String(),
				"reason":  "panic",
				"panic":   fmt.Sprint(r),
			})
		}
	}()
	s.handleFrame(res)
}

// handleFrame parses one extracted frame and runs its opcode-specific
// handler. Parser and structural errors are contained to this single
// frame: they are logged and the session continues (spec §7).
func (s *Session) handleFrame(res frame.Result) {
	s.log.Log(eventlog.FrameReceived, eventlog.Fields{
		"conn_id": s.connID,
		"opcode":  protocol.Opcode(res.Opcode).String(),
	})

	value, err := protocol.Parse(res)
	if err != nil {
		s.log.Warn(eventlog.StructuralError, eventlog.Fields{
			"conn_id": s.connID,
			"opcode":  protocol.Opcode(res.Opcode).String(),
			"error":   err.Error(),
		})
		return
	}

	switch v := value.(type) {
	case protocol.Login:
		s.handleLogin(v)
	case protocol.Heartbeat:
		s.handleHeartbeat(v)
	case protocol.GPSLocation:
		s.handleGPSLocation(v)
	case protocol.Alarm:
		s.handleAlarm(v)
	case protocol.LBSAlarm:
		s.enqueueWrite(protocol.BuildLBSAlarmAck(v.Sequence))
	case protocol.LBSMultiBase:
		// No acknowledgment per spec.md §4.3.6.
	case protocol.WiFi:
		s.enqueueWrite(protocol.BuildWiFiAck(v.Sequence))
	case protocol.CommandResponse:
		s.handleCommandResponse(v)
	case protocol.TimeCalibration:
		s.enqueueWrite(protocol.BuildTimeCalibrationResponse(v.Sequence, bcdNow()))
	case protocol.InfoTransmission:
		s.handleInfoTransmission(v)
		// No acknowledgment per spec.md §4.3.11.
	case protocol.LargeFileTransfer:
		s.enqueueWrite(protocol.BuildLargeFileTransferAck(v.Sequence, true))
	case protocol.ExtDeviceTransfer:
		s.enqueueWrite(protocol.BuildExtDeviceAck(v.Sequence))
	case protocol.ExtModuleTransmission:
		s.enqueueWrite(protocol.BuildExtModuleAck(v.ModuleID, v.Sequence))
	case protocol.Unknown:
		s.log.Log(eventlog.UnknownOpcode, eventlog.Fields{
			"conn_id": s.connID,
			"opcode":  v.Opcode,
		})
	}
}

func (s *Session) handleLogin(v protocol.Login) {
	s.mu.Lock()
	s.identifier = v.Identifier
	s.mu.Unlock()

	if s.registry != nil {
		s.registry.bind(v.Identifier, s)
	}

	s.log.Log(eventlog.Login, eventlog.Fields{
		"conn_id":    s.connID,
		"identifier": v.Identifier,
	})
	s.enqueueWrite(protocol.BuildLoginAck(v.Sequence))
}

func (s *Session) handleHeartbeat(v protocol.Heartbeat) {
	s.log.Log(eventlog.Heartbeat, eventlog.Fields{
		"conn_id":    s.connID,
		"identifier": s.Identifier(),
		"battery":    v.BatteryText,
		"signal":     v.GSMText,
		"acc_high":   v.AccHigh,
		"charging":   v.ChargingExternal,
	})
	s.enqueueWrite(protocol.BuildHeartbeatAck(v.Sequence))
}

func (s *Session) handleGPSLocation(v protocol.GPSLocation) {
	fields := eventlog.Fields{
		"conn_id":    s.connID,
		"identifier": s.Identifier(),
		"lat":        v.GPS.Latitude,
		"lon":        v.GPS.Longitude,
		"positioned": v.GPS.Positioned,
		"speed_kmh":  v.GPS.SpeedKMH,
	}
	if v.HasOdometer {
		s.mu.Lock()
		s.lastOdometerM = v.OdometerM
		s.lastOdometerAt = time.Now()
		s.hasOdometer = true
		s.mu.Unlock()
		fields["odometer_m"] = v.OdometerM
	}
	s.log.Log(eventlog.GPSLocation, fields)
	// No acknowledgment per spec.md §4.3.3.
}

func (s *Session) handleAlarm(v protocol.Alarm) {
	s.log.Log(eventlog.Alarm, eventlog.Fields{
		"conn_id":    s.connID,
		"identifier": s.Identifier(),
		"code":       v.AlarmCode,
		"text":       v.AlarmText,
		"has_gps":    v.HasGPS,
	})
	switch v.Opcode {
	case protocol.OpAlarm:
		s.enqueueWrite(protocol.BuildAlarmAck(v.Sequence))
	case protocol.OpAlarmHVT001:
		s.enqueueWrite(protocol.BuildAlarmHVT001Ack(v.Sequence))
	}
}

func (s *Session) handleCommandResponse(v protocol.CommandResponse) {
	s.pendingMu.Lock()
	p, ok := s.pending[v.Sequence]
	if ok {
		p.timer.Stop()
		delete(s.pending, v.Sequence)
	}
	s.pendingMu.Unlock()

	if !ok {
		s.log.Log(eventlog.CommandResponseUnmatched, eventlog.Fields{
			"conn_id":    s.connID,
			"identifier": s.Identifier(),
			"sequence":   v.Sequence,
			"text":       v.Text,
		})
		return
	}

	s.log.Log(eventlog.CommandResponseMatched, eventlog.Fields{
		"conn_id":    s.connID,
		"identifier": s.Identifier(),
		"sequence":   v.Sequence,
		"command":    p.text,
		"response":   v.Text,
		"latency_ms": time.Since(p.sentAt).Milliseconds(),
	})
}

// handleInfoTransmission records the last-known battery voltage when the
// sub-opcode carries one; every other sub-opcode is logged only.
func (s *Session) handleInfoTransmission(v protocol.InfoTransmission) {
	if v.SubOpcode != protocol.InfoSubExternalVoltage {
		s.log.Log(eventlog.InfoTransmission, eventlog.Fields{
			"conn_id":    s.connID,
			"identifier": s.Identifier(),
			"info_sub":   v.SubOpcode,
		})
		return
	}

	s.mu.Lock()
	s.lastBatteryV = v.ExternalVoltage
	s.lastBatteryAt = time.Now()
	s.hasBattery = true
	s.mu.Unlock()

	s.log.Log(eventlog.InfoTransmission, eventlog.Fields{
		"conn_id":    s.connID,
		"identifier": s.Identifier(),
		"battery_v":  v.ExternalVoltage,
	})
}

// bcdNow renders the current UTC time as the six-field sextuplet the time
// calibration response expects: year-2000, month, day, hour, minute, second.
func bcdNow() [6]byte {
	t := time.Now().UTC()
	return [6]byte{
		byte(t.Year() - 2000),
		byte(t.Month()),
		byte(t.Day()),
		byte(t.Hour()),
		byte(t.Minute()),
		byte(t.Second()),
	}
}
