// Package eventlog is the structured event sink used by every component:
// the session layer, the registry, and the command-correlation timers. It
// wraps logrus the way the teacher's cmd/bluetooth-service wraps the
// standard library logger, and additionally republishes every event onto a
// Redis channel for external dashboards.
package eventlog

import (
	"github.com/sirupsen/logrus"

	gt06redis "github.com/fleetwire/gt06-gateway/pkg/redis"
)

// Event names required by the wire contract. Kept as constants rather than
// string literals scattered through the codebase.
const (
	ConnectionOpen            = "connection_open"
	ConnectionClose           = "connection_close"
	FrameReceived             = "frame_received"
	Login                     = "login"
	Heartbeat                 = "heartbeat"
	GPSLocation               = "gps_location"
	Alarm                     = "alarm"
	InfoTransmission          = "info_transmission"
	CommandSent               = "command_sent"
	CommandResponseMatched    = "command_response_matched"
	CommandResponseUnmatched  = "command_response_unmatched"
	CommandTimeout            = "command_timeout"
	Resync                    = "resync"
	StructuralError           = "structural_error"
	UnknownOpcode             = "unknown_opcode"
	BackpressureExceeded      = "backpressure_exceeded"
)

// PublishChannel is the Redis pub/sub channel every event is mirrored to.
const PublishChannel = "gt06:events"

// Fields is an alias for logrus.Fields, used to key every log call by the
// event's data (identifier, sequence, opcode, remote address, latency).
type Fields = logrus.Fields

// Logger emits structured events to a logrus logger and, when a Redis
// client is attached, republishes them. Redis absence is non-fatal: Log
// always logs locally regardless of publish success.
type Logger struct {
	entry *logrus.Logger
	bus   *gt06redis.Client
}

// New builds a Logger writing through base. base may be logrus.StandardLogger()
// or a dedicated instance configured by pkg/config.
func New(base *logrus.Logger) *Logger {
	return &Logger{entry: base}
}

// AttachBus wires a Redis client for event republishing. Safe to call with
// a nil client, which disables publishing.
func (l *Logger) AttachBus(bus *gt06redis.Client) {
	l.bus = bus
}

// Log emits event at info level with the given fields, and republishes it
// to the event bus if one is attached.
func (l *Logger) Log(event string, fields Fields) {
	l.log(logrus.InfoLevel, event, fields)
}

// Warn emits event at warn level.
func (l *Logger) Warn(event string, fields Fields) {
	l.log(logrus.WarnLevel, event, fields)
}

func (l *Logger) log(level logrus.Level, event string, fields Fields) {
	f := logrus.Fields{}
	for k, v := range fields {
		f[k] = v
	}
	f["event"] = event
	l.entry.WithFields(f).Log(level, event)

	if l.bus == nil {
		return
	}
	payload := encodeEvent(event, fields)
	if err := l.bus.Publish(PublishChannel, payload); err != nil {
		l.entry.WithFields(logrus.Fields{"event": event, "error": err}).Debug("event bus publish failed")
	}
}
