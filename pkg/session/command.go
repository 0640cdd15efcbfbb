package session

import (
	"time"

	"github.com/fleetwire/gt06-gateway/pkg/eventlog"
	"github.com/fleetwire/gt06-gateway/pkg/protocol"
)

// Convenience command strings for the operator control surface (spec §6).
const (
	CommandImmobilize      = "RELAY,1#"
	CommandMobilize        = "RELAY,0#"
	CommandRequestStatus   = "STATUS#"
	CommandRequestLocation = "WHERE#"
	CommandRequestBattery  = "BATPARAM,0#"
	CommandRequestBatteryFallback = "PARAM#"
)

// CommandBatteryInterval builds the "report battery every n minutes"
// command string.
func CommandBatteryInterval(minutes int) string {
	return "BATINTERVAL," + itoa(minutes) + "#"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// sendCommand encodes text as an outbound command frame, queues it for
// write, and records a pending-command entry keyed by the sequence used,
// armed with a 60-second expiry timer (spec §4.4).
func (s *Session) sendCommand(text string) {
	seq := s.nextSequence()
	frameBytes := protocol.BuildCommand(text, seq)

	p := &pendingCommand{text: text, sentAt: time.Now()}
	p.timer = time.AfterFunc(pendingTTL, func() { s.expireCommand(seq) })

	s.pendingMu.Lock()
	s.pending[seq] = p
	s.pendingMu.Unlock()

	s.log.Log(eventlog.CommandSent, eventlog.Fields{
		"conn_id":    s.connID,
		"identifier": s.Identifier(),
		"sequence":   seq,
		"command":    text,
	})
	s.enqueueWrite(frameBytes)
}

// expireCommand removes a pending-command entry that timed out without a
// correlated response and emits a timeout event.
func (s *Session) expireCommand(seq uint16) {
	s.pendingMu.Lock()
	p, ok := s.pending[seq]
	if ok {
		delete(s.pending, seq)
	}
	s.pendingMu.Unlock()
	if !ok {
		return
	}
	if s.metrics != nil {
		s.metrics.CommandTimeout()
	}
	s.log.Log(eventlog.CommandTimeout, eventlog.Fields{
		"conn_id":    s.connID,
		"identifier": s.Identifier(),
		"sequence":   seq,
		"command":    p.text,
	})
}
