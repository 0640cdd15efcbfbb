// Package control implements the abstract operator-facing operations of
// spec.md §6 as plain functions over a session.Registry. It depends only on
// pkg/session; any host (HTTP, gRPC, a Unix socket) can be layered on top
// without this package knowing which one was chosen.
package control

import (
	"time"

	"github.com/fleetwire/gt06-gateway/pkg/session"
)

// SessionView is the list_sessions/get_session response shape.
type SessionView struct {
	Identifier     string     `json:"identifier"`
	Remote         string     `json:"remote"`
	ConnectedAt    time.Time  `json:"connected_at"`
	LastBatteryV   *float64   `json:"last_battery_v,omitempty"`
	LastOdometerM  *uint32    `json:"last_odometer_m,omitempty"`
}

// Stats is the stats() response shape.
type Stats struct {
	SessionCount   int   `json:"session_count"`
	ListenPort     int   `json:"listen_port"`
	UptimeSeconds  int64 `json:"uptime_seconds"`
}

// Surface adapts a session.Registry to the abstract control operations.
// It is safe for concurrent use; every method is a thin pass-through.
type Surface struct {
	registry   *session.Registry
	listenPort int
	startedAt  time.Time
}

// New builds a Surface over registry. listenPort is reported verbatim by
// Stats; it is not used for anything else.
func New(registry *session.Registry, listenPort int) *Surface {
	return &Surface{registry: registry, listenPort: listenPort, startedAt: time.Now()}
}

func toView(s session.Snapshot) SessionView {
	v := SessionView{
		Identifier:  s.Identifier,
		Remote:      s.Remote,
		ConnectedAt: s.ConnectedAt,
	}
	if s.HasBattery {
		b := s.LastBatteryV
		v.LastBatteryV = &b
	}
	if s.HasOdometer {
		o := s.LastOdometerM
		v.LastOdometerM = &o
	}
	return v
}

// ListSessions implements list_sessions().
func (s *Surface) ListSessions() []SessionView {
	snaps := s.registry.List()
	out := make([]SessionView, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, toView(snap))
	}
	return out
}

// GetSession implements get_session(identifier).
func (s *Surface) GetSession(identifier string) (SessionView, bool) {
	sess, ok := s.registry.Get(identifier)
	if !ok {
		return SessionView{}, false
	}
	return toView(sess.Snapshot()), true
}

// SendCommand implements send_command(identifier, text).
func (s *Surface) SendCommand(identifier, text string) bool {
	return s.registry.SendCommand(identifier, text)
}

// Immobilize implements the immobilize convenience action.
func (s *Surface) Immobilize(identifier string) bool {
	return s.registry.SendCommand(identifier, session.CommandImmobilize)
}

// Mobilize implements the mobilize convenience action.
func (s *Surface) Mobilize(identifier string) bool {
	return s.registry.SendCommand(identifier, session.CommandMobilize)
}

// RequestStatus implements the request_status convenience action.
func (s *Surface) RequestStatus(identifier string) bool {
	return s.registry.SendCommand(identifier, session.CommandRequestStatus)
}

// RequestLocation implements the request_location convenience action.
func (s *Surface) RequestLocation(identifier string) bool {
	return s.registry.SendCommand(identifier, session.CommandRequestLocation)
}

// RequestBattery implements the request_battery convenience action.
// spec.md §6 names a fallback command; callers that need the fallback on
// failure issue it themselves since SendCommand carries no device-side
// acknowledgment of which variant the firmware understood.
func (s *Surface) RequestBattery(identifier string) bool {
	return s.registry.SendCommand(identifier, session.CommandRequestBattery)
}

// ConfigureBatteryReporting implements configure_battery_reporting(minutes).
func (s *Surface) ConfigureBatteryReporting(identifier string, minutes int) bool {
	return s.registry.SendCommand(identifier, session.CommandBatteryInterval(minutes))
}

// GetStats implements stats().
func (s *Surface) GetStats() Stats {
	return Stats{
		SessionCount:  s.registry.Count(),
		ListenPort:    s.listenPort,
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	}
}
