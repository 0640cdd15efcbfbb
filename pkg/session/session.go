// Package session implements the per-connection GT06 state machine: a
// growing receive buffer drained through the frame codec, opcode dispatch
// into pkg/protocol, pending-command correlation with a 60-second expiry,
// and the online-device registry used by the operator control surface.
package session

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/fleetwire/gt06-gateway/pkg/eventlog"
	"github.com/fleetwire/gt06-gateway/pkg/frame"
)

// maxBufferSize bounds a session's receive buffer. A declared frame length
// that would require more than this is a protocol violation, not a slow
// trickle of bytes; the session closes rather than growing unbounded
// (spec §9, "Buffer growth").
const maxBufferSize = 64 * 1024

// pendingTTL is how long a sent command waits for a correlated response
// before it is expired and reported as a timeout.
const pendingTTL = 60 * time.Second

// writeQueueDepth bounds the outbound queue. A session whose peer stops
// draining its socket accumulates writes here; once full the session is
// closed rather than let one slow device stall the registry.
const writeQueueDepth = 64

var errBackpressure = errors.New("session: outbound queue full")

// pendingCommand tracks one in-flight operator command awaiting a
// correlated 0x21/0x15 response.
type pendingCommand struct {
	text    string
	sentAt  time.Time
	timer   *time.Timer
}

// Snapshot is the read-only view of a session exposed to external
// collaborators (the operator control surface, the admin feed).
type Snapshot struct {
	Identifier      string
	Remote          string
	ConnID          string
	ConnectedAt     time.Time
	LastBatteryV    float64
	LastBatteryAt   time.Time
	HasBattery      bool
	LastOdometerM   uint32
	LastOdometerAt  time.Time
	HasOdometer     bool
	PendingCommands int
}

// Session owns one device TCP connection from accept to close.
type Session struct {
	conn   net.Conn
	connID string
	remote string

	registry *Registry
	log      *eventlog.Logger
	metrics  MetricsSink

	buf []byte

	mu             sync.Mutex
	identifier     string
	connectedAt    time.Time
	lastBatteryV   float64
	lastBatteryAt  time.Time
	hasBattery     bool
	lastOdometerM  uint32
	lastOdometerAt time.Time
	hasOdometer    bool
	seq            uint16

	pendingMu sync.Mutex
	pending   map[uint16]*pendingCommand

	writeCh chan []byte
	closeCh chan struct{}
	once    sync.Once
}

// MetricsSink receives counters from a session's lifecycle. pkg/metrics
// implements this; nil is valid and disables metrics.
type MetricsSink interface {
	FrameReceived(opcode byte)
	AckSent()
	CommandTimeout()
	Resync()
	SessionOpened()
	SessionClosed()
}

// New wraps an accepted connection. The caller must call Run to start the
// read loop.
func New(conn net.Conn, registry *Registry, log *eventlog.Logger, m MetricsSink) *Session {
	s := &Session{
		conn:        conn,
		connID:      xid.New().String(),
		remote:      conn.RemoteAddr().String(),
		registry:    registry,
		log:         log,
		metrics:     m,
		connectedAt: time.Now(),
		pending:     make(map[uint16]*pendingCommand),
		writeCh:     make(chan []byte, writeQueueDepth),
		closeCh:     make(chan struct{}),
	}
	return s
}

// Run drives the session until the connection closes or ctx is cancelled.
// It starts the writer goroutine and blocks in the read loop.
func (s *Session) Run(ctx context.Context) {
	s.log.Log(eventlog.ConnectionOpen, eventlog.Fields{"conn_id": s.connID, "remote": s.remote})
	if s.metrics != nil {
		s.metrics.SessionOpened()
	}

	go s.writeLoop()

	defer s.close("eof")

	go func() {
		select {
		case <-ctx.Done():
			s.close("shutdown")
		case <-s.closeCh:
		}
	}()

	readBuf := make([]byte, 4096)
	for {
		n, err := s.conn.Read(readBuf)
		if n > 0 {
			s.onBytes(readBuf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Warn(eventlog.ConnectionClose, eventlog.Fields{"conn_id": s.connID, "error": err.Error()})
			}
			return
		}
	}
}

// onBytes appends newly read bytes to the session buffer and drains as many
// complete frames as the codec can extract.
func (s *Session) onBytes(b []byte) {
	if len(s.buf)+len(b) > maxBufferSize {
		s.log.Warn(eventlog.StructuralError, eventlog.Fields{"conn_id": s.connID, "reason": "frame_too_large"})
		s.close("frame_too_large")
		return
	}
	s.buf = append(s.buf, b...)

	for {
		res := frame.Decode(s.buf)
		switch res.Outcome {
		case frame.NeedMoreBytes:
			return
		case frame.Resync:
			if s.metrics != nil {
				s.metrics.Resync()
			}
			s.log.Log(eventlog.Resync, eventlog.Fields{"conn_id": s.connID, "skipped": res.Advance})
			s.buf = s.buf[res.Advance:]
		case frame.Frame:
			if res.BadTerminator {
				s.log.Warn(eventlog.StructuralError, eventlog.Fields{"conn_id": s.connID, "reason": "bad_terminator"})
			}
			if s.metrics != nil {
				s.metrics.FrameReceived(res.Opcode)
			}
			s.handleFrameSafely(res)
			s.buf = s.buf[res.Advance:]
		}
	}
}

// enqueueWrite queues an outbound frame, closing the session on
// backpressure rather than blocking the read loop.
func (s *Session) enqueueWrite(b []byte) {
	select {
	case s.writeCh <- b:
	default:
		s.log.Warn(eventlog.BackpressureExceeded, eventlog.Fields{"conn_id": s.connID})
		s.close("backpressure_exceeded")
	}
}

func (s *Session) writeLoop() {
	for {
		select {
		case b, ok := <-s.writeCh:
			if !ok {
				return
			}
			if _, err := s.conn.Write(b); err != nil {
				s.close("write_error")
				return
			}
			if s.metrics != nil {
				s.metrics.AckSent()
			}
		case <-s.closeCh:
			return
		}
	}
}

// close tears the session down idempotently: stops the writer, cancels
// pending-command timers, removes the registry entry if this session still
// owns it, and closes the socket.
func (s *Session) close(reason string) {
	s.once.Do(func() {
		close(s.closeCh)
		s.conn.Close()

		s.pendingMu.Lock()
		for seq, p := range s.pending {
			p.timer.Stop()
			delete(s.pending, seq)
		}
		s.pendingMu.Unlock()

		s.mu.Lock()
		id := s.identifier
		s.mu.Unlock()
		if id != "" && s.registry != nil {
			s.registry.remove(id, s)
		}

		if s.metrics != nil {
			s.metrics.SessionClosed()
		}
		s.log.Log(eventlog.ConnectionClose, eventlog.Fields{"conn_id": s.connID, "remote": s.remote, "reason": reason})
	})
}

// Identifier returns the bound device identifier, or "" if the session has
// not completed login yet.
func (s *Session) Identifier() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identifier
}

// Snapshot returns a point-in-time read-only view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingMu.Lock()
	pendingCount := len(s.pending)
	s.pendingMu.Unlock()
	return Snapshot{
		Identifier:      s.identifier,
		Remote:          s.remote,
		ConnID:          s.connID,
		ConnectedAt:     s.connectedAt,
		LastBatteryV:    s.lastBatteryV,
		LastBatteryAt:   s.lastBatteryAt,
		HasBattery:      s.hasBattery,
		LastOdometerM:   s.lastOdometerM,
		LastOdometerAt:  s.lastOdometerAt,
		HasOdometer:     s.hasOdometer,
		PendingCommands: pendingCount,
	}
}

// nextSequence returns the next outbound command sequence for this
// session: a monotonic per-session counter rather than the source's global
// random pick, removing the 60-second collision window spec §9 flags as an
// open question.
func (s *Session) nextSequence() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}
