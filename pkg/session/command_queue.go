package session

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/fleetwire/gt06-gateway/pkg/eventlog"
	gt06redis "github.com/fleetwire/gt06-gateway/pkg/redis"
)

// CommandQueueKey is the single shared Redis list an operator tool can
// LPUSH onto instead of calling the HTTP control surface directly.
const CommandQueueKey = "gt06:commands"

// queuedCommand is the JSON payload pushed onto CommandQueueKey:
// {"identifier":"...", "text":"RELAY,1#"}.
type queuedCommand struct {
	Identifier string `json:"identifier"`
	Text       string `json:"text"`
}

// WatchCommandQueue blocks on BRPOP against CommandQueueKey and drains each
// entry into r.SendCommand, adapted from the teacher's
// WatchRedisCommands/BRPop loop over its BLE command list. It returns when
// ctx is cancelled.
func (r *Registry) WatchCommandQueue(ctx context.Context, bus *gt06redis.Client) {
	if bus == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result, err := bus.BRPop(time.Second, CommandQueueKey)
		if err != nil {
			r.log.Warn(eventlog.StructuralError, eventlog.Fields{"reason": "command_queue_error", "error": err.Error()})
			time.Sleep(time.Second)
			continue
		}
		if result == nil {
			continue
		}

		r.dispatchQueuedCommand(result[1])
	}
}

// QueueCommand pushes a single command onto CommandQueueKey for the
// watcher goroutine to drain.
func QueueCommand(bus *gt06redis.Client, identifier, text string) error {
	payload, err := json.Marshal(queuedCommand{Identifier: identifier, Text: text})
	if err != nil {
		return err
	}
	return bus.LPush(CommandQueueKey, string(payload))
}

func (r *Registry) dispatchQueuedCommand(raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	var q queuedCommand
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		r.log.Warn(eventlog.StructuralError, eventlog.Fields{"reason": "command_queue_decode", "error": err.Error()})
		return
	}
	if !r.SendCommand(q.Identifier, q.Text) {
		r.log.Log(eventlog.CommandResponseUnmatched, eventlog.Fields{
			"identifier": q.Identifier,
			"reason":     "not_connected",
		})
	}
}
