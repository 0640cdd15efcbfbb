package eventlog

import "encoding/json"

// encodeEvent renders an event and its fields as a flat JSON object for the
// Redis channel. JSON, not CBOR, because this feed is meant for ad-hoc
// dashboards and `redis-cli subscribe` inspection; the binary admin feed in
// pkg/adminsock is the one that carries CBOR (see DESIGN.md).
func encodeEvent(event string, fields Fields) string {
	payload := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["event"] = event

	b, err := json.Marshal(payload)
	if err != nil {
		return `{"event":"` + event + `"}`
	}
	return string(b)
}
