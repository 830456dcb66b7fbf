package chat

import (
	"encoding/json"
	"io"
	"strings"
	"time"
)

// DecodeResponse decodes a JSON object, converting any string value whose key
// ends in "At" into a time.Time. The chat API serializes every timestamp
// under such keys (createdAt, updatedAt, lastActiveAt, ...).
func DecodeResponse(r io.Reader) (map[string]any, error) {
	var raw map[string]any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	converted, _ := convertTimestamps("", raw).(map[string]any)
	if converted == nil {
		return raw, nil
	}
	return converted, nil
}

// convertTimestamps walks decoded JSON; string leaves under a key ending in
// "At" are parsed as RFC 3339 timestamps. Unparseable values pass through.
func convertTimestamps(key string, v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, inner := range val {
			val[k] = convertTimestamps(k, inner)
		}
		return val
	case []any:
		for i, inner := range val {
			val[i] = convertTimestamps(key, inner)
		}
		return val
	case string:
		if strings.HasSuffix(key, "At") {
			if t, err := time.Parse(time.RFC3339Nano, val); err == nil {
				return t
			}
		}
		return val
	default:
		return v
	}
}
